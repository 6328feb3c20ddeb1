package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/storacha/filecoin-services/go/bindings"
)

type Registry interface {
	IsRegisteredProvider(ctx context.Context, provider common.Address) (bool, error)
	GetProviderByAddress(ctx context.Context, provider common.Address) (*ProviderInfo, error)
	EncodePDPOffering(ctx context.Context, pdpOffering ServiceProviderRegistryStoragePDPOffering) ([]byte, error)

	// GetProvidersByIds batches a provider-info read by id; providerInfos[i]
	// is only valid when validIds[i] is true.
	GetProvidersByIds(ctx context.Context, ids []*big.Int) (providerInfos []*ProviderInfo, validIds []bool, err error)
	// GetAllActiveProviders pages through active provider ids.
	GetAllActiveProviders(ctx context.Context, offset, limit *big.Int) (ids []*big.Int, hasMore bool, err error)
	// GetPDPProduct reads back the PDP capability offering a provider
	// registered (the inverse of EncodePDPOffering/BuildPDPCapabilities).
	GetPDPProduct(ctx context.Context, providerID *big.Int) (offering *ServiceProviderRegistryStoragePDPOffering, isActive bool, serviceStatus []byte, err error)

	// not part of contract code, added for convience in testing and usage
	Address() common.Address
}

type ServiceProviderRegistryStoragePDPOffering struct {
	ServiceURL                 string
	MinPieceSizeInBytes        *big.Int
	MaxPieceSizeInBytes        *big.Int
	IpniPiece                  bool
	IpniIpfs                   bool
	StoragePricePerTibPerMonth *big.Int
	MinProvingPeriodInEpochs   *big.Int
	Location                   string
	PaymentTokenAddress        common.Address
}

type ProviderInfo struct {
	ID              *big.Int
	ServiceProvider common.Address
	Payee           common.Address
	Name            string
	Description     string
	IsActive        bool
}

type serviceProviderRegistry struct {
	address          common.Address
	registryContract *bindings.ServiceProviderRegistry
	client           bind.ContractBackend
}

func NewRegistry(address common.Address, client bind.ContractBackend) (Registry, error) {
	registryContract, err := bindings.NewServiceProviderRegistry(address, client)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize registry contract: %w", err)
	}
	return &serviceProviderRegistry{
		address:          address,
		registryContract: registryContract,
		client:           client,
	}, nil
}

func (r *serviceProviderRegistry) IsRegisteredProvider(ctx context.Context, provider common.Address) (bool, error) {
	return r.registryContract.IsRegisteredProvider(&bind.CallOpts{Context: ctx}, provider)
}

func (r *serviceProviderRegistry) GetProviderByAddress(ctx context.Context, provider common.Address) (*ProviderInfo, error) {
	providerInfo, err := r.registryContract.GetProviderByAddress(&bind.CallOpts{Context: ctx}, provider)
	if err != nil {
		return nil, fmt.Errorf("failed to get provider by address: %w", err)
	}

	return &ProviderInfo{
		ID:              providerInfo.ProviderId,
		ServiceProvider: provider,
		Payee:           providerInfo.Info.Payee,
		Name:            providerInfo.Info.Name,
		Description:     providerInfo.Info.Description,
		IsActive:        providerInfo.Info.IsActive,
	}, nil
}

func (r *serviceProviderRegistry) EncodePDPOffering(ctx context.Context, pdpOffering ServiceProviderRegistryStoragePDPOffering) ([]byte, error) {
	return r.registryContract.EncodePDPOffering(&bind.CallOpts{Context: ctx}, bindings.ServiceProviderRegistryStoragePDPOffering{
		ServiceURL:                 pdpOffering.ServiceURL,
		MinPieceSizeInBytes:        pdpOffering.MinPieceSizeInBytes,
		MaxPieceSizeInBytes:        pdpOffering.MaxPieceSizeInBytes,
		IpniPiece:                  pdpOffering.IpniPiece,
		IpniIpfs:                   pdpOffering.IpniIpfs,
		StoragePricePerTibPerMonth: pdpOffering.StoragePricePerTibPerMonth,
		MinProvingPeriodInEpochs:   pdpOffering.MinProvingPeriodInEpochs,
		Location:                   pdpOffering.Location,
		PaymentTokenAddress:        pdpOffering.PaymentTokenAddress,
	})
}

func (r *serviceProviderRegistry) GetProvidersByIds(ctx context.Context, ids []*big.Int) ([]*ProviderInfo, []bool, error) {
	result, err := r.registryContract.GetProvidersByIds(&bind.CallOpts{Context: ctx}, ids)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get providers by ids: %w", err)
	}

	infos := make([]*ProviderInfo, len(result.ProviderInfos))
	for i, p := range result.ProviderInfos {
		infos[i] = &ProviderInfo{
			ID:              p.ProviderId,
			ServiceProvider: p.Info.ServiceProvider,
			Payee:           p.Info.Payee,
			Name:            p.Info.Name,
			Description:     p.Info.Description,
			IsActive:        p.Info.IsActive,
		}
	}
	return infos, result.ValidIds, nil
}

func (r *serviceProviderRegistry) GetAllActiveProviders(ctx context.Context, offset, limit *big.Int) ([]*big.Int, bool, error) {
	result, err := r.registryContract.GetAllActiveProviders(&bind.CallOpts{Context: ctx}, offset, limit)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get active providers: %w", err)
	}
	return result.ProviderIds, result.HasMore, nil
}

// getPDPServiceABI is the single-method ABI fragment for the registry's PDP
// product reader. No generated binding method for it exists anywhere in
// the retrieval pack (registration is the only PDP-product path the
// teacher exercises); the name and return shape mirror the write side
// (EncodePDPOffering / BuildPDPCapabilities in utils.go) and the
// PDPService naming convention used throughout this codebase.
const getPDPServiceABI = `[{"inputs":[{"internalType":"uint256","name":"providerId","type":"uint256"}],"name":"getPDPService","outputs":[{"components":[{"internalType":"string","name":"serviceURL","type":"string"},{"internalType":"uint256","name":"minPieceSizeInBytes","type":"uint256"},{"internalType":"uint256","name":"maxPieceSizeInBytes","type":"uint256"},{"internalType":"bool","name":"ipniPiece","type":"bool"},{"internalType":"bool","name":"ipniIpfs","type":"bool"},{"internalType":"uint256","name":"storagePricePerTibPerMonth","type":"uint256"},{"internalType":"uint256","name":"minProvingPeriodInEpochs","type":"uint256"},{"internalType":"string","name":"location","type":"string"},{"internalType":"address","name":"paymentTokenAddress","type":"address"}],"internalType":"struct ServiceProviderRegistryStorage.PDPOffering","name":"offering","type":"tuple"},{"internalType":"bool","name":"isActive","type":"bool"},{"internalType":"bytes","name":"serviceStatus","type":"bytes"}],"stateMutability":"view","type":"function"}]`

var getPDPServiceParsed abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(getPDPServiceABI))
	if err != nil {
		panic(fmt.Sprintf("chain: parsing getPDPService ABI: %v", err))
	}
	getPDPServiceParsed = parsed
}

func (r *serviceProviderRegistry) GetPDPProduct(ctx context.Context, providerID *big.Int) (*ServiceProviderRegistryStoragePDPOffering, bool, []byte, error) {
	data, err := getPDPServiceParsed.Pack("getPDPService", providerID)
	if err != nil {
		return nil, false, nil, fmt.Errorf("packing getPDPService call: %w", err)
	}
	out, err := r.client.CallContract(ctx, ethereumCallMsg(r.address, data), nil)
	if err != nil {
		return nil, false, nil, fmt.Errorf("calling getPDPService: %w", err)
	}

	var result struct {
		Offering      ServiceProviderRegistryStoragePDPOffering
		IsActive      bool
		ServiceStatus []byte
	}
	if err := getPDPServiceParsed.UnpackIntoInterface(&result, "getPDPService", out); err != nil {
		return nil, false, nil, fmt.Errorf("unpacking getPDPService result: %w", err)
	}
	return &result.Offering, result.IsActive, result.ServiceStatus, nil
}

func (r *serviceProviderRegistry) Address() common.Address {
	return r.address
}
