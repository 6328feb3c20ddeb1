package provider_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/FilOzone/synapse-sdk-go/pkg/chain"
	"github.com/FilOzone/synapse-sdk-go/pkg/errors"
	"github.com/FilOzone/synapse-sdk-go/pkg/provider"
)

// fakeService implements chain.Service, returning canned approved ids.
type fakeService struct {
	chain.Service
	approvedIDs     []*big.Int
	approvedIDsCall int
}

func (f *fakeService) GetAllApprovedProviders(context.Context) ([]*big.Int, error) {
	f.approvedIDsCall++
	return f.approvedIDs, nil
}

// fakeRegistry implements chain.Registry against an in-memory id->info map.
type fakeRegistry struct {
	chain.Registry
	infos          map[string]*chain.ProviderInfo
	offerings      map[string]*chain.ServiceProviderRegistryStoragePDPOffering
	offeringActive map[string]bool
	serviceStatus  map[string][]byte
	byIDsCalls     int
}

func (f *fakeRegistry) GetProvidersByIds(ctx context.Context, ids []*big.Int) ([]*chain.ProviderInfo, []bool, error) {
	f.byIDsCalls++
	infos := make([]*chain.ProviderInfo, len(ids))
	valid := make([]bool, len(ids))
	for i, id := range ids {
		info, ok := f.infos[id.String()]
		infos[i] = info
		valid[i] = ok
	}
	return infos, valid, nil
}

func (f *fakeRegistry) GetProviderByAddress(ctx context.Context, address common.Address) (*chain.ProviderInfo, error) {
	for _, info := range f.infos {
		if info.ServiceProvider == address {
			return info, nil
		}
	}
	return nil, errors.New(errors.KindNoProvidersAvailable, "test", "not found")
}

func (f *fakeRegistry) GetPDPProduct(ctx context.Context, id *big.Int) (*chain.ServiceProviderRegistryStoragePDPOffering, bool, []byte, error) {
	offering, ok := f.offerings[id.String()]
	if !ok {
		return nil, false, nil, errors.New(errors.KindNoProvidersAvailable, "test", "no PDP product")
	}
	return offering, f.offeringActive[id.String()], f.serviceStatus[id.String()], nil
}

func mkProvider(id int64, addr common.Address, serviceURL string, active bool) (*chain.ProviderInfo, *chain.ServiceProviderRegistryStoragePDPOffering) {
	info := &chain.ProviderInfo{
		ID:              big.NewInt(id),
		ServiceProvider: addr,
		Name:            "provider",
		IsActive:        active,
	}
	offering := &chain.ServiceProviderRegistryStoragePDPOffering{
		ServiceURL:                 serviceURL,
		MinPieceSizeInBytes:        big.NewInt(1),
		MaxPieceSizeInBytes:        big.NewInt(1 << 30),
		StoragePricePerTibPerMonth: big.NewInt(100),
		MinProvingPeriodInEpochs:   big.NewInt(2880),
	}
	return info, offering
}

func TestApprovedProviders_FiltersUnusable(t *testing.T) {
	addr1 := common.HexToAddress("0x1")
	addr2 := common.HexToAddress("0x2")
	info1, offering1 := mkProvider(1, addr1, "https://pdp.example.com", true)
	info2, offering2 := mkProvider(2, addr2, "", true) // no serviceURL: unusable

	reg := &fakeRegistry{
		infos:          map[string]*chain.ProviderInfo{"1": info1, "2": info2},
		offerings:      map[string]*chain.ServiceProviderRegistryStoragePDPOffering{"1": offering1, "2": offering2},
		offeringActive: map[string]bool{"1": true, "2": true},
	}
	svc := &fakeService{approvedIDs: []*big.Int{big.NewInt(1), big.NewInt(2)}}

	r := provider.New(svc, reg)
	providers, err := r.ApprovedProviders(context.Background(), provider.Filter{})
	require.NoError(t, err)
	require.Len(t, providers, 1)
	require.Equal(t, addr1, providers[0].Address)
}

func TestGetProviders_CachesAcrossCalls(t *testing.T) {
	addr := common.HexToAddress("0x1")
	info, offering := mkProvider(1, addr, "https://pdp.example.com", true)
	reg := &fakeRegistry{
		infos:          map[string]*chain.ProviderInfo{"1": info},
		offerings:      map[string]*chain.ServiceProviderRegistryStoragePDPOffering{"1": offering},
		offeringActive: map[string]bool{"1": true},
	}
	svc := &fakeService{approvedIDs: []*big.Int{big.NewInt(1)}}
	r := provider.New(svc, reg)

	_, err := r.GetProviders(context.Background(), []*big.Int{big.NewInt(1)}, provider.Filter{})
	require.NoError(t, err)
	_, err = r.GetProviders(context.Background(), []*big.Int{big.NewInt(1)}, provider.Filter{})
	require.NoError(t, err)

	require.Equal(t, 1, reg.byIDsCalls, "second lookup should be served from cache")
}

func TestDevOnlyProvider_ExcludedUnlessOptedIn(t *testing.T) {
	addr := common.HexToAddress("0x1")
	info, offering := mkProvider(1, addr, "https://pdp.example.com", true)
	reg := &fakeRegistry{
		infos:          map[string]*chain.ProviderInfo{"1": info},
		offerings:      map[string]*chain.ServiceProviderRegistryStoragePDPOffering{"1": offering},
		offeringActive: map[string]bool{"1": true},
		serviceStatus:  map[string][]byte{"1": []byte("dev")},
	}
	svc := &fakeService{approvedIDs: []*big.Int{big.NewInt(1)}}

	r := provider.New(svc, reg)
	excluded, err := r.GetProviders(context.Background(), []*big.Int{big.NewInt(1)}, provider.Filter{})
	require.NoError(t, err)
	require.Empty(t, excluded, "dev-only provider must be excluded by default")

	included, err := r.GetProviders(context.Background(), []*big.Int{big.NewInt(1)}, provider.Filter{IncludeDev: true})
	require.NoError(t, err)
	require.Len(t, included, 1)
}

func TestGetProviderByAddress_NotFound(t *testing.T) {
	reg := &fakeRegistry{
		infos:          map[string]*chain.ProviderInfo{},
		offerings:      map[string]*chain.ServiceProviderRegistryStoragePDPOffering{},
		offeringActive: map[string]bool{},
	}
	svc := &fakeService{}
	r := provider.New(svc, reg)

	_, err := r.GetProviderByAddress(context.Background(), common.HexToAddress("0xdead"), provider.Filter{})
	require.Error(t, err)
}
