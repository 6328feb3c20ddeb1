package storagecontext_test

import (
	"context"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"github.com/FilOzone/synapse-sdk-go/pkg/chain"
	"github.com/FilOzone/synapse-sdk-go/pkg/errors"
	"github.com/FilOzone/synapse-sdk-go/pkg/provider"
	"github.com/FilOzone/synapse-sdk-go/pkg/storagecontext"
	"github.com/FilOzone/synapse-sdk-go/pkg/types"
)

var clientAddr = common.HexToAddress("0xc1ee17")
var providerAddr = common.HexToAddress("0xde17ad")
var serviceAddr = common.HexToAddress("0x5e271ce")

type fakeService struct {
	chain.Service
	dataSets    map[string]*chain.DataSetInfo
	clientSets  []*big.Int
	getDataSetErr error
}

func (f *fakeService) GetDataSet(ctx context.Context, id *big.Int) (*chain.DataSetInfo, error) {
	if f.getDataSetErr != nil {
		return nil, f.getDataSetErr
	}
	info, ok := f.dataSets[id.String()]
	if !ok {
		return nil, errors.New(errors.KindChainCallFailed, "test", "no such data set")
	}
	return info, nil
}

func (f *fakeService) GetClientDataSets(ctx context.Context, payer common.Address) ([]*big.Int, error) {
	return f.clientSets, nil
}

func (f *fakeService) PDPConfig(ctx context.Context) (chain.PDPConfig, error) {
	return chain.PDPConfig{
		MaxProvingPeriod: 60,
		ChallengeWindow:  big.NewInt(20),
	}, nil
}

type fakeVerifier struct {
	chain.Verifier
	listener         map[string]common.Address
	pieces           map[string]*big.Int
	createdDataSetID uint64
}

func (f *fakeVerifier) GetDataSetListener(ctx context.Context, id *big.Int) (common.Address, error) {
	return f.listener[id.String()], nil
}

func (f *fakeVerifier) GetActivePieceCount(ctx context.Context, id *big.Int) (*big.Int, error) {
	if n, ok := f.pieces[id.String()]; ok {
		return n, nil
	}
	return big.NewInt(0), nil
}

func (f *fakeVerifier) Address() common.Address { return common.Address{} }

func (f *fakeVerifier) GetDataSetIdFromReceipt(receipt *ethtypes.Receipt) (uint64, error) {
	return f.createdDataSetID, nil
}

func newAdapter() *chain.Adapter {
	return &chain.Adapter{
		Signer:    stubSigner{addr: clientAddr},
		Addresses: chain.ContractAddresses{Service: serviceAddr},
	}
}

type stubSigner struct{ addr common.Address }

func (s stubSigner) Address() common.Address { return s.addr }

func mkDataSet(id, providerID int64, payer common.Address, pieceCount int64) *chain.DataSetInfo {
	return &chain.DataSetInfo{
		DataSetId:       big.NewInt(id),
		ClientDataSetId: big.NewInt(id),
		ProviderId:      big.NewInt(providerID),
		Payer:           payer,
		Payee:           providerAddr,
		PdpRailId:       big.NewInt(1),
		CacheMissRailId: big.NewInt(0),
		CdnRailId:       big.NewInt(0),
		PdpEndEpoch:     big.NewInt(0),
	}
}

func pdpServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
}

func TestResolveByDataSetID_RejectsWrongOwner(t *testing.T) {
	svc := &fakeService{dataSets: map[string]*chain.DataSetInfo{
		"5": mkDataSet(5, 1, common.HexToAddress("0xnotclient"), 0),
	}}
	deps := storagecontext.Deps{
		Adapter:  newAdapter(),
		Service:  svc,
		Verifier: &fakeVerifier{listener: map[string]common.Address{}, pieces: map[string]*big.Int{}},
	}
	r := storagecontext.NewResolver(deps)
	_, err := r.Resolve(context.Background(), storagecontext.Options{DataSetID: big.NewInt(5)})
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.KindDataSetNotOwnedByClient))
}

func TestResolveByDataSetID_ProviderMismatch(t *testing.T) {
	svc := &fakeService{dataSets: map[string]*chain.DataSetInfo{
		"5": mkDataSet(5, 1, clientAddr, 0),
	}}
	deps := storagecontext.Deps{
		Adapter:  newAdapter(),
		Service:  svc,
		Verifier: &fakeVerifier{listener: map[string]common.Address{}, pieces: map[string]*big.Int{}},
	}
	r := storagecontext.NewResolver(deps)
	_, err := r.Resolve(context.Background(), storagecontext.Options{DataSetID: big.NewInt(5), ProviderID: big.NewInt(99)})
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.KindOptionsConflict))
}

func TestResolveByProviderID_NoCompatibleDataSet_ReturnsCreateMarker(t *testing.T) {
	srv := pdpServer(t)
	defer srv.Close()

	p := &types.Provider{ID: big.NewInt(1), Address: providerAddr, IsActive: true, PDP: &types.PDPProduct{ServiceURL: srv.URL}}
	svc := &fakeService{clientSets: nil}
	deps := storagecontext.Deps{
		Adapter:   newAdapter(),
		Service:   svc,
		Verifier:  &fakeVerifier{listener: map[string]common.Address{}, pieces: map[string]*big.Int{}},
		Providers: providerResolverWithOne(t, p),
	}
	r := storagecontext.NewResolver(deps)
	res, err := r.Resolve(context.Background(), storagecontext.Options{ProviderID: big.NewInt(1)})
	require.NoError(t, err)
	require.Equal(t, 0, res.DataSetID.Cmp(storagecontext.CreateMarker))
}

func TestResolveByProviderID_ReusesCompatibleDataSet(t *testing.T) {
	srv := pdpServer(t)
	defer srv.Close()

	ds := mkDataSet(7, 1, clientAddr, 0)
	svc := &fakeService{
		clientSets: []*big.Int{big.NewInt(7)},
		dataSets:   map[string]*chain.DataSetInfo{"7": ds},
	}
	p := &types.Provider{ID: big.NewInt(1), Address: providerAddr, IsActive: true, PDP: &types.PDPProduct{ServiceURL: srv.URL}}
	deps := storagecontext.Deps{
		Adapter:   newAdapter(),
		Service:   svc,
		Verifier:  &fakeVerifier{listener: map[string]common.Address{"7": serviceAddr}, pieces: map[string]*big.Int{}},
		Providers: providerResolverWithOne(t, p),
	}
	r := storagecontext.NewResolver(deps)
	res, err := r.Resolve(context.Background(), storagecontext.Options{ProviderID: big.NewInt(1)})
	require.NoError(t, err)
	require.Equal(t, 0, res.DataSetID.Cmp(big.NewInt(7)))
}

func TestResolveByProviderID_ForceCreate_SkipsReuse(t *testing.T) {
	ds := mkDataSet(7, 1, clientAddr, 0)
	srv := pdpServer(t)
	defer srv.Close()
	svc := &fakeService{
		clientSets: []*big.Int{big.NewInt(7)},
		dataSets:   map[string]*chain.DataSetInfo{"7": ds},
	}
	p := &types.Provider{ID: big.NewInt(1), Address: providerAddr, IsActive: true, PDP: &types.PDPProduct{ServiceURL: srv.URL}}
	deps := storagecontext.Deps{
		Adapter:   newAdapter(),
		Service:   svc,
		Verifier:  &fakeVerifier{listener: map[string]common.Address{"7": serviceAddr}, pieces: map[string]*big.Int{}},
		Providers: providerResolverWithOne(t, p),
	}
	r := storagecontext.NewResolver(deps)
	res, err := r.Resolve(context.Background(), storagecontext.Options{ProviderID: big.NewInt(1), ForceCreate: true})
	require.NoError(t, err)
	require.Equal(t, 0, res.DataSetID.Cmp(storagecontext.CreateMarker))
}

// providerResolverWithOne builds a real provider.Resolver backed by fakes
// that serve exactly one provider, so resolution tests exercise the actual
// GetProvider/ApprovedProviders code path rather than a storagecontext-local
// stand-in.
func providerResolverWithOne(t *testing.T, p *types.Provider) *provider.Resolver {
	t.Helper()
	reg := &fakeProviderRegistry{
		info: &chain.ProviderInfo{ID: p.ID, ServiceProvider: p.Address, IsActive: p.IsActive, Name: p.Name},
		offering: &chain.ServiceProviderRegistryStoragePDPOffering{
			ServiceURL:                 p.PDP.ServiceURL,
			MinPieceSizeInBytes:        big.NewInt(1),
			MaxPieceSizeInBytes:        big.NewInt(1 << 30),
			StoragePricePerTibPerMonth: big.NewInt(1),
		},
	}
	svc := &fakeApprovedSvc{ids: []*big.Int{p.ID}}
	return provider.New(svc, reg)
}

type fakeApprovedSvc struct {
	chain.Service
	ids []*big.Int
}

func (f *fakeApprovedSvc) GetAllApprovedProviders(context.Context) ([]*big.Int, error) { return f.ids, nil }

type fakeProviderRegistry struct {
	chain.Registry
	info     *chain.ProviderInfo
	offering *chain.ServiceProviderRegistryStoragePDPOffering
}

func (f *fakeProviderRegistry) GetProvidersByIds(ctx context.Context, ids []*big.Int) ([]*chain.ProviderInfo, []bool, error) {
	infos := make([]*chain.ProviderInfo, len(ids))
	valid := make([]bool, len(ids))
	for i, id := range ids {
		if id.Cmp(f.info.ID) == 0 {
			infos[i] = f.info
			valid[i] = true
		}
	}
	return infos, valid, nil
}

func (f *fakeProviderRegistry) GetProviderByAddress(ctx context.Context, address common.Address) (*chain.ProviderInfo, error) {
	if address == f.info.ServiceProvider {
		return f.info, nil
	}
	return nil, errors.New(errors.KindNoProvidersAvailable, "test", "not found")
}

func (f *fakeProviderRegistry) GetPDPProduct(ctx context.Context, id *big.Int) (*chain.ServiceProviderRegistryStoragePDPOffering, bool, []byte, error) {
	if id.Cmp(f.info.ID) == 0 {
		return f.offering, true, nil, nil
	}
	return nil, false, nil, errors.New(errors.KindNoProvidersAvailable, "test", "no product")
}
