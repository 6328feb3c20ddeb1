package retriever_test

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ipfs/go-cid"
	"github.com/stretchr/testify/require"

	"github.com/FilOzone/synapse-sdk-go/pkg/chain"
	"github.com/FilOzone/synapse-sdk-go/pkg/errors"
	"github.com/FilOzone/synapse-sdk-go/pkg/provider"
	"github.com/FilOzone/synapse-sdk-go/pkg/retriever"
)

const retrieverTestPieceCID = "bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi"

type fakeService struct {
	chain.Service
	ids []*big.Int
}

func (f *fakeService) GetAllApprovedProviders(context.Context) ([]*big.Int, error) {
	return f.ids, nil
}

type fakeRegistry struct {
	chain.Registry
	infos     map[string]*chain.ProviderInfo
	offerings map[string]*chain.ServiceProviderRegistryStoragePDPOffering
}

func (f *fakeRegistry) GetProvidersByIds(ctx context.Context, ids []*big.Int) ([]*chain.ProviderInfo, []bool, error) {
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
		return nil, false, nil, errors.New(errors.KindNoProvidersAvailable, "test", "no product")
	}
	return offering, true, nil, nil
}

func pieceServer(t *testing.T, serves bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && len(r.URL.Path) > 0 && httpSuffix(r.URL.Path, "/find"):
			if !serves {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.WriteHeader(http.StatusOK)
			_ = json.NewEncoder(w).Encode(map[string]string{"pieceCid": retrieverTestPieceCID})
		case r.Method == http.MethodGet:
			_, _ = w.Write([]byte("hello warm storage piece"))
		}
	}))
}

func httpSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}

func TestChainRetriever_RacesApprovedProviders(t *testing.T) {
	good := pieceServer(t, true)
	defer good.Close()
	bad := pieceServer(t, false)
	defer bad.Close()

	addrGood := common.HexToAddress("0x1")
	addrBad := common.HexToAddress("0x2")
	reg := &fakeRegistry{
		infos: map[string]*chain.ProviderInfo{
			"1": {ID: big.NewInt(1), ServiceProvider: addrGood, IsActive: true},
			"2": {ID: big.NewInt(2), ServiceProvider: addrBad, IsActive: true},
		},
		offerings: map[string]*chain.ServiceProviderRegistryStoragePDPOffering{
			"1": {ServiceURL: good.URL, MinPieceSizeInBytes: big.NewInt(1), MaxPieceSizeInBytes: big.NewInt(1)},
			"2": {ServiceURL: bad.URL, MinPieceSizeInBytes: big.NewInt(1), MaxPieceSizeInBytes: big.NewInt(1)},
		},
	}
	svc := &fakeService{ids: []*big.Int{big.NewInt(1), big.NewInt(2)}}
	resolver := provider.New(svc, reg)

	chainRetriever := retriever.NewChain(resolver)
	pieceCID, err := cid.Decode(retrieverTestPieceCID)
	require.NoError(t, err)

	body, _, err := chainRetriever.FetchPiece(context.Background(), pieceCID, retriever.Options{})
	require.NoError(t, err)
	defer body.Close()
}
