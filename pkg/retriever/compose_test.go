package retriever_test

import (
	"context"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ipfs/go-cid"
	"github.com/stretchr/testify/require"

	"github.com/FilOzone/synapse-sdk-go/pkg/chain"
	"github.com/FilOzone/synapse-sdk-go/pkg/provider"
	"github.com/FilOzone/synapse-sdk-go/pkg/retriever"
)

// TestComposition_CDNWrapsSubgraphWrapsChain exercises the full
// CDN(Subgraph(Chain)) stack the facade wires, with both the CDN and the
// subgraph missing so the request falls all the way through to an
// on-chain-discovered provider.
func TestComposition_CDNWrapsSubgraphWrapsChain(t *testing.T) {
	providerSrv := pieceServer(t, true)
	defer providerSrv.Close()
	cdnSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer cdnSrv.Close()

	addr := common.HexToAddress("0x1")
	reg := &fakeRegistry{
		infos: map[string]*chain.ProviderInfo{
			"1": {ID: big.NewInt(1), ServiceProvider: addr, IsActive: true},
		},
		offerings: map[string]*chain.ServiceProviderRegistryStoragePDPOffering{
			"1": {ServiceURL: providerSrv.URL, MinPieceSizeInBytes: big.NewInt(1), MaxPieceSizeInBytes: big.NewInt(1)},
		},
	}
	svc := &fakeService{ids: []*big.Int{big.NewInt(1)}}
	resolver := provider.New(svc, reg)

	chainRetriever := retriever.NewChain(resolver)
	sub := retriever.NewSubgraph(&fakeSubgraph{}, chainRetriever)
	cdn, err := retriever.NewCDN(cdnSrv.URL, sub)
	require.NoError(t, err)

	pieceCID, err := cid.Decode(retrieverTestPieceCID)
	require.NoError(t, err)

	body, _, err := cdn.FetchPiece(context.Background(), pieceCID, retriever.Options{})
	require.NoError(t, err)
	defer body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 0))
}
