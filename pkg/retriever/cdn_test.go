package retriever_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/stretchr/testify/require"

	"github.com/FilOzone/synapse-sdk-go/pkg/retriever"
	"github.com/FilOzone/synapse-sdk-go/pkg/types"
)

func pieceCIDOfContent(t *testing.T, data string) cid.Cid {
	t.Helper()
	hasher := types.NewPieceHasher()
	_, err := hasher.Write([]byte(data))
	require.NoError(t, err)
	c, _, err := hasher.PieceCID()
	require.NoError(t, err)
	return c
}

func TestCDN_ServesOnHit(t *testing.T) {
	const content = "from cdn, a payload long enough for the piece commitment calculator to accept it"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Contains(t, r.URL.Path, "/piece/")
		_, _ = w.Write([]byte(content))
	}))
	defer srv.Close()

	inner := &fakeFetcher{body: "from inner"}
	cdn, err := retriever.NewCDN(srv.URL, inner)
	require.NoError(t, err)

	pieceCID := pieceCIDOfContent(t, content)

	body, _, err := cdn.FetchPiece(context.Background(), pieceCID, retriever.Options{})
	require.NoError(t, err)
	defer body.Close()
	require.False(t, inner.called)
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	require.Equal(t, content, string(data))
}

func TestCDN_FallsThroughOnMiss(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	inner := &fakeFetcher{body: "from inner"}
	cdn, err := retriever.NewCDN(srv.URL, inner)
	require.NoError(t, err)

	pieceCID, err := cid.Decode(retrieverTestPieceCID)
	require.NoError(t, err)

	body, _, err := cdn.FetchPiece(context.Background(), pieceCID, retriever.Options{})
	require.NoError(t, err)
	require.True(t, inner.called)
	data, _ := io.ReadAll(body)
	require.Equal(t, "from inner", string(data))
}
