package retriever_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/stretchr/testify/require"

	"github.com/FilOzone/synapse-sdk-go/pkg/retriever"
)

type fakeFetcher struct {
	called bool
	body   string
	err    error
}

func (f *fakeFetcher) FetchPiece(ctx context.Context, pieceCID cid.Cid, opts retriever.Options) (io.ReadCloser, int64, error) {
	f.called = true
	if f.err != nil {
		return nil, 0, f.err
	}
	return io.NopCloser(strings.NewReader(f.body)), int64(len(f.body)), nil
}

type fakeSubgraph struct {
	candidates []retriever.Candidate
	err        error
}

func (f *fakeSubgraph) ProvidersForPiece(context.Context, cid.Cid) ([]retriever.Candidate, error) {
	return f.candidates, f.err
}

func TestSubgraph_FallsThroughWhenNoCandidates(t *testing.T) {
	inner := &fakeFetcher{body: "from inner"}
	sub := retriever.NewSubgraph(&fakeSubgraph{}, inner)

	pieceCID, err := cid.Decode(retrieverTestPieceCID)
	require.NoError(t, err)

	body, _, err := sub.FetchPiece(context.Background(), pieceCID, retriever.Options{})
	require.NoError(t, err)
	require.True(t, inner.called)
	data, _ := io.ReadAll(body)
	require.Equal(t, "from inner", string(data))
}

func TestSubgraph_UsesCandidateWhenAvailable(t *testing.T) {
	good := pieceServer(t, true)
	defer good.Close()

	inner := &fakeFetcher{body: "should not be used"}
	sub := retriever.NewSubgraph(&fakeSubgraph{candidates: []retriever.Candidate{{ID: "p1", ServiceURL: good.URL}}}, inner)

	pieceCID, err := cid.Decode(retrieverTestPieceCID)
	require.NoError(t, err)

	body, _, err := sub.FetchPiece(context.Background(), pieceCID, retriever.Options{})
	require.NoError(t, err)
	defer body.Close()
	require.False(t, inner.called, "subgraph candidate succeeded, inner must not be consulted")
}

func TestSubgraph_FallsThroughOnLookupError(t *testing.T) {
	inner := &fakeFetcher{body: "from inner"}
	sub := retriever.NewSubgraph(&fakeSubgraph{err: errors.New("indexer down")}, inner)

	pieceCID, err := cid.Decode(retrieverTestPieceCID)
	require.NoError(t, err)

	_, _, err = sub.FetchPiece(context.Background(), pieceCID, retriever.Options{})
	require.NoError(t, err)
	require.True(t, inner.called)
}
