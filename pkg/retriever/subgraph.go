package retriever

import (
	"context"
	"io"

	"github.com/ipfs/go-cid"
)

// SubgraphService is the external GraphQL indexer this retriever queries
// for "which providers are currently serving this piece". It is an
// external collaborator: this package only depends on the interface, not
// on a concrete GraphQL client or schema.
type SubgraphService interface {
	ProvidersForPiece(ctx context.Context, pieceCID cid.Cid) ([]Candidate, error)
}

// Subgraph tries providers the indexer names for this specific piece
// before falling through to the wrapped retriever (typically Chain, which
// has no such targeting and must race every approved provider).
type Subgraph struct {
	service SubgraphService
	inner   Fetcher
}

// NewSubgraph wraps inner with subgraph-targeted discovery.
func NewSubgraph(service SubgraphService, inner Fetcher) *Subgraph {
	return &Subgraph{service: service, inner: inner}
}

// FetchPiece races the subgraph's candidate set; on total failure (or no
// candidates at all) it falls through to the wrapped retriever rather than
// raising AllProvidersFailed itself — that kind is reserved for the
// chain-end of the composition.
func (s *Subgraph) FetchPiece(ctx context.Context, pieceCID cid.Cid, opts Options) (io.ReadCloser, int64, error) {
	candidates, err := s.service.ProvidersForPiece(ctx, pieceCID)
	if err != nil || len(candidates) == 0 {
		log.Debugw("subgraph lookup unavailable, falling through", "pieceCID", pieceCID, "err", err)
		return s.inner.FetchPiece(ctx, pieceCID, opts)
	}

	body, length, err := race(ctx, candidates, func(ctx context.Context, cand Candidate) (io.ReadCloser, int64, error) {
		return fetchFromCandidate(ctx, cand, pieceCID)
	})
	if err != nil {
		log.Debugw("subgraph candidates all failed, falling through", "pieceCID", pieceCID, "err", err)
		return s.inner.FetchPiece(ctx, pieceCID, opts)
	}
	return validated(body, pieceCID), length, nil
}

var _ Fetcher = (*Subgraph)(nil)
