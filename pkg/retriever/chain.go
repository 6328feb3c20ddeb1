package retriever

import (
	"context"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ipfs/go-cid"

	"github.com/FilOzone/synapse-sdk-go/pkg/provider"
	"github.com/FilOzone/synapse-sdk-go/pkg/types"
)

// Chain discovers candidate providers via the on-chain approved-provider
// list (through the provider resolver) and races them. It is the
// innermost retriever: it has nothing to fall through to.
type Chain struct {
	resolver *provider.Resolver
}

// NewChain builds a Chain retriever bound to a provider resolver.
func NewChain(resolver *provider.Resolver) *Chain {
	return &Chain{resolver: resolver}
}

// FetchPiece races every approved provider (or the one named by
// opts.ProviderAddressHint) and returns a digest-validated stream.
func (c *Chain) FetchPiece(ctx context.Context, pieceCID cid.Cid, opts Options) (io.ReadCloser, int64, error) {
	candidates, err := c.candidates(ctx, opts)
	if err != nil {
		return nil, 0, err
	}

	body, length, err := race(ctx, candidates, func(ctx context.Context, cand Candidate) (io.ReadCloser, int64, error) {
		return fetchFromCandidate(ctx, cand, pieceCID)
	})
	if err != nil {
		return nil, 0, err
	}
	return validated(body, pieceCID), length, nil
}

func (c *Chain) candidates(ctx context.Context, opts Options) ([]Candidate, error) {
	if opts.ProviderAddressHint != "" {
		p, err := c.resolver.GetProviderByAddress(ctx, common.HexToAddress(opts.ProviderAddressHint), opts.Filter)
		if err != nil {
			return nil, err
		}
		return []Candidate{candidateFrom(p)}, nil
	}

	providers, err := c.resolver.ApprovedProviders(ctx, opts.Filter)
	if err != nil {
		return nil, err
	}
	candidates := make([]Candidate, 0, len(providers))
	for _, p := range providers {
		candidates = append(candidates, candidateFrom(p))
	}
	return candidates, nil
}

func candidateFrom(p *types.Provider) Candidate {
	id := p.Address.Hex()
	if p.ID != nil {
		id = p.ID.String() + "/" + id
	}
	serviceURL := ""
	if p.PDP != nil {
		serviceURL = p.PDP.ServiceURL
	}
	return Candidate{ID: id, ServiceURL: serviceURL}
}

var _ Fetcher = (*Chain)(nil)
