// Package retriever implements the composable piece-download chain
// (component C5): on-chain provider discovery, optional subgraph-backed
// discovery, and an optional CDN in front of both. Each stage either
// serves the piece itself or falls through to the stage it wraps; content
// is validated against the requested piece CID as it streams.
package retriever

import (
	"context"
	"io"

	"github.com/ipfs/go-cid"
	logging "github.com/ipfs/go-log/v2"

	"github.com/FilOzone/synapse-sdk-go/pkg/errors"
	"github.com/FilOzone/synapse-sdk-go/pkg/provider"
	"github.com/FilOzone/synapse-sdk-go/pkg/providerclient"
)

var log = logging.Logger("retriever")

// Options narrows a fetch the way the caller intends: a named provider
// pins the candidate set to one entry; withIpni/dev pass through to the
// provider resolver's selection filters.
type Options struct {
	ProviderAddressHint string // non-empty pins the candidate set to this provider
	Filter              provider.Filter
}

// Fetcher is the contract every stage of the chain implements:
// fetchPiece(cid, client, options) in spec terms.
type Fetcher interface {
	FetchPiece(ctx context.Context, pieceCID cid.Cid, opts Options) (io.ReadCloser, int64, error)
}

// clientFor builds a providerclient bound to a candidate's service URL.
// Extracted as a var so tests can substitute a fake transport.
var clientFor = func(serviceURL string) (*providerclient.Client, error) {
	return providerclient.New(serviceURL)
}

func fetchFromCandidate(ctx context.Context, c Candidate, pieceCID cid.Cid) (io.ReadCloser, int64, error) {
	client, err := clientFor(c.ServiceURL)
	if err != nil {
		return nil, 0, err
	}
	found, err := client.FindPiece(ctx, pieceCID)
	if err != nil {
		return nil, 0, err
	}
	if !found {
		return nil, 0, errors.New(errors.KindNoHealthyProvider, "retriever.fetchFromCandidate", "provider does not report the piece")
	}
	return client.DownloadPiece(ctx, pieceCID)
}

func validated(body io.ReadCloser, pieceCID cid.Cid) io.ReadCloser {
	return newValidatingReader(body, pieceCID)
}
