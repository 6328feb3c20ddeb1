package retriever

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/ipfs/go-cid"

	"github.com/FilOzone/synapse-sdk-go/lib"
	"github.com/FilOzone/synapse-sdk-go/pkg/chain"
	"github.com/FilOzone/synapse-sdk-go/pkg/errors"
)

// CDNEndpoint returns the edge base URL to fetch pieces from for a
// network. Both supported networks are FilBeam-fronted; calibration uses
// the same "[calibration.]" subdomain prefix convention as the stats
// service.
func CDNEndpoint(network chain.Network) string {
	if network == chain.NetworkCalibration {
		return "https://calibration.filbeam.io"
	}
	return "https://filbeam.io"
}

// CDN fronts the wrapped retriever with an edge cache. A miss or any
// non-2xx falls through to inner without raising an error of its own.
type CDN struct {
	endpoint *url.URL
	http     *http.Client
	inner    Fetcher
}

// NewCDN wraps inner with an edge-cache fetch against baseURL (see
// CDNEndpoint for the network-keyed default).
func NewCDN(baseURL string, inner Fetcher) (*CDN, error) {
	endpoint, err := lib.ParseAndNormalizeURL(baseURL)
	if err != nil {
		return nil, errors.Wrap(errors.KindInvalidAddress, "retriever.NewCDN", err)
	}
	return &CDN{endpoint: endpoint, http: http.DefaultClient, inner: inner}, nil
}

func (c *CDN) FetchPiece(ctx context.Context, pieceCID cid.Cid, opts Options) (io.ReadCloser, int64, error) {
	route := c.endpoint.JoinPath("piece", pieceCID.String()).String()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, route, nil)
	if err != nil {
		log.Debugw("cdn request build failed, falling through", "err", err)
		return c.inner.FetchPiece(ctx, pieceCID, opts)
	}

	res, err := c.http.Do(req)
	if err != nil {
		log.Debugw("cdn fetch failed, falling through", "pieceCID", pieceCID, "err", err)
		return c.inner.FetchPiece(ctx, pieceCID, opts)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		_ = res.Body.Close()
		log.Debugw("cdn miss, falling through", "pieceCID", pieceCID, "status", res.StatusCode)
		return c.inner.FetchPiece(ctx, pieceCID, opts)
	}

	return validated(res.Body, pieceCID), res.ContentLength, nil
}

var _ Fetcher = (*CDN)(nil)
