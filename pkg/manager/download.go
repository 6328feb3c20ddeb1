package manager

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"io"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ipfs/go-cid"

	"github.com/FilOzone/synapse-sdk-go/pkg/errors"
	"github.com/FilOzone/synapse-sdk-go/pkg/provider"
	"github.com/FilOzone/synapse-sdk-go/pkg/retriever"
)

// DownloadOptions narrows a Download call. ProviderAddress pins the
// retriever chain to a single candidate; WithIPNI/IncludeDev pass through
// to the provider resolver's selection filters the way they do everywhere
// else in this client. WithCDN additionally disables the default-context
// fast path, since CDN traffic shouldn't be steered toward a hint that
// bypasses the edge cache.
type DownloadOptions struct {
	ProviderAddress *common.Address
	WithCDN         bool
	WithIPNI        bool
	IncludeDev      bool
}

// Download implements §4.7's download dispatch: validate the piece CID,
// then, absent an explicit provider and with CDN off, try the fast path of
// asking every default-context provider whether it already has the piece
// before falling through to the full retriever chain.
func (m *Manager) Download(ctx context.Context, pieceCID string, opts DownloadOptions) (io.ReadCloser, int64, error) {
	decoded, err := cid.Decode(pieceCID)
	if err != nil {
		return nil, 0, errors.Wrap(errors.KindInvalidPieceCID, "manager.Download", err)
	}

	fetchOpts := retriever.Options{Filter: provider.Filter{WithIpni: opts.WithIPNI, IncludeDev: opts.IncludeDev}}
	switch {
	case opts.ProviderAddress != nil:
		fetchOpts.ProviderAddressHint = opts.ProviderAddress.Hex()
	case !opts.WithCDN:
		if hint := m.fastPathHint(ctx, pieceCID); hint != "" {
			fetchOpts.ProviderAddressHint = hint
		}
	}

	return m.deps.Fetcher.FetchPiece(ctx, decoded, fetchOpts)
}

// fastPathHint queries every default-context provider's hasPiece in
// parallel and, if any report true, returns one of their addresses chosen
// at random. An empty default set, or none reporting the piece, returns
// "" and the caller falls through to the full retriever chain.
func (m *Manager) fastPathHint(ctx context.Context, pieceCID string) string {
	m.mu.Lock()
	set := append([]*cachedContext(nil), m.defaultSet...)
	m.mu.Unlock()
	if len(set) == 0 {
		return ""
	}

	var (
		mu   sync.Mutex
		hits []string
		wg   sync.WaitGroup
	)
	for _, c := range set {
		wg.Add(1)
		go func(c *cachedContext) {
			defer wg.Done()
			found, err := c.ctx.HasPiece(ctx, pieceCID)
			if err != nil || !found {
				return
			}
			mu.Lock()
			hits = append(hits, c.ctx.Provider().Address.Hex())
			mu.Unlock()
		}(c)
	}
	wg.Wait()

	if len(hits) == 0 {
		return ""
	}
	return hits[randIndex(len(hits))]
}

// randIndex returns a uniform random index in [0, n) using the system
// CSPRNG; n must be > 0.
func randIndex(n int) int {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0
	}
	return int(binary.BigEndian.Uint64(buf[:]) % uint64(n))
}
