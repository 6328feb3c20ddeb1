package storagecontext

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/FilOzone/synapse-sdk-go/pkg/errors"
	"github.com/FilOzone/synapse-sdk-go/pkg/providerclient"
	"github.com/FilOzone/synapse-sdk-go/pkg/types"
)

// Context is a resolved (provider, data set) pairing bound to a single
// client identity. Every upload issued against it lands on the same
// provider and, once created, the same data set. A Context is safe for
// concurrent use: uploads from multiple goroutines are serialized onto the
// same add-pieces batcher (see batch.go), which is the only way this
// package ever submits a chain-observed write against the data set.
type Context struct {
	deps Deps
	cb   Callbacks

	provider *types.Provider
	client   *providerclient.Client

	withCDN  bool
	metadata map[string]string

	mu              sync.Mutex
	dataSetID       *big.Int // nil until resolved/created
	clientDataSetID *big.Int
	exists          bool

	uploadBatchSize int
	pending         *batcher
	inflight        map[string]bool // upload tokens currently streaming to the provider
}

// Open resolves options against the chain and provider registry and
// returns a ready-to-use Context. A Context returned with DataSetID() == nil
// has not created its data set yet; that happens lazily on the first
// upload's batch (see batch.go) unless the caller calls CreateDataSet
// explicitly first (create.go).
func Open(ctx context.Context, deps Deps, opts Options, cb Callbacks) (*Context, error) {
	resolver := NewResolver(deps)
	res, err := resolver.Resolve(ctx, opts)
	if err != nil {
		return nil, err
	}

	client, err := clientFor(res.Provider.PDP.ServiceURL)
	if err != nil {
		return nil, errors.Wrap(errors.KindInvalidAddress, "storagecontext.Open", err)
	}

	sc := &Context{
		deps:            deps,
		cb:              cb,
		provider:        res.Provider,
		client:          client,
		withCDN:         opts.WithCDN,
		metadata:        mergeMetadata(opts.Metadata, opts.WithCDN),
		uploadBatchSize: opts.uploadBatchSize(),
		inflight:        make(map[string]bool),
	}
	if !res.wantsCreate() {
		sc.dataSetID = res.DataSetID
		sc.exists = true
	}
	sc.pending = newBatcher(sc)

	if cb.OnProviderSelected != nil {
		cb.OnProviderSelected(res.Provider)
	}
	return sc, nil
}

func mergeMetadata(requested map[string]string, withCDN bool) map[string]string {
	md := make(map[string]string, len(requested)+1)
	for k, v := range requested {
		md[k] = v
	}
	if withCDN {
		md[types.WithCDNMetadataKey] = ""
	}
	return md
}

// Provider is the provider this context is bound to.
func (c *Context) Provider() *types.Provider { return c.provider }

// DataSetID reports the bound data set id, or nil if none has been created
// yet.
func (c *Context) DataSetID() *big.Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dataSetID
}

// WithCDN reports whether this context's data set is (or will be) CDN
// enabled.
func (c *Context) WithCDN() bool { return c.withCDN }

func (c *Context) hasDataSet() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exists && c.dataSetID != nil
}

func (c *Context) bindDataSet(dataSetID, clientDataSetID *big.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dataSetID = dataSetID
	c.clientDataSetID = clientDataSetID
	c.exists = true
}

// HasPiece asks the bound provider whether it currently serves pieceCID,
// the read the Storage Manager's download fast path uses to pick a hint
// provider out of a default context set.
func (c *Context) HasPiece(ctx context.Context, pieceCID string) (bool, error) {
	decoded, err := decodeCID(pieceCID)
	if err != nil {
		return false, err
	}
	return c.client.FindPiece(ctx, decoded)
}

func (c *Context) payee() common.Address {
	return c.provider.Payee
}
