package manager

import (
	"context"
	"math/big"

	"github.com/samber/lo"

	"github.com/FilOzone/synapse-sdk-go/pkg/provider"
	"github.com/FilOzone/synapse-sdk-go/pkg/storagecontext"
	"github.com/FilOzone/synapse-sdk-go/pkg/types"
)

// CreateOptions configures createContexts: up to Count contexts are built,
// preferring explicit DataSetIDs, then explicit ProviderIDs, then
// smart-select for the remainder, excluding any provider already chosen
// earlier in the same call. Selection stops early if the approved provider
// pool is exhausted before Count is reached.
type CreateOptions struct {
	Count       int
	DataSetIDs  []*big.Int
	ProviderIDs []*big.Int

	WithCDN         bool
	Metadata        map[string]string
	ForceCreate     bool
	UploadBatchSize int
	WithIPNI        bool
	IncludeDev      bool
}

func (o CreateOptions) scOptions() storagecontext.Options {
	return storagecontext.Options{
		WithCDN:         o.WithCDN,
		Metadata:        o.Metadata,
		ForceCreate:     o.ForceCreate,
		UploadBatchSize: o.UploadBatchSize,
		WithIPNI:        o.WithIPNI,
		IncludeDev:      o.IncludeDev,
	}
}

func (o CreateOptions) providerFilter() provider.Filter {
	return provider.Filter{WithIpni: o.WithIPNI, IncludeDev: o.IncludeDev}
}

// createContexts implements §4.7's context-building order: explicit data
// set ids first (each reused as-is), then explicit provider ids (a fresh
// or reused data set per provider), then smart-select over the approved
// pool for whatever count remains, skipping any provider already used this
// call.
func (m *Manager) createContexts(ctx context.Context, opts CreateOptions) ([]*cachedContext, error) {
	if opts.Count <= 0 {
		return nil, nil
	}

	result := make([]*cachedContext, 0, opts.Count)
	chosenProviders := map[string]bool{}

	for _, id := range opts.DataSetIDs {
		if len(result) >= opts.Count {
			return result, nil
		}
		cc, err := m.open(ctx, withOpt(opts.scOptions(), func(o *storagecontext.Options) { o.DataSetID = id }))
		if err != nil {
			log.Warnw("createContexts: skipping explicit data set", "dataSetId", id.String(), "err", err)
			continue
		}
		chosenProviders[cc.ctx.Provider().Address.Hex()] = true
		result = append(result, cc)
	}

	for _, id := range opts.ProviderIDs {
		if len(result) >= opts.Count {
			return result, nil
		}
		cc, err := m.open(ctx, withOpt(opts.scOptions(), func(o *storagecontext.Options) { o.ProviderID = id }))
		if err != nil {
			log.Warnw("createContexts: skipping explicit provider", "providerId", id.String(), "err", err)
			continue
		}
		if chosenProviders[cc.ctx.Provider().Address.Hex()] {
			continue
		}
		chosenProviders[cc.ctx.Provider().Address.Hex()] = true
		result = append(result, cc)
	}

	remaining := opts.Count - len(result)
	if remaining <= 0 {
		return result, nil
	}

	providers, err := m.deps.Chain.Providers.ApprovedProviders(ctx, opts.providerFilter())
	if err != nil {
		if len(result) > 0 {
			return result, nil
		}
		return nil, err
	}
	providers = lo.Filter(providers, func(p *types.Provider, _ int) bool {
		return !chosenProviders[p.Address.Hex()]
	})
	providers = lo.Shuffle(providers)

	for _, p := range providers {
		if len(result) >= opts.Count {
			break
		}
		cc, err := m.open(ctx, withOpt(opts.scOptions(), func(o *storagecontext.Options) { o.ProviderID = p.ID }))
		if err != nil {
			log.Warnw("createContexts: smart-select candidate failed", "provider", p.Address.Hex(), "err", err)
			continue
		}
		chosenProviders[p.Address.Hex()] = true
		result = append(result, cc)
	}

	return result, nil
}

func (m *Manager) open(ctx context.Context, opts storagecontext.Options) (*cachedContext, error) {
	sc, err := storagecontext.Open(ctx, m.deps.Chain, opts, m.cb)
	if err != nil {
		return nil, err
	}
	return &cachedContext{
		ctx: sc,
		entry: &types.ContextCacheEntry{
			Provider:  sc.Provider(),
			DataSetID: sc.DataSetID(),
			Metadata:  opts.Metadata,
			WithCDN:   opts.WithCDN,
		},
	}, nil
}

func withOpt(base storagecontext.Options, set func(*storagecontext.Options)) storagecontext.Options {
	set(&base)
	return base
}

// defaultContexts returns the manager's cached default context set if it
// satisfies the reuse predicate (§4.7), otherwise it builds a fresh one of
// size count and replaces the cache.
func (m *Manager) defaultContexts(ctx context.Context, count int, metadata map[string]string, withCDN bool, excludeIDs []*big.Int) ([]*storagecontext.Context, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.reusableLocked(count, metadata, withCDN, excludeIDs) {
		out := make([]*storagecontext.Context, len(m.defaultSet))
		for i, c := range m.defaultSet {
			out[i] = c.ctx
		}
		return out, nil
	}

	created, err := m.createContexts(ctx, CreateOptions{Count: count, WithCDN: withCDN, Metadata: metadata})
	if err != nil {
		return nil, err
	}
	m.defaultSet = created

	out := make([]*storagecontext.Context, len(created))
	for i, c := range created {
		out[i] = c.ctx
	}
	return out, nil
}

func (m *Manager) reusableLocked(count int, metadata map[string]string, withCDN bool, excludeIDs []*big.Int) bool {
	if count == 0 || len(m.defaultSet) != count {
		return false
	}
	excluded := make(map[string]bool, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id.String()] = true
	}
	for _, c := range m.defaultSet {
		if c.entry.DataSetID != nil && excluded[c.entry.DataSetID.String()] {
			return false
		}
		if !c.entry.ReusableFor(metadata, withCDN, false) {
			return false
		}
	}
	return true
}
