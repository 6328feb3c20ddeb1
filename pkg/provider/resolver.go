// Package provider resolves ServiceProviderRegistry entries into the
// Provider/PDPProduct view the rest of the client uses, applying the
// withIpni/dev selection filters and memoizing reads per process.
package provider

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/patrickmn/go-cache"

	"github.com/FilOzone/synapse-sdk-go/pkg/chain"
	"github.com/FilOzone/synapse-sdk-go/pkg/errors"
	"github.com/FilOzone/synapse-sdk-go/pkg/types"
)

const (
	approvedIdsCacheKey = "approved-ids"
	defaultCacheTTL      = 5 * time.Minute
	defaultPurgeInterval = time.Hour
)

// Filter narrows a provider listing.
type Filter struct {
	// WithIpni requires the provider to advertise IPNI indexing, either
	// for pieces or for IPFS, depending on which the caller cares about.
	WithIpni bool
	// IncludeDev includes dev-only providers (see Provider.IsDevOnly).
	// Dev-only providers are excluded unless the caller opts in.
	IncludeDev bool
}

func (f Filter) keep(p *types.Provider) bool {
	if !p.UsableForPDP() {
		return false
	}
	if p.IsDevOnly() && !f.IncludeDev {
		return false
	}
	if f.WithIpni && !(p.PDP.IPNIPiece || p.PDP.IPNIIPFS) {
		return false
	}
	return true
}

// Resolver answers "which providers can serve this client" queries against
// the warm-storage service contract (approval) and the registry contract
// (provider/product detail), memoizing both per process.
type Resolver struct {
	service  chain.Service
	registry chain.Registry
	cache    *cache.Cache
}

// New builds a Resolver with the default cache TTL (5 minutes, purged
// hourly). Memoization is per-process, not shared across instances.
func New(service chain.Service, registry chain.Registry) *Resolver {
	return &Resolver{
		service:  service,
		registry: registry,
		cache:    cache.New(defaultCacheTTL, defaultPurgeInterval),
	}
}

// GetApprovedProviderIDs returns every provider id approved by the
// warm-storage service, from cache if a prior call already populated it.
func (r *Resolver) GetApprovedProviderIDs(ctx context.Context) ([]*big.Int, error) {
	if cached, found := r.cache.Get(approvedIdsCacheKey); found {
		return cached.([]*big.Int), nil
	}
	ids, err := r.service.GetAllApprovedProviders(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.KindChainCallFailed, "provider.GetApprovedProviderIDs", err)
	}
	r.cache.Set(approvedIdsCacheKey, ids, cache.DefaultExpiration)
	return ids, nil
}

// GetProviders batch-resolves a set of provider ids into full Provider
// records (registry entry + PDP product), silently dropping any id the
// registry reports invalid. Results are cached per id.
func (r *Resolver) GetProviders(ctx context.Context, ids []*big.Int, filter Filter) ([]*types.Provider, error) {
	missing := make([]*big.Int, 0, len(ids))
	result := make([]*types.Provider, 0, len(ids))
	byID := make(map[string]*types.Provider, len(ids))

	for _, id := range ids {
		if cached, found := r.cache.Get(providerCacheKey(id)); found {
			byID[id.String()] = cached.(*types.Provider)
			continue
		}
		missing = append(missing, id)
	}

	if len(missing) > 0 {
		infos, validIds, err := r.registry.GetProvidersByIds(ctx, missing)
		if err != nil {
			return nil, errors.Wrap(errors.KindChainCallFailed, "provider.GetProviders", err)
		}
		for i, info := range infos {
			if i >= len(validIds) || !validIds[i] {
				continue
			}
			p, err := r.assemble(ctx, info)
			if err != nil {
				return nil, err
			}
			r.cache.Set(providerCacheKey(p.ID), p, cache.DefaultExpiration)
			byID[p.ID.String()] = p
		}
	}

	for _, id := range ids {
		p, ok := byID[id.String()]
		if !ok {
			continue
		}
		if filter.keep(p) {
			result = append(result, p)
		}
	}
	return result, nil
}

// GetProvider resolves a single provider id, applying filter.
func (r *Resolver) GetProvider(ctx context.Context, id *big.Int, filter Filter) (*types.Provider, error) {
	providers, err := r.GetProviders(ctx, []*big.Int{id}, filter)
	if err != nil {
		return nil, err
	}
	if len(providers) == 0 {
		return nil, errors.New(errors.KindNoProvidersAvailable, "provider.GetProvider", "provider "+id.String()+" not usable or not approved")
	}
	return providers[0], nil
}

// GetProviderByAddress resolves a provider by its on-chain address.
func (r *Resolver) GetProviderByAddress(ctx context.Context, address common.Address, filter Filter) (*types.Provider, error) {
	if cached, found := r.cache.Get(addressCacheKey(address)); found {
		p := cached.(*types.Provider)
		if !filter.keep(p) {
			return nil, errors.New(errors.KindNoProvidersAvailable, "provider.GetProviderByAddress", "provider "+address.Hex()+" not usable or not approved")
		}
		return p, nil
	}

	info, err := r.registry.GetProviderByAddress(ctx, address)
	if err != nil {
		return nil, errors.Wrap(errors.KindChainCallFailed, "provider.GetProviderByAddress", err)
	}
	p, err := r.assemble(ctx, info)
	if err != nil {
		return nil, err
	}
	r.cache.Set(providerCacheKey(p.ID), p, cache.DefaultExpiration)
	r.cache.Set(addressCacheKey(address), p, cache.DefaultExpiration)

	if !filter.keep(p) {
		return nil, errors.New(errors.KindNoProvidersAvailable, "provider.GetProviderByAddress", "provider "+address.Hex()+" not usable or not approved")
	}
	return p, nil
}

// ApprovedProviders resolves every approved provider id into a filtered
// Provider list in one call: the common case of "give me candidates".
func (r *Resolver) ApprovedProviders(ctx context.Context, filter Filter) ([]*types.Provider, error) {
	ids, err := r.GetApprovedProviderIDs(ctx)
	if err != nil {
		return nil, err
	}
	providers, err := r.GetProviders(ctx, ids, filter)
	if err != nil {
		return nil, err
	}
	if len(providers) == 0 {
		return nil, errors.New(errors.KindNoProvidersAvailable, "provider.ApprovedProviders", "no approved provider satisfies the requested filter")
	}
	return providers, nil
}

func (r *Resolver) assemble(ctx context.Context, info *chain.ProviderInfo) (*types.Provider, error) {
	p := &types.Provider{
		ID:          info.ID,
		Address:     info.ServiceProvider,
		Payee:       info.Payee,
		Name:        info.Name,
		Description: info.Description,
		IsActive:    info.IsActive,
	}

	offering, isActive, serviceStatus, err := r.registry.GetPDPProduct(ctx, info.ID)
	if err != nil {
		// A provider with no registered PDP product is common (it may
		// offer other products this client doesn't care about); treat
		// as "no PDP product" rather than a hard failure.
		return p, nil
	}
	if !isActive || offering == nil {
		return p, nil
	}
	p.PDP = &types.PDPProduct{
		ServiceURL:               offering.ServiceURL,
		MinPieceSizeInBytes:      offering.MinPieceSizeInBytes,
		MaxPieceSizeInBytes:      offering.MaxPieceSizeInBytes,
		StoragePricePerTiBPerDay: offering.StoragePricePerTibPerMonth,
		IPNIPiece:                offering.IpniPiece,
		IPNIIPFS:                 offering.IpniIpfs,
		ServiceStatus:            serviceStatus,
	}
	return p, nil
}

func providerCacheKey(id *big.Int) string {
	return "id:" + id.String()
}

func addressCacheKey(address common.Address) string {
	return "addr:" + address.Hex()
}
