package facade

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/FilOzone/synapse-sdk-go/pkg/chain"
	"github.com/FilOzone/synapse-sdk-go/pkg/manager"
	"github.com/FilOzone/synapse-sdk-go/pkg/payments"
	"github.com/FilOzone/synapse-sdk-go/pkg/provider"
	"github.com/FilOzone/synapse-sdk-go/pkg/retriever"
	"github.com/FilOzone/synapse-sdk-go/pkg/sessionkey"
	"github.com/FilOzone/synapse-sdk-go/pkg/statsclient"
	"github.com/FilOzone/synapse-sdk-go/pkg/storagecontext"
)

func provideBackend(ctx context.Context, cfg Config) (chain.ReceiptWaiter, error) {
	backend, err := cfg.dialBackend(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.DisableNonceManager {
		return backend, nil
	}
	return chain.NewNonceManagedBackend(backend), nil
}

func provideSigner(cfg Config) (chain.Signer, error) {
	return cfg.resolveSigner()
}

func provideAdapter(ctx context.Context, backend chain.ReceiptWaiter, signer chain.Signer, cfg Config) (*chain.Adapter, error) {
	adapter, err := chain.NewAdapter(ctx, backend, signer)
	if err != nil {
		return nil, err
	}
	if cfg.SessionKeyRegistry != (common.Address{}) {
		adapter.Addresses.SessionKeyRegistry = cfg.SessionKeyRegistry
	}
	return adapter, nil
}

func provideService(adapter *chain.Adapter) (chain.Service, error) {
	return chain.NewServiceView(adapter.Addresses.ServiceView, adapter.Backend)
}

func provideRegistry(adapter *chain.Adapter) (chain.Registry, error) {
	return chain.NewRegistry(adapter.Addresses.ProviderRegistry, adapter.Backend)
}

func provideVerifier(adapter *chain.Adapter) (chain.Verifier, error) {
	return chain.NewVerifierContract(adapter.Addresses.Verifier, adapter.Backend)
}

func provideResolver(service chain.Service, registry chain.Registry) *provider.Resolver {
	return provider.New(service, registry)
}

func providePayments(adapter *chain.Adapter, cfg Config) (*payments.Payments, error) {
	return payments.New(adapter, cfg.PaymentsToken)
}

// provideFetcher builds the retriever chain per §4.9: Chain innermost,
// optionally wrapped by Subgraph, then optionally wrapped by CDN.
func provideFetcher(resolver *provider.Resolver, adapter *chain.Adapter, cfg Config) (retriever.Fetcher, error) {
	var fetcher retriever.Fetcher = retriever.NewChain(resolver)
	if cfg.Subgraph != nil {
		fetcher = retriever.NewSubgraph(cfg.Subgraph, fetcher)
	}
	if cfg.DisableCDN {
		return fetcher, nil
	}
	cdnBase := cfg.CDNBaseURL
	if cdnBase == "" {
		cdnBase = retriever.CDNEndpoint(adapter.Network)
	}
	cdn, err := retriever.NewCDN(cdnBase, fetcher)
	if err != nil {
		return nil, err
	}
	return cdn, nil
}

// provideStats returns nil when CDN support is disabled: egress quota
// figures only mean anything for a context that streams through the CDN
// edge cache.
func provideStats(adapter *chain.Adapter, cfg Config) (*statsclient.Client, error) {
	if cfg.DisableCDN {
		return nil, nil
	}
	return statsclient.New(statsclient.Endpoint(adapter.Network))
}

func provideManagerDeps(adapter *chain.Adapter, service chain.Service, registry chain.Registry, verifier chain.Verifier, resolver *provider.Resolver, stats *statsclient.Client) storagecontext.Deps {
	return storagecontext.Deps{
		Adapter:   adapter,
		Service:   service,
		Registry:  registry,
		Verifier:  verifier,
		Providers: resolver,
		Stats:     stats,
	}
}

func provideManager(deps storagecontext.Deps, fetcher retriever.Fetcher, pay *payments.Payments, cb storagecontext.Callbacks) *manager.Manager {
	return manager.New(manager.Deps{Chain: deps, Fetcher: fetcher, Payments: pay}, cb)
}

// provideSessionKeys returns nil when no SessionKeyRegistry address is
// configured: there is no well-known deployment address for either
// supported network (see chain/addresses.go), so session-key support is
// opt-in via Config.
func provideSessionKeys(adapter *chain.Adapter) (*sessionkey.SessionKeys, error) {
	if adapter.Addresses.SessionKeyRegistry == (common.Address{}) {
		return nil, nil
	}
	registry, err := chain.NewSessionKeys(adapter.Addresses.SessionKeyRegistry, adapter.Backend)
	if err != nil {
		return nil, err
	}
	return sessionkey.New(adapter, registry), nil
}
