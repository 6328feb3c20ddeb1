package storagecontext

import (
	"context"
	"crypto/rand"
	"math/big"
	mathrand "math/rand"
	"sort"
	"time"

	"github.com/FilOzone/synapse-sdk-go/pkg/chain"
	"github.com/FilOzone/synapse-sdk-go/pkg/errors"
	"github.com/FilOzone/synapse-sdk-go/pkg/types"
)

// CreateMarker is the sentinel dataSetId meaning "no compatible data set
// exists, the caller must create one," matching the contract's own use of
// -1 for the same condition.
var CreateMarker = big.NewInt(-1)

// resolution is the outcome of the resolution state machine: the provider
// and data set identity the caller's upload/download operations target.
type resolution struct {
	Provider  *types.Provider
	DataSetID *big.Int
	Existing  bool
	Metadata  map[string]string
}

func (r *resolution) wantsCreate() bool {
	return r.DataSetID == nil || r.DataSetID.Cmp(CreateMarker) == 0
}

// Resolver implements the resolution state machine of section 4.6.1: given
// request options, it decides which provider and data set a Context binds
// to, creating neither — creation is the caller's job once resolution
// reports wantsCreate().
type Resolver struct {
	deps Deps
}

func NewResolver(deps Deps) *Resolver {
	return &Resolver{deps: deps}
}

// Resolve dispatches to one of the four resolution strategies based on
// which options the caller supplied.
func (r *Resolver) Resolve(ctx context.Context, opts Options) (*resolution, error) {
	switch {
	case opts.DataSetID != nil && !opts.ForceCreate:
		return r.resolveByDataSetID(ctx, opts)
	case opts.ProviderID != nil:
		return r.resolveByProviderID(ctx, opts, opts.ProviderID)
	case opts.ProviderAddress != nil:
		return r.resolveByProviderAddress(ctx, opts)
	default:
		return r.smartSelect(ctx, opts)
	}
}

// resolveByDataSetID reads an explicit data set from chain and validates it
// against the caller's identity and any other options they supplied.
func (r *Resolver) resolveByDataSetID(ctx context.Context, opts Options) (*resolution, error) {
	info, err := r.deps.Service.GetDataSet(ctx, opts.DataSetID)
	if err != nil {
		return nil, errors.Wrap(errors.KindChainCallFailed, "storagecontext.resolveByDataSetId", err)
	}

	payer := r.deps.Adapter.Signer.Address()
	if info.Payer != payer {
		return nil, errors.New(errors.KindDataSetNotOwnedByClient, "storagecontext.resolveByDataSetId",
			"data set is not owned by this client").
			WithField("dataSetId", opts.DataSetID.String()).
			WithField("payer", info.Payer.Hex()).
			WithField("client", payer.Hex())
	}

	if opts.ProviderID != nil && info.ProviderId.Cmp(opts.ProviderID) != 0 {
		return nil, errors.New(errors.KindOptionsConflict, "storagecontext.resolveByDataSetId",
			"data set belongs to a different provider than requested")
	}
	if opts.ProviderAddress != nil && info.ServiceProvider != *opts.ProviderAddress {
		return nil, errors.New(errors.KindOptionsConflict, "storagecontext.resolveByDataSetId",
			"data set belongs to a different provider address than requested")
	}

	ds := r.assembleDataSet(ctx, info)
	requestedCDN := opts.WithCDN
	if !ds.Compatible(opts.Metadata, &requestedCDN) {
		return nil, errors.New(errors.KindDataSetCDNMismatch, "storagecontext.resolveByDataSetId",
			"data set CDN/metadata does not match the request")
	}

	p, err := r.deps.Providers.GetProvider(ctx, info.ProviderId, opts.filter())
	if err != nil {
		return nil, err
	}

	return &resolution{Provider: p, DataSetID: opts.DataSetID, Existing: true, Metadata: ds.Metadata}, nil
}

// resolveByProviderID picks the best existing compatible data set for a
// named provider, or reports that a new one must be created.
func (r *Resolver) resolveByProviderID(ctx context.Context, opts Options, providerID *big.Int) (*resolution, error) {
	p, err := r.deps.Providers.GetProvider(ctx, providerID, opts.filter())
	if err != nil {
		return nil, err
	}

	if opts.ForceCreate {
		return &resolution{Provider: p, DataSetID: CreateMarker, Existing: false, Metadata: opts.Metadata}, nil
	}

	candidate, err := r.bestCompatibleDataSet(ctx, providerID, opts)
	if err != nil {
		return nil, err
	}
	if candidate == nil {
		return &resolution{Provider: p, DataSetID: CreateMarker, Existing: false, Metadata: opts.Metadata}, nil
	}
	return &resolution{Provider: p, DataSetID: candidate.PDPVerifierDataSetID, Existing: true, Metadata: candidate.Metadata}, nil
}

// resolveByProviderAddress resolves an address to a provider id via the
// registry, then delegates to resolveByProviderID.
func (r *Resolver) resolveByProviderAddress(ctx context.Context, opts Options) (*resolution, error) {
	p, err := r.deps.Providers.GetProviderByAddress(ctx, *opts.ProviderAddress, opts.filter())
	if err != nil {
		return nil, err
	}
	return r.resolveByProviderID(ctx, opts, p.ID)
}

// bestCompatibleDataSet filters the client's data sets to those live,
// managed, not past their end epoch, owned by providerID, and compatible
// with the requested metadata/CDN, then returns the one sorted first by
// (currentPieceCount > 0 desc, dataSetId asc).
func (r *Resolver) bestCompatibleDataSet(ctx context.Context, providerID *big.Int, opts Options) (*types.DataSet, error) {
	ids, err := r.deps.Service.GetClientDataSets(ctx, r.deps.Adapter.Signer.Address())
	if err != nil {
		return nil, errors.Wrap(errors.KindChainCallFailed, "storagecontext.bestCompatibleDataSet", err)
	}

	var compatible []*types.DataSet
	requestedCDN := opts.WithCDN
	for _, id := range ids {
		info, err := r.deps.Service.GetDataSet(ctx, id)
		if err != nil {
			continue
		}
		if info.ProviderId.Cmp(providerID) != 0 {
			continue
		}
		ds := r.assembleDataSet(ctx, info)
		if !ds.IsLive || !ds.IsManaged || !ds.Active() {
			continue
		}
		if !ds.Compatible(opts.Metadata, &requestedCDN) {
			continue
		}
		compatible = append(compatible, ds)
	}

	sortDataSets(compatible)
	if len(compatible) == 0 {
		return nil, nil
	}
	return compatible[0], nil
}

// sortDataSets implements the shared ordering: data sets already carrying
// pieces come first, then ascending by id, matching the reuse semantics of
// an append-only ledger (reuse a partially filled set before opening a new
// one).
func sortDataSets(sets []*types.DataSet) {
	sort.Slice(sets, func(i, j int) bool {
		iHas, jHas := sets[i].CurrentPieceCount > 0, sets[j].CurrentPieceCount > 0
		if iHas != jHas {
			return iHas
		}
		return sets[i].PDPVerifierDataSetID.Cmp(sets[j].PDPVerifierDataSetID) < 0
	})
}

// smartSelect builds a lazily-pinged candidate list: first the client's own
// compatible data sets (skipping dev-only/non-IPNI providers per the
// request's flags), then, on exhaustion, a shuffled pass over every
// approved provider.
func (r *Resolver) smartSelect(ctx context.Context, opts Options) (*resolution, error) {
	tried := make(map[string]bool)

	if p := r.selectFromOwnDataSets(ctx, opts, tried); p != nil {
		return p, nil
	}

	providers, err := r.deps.Providers.ApprovedProviders(ctx, opts.filter())
	if err != nil {
		return nil, err
	}
	shuffle(providers)

	for _, p := range providers {
		if tried[p.Address.Hex()] {
			continue
		}
		if ok := pingOK(ctx, p); ok {
			return &resolution{Provider: p, DataSetID: CreateMarker, Existing: false, Metadata: opts.Metadata}, nil
		}
	}

	return nil, errors.New(errors.KindNoHealthyProvider, "storagecontext.smartSelect", "no provider responded to ping")
}

// selectFromOwnDataSets walks the client's own compatible data sets, in the
// same priority order as bestCompatibleDataSet, pinging each provider in
// turn and returning the first that answers. Every address visited (healthy
// or not) is recorded in tried so the approved-provider fallback pass never
// re-pings it.
func (r *Resolver) selectFromOwnDataSets(ctx context.Context, opts Options, tried map[string]bool) *resolution {
	ids, err := r.deps.Service.GetClientDataSets(ctx, r.deps.Adapter.Signer.Address())
	if err != nil {
		return nil
	}

	var compatible []*types.DataSet
	infoByID := make(map[string]*chain.DataSetInfo)
	requestedCDN := opts.WithCDN
	for _, id := range ids {
		info, err := r.deps.Service.GetDataSet(ctx, id)
		if err != nil {
			continue
		}
		ds := r.assembleDataSet(ctx, info)
		if !ds.IsLive || !ds.IsManaged || !ds.Active() {
			continue
		}
		if !ds.Compatible(opts.Metadata, &requestedCDN) {
			continue
		}
		compatible = append(compatible, ds)
		infoByID[ds.PDPVerifierDataSetID.String()] = info
	}
	sortDataSets(compatible)

	for _, ds := range compatible {
		info := infoByID[ds.PDPVerifierDataSetID.String()]
		p, err := r.deps.Providers.GetProvider(ctx, info.ProviderId, opts.filter())
		if err != nil || p == nil {
			continue
		}
		tried[p.Address.Hex()] = true
		if pingOK(ctx, p) {
			return &resolution{Provider: p, DataSetID: ds.PDPVerifierDataSetID, Existing: true, Metadata: ds.Metadata}
		}
	}
	return nil
}

func pingOK(ctx context.Context, p *types.Provider) bool {
	client, err := clientFor(p.PDP.ServiceURL)
	if err != nil {
		return false
	}
	return client.Ping(ctx) == nil
}

// shuffle randomizes provider order using a cryptographic RNG; if the
// system CSPRNG is unavailable it falls back to a seed drawn from the
// current time and the slice's length, so selection never degenerates
// to the on-chain listing order.
func shuffle(providers []*types.Provider) {
	var seed int64
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err == nil {
		for _, b := range buf {
			seed = seed<<8 | int64(b)
		}
	} else {
		seed = time.Now().UnixNano() ^ int64(uintptr(len(providers)))
	}
	r := mathrand.New(mathrand.NewSource(seed))
	r.Shuffle(len(providers), func(i, j int) { providers[i], providers[j] = providers[j], providers[i] })
}

// assembleDataSet fills in the fields the generated view-contract binding
// doesn't expose directly: IsManaged from the PDPVerifier listener address
// matching this network's WarmStorage service, and CurrentPieceCount from
// the verifier's active-piece count (the nearest available proxy for the
// contract's internal nextPieceId counter; see DESIGN.md). Best-effort: a
// failed verifier read degrades isManaged/count to false/0 rather than
// failing the whole resolution.
func (r *Resolver) assembleDataSet(ctx context.Context, info *chain.DataSetInfo) *types.DataSet {
	ds := &types.DataSet{
		PDPVerifierDataSetID: info.DataSetId,
		ClientDataSetID:      info.ClientDataSetId,
		ProviderID:           info.ProviderId,
		Payer:                info.Payer,
		Payee:                info.Payee,
		PDPRailID:            info.PdpRailId,
		CacheMissRailID:      info.CacheMissRailId,
		CDNRailID:            info.CdnRailId,
		PDPEndEpoch:          info.PdpEndEpoch,
		IsLive:               true,
		Metadata:             map[string]string{},
	}
	if ds.CDNRailID != nil && ds.CDNRailID.Sign() > 0 {
		ds.Metadata[types.WithCDNMetadataKey] = ""
	}

	if listener, err := r.deps.Verifier.GetDataSetListener(ctx, info.DataSetId); err == nil {
		ds.IsManaged = listener == r.deps.Adapter.Addresses.Service
	}
	if count, err := r.deps.Verifier.GetActivePieceCount(ctx, info.DataSetId); err == nil {
		ds.CurrentPieceCount = count.Uint64()
		ds.NextPieceID = count.Uint64()
	}
	return ds
}
