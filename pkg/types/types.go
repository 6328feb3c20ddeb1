// Package types holds the data model shared by every component: providers,
// data sets, pieces, rails, session keys, and the in-memory context-cache
// entry. Types carry the invariants from the data model as methods rather
// than as comments, so callers get them for free.
package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ipfs/go-cid"
	"go.uber.org/zap/zapcore"
)

// WithCDNMetadataKey is the sentinel metadata key whose presence (with an
// empty value) marks a data set as CDN-enabled.
const WithCDNMetadataKey = "withCDN"

// PDPProduct is the one product type the core understands on a Provider.
type PDPProduct struct {
	ServiceURL               string
	MinPieceSizeInBytes      *big.Int
	MaxPieceSizeInBytes      *big.Int
	StoragePricePerTiBPerDay *big.Int
	IPNIPiece                bool
	IPNIIPFS                 bool
	// ServiceStatus is an opaque capability byte sequence; a value equal to
	// the dev sentinel (see DevCapabilitySentinel) marks the provider dev-only.
	ServiceStatus []byte
}

// HasServiceURL is the usability invariant: a provider without a non-empty
// serviceURL must be skipped silently during selection.
func (p PDPProduct) HasServiceURL() bool {
	return p.ServiceURL != ""
}

// Provider is a ServiceProviderRegistry entry.
type Provider struct {
	ID         *big.Int
	Address    common.Address
	Payee      common.Address
	Name       string
	Description string
	IsActive   bool
	PDP        *PDPProduct // nil when the provider has not registered the PDP product
}

// UsableForPDP reports whether the provider can be selected by the resolver.
func (p *Provider) UsableForPDP() bool {
	return p.IsActive && p.PDP != nil && p.PDP.HasServiceURL()
}

// DevCapabilitySentinel is the opaque ServiceStatus byte sequence marking a
// provider dev-only. Kept as a variable, not a constant, so operators can
// reconfigure it without a code change (open question #2).
var DevCapabilitySentinel = []byte("dev")

// IsDevOnly reports whether the provider's ServiceStatus capability matches
// the dev sentinel.
func (p *Provider) IsDevOnly() bool {
	if p.PDP == nil {
		return false
	}
	return string(p.PDP.ServiceStatus) == string(DevCapabilitySentinel)
}

// MarshalLogObject implements zapcore.ObjectMarshaler for structured logging.
func (p *Provider) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("address", p.Address.Hex())
	if p.ID != nil {
		enc.AddString("id", p.ID.String())
	}
	enc.AddString("name", p.Name)
	enc.AddBool("isActive", p.IsActive)
	if p.PDP != nil {
		enc.AddString("serviceURL", p.PDP.ServiceURL)
	}
	return nil
}

// DataSet is the on-chain object owning an append-only list of pieces.
type DataSet struct {
	PDPVerifierDataSetID *big.Int // globally unique
	ClientDataSetID      *big.Int // dense per client
	ProviderID           *big.Int
	Payer                common.Address
	Payee                common.Address
	PDPRailID            *big.Int
	CacheMissRailID      *big.Int // > 0 means CDN add-on enabled
	CDNRailID            *big.Int // > 0 means CDN enabled
	PDPEndEpoch          *big.Int // 0 => active
	CurrentPieceCount    uint64
	NextPieceID          uint64 // dense per data set
	IsLive               bool
	IsManaged            bool
	Metadata             map[string]string
}

// CDNEnabled implements the invariant cdnRailId > 0 <=> metadata has withCDN.
func (d *DataSet) CDNEnabled() bool {
	hasRail := d.CDNRailID != nil && d.CDNRailID.Sign() > 0
	_, hasKey := d.Metadata[WithCDNMetadataKey]
	return hasRail && hasKey
}

// Active reports whether the data set has not reached its end epoch.
func (d *DataSet) Active() bool {
	return d.PDPEndEpoch == nil || d.PDPEndEpoch.Sign() == 0
}

// Compatible implements the data-set compatibility invariant: all requested
// metadata entries must match (extras on the data set are fine) and the
// requested CDN flag must match the observed one.
func (d *DataSet) Compatible(requestedMetadata map[string]string, withCDN *bool) bool {
	for k, v := range requestedMetadata {
		if d.Metadata[k] != v {
			return false
		}
	}
	if withCDN != nil && *withCDN != d.CDNEnabled() {
		return false
	}
	return true
}

func (d *DataSet) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	if d.PDPVerifierDataSetID != nil {
		enc.AddString("dataSetId", d.PDPVerifierDataSetID.String())
	}
	if d.ProviderID != nil {
		enc.AddString("providerId", d.ProviderID.String())
	}
	enc.AddUint64("nextPieceId", d.NextPieceID)
	enc.AddBool("cdnEnabled", d.CDNEnabled())
	enc.AddBool("isLive", d.IsLive)
	return nil
}

// Piece is a content-addressed reference; identity is the CID.
type Piece struct {
	CID      cid.Cid
	Size     uint64
	Metadata map[string]string
}

// Rail is a payment stream bound to a data set.
type Rail struct {
	RailID              *big.Int
	Token               common.Address
	From                common.Address
	To                  common.Address
	Operator            common.Address
	Validator           common.Address
	PaymentRate         *big.Int
	LockupPeriod        *big.Int
	LockupFixed         *big.Int
	SettledUpTo         *big.Int
	EndEpoch            *big.Int // > 0 => terminated
	CommissionRateBps   *big.Int
	ServiceFeeRecipient common.Address
}

// Terminated reports the invariant endEpoch > 0 => terminated.
func (r *Rail) Terminated() bool {
	return r.EndEpoch != nil && r.EndEpoch.Sign() > 0
}

func (r *Rail) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("railId", r.RailID.String())
	enc.AddBool("terminated", r.Terminated())
	return nil
}

// SessionKeyPermission enumerates the operation-type hashes a session key
// may be authorized for.
type SessionKeyPermission uint8

const (
	PermissionCreateDataSet SessionKeyPermission = iota
	PermissionAddPieces
	PermissionSchedulePieceRemovals
	PermissionDeleteDataSet
)

// SessionKey is a derived signer authorized for an enumerated permission set.
type SessionKey struct {
	Address     common.Address
	Permissions map[SessionKeyPermission]*big.Int // permission -> expiry epoch
}

// ContextCacheEntry is the in-memory (provider, data set, metadata) tuple
// tracked by the manager's default-context cache.
type ContextCacheEntry struct {
	Provider  *Provider
	DataSetID *big.Int // nil means "not yet created"
	Metadata  map[string]string
	WithCDN   bool
}

// ReusableFor implements the cached-default-context reuse invariant: the
// requested metadata must be a subset of the cached metadata, and the
// caller must not have supplied any non-metadata, non-CDN option.
func (c *ContextCacheEntry) ReusableFor(requestedMetadata map[string]string, requestedCDN bool, hasOtherOptions bool) bool {
	if hasOtherOptions {
		return false
	}
	if requestedCDN != c.WithCDN {
		return false
	}
	for k, v := range requestedMetadata {
		if c.Metadata[k] != v {
			return false
		}
	}
	return true
}
