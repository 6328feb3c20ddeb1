// Package storagecontext implements the per-(provider, data set) storage
// session (component C6): resolving which provider and data set a request
// should land on, streaming pieces to the provider, batching add-pieces
// transactions, and reporting proving status.
package storagecontext

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	logging "github.com/ipfs/go-log/v2"

	"github.com/FilOzone/synapse-sdk-go/pkg/chain"
	"github.com/FilOzone/synapse-sdk-go/pkg/provider"
	"github.com/FilOzone/synapse-sdk-go/pkg/providerclient"
	"github.com/FilOzone/synapse-sdk-go/pkg/statsclient"
	"github.com/FilOzone/synapse-sdk-go/pkg/types"
)

var log = logging.Logger("storagecontext")

// Size bounds on a single upload's byte buffer. Streams of unknown size skip
// this check. Tunable design constants, not contract-enforced limits.
const (
	MinUploadSize = 127
	MaxUploadSize = 200 << 20 // 200 MiB
)

// Timing knobs for the poll loops in upload.go, batch.go, and create.go. All
// are tunable; they bound how long a caller waits before a typed timeout
// error is raised rather than hanging forever. Declared as vars, not consts,
// so tests can shrink them instead of running real-time against multi-minute
// windows.
var (
	piecePollInterval = 2 * time.Second
	piecePollTimeout  = 60 * time.Second

	txPropagationInterval = 1 * time.Second
	txPropagationTimeout  = 30 * time.Second

	creationPollInterval = 2 * time.Second
	creationPollTimeout  = 7 * time.Minute

	additionPollInterval = 2 * time.Second
	additionPollTimeout  = 60 * time.Second

	batchCoalesceWindow = 15 * time.Second
	batchCoalescePoll   = 200 * time.Millisecond
)

// DefaultUploadBatchSize bounds how many pending pieces one add-pieces (or
// create-with-pieces) transaction carries.
const DefaultUploadBatchSize = 32

// Options configures how a Context resolves its (provider, data set) pair.
// See the resolution state machine in resolver.go for how the fields combine.
type Options struct {
	ProviderID      *big.Int
	ProviderAddress *common.Address
	DataSetID       *big.Int
	WithCDN         bool
	Metadata        map[string]string
	ForceCreate     bool
	UploadBatchSize int

	// WithIPNI and IncludeDev narrow smart-select and ping-based candidate
	// generation the same way provider.Filter does.
	WithIPNI   bool
	IncludeDev bool
}

func (o Options) filter() provider.Filter {
	return provider.Filter{WithIpni: o.WithIPNI, IncludeDev: o.IncludeDev}
}

func (o Options) uploadBatchSize() int {
	if o.UploadBatchSize > 0 {
		return o.UploadBatchSize
	}
	return DefaultUploadBatchSize
}

// Callbacks are fired at named lifecycle points. Every field is optional;
// nil callbacks are simply skipped.
type Callbacks struct {
	OnProviderSelected        func(*types.Provider)
	OnUploadComplete         func(pieceCID string)
	OnPieceAdded             func(txHash common.Hash)
	OnPieceConfirmed         func(pieceIDs []uint64)
	OnDataSetCreationProgress func(elapsed time.Duration, status *providerclient.DataSetCreationStatus)
}

// clientFor is a seam swapped out in tests.
var clientFor = func(serviceURL string) (*providerclient.Client, error) {
	return providerclient.New(serviceURL)
}

// Deps bundles the chain collaborators a Resolver and the Contexts it
// produces need. All fields are required.
type Deps struct {
	Adapter   *chain.Adapter
	Service   chain.Service
	Registry  chain.Registry
	Verifier  chain.Verifier
	Providers *provider.Resolver

	// Stats is optional. When set and the context was opened WithCDN,
	// PieceStatus attaches the data set's current egress quota to its
	// result.
	Stats *statsclient.Client
}
