// Package manager implements the Storage Manager (component C7): the
// multi-context layer above a single storagecontext.Context. It opens and
// caches a default set of contexts, fans uploads and downloads out across
// single- or multi-context requests, and answers preflight cost/allowance
// questions without binding to a provider or data set.
package manager

import (
	"sync"

	logging "github.com/ipfs/go-log/v2"

	"github.com/FilOzone/synapse-sdk-go/pkg/payments"
	"github.com/FilOzone/synapse-sdk-go/pkg/retriever"
	"github.com/FilOzone/synapse-sdk-go/pkg/storagecontext"
	"github.com/FilOzone/synapse-sdk-go/pkg/types"
)

var log = logging.Logger("manager")

// EpochsPerMonth is the 30-day month convention used throughout cost
// estimation, matching payments.DefaultMaxLockupPeriodDays.
const EpochsPerMonth = payments.EpochsPerDay * 30

// Deps bundles the collaborators a Manager needs: the chain/provider deps
// every Context it opens shares, the retriever chain downloads dispatch
// through, and the payments client preflight checks read allowance from.
type Deps struct {
	Chain    storagecontext.Deps
	Fetcher  retriever.Fetcher
	Payments *payments.Payments
}

// cachedContext pairs an opened Context with the cache-entry view the
// default-context reuse predicate reasons about.
type cachedContext struct {
	ctx   *storagecontext.Context
	entry *types.ContextCacheEntry
}

// Manager is safe for concurrent use. Every Context it opens is
// independently safe for concurrent use (see storagecontext.Context); the
// Manager's own mutex only guards the default-context set.
type Manager struct {
	deps Deps
	cb   storagecontext.Callbacks

	mu         sync.Mutex
	defaultSet []*cachedContext
}

// New builds a Manager. cb is used for every Context opened implicitly by
// Upload/createContexts; callers driving an explicit Context or Contexts
// list supply their own callbacks when they opened those contexts.
func New(deps Deps, cb storagecontext.Callbacks) *Manager {
	return &Manager{deps: deps, cb: cb}
}
