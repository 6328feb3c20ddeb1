package chain

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// NonceManagedBackend wraps a ReceiptWaiter so PendingNonceAt only ever hits
// the chain once per account: afterward it serves (and advances) a local
// counter under a mutex. Adapter.Send calls PendingNonceAt immediately
// before every submission, which is safe for a single writer but races once
// a manager fans a batch of add-pieces transactions out across several
// contexts sharing one payer account; this wrapper is what the facade
// enables by default to close that race, per its "unless disabled" escape
// hatch.
type NonceManagedBackend struct {
	ReceiptWaiter

	mu    sync.Mutex
	next  map[common.Address]uint64
	known map[common.Address]bool
}

// NewNonceManagedBackend wraps backend with local nonce tracking.
func NewNonceManagedBackend(backend ReceiptWaiter) *NonceManagedBackend {
	return &NonceManagedBackend{
		ReceiptWaiter: backend,
		next:          make(map[common.Address]uint64),
		known:         make(map[common.Address]bool),
	}
}

// PendingNonceAt returns the next nonce to use for account, consulting the
// chain only the first time this account is seen; every call after that
// advances the local counter instead.
func (n *NonceManagedBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.known[account] {
		nonce := n.next[account]
		n.next[account] = nonce + 1
		return nonce, nil
	}

	nonce, err := n.ReceiptWaiter.PendingNonceAt(ctx, account)
	if err != nil {
		return 0, err
	}
	n.known[account] = true
	n.next[account] = nonce + 1
	return nonce, nil
}

// Reset forgets the cached nonce for account, forcing the next
// PendingNonceAt call to re-sync from the chain. Useful after a
// transaction fails to propagate and its reserved nonce needs to be
// reused.
func (n *NonceManagedBackend) Reset(account common.Address) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.known, account)
	delete(n.next, account)
}

var _ ReceiptWaiter = (*NonceManagedBackend)(nil)
