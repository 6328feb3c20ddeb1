package sessionkey

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/FilOzone/synapse-sdk-go/pkg/chain"
	"github.com/FilOzone/synapse-sdk-go/pkg/chain/bindings"
	"github.com/FilOzone/synapse-sdk-go/pkg/errors"
	"github.com/FilOzone/synapse-sdk-go/pkg/types"
)

// expiryCacheSize bounds the number of (user, signer, permission) expiry
// entries held in memory. A session key's delegated scope is small in
// practice (four permissions at most per signer), so this comfortably
// covers a client juggling many concurrent session keys.
const expiryCacheSize = 4096

// expiryCacheKey identifies one cached authorizationExpiry read.
type expiryCacheKey struct {
	user       common.Address
	signer     common.Address
	permission types.SessionKeyPermission
}

// SessionKeys is the client-facing wrapper over one SessionKeyRegistry
// deployment: it batches authorizationExpiry reads via multicall and
// issues login/revoke writes through the shared chain adapter. Reads are
// cached since a caller re-checking authorization ahead of every delegated
// call would otherwise re-hit the chain for state that only changes on its
// own Login/Revoke calls.
type SessionKeys struct {
	adapter  *chain.Adapter
	registry *chain.SessionKeys
	cache    *lru.Cache[expiryCacheKey, *big.Int]
}

// New binds a SessionKeys helper to registry, reachable through adapter's
// signer and multicall aggregator.
func New(adapter *chain.Adapter, registry *chain.SessionKeys) *SessionKeys {
	cache, err := lru.New[expiryCacheKey, *big.Int](expiryCacheSize)
	if err != nil {
		panic(fmt.Sprintf("sessionkey: invalid cache size %d: %v", expiryCacheSize, err))
	}
	return &SessionKeys{adapter: adapter, registry: registry, cache: cache}
}

// FetchExpiries batches one authorizationExpiry read per permission behind
// a single multicall round trip, keyed by user (the account delegating)
// and signer (the delegated session key address). A permission absent from
// the result, or present with a zero expiry, has never been granted or was
// revoked. Cache hits are served without touching the chain; Login and
// Revoke evict the permissions they change.
func (s *SessionKeys) FetchExpiries(ctx context.Context, user, signer common.Address, permissions []types.SessionKeyPermission) (map[types.SessionKeyPermission]*big.Int, error) {
	const op = "sessionkey.FetchExpiries"
	if len(permissions) == 0 {
		return map[types.SessionKeyPermission]*big.Int{}, nil
	}

	out := make(map[types.SessionKeyPermission]*big.Int, len(permissions))
	var uncached []types.SessionKeyPermission
	for _, p := range permissions {
		if expiry, ok := s.cache.Get(expiryCacheKey{user: user, signer: signer, permission: p}); ok {
			out[p] = expiry
			continue
		}
		uncached = append(uncached, p)
	}
	if len(uncached) == 0 {
		return out, nil
	}

	abi, err := registryABI()
	if err != nil {
		return nil, errors.Wrap(errors.KindChainCallFailed, op, err)
	}

	calls := make([]chain.Call3, len(uncached))
	for i, p := range uncached {
		data, err := abi.Pack("authorizationExpiry", user, signer, operationHash(p))
		if err != nil {
			return nil, errors.Wrap(errors.KindChainCallFailed, op, err)
		}
		calls[i] = chain.Call3{Target: s.registry.Address(), AllowFailure: false, CallData: data}
	}

	results, err := s.adapter.Multicall.Aggregate(ctx, calls)
	if err != nil {
		return nil, errors.Wrap(errors.KindChainCallFailed, op, err)
	}

	for i, p := range uncached {
		var expiry *big.Int
		if err := abi.UnpackIntoInterface(&expiry, "authorizationExpiry", results[i].ReturnData); err != nil {
			return nil, errors.Wrap(errors.KindMalformedServerResponse, op, err)
		}
		out[p] = expiry
		s.cache.Add(expiryCacheKey{user: user, signer: signer, permission: p}, expiry)
	}
	return out, nil
}

// Login authorizes signer for permissions until expiryEpoch, emitting one
// login(signer, expiry, permissions) transaction against the registry.
func (s *SessionKeys) Login(ctx context.Context, signer common.Address, expiryEpoch *big.Int, permissions []types.SessionKeyPermission) (*chain.TxHandle, error) {
	const op = "sessionkey.Login"
	if len(permissions) == 0 {
		return nil, errors.New(errors.KindOptionsConflict, op, "at least one permission is required")
	}
	hashes := hashAll(permissions)
	data, err := chain.PackLogin(signer, expiryEpoch, hashes)
	if err != nil {
		return nil, errors.Wrap(errors.KindChainCallFailed, op, err)
	}
	s.evict(signer, permissions)
	return s.adapter.Send(ctx, op, s.registry.Address(), data, nil)
}

// Revoke sets permissions' expiry to 0 for signer, emitting one
// revoke(signer, permissions) transaction.
func (s *SessionKeys) Revoke(ctx context.Context, signer common.Address, permissions []types.SessionKeyPermission) (*chain.TxHandle, error) {
	const op = "sessionkey.Revoke"
	if len(permissions) == 0 {
		return nil, errors.New(errors.KindOptionsConflict, op, "at least one permission is required")
	}
	hashes := hashAll(permissions)
	data, err := chain.PackRevoke(signer, hashes)
	if err != nil {
		return nil, errors.Wrap(errors.KindChainCallFailed, op, err)
	}
	s.evict(signer, permissions)
	return s.adapter.Send(ctx, op, s.registry.Address(), data, nil)
}

// evict drops cached expiries for signer that Login/Revoke just changed.
// The registry scopes authorizationExpiry by (user, signer, permission) with
// user set to the caller submitting the transaction, which is always this
// adapter's own signing account.
func (s *SessionKeys) evict(signer common.Address, permissions []types.SessionKeyPermission) {
	user := s.adapter.Signer.Address()
	for _, p := range permissions {
		s.cache.Remove(expiryCacheKey{user: user, signer: signer, permission: p})
	}
}

func hashAll(permissions []types.SessionKeyPermission) [][32]byte {
	hashes := make([][32]byte, len(permissions))
	for i, p := range permissions {
		hashes[i] = operationHash(p)
	}
	return hashes
}

func registryABI() (*abi.ABI, error) {
	return bindings.SessionKeyRegistryMetaData.GetAbi()
}
