package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/FilOzone/synapse-sdk-go/pkg/chain/bindings"
)

// SessionKeys is a typed wrapper over the SessionKeyRegistry contract: one
// read (authorizationExpiry, which pkg/sessionkey batches per permission
// through multicall) and two writes (login, revoke). No generated binding for this contract ships in
// the upstream filecoin-services module at the version this client
// targets, so the contract is bound from a locally vendored abigen output
// the same way Multicall3 is hand-maintained.
type SessionKeys struct {
	address common.Address
	caller  *bindings.SessionKeyRegistryCaller
}

// NewSessionKeys binds a SessionKeys wrapper at address.
func NewSessionKeys(address common.Address, backend bind.ContractCaller) (*SessionKeys, error) {
	caller, err := bindings.NewSessionKeyRegistryCaller(address, backend)
	if err != nil {
		return nil, fmt.Errorf("binding session key registry at %s: %w", address, err)
	}
	return &SessionKeys{address: address, caller: caller}, nil
}

// Address returns the bound contract address.
func (s *SessionKeys) Address() common.Address {
	return s.address
}

// AuthorizationExpiry reads one permission's expiry epoch for signer,
// delegated by user. A zero result means the permission has never been
// granted, or was revoked.
func (s *SessionKeys) AuthorizationExpiry(ctx context.Context, user, signer common.Address, permission [32]byte) (*big.Int, error) {
	return s.caller.AuthorizationExpiry(&bind.CallOpts{Context: ctx}, user, signer, permission)
}

// PackLogin encodes login(signer, expiry, permissions) for Adapter.Send.
func PackLogin(signer common.Address, expiry *big.Int, permissions [][32]byte) ([]byte, error) {
	abi, err := bindings.SessionKeyRegistryMetaData.GetAbi()
	if err != nil {
		return nil, err
	}
	return abi.Pack("login", signer, expiry, permissions)
}

// PackRevoke encodes revoke(signer, permissions) for Adapter.Send.
func PackRevoke(signer common.Address, permissions [][32]byte) ([]byte, error) {
	abi, err := bindings.SessionKeyRegistryMetaData.GetAbi()
	if err != nil {
		return nil, err
	}
	return abi.Pack("revoke", signer, permissions)
}
