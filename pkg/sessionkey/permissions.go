// Package sessionkey implements the Session Key Helper (component C8):
// batched expiry reads and login/revoke writes against the
// SessionKeyRegistry contract for a delegated signer authorized over a
// subset of PDP write operations.
package sessionkey

import (
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/FilOzone/synapse-sdk-go/pkg/types"
)

// operationNames is the canonical WarmStorage method name each permission
// delegates, the preimage the registry's bytes32 permission identifiers
// are derived from (keccak256 of the ASCII method name, the same
// convention this stack already uses for EIP-712 type hashes).
var operationNames = map[types.SessionKeyPermission]string{
	types.PermissionCreateDataSet:         "createDataSet",
	types.PermissionAddPieces:             "addPieces",
	types.PermissionSchedulePieceRemovals: "schedulePieceRemovals",
	types.PermissionDeleteDataSet:         "deleteDataSet",
}

// operationHash returns the bytes32 permission identifier the registry
// contract expects for permission.
func operationHash(permission types.SessionKeyPermission) [32]byte {
	return crypto.Keccak256Hash([]byte(operationNames[permission]))
}
