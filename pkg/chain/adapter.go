package chain

import (
	"context"
	stderrors "errors"
	"fmt"
	"math/big"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	logging "github.com/ipfs/go-log/v2"

	clienterrors "github.com/FilOzone/synapse-sdk-go/pkg/chain/evmerrors"
	"github.com/FilOzone/synapse-sdk-go/pkg/errors"
)

var log = logging.Logger("chain")

// emptyABI backs bind.NewBoundContract when submitting pre-packed calldata
// (Payment.PackSettleRail, PackWithdrawTo): RawTransact doesn't need the ABI
// at all, it only uses the bound contract for its address and backend.
var emptyABI = abi.ABI{}

// confirmationTimeout bounds how long Adapter waits for a submitted
// transaction to be mined: five Filecoin epochs, matching the timeout the
// rest of this module uses for on-chain confirmation waits.
const confirmationTimeout = 5 * FilecoinEpoch

// TxHandle is the confirmation half of a submitted transaction: the hash is
// known immediately, Wait blocks (with backoff) until the receipt lands.
type TxHandle struct {
	Hash common.Hash
	wait func(ctx context.Context) (*types.Receipt, error)
}

// Wait blocks until the transaction has `confirmations` confirmations (this
// client only ever waits for inclusion, so any value >= 1 behaves the same)
// or the confirmation timeout elapses.
func (t *TxHandle) Wait(ctx context.Context, confirmations uint64) (*types.Receipt, error) {
	return t.wait(ctx)
}

// Adapter ties a chain backend, a signer, and the network's contract
// addresses into the single collaborator every domain package depends on.
// It owns nonce discipline for writes that bypass the generated Transactor
// methods (settleRail, withdrawTo are sent as packed calldata, per the
// Payment interface's Pack* methods) and centralizes revert decoding so
// callers get a typed *errors.Error instead of a raw RPC error string.
type Adapter struct {
	Backend   ReceiptWaiter
	Signer    Signer
	ChainID   *big.Int
	Network   Network
	Addresses ContractAddresses
	Multicall *Multicall
}

// NewAdapter detects the network from the backend's chain id (mainnet or
// calibration only; anything else is rejected) and wires the contract
// address set and multicall batching helper for it.
func NewAdapter(ctx context.Context, backend ReceiptWaiter, signer Signer) (*Adapter, error) {
	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.KindChainCallFailed, "chain.NewAdapter", err)
	}

	network, ok := NetworkFromChainID(chainID)
	if !ok {
		return nil, errors.New(errors.KindUnsupportedNetwork, "chain.NewAdapter",
			fmt.Sprintf("chain id %s is not mainnet or calibration", chainID)).
			WithField("chainId", chainID.String())
	}

	addresses, err := Addresses(network)
	if err != nil {
		return nil, errors.Wrap(errors.KindUnsupportedNetwork, "chain.NewAdapter", err)
	}

	return &Adapter{
		Backend:   backend,
		Signer:    signer,
		ChainID:   chainID,
		Network:   network,
		Addresses: addresses,
		Multicall: NewMulticall(Multicall3Address, backend),
	}, nil
}

// Send submits packed calldata against `to` as a transaction from the
// adapter's signer. When the signer does not manage its own nonces (the
// common case for PrivateKeySigner), the adapter reads PendingNonceAt
// immediately before submission so concurrent writes from the same account
// don't race on the same nonce.
func (a *Adapter) Send(ctx context.Context, op string, to common.Address, data []byte, value *big.Int) (*TxHandle, error) {
	auth, err := a.Signer.TransactOpts(ctx, a.ChainID)
	if err != nil {
		return nil, errors.Wrap(errors.KindChainCallFailed, op, err)
	}

	if auth.Signer == nil {
		return nil, errors.New(errors.KindChainCallFailed, op, "signer produced no transact opts signer")
	}

	nonce, err := a.Backend.PendingNonceAt(ctx, a.Signer.Address())
	if err != nil {
		return nil, errors.Wrap(errors.KindChainCallFailed, op, err)
	}
	auth.Nonce = new(big.Int).SetUint64(nonce)
	if value != nil {
		auth.Value = value
	}

	boundTx := bind.NewBoundContract(to, emptyABI, a.Backend, a.Backend, a.Backend)
	tx, err := boundTx.RawTransact(auth, data)
	if err != nil {
		if decoded, derr := a.decodeRevert(err); derr == nil {
			return nil, decoded
		}
		return nil, errors.Wrap(errors.KindChainCallFailed, op, err).WithField("to", to.Hex())
	}

	log.Debugw("submitted transaction", "op", op, "hash", tx.Hash().Hex(), "nonce", nonce)

	return &TxHandle{
		Hash: tx.Hash(),
		wait: func(ctx context.Context) (*types.Receipt, error) {
			return a.waitForTransaction(ctx, op, tx.Hash())
		},
	}, nil
}

// waitForTransaction polls for a receipt with exponential backoff, the
// pattern every on-chain write in this client shares: five epochs of
// patience before giving up and surfacing TxNotPropagated.
func (a *Adapter) waitForTransaction(ctx context.Context, op string, txHash common.Hash) (*types.Receipt, error) {
	operation := func() (*types.Receipt, error) {
		receipt, err := a.Backend.TransactionReceipt(ctx, txHash)
		if err != nil {
			return nil, err // not yet mined, retry
		}
		if receipt.Status != types.ReceiptStatusSuccessful {
			return nil, backoff.Permanent(
				errors.New(errors.KindTxReverted, op, "transaction reverted").WithTxHash(txHash.Hex()))
		}
		return receipt, nil
	}

	receipt, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(&backoff.ExponentialBackOff{
			InitialInterval:     5 * time.Second,
			MaxInterval:         FilecoinEpoch,
			Multiplier:          2.0,
			RandomizationFactor: 0.1,
		}),
		backoff.WithMaxElapsedTime(confirmationTimeout),
	)
	if err != nil {
		var typed *errors.Error
		if stderrors.As(err, &typed) {
			return nil, typed
		}
		return nil, errors.Wrap(errors.KindTxNotPropagated, op, err).WithTxHash(txHash.Hex())
	}
	return receipt, nil
}

// decodeRevert attempts to turn an RPC error into a typed domain error using
// the named custom-error ABI. Returns a non-nil error itself (not the
// decoded value) when the input couldn't be decoded, so callers can fall
// back to a generic ChainCallFailed.
func (a *Adapter) decodeRevert(err error) (*errors.Error, error) {
	contractErr, perr := clienterrors.ParseRevertFromError(err.Error())
	if perr != nil {
		return nil, perr
	}

	kind := errors.KindChainCallFailed
	switch contractErr.ErrorName() {
	case "RailInactiveOrSettled":
		kind = errors.KindRailNotFound
	case "CannotSettleFutureEpochs", "InvalidEpochRange":
		kind = errors.KindFutureEpochRejected
	case "ProviderNotRegistered":
		kind = errors.KindNoHealthyProvider
	case "ZeroAddress":
		kind = errors.KindInvalidAddress
	}

	return errors.Wrap(kind, "chain.decodeRevert", contractErr).
		WithField("contractError", contractErr.ErrorName()), nil
}
