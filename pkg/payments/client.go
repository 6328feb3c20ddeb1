// Package payments implements the Payments Service component: wallet and
// in-contract balance queries, operator delegation, deposits (direct,
// permit-based, and permit-plus-operator-grant), withdrawals, and rail
// settlement, including the auto-settle dispatch between the validator and
// terminated-rail paths.
package payments

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	logging "github.com/ipfs/go-log/v2"

	"github.com/FilOzone/synapse-sdk-go/pkg/chain"
	"github.com/FilOzone/synapse-sdk-go/pkg/errors"
)

var log = logging.Logger("payments")

// networkFee is the fixed native-token value settle() must carry, 0.0013 FIL.
var networkFee = big.NewInt(1_300_000_000_000_000)

// Lifecycle callbacks fired by Deposit at the named points of the
// golden-path approve-then-deposit flow.
type DepositCallbacks struct {
	OnAllowanceCheck func(current, required *big.Int)
	OnApprovalSent   func(txHash common.Hash)
	OnApprovalConfirmed func(txHash common.Hash)
	OnDepositSent    func(txHash common.Hash)
}

// AccountInfo is accountInfo()'s return shape: the contract's four raw
// fields plus the derived available balance.
type AccountInfo struct {
	Funds               *big.Int
	LockupCurrent       *big.Int
	LockupRate          *big.Int
	LockupLastSettledAt *big.Int
	AvailableFunds      *big.Int
}

// ServiceApprovalInfo is serviceApproval()'s return shape.
type ServiceApprovalInfo struct {
	IsApproved      bool
	RateAllowance   *big.Int
	RateUsed        *big.Int
	LockupAllowance *big.Int
	LockupUsed      *big.Int
	MaxLockupPeriod *big.Int
}

// RailSummary is one entry of getRailsAsPayer()/getRailsAsPayee().
type RailSummary struct {
	RailID       *big.Int
	IsTerminated bool
	EndEpoch     *big.Int
}

// Payments is the component bound to one token. The core supports one
// stable-coin token initially; constructing a Payments for any other token
// address fails with UnsupportedToken.
type Payments struct {
	adapter *chain.Adapter
	payment chain.Payment
	erc20   *erc20Client
	token   common.Address
}

// New binds Payments to the adapter's configured stable-coin token.
// Passing any other token address returns UnsupportedToken.
func New(adapter *chain.Adapter, token common.Address) (*Payments, error) {
	if token != (common.Address{}) && token != adapter.Addresses.USDFCToken {
		return nil, errors.New(errors.KindUnsupportedToken, "payments.New", "only the configured stable-coin token is supported").
			WithField("token", token.Hex())
	}
	if token == (common.Address{}) {
		token = adapter.Addresses.USDFCToken
	}

	payment, err := chain.NewPaymentContract(adapter.Addresses.Payments, adapter.Backend)
	if err != nil {
		return nil, errors.Wrap(errors.KindChainCallFailed, "payments.New", err)
	}

	return &Payments{
		adapter: adapter,
		payment: payment,
		erc20:   &erc20Client{backend: adapter.Backend},
		token:   token,
	}, nil
}

// WalletBalance returns the signer's balance: the native gas token balance
// when token is the zero address, otherwise the stable-coin's balanceOf.
// Decimals are fixed at 18.
func (p *Payments) WalletBalance(ctx context.Context, token common.Address) (*big.Int, error) {
	owner := p.adapter.Signer.Address()
	if token == (common.Address{}) {
		balance, err := p.adapter.Backend.BalanceAt(ctx, owner, nil)
		if err != nil {
			return nil, errors.Wrap(errors.KindChainCallFailed, "payments.WalletBalance", err)
		}
		return balance, nil
	}
	balance, err := p.erc20.balanceOf(ctx, token, owner)
	if err != nil {
		return nil, errors.Wrap(errors.KindChainCallFailed, "payments.WalletBalance", err)
	}
	return balance, nil
}

// Balance returns funds available inside the payments contract:
// funds - (lockupCurrent + lockupRate*(currentEpoch - lockupLastSettledAt)),
// clamped at zero.
func (p *Payments) Balance(ctx context.Context) (*big.Int, error) {
	info, err := p.AccountInfo(ctx)
	if err != nil {
		return nil, err
	}
	return info.AvailableFunds, nil
}

// AccountInfo returns the four raw account fields plus the derived
// available balance.
func (p *Payments) AccountInfo(ctx context.Context) (*AccountInfo, error) {
	owner := p.adapter.Signer.Address()
	raw, err := p.payment.Account(ctx, p.token, owner)
	if err != nil {
		return nil, errors.Wrap(errors.KindChainCallFailed, "payments.AccountInfo", err)
	}

	currentEpoch, err := p.adapter.Backend.BlockNumber(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.KindChainCallFailed, "payments.AccountInfo", err)
	}

	elapsed := new(big.Int).Sub(big.NewInt(int64(currentEpoch)), raw.LockupLastSettledAt)
	if elapsed.Sign() < 0 {
		elapsed.SetInt64(0)
	}
	accrued := new(big.Int).Mul(raw.LockupRate, elapsed)
	lockup := new(big.Int).Add(raw.LockupCurrent, accrued)
	available := new(big.Int).Sub(raw.Funds, lockup)
	if available.Sign() < 0 {
		available.SetInt64(0)
	}

	return &AccountInfo{
		Funds:               raw.Funds,
		LockupCurrent:       raw.LockupCurrent,
		LockupRate:          raw.LockupRate,
		LockupLastSettledAt: raw.LockupLastSettledAt,
		AvailableFunds:      available,
	}, nil
}

// Allowance reads the stable-coin's ERC-20 allowance granted to spender.
func (p *Payments) Allowance(ctx context.Context, spender common.Address) (*big.Int, error) {
	allowance, err := p.erc20.allowance(ctx, p.token, p.adapter.Signer.Address(), spender)
	if err != nil {
		return nil, errors.Wrap(errors.KindChainCallFailed, "payments.Allowance", err)
	}
	return allowance, nil
}

// Approve issues an ERC-20 approve(spender, amount) and returns the
// submitted transaction handle.
func (p *Payments) Approve(ctx context.Context, spender common.Address, amount *big.Int) (*chain.TxHandle, error) {
	data, err := packApprove(spender, amount)
	if err != nil {
		return nil, errors.Wrap(errors.KindChainCallFailed, "payments.Approve", err)
	}
	return p.adapter.Send(ctx, "payments.Approve", p.token, data, nil)
}

// ApproveService grants the payments contract's operator delegation to
// operator with the given rate/lockup allowances and max lockup period.
func (p *Payments) ApproveService(ctx context.Context, operator common.Address, rateAllowance, lockupAllowance, maxLockupPeriod *big.Int) (*chain.TxHandle, error) {
	data, err := p.payment.PackApproveOperator(p.token, operator, rateAllowance, lockupAllowance, maxLockupPeriod)
	if err != nil {
		return nil, errors.Wrap(errors.KindChainCallFailed, "payments.ApproveService", err)
	}
	return p.adapter.Send(ctx, "payments.ApproveService", p.adapter.Addresses.Payments, data, nil)
}

// RevokeService revokes a prior operator delegation.
func (p *Payments) RevokeService(ctx context.Context, operator common.Address) (*chain.TxHandle, error) {
	data, err := p.payment.PackRevokeOperator(p.token, operator)
	if err != nil {
		return nil, errors.Wrap(errors.KindChainCallFailed, "payments.RevokeService", err)
	}
	return p.adapter.Send(ctx, "payments.RevokeService", p.adapter.Addresses.Payments, data, nil)
}

// ServiceApproval returns the operator delegation state for operator.
func (p *Payments) ServiceApproval(ctx context.Context, operator common.Address) (*ServiceApprovalInfo, error) {
	info, err := p.payment.OperatorApproval(ctx, p.token, p.adapter.Signer.Address(), operator)
	if err != nil {
		return nil, errors.Wrap(errors.KindChainCallFailed, "payments.ServiceApproval", err)
	}
	return &ServiceApprovalInfo{
		IsApproved:      info.IsApproved,
		RateAllowance:   info.RateAllowance,
		RateUsed:        info.RateUsed,
		LockupAllowance: info.LockupAllowance,
		LockupUsed:      info.LockupUsed,
		MaxLockupPeriod: info.MaxLockupPeriod,
	}, nil
}

// Deposit checks wallet balance (InsufficientFunds on shortfall) then the
// current ERC-20 allowance. When the allowance is short, it issues an
// exact-amount approve, waits for its confirmation, then deposits — the
// golden path. Callbacks, all optional, fire at each lifecycle point.
func (p *Payments) Deposit(ctx context.Context, amount *big.Int, cb *DepositCallbacks) (*chain.TxHandle, error) {
	const op = "payments.Deposit"

	walletBalance, err := p.WalletBalance(ctx, p.token)
	if err != nil {
		return nil, err
	}
	if walletBalance.Cmp(amount) < 0 {
		return nil, errors.New(errors.KindInsufficientFunds, op, "wallet balance is below the requested deposit amount").
			WithField("balance", walletBalance.String()).WithField("amount", amount.String())
	}

	current, err := p.Allowance(ctx, p.adapter.Addresses.Payments)
	if err != nil {
		return nil, err
	}
	if cb != nil && cb.OnAllowanceCheck != nil {
		cb.OnAllowanceCheck(current, amount)
	}

	if current.Cmp(amount) < 0 {
		approveTx, err := p.Approve(ctx, p.adapter.Addresses.Payments, amount)
		if err != nil {
			return nil, err
		}
		if cb != nil && cb.OnApprovalSent != nil {
			cb.OnApprovalSent(approveTx.Hash)
		}
		if _, err := approveTx.Wait(ctx, 1); err != nil {
			return nil, errors.Wrap(errors.KindTxNotPropagated, op, err).WithTxHash(approveTx.Hash.Hex())
		}
		if cb != nil && cb.OnApprovalConfirmed != nil {
			cb.OnApprovalConfirmed(approveTx.Hash)
		}
	}

	data, err := p.payment.PackDeposit(p.token, p.adapter.Signer.Address(), amount)
	if err != nil {
		return nil, errors.Wrap(errors.KindChainCallFailed, op, err)
	}
	tx, err := p.adapter.Send(ctx, op, p.adapter.Addresses.Payments, data, nil)
	if err != nil {
		return nil, err
	}
	if cb != nil && cb.OnDepositSent != nil {
		cb.OnDepositSent(tx.Hash)
	}
	return tx, nil
}

// DepositWithPermit deposits in a single transaction using an EIP-2612
// permit signature, deriving the permit via a batched multicall read. A
// nil deadline defaults to now + 1 hour.
func (p *Payments) DepositWithPermit(ctx context.Context, amount, deadline *big.Int) (*chain.TxHandle, error) {
	const op = "payments.DepositWithPermit"

	permit, err := p.derivePermit(ctx, amount, deadline)
	if err != nil {
		return nil, err
	}

	data, err := p.payment.PackDepositWithPermit(
		p.token, p.adapter.Signer.Address(), amount, permit.Deadline, permit.V, permit.R, permit.S)
	if err != nil {
		return nil, errors.Wrap(errors.KindChainCallFailed, op, err)
	}
	return p.adapter.Send(ctx, op, p.adapter.Addresses.Payments, data, nil)
}

// DepositWithPermitAndApproveOperator performs the same permit derivation
// as DepositWithPermit plus an operator grant, in a single on-chain call.
func (p *Payments) DepositWithPermitAndApproveOperator(
	ctx context.Context, amount, deadline *big.Int,
	operator common.Address, rateAllowance, lockupAllowance, maxLockupPeriod *big.Int,
) (*chain.TxHandle, error) {
	const op = "payments.DepositWithPermitAndApproveOperator"

	permit, err := p.derivePermit(ctx, amount, deadline)
	if err != nil {
		return nil, err
	}

	data, err := p.payment.PackDepositWithPermitAndApproveOperator(
		p.token, p.adapter.Signer.Address(), amount, permit.Deadline, permit.V, permit.R, permit.S,
		operator, rateAllowance, lockupAllowance, maxLockupPeriod)
	if err != nil {
		return nil, errors.Wrap(errors.KindChainCallFailed, op, err)
	}
	return p.adapter.Send(ctx, op, p.adapter.Addresses.Payments, data, nil)
}

// Withdraw rejects amounts above the caller's available balance and
// otherwise withdraws to the signer's own address.
func (p *Payments) Withdraw(ctx context.Context, amount *big.Int) (*chain.TxHandle, error) {
	const op = "payments.Withdraw"

	available, err := p.Balance(ctx)
	if err != nil {
		return nil, err
	}
	if amount.Cmp(available) > 0 {
		return nil, errors.New(errors.KindInsufficientFunds, op, "withdrawal amount exceeds available funds").
			WithField("available", available.String()).WithField("amount", amount.String())
	}

	data, err := p.payment.PackWithdrawTo(p.token, p.adapter.Signer.Address(), amount)
	if err != nil {
		return nil, errors.Wrap(errors.KindChainCallFailed, op, err)
	}
	return p.adapter.Send(ctx, op, p.adapter.Addresses.Payments, data, nil)
}

// Settle sends the validator-backed settlement transaction, carrying the
// fixed network fee as value. A nil untilEpoch defaults to the current
// epoch; a future epoch is rejected via the contract's own revert, mapped
// to FutureEpochRejected by the adapter's revert decoder.
func (p *Payments) Settle(ctx context.Context, railID, untilEpoch *big.Int) (*chain.TxHandle, error) {
	const op = "payments.Settle"

	if untilEpoch == nil {
		current, err := p.adapter.Backend.BlockNumber(ctx)
		if err != nil {
			return nil, errors.Wrap(errors.KindChainCallFailed, op, err)
		}
		untilEpoch = big.NewInt(int64(current))
	}

	data, err := p.payment.PackSettleRail(railID, untilEpoch)
	if err != nil {
		return nil, errors.Wrap(errors.KindChainCallFailed, op, err)
	}
	return p.adapter.Send(ctx, op, p.adapter.Addresses.Payments, data, networkFee)
}

// SettleTerminatedRail bypasses the validator and carries no network fee;
// valid only once a rail has been terminated.
func (p *Payments) SettleTerminatedRail(ctx context.Context, railID *big.Int) (*chain.TxHandle, error) {
	const op = "payments.SettleTerminatedRail"
	data, err := p.payment.PackSettleTerminatedRail(railID)
	if err != nil {
		return nil, errors.Wrap(errors.KindChainCallFailed, op, err)
	}
	return p.adapter.Send(ctx, op, p.adapter.Addresses.Payments, data, nil)
}

// SettleAuto reads the rail and delegates: terminated rails go through
// SettleTerminatedRail, active rails through Settle.
func (p *Payments) SettleAuto(ctx context.Context, railID, untilEpoch *big.Int) (*chain.TxHandle, error) {
	rail, err := p.payment.GetRail(ctx, railID)
	if err != nil {
		return nil, errors.Wrap(errors.KindChainCallFailed, "payments.SettleAuto", err)
	}
	if rail.EndEpoch != nil && rail.EndEpoch.Sign() > 0 {
		return p.SettleTerminatedRail(ctx, railID)
	}
	return p.Settle(ctx, railID, untilEpoch)
}

// GetSettlementAmounts simulates a settlement via eth_call, without
// sending a transaction.
func (p *Payments) GetSettlementAmounts(ctx context.Context, railID, untilEpoch *big.Int) (*chain.SettlementAmounts, error) {
	if untilEpoch == nil {
		current, err := p.adapter.Backend.BlockNumber(ctx)
		if err != nil {
			return nil, errors.Wrap(errors.KindChainCallFailed, "payments.GetSettlementAmounts", err)
		}
		untilEpoch = big.NewInt(int64(current))
	}
	amounts, err := p.payment.SimulateSettle(ctx, p.adapter.Signer.Address(), railID, untilEpoch, networkFee)
	if err != nil {
		return nil, errors.Wrap(errors.KindChainCallFailed, "payments.GetSettlementAmounts", err)
	}
	return amounts, nil
}

// GetRailsAsPayer lists rails where the signer is the payer.
func (p *Payments) GetRailsAsPayer(ctx context.Context) ([]RailSummary, error) {
	result, err := p.payment.GetRailsForPayerAndToken(ctx, p.adapter.Signer.Address(), p.token, big.NewInt(0), big.NewInt(1000))
	if err != nil {
		return nil, errors.Wrap(errors.KindChainCallFailed, "payments.GetRailsAsPayer", err)
	}
	return toRailSummaries(result.Rails), nil
}

// GetRailsAsPayee lists rails where the signer is the payee.
func (p *Payments) GetRailsAsPayee(ctx context.Context) ([]RailSummary, error) {
	result, err := p.payment.GetRailsForPayeeAndToken(ctx, p.adapter.Signer.Address(), p.token, big.NewInt(0), big.NewInt(1000))
	if err != nil {
		return nil, errors.Wrap(errors.KindChainCallFailed, "payments.GetRailsAsPayee", err)
	}
	return toRailSummaries(result.Rails), nil
}

func toRailSummaries(rails []chain.RailInfo) []RailSummary {
	out := make([]RailSummary, len(rails))
	for i, r := range rails {
		out[i] = RailSummary{RailID: r.RailId, IsTerminated: r.IsTerminated, EndEpoch: r.EndEpoch}
	}
	return out
}
