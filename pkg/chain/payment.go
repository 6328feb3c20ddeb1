package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/storacha/filecoin-services/go/bindings"
)

type Payment interface {
	Account(ctx context.Context, token, owner common.Address) (*AccountInfo, error)
	GetRailsForPayeeAndToken(ctx context.Context, payee, token common.Address, offset, limit *big.Int) (*RailsResult, error)
	GetRail(ctx context.Context, railId *big.Int) (*RailView, error)

	// Address returns the payment contract address
	Address() common.Address

	// PackSettleRail returns the packed ABI call data for settleRail
	// This can be used with a Sender to submit the transaction
	PackSettleRail(railId, untilEpoch *big.Int) ([]byte, error)

	// PackWithdrawTo returns the packed ABI call data for withdrawTo
	// This can be used with a Sender to submit the transaction
	PackWithdrawTo(token, to common.Address, amount *big.Int) ([]byte, error)

	// GetRailsForPayerAndToken mirrors GetRailsForPayeeAndToken from the
	// payer's side, for getRailsAsPayer().
	GetRailsForPayerAndToken(ctx context.Context, payer, token common.Address, offset, limit *big.Int) (*RailsResult, error)

	// OperatorApproval reads the operator delegation state for (token, client, operator).
	OperatorApproval(ctx context.Context, token, client, operator common.Address) (*OperatorApprovalInfo, error)

	// PackDeposit returns calldata for deposit(token, to, amount).
	PackDeposit(token, to common.Address, amount *big.Int) ([]byte, error)

	// PackDepositWithPermit returns calldata for depositWithPermit, forwarding
	// the (v, r, s) components of an EIP-2612 permit signature.
	PackDepositWithPermit(token, to common.Address, amount, deadline *big.Int, v uint8, r, s [32]byte) ([]byte, error)

	// PackDepositWithPermitAndApproveOperator returns calldata for the
	// combined permit-deposit-plus-operator-grant entry point.
	PackDepositWithPermitAndApproveOperator(
		token, to common.Address, amount, deadline *big.Int, v uint8, r, s [32]byte,
		operator common.Address, rateAllowance, lockupAllowance, maxLockupPeriod *big.Int,
	) ([]byte, error)

	// PackApproveOperator returns calldata for setOperatorApproval(token, operator, approved, rateAllowance, lockupAllowance, maxLockupPeriod).
	PackApproveOperator(token, operator common.Address, rateAllowance, lockupAllowance, maxLockupPeriod *big.Int) ([]byte, error)

	// PackRevokeOperator returns calldata revoking a prior operator approval.
	PackRevokeOperator(token, operator common.Address) ([]byte, error)

	// PackSettleTerminatedRail returns calldata for settleTerminatedRail(railId),
	// the validator-bypassing settlement path that carries no network fee.
	PackSettleTerminatedRail(railId *big.Int) ([]byte, error)

	// SimulateSettle performs settle as an eth_call (no transaction) to read
	// back the amounts a real settlement would produce.
	SimulateSettle(ctx context.Context, from common.Address, railId, untilEpoch *big.Int, value *big.Int) (*SettlementAmounts, error)
}

// OperatorApprovalInfo mirrors the payments contract's per-operator
// delegation record.
type OperatorApprovalInfo struct {
	IsApproved      bool
	RateAllowance   *big.Int
	RateUsed        *big.Int
	LockupAllowance *big.Int
	LockupUsed      *big.Int
	MaxLockupPeriod *big.Int
}

// SettlementAmounts is the read-only simulation result for settle/settleTerminatedRail.
type SettlementAmounts struct {
	TotalSettledAmount      *big.Int
	TotalNetPayeeAmount     *big.Int
	TotalOperatorCommission *big.Int
	FinalSettledEpoch       *big.Int
	Note                    string
}

type paymentContract struct {
	address  common.Address
	contract *bindings.Payments
	client   bind.ContractBackend
}

func NewPaymentContract(address common.Address, client bind.ContractBackend) (Payment, error) {
	contract, err := bindings.NewPayments(address, client)
	if err != nil {
		return nil, err
	}

	return &paymentContract{
		address:  address,
		contract: contract,
		client:   client,
	}, nil
}

type AccountInfo struct {
	Funds               *big.Int
	LockupCurrent       *big.Int
	LockupRate          *big.Int
	LockupLastSettledAt *big.Int
}

type RailInfo struct {
	RailId       *big.Int
	IsTerminated bool
	EndEpoch     *big.Int
}

type RailsResult struct {
	Rails      []RailInfo
	NextOffset *big.Int
	Total      *big.Int
}

type RailView struct {
	RailId              *big.Int
	Token               common.Address
	From                common.Address
	To                  common.Address
	Operator            common.Address
	Validator           common.Address
	PaymentRate         *big.Int
	LockupPeriod        *big.Int
	LockupFixed         *big.Int
	SettledUpTo         *big.Int
	EndEpoch            *big.Int
	CommissionRateBps   *big.Int
	ServiceFeeRecipient common.Address
}

func (p *paymentContract) Account(ctx context.Context, token, owner common.Address) (*AccountInfo, error) {
	info, err := p.contract.Accounts(&bind.CallOpts{Context: ctx}, token, owner)
	if err != nil {
		return nil, err
	}

	return &AccountInfo{
		Funds:               info.Funds,
		LockupCurrent:       info.LockupCurrent,
		LockupRate:          info.LockupRate,
		LockupLastSettledAt: info.LockupLastSettledAt,
	}, nil
}

func (p *paymentContract) GetRailsForPayeeAndToken(ctx context.Context, payee, token common.Address, offset, limit *big.Int) (*RailsResult, error) {
	result, err := p.contract.GetRailsForPayeeAndToken(&bind.CallOpts{Context: ctx}, payee, token, offset, limit)
	if err != nil {
		return nil, err
	}

	rails := make([]RailInfo, len(result.Results))
	for i, r := range result.Results {
		rails[i] = RailInfo{
			RailId:       r.RailId,
			IsTerminated: r.IsTerminated,
			EndEpoch:     r.EndEpoch,
		}
	}

	return &RailsResult{
		Rails:      rails,
		NextOffset: result.NextOffset,
		Total:      result.Total,
	}, nil
}

func (p *paymentContract) GetRail(ctx context.Context, railId *big.Int) (*RailView, error) {
	rail, err := p.contract.GetRail(&bind.CallOpts{Context: ctx}, railId)
	if err != nil {
		return nil, err
	}

	return &RailView{
		RailId:              railId,
		Token:               rail.Token,
		From:                rail.From,
		To:                  rail.To,
		Operator:            rail.Operator,
		Validator:           rail.Validator,
		PaymentRate:         rail.PaymentRate,
		LockupPeriod:        rail.LockupPeriod,
		LockupFixed:         rail.LockupFixed,
		SettledUpTo:         rail.SettledUpTo,
		EndEpoch:            rail.EndEpoch,
		CommissionRateBps:   rail.CommissionRateBps,
		ServiceFeeRecipient: rail.ServiceFeeRecipient,
	}, nil
}

func (p *paymentContract) Address() common.Address {
	return p.address
}

func (p *paymentContract) PackSettleRail(railId, untilEpoch *big.Int) ([]byte, error) {
	abi, err := bindings.PaymentsMetaData.GetAbi()
	if err != nil {
		return nil, err
	}
	return abi.Pack("settleRail", railId, untilEpoch)
}

func (p *paymentContract) PackWithdrawTo(token, to common.Address, amount *big.Int) ([]byte, error) {
	abi, err := bindings.PaymentsMetaData.GetAbi()
	if err != nil {
		return nil, err
	}
	return abi.Pack("withdrawTo", token, to, amount)
}

func (p *paymentContract) GetRailsForPayerAndToken(ctx context.Context, payer, token common.Address, offset, limit *big.Int) (*RailsResult, error) {
	result, err := p.contract.GetRailsForPayerAndToken(&bind.CallOpts{Context: ctx}, payer, token, offset, limit)
	if err != nil {
		return nil, err
	}

	rails := make([]RailInfo, len(result.Results))
	for i, r := range result.Results {
		rails[i] = RailInfo{
			RailId:       r.RailId,
			IsTerminated: r.IsTerminated,
			EndEpoch:     r.EndEpoch,
		}
	}

	return &RailsResult{
		Rails:      rails,
		NextOffset: result.NextOffset,
		Total:      result.Total,
	}, nil
}

func (p *paymentContract) OperatorApproval(ctx context.Context, token, client, operator common.Address) (*OperatorApprovalInfo, error) {
	approval, err := p.contract.OperatorApprovals(&bind.CallOpts{Context: ctx}, token, client, operator)
	if err != nil {
		return nil, err
	}
	return &OperatorApprovalInfo{
		IsApproved:      approval.IsApproved,
		RateAllowance:   approval.RateAllowance,
		RateUsed:        approval.RateUsage,
		LockupAllowance: approval.LockupAllowance,
		LockupUsed:      approval.LockupUsage,
		MaxLockupPeriod: approval.MaxLockupPeriod,
	}, nil
}

func (p *paymentContract) PackDeposit(token, to common.Address, amount *big.Int) ([]byte, error) {
	abi, err := bindings.PaymentsMetaData.GetAbi()
	if err != nil {
		return nil, err
	}
	return abi.Pack("deposit", token, to, amount)
}

func (p *paymentContract) PackDepositWithPermit(token, to common.Address, amount, deadline *big.Int, v uint8, r, s [32]byte) ([]byte, error) {
	abi, err := bindings.PaymentsMetaData.GetAbi()
	if err != nil {
		return nil, err
	}
	return abi.Pack("depositWithPermit", token, to, amount, deadline, v, r, s)
}

func (p *paymentContract) PackDepositWithPermitAndApproveOperator(
	token, to common.Address, amount, deadline *big.Int, v uint8, r, s [32]byte,
	operator common.Address, rateAllowance, lockupAllowance, maxLockupPeriod *big.Int,
) ([]byte, error) {
	abi, err := bindings.PaymentsMetaData.GetAbi()
	if err != nil {
		return nil, err
	}
	return abi.Pack("depositWithPermitAndApproveOperator",
		token, to, amount, deadline, v, r, s,
		operator, rateAllowance, lockupAllowance, maxLockupPeriod)
}

func (p *paymentContract) PackApproveOperator(token, operator common.Address, rateAllowance, lockupAllowance, maxLockupPeriod *big.Int) ([]byte, error) {
	abi, err := bindings.PaymentsMetaData.GetAbi()
	if err != nil {
		return nil, err
	}
	return abi.Pack("setOperatorApproval", token, operator, true, rateAllowance, lockupAllowance, maxLockupPeriod)
}

func (p *paymentContract) PackRevokeOperator(token, operator common.Address) ([]byte, error) {
	abi, err := bindings.PaymentsMetaData.GetAbi()
	if err != nil {
		return nil, err
	}
	return abi.Pack("setOperatorApproval", token, operator, false, big.NewInt(0), big.NewInt(0), big.NewInt(0))
}

func (p *paymentContract) PackSettleTerminatedRail(railId *big.Int) ([]byte, error) {
	abi, err := bindings.PaymentsMetaData.GetAbi()
	if err != nil {
		return nil, err
	}
	return abi.Pack("settleTerminatedRail", railId)
}

func (p *paymentContract) SimulateSettle(ctx context.Context, from common.Address, railId, untilEpoch *big.Int, value *big.Int) (*SettlementAmounts, error) {
	metaABI, err := bindings.PaymentsMetaData.GetAbi()
	if err != nil {
		return nil, err
	}
	data, err := metaABI.Pack("settleRail", railId, untilEpoch)
	if err != nil {
		return nil, err
	}

	msg := ethereum.CallMsg{From: from, To: &p.address, Data: data, Value: value}
	raw, err := p.client.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, err
	}

	var out struct {
		TotalSettledAmount      *big.Int
		TotalNetPayeeAmount     *big.Int
		TotalOperatorCommission *big.Int
		SettledUpTo             *big.Int
		Note                    string
	}
	if err := metaABI.UnpackIntoInterface(&out, "settleRail", raw); err != nil {
		return nil, err
	}

	return &SettlementAmounts{
		TotalSettledAmount:      out.TotalSettledAmount,
		TotalNetPayeeAmount:     out.TotalNetPayeeAmount,
		TotalOperatorCommission: out.TotalOperatorCommission,
		FinalSettledEpoch:       out.SettledUpTo,
		Note:                    out.Note,
	}, nil
}
