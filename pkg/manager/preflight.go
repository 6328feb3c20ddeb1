package manager

import (
	"context"
	"math/big"

	"github.com/FilOzone/synapse-sdk-go/pkg/errors"
	"github.com/FilOzone/synapse-sdk-go/pkg/payments"
	"github.com/FilOzone/synapse-sdk-go/pkg/provider"
	"github.com/FilOzone/synapse-sdk-go/pkg/types"
)

// EstimatedCost is the allowance a given size/lockup window requires,
// expressed at three granularities for display.
type EstimatedCost struct {
	PerEpoch *big.Int
	PerDay   *big.Int
	PerMonth *big.Int
}

// AllowanceCheck compares the estimated cost against the caller's current
// service approval.
type AllowanceCheck struct {
	Sufficient bool
	Message    string
}

// PreflightResult answers "can I afford this" without binding to any
// provider or data set: both SelectedProvider and SelectedDataSetID stay
// nil, since preflight estimates cost off the approved pool's average
// price rather than committing to a single provider.
type PreflightResult struct {
	EstimatedCost     EstimatedCost
	AllowanceCheck    AllowanceCheck
	SelectedProvider  *string
	SelectedDataSetID *big.Int
}

// PreflightOptions mirrors the subset of CreateOptions that affects price
// discovery: which providers are even in consideration.
type PreflightOptions struct {
	WithIPNI   bool
	IncludeDev bool
	LockupDays int
}

// PreflightUpload implements §4.8: estimate the rate/lockup allowance a
// payload of sizeInBytes would require, using the mean advertised price
// across the approved provider pool as a stand-in for whichever provider
// ends up selected, then reports whether the caller's current service
// approval already covers it.
func (m *Manager) PreflightUpload(ctx context.Context, sizeInBytes *big.Int, opts PreflightOptions) (*PreflightResult, error) {
	const op = "manager.PreflightUpload"
	if sizeInBytes == nil || sizeInBytes.Sign() <= 0 {
		return nil, errors.New(errors.KindInvalidAmount, op, "size must be greater than 0")
	}

	lockupDays := opts.LockupDays
	if lockupDays <= 0 {
		lockupDays = payments.DefaultLockupDays
	}

	providers, err := m.deps.Chain.Providers.ApprovedProviders(ctx, provider.Filter{WithIpni: opts.WithIPNI, IncludeDev: opts.IncludeDev})
	if err != nil {
		return nil, err
	}
	price, err := averagePrice(providers)
	if err != nil {
		return nil, err
	}

	calc, err := payments.CalculateAllowances(sizeInBytes, lockupDays, payments.DefaultMaxLockupPeriodDays, price, EpochsPerMonth)
	if err != nil {
		return nil, err
	}

	perDay := new(big.Int).Mul(calc.RatePerEpoch, big.NewInt(payments.EpochsPerDay))
	perMonth := new(big.Int).Mul(calc.RatePerEpoch, big.NewInt(EpochsPerMonth))

	result := &PreflightResult{
		EstimatedCost: EstimatedCost{
			PerEpoch: calc.RatePerEpoch,
			PerDay:   perDay,
			PerMonth: perMonth,
		},
	}

	if m.deps.Payments != nil {
		approval, err := m.deps.Payments.ServiceApproval(ctx, m.deps.Chain.Adapter.Addresses.Service)
		if err != nil {
			return nil, err
		}
		result.AllowanceCheck = checkAllowance(approval, calc)
	}

	return result, nil
}

func checkAllowance(approval *payments.ServiceApprovalInfo, calc *payments.AllowanceCalculation) AllowanceCheck {
	rateHeadroom := new(big.Int).Sub(approval.RateAllowance, approval.RateUsed)
	lockupHeadroom := new(big.Int).Sub(approval.LockupAllowance, approval.LockupUsed)

	if !approval.IsApproved {
		return AllowanceCheck{Sufficient: false, Message: "service is not approved as an operator for this account"}
	}
	if rateHeadroom.Cmp(calc.RatePerEpoch) < 0 {
		return AllowanceCheck{Sufficient: false, Message: "rate allowance headroom is insufficient for this upload"}
	}
	if lockupHeadroom.Cmp(calc.LockupAllowance) < 0 {
		return AllowanceCheck{Sufficient: false, Message: "lockup allowance headroom is insufficient for this upload"}
	}
	return AllowanceCheck{Sufficient: true, Message: "current service approval covers this upload"}
}

// averagePrice is the approved pool's mean advertised per-TiB price. It
// stands in for "whichever provider ends up selected" since preflight
// never binds to one.
func averagePrice(providers []*types.Provider) (*big.Int, error) {
	if len(providers) == 0 {
		return nil, errors.New(errors.KindNoProvidersAvailable, "manager.PreflightUpload", "no approved providers to price against")
	}
	sum := new(big.Int)
	priced := 0
	for _, p := range providers {
		if p.PDP == nil || p.PDP.StoragePricePerTiBPerDay == nil {
			continue
		}
		sum.Add(sum, p.PDP.StoragePricePerTiBPerDay)
		priced++
	}
	if priced == 0 {
		return nil, errors.New(errors.KindNoProvidersAvailable, "manager.PreflightUpload", "no approved providers advertise a price")
	}
	return new(big.Int).Div(sum, big.NewInt(int64(priced))), nil
}
