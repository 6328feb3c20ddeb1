package payments

import (
	"math/big"

	"github.com/dustin/go-humanize"

	"github.com/FilOzone/synapse-sdk-go/pkg/errors"
)

// Size and epoch constants shared by allowance sizing helpers.
const (
	TiBInBytes = 1_099_511_627_776
	EpochsPerDay = 2_880

	DefaultLockupDays          = 10
	DefaultMaxLockupPeriodDays = 30
)

// AllowanceCalculation is the sizing breakdown a caller can present before
// calling approveService, so they see the rate/lockup allowance a target
// storage size and duration imply.
type AllowanceCalculation struct {
	SizeInBytes         *big.Int
	LockupDays          int
	MaxLockupPeriodDays int

	RateAllowance   *big.Int
	LockupAllowance *big.Int
	MaxLockupPeriod *big.Int

	LockupPeriodEpochs int64
	RatePerEpoch       *big.Int
}

// ParseSize parses a human-readable size ("1TiB", "500GiB") into bytes.
func ParseSize(sizeStr string) (*big.Int, error) {
	bytes, err := humanize.ParseBytes(sizeStr)
	if err != nil {
		return nil, errors.New(errors.KindInvalidAmount, "payments.ParseSize", "invalid size format, expected e.g. 1TiB or 500GiB").WithField("cause", err.Error())
	}
	return new(big.Int).SetUint64(bytes), nil
}

// CalculateAllowances derives the rate and lockup allowances a given
// storage size and lockup duration require at a given price, using
// ceiling division so small datasets still get at least one base unit of
// allowance per epoch.
func CalculateAllowances(sizeInBytes *big.Int, lockupDays, maxLockupPeriodDays int, pricePerTiBPerMonth *big.Int, epochsPerMonth uint64) (*AllowanceCalculation, error) {
	const op = "payments.CalculateAllowances"
	if sizeInBytes == nil || sizeInBytes.Sign() <= 0 {
		return nil, errors.New(errors.KindInvalidAmount, op, "size must be greater than 0")
	}
	if lockupDays <= 0 || maxLockupPeriodDays <= 0 {
		return nil, errors.New(errors.KindInvalidAmount, op, "lockup days and max lockup period days must be greater than 0")
	}
	if pricePerTiBPerMonth == nil || pricePerTiBPerMonth.Sign() <= 0 {
		return nil, errors.New(errors.KindInvalidAmount, op, "price per TiB per month must be greater than 0")
	}
	if epochsPerMonth == 0 {
		return nil, errors.New(errors.KindInvalidAmount, op, "epochs per month must be greater than 0")
	}

	numerator := new(big.Int).Mul(sizeInBytes, pricePerTiBPerMonth)
	denominator := new(big.Int).Mul(big.NewInt(TiBInBytes), big.NewInt(int64(epochsPerMonth)))

	ratePerEpoch, remainder := new(big.Int), new(big.Int)
	ratePerEpoch.DivMod(numerator, denominator, remainder)
	if remainder.Sign() > 0 {
		ratePerEpoch.Add(ratePerEpoch, big.NewInt(1))
	}

	lockupPeriodEpochs := int64(lockupDays) * EpochsPerDay
	lockupAllowance := new(big.Int).Mul(ratePerEpoch, big.NewInt(lockupPeriodEpochs))
	maxLockupPeriodEpochs := int64(maxLockupPeriodDays) * EpochsPerDay

	return &AllowanceCalculation{
		SizeInBytes:         new(big.Int).Set(sizeInBytes),
		LockupDays:          lockupDays,
		MaxLockupPeriodDays: maxLockupPeriodDays,
		RateAllowance:       ratePerEpoch,
		LockupAllowance:     lockupAllowance,
		MaxLockupPeriod:     big.NewInt(maxLockupPeriodEpochs),
		LockupPeriodEpochs:  lockupPeriodEpochs,
		RatePerEpoch:        new(big.Int).Set(ratePerEpoch),
	}, nil
}

// FormatSize renders a byte count in IEC units (KiB, MiB, GiB, TiB).
func FormatSize(bytes *big.Int) string {
	if bytes == nil || bytes.Sign() == 0 {
		return "0 B"
	}
	if !bytes.IsUint64() {
		return bytes.String() + " bytes"
	}
	return humanize.IBytes(bytes.Uint64())
}
