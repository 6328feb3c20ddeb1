package payments_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/FilOzone/synapse-sdk-go/pkg/errors"
	"github.com/FilOzone/synapse-sdk-go/pkg/payments"
)

func TestCalculateAllowances(t *testing.T) {
	size, err := payments.ParseSize("1TiB")
	require.NoError(t, err)

	calc, err := payments.CalculateAllowances(size, payments.DefaultLockupDays, payments.DefaultMaxLockupPeriodDays, big.NewInt(2_000_000), 86_400)
	require.NoError(t, err)

	require.Equal(t, int64(payments.DefaultLockupDays*payments.EpochsPerDay), calc.LockupPeriodEpochs)
	require.Equal(t, int64(payments.DefaultMaxLockupPeriodDays*payments.EpochsPerDay), calc.MaxLockupPeriod.Int64())
	require.True(t, calc.RateAllowance.Sign() > 0)
	require.Equal(t, new(big.Int).Mul(calc.RatePerEpoch, big.NewInt(calc.LockupPeriodEpochs)), calc.LockupAllowance)
}

func TestCalculateAllowances_RoundsUp(t *testing.T) {
	// A tiny size should still earn at least one base unit per epoch
	// (ceiling division), never zero.
	calc, err := payments.CalculateAllowances(big.NewInt(1), 1, 1, big.NewInt(1), 1)
	require.NoError(t, err)
	require.Equal(t, int64(1), calc.RateAllowance.Int64())
}

func TestCalculateAllowances_RejectsZeroSize(t *testing.T) {
	_, err := payments.CalculateAllowances(big.NewInt(0), 1, 1, big.NewInt(1), 1)
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.KindInvalidAmount))
}

func TestParseSize_RejectsGarbage(t *testing.T) {
	_, err := payments.ParseSize("not-a-size")
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.KindInvalidAmount))
}
