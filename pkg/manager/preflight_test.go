package manager

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/FilOzone/synapse-sdk-go/pkg/payments"
	"github.com/FilOzone/synapse-sdk-go/pkg/types"
)

func mkProvider(addr string, priceTiBPerMonth int64) *types.Provider {
	return &types.Provider{
		Address: common.HexToAddress(addr),
		PDP:     &types.PDPProduct{StoragePricePerTiBPerDay: big.NewInt(priceTiBPerMonth)},
	}
}

func TestAveragePrice_MeansPricedProvidersOnly(t *testing.T) {
	providers := []*types.Provider{
		mkProvider("0x1", 100),
		mkProvider("0x2", 300),
		{Address: common.HexToAddress("0x3")}, // no PDP product, ignored
	}
	price, err := averagePrice(providers)
	require.NoError(t, err)
	require.Equal(t, 0, price.Cmp(big.NewInt(200)))
}

func TestAveragePrice_NoneAdvertisedFails(t *testing.T) {
	providers := []*types.Provider{{Address: common.HexToAddress("0x1")}}
	_, err := averagePrice(providers)
	require.Error(t, err)
}

func TestAveragePrice_EmptyPoolFails(t *testing.T) {
	_, err := averagePrice(nil)
	require.Error(t, err)
}

func TestCheckAllowance_NotApproved(t *testing.T) {
	approval := &payments.ServiceApprovalInfo{IsApproved: false}
	calc := &payments.AllowanceCalculation{RatePerEpoch: big.NewInt(1), LockupAllowance: big.NewInt(1)}
	got := checkAllowance(approval, calc)
	require.False(t, got.Sufficient)
}

func TestCheckAllowance_RateHeadroomInsufficient(t *testing.T) {
	approval := &payments.ServiceApprovalInfo{
		IsApproved:      true,
		RateAllowance:   big.NewInt(10),
		RateUsed:        big.NewInt(9),
		LockupAllowance: big.NewInt(1000),
		LockupUsed:      big.NewInt(0),
	}
	calc := &payments.AllowanceCalculation{RatePerEpoch: big.NewInt(5), LockupAllowance: big.NewInt(10)}
	got := checkAllowance(approval, calc)
	require.False(t, got.Sufficient)
}

func TestCheckAllowance_LockupHeadroomInsufficient(t *testing.T) {
	approval := &payments.ServiceApprovalInfo{
		IsApproved:      true,
		RateAllowance:   big.NewInt(100),
		RateUsed:        big.NewInt(0),
		LockupAllowance: big.NewInt(100),
		LockupUsed:      big.NewInt(95),
	}
	calc := &payments.AllowanceCalculation{RatePerEpoch: big.NewInt(5), LockupAllowance: big.NewInt(10)}
	got := checkAllowance(approval, calc)
	require.False(t, got.Sufficient)
}

func TestCheckAllowance_Sufficient(t *testing.T) {
	approval := &payments.ServiceApprovalInfo{
		IsApproved:      true,
		RateAllowance:   big.NewInt(100),
		RateUsed:        big.NewInt(0),
		LockupAllowance: big.NewInt(1000),
		LockupUsed:      big.NewInt(0),
	}
	calc := &payments.AllowanceCalculation{RatePerEpoch: big.NewInt(5), LockupAllowance: big.NewInt(10)}
	got := checkAllowance(approval, calc)
	require.True(t, got.Sufficient)
}
