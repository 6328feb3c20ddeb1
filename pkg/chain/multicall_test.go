package chain

import (
	"context"
	stderrors "errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
)

var errBoom = stderrors.New("boom")

// fakeMulticallBackend implements bind.ContractBackend. Only CallContract is
// exercised by Aggregate; the rest satisfy the interface.
type fakeMulticallBackend struct {
	wantTo common.Address
	result []byte
	err    error
}

func (b *fakeMulticallBackend) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return nil, nil
}
func (b *fakeMulticallBackend) CallContract(_ context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	if call.To == nil || *call.To != b.wantTo {
		panic("unexpected call target")
	}
	return b.result, nil
}
func (b *fakeMulticallBackend) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return nil, nil
}
func (b *fakeMulticallBackend) PendingCodeAt(context.Context, common.Address) ([]byte, error) {
	return nil, nil
}
func (b *fakeMulticallBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return 0, nil
}
func (b *fakeMulticallBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(1), nil
}
func (b *fakeMulticallBackend) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return big.NewInt(1), nil
}
func (b *fakeMulticallBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 21000, nil
}
func (b *fakeMulticallBackend) SendTransaction(context.Context, *types.Transaction) error {
	return nil
}
func (b *fakeMulticallBackend) FilterLogs(context.Context, ethereum.FilterQuery) ([]types.Log, error) {
	return nil, nil
}
func (b *fakeMulticallBackend) SubscribeFilterLogs(context.Context, ethereum.FilterQuery, chan<- types.Log) (ethereum.Subscription, error) {
	return nil, nil
}

func mustEncodeAggregate3Result(t *testing.T, results []Result3) []byte {
	t.Helper()
	out := make([]struct {
		Success    bool
		ReturnData []byte
	}, len(results))
	for i, r := range results {
		out[i] = struct {
			Success    bool
			ReturnData []byte
		}{Success: r.Success, ReturnData: r.ReturnData}
	}
	packed, err := multicall3Parsed.Methods["aggregate3"].Outputs.Pack(out)
	require.NoError(t, err)
	return packed
}

func TestAggregate_EmptyCallsShortCircuits(t *testing.T) {
	m := NewMulticall(common.Address{}, &fakeMulticallBackend{})
	results, err := m.Aggregate(context.Background(), nil)
	require.NoError(t, err)
	require.Nil(t, results)
}

func TestAggregate_RoundTripsPositionalResults(t *testing.T) {
	addr := common.HexToAddress("0xcA11bde05977b3631167028862bE2a173976CA11")
	want := []Result3{
		{Success: true, ReturnData: []byte{0x01, 0x02}},
		{Success: false, ReturnData: []byte{0x03}},
	}
	backend := &fakeMulticallBackend{wantTo: addr, result: mustEncodeAggregate3Result(t, want)}
	m := NewMulticall(addr, backend)

	results, err := m.Aggregate(context.Background(), []Call3{
		{Target: common.HexToAddress("0x1"), AllowFailure: false, CallData: []byte{0xaa}},
		{Target: common.HexToAddress("0x2"), AllowFailure: true, CallData: []byte{0xbb}},
	})
	require.NoError(t, err)
	require.Equal(t, want, results)
}

func TestAggregate_BackendErrorPropagates(t *testing.T) {
	m := NewMulticall(common.Address{}, &fakeMulticallBackend{err: errBoom})
	_, err := m.Aggregate(context.Background(), []Call3{{Target: common.Address{}, CallData: []byte{0x01}}})
	require.Error(t, err)
}
