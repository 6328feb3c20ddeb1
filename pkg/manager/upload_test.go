package manager

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/FilOzone/synapse-sdk-go/pkg/errors"
	"github.com/FilOzone/synapse-sdk-go/pkg/storagecontext"
)

func TestUploadOptions_HasBindingOptions(t *testing.T) {
	require.False(t, UploadOptions{}.hasBindingOptions())
	require.True(t, UploadOptions{WithCDN: true}.hasBindingOptions())
	require.True(t, UploadOptions{ForceCreate: true}.hasBindingOptions())
	require.True(t, UploadOptions{UploadBatchSize: 4}.hasBindingOptions())
	require.True(t, UploadOptions{DataSetID: big.NewInt(1)}.hasBindingOptions())
	addr := common.HexToAddress("0x1")
	require.True(t, UploadOptions{ProviderAddress: &addr}.hasBindingOptions())
	require.True(t, UploadOptions{ProviderID: big.NewInt(1)}.hasBindingOptions())
}

func TestUpload_ExplicitContextWithBindingOptionsRejected(t *testing.T) {
	m := &Manager{}
	_, err := m.Upload(context.Background(), nil, 0, UploadOptions{
		Context: &storagecontext.Context{},
		WithCDN: true,
	})
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.KindOptionsConflict))
}

func TestUpload_ExplicitContextsWithBindingOptionsRejected(t *testing.T) {
	m := &Manager{}
	_, err := m.Upload(context.Background(), nil, 0, UploadOptions{
		Contexts:  []*storagecontext.Context{{}, {}},
		DataSetID: big.NewInt(1),
	})
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.KindOptionsConflict))
}

func TestUploadTargets_ExplicitContextPassthrough(t *testing.T) {
	m := &Manager{}
	sc := &storagecontext.Context{}
	targets, err := m.uploadTargets(context.Background(), UploadOptions{Context: sc})
	require.NoError(t, err)
	require.Equal(t, []*storagecontext.Context{sc}, targets)
}

func TestUploadTargets_ExplicitContextsPassthrough(t *testing.T) {
	m := &Manager{}
	scs := []*storagecontext.Context{{}, {}}
	targets, err := m.uploadTargets(context.Background(), UploadOptions{Contexts: scs})
	require.NoError(t, err)
	require.Equal(t, scs, targets)
}

func TestRandIndex_StaysInBounds(t *testing.T) {
	for i := 0; i < 200; i++ {
		idx := randIndex(3)
		require.GreaterOrEqual(t, idx, 0)
		require.Less(t, idx, 3)
	}
}

func TestRandIndex_SingleChoice(t *testing.T) {
	require.Equal(t, 0, randIndex(1))
}
