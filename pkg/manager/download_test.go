package manager

import (
	"context"
	"io"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ipfs/go-cid"
	"github.com/stretchr/testify/require"

	"github.com/FilOzone/synapse-sdk-go/pkg/errors"
	"github.com/FilOzone/synapse-sdk-go/pkg/retriever"
)

const downloadTestPieceCID = "bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi"

type fakeFetcher struct {
	lastOpts retriever.Options
	called   bool
}

func (f *fakeFetcher) FetchPiece(ctx context.Context, pieceCID cid.Cid, opts retriever.Options) (io.ReadCloser, int64, error) {
	f.called = true
	f.lastOpts = opts
	return io.NopCloser(nil), 0, nil
}

func TestDownload_RejectsInvalidPieceCID(t *testing.T) {
	m := &Manager{deps: Deps{Fetcher: &fakeFetcher{}}}
	_, _, err := m.Download(context.Background(), "not-a-cid", DownloadOptions{})
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.KindInvalidPieceCID))
}

func TestDownload_ExplicitProviderSetsHint(t *testing.T) {
	f := &fakeFetcher{}
	m := &Manager{deps: Deps{Fetcher: f}}
	addr := common.HexToAddress("0xabc")
	_, _, err := m.Download(context.Background(), downloadTestPieceCID, DownloadOptions{ProviderAddress: &addr})
	require.NoError(t, err)
	require.True(t, f.called)
	require.Equal(t, addr.Hex(), f.lastOpts.ProviderAddressHint)
}

func TestDownload_EmptyDefaultSetLeavesHintBlank(t *testing.T) {
	f := &fakeFetcher{}
	m := &Manager{deps: Deps{Fetcher: f}}
	_, _, err := m.Download(context.Background(), downloadTestPieceCID, DownloadOptions{})
	require.NoError(t, err)
	require.True(t, f.called)
	require.Empty(t, f.lastOpts.ProviderAddressHint)
}

func TestDownload_WithCDNSkipsFastPath(t *testing.T) {
	f := &fakeFetcher{}
	m := &Manager{deps: Deps{Fetcher: f}}
	_, _, err := m.Download(context.Background(), downloadTestPieceCID, DownloadOptions{WithCDN: true})
	require.NoError(t, err)
	require.Empty(t, f.lastOpts.ProviderAddressHint)
}

func TestFastPathHint_EmptyDefaultSetReturnsEmpty(t *testing.T) {
	m := &Manager{}
	require.Equal(t, "", m.fastPathHint(context.Background(), downloadTestPieceCID))
}
