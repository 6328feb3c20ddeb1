package storagecontext_test

import (
	"context"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/FilOzone/synapse-sdk-go/pkg/chain"
	"github.com/FilOzone/synapse-sdk-go/pkg/errors"
	"github.com/FilOzone/synapse-sdk-go/pkg/storagecontext"
)

func init() {
	// Every test in this file drives the batcher's poll loops against an
	// in-process fake; there's no reason to wait out production-sized
	// windows (a 60s server-confirmation timeout in particular).
	storagecontext.ShrinkTimeouts(5*time.Millisecond, 80*time.Millisecond)
}

func TestUpload_AddsToExistingDataSet(t *testing.T) {
	srv := newFakePDPServer()
	defer srv.Close()
	backend := newFakeBackend()
	svc := &fakeService{dataSets: map[string]*chain.DataSetInfo{
		"9": mkDataSet(9, 1, clientAddr, 3),
	}}
	ver := &fakeVerifier{listener: map[string]common.Address{"9": serviceAddr}, pieces: map[string]*big.Int{"9": big.NewInt(3)}}

	addTxHash := common.HexToHash("0x3")
	srv.addTxHash = addTxHash.Hex()
	srv.additionStatus = func() (string, *bool, []uint64) {
		return "confirmed", boolPtr(true), []uint64{3}
	}

	sc := openContext(t, srv, backend, svc, ver, storagecontext.Options{DataSetID: big.NewInt(9)}, storagecontext.Callbacks{})
	backend.setReceipt(addTxHash, 1)

	payload := strings.NewReader(strings.Repeat("a second piece landing on an existing data set ", 3))
	result, err := sc.Upload(context.Background(), payload, int64(payload.Len()), nil)
	require.NoError(t, err)
	require.Equal(t, uint64(3), result.PieceID)
}

func TestUpload_ConcurrentUploadsShareOneBatch(t *testing.T) {
	srv := newFakePDPServer()
	defer srv.Close()
	backend := newFakeBackend()
	svc := &fakeService{dataSets: map[string]*chain.DataSetInfo{
		"9": mkDataSet(9, 1, clientAddr, 0),
	}}
	ver := &fakeVerifier{listener: map[string]common.Address{"9": serviceAddr}, pieces: map[string]*big.Int{"9": big.NewInt(0)}}

	addTxHash := common.HexToHash("0x4")
	srv.addTxHash = addTxHash.Hex()
	srv.additionStatus = func() (string, *bool, []uint64) {
		return "confirmed", boolPtr(true), []uint64{0, 1}
	}
	backend.setReceipt(addTxHash, 1)

	sc := openContext(t, srv, backend, svc, ver, storagecontext.Options{DataSetID: big.NewInt(9)}, storagecontext.Callbacks{})

	var wg sync.WaitGroup
	results := make([]uint64, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			body := strings.Repeat("piece body ", 12)
			res, err := sc.Upload(context.Background(), strings.NewReader(body), int64(len(body)), nil)
			errs[i] = err
			if res != nil {
				results[i] = res.PieceID
			}
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
}

func TestUpload_RejectsAllEntriesOnServerTimeout(t *testing.T) {
	srv := newFakePDPServer()
	defer srv.Close()
	backend := newFakeBackend()
	svc := &fakeService{dataSets: map[string]*chain.DataSetInfo{
		"9": mkDataSet(9, 1, clientAddr, 0),
	}}
	ver := &fakeVerifier{listener: map[string]common.Address{"9": serviceAddr}, pieces: map[string]*big.Int{"9": big.NewInt(0)}}

	addTxHash := common.HexToHash("0x5")
	srv.addTxHash = addTxHash.Hex()
	srv.additionStatus = func() (string, *bool, []uint64) {
		return "pending", nil, nil // never confirms
	}
	backend.setReceipt(addTxHash, 1)

	sc := openContext(t, srv, backend, svc, ver, storagecontext.Options{DataSetID: big.NewInt(9)}, storagecontext.Callbacks{})

	payload := strings.NewReader(strings.Repeat("orphaned piece ", 9))
	_, err := sc.Upload(context.Background(), payload, int64(payload.Len()), nil)
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.KindServerTimeout))
}
