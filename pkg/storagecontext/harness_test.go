package storagecontext_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/FilOzone/synapse-sdk-go/pkg/chain"
)

// fakeBackend implements chain.ReceiptWaiter for tests: a fixed block
// number plus a map of canned receipts keyed by tx hash. A hash with no
// canned receipt yet reports "not found," matching an RPC node's behavior
// for a transaction that hasn't propagated.
type fakeBackend struct {
	chain.ReceiptWaiter
	mu       sync.Mutex
	block    uint64
	receipts map[common.Hash]*ethtypes.Receipt
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{receipts: map[common.Hash]*ethtypes.Receipt{}}
}

func (b *fakeBackend) BlockNumber(ctx context.Context) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.block, nil
}

func (b *fakeBackend) TransactionReceipt(ctx context.Context, hash common.Hash) (*ethtypes.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.receipts[hash]
	if !ok {
		return nil, errNotFound
	}
	return r, nil
}

// setReceipt makes TransactionReceipt(hash) succeed from the next poll on.
func (b *fakeBackend) setReceipt(hash common.Hash, status uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.receipts[hash] = &ethtypes.Receipt{Status: status}
}

type sentinelErr string

func (e sentinelErr) Error() string { return string(e) }

const errNotFound = sentinelErr("not found")

// fakePDPServer serves the subset of the provider HTTP API the storage
// context package drives: ping, upload, find, data-set creation, add-pieces,
// and piece-addition status. Behavior is configured per test via its fields.
type fakePDPServer struct {
	*httptest.Server

	mu             sync.Mutex
	uploaded       bool
	createTxHash   string
	createStatusURL string
	addTxHash      string
	additionStatus func() (status string, ok *bool, ids []uint64)
	nextChallenge  int64
	creationStatus func() (mined, success, live, confirmed bool, dataSetID *uint64)
}

func newFakePDPServer() *fakePDPServer {
	s := &fakePDPServer{}
	mux := http.NewServeMux()

	mux.HandleFunc("/pdp/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("/pdp/pieces/upload", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.uploaded = true
		s.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/pdp/data-sets/created/status", func(w http.ResponseWriter, r *http.Request) {
		mined, success, live, confirmed, dataSetID := s.creationStatus()
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"transactionMined":   mined,
			"transactionSuccess": success,
			"dataSetLive":        live,
			"serverConfirmed":    confirmed,
			"dataSetId":          dataSetID,
		})
	})

	mux.HandleFunc("/pdp/data-sets", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"txHash": s.createTxHash, "statusUrl": s.createStatusURL})
	})

	mux.HandleFunc("/pdp/pieces/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/find") {
			pieceCID := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/pdp/pieces/"), "/find")
			s.mu.Lock()
			uploaded := s.uploaded
			s.mu.Unlock()
			if !uploaded {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"pieceCid": pieceCID})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	mux.HandleFunc("/pdp/data-sets/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/pdp/data-sets/")
		parts := strings.Split(rest, "/")

		switch {
		case len(parts) == 1 && r.Method == http.MethodGet:
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"pieces":             []map[string]interface{}{},
				"nextChallengeEpoch": s.nextChallenge,
			})
		case len(parts) == 2 && parts[1] == "pieces" && r.Method == http.MethodPost:
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(map[string]string{"txHash": s.addTxHash})
		case len(parts) == 4 && parts[1] == "pieces" && parts[2] == "added":
			status, ok, ids := s.additionStatus()
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"txStatus":          status,
				"addMessageOk":      ok,
				"confirmedPieceIds": ids,
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	s.Server = httptest.NewServer(mux)
	return s
}

func boolPtr(b bool) *bool      { return &b }
func u64Ptr(n uint64) *uint64 { return &n }
