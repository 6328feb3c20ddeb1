package storagecontext

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ipfs/go-cid"

	"github.com/FilOzone/synapse-sdk-go/pkg/errors"
	"github.com/FilOzone/synapse-sdk-go/pkg/providerclient"
)

// pendingPiece is one upload waiting to land on chain: already parked on the
// provider, not yet part of a confirmed add-pieces transaction.
type pendingPiece struct {
	CID      cid.Cid
	Size     uint64
	Metadata map[string]string
}

type pendingResult struct {
	PieceID uint64
	Err     error
}

type pendingEntry struct {
	piece  pendingPiece
	result chan pendingResult
}

// batcher coalesces concurrent uploads against a single Context into shared
// add-pieces (or create-and-add-pieces) transactions. Only one batch is ever
// in flight; enqueue blocks its caller until that piece's entry resolves,
// whichever batch it ends up riding in.
type batcher struct {
	ctx *Context

	mu         sync.Mutex
	queue      []*pendingEntry
	processing bool
}

func newBatcher(c *Context) *batcher {
	return &batcher{ctx: c}
}

// enqueue adds a piece to the queue and blocks until the batch it lands in
// resolves. If no batch is currently running, this call starts one.
func (b *batcher) enqueue(ctx context.Context, p pendingPiece) (uint64, error) {
	entry := &pendingEntry{piece: p, result: make(chan pendingResult, 1)}

	b.mu.Lock()
	b.queue = append(b.queue, entry)
	start := !b.processing
	if start {
		b.processing = true
	}
	b.mu.Unlock()

	if start {
		go b.drain()
	}

	select {
	case res := <-entry.result:
		return res.PieceID, res.Err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// drain runs batches back to back until the queue is empty. Each batch runs
// against context.Background(): the work it starts (a submitted
// transaction, a provider confirmation poll) must run to completion
// regardless of which caller's context enqueued the piece that triggered it,
// since other callers' pieces may be riding along in the same batch.
func (b *batcher) drain() {
	for {
		b.processOne(context.Background())

		b.mu.Lock()
		if len(b.queue) == 0 {
			b.processing = false
			b.mu.Unlock()
			return
		}
		b.mu.Unlock()
	}
}

// processOne waits for more uploads to coalesce in, pops one batch's worth
// of entries, and drives it through submission and confirmation. A failure
// at any stage rejects every entry in this batch with the same error: the
// transaction either lands for all of them or it lands for none.
func (b *batcher) processOne(ctx context.Context) {
	b.waitForCoalesce()

	entries := b.pop(b.ctx.uploadBatchSize)
	if len(entries) == 0 {
		return
	}

	pieces := make([]providerclient.CreatePiece, len(entries))
	for i, e := range entries {
		pieces[i] = providerclient.CreatePiece{CID: e.piece.CID, Size: e.piece.Size, Metadata: e.piece.Metadata}
	}

	creatingNew := !b.ctx.hasDataSet()
	var (
		dataSetID *big.Int
		txHash    common.Hash
		err       error
	)
	if creatingNew {
		txHash, err = b.submitCreate(ctx, pieces)
	} else {
		dataSetID = b.ctx.DataSetID()
		txHash, err = b.submitAdd(ctx, dataSetID, pieces)
	}
	if err != nil {
		b.failAll(entries, err)
		return
	}
	if b.ctx.cb.OnPieceAdded != nil {
		b.ctx.cb.OnPieceAdded(txHash)
	}

	receipt, err := b.awaitPropagation(ctx, txHash)
	if err != nil {
		b.failAll(entries, err)
		return
	}

	if creatingNew {
		id, err := b.ctx.deps.Verifier.GetDataSetIdFromReceipt(receipt)
		if err != nil {
			b.failAll(entries, errors.Wrap(errors.KindDataSetCreationFailed, "storagecontext.batch", err))
			return
		}
		dataSetID = new(big.Int).SetUint64(id)
		info, err := b.ctx.deps.Service.GetDataSet(ctx, dataSetID)
		if err != nil {
			b.failAll(entries, errors.Wrap(errors.KindChainCallFailed, "storagecontext.batch", err))
			return
		}
		b.ctx.bindDataSet(dataSetID, info.ClientDataSetId)
	}

	ids, err := b.awaitServerConfirmation(ctx, dataSetID, txHash)
	if err != nil {
		b.failAll(entries, err)
		return
	}
	if len(ids) < len(entries) {
		b.failAll(entries, errors.New(errors.KindMissingConfirmedPieceID, "storagecontext.batch",
			"provider confirmed fewer pieces than were submitted").
			WithField("submitted", len(entries)).WithField("confirmed", len(ids)))
		return
	}

	for i, e := range entries {
		e.result <- pendingResult{PieceID: ids[i]}
	}
	if b.ctx.cb.OnPieceConfirmed != nil {
		b.ctx.cb.OnPieceConfirmed(ids)
	}
}

// waitForCoalesce lets concurrent uploads pile onto the same batch: while
// uploads are still streaming in and the queue hasn't filled a full batch,
// it gives them up to batchCoalesceWindow to land before popping.
func (b *batcher) waitForCoalesce() {
	if b.ctx.inflightCount() == 0 {
		return
	}
	deadline := time.Now().Add(batchCoalesceWindow)
	for time.Now().Before(deadline) {
		if b.ctx.inflightCount() == 0 {
			return
		}
		b.mu.Lock()
		qlen := len(b.queue)
		b.mu.Unlock()
		if qlen >= b.ctx.uploadBatchSize {
			return
		}
		time.Sleep(batchCoalescePoll)
	}
}

func (b *batcher) pop(n int) []*pendingEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n > len(b.queue) {
		n = len(b.queue)
	}
	entries := b.queue[:n]
	b.queue = b.queue[n:]
	return entries
}

func (b *batcher) failAll(entries []*pendingEntry, err error) {
	for _, e := range entries {
		e.result <- pendingResult{Err: err}
	}
}

// submitCreate asks the provider to create the data set and seed it with
// pieces in one request; the data set's ids are read back from chain once
// the creation receipt lands.
func (b *batcher) submitCreate(ctx context.Context, pieces []providerclient.CreatePiece) (common.Hash, error) {
	c := b.ctx
	creation, err := c.client.CreateDataSetWithPieces(ctx, c.payee(), c.deps.Adapter.Signer.Address(), c.metadata, pieces)
	if err != nil {
		return common.Hash{}, err
	}
	return creation.TxHash, nil
}

// submitAdd appends pieces to an already-created data set, reading the
// data set's next piece id fresh from chain so concurrent batches against
// the same context never collide on piece numbering.
func (b *batcher) submitAdd(ctx context.Context, dataSetID *big.Int, pieces []providerclient.CreatePiece) (common.Hash, error) {
	c := b.ctx
	info, err := c.deps.Service.GetDataSet(ctx, dataSetID)
	if err != nil {
		return common.Hash{}, errors.Wrap(errors.KindChainCallFailed, "storagecontext.batch.submitAdd", err)
	}
	nextPieceID, err := c.deps.Verifier.GetActivePieceCount(ctx, dataSetID)
	if err != nil {
		return common.Hash{}, errors.Wrap(errors.KindChainCallFailed, "storagecontext.batch.submitAdd", err)
	}
	return c.client.AddPieces(ctx, dataSetID, info.ClientDataSetId, nextPieceID.Uint64(), pieces)
}

// awaitPropagation polls for the transaction's receipt, failing with
// TxNotPropagated if it never lands within the propagation window and
// TxReverted if it lands but failed.
func (b *batcher) awaitPropagation(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error) {
	var receipt *ethtypes.Receipt
	err := pollUntil(ctx, txPropagationInterval, txPropagationTimeout,
		func(ctx context.Context) (bool, error) {
			r, err := b.ctx.deps.Adapter.Backend.TransactionReceipt(ctx, txHash)
			if err != nil {
				return false, nil
			}
			receipt = r
			return true, nil
		},
		func() error {
			return errors.New(errors.KindTxNotPropagated, "storagecontext.batch.awaitPropagation",
				"transaction did not propagate before timeout").WithField("txHash", txHash.Hex())
		})
	if err != nil {
		return nil, err
	}
	if receipt.Status != 1 {
		return nil, errors.New(errors.KindTxReverted, "storagecontext.batch.awaitPropagation", "transaction reverted").
			WithField("txHash", txHash.Hex())
	}
	return receipt, nil
}

// awaitServerConfirmation polls the provider's view of the add-pieces
// transaction until it reports a definitive outcome.
func (b *batcher) awaitServerConfirmation(ctx context.Context, dataSetID *big.Int, txHash common.Hash) ([]uint64, error) {
	var ids []uint64
	err := pollUntil(ctx, additionPollInterval, additionPollTimeout,
		func(ctx context.Context) (bool, error) {
			status, err := b.ctx.client.GetPieceAdditionStatus(ctx, dataSetID, txHash)
			if err != nil {
				return false, err
			}
			if status == nil || status.TxStatus == "pending" || status.AddMessageOK == nil {
				return false, nil
			}
			if !*status.AddMessageOK {
				return false, errors.New(errors.KindServerRejectedPieceAddition, "storagecontext.batch.awaitServerConfirmation",
					"provider rejected the add-pieces message").WithField("txHash", txHash.Hex())
			}
			ids = status.ConfirmedPieceIDs
			return true, nil
		},
		func() error {
			return errors.New(errors.KindServerTimeout, "storagecontext.batch.awaitServerConfirmation",
				"provider did not confirm piece addition before timeout").WithField("txHash", txHash.Hex())
		})
	if err != nil {
		return nil, err
	}
	return ids, nil
}
