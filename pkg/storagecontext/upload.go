package storagecontext

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"io"

	"github.com/ipfs/go-cid"

	"github.com/FilOzone/synapse-sdk-go/pkg/errors"
)

// UploadResult is what a successful Upload resolves to: the confirmed piece
// id within the bound data set and the canonical piece CID the provider
// reported.
type UploadResult struct {
	PieceID  uint64
	PieceCID cid.Cid
}

// Upload runs the pipeline of section 4.6.2: validate size, stream the
// payload to the provider, wait for the piece to park, then queue it onto
// the add-pieces batcher and wait for on-chain confirmation. size < 0 marks
// a stream of unknown length, which skips the size-bound check.
func (c *Context) Upload(ctx context.Context, r io.Reader, size int64, metadata map[string]string) (*UploadResult, error) {
	return c.upload(ctx, r, size, metadata, nil)
}

// UploadWithPieceCID is Upload with the piece CID supplied up front instead
// of computed from the stream. The manager's multi-context upload uses
// this to hash a buffer once and hand the same CID to every context,
// rather than re-hashing it per context.
func (c *Context) UploadWithPieceCID(ctx context.Context, r io.Reader, size int64, metadata map[string]string, pieceCID cid.Cid) (*UploadResult, error) {
	return c.upload(ctx, r, size, metadata, &pieceCID)
}

func (c *Context) upload(ctx context.Context, r io.Reader, size int64, metadata map[string]string, precomputed *cid.Cid) (*UploadResult, error) {
	if size >= 0 {
		if size < MinUploadSize {
			return nil, errors.New(errors.KindTooSmall, "storagecontext.Upload", "payload smaller than the minimum upload size").
				WithField("size", size).WithField("min", MinUploadSize)
		}
		if size > MaxUploadSize {
			return nil, errors.New(errors.KindTooLarge, "storagecontext.Upload", "payload larger than the maximum upload size").
				WithField("size", size).WithField("max", MaxUploadSize)
		}
	}

	token := newUploadToken()
	c.markInflight(token, true)
	streaming := true
	defer func() {
		if streaming {
			c.markInflight(token, false)
		}
	}()

	pieceCID, uploadedSize, err := c.client.UploadPiece(ctx, r, size, precomputed)
	if err != nil {
		return nil, err
	}

	if err := c.awaitParked(ctx, pieceCID); err != nil {
		return nil, err
	}
	if c.cb.OnUploadComplete != nil {
		c.cb.OnUploadComplete(pieceCID.String())
	}

	// The piece has finished streaming and parked: it no longer belongs in
	// the "still uploading" set the batcher's coalesce-wait watches, even
	// though this call hasn't returned yet.
	streaming = false
	c.markInflight(token, false)

	pieceID, err := c.pending.enqueue(ctx, pendingPiece{CID: pieceCID, Size: uploadedSize, Metadata: metadata})
	if err != nil {
		return nil, err
	}
	return &UploadResult{PieceID: pieceID, PieceCID: pieceCID}, nil
}

// awaitParked polls findPiece until the provider reports the piece ready to
// serve or PieceParkingTimeout elapses.
func (c *Context) awaitParked(ctx context.Context, pieceCID cid.Cid) error {
	return pollUntil(ctx, piecePollInterval, piecePollTimeout,
		func(ctx context.Context) (bool, error) {
			return c.client.FindPiece(ctx, pieceCID)
		},
		func() error {
			return errors.New(errors.KindPieceParkingTimeout, "storagecontext.awaitParked", "piece did not park before timeout").
				WithField("pieceCid", pieceCID.String())
		})
}

func (c *Context) markInflight(token string, active bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if active {
		c.inflight[token] = true
	} else {
		delete(c.inflight, token)
	}
}

func (c *Context) inflightCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inflight)
}

// newUploadToken generates an opaque identifier for the in-flight upload
// set the batcher's coalesce-wait heuristic consults; its only requirement
// is uniqueness.
func newUploadToken() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
