package types

import (
	"hash"
	"io"

	commcid "github.com/filecoin-project/go-fil-commcid"
	commp "github.com/filecoin-project/go-fil-commp-hashhash"
	"github.com/ipfs/go-cid"
)

// PieceHasher computes a piece CID incrementally as bytes are written,
// rather than requiring the whole payload to be buffered first. The upload
// path uses it when a caller doesn't supply a precomputed CID; the
// retrieval path uses the same interface to validate a downloaded piece's
// bytes against the CID it was requested by.
type PieceHasher interface {
	io.Writer
	// PieceCID finalizes the hash and returns the piece CID along with the
	// padded piece size the underlying commitment covers.
	PieceCID() (cid.Cid, uint64, error)
}

// NewPieceHasher returns the default PieceHasher, backed by the streaming
// Fr32/SHA-254 commitment calculator used throughout the on-chain PDP
// machinery this client talks to.
func NewPieceHasher() PieceHasher {
	return &commpHasher{calc: &commp.Calc{}}
}

type commpHasher struct {
	calc    *commp.Calc
	written uint64
}

var _ hash.Hash = (*commp.Calc)(nil)

func (h *commpHasher) Write(p []byte) (int, error) {
	n, err := h.calc.Write(p)
	h.written += uint64(n)
	return n, err
}

// PieceCID finalizes the commitment and maps it to a piece CID keyed by the
// raw payload size written, matching how the rest of the PDP machinery
// derives the same CID from (digest, payloadSize) rather than the padded
// tree size the calculator also reports.
func (h *commpHasher) PieceCID() (cid.Cid, uint64, error) {
	digest, paddedSize, err := h.calc.Digest()
	if err != nil {
		return cid.Undef, 0, err
	}
	pieceCID, err := commcid.DataCommitmentToPieceCidv2(digest, h.written)
	if err != nil {
		return cid.Undef, 0, err
	}
	return pieceCID, paddedSize, nil
}
