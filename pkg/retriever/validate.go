package retriever

import (
	"io"

	"github.com/ipfs/go-cid"

	"github.com/FilOzone/synapse-sdk-go/pkg/errors"
	"github.com/FilOzone/synapse-sdk-go/pkg/types"
)

// validatingReader recomputes the piece CID as bytes are read and compares
// it to the requested CID once the underlying reader is exhausted. Bytes
// are handed to the caller as they stream; only the final comparison can
// fail, at which point the caller's last Read returns DigestMismatch
// instead of io.EOF so unvalidated bytes are never silently accepted as
// complete.
type validatingReader struct {
	inner    io.ReadCloser
	hasher   types.PieceHasher
	expected cid.Cid
	done     bool
}

// newValidatingReader wraps inner so the full stream is checked against
// expected by the time io.EOF is observed.
func newValidatingReader(inner io.ReadCloser, expected cid.Cid) *validatingReader {
	return &validatingReader{inner: inner, hasher: types.NewPieceHasher(), expected: expected}
}

func (v *validatingReader) Read(p []byte) (int, error) {
	n, err := v.inner.Read(p)
	if n > 0 {
		if _, werr := v.hasher.Write(p[:n]); werr != nil {
			return n, errors.Wrap(errors.KindDigestMismatch, "retriever.validate", werr)
		}
	}
	if err == io.EOF {
		if verr := v.checkDigest(); verr != nil {
			return n, verr
		}
	}
	return n, err
}

func (v *validatingReader) checkDigest() error {
	if v.done {
		return nil
	}
	v.done = true
	computed, _, err := v.hasher.PieceCID()
	if err != nil {
		return errors.Wrap(errors.KindDigestMismatch, "retriever.validate", err)
	}
	if !computed.Equals(v.expected) {
		return errors.New(errors.KindDigestMismatch, "retriever.validate", "piece digest mismatch").
			WithField("expected", v.expected.String()).
			WithField("got", computed.String())
	}
	return nil
}

func (v *validatingReader) Close() error {
	return v.inner.Close()
}
