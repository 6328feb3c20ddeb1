package storagecontext

import (
	"github.com/ipfs/go-cid"

	"github.com/FilOzone/synapse-sdk-go/pkg/errors"
)

// decodeCID parses a caller-supplied piece CID string, turning a parse
// failure into the typed error every component in this module raises for a
// malformed content address.
func decodeCID(s string) (cid.Cid, error) {
	c, err := cid.Decode(s)
	if err != nil {
		return cid.Undef, errors.Wrap(errors.KindInvalidPieceCID, "storagecontext.decodeCID", err)
	}
	return c, nil
}
