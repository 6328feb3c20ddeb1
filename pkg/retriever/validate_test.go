package retriever

import (
	"io"
	"strings"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/stretchr/testify/require"

	"github.com/FilOzone/synapse-sdk-go/pkg/errors"
	"github.com/FilOzone/synapse-sdk-go/pkg/types"
)

func pieceCIDOf(t *testing.T, data string) cid.Cid {
	t.Helper()
	hasher := types.NewPieceHasher()
	_, err := hasher.Write([]byte(data))
	require.NoError(t, err)
	c, _, err := hasher.PieceCID()
	require.NoError(t, err)
	return c
}

func TestValidatingReader_AcceptsMatchingDigest(t *testing.T) {
	data := strings.Repeat("the quick brown fox jumps over the lazy dog ", 4)
	expected := pieceCIDOf(t, data)

	r := newValidatingReader(io.NopCloser(strings.NewReader(data)), expected)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, data, string(got))
}

func TestValidatingReader_RejectsMismatch(t *testing.T) {
	data := strings.Repeat("the quick brown fox jumps over the lazy dog ", 4)
	wrongExpected := pieceCIDOf(t, strings.Repeat("something else entirely ", 8))

	r := newValidatingReader(io.NopCloser(strings.NewReader(data)), wrongExpected)
	_, err := io.ReadAll(r)
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.KindDigestMismatch))
}
