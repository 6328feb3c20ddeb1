package storagecontext_test

import (
	"context"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/FilOzone/synapse-sdk-go/pkg/chain"
	"github.com/FilOzone/synapse-sdk-go/pkg/errors"
	"github.com/FilOzone/synapse-sdk-go/pkg/storagecontext"
	"github.com/FilOzone/synapse-sdk-go/pkg/types"
)

func openContext(t *testing.T, srv *fakePDPServer, backend *fakeBackend, svc *fakeService, ver *fakeVerifier, opts storagecontext.Options, cb storagecontext.Callbacks) *storagecontext.Context {
	t.Helper()
	p := &types.Provider{ID: big.NewInt(1), Address: providerAddr, Payee: providerAddr, IsActive: true, PDP: &types.PDPProduct{ServiceURL: srv.URL}}
	deps := storagecontext.Deps{
		Adapter:   &chain.Adapter{Backend: backend, Signer: stubSigner{addr: clientAddr}, Addresses: chain.ContractAddresses{Service: serviceAddr}},
		Service:   svc,
		Verifier:  ver,
		Providers: providerResolverWithOne(t, p),
	}
	opts.ProviderID = big.NewInt(1)
	sc, err := storagecontext.Open(context.Background(), deps, opts, cb)
	require.NoError(t, err)
	return sc
}

func TestUpload_RejectsOutOfBoundsSize(t *testing.T) {
	srv := newFakePDPServer()
	defer srv.Close()
	sc := openContext(t, srv, newFakeBackend(), &fakeService{}, &fakeVerifier{listener: map[string]common.Address{}, pieces: map[string]*big.Int{}}, storagecontext.Options{}, storagecontext.Callbacks{})

	_, err := sc.Upload(context.Background(), strings.NewReader("x"), 1, nil)
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.KindTooSmall))

	_, err = sc.Upload(context.Background(), strings.NewReader(""), storagecontext.MaxUploadSize+1, nil)
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.KindTooLarge))
}

func TestUpload_CreatesDataSetAndConfirmsPiece(t *testing.T) {
	srv := newFakePDPServer()
	defer srv.Close()
	backend := newFakeBackend()
	svc := &fakeService{dataSets: map[string]*chain.DataSetInfo{
		"42": mkDataSet(42, 1, clientAddr, 0),
	}}
	ver := &fakeVerifier{listener: map[string]common.Address{}, pieces: map[string]*big.Int{}, createdDataSetID: 42}

	createTxHash := common.HexToHash("0x1")
	srv.createTxHash = createTxHash.Hex()
	srv.additionStatus = func() (string, *bool, []uint64) {
		return "confirmed", boolPtr(true), []uint64{7}
	}

	var confirmedIDs []uint64
	var addedTx common.Hash
	cb := storagecontext.Callbacks{
		OnPieceAdded:     func(tx common.Hash) { addedTx = tx },
		OnPieceConfirmed: func(ids []uint64) { confirmedIDs = ids },
	}
	sc := openContext(t, srv, backend, svc, ver, storagecontext.Options{ForceCreate: true}, cb)

	backend.setReceipt(createTxHash, 1)

	payload := strings.NewReader(strings.Repeat("hello warm storage piece contents ", 4))
	result, err := sc.Upload(context.Background(), payload, int64(payload.Len()), nil)
	require.NoError(t, err)
	require.Equal(t, uint64(7), result.PieceID)
	require.Equal(t, createTxHash, addedTx)
	require.Equal(t, []uint64{7}, confirmedIDs)
	require.Equal(t, 0, sc.DataSetID().Cmp(big.NewInt(42)))
}

func TestUpload_RejectsOnServerAdditionFailure(t *testing.T) {
	srv := newFakePDPServer()
	defer srv.Close()
	backend := newFakeBackend()
	svc := &fakeService{dataSets: map[string]*chain.DataSetInfo{
		"42": mkDataSet(42, 1, clientAddr, 0),
	}}
	ver := &fakeVerifier{listener: map[string]common.Address{}, pieces: map[string]*big.Int{}, createdDataSetID: 42}

	createTxHash := common.HexToHash("0x2")
	srv.createTxHash = createTxHash.Hex()
	srv.additionStatus = func() (string, *bool, []uint64) {
		return "confirmed", boolPtr(false), nil
	}

	sc := openContext(t, srv, backend, svc, ver, storagecontext.Options{ForceCreate: true}, storagecontext.Callbacks{})
	backend.setReceipt(createTxHash, 1)

	payload := strings.NewReader(strings.Repeat("rejected piece contents ", 6))
	_, err := sc.Upload(context.Background(), payload, int64(payload.Len()), nil)
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.KindServerRejectedPieceAddition))
}
