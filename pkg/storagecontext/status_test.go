package storagecontext_test

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/FilOzone/synapse-sdk-go/pkg/chain"
	"github.com/FilOzone/synapse-sdk-go/pkg/statsclient"
	"github.com/FilOzone/synapse-sdk-go/pkg/storagecontext"
	"github.com/FilOzone/synapse-sdk-go/pkg/types"
)

const statusTestPieceCID = "bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi"

func TestPieceStatus_NotYetBoundToDataSet(t *testing.T) {
	srv := newFakePDPServer()
	defer srv.Close()
	svc := &fakeService{}
	ver := &fakeVerifier{listener: map[string]common.Address{}, pieces: map[string]*big.Int{}}

	sc := openContext(t, srv, newFakeBackend(), svc, ver, storagecontext.Options{}, storagecontext.Callbacks{})

	status, err := sc.PieceStatus(context.Background(), statusTestPieceCID)
	require.NoError(t, err)
	require.False(t, status.Exists)
}

func TestPieceStatus_InsideChallengeWindow(t *testing.T) {
	srv := newFakePDPServer()
	defer srv.Close()
	backend := newFakeBackend()
	svc := &fakeService{dataSets: map[string]*chain.DataSetInfo{
		"9": mkDataSet(9, 1, clientAddr, 1),
	}}
	ver := &fakeVerifier{listener: map[string]common.Address{"9": serviceAddr}, pieces: map[string]*big.Int{"9": big.NewInt(1)}}

	backend.block = 100
	srv.nextChallenge = 90 // window opened 10 epochs ago, closes at 90+20=110

	sc := openContext(t, srv, backend, svc, ver, storagecontext.Options{DataSetID: big.NewInt(9)}, storagecontext.Callbacks{})
	srv.uploaded = true

	status, err := sc.PieceStatus(context.Background(), statusTestPieceCID)
	require.NoError(t, err)
	require.True(t, status.Exists)
	require.Equal(t, int64(90), status.ChallengeWindowStart)
	require.Equal(t, int64(110), status.ProvingDeadline)
	require.Equal(t, int64(30), status.LastProven) // 90 - MaxProvingPeriod(60)
	require.True(t, status.InChallengeWindow)
	require.False(t, status.IsProofOverdue)
	require.Zero(t, status.HoursUntilChallengeWindow)
}

func TestPieceStatus_ProofOverdue(t *testing.T) {
	srv := newFakePDPServer()
	defer srv.Close()
	backend := newFakeBackend()
	svc := &fakeService{dataSets: map[string]*chain.DataSetInfo{
		"9": mkDataSet(9, 1, clientAddr, 1),
	}}
	ver := &fakeVerifier{listener: map[string]common.Address{"9": serviceAddr}, pieces: map[string]*big.Int{"9": big.NewInt(1)}}

	backend.block = 200
	srv.nextChallenge = 90 // deadline at 110, well in the past

	sc := openContext(t, srv, backend, svc, ver, storagecontext.Options{DataSetID: big.NewInt(9)}, storagecontext.Callbacks{})
	srv.uploaded = true

	status, err := sc.PieceStatus(context.Background(), statusTestPieceCID)
	require.NoError(t, err)
	require.True(t, status.IsProofOverdue)
	require.False(t, status.InChallengeWindow)
}

func TestPieceStatus_HoursUntilWindowOpens(t *testing.T) {
	srv := newFakePDPServer()
	defer srv.Close()
	backend := newFakeBackend()
	svc := &fakeService{dataSets: map[string]*chain.DataSetInfo{
		"9": mkDataSet(9, 1, clientAddr, 1),
	}}
	ver := &fakeVerifier{listener: map[string]common.Address{"9": serviceAddr}, pieces: map[string]*big.Int{"9": big.NewInt(1)}}

	backend.block = 0
	srv.nextChallenge = 120 // 120 epochs away, each 30s -> 1 hour

	sc := openContext(t, srv, backend, svc, ver, storagecontext.Options{DataSetID: big.NewInt(9)}, storagecontext.Callbacks{})
	srv.uploaded = true

	status, err := sc.PieceStatus(context.Background(), statusTestPieceCID)
	require.NoError(t, err)
	require.False(t, status.InChallengeWindow)
	require.InDelta(t, 1.0, status.HoursUntilChallengeWindow, 0.001)
}

func TestPieceStatus_AttachesEgressQuotaWhenWithCDN(t *testing.T) {
	srv := newFakePDPServer()
	defer srv.Close()
	backend := newFakeBackend()
	cdnDataSet := mkDataSet(9, 1, clientAddr, 1)
	cdnDataSet.CdnRailId = big.NewInt(1)
	svc := &fakeService{dataSets: map[string]*chain.DataSetInfo{
		"9": cdnDataSet,
	}}
	ver := &fakeVerifier{listener: map[string]common.Address{"9": serviceAddr}, pieces: map[string]*big.Int{"9": big.NewInt(1)}}
	backend.block = 100
	srv.nextChallenge = 90
	srv.uploaded = true

	statsSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"cdnEgressQuota":"7","cacheMissEgressQuota":"3"}`)
	}))
	defer statsSrv.Close()
	stats, err := statsclient.New(statsSrv.URL)
	require.NoError(t, err)

	p := &types.Provider{ID: big.NewInt(1), Address: providerAddr, Payee: providerAddr, IsActive: true, PDP: &types.PDPProduct{ServiceURL: srv.URL}}
	deps := storagecontext.Deps{
		Adapter:   &chain.Adapter{Backend: backend, Signer: stubSigner{addr: clientAddr}, Addresses: chain.ContractAddresses{Service: serviceAddr}},
		Service:   svc,
		Verifier:  ver,
		Providers: providerResolverWithOne(t, p),
		Stats:     stats,
	}
	sc, err := storagecontext.Open(context.Background(), deps, storagecontext.Options{ProviderID: big.NewInt(1), DataSetID: big.NewInt(9), WithCDN: true}, storagecontext.Callbacks{})
	require.NoError(t, err)

	status, err := sc.PieceStatus(context.Background(), statusTestPieceCID)
	require.NoError(t, err)
	require.Equal(t, "7", status.CDNEgressQuota.String())
	require.Equal(t, "3", status.CacheMissEgressQuota.String())
}

func TestPieceStatus_OmitsEgressQuotaWithoutCDN(t *testing.T) {
	srv := newFakePDPServer()
	defer srv.Close()
	backend := newFakeBackend()
	svc := &fakeService{dataSets: map[string]*chain.DataSetInfo{
		"9": mkDataSet(9, 1, clientAddr, 1),
	}}
	ver := &fakeVerifier{listener: map[string]common.Address{"9": serviceAddr}, pieces: map[string]*big.Int{"9": big.NewInt(1)}}
	backend.block = 100
	srv.nextChallenge = 90
	srv.uploaded = true

	sc := openContext(t, srv, backend, svc, ver, storagecontext.Options{DataSetID: big.NewInt(9)}, storagecontext.Callbacks{})

	status, err := sc.PieceStatus(context.Background(), statusTestPieceCID)
	require.NoError(t, err)
	require.Nil(t, status.CDNEgressQuota)
	require.Nil(t, status.CacheMissEgressQuota)
}
