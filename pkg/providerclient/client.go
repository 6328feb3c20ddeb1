// Package providerclient is the per-provider PDP HTTP client (component
// C2): ping, streamed piece upload, piece lookup, data-set creation, piece
// batching, and status polling against a single provider's base URL. Every
// response is decoded into a typed struct and strictly validated; a
// response missing a required field or carrying an unparsable piece CID
// never reaches the caller — it becomes a MalformedServerResponse.
package providerclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ipfs/go-cid"
	logging "github.com/ipfs/go-log/v2"

	"github.com/FilOzone/synapse-sdk-go/lib"
	"github.com/FilOzone/synapse-sdk-go/pkg/errors"
	"github.com/FilOzone/synapse-sdk-go/pkg/types"
)

var log = logging.Logger("providerclient")

const (
	pdpRoutePath = "/pdp"
	pingPath     = "/ping"
	piecesPath   = "/pieces"
	dataSetsPath = "/data-sets"
)

// Client is bound to a single provider's base URL. It carries no chain
// state; callers supply data-set and rail ids obtained from the chain
// adapter or provider resolver.
type Client struct {
	endpoint *url.URL
	http     *http.Client
}

// Option configures a Client at construction.
type Option func(*Client)

// WithHTTPClient overrides the default http.Client, e.g. to set a timeout
// or a custom transport.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) { client.http = c }
}

// New binds a Client to a provider's base URL.
func New(baseURL string, opts ...Option) (*Client, error) {
	endpoint, err := lib.ParseAndNormalizeURL(baseURL)
	if err != nil {
		return nil, errors.Wrap(errors.KindInvalidAddress, "providerclient.New", err)
	}
	c := &Client{endpoint: endpoint, http: http.DefaultClient}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Ping reports whether the provider is reachable. Any non-2xx response is a
// failure; the endpoint carries no further status on success.
func (c *Client) Ping(ctx context.Context) error {
	route := c.endpoint.JoinPath(pdpRoutePath, pingPath).String()
	res, err := c.sendRequest(ctx, http.MethodGet, route, nil)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	return c.verifySuccess(res)
}

// pieceCIDHeader carries a caller-precomputed piece CID on upload, so the
// provider can skip recomputing it. Optional: when absent the client
// computes and reports the CID itself as the request body streams through.
const pieceCIDHeader = "X-Piece-CID"

// UploadPiece posts data to the provider and returns the canonical piece
// CID and raw byte size. When pieceCID is supplied it streams straight
// through and is passed as a header. When it is nil the client computes
// the digest as the body streams out via io.TeeReader, so no buffering of
// the payload is required either way.
func (c *Client) UploadPiece(ctx context.Context, r io.Reader, size int64, pieceCID *cid.Cid) (cid.Cid, uint64, error) {
	route := c.endpoint.JoinPath(pdpRoutePath, piecesPath, "upload").String()

	var (
		body     io.Reader
		hasher   types.PieceHasher
		resolved cid.Cid
	)
	if pieceCID != nil {
		resolved = *pieceCID
		body = r
	} else {
		hasher = types.NewPieceHasher()
		body = io.TeeReader(r, hasher)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, route, body)
	if err != nil {
		return cid.Undef, 0, errors.Wrap(errors.KindHTTPError, "providerclient.UploadPiece", err)
	}
	if size >= 0 {
		req.ContentLength = size
	}
	if pieceCID != nil {
		req.Header.Set(pieceCIDHeader, resolved.String())
	}

	res, err := c.http.Do(req)
	if err != nil {
		return cid.Undef, 0, errors.Wrap(errors.KindHTTPError, "providerclient.UploadPiece", err)
	}
	defer res.Body.Close()
	if err := c.verifySuccess(res); err != nil {
		return cid.Undef, 0, err
	}

	if hasher != nil {
		computed, written, err := hasher.PieceCID()
		if err != nil {
			return cid.Undef, 0, errors.Wrap(errors.KindInvalidPieceCID, "providerclient.UploadPiece", err)
		}
		resolved = computed
		_ = written
	}
	return resolved, uint64(size), nil
}

// FindPiece reports whether the piece is present on the provider and ready
// to serve ("parked").
func (c *Client) FindPiece(ctx context.Context, pieceCID cid.Cid) (bool, error) {
	route := c.endpoint.JoinPath(pdpRoutePath, piecesPath, pieceCID.String(), "find").String()
	res, err := c.sendRequest(ctx, http.MethodGet, route, nil)
	if err != nil {
		return false, err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if res.StatusCode != http.StatusOK {
		return false, errFromResponse("providerclient.FindPiece", res)
	}

	var payload findPieceResponse
	if err := decodeJSON(res.Body, &payload); err != nil {
		return false, errors.Wrap(errors.KindMalformedServerResponse, "providerclient.FindPiece", err)
	}
	if payload.PieceCID == "" {
		return false, errors.New(errors.KindMalformedServerResponse, "providerclient.FindPiece", "missing pieceCid")
	}
	if _, err := cid.Decode(payload.PieceCID); err != nil {
		return false, errors.Wrap(errors.KindMalformedServerResponse, "providerclient.FindPiece", err)
	}
	return true, nil
}

// DownloadPiece streams the raw bytes of a piece from the provider. The
// caller owns the returned body and must close it; cancelling ctx drops an
// in-flight response without blocking on the remaining bytes.
func (c *Client) DownloadPiece(ctx context.Context, pieceCID cid.Cid) (io.ReadCloser, int64, error) {
	route := c.endpoint.JoinPath(pdpRoutePath, piecesPath, pieceCID.String()).String()
	res, err := c.sendRequest(ctx, http.MethodGet, route, nil)
	if err != nil {
		return nil, 0, err
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		defer res.Body.Close()
		return nil, 0, errFromResponse("providerclient.DownloadPiece", res)
	}
	return res.Body, res.ContentLength, nil
}

// DataSetCreation is the result of any of the three create* operations: a
// submitted transaction plus the URL the caller polls for confirmation.
type DataSetCreation struct {
	TxHash    common.Hash
	StatusURL string
}

// CreatePiece is one piece offered at data-set creation or add-pieces time.
type CreatePiece struct {
	CID      cid.Cid
	Size     uint64
	Metadata map[string]string
}

// CreateDataSet registers a new, empty data set with the provider.
func (c *Client) CreateDataSet(ctx context.Context, payee, recordKeeper common.Address, metadata map[string]string) (*DataSetCreation, error) {
	return c.createDataSet(ctx, payee, recordKeeper, metadata, nil)
}

// CreateDataSetWithPieces registers a new data set and seeds it with an
// initial set of pieces in the same request.
func (c *Client) CreateDataSetWithPieces(ctx context.Context, payee, recordKeeper common.Address, metadata map[string]string, pieces []CreatePiece) (*DataSetCreation, error) {
	return c.createDataSet(ctx, payee, recordKeeper, metadata, pieces)
}

// CreateAndAddPieces is an alias for CreateDataSetWithPieces kept because
// the contract names the create-and-seed operation separately from a plain
// create.
func (c *Client) CreateAndAddPieces(ctx context.Context, payee, recordKeeper common.Address, metadata map[string]string, pieces []CreatePiece) (*DataSetCreation, error) {
	return c.createDataSet(ctx, payee, recordKeeper, metadata, pieces)
}

func (c *Client) createDataSet(ctx context.Context, payee, recordKeeper common.Address, metadata map[string]string, pieces []CreatePiece) (*DataSetCreation, error) {
	req := createDataSetRequest{
		Payee:        payee.Hex(),
		RecordKeeper: recordKeeper.Hex(),
		Metadata:     metadata,
	}
	if len(pieces) > 0 {
		req.Pieces = make([]pieceEntry, len(pieces))
		req.PieceMetadata = make([]map[string]string, len(pieces))
		for i, p := range pieces {
			req.Pieces[i] = pieceEntry{PieceCID: p.CID.String(), Size: p.Size}
			req.PieceMetadata[i] = p.Metadata
		}
	}

	route := c.endpoint.JoinPath(pdpRoutePath, dataSetsPath).String()
	res, err := c.postJSON(ctx, route, req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusCreated && res.StatusCode != http.StatusOK {
		return nil, errFromResponse("providerclient.CreateDataSet", res)
	}

	var payload createDataSetResponse
	if err := decodeJSON(res.Body, &payload); err != nil {
		return nil, errors.Wrap(errors.KindMalformedServerResponse, "providerclient.CreateDataSet", err)
	}
	if payload.TxHash == "" {
		return nil, errors.New(errors.KindMalformedServerResponse, "providerclient.CreateDataSet", "missing txHash")
	}
	return &DataSetCreation{TxHash: common.HexToHash(payload.TxHash), StatusURL: payload.StatusURL}, nil
}

// AddPieces appends pieces to an existing, already-created data set.
func (c *Client) AddPieces(ctx context.Context, dataSetID, clientDataSetID *big.Int, nextPieceID uint64, pieces []CreatePiece) (common.Hash, error) {
	if len(pieces) == 0 {
		return common.Hash{}, errors.New(errors.KindInvalidAmount, "providerclient.AddPieces", "no pieces supplied")
	}
	req := addPiecesRequest{
		ClientDataSetID: clientDataSetID.Uint64(),
		NextPieceID:     nextPieceID,
		Pieces:          make([]pieceEntry, len(pieces)),
		PieceMetadata:   make([]map[string]string, len(pieces)),
	}
	for i, p := range pieces {
		req.Pieces[i] = pieceEntry{PieceCID: p.CID.String(), Size: p.Size}
		req.PieceMetadata[i] = p.Metadata
	}

	route := c.endpoint.JoinPath(pdpRoutePath, dataSetsPath, dataSetID.String(), "pieces").String()
	res, err := c.postJSON(ctx, route, req)
	if err != nil {
		return common.Hash{}, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusCreated && res.StatusCode != http.StatusOK {
		return common.Hash{}, errFromResponse("providerclient.AddPieces", res)
	}

	var payload addPiecesResponse
	if err := decodeJSON(res.Body, &payload); err != nil {
		return common.Hash{}, errors.Wrap(errors.KindMalformedServerResponse, "providerclient.AddPieces", err)
	}
	if payload.TxHash == "" {
		return common.Hash{}, errors.New(errors.KindMalformedServerResponse, "providerclient.AddPieces", "missing txHash")
	}
	return common.HexToHash(payload.TxHash), nil
}

// PieceAdditionStatus is the poll result for an in-flight add-pieces
// transaction. Unknown (404) is reported as (nil, nil) so callers can keep
// polling without treating it as an error.
type PieceAdditionStatus struct {
	TxStatus          string // "pending", "confirmed", "failed"
	AddMessageOK      *bool
	ConfirmedPieceIDs []uint64
}

// GetPieceAdditionStatus polls the outcome of a previously submitted
// add-pieces transaction.
func (c *Client) GetPieceAdditionStatus(ctx context.Context, dataSetID *big.Int, txHash common.Hash) (*PieceAdditionStatus, error) {
	route := c.endpoint.JoinPath(pdpRoutePath, dataSetsPath, dataSetID.String(), "pieces", "added", txHash.Hex()).String()
	res, err := c.sendRequest(ctx, http.MethodGet, route, nil)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if res.StatusCode != http.StatusOK {
		return nil, errFromResponse("providerclient.GetPieceAdditionStatus", res)
	}

	var payload pieceAdditionStatusResponse
	if err := decodeJSON(res.Body, &payload); err != nil {
		return nil, errors.Wrap(errors.KindMalformedServerResponse, "providerclient.GetPieceAdditionStatus", err)
	}
	switch payload.TxStatus {
	case "pending", "confirmed", "failed":
	default:
		return nil, errors.New(errors.KindMalformedServerResponse, "providerclient.GetPieceAdditionStatus", "unrecognized txStatus: "+payload.TxStatus)
	}
	return &PieceAdditionStatus{
		TxStatus:          payload.TxStatus,
		AddMessageOK:      payload.AddMessageOK,
		ConfirmedPieceIDs: payload.ConfirmedPieceIDs,
	}, nil
}

// DataSetPiece is one entry in a data set's piece listing.
type DataSetPiece struct {
	PieceID  uint64
	PieceCID cid.Cid
}

// DataSetInfo is the provider's view of a data set's pieces and proving
// schedule.
type DataSetInfo struct {
	Pieces             []DataSetPiece
	NextChallengeEpoch int64
}

// GetDataSet fetches the provider's current view of a data set.
func (c *Client) GetDataSet(ctx context.Context, dataSetID *big.Int) (*DataSetInfo, error) {
	route := c.endpoint.JoinPath(pdpRoutePath, dataSetsPath, dataSetID.String()).String()
	var payload getDataSetResponse
	if err := c.getJSON(ctx, route, &payload); err != nil {
		return nil, err
	}

	pieces := make([]DataSetPiece, len(payload.Pieces))
	for i, p := range payload.Pieces {
		pcid, err := cid.Decode(p.PieceCID)
		if err != nil {
			return nil, errors.Wrap(errors.KindMalformedServerResponse, "providerclient.GetDataSet", err)
		}
		pieces[i] = DataSetPiece{PieceID: p.PieceID, PieceCID: pcid}
	}
	return &DataSetInfo{Pieces: pieces, NextChallengeEpoch: payload.NextChallengeEpoch}, nil
}

// DeletePiece schedules removal of a piece from a data set.
func (c *Client) DeletePiece(ctx context.Context, dataSetID, clientDataSetID *big.Int, pieceID uint64) (common.Hash, error) {
	route := c.endpoint.JoinPath(pdpRoutePath, dataSetsPath, dataSetID.String(), "pieces", fmt.Sprintf("%d", pieceID))
	query := route.Query()
	query.Set("clientDataSetId", clientDataSetID.String())
	route.RawQuery = query.Encode()
	res, err := c.sendRequest(ctx, http.MethodDelete, route.String(), nil)
	if err != nil {
		return common.Hash{}, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusAccepted {
		return common.Hash{}, errFromResponse("providerclient.DeletePiece", res)
	}

	var payload deletePieceResponse
	if err := decodeJSON(res.Body, &payload); err != nil {
		return common.Hash{}, errors.Wrap(errors.KindMalformedServerResponse, "providerclient.DeletePiece", err)
	}
	if payload.TxHash == "" {
		return common.Hash{}, errors.New(errors.KindMalformedServerResponse, "providerclient.DeletePiece", "missing txHash")
	}
	return common.HexToHash(payload.TxHash), nil
}

// DataSetCreationStatus is the comprehensive status document served at the
// statusUrl returned by CreateDataSet/CreateDataSetWithPieces/CreateAndAddPieces.
type DataSetCreationStatus struct {
	TransactionMined  bool
	TransactionSuccess bool
	DataSetLive       bool
	ServerConfirmed   bool
	DataSetID         *uint64
}

// IsComplete reports whether every stage of creation has settled, one way or
// another: the caller can stop polling once this is true.
func (s *DataSetCreationStatus) IsComplete() bool {
	return s.TransactionMined && (!s.TransactionSuccess || (s.DataSetLive && s.ServerConfirmed))
}

// Success reports whether creation fully succeeded. Only meaningful once
// IsComplete is true.
func (s *DataSetCreationStatus) Success() bool {
	return s.TransactionSuccess && s.DataSetLive && s.ServerConfirmed
}

// PollCreationStatus fetches the comprehensive creation-status document from
// a statusUrl returned by one of the create* operations. statusUrl may be
// relative to the provider's base URL or absolute.
func (c *Client) PollCreationStatus(ctx context.Context, statusURL string) (*DataSetCreationStatus, error) {
	route := statusURL
	if parsed, err := url.Parse(statusURL); err == nil && !parsed.IsAbs() {
		route = c.endpoint.ResolveReference(parsed).String()
	}

	var payload dataSetCreationStatusResponse
	if err := c.getJSON(ctx, route, &payload); err != nil {
		return nil, err
	}
	return &DataSetCreationStatus{
		TransactionMined:  payload.TransactionMined,
		TransactionSuccess: payload.TransactionSuccess,
		DataSetLive:       payload.DataSetLive,
		ServerConfirmed:   payload.ServerConfirmed,
		DataSetID:         payload.DataSetID,
	}, nil
}

func (c *Client) sendRequest(ctx context.Context, method, route string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, route, body)
	if err != nil {
		return nil, errors.Wrap(errors.KindHTTPError, "providerclient.sendRequest", err)
	}
	req.Header.Set("Content-Type", "application/json")
	log.Debugf("requesting [%s] %s", method, route)
	res, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.KindHTTPError, "providerclient.sendRequest", err)
	}
	return res, nil
}

func (c *Client) postJSON(ctx context.Context, route string, payload interface{}) (*http.Response, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(errors.KindHTTPError, "providerclient.postJSON", err)
	}
	return c.sendRequest(ctx, http.MethodPost, route, bytes.NewReader(data))
}

func (c *Client) getJSON(ctx context.Context, route string, target interface{}) error {
	res, err := c.sendRequest(ctx, http.MethodGet, route, nil)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return errFromResponse("providerclient.getJSON", res)
	}
	if err := decodeJSON(res.Body, target); err != nil {
		return errors.Wrap(errors.KindMalformedServerResponse, "providerclient.getJSON", err)
	}
	return nil
}

func (c *Client) verifySuccess(res *http.Response) error {
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return errFromResponse("providerclient.verifySuccess", res)
	}
	return nil
}

func decodeJSON(body io.Reader, target interface{}) error {
	return json.NewDecoder(body).Decode(target)
}

func errFromResponse(op string, res *http.Response) error {
	message, _ := io.ReadAll(res.Body)
	return errors.New(errors.KindHTTPError, op, fmt.Sprintf("unexpected status %d: %s", res.StatusCode, string(message))).
		WithField("statusCode", res.StatusCode)
}
