package providerclient

// Wire types for the provider's PDP HTTP surface. Field names mirror the
// JSON the provider actually sends; the client validates every required
// field before handing a typed result back to the caller.

type pingResponse struct {
	Type string `json:"type,omitempty"`
}

type findPieceResponse struct {
	PieceCID string `json:"pieceCid"`
}

type createDataSetRequest struct {
	Payee         string              `json:"payee"`
	RecordKeeper  string              `json:"recordKeeperAddress"`
	Metadata      map[string]string   `json:"metadata,omitempty"`
	Pieces        []pieceEntry        `json:"pieces,omitempty"`
	PieceMetadata []map[string]string `json:"pieceMetadata,omitempty"`
}

type createDataSetResponse struct {
	TxHash    string `json:"txHash"`
	StatusURL string `json:"statusUrl"`
}

type pieceEntry struct {
	PieceCID string `json:"pieceCid"`
	Size     uint64 `json:"size,omitempty"`
}

type addPiecesRequest struct {
	ClientDataSetID uint64              `json:"clientDataSetId"`
	NextPieceID     uint64              `json:"nextPieceId"`
	Pieces          []pieceEntry        `json:"pieces"`
	PieceMetadata   []map[string]string `json:"pieceMetadata,omitempty"`
}

type addPiecesResponse struct {
	TxHash string `json:"txHash"`
}

type pieceAdditionStatusResponse struct {
	TxStatus          string   `json:"txStatus"`
	AddMessageOK      *bool    `json:"addMessageOk"`
	ConfirmedPieceIDs []uint64 `json:"confirmedPieceIds,omitempty"`
}

type dataSetPieceEntry struct {
	PieceID  uint64 `json:"pieceId"`
	PieceCID string `json:"pieceCid"`
}

type getDataSetResponse struct {
	Pieces             []dataSetPieceEntry `json:"pieces"`
	NextChallengeEpoch int64               `json:"nextChallengeEpoch"`
}

type deletePieceResponse struct {
	TxHash string `json:"txHash"`
}

type dataSetCreationStatusResponse struct {
	TransactionMined  bool   `json:"transactionMined"`
	TransactionSuccess bool  `json:"transactionSuccess"`
	DataSetLive       bool   `json:"dataSetLive"`
	ServerConfirmed   bool   `json:"serverConfirmed"`
	DataSetID         *uint64 `json:"dataSetId"`
}
