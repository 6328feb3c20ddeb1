package manager

import (
	"bytes"
	"context"
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ipfs/go-cid"

	"github.com/FilOzone/synapse-sdk-go/pkg/errors"
	"github.com/FilOzone/synapse-sdk-go/pkg/storagecontext"
	"github.com/FilOzone/synapse-sdk-go/pkg/types"
)

// UploadOptions selects how Upload dispatches: either against an explicit
// Context/Contexts the caller already opened, or against the manager's
// default context set (built or reused on demand). The two are mutually
// exclusive with each other and with the single-context binding options
// (ProviderID, ProviderAddress, DataSetID, WithCDN, ForceCreate,
// UploadBatchSize), which only make sense when the manager is opening the
// context itself.
type UploadOptions struct {
	Context  *storagecontext.Context
	Contexts []*storagecontext.Context

	ProviderID      *big.Int
	ProviderAddress *common.Address
	DataSetID       *big.Int
	WithCDN         bool
	ForceCreate     bool
	UploadBatchSize int
	Metadata        map[string]string

	// Count defaults the default-context set's size to 1 when neither
	// Context nor Contexts is supplied.
	Count int
}

func (o UploadOptions) hasBindingOptions() bool {
	return o.ProviderID != nil || o.ProviderAddress != nil || o.DataSetID != nil ||
		o.WithCDN || o.ForceCreate || o.UploadBatchSize != 0
}

// Upload implements §4.7's upload dispatch: validate option exclusivity,
// resolve the target context set, and fan the payload out to every
// context in it. For more than one context, data must be a byte buffer
// (streaming fan-out to multiple contexts from one io.Reader can't be done
// without buffering it all in memory first, which defeats the point of a
// stream) and its piece CID is computed once up front and reused for every
// context's upload.
func (m *Manager) Upload(ctx context.Context, data io.Reader, size int64, opts UploadOptions) (*storagecontext.UploadResult, error) {
	explicit := opts.Context != nil || len(opts.Contexts) > 0
	if explicit && opts.hasBindingOptions() {
		return nil, errors.New(errors.KindOptionsConflict, "manager.Upload",
			"context/contexts options are mutually exclusive with single-context binding options")
	}

	targets, err := m.uploadTargets(ctx, opts)
	if err != nil {
		return nil, err
	}

	if len(targets) == 1 {
		return targets[0].Upload(ctx, data, size, opts.Metadata)
	}

	buf, ok := data.(*bytes.Reader)
	if !ok {
		return nil, errors.New(errors.KindOptionsConflict, "manager.Upload",
			"uploading to multiple contexts requires a byte buffer payload; streaming fan-out is not supported")
	}
	raw := make([]byte, buf.Len())
	if _, err := io.ReadFull(buf, raw); err != nil {
		return nil, errors.Wrap(errors.KindHTTPError, "manager.Upload", err)
	}
	if size >= 0 && int64(len(raw)) != size {
		return nil, errors.New(errors.KindOptionsConflict, "manager.Upload",
			"uploading to multiple contexts requires the full payload in memory; a streaming reader of unknown length is not supported")
	}

	hasher := types.NewPieceHasher()
	if _, err := hasher.Write(raw); err != nil {
		return nil, errors.Wrap(errors.KindHTTPError, "manager.Upload", err)
	}
	pieceCID, _, err := hasher.PieceCID()
	if err != nil {
		return nil, errors.Wrap(errors.KindHTTPError, "manager.Upload", err)
	}

	return m.uploadToAll(ctx, targets, raw, pieceCID, opts.Metadata)
}

func (m *Manager) uploadTargets(ctx context.Context, opts UploadOptions) ([]*storagecontext.Context, error) {
	if opts.Context != nil {
		return []*storagecontext.Context{opts.Context}, nil
	}
	if len(opts.Contexts) > 0 {
		return opts.Contexts, nil
	}
	if opts.hasBindingOptions() {
		sc, err := storagecontext.Open(ctx, m.deps.Chain, storagecontext.Options{
			ProviderID:      opts.ProviderID,
			ProviderAddress: opts.ProviderAddress,
			DataSetID:       opts.DataSetID,
			WithCDN:         opts.WithCDN,
			Metadata:        opts.Metadata,
			ForceCreate:     opts.ForceCreate,
			UploadBatchSize: opts.UploadBatchSize,
		}, m.cb)
		if err != nil {
			return nil, err
		}
		return []*storagecontext.Context{sc}, nil
	}

	count := opts.Count
	if count <= 0 {
		count = 1
	}
	return m.defaultContexts(ctx, count, opts.Metadata, opts.WithCDN, nil)
}

type uploadOutcome struct {
	result *storagecontext.UploadResult
	err    error
}

// uploadToAll dispatches the same precomputed piece to every target
// context concurrently. Every context must agree (all succeed) for the
// call to succeed; the first result is returned to the caller since every
// context's piece CID is identical by construction.
func (m *Manager) uploadToAll(ctx context.Context, targets []*storagecontext.Context, raw []byte, pieceCID cid.Cid, metadata map[string]string) (*storagecontext.UploadResult, error) {
	outcomes := make([]uploadOutcome, len(targets))
	done := make(chan int, len(targets))
	for i, sc := range targets {
		go func(i int, sc *storagecontext.Context) {
			res, err := sc.UploadWithPieceCID(ctx, bytes.NewReader(raw), int64(len(raw)), metadata, pieceCID)
			outcomes[i] = uploadOutcome{result: res, err: err}
			done <- i
		}(i, sc)
	}
	for range targets {
		<-done
	}

	for _, o := range outcomes {
		if o.err != nil {
			return nil, o.err
		}
	}
	return outcomes[0].result, nil
}
