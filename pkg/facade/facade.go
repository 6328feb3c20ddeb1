// Package facade implements the Public Facade (component C9): it builds
// the full dependency graph from a Config, detects the network from the
// chain id, and exposes upload/download/payments/session-key operations
// as one entry point.
package facade

import (
	"context"
	"io"
	"math/big"

	"go.uber.org/fx"

	"github.com/FilOzone/synapse-sdk-go/pkg/chain"
	"github.com/FilOzone/synapse-sdk-go/pkg/errors"
	"github.com/FilOzone/synapse-sdk-go/pkg/manager"
	"github.com/FilOzone/synapse-sdk-go/pkg/payments"
	"github.com/FilOzone/synapse-sdk-go/pkg/provider"
	"github.com/FilOzone/synapse-sdk-go/pkg/retriever"
	"github.com/FilOzone/synapse-sdk-go/pkg/sessionkey"
	"github.com/FilOzone/synapse-sdk-go/pkg/storagecontext"
)

// Synapse is the public entry point: one chain adapter, one manager, one
// payments client, and (when a session key registry address is known) one
// session key helper, all sharing the same signer and connection.
type Synapse struct {
	Adapter     *chain.Adapter
	Manager     *manager.Manager
	Payments    *payments.Payments
	SessionKeys *sessionkey.SessionKeys
}

// New builds a Synapse from cfg. cb receives the storage-context lifecycle
// callbacks (provider selection, upload/piece-added/piece-confirmed) for
// every context the manager opens implicitly; callers driving an explicit
// *storagecontext.Context supply their own callbacks to storagecontext.Open.
func New(ctx context.Context, cfg Config, cb storagecontext.Callbacks) (*Synapse, error) {
	const op = "facade.New"
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	var synapse Synapse
	app := fx.New(
		fx.NopLogger,
		fx.Supply(cfg, cb),
		fx.Provide(
			func() context.Context { return ctx },
			provideBackend,
			provideSigner,
			provideAdapter,
			provideService,
			provideRegistry,
			provideVerifier,
			provideResolver,
			providePayments,
			provideFetcher,
			provideStats,
			provideManagerDeps,
			provideManager,
			provideSessionKeys,
		),
		fx.Populate(&synapse.Adapter, &synapse.Manager, &synapse.Payments, &synapse.SessionKeys),
	)
	if err := app.Err(); err != nil {
		return nil, errors.Wrap(errors.KindChainCallFailed, op, err)
	}
	return &synapse, nil
}

// Upload stores data through the default (possibly multi-context) target
// set; see manager.Manager.Upload for the full option surface.
func (s *Synapse) Upload(ctx context.Context, data io.Reader, size int64, opts manager.UploadOptions) (*storagecontext.UploadResult, error) {
	return s.Manager.Upload(ctx, data, size, opts)
}

// Download retrieves a piece; see manager.Manager.Download.
func (s *Synapse) Download(ctx context.Context, pieceCID string, opts manager.DownloadOptions) (io.ReadCloser, int64, error) {
	return s.Manager.Download(ctx, pieceCID, opts)
}

// PreflightUpload estimates allowance cost for an upload of sizeInBytes
// without binding to a provider or data set; see
// manager.Manager.PreflightUpload.
func (s *Synapse) PreflightUpload(ctx context.Context, sizeInBytes *big.Int, opts manager.PreflightOptions) (*manager.PreflightResult, error) {
	return s.Manager.PreflightUpload(ctx, sizeInBytes, opts)
}
