package storagecontext

import (
	"context"
	"math/big"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/FilOzone/synapse-sdk-go/pkg/chain"
	"github.com/FilOzone/synapse-sdk-go/pkg/providerclient"
)

// epochSeconds is the nominal wall-clock duration of one Filecoin epoch,
// used only to convert an epoch count into an hour estimate for display.
const epochSeconds = 30

// PieceStatus is the proving-schedule view of a single piece within this
// context's data set, derived from the data set's current challenge window
// and the chain's current epoch.
type PieceStatus struct {
	Exists                   bool
	ChallengeWindowStart     int64
	ProvingDeadline          int64
	LastProven               int64
	CurrentEpoch             uint64
	InChallengeWindow        bool
	IsProofOverdue           bool
	HoursUntilChallengeWindow float64

	// CDNEgressQuota and CacheMissEgressQuota are populated only when the
	// context was opened WithCDN and deps.Stats is configured; nil
	// otherwise, including on any stats-fetch error (quota visibility is
	// best-effort and never fails the status check).
	CDNEgressQuota       *big.Int
	CacheMissEgressQuota *big.Int
}

// PieceStatus runs hasPiece, getDataSet, currentEpoch, and the service's PDP
// config read concurrently, then derives the data set's proving-window state
// relative to now. A piece the provider doesn't have yet reports
// Exists == false with only CurrentEpoch set; a context with no bound data
// set reports every field zeroed.
func (c *Context) PieceStatus(ctx context.Context, pieceCID string) (*PieceStatus, error) {
	decoded, err := decodeCID(pieceCID)
	if err != nil {
		return nil, err
	}
	dataSetID := c.DataSetID()
	if dataSetID == nil {
		return &PieceStatus{}, nil
	}

	var (
		exists       bool
		dataSetInfo  *providerclient.DataSetInfo
		currentEpoch uint64
		pdpConfig    chain.PDPConfig
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		found, err := c.client.FindPiece(gctx, decoded)
		exists = found
		return err
	})
	g.Go(func() error {
		info, err := c.client.GetDataSet(gctx, dataSetID)
		dataSetInfo = info
		return err
	})
	g.Go(func() error {
		n, err := c.deps.Adapter.Backend.BlockNumber(gctx)
		currentEpoch = n
		return err
	})
	g.Go(func() error {
		cfg, err := c.deps.Service.PDPConfig(gctx)
		pdpConfig = cfg
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	status := &PieceStatus{Exists: exists, CurrentEpoch: currentEpoch}
	if !exists || dataSetInfo.NextChallengeEpoch == 0 {
		return status, nil
	}

	challengeWindow := int64(0)
	if pdpConfig.ChallengeWindow != nil {
		challengeWindow = pdpConfig.ChallengeWindow.Int64()
	}

	start := dataSetInfo.NextChallengeEpoch
	deadline := start + challengeWindow
	now := int64(currentEpoch)

	status.ChallengeWindowStart = start
	status.ProvingDeadline = deadline
	status.LastProven = start - int64(pdpConfig.MaxProvingPeriod)
	status.InChallengeWindow = now >= start && now < deadline
	status.IsProofOverdue = now >= deadline

	if remaining := start - now; remaining > 0 {
		status.HoursUntilChallengeWindow = float64(remaining) * epochSeconds / 3600
	}

	if c.withCDN && c.deps.Stats != nil {
		if quota, err := c.deps.Stats.DataSetQuota(ctx, dataSetID); err != nil {
			log.Debugw("stats quota fetch failed, omitting from status", "dataSetID", dataSetID, "err", err)
		} else {
			status.CDNEgressQuota = quota.CDNEgressQuota
			status.CacheMissEgressQuota = quota.CacheMissEgressQuota
		}
	}

	return status, nil
}
