package storagecontext

import (
	"context"
	"math/big"
	"time"

	"github.com/FilOzone/synapse-sdk-go/pkg/errors"
	"github.com/FilOzone/synapse-sdk-go/pkg/providerclient"
)

// CreateDataSet creates this context's data set up front, without waiting
// for an upload to trigger it. Callers that want progress reporting on the
// multi-minute creation wait (chain confirmation, then the provider's own
// server-side bookkeeping) should supply Callbacks.OnDataSetCreationProgress
// when opening the Context; this is otherwise a no-op once a data set is
// already bound.
func (c *Context) CreateDataSet(ctx context.Context) (*big.Int, error) {
	if c.hasDataSet() {
		return c.DataSetID(), nil
	}

	creation, err := c.client.CreateDataSet(ctx, c.payee(), c.deps.Adapter.Signer.Address(), c.metadata)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	var final *providerclient.DataSetCreationStatus
	err = pollUntil(ctx, creationPollInterval, creationPollTimeout,
		func(ctx context.Context) (bool, error) {
			status, err := c.client.PollCreationStatus(ctx, creation.StatusURL)
			if err != nil {
				return false, err
			}
			if c.cb.OnDataSetCreationProgress != nil {
				c.cb.OnDataSetCreationProgress(time.Since(started), status)
			}
			if !status.IsComplete() {
				return false, nil
			}
			final = status
			return true, nil
		},
		func() error {
			return errors.New(errors.KindServerTimeout, "storagecontext.CreateDataSet",
				"data set creation did not complete before timeout").WithField("txHash", creation.TxHash.Hex())
		})
	if err != nil {
		return nil, err
	}

	if !final.Success() {
		return nil, errors.New(errors.KindDataSetCreationFailed, "storagecontext.CreateDataSet",
			"data set creation failed").WithField("txHash", creation.TxHash.Hex())
	}
	if final.DataSetID == nil {
		return nil, errors.New(errors.KindMalformedServerResponse, "storagecontext.CreateDataSet",
			"creation status reported success without a data set id")
	}

	dataSetID := new(big.Int).SetUint64(*final.DataSetID)
	info, err := c.deps.Service.GetDataSet(ctx, dataSetID)
	if err != nil {
		return nil, errors.Wrap(errors.KindChainCallFailed, "storagecontext.CreateDataSet", err)
	}
	c.bindDataSet(dataSetID, info.ClientDataSetId)
	return dataSetID, nil
}
