package storagecontext

import (
	"context"
	"time"
)

// pollUntil calls check on a fixed interval until it reports done, returns
// an error, or timeout elapses (yielding ctx.Err() or the timeout error
// produced by onTimeout). check is also called once immediately, before the
// first tick, so a condition already true costs no wait.
func pollUntil(ctx context.Context, interval, timeout time.Duration, check func(ctx context.Context) (bool, error), onTimeout func() error) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		done, err := check(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return onTimeout()
		case <-ticker.C:
		}
	}
}
