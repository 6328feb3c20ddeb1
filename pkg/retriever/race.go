package retriever

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/FilOzone/synapse-sdk-go/pkg/errors"
)

// Candidate is one provider the race may try.
type Candidate struct {
	ID         string // human-readable label for failure summaries
	ServiceURL string
}

// attempt fetches from a single candidate. A non-nil error means the
// candidate should be counted as a failure; it must not leave any
// partially-read body behind it (the caller owns cleanup only on success).
type attempt func(ctx context.Context, c Candidate) (io.ReadCloser, int64, error)

// result is what a winning attempt yields.
type result struct {
	body   io.ReadCloser
	length int64
}

// race runs attempt against every candidate concurrently, returns the body
// of whichever succeeds first, and cancels every other in-flight attempt.
// If every candidate fails, it returns AllProvidersFailed carrying a
// provider -> reason summary.
func race(ctx context.Context, candidates []Candidate, do attempt) (io.ReadCloser, int64, error) {
	if len(candidates) == 0 {
		return nil, 0, errors.New(errors.KindAllProvidersFailed, "retriever.race", "no candidate providers")
	}

	raceCtx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(raceCtx)

	var (
		mu      sync.Mutex
		won     bool
		winner  result
		reasons = make(map[string]string, len(candidates))
	)

	for _, c := range candidates {
		c := c
		g.Go(func() error {
			body, length, err := do(gctx, c)
			if err != nil {
				mu.Lock()
				reasons[c.ID] = err.Error()
				mu.Unlock()
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			if won {
				// Another task already won the race; drop this body.
				_ = body.Close()
				return nil
			}
			won = true
			winner = result{body: body, length: length}
			cancel()
			return nil
		})
	}
	_ = g.Wait()
	cancel()

	if !won {
		summary := make([]string, 0, len(reasons))
		for id, reason := range reasons {
			summary = append(summary, fmt.Sprintf("%s: %s", id, reason))
		}
		return nil, 0, errors.New(errors.KindAllProvidersFailed, "retriever.race", "every candidate failed").
			WithField("summary", strings.Join(summary, "; "))
	}
	return winner.body, winner.length, nil
}
