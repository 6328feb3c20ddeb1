package storagecontext

import "time"

// ShrinkTimeouts overrides every poll interval/timeout knob for the
// duration of a test, returning a restore func. Production code never calls
// this; it exists so tests exercising a timeout path don't run real-time
// against multi-minute windows.
func ShrinkTimeouts(interval, timeout time.Duration) (restore func()) {
	orig := struct {
		piecePollInterval, piecePollTimeout                 time.Duration
		txPropagationInterval, txPropagationTimeout         time.Duration
		creationPollInterval, creationPollTimeout           time.Duration
		additionPollInterval, additionPollTimeout           time.Duration
		batchCoalesceWindow, batchCoalescePoll              time.Duration
	}{
		piecePollInterval, piecePollTimeout,
		txPropagationInterval, txPropagationTimeout,
		creationPollInterval, creationPollTimeout,
		additionPollInterval, additionPollTimeout,
		batchCoalesceWindow, batchCoalescePoll,
	}

	piecePollInterval, piecePollTimeout = interval, timeout
	txPropagationInterval, txPropagationTimeout = interval, timeout
	creationPollInterval, creationPollTimeout = interval, timeout
	additionPollInterval, additionPollTimeout = interval, timeout
	batchCoalesceWindow, batchCoalescePoll = timeout, interval

	return func() {
		piecePollInterval, piecePollTimeout = orig.piecePollInterval, orig.piecePollTimeout
		txPropagationInterval, txPropagationTimeout = orig.txPropagationInterval, orig.txPropagationTimeout
		creationPollInterval, creationPollTimeout = orig.creationPollInterval, orig.creationPollTimeout
		additionPollInterval, additionPollTimeout = orig.additionPollInterval, orig.additionPollTimeout
		batchCoalesceWindow, batchCoalescePoll = orig.batchCoalesceWindow, orig.batchCoalescePoll
	}
}
