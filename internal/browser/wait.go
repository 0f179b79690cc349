package browser

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrElementNotFound is returned when an element wait times out.
var ErrElementNotFound = errors.New("element not found")

const (
	// DefaultWaitTimeout bounds an element wait unless the caller says
	// otherwise.
	DefaultWaitTimeout = 10 * time.Second

	// pollInterval is the fixed DOM polling cadence.
	pollInterval = 200 * time.Millisecond
)

// ElementQuerier reports whether a selector currently matches a node.
type ElementQuerier interface {
	QuerySelector(ctx context.Context, selector string) (bool, error)
}

// WaitForElement polls q until selector matches, the timeout elapses, or
// ctx is cancelled. No retries beyond the polling loop itself: callers
// decide what an absent element means. The loop stops as soon as it
// resolves or rejects, so session teardown leaves no orphaned timers.
func WaitForElement(ctx context.Context, q ElementQuerier, selector string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultWaitTimeout
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		found, err := q.QuerySelector(ctx, selector)
		if err != nil {
			return err
		}
		if found {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("%w: %s", ErrElementNotFound, selector)
		case <-ticker.C:
		}
	}
}
