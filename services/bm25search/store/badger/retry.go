package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"golang.org/x/time/rate"
)

// maxAttempts and retrySpacing bound the retry policy for transient
// storage errors: up to 20 attempts, spaced 100ms apart.
const (
	maxAttempts  = 20
	retrySpacing = 100 * time.Millisecond
)

// retryLimiter paces retries at one attempt per 100ms. It is a package
// variable, shared by every Store in the process, so a burst of
// concurrent failures does not hammer BadgerDB faster than that spacing.
var retryLimiter = rate.NewLimiter(rate.Every(retrySpacing), 1)

// withRetry runs op up to maxAttempts times in total, retrying on a transient
// BadgerDB error (conflict or a transaction that was discarded under
// load). A non-transient error, or ctx cancellation, returns immediately.
func withRetry(ctx context.Context, op func() error) error {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := op()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isTransient(err) {
			return err
		}
		if err := retryLimiter.Wait(ctx); err != nil {
			return err
		}
	}
	return lastErr
}

// isTransient reports whether err is a BadgerDB condition worth retrying:
// a write conflict under BadgerDB's optimistic concurrency control, or a
// transaction already committed/discarded by a racing caller.
func isTransient(err error) bool {
	return errors.Is(err, badger.ErrConflict) || errors.Is(err, badger.ErrDiscardedTxn)
}
