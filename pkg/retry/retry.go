package retry

import (
	"context"
	"errors"
	"time"

	"vkbackup/pkg/config"
	errs "vkbackup/pkg/errors"
	"vkbackup/pkg/logger"
)

// Operation is a function that performs an operation that might need retrying
type Operation func(ctx context.Context) error

// Config holds retry configuration
type Config struct {
	Backoff BackoffStrategy
	// RetryIf determines if an error should be retried. A nil RetryIf
	// retries nothing.
	RetryIf func(error) bool
	Logger  logger.Logger
}

// Do executes op until it succeeds, fails with an error RetryIf rejects,
// or ctx is done
func Do(ctx context.Context, cfg Config, op Operation) error {
	log := cfg.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}

	for attempt := 1; ; attempt++ {
		err := op(ctx)
		if err == nil {
			if attempt > 1 {
				log.DebugWithFields("operation succeeded after retry", map[string]interface{}{
					"attempt": attempt,
				})
			}
			return nil
		}

		if cfg.RetryIf == nil || !cfg.RetryIf(err) {
			return err
		}

		var delay time.Duration
		if cfg.Backoff != nil {
			delay = cfg.Backoff.NextDelay(attempt)
		}

		log.DebugWithFields("retrying operation", map[string]interface{}{
			"attempt":  attempt,
			"error":    err.Error(),
			"delay_ms": delay.Milliseconds(),
		})

		if werr := Wait(ctx, delay); werr != nil {
			return errors.Join(werr, err)
		}
	}
}

// ErrPending is returned by a poll check to signal that the remote
// operation has not finished yet
var ErrPending = errors.New("operation still in progress")

// Poll calls check until it reports done, returns a terminal error, or
// the polling timeout elapses. Waits between checks follow the backoff
// derived from cfg. An elapsed timeout is reported as a timeout error.
func Poll(ctx context.Context, cfg config.PollingConfig, log logger.Logger, check func(ctx context.Context) (bool, error)) error {
	pollCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	checks := 0
	err := Do(pollCtx, Config{
		Backoff: FromPolling(cfg),
		RetryIf: func(err error) bool { return errors.Is(err, ErrPending) },
		Logger:  log,
	}, func(ctx context.Context) error {
		checks++
		done, err := check(ctx)
		if err != nil {
			return err
		}
		if !done {
			return ErrPending
		}
		return nil
	})
	if err == nil {
		return nil
	}

	// Only our own deadline is a timeout; a cancelled parent is passed through.
	if ctx.Err() == nil && errors.Is(pollCtx.Err(), context.DeadlineExceeded) {
		return errs.Timeout(err, "operation did not finish within %s (%d checks)", cfg.Timeout, checks)
	}
	return err
}
