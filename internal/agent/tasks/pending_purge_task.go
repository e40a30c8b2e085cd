package tasks

import (
	"context"
	"fmt"
	"time"
)

// newPendingPurgeTask creates the scheduled task that sweeps expired pending
// links out of the store. Expiry is already enforced on read; the sweep only
// bounds storage growth for links nobody ever followed up on.
func newPendingPurgeTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "pending_purge")

	return func(ctx context.Context) error {
		startTime := time.Now()

		removed, err := deps.Pending.PurgeExpired(ctx)
		duration := time.Since(startTime)

		if err != nil {
			log.ErrorContext(ctx, "Pending purge task failed", "error", err, "duration", duration)
			return fmt.Errorf("pending purge failed: %w", err)
		}

		log.InfoContext(ctx, "Pending purge task completed", "removed", removed, "duration", duration)
		return nil
	}
}
