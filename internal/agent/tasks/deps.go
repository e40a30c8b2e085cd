// Package tasks implements the background tasks run by the scheduler:
// pending-link purging and database maintenance.
package tasks

import (
	"log/slog"

	"github.com/edgard/recallbot/internal/database"
	"github.com/edgard/recallbot/internal/pending"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger  *slog.Logger
	Store   database.Store
	Pending pending.Store
}
