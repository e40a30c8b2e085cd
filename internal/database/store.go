package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the interface for item persistence operations.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// InsertItem persists a new saved item in a single atomic insert and
	// returns its generated ID.
	InsertItem(ctx context.Context, item *SavedItem) (int64, error)

	// ListItems retrieves all saved items, most recent first.
	ListItems(ctx context.Context) ([]SavedItem, error)

	// CountItems returns the number of saved items.
	CountItems(ctx context.Context) (int64, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// InsertItem persists a new saved item and returns its generated ID.
func (s *sqlxStore) InsertItem(ctx context.Context, item *SavedItem) (int64, error) {
	if item == nil {
		return 0, fmt.Errorf("cannot insert nil item")
	}
	if item.Category == "" {
		return 0, fmt.Errorf("item must have a category")
	}
	if item.SavedBy == "" {
		return 0, fmt.Errorf("item must have a saved_by sender")
	}

	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for inserting item",
			"category", item.Category, "saved_by", item.SavedBy, "error", err)
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				if !errors.Is(rollbackErr, sql.ErrTxDone) {
					s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
				}
			}
		}
	}()

	query := `
        INSERT INTO items (category, title, platform, ingredients, location, event_date,
                           caption, original_url, original_message, saved_by, created_at)
        VALUES (:category, :title, :platform, :ingredients, :location, :event_date,
                :caption, :original_url, :original_message, :saved_by, :created_at);
    `

	result, err := tx.NamedExecContext(ctx, query, item)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error inserting item",
			"category", item.Category, "saved_by", item.SavedBy, "error", err)
		return 0, fmt.Errorf("failed to insert item (category %s): %w", item.Category, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		// Log if getting LastInsertId fails, but don't fail the operation
		s.logger.WarnContext(ctx, "Could not retrieve last insert ID after inserting item",
			"category", item.Category, "saved_by", item.SavedBy, "error", err)
	} else {
		item.ID = id
	}

	if affected, err := result.RowsAffected(); err == nil && affected != 1 {
		s.logger.WarnContext(ctx, "Unexpected number of rows affected when inserting item",
			"category", item.Category, "saved_by", item.SavedBy, "affected", affected)
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit transaction",
			"category", item.Category, "saved_by", item.SavedBy, "error", err)
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	// Successfully committed, set tx to nil to avoid rollback
	tx = nil

	s.logger.DebugContext(ctx, "Item inserted successfully",
		"item_id", item.ID, "category", item.Category, "saved_by", item.SavedBy)
	return item.ID, nil
}

// ListItems retrieves all saved items, most recent first.
func (s *sqlxStore) ListItems(ctx context.Context) ([]SavedItem, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var items []SavedItem
	query := `
        SELECT id, category, title, platform, ingredients, location, event_date,
               caption, original_url, original_message, saved_by, created_at
        FROM items
        ORDER BY created_at DESC, id DESC;
    `

	s.logger.DebugContext(ctx, "Fetching all saved items")
	err := s.db.SelectContext(ctx, &items, query)

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "Context timeout or cancellation while fetching items", "error", err)
		return nil, err

	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting saved items", "error", err)
		return nil, fmt.Errorf("failed to get saved items: %w", err)
	}

	s.logger.DebugContext(ctx, "Fetched saved items successfully", "count", len(items))
	return items, nil
}

// CountItems returns the number of saved items.
func (s *sqlxStore) CountItems(ctx context.Context) (int64, error) {
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}

	var count int64
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM items;`); err != nil {
		s.logger.ErrorContext(ctx, "Error counting saved items", "error", err)
		return 0, fmt.Errorf("failed to count saved items: %w", err)
	}

	return count, nil
}

// RunSQLMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	// Give concurrent readers a chance to finish before VACUUM takes the lock
	if _, err := s.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		s.logger.WarnContext(ctx, "Failed to set busy timeout", "error", err)
	}

	// VACUUM must run outside a transaction in SQLite
	_, err := s.db.ExecContext(ctx, "VACUUM;")

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)

	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)

	default:
		s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	}

	return nil
}
