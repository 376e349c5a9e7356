// Package store handles SQLite persistence for review items.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/verte-zerg/tuicards/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for per-card scheduling state. Review items are
// keyed by (set_id, card_id); the review log is append-only history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS review_items (
			set_id TEXT NOT NULL,
			card_id TEXT NOT NULL,
			ease_factor REAL NOT NULL,
			interval_days INTEGER NOT NULL,
			repetitions INTEGER NOT NULL,
			last_review TEXT,
			next_review TEXT,
			state TEXT NOT NULL,
			PRIMARY KEY (set_id, card_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_review_items_set ON review_items(set_id);`,
		`CREATE TABLE IF NOT EXISTS review_log (
			id INTEGER PRIMARY KEY,
			session_id TEXT NOT NULL,
			set_id TEXT NOT NULL,
			card_id TEXT NOT NULL,
			quality INTEGER NOT NULL,
			interval_days INTEGER NOT NULL,
			ease_factor REAL NOT NULL,
			state TEXT NOT NULL,
			reviewed_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_review_log_set ON review_log(set_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

const upsertItem = `INSERT INTO review_items
	(set_id, card_id, ease_factor, interval_days, repetitions, last_review, next_review, state)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (set_id, card_id) DO UPDATE SET
		ease_factor = excluded.ease_factor,
		interval_days = excluded.interval_days,
		repetitions = excluded.repetitions,
		last_review = excluded.last_review,
		next_review = excluded.next_review,
		state = excluded.state`

// Save upserts one review item by (set_id, card_id).
func (s *Store) Save(ctx context.Context, item model.ReviewItem) error {
	state, err := item.State.MarshalText()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, upsertItem,
		item.SetID,
		item.CardID,
		item.EaseFactor,
		item.Interval,
		item.Repetitions,
		formatTime(item.LastReview),
		formatTime(item.NextReview),
		string(state),
	)
	return err
}

// SaveBatch upserts all items in a single transaction. If any write fails
// the transaction is rolled back and none of the items are stored.
func (s *Store) SaveBatch(ctx context.Context, items []model.ReviewItem) error {
	if len(items) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx, upsertItem)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	for _, item := range items {
		var state []byte
		state, err = item.State.MarshalText()
		if err != nil {
			return err
		}
		if _, err = stmt.ExecContext(ctx,
			item.SetID,
			item.CardID,
			item.EaseFactor,
			item.Interval,
			item.Repetitions,
			formatTime(item.LastReview),
			formatTime(item.NextReview),
			string(state),
		); err != nil {
			return err
		}
	}
	err = tx.Commit()
	return err
}

// Load returns the item for (setID, cardID), or nil when absent.
func (s *Store) Load(ctx context.Context, setID, cardID string) (*model.ReviewItem, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT set_id, card_id, ease_factor, interval_days, repetitions, last_review, next_review, state
		 FROM review_items WHERE set_id = ? AND card_id = ?`, setID, cardID)
	item, err := scanItem(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// LoadAll returns every item stored for the set.
func (s *Store) LoadAll(ctx context.Context, setID string) ([]model.ReviewItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT set_id, card_id, ease_factor, interval_days, repetitions, last_review, next_review, state
		 FROM review_items WHERE set_id = ? ORDER BY card_id`, setID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var items []model.ReviewItem
	for rows.Next() {
		item, err := scanItem(rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// ResetSet deletes every review item and log row for the set. Absent
// entries are a no-op, not an error.
func (s *Store) ResetSet(ctx context.Context, setID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()
	if _, err = tx.ExecContext(ctx, `DELETE FROM review_items WHERE set_id = ?`, setID); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM review_log WHERE set_id = ?`, setID); err != nil {
		return err
	}
	err = tx.Commit()
	return err
}

// ClearAll deletes every review item and log row regardless of set.
func (s *Store) ClearAll(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()
	if _, err = tx.ExecContext(ctx, `DELETE FROM review_items`); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM review_log`); err != nil {
		return err
	}
	err = tx.Commit()
	return err
}

// Stats summarizes scheduling state for one set. Learning counts both
// learning and relearning items; ReviewDue counts non-new items whose next
// review is absent or has arrived.
func (s *Store) Stats(ctx context.Context, setID string, now time.Time) (model.SetStats, error) {
	stats := model.SetStats{SetID: setID}
	nowStr := now.UTC().Format(time.RFC3339Nano)
	row := s.db.QueryRowContext(ctx, `SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN state = 'new' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN state IN ('learning', 'relearning') THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN state != 'new' AND (next_review IS NULL OR next_review <= ?) THEN 1 ELSE 0 END), 0)
		FROM review_items WHERE set_id = ?`, nowStr, setID)
	if err := row.Scan(&stats.Total, &stats.New, &stats.Learning, &stats.ReviewDue); err != nil {
		return model.SetStats{}, err
	}
	row = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM review_log WHERE set_id = ?`, setID)
	if err := row.Scan(&stats.Logged); err != nil {
		return model.SetStats{}, err
	}
	return stats, nil
}

// AppendLog stores one immutable review log row.
func (s *Store) AppendLog(ctx context.Context, entry model.ReviewLogEntry) error {
	state, err := entry.State.MarshalText()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO review_log (session_id, set_id, card_id, quality, interval_days, ease_factor, state, reviewed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.SessionID,
		entry.SetID,
		entry.CardID,
		int(entry.Quality),
		entry.Interval,
		entry.EaseFactor,
		string(state),
		entry.ReviewedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// DueForecast buckets the set's items by days until their next review.
// Bucket i counts items whose next review falls within [now+i days,
// now+i+1 days); overdue and never-reviewed items land in bucket 0. The
// slice has length days.
func (s *Store) DueForecast(ctx context.Context, setID string, now time.Time, days int) ([]int, error) {
	if days <= 0 {
		return nil, nil
	}
	items, err := s.LoadAll(ctx, setID)
	if err != nil {
		return nil, err
	}
	buckets := make([]int, days)
	for _, item := range items {
		day := 0
		if item.NextReview != nil && item.NextReview.After(now) {
			day = int(item.NextReview.Sub(now).Hours() / 24)
		}
		if day >= days {
			continue
		}
		buckets[day]++
	}
	return buckets, nil
}

// SetIDs returns every set id with stored review items, sorted.
func (s *Store) SetIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT set_id FROM review_items ORDER BY set_id`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func scanItem(scan func(dest ...any) error) (model.ReviewItem, error) {
	var item model.ReviewItem
	var lastReview, nextReview sql.NullString
	var state string
	if err := scan(
		&item.SetID,
		&item.CardID,
		&item.EaseFactor,
		&item.Interval,
		&item.Repetitions,
		&lastReview,
		&nextReview,
		&state,
	); err != nil {
		return model.ReviewItem{}, err
	}
	if err := item.State.UnmarshalText([]byte(state)); err != nil {
		return model.ReviewItem{}, err
	}
	var err error
	if item.LastReview, err = parseTime(lastReview); err != nil {
		return model.ReviewItem{}, fmt.Errorf("last_review: %w", err)
	}
	if item.NextReview, err = parseTime(nextReview); err != nil {
		return model.ReviewItem{}, fmt.Errorf("next_review: %w", err)
	}
	return item, nil
}

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, v.String)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
