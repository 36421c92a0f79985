package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// LedgerAction names a change recorded in the ledger audit log.
type LedgerAction string

const (
	LedgerActionAdded   LedgerAction = "added"
	LedgerActionRemoved LedgerAction = "removed"
)

// LedgerEvent is one audit row.
type LedgerEvent struct {
	ID         int64
	Catalog    string
	Action     LedgerAction
	Path       string
	Sequence   int
	RecordedAt time.Time
}

// RecordLedgerEvents appends audit rows in a single transaction.
func (s *Store) RecordLedgerEvents(ctx context.Context, events []LedgerEvent) error {
	if len(events) == 0 {
		return nil
	}
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin ledger events tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO ledger_events (catalog, action, path, sequence, recorded_at) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare ledger event: %w", err)
		}
		defer stmt.Close()

		now := time.Now()
		for _, event := range events {
			recorded := event.RecordedAt
			if recorded.IsZero() {
				recorded = now
			}
			var seq any
			if event.Sequence > 0 {
				seq = event.Sequence
			}
			if _, err := stmt.ExecContext(ctx, event.Catalog, string(event.Action), event.Path, seq, formatTime(recorded)); err != nil {
				return fmt.Errorf("insert ledger event: %w", err)
			}
		}
		return tx.Commit()
	})
}

// ListLedgerEvents returns a catalog's audit rows, newest first. A limit <= 0
// returns every row.
func (s *Store) ListLedgerEvents(ctx context.Context, catalog string, limit int) ([]LedgerEvent, error) {
	query := `SELECT id, catalog, action, path, sequence, recorded_at FROM ledger_events WHERE catalog = ? ORDER BY id DESC`
	args := []any{catalog}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ledger events: %w", err)
	}
	defer rows.Close()

	var events []LedgerEvent
	for rows.Next() {
		var (
			event    LedgerEvent
			action   string
			sequence sql.NullInt64
			recorded sql.NullString
		)
		if err := rows.Scan(&event.ID, &event.Catalog, &action, &event.Path, &sequence, &recorded); err != nil {
			return nil, fmt.Errorf("scan ledger event: %w", err)
		}
		event.Action = LedgerAction(action)
		event.Sequence = int(sequence.Int64)
		event.RecordedAt = parseTime(recorded)
		events = append(events, event)
	}
	return events, rows.Err()
}
