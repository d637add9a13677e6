package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/career-sim/internal/types"
)

// ListLedger retrieves a session's ledger entries in event order. The ledger
// is append-only; replaying the deltas reproduces the session's XP total.
func (db *DB) ListLedger(ctx context.Context, sessionID uuid.UUID) ([]types.LedgerEntry, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, session_id, event_id, xp_delta, reason, created_at
		 FROM ledger_entries WHERE session_id = $1
		 ORDER BY event_id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []types.LedgerEntry
	for rows.Next() {
		var e types.LedgerEntry
		if err := rows.Scan(&e.ID, &e.SessionID, &e.EventID, &e.XPDelta, &e.Reason, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// appendLedgerEntry inserts one ledger entry inside tx. Entries are never
// updated or deleted.
func appendLedgerEntry(ctx context.Context, tx pgx.Tx, e *types.LedgerEntry) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO ledger_entries (id, session_id, event_id, xp_delta, reason)
		 VALUES ($1, $2, $3, $4, $5)`,
		e.ID, e.SessionID, e.EventID, e.XPDelta, e.Reason,
	)
	if err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return nil
}
