package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/career-sim/internal/types"
)

// InsertTriggerRecord writes the idempotency marker for a trigger firing.
// Returns true if the record was inserted, false if it already existed — a
// false return means the trigger already fired for this source event and the
// caller must skip its side effects.
func (db *DB) InsertTriggerRecord(ctx context.Context, rec types.TriggerRecord) (bool, error) {
	tag, err := db.pool.Exec(ctx,
		`INSERT INTO trigger_records (session_id, source_event_id, kind)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (session_id, source_event_id, kind) DO NOTHING`,
		rec.SessionID, rec.SourceEventID, rec.Kind,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert trigger record: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListTriggerRecords retrieves all trigger records for a session, oldest
// first. Diagnostic surface; the engine only ever inserts.
func (db *DB) ListTriggerRecords(ctx context.Context, sessionID uuid.UUID) ([]types.TriggerRecord, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT session_id, source_event_id, kind, created_at
		 FROM trigger_records WHERE session_id = $1
		 ORDER BY created_at ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list trigger records: %w", err)
	}
	defer rows.Close()

	var records []types.TriggerRecord
	for rows.Next() {
		var r types.TriggerRecord
		if err := rows.Scan(&r.SessionID, &r.SourceEventID, &r.Kind, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trigger record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
