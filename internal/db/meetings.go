package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/career-sim/internal/types"
)

// GetMeeting retrieves a meeting by ID. Returns nil if not found.
func (db *DB) GetMeeting(ctx context.Context, id uuid.UUID) (*types.Meeting, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT id, session_id, type, status, title, topics, score, responses, score_total, action_items, created_at, updated_at
		 FROM meetings WHERE id = $1`,
		id,
	)

	meeting, err := scanMeeting(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get meeting: %w", err)
	}
	return meeting, nil
}

// ListMeetingsByStatus retrieves a session's meetings in the given status,
// oldest first.
func (db *DB) ListMeetingsByStatus(ctx context.Context, sessionID uuid.UUID, status types.MeetingStatus) ([]types.Meeting, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, session_id, type, status, title, topics, score, responses, score_total, action_items, created_at, updated_at
		 FROM meetings WHERE session_id = $1 AND status = $2
		 ORDER BY created_at ASC`,
		sessionID, status,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list meetings: %w", err)
	}
	defer rows.Close()

	var meetings []types.Meeting
	for rows.Next() {
		meeting, err := scanMeeting(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meeting: %w", err)
		}
		meetings = append(meetings, *meeting)
	}
	return meetings, rows.Err()
}

// upsertMeeting writes a meeting inside tx, inserting or replacing by ID.
func upsertMeeting(ctx context.Context, tx pgx.Tx, m *types.Meeting) error {
	topicsJSON, err := json.Marshal(m.Topics)
	if err != nil {
		return fmt.Errorf("failed to marshal topics: %w", err)
	}
	actionItemsJSON, err := json.Marshal(m.ActionItems)
	if err != nil {
		return fmt.Errorf("failed to marshal action items: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO meetings (id, session_id, type, status, title, topics, score, responses, score_total, action_items)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (id) DO UPDATE SET
		     status = $4, score = $7, responses = $8, score_total = $9, action_items = $10, updated_at = NOW()`,
		m.ID, m.SessionID, m.Type, m.Status, m.Title, topicsJSON, m.Score, m.Responses, m.ScoreTotal, actionItemsJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert meeting: %w", err)
	}
	return nil
}

func scanMeeting(row rowScanner) (*types.Meeting, error) {
	var m types.Meeting
	var topicsJSON, actionItemsJSON []byte
	err := row.Scan(
		&m.ID, &m.SessionID, &m.Type, &m.Status, &m.Title,
		&topicsJSON, &m.Score, &m.Responses, &m.ScoreTotal, &actionItemsJSON,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(topicsJSON) > 0 {
		if err := json.Unmarshal(topicsJSON, &m.Topics); err != nil {
			return nil, fmt.Errorf("failed to unmarshal topics: %w", err)
		}
	}
	if len(actionItemsJSON) > 0 {
		if err := json.Unmarshal(actionItemsJSON, &m.ActionItems); err != nil {
			return nil, fmt.Errorf("failed to unmarshal action items: %w", err)
		}
	}
	return &m, nil
}
