package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/career-sim/internal/types"
)

// GetTask retrieves a task by ID. Returns nil if not found.
func (db *DB) GetTask(ctx context.Context, id uuid.UUID) (*types.Task, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT id, session_id, title, description, format, rubric, status, attempts, origin, xp_value, created_at, updated_at
		 FROM tasks WHERE id = $1`,
		id,
	)

	task, err := scanTask(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// ListTasksByStatus retrieves a session's tasks in the given status, oldest
// first.
func (db *DB) ListTasksByStatus(ctx context.Context, sessionID uuid.UUID, status types.TaskStatus) ([]types.Task, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, session_id, title, description, format, rubric, status, attempts, origin, xp_value, created_at, updated_at
		 FROM tasks WHERE session_id = $1 AND status = $2
		 ORDER BY created_at ASC`,
		sessionID, status,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []types.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

// upsertTask writes a task inside tx, inserting or replacing by ID.
func upsertTask(ctx context.Context, tx pgx.Tx, t *types.Task) error {
	rubricJSON, err := json.Marshal(t.Rubric)
	if err != nil {
		return fmt.Errorf("failed to marshal rubric: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO tasks (id, session_id, title, description, format, rubric, status, attempts, origin, xp_value)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (id) DO UPDATE SET
		     status = $7, attempts = $8, updated_at = NOW()`,
		t.ID, t.SessionID, t.Title, t.Description, t.Format, rubricJSON,
		t.Status, t.Attempts, t.Origin, t.XPValue,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert task: %w", err)
	}
	return nil
}

func scanTask(row rowScanner) (*types.Task, error) {
	var t types.Task
	var rubricJSON []byte
	err := row.Scan(
		&t.ID, &t.SessionID, &t.Title, &t.Description, &t.Format,
		&rubricJSON, &t.Status, &t.Attempts, &t.Origin, &t.XPValue,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(rubricJSON) > 0 {
		if err := json.Unmarshal(rubricJSON, &t.Rubric); err != nil {
			return nil, fmt.Errorf("failed to unmarshal rubric: %w", err)
		}
	}
	return &t, nil
}
