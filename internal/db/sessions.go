package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/career-sim/internal/types"
)

// CreateSession inserts a new session row and returns it.
func (db *DB) CreateSession(ctx context.Context, playerID uuid.UUID, profession string) (*types.Session, error) {
	statsJSON, err := json.Marshal(types.SessionStats{})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal stats: %w", err)
	}

	row := db.pool.QueryRow(ctx,
		`INSERT INTO sessions (player_id, profession, level, xp_total, employment, stats, event_counter, version)
		 VALUES ($1, $2, 1, 0, 'unemployed', $3, 0, 1)
		 RETURNING id, player_id, profession, level, xp_total, employment, current_job_id, stats, event_counter, version, created_at, updated_at`,
		playerID, profession, statsJSON,
	)

	session, err := scanSession(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

// GetSession retrieves a session by ID. Returns nil if not found.
func (db *DB) GetSession(ctx context.Context, id uuid.UUID) (*types.Session, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT id, player_id, profession, level, xp_total, employment, current_job_id, stats, event_counter, version, created_at, updated_at
		 FROM sessions WHERE id = $1`,
		id,
	)

	session, err := scanSession(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// ListSessionsByPlayer retrieves all sessions owned by a player, newest
// first.
func (db *DB) ListSessionsByPlayer(ctx context.Context, playerID uuid.UUID) ([]types.Session, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, player_id, profession, level, xp_total, employment, current_job_id, stats, event_counter, version, created_at, updated_at
		 FROM sessions WHERE player_id = $1
		 ORDER BY created_at DESC`,
		playerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []types.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, *session)
	}
	return sessions, rows.Err()
}

// updateSession applies the session state inside tx with an optimistic
// version check. The caller's Version is the version the state was loaded
// at; the row is only written if it still matches.
func updateSession(ctx context.Context, tx pgx.Tx, s *types.Session) error {
	statsJSON, err := json.Marshal(s.Stats)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE sessions
		 SET level = $1, xp_total = $2, employment = $3, current_job_id = $4,
		     stats = $5, event_counter = $6, version = version + 1, updated_at = NOW()
		 WHERE id = $7 AND version = $8`,
		s.Level, s.XPTotal, s.Employment, s.CurrentJobID,
		statsJSON, s.EventCounter, s.ID, s.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConcurrencyConflict
	}
	return nil
}

// rowScanner covers both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*types.Session, error) {
	var s types.Session
	var statsJSON []byte
	err := row.Scan(
		&s.ID, &s.PlayerID, &s.Profession, &s.Level, &s.XPTotal,
		&s.Employment, &s.CurrentJobID, &statsJSON, &s.EventCounter,
		&s.Version, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(statsJSON) > 0 {
		if err := json.Unmarshal(statsJSON, &s.Stats); err != nil {
			return nil, fmt.Errorf("failed to unmarshal stats: %w", err)
		}
	}
	return &s, nil
}
