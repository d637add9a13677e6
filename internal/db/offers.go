package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/career-sim/internal/types"
)

// GetJobOffer retrieves a job offer by ID. Returns nil if not found.
func (db *DB) GetJobOffer(ctx context.Context, id uuid.UUID) (*types.JobOffer, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT id, session_id, profession, title, company, description, level, questions, status, created_at, updated_at
		 FROM job_offers WHERE id = $1`,
		id,
	)

	offer, err := scanOffer(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job offer: %w", err)
	}
	return offer, nil
}

// ListOffersByStatus retrieves a session's offers in the given status,
// newest first.
func (db *DB) ListOffersByStatus(ctx context.Context, sessionID uuid.UUID, status types.OfferStatus) ([]types.JobOffer, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, session_id, profession, title, company, description, level, questions, status, created_at, updated_at
		 FROM job_offers WHERE session_id = $1 AND status = $2
		 ORDER BY created_at DESC`,
		sessionID, status,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list job offers: %w", err)
	}
	defer rows.Close()

	var offers []types.JobOffer
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job offer: %w", err)
		}
		offers = append(offers, *offer)
	}
	return offers, rows.Err()
}

// upsertOffer writes a job offer inside tx, inserting or replacing by ID.
// Listing fields are immutable after insert; only status moves.
func upsertOffer(ctx context.Context, tx pgx.Tx, o *types.JobOffer) error {
	questionsJSON, err := json.Marshal(o.Questions)
	if err != nil {
		return fmt.Errorf("failed to marshal questions: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO job_offers (id, session_id, profession, title, company, description, level, questions, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO UPDATE SET
		     status = $9, updated_at = NOW()`,
		o.ID, o.SessionID, o.Profession, o.Title, o.Company, o.Description,
		o.Level, questionsJSON, o.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert job offer: %w", err)
	}
	return nil
}

func scanOffer(row rowScanner) (*types.JobOffer, error) {
	var o types.JobOffer
	var questionsJSON []byte
	err := row.Scan(
		&o.ID, &o.SessionID, &o.Profession, &o.Title, &o.Company,
		&o.Description, &o.Level, &questionsJSON, &o.Status,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(questionsJSON) > 0 {
		if err := json.Unmarshal(questionsJSON, &o.Questions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal questions: %w", err)
		}
	}
	return &o, nil
}
