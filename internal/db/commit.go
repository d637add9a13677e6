package db

import (
	"context"
	"fmt"

	"github.com/jonathan/career-sim/internal/types"
)

// Commit applies one engine transition atomically. The session update
// carries the optimistic version check; if it loses the race the whole
// transaction rolls back with ErrConcurrencyConflict and nothing else is
// written.
func (db *DB) Commit(ctx context.Context, m *types.Mutation) error {
	if m == nil || m.Session == nil {
		return fmt.Errorf("mutation requires a session")
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := updateSession(ctx, tx, m.Session); err != nil {
		return err
	}

	for i := range m.UpsertTasks {
		if err := upsertTask(ctx, tx, &m.UpsertTasks[i]); err != nil {
			return err
		}
	}
	for i := range m.UpsertMeetings {
		if err := upsertMeeting(ctx, tx, &m.UpsertMeetings[i]); err != nil {
			return err
		}
	}
	for i := range m.UpsertOffers {
		if err := upsertOffer(ctx, tx, &m.UpsertOffers[i]); err != nil {
			return err
		}
	}
	for i := range m.LedgerEntries {
		if err := appendLedgerEntry(ctx, tx, &m.LedgerEntries[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
