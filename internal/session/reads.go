package session

import (
	"context"

	"github.com/google/uuid"

	"github.com/jonathan/career-sim/internal/types"
)

// Task loads a task for read access.
func (e *Engine) Task(ctx context.Context, id uuid.UUID) (*types.Task, error) {
	task, err := e.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, &NotFoundError{Resource: "task", ID: id.String()}
	}
	return task, nil
}

// Meeting loads a meeting for read access.
func (e *Engine) Meeting(ctx context.Context, id uuid.UUID) (*types.Meeting, error) {
	meeting, err := e.store.GetMeeting(ctx, id)
	if err != nil {
		return nil, err
	}
	if meeting == nil {
		return nil, &NotFoundError{Resource: "meeting", ID: id.String()}
	}
	return meeting, nil
}

// Offer loads a job offer for read access.
func (e *Engine) Offer(ctx context.Context, id uuid.UUID) (*types.JobOffer, error) {
	offer, err := e.store.GetJobOffer(ctx, id)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, &NotFoundError{Resource: "offer", ID: id.String()}
	}
	return offer, nil
}

// Offers returns the session's open listings.
func (e *Engine) Offers(ctx context.Context, sessionID uuid.UUID) ([]types.JobOffer, error) {
	if _, err := e.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return e.store.ListOffersByStatus(ctx, sessionID, types.OfferListed)
}

// Ledger returns the session's full XP history in event order.
func (e *Engine) Ledger(ctx context.Context, sessionID uuid.UUID) ([]types.LedgerEntry, error) {
	if _, err := e.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return e.store.ListLedger(ctx, sessionID)
}
