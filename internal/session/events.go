package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/career-sim/internal/ledger"
	"github.com/jonathan/career-sim/internal/trigger"
	"github.com/jonathan/career-sim/internal/types"
)

// EventCheck is the result of one random-event roll.
type EventCheck struct {
	Promoted    bool            `json:"promoted"`
	XPAwarded   int             `json:"xp_awarded"`
	SwitchOffer *types.JobOffer `json:"switch_offer,omitempty"`
	Session     *types.Session  `json:"session"`
}

// CheckRandomEvents rolls the probabilistic events an employed session is
// exposed to: a promotion for sessions with a strong meeting record, and an
// unsolicited job-switch listing. Each check consumes one event; the
// promotion roll only ever fires when the eligibility gate is met.
func (e *Engine) CheckRandomEvents(ctx context.Context, sessionID uuid.UUID) (*EventCheck, error) {
	session, err := e.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Employment != types.StatusEmployed {
		return nil, &ValidationError{Message: "session is not employed"}
	}

	eventID := nextEvent(session)
	sourceID := fmt.Sprintf("events:%s:check:%d", session.ID, eventID)

	snap, err := e.snapshot(ctx, session)
	if err != nil {
		return nil, err
	}

	mutation := &types.Mutation{Session: session}
	check := &EventCheck{}

	if promo, fired := trigger.RollPromotion(snap, sourceID, e.rng); fired {
		inserted, err := e.store.InsertTriggerRecord(ctx, types.TriggerRecord{
			SessionID:     session.ID,
			SourceEventID: promo.SourceEventID,
			Kind:          string(promo.Kind),
		})
		if err != nil {
			return nil, err
		}
		if inserted {
			// A promotion is an XP grant to the next threshold; level
			// stays a pure function of the ledger.
			bonus := ledger.ThresholdFor(session.Level+1) - session.XPTotal
			if bonus > 0 {
				newTotal, _, err := ledger.Apply(session.XPTotal, bonus)
				if err != nil {
					return nil, err
				}
				session.XPTotal = newTotal
				session.Level = ledger.ComputeLevel(newTotal)
				mutation.LedgerEntries = append(mutation.LedgerEntries, ledgerEntry(session, eventID, bonus, "promotion"))
				check.Promoted = true
				check.XPAwarded = bonus
			}
		}
	}

	if !check.Promoted && e.rng.Float64() < switchOfferProbability {
		genCtx, cancel := context.WithTimeout(ctx, generationTimeout)
		defer cancel()

		payload, err := e.generator.GenerateJobListing(genCtx, session.Profession, session.Level+1)
		if err != nil {
			return nil, err
		}
		now := time.Now()
		offer := types.JobOffer{
			ID:          uuid.New(),
			SessionID:   session.ID,
			Profession:  session.Profession,
			Title:       payload.Title,
			Company:     payload.Company,
			Description: payload.Description,
			Level:       payload.Level,
			Status:      types.OfferListed,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if offer.Level <= 0 {
			offer.Level = session.Level + 1
		}
		mutation.UpsertOffers = append(mutation.UpsertOffers, offer)
		check.SwitchOffer = &mutation.UpsertOffers[0]
	}

	if err := e.store.Commit(ctx, mutation); err != nil {
		return nil, err
	}

	check.Session = session
	return check, nil
}
