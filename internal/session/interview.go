package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/career-sim/internal/grading"
	"github.com/jonathan/career-sim/internal/types"
)

// RequestJobSearch generates fresh job listings for the session. Allowed
// while unemployed (first job) or employed (browsing a switch); not while an
// interview is in flight.
func (e *Engine) RequestJobSearch(ctx context.Context, sessionID uuid.UUID) ([]types.JobOffer, error) {
	session, err := e.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Employment == types.StatusInterviewing {
		return nil, &ValidationError{Message: "cannot search for jobs while an interview is in progress"}
	}

	nextEvent(session)

	genCtx, cancel := context.WithTimeout(ctx, generationTimeout)
	defer cancel()

	offers := make([]types.JobOffer, jobSearchListings)
	g, genCtx := errgroup.WithContext(genCtx)
	for i := 0; i < jobSearchListings; i++ {
		g.Go(func() error {
			payload, err := e.generator.GenerateJobListing(genCtx, session.Profession, session.Level)
			if err != nil {
				return err
			}
			now := time.Now()
			offers[i] = types.JobOffer{
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
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range offers {
		if offers[i].Level <= 0 {
			offers[i].Level = session.Level
		}
	}

	mutation := &types.Mutation{Session: session, UpsertOffers: offers}
	if err := e.store.Commit(ctx, mutation); err != nil {
		return nil, err
	}
	return offers, nil
}

// StartInterview begins interviewing against a listed offer: questions are
// generated and the session moves to INTERVIEWING.
func (e *Engine) StartInterview(ctx context.Context, sessionID, offerID uuid.UUID) (*types.JobOffer, error) {
	session, err := e.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Employment == types.StatusInterviewing {
		return nil, &ValidationError{Message: "an interview is already in progress"}
	}

	offer, err := e.offerForSession(ctx, session, offerID)
	if err != nil {
		return nil, err
	}
	if offer.Status != types.OfferListed {
		return nil, &ValidationError{Message: "offer is not open for interviewing"}
	}

	nextEvent(session)

	genCtx, cancel := context.WithTimeout(ctx, generationTimeout)
	defer cancel()

	payload, err := e.generator.GenerateInterviewQuestions(genCtx, offer.Profession, offer.Title, offer.Level, interviewQuestionCount)
	if err != nil {
		return nil, err
	}

	offer.Questions = payload.Questions
	offer.Status = types.OfferInterviewing
	session.Employment = types.StatusInterviewing

	mutation := &types.Mutation{Session: session, UpsertOffers: []types.JobOffer{*offer}}
	if err := e.store.Commit(ctx, mutation); err != nil {
		return nil, err
	}
	return offer, nil
}

// InterviewOutcome is the result of grading a submitted interview.
type InterviewOutcome struct {
	Result       grading.InterviewResult `json:"result"`
	Session      *types.Session          `json:"session"`
	Offer        *types.JobOffer         `json:"offer"`
	InitialTasks []types.Task            `json:"initial_tasks,omitempty"`
	Meetings     []types.Meeting         `json:"meetings,omitempty"`
}

// SubmitInterview grades every answer and settles the interview: a passing
// average employs the player at the offer and seeds the dashboard with
// initial work; a failing one returns the session to its pre-interview
// employment. XP is unaffected either way.
func (e *Engine) SubmitInterview(ctx context.Context, sessionID, offerID uuid.UUID, answers []types.InterviewAnswer) (*InterviewOutcome, error) {
	session, err := e.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Employment != types.StatusInterviewing {
		return nil, &ValidationError{Message: "no interview is in progress"}
	}

	offer, err := e.offerForSession(ctx, session, offerID)
	if err != nil {
		return nil, err
	}
	if offer.Status != types.OfferInterviewing {
		return nil, &ValidationError{Message: "offer is not being interviewed"}
	}

	byQuestion, err := matchAnswers(offer.Questions, answers)
	if err != nil {
		return nil, err
	}

	// Grade sequentially; per-question order is the question order.
	results := make([]grading.Result, 0, len(offer.Questions))
	for _, q := range offer.Questions {
		answer := types.Answer{Text: byQuestion[q.ID]}
		result, err := e.grader.GradeAnswer(ctx, types.FormatFreeText, q.Prompt, answer, q.Rubric)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	interview := grading.GradeInterview(results)

	nextEvent(session)

	outcome := &InterviewOutcome{Result: interview, Offer: offer}

	if interview.Passed {
		offer.Status = types.OfferAccepted
		session.Employment = types.StatusEmployed
		session.CurrentJobID = &offer.ID

		// Seed the dashboard for the new job.
		snap, err := e.snapshot(ctx, session)
		if err != nil {
			return nil, err
		}
		tasks, meetings, err := e.replenish(ctx, session, snap, interviewEventID(offer.ID), nil, nil)
		if err != nil {
			return nil, err
		}
		outcome.InitialTasks = tasks
		outcome.Meetings = meetings

		mutation := &types.Mutation{
			Session:        session,
			UpsertOffers:   []types.JobOffer{*offer},
			UpsertTasks:    tasks,
			UpsertMeetings: meetings,
		}
		if err := e.store.Commit(ctx, mutation); err != nil {
			return nil, err
		}
	} else {
		offer.Status = types.OfferRejected
		session.Stats.InterviewsFailed++
		if session.CurrentJobID != nil {
			// Failed switch attempt; the current job survives.
			session.Employment = types.StatusEmployed
		} else {
			session.Employment = types.StatusUnemployed
		}

		mutation := &types.Mutation{Session: session, UpsertOffers: []types.JobOffer{*offer}}
		if err := e.store.Commit(ctx, mutation); err != nil {
			return nil, err
		}
	}

	outcome.Session = session
	return outcome, nil
}

// AcceptOffer accepts a job-switch listing surfaced by a random-event check:
// the employed session re-enters INTERVIEWING against the new offer, with
// all progression carried forward.
func (e *Engine) AcceptOffer(ctx context.Context, sessionID, offerID uuid.UUID) (*types.JobOffer, error) {
	session, err := e.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Employment != types.StatusEmployed {
		return nil, &ValidationError{Message: "only an employed session can pursue a job switch"}
	}
	return e.StartInterview(ctx, sessionID, offerID)
}

// offerForSession loads an offer and checks ownership.
func (e *Engine) offerForSession(ctx context.Context, s *types.Session, offerID uuid.UUID) (*types.JobOffer, error) {
	offer, err := e.store.GetJobOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if offer == nil || offer.SessionID != s.ID {
		return nil, &NotFoundError{Resource: "job offer", ID: offerID.String()}
	}
	return offer, nil
}

// matchAnswers pairs submitted answers to questions, rejecting unknown
// question IDs, duplicates, and unanswered questions before any grading.
func matchAnswers(questions []types.InterviewQuestion, answers []types.InterviewAnswer) (map[string]string, error) {
	known := make(map[string]bool, len(questions))
	for _, q := range questions {
		known[q.ID] = true
	}

	byQuestion := make(map[string]string, len(answers))
	for _, a := range answers {
		if !known[a.QuestionID] {
			return nil, &ValidationError{Message: "answer references unknown question " + a.QuestionID}
		}
		if _, dup := byQuestion[a.QuestionID]; dup {
			return nil, &ValidationError{Message: "duplicate answer for question " + a.QuestionID}
		}
		byQuestion[a.QuestionID] = a.Text
	}
	if len(byQuestion) != len(questions) {
		return nil, &ValidationError{Message: "every question requires exactly one answer"}
	}
	return byQuestion, nil
}

// interviewEventID keys the initial-dashboard generation for an accepted
// offer, so a retried submit cannot seed the dashboard twice.
func interviewEventID(offerID uuid.UUID) string {
	return "offer:" + offerID.String() + ":accepted"
}
