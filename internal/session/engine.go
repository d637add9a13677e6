// Package session implements the session state machine: the coordinator that
// sequences grading, the XP ledger, trigger evaluation, content generation,
// and dashboard replenishment around every inbound event, and persists each
// transition as a single conditional commit.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/career-sim/internal/dashboard"
	"github.com/jonathan/career-sim/internal/gen"
	"github.com/jonathan/career-sim/internal/grading"
	"github.com/jonathan/career-sim/internal/trigger"
	"github.com/jonathan/career-sim/internal/types"
)

const (
	// interviewQuestionCount is the size of a generated interview set.
	interviewQuestionCount = 3

	// jobSearchListings is how many listings one job search produces.
	jobSearchListings = 3

	// generationTimeout bounds the generation phase of one transition.
	generationTimeout = 60 * time.Second

	// switchOfferProbability is the chance a random-event check surfaces a
	// job-switch listing for an employed session.
	switchOfferProbability = 0.1
)

// Store is the persistence surface the engine drives. Reads happen at the
// start of a transition; all writes land through a single Commit carrying the
// optimistic version check.
type Store interface {
	CreateSession(ctx context.Context, playerID uuid.UUID, profession string) (*types.Session, error)
	GetSession(ctx context.Context, id uuid.UUID) (*types.Session, error)
	GetTask(ctx context.Context, id uuid.UUID) (*types.Task, error)
	GetMeeting(ctx context.Context, id uuid.UUID) (*types.Meeting, error)
	GetJobOffer(ctx context.Context, id uuid.UUID) (*types.JobOffer, error)
	ListTasksByStatus(ctx context.Context, sessionID uuid.UUID, status types.TaskStatus) ([]types.Task, error)
	ListMeetingsByStatus(ctx context.Context, sessionID uuid.UUID, status types.MeetingStatus) ([]types.Meeting, error)
	ListOffersByStatus(ctx context.Context, sessionID uuid.UUID, status types.OfferStatus) ([]types.JobOffer, error)
	ListLedger(ctx context.Context, sessionID uuid.UUID) ([]types.LedgerEntry, error)
	InsertTriggerRecord(ctx context.Context, rec types.TriggerRecord) (bool, error)
	Commit(ctx context.Context, m *types.Mutation) error
}

// Generator is the content-generation surface the engine consumes. The gen
// package's client satisfies it; tests script it.
type Generator interface {
	GenerateJobListing(ctx context.Context, profession string, level int) (*gen.JobListingPayload, error)
	GenerateInterviewQuestions(ctx context.Context, profession, title string, level, count int) (*gen.QuestionsPayload, error)
	GenerateTask(ctx context.Context, profession string, level int, complexity trigger.Complexity, performance string) (*gen.TaskPayload, error)
	GenerateMeeting(ctx context.Context, profession string, level int, meetingType types.MeetingType, reason string) (*gen.MeetingPayload, error)
	GenerateMeetingResponse(ctx context.Context, meetingType types.MeetingType, topic, playerInput string) (*gen.MeetingResponsePayload, error)
}

// Engine owns session lifecycle transitions. It holds no per-session state
// between requests; every transition loads fresh state, mutates it locally,
// and writes back under the store's version check.
type Engine struct {
	store     Store
	generator Generator
	grader    *grading.Policy
	rng       trigger.Rand
}

// NewEngine creates an Engine. The judge may be nil, in which case free-text
// grading falls back to pure concept coverage.
func NewEngine(store Store, generator Generator, judge grading.Judge, rng trigger.Rand) *Engine {
	return &Engine{
		store:     store,
		generator: generator,
		grader:    grading.NewPolicy(judge),
		rng:       rng,
	}
}

// CreateSession starts a new career run for a player.
func (e *Engine) CreateSession(ctx context.Context, playerID uuid.UUID, profession string) (*types.Session, error) {
	req := types.CreateSessionRequest{Profession: profession}
	if err := req.Validate(); err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}
	return e.store.CreateSession(ctx, playerID, profession)
}

// GetSession loads a session for read access.
func (e *Engine) GetSession(ctx context.Context, id uuid.UUID) (*types.Session, error) {
	session, err := e.store.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, &NotFoundError{Resource: "session", ID: id.String()}
	}
	return session, nil
}

// DashboardView is the player's active work queue.
type DashboardView struct {
	Session  *types.Session  `json:"session"`
	Tasks    []types.Task    `json:"tasks"`
	Meetings []types.Meeting `json:"meetings"`
}

// Dashboard returns the session's active tasks and scheduled or active
// meetings. Read-only; replenishment happens on mutation paths.
func (e *Engine) Dashboard(ctx context.Context, sessionID uuid.UUID) (*DashboardView, error) {
	session, err := e.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	tasks, err := e.store.ListTasksByStatus(ctx, sessionID, types.TaskActive)
	if err != nil {
		return nil, err
	}
	meetings, err := e.activeMeetings(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return &DashboardView{Session: session, Tasks: tasks, Meetings: meetings}, nil
}

// snapshot builds the read-only view trigger evaluation and replenishment
// run over.
func (e *Engine) snapshot(ctx context.Context, s *types.Session) (trigger.Snapshot, error) {
	tasks, err := e.store.ListTasksByStatus(ctx, s.ID, types.TaskActive)
	if err != nil {
		return trigger.Snapshot{}, err
	}
	meetings, err := e.activeMeetings(ctx, s.ID)
	if err != nil {
		return trigger.Snapshot{}, err
	}

	return trigger.Snapshot{
		SessionID:             s.ID,
		Level:                 s.Level,
		ActiveTasks:           len(tasks),
		ActiveMeetings:        len(meetings),
		TasksSinceLastMeeting: s.Stats.TasksSinceLastMeeting,
		MeetingsCompleted:     s.Stats.MeetingsCompleted,
		MeetingScoreAvg:       s.Stats.MeetingScoreAvg,
	}, nil
}

// activeMeetings returns meetings still demanding attention: scheduled plus
// active.
func (e *Engine) activeMeetings(ctx context.Context, sessionID uuid.UUID) ([]types.Meeting, error) {
	scheduled, err := e.store.ListMeetingsByStatus(ctx, sessionID, types.MeetingScheduled)
	if err != nil {
		return nil, err
	}
	active, err := e.store.ListMeetingsByStatus(ctx, sessionID, types.MeetingActive)
	if err != nil {
		return nil, err
	}
	return append(scheduled, active...), nil
}

// processPending turns trigger intents into generated tasks and meetings.
// Each intent writes its trigger record first (write-ahead); an intent whose
// record already exists is skipped entirely. Generation runs in parallel and
// any failure aborts the whole transition before commit.
func (e *Engine) processPending(ctx context.Context, s *types.Session, pending []trigger.PendingGeneration) ([]types.Task, []types.Meeting, error) {
	var toGenerate []trigger.PendingGeneration
	for _, p := range pending {
		inserted, err := e.store.InsertTriggerRecord(ctx, types.TriggerRecord{
			SessionID:     s.ID,
			SourceEventID: p.SourceEventID,
			Kind:          string(p.Kind),
		})
		if err != nil {
			return nil, nil, err
		}
		if inserted {
			toGenerate = append(toGenerate, p)
		}
	}
	if len(toGenerate) == 0 {
		return nil, nil, nil
	}

	genCtx, cancel := context.WithTimeout(ctx, generationTimeout)
	defer cancel()

	var mu sync.Mutex
	var tasks []types.Task
	var meetings []types.Meeting

	g, genCtx := errgroup.WithContext(genCtx)
	for _, p := range toGenerate {
		g.Go(func() error {
			switch p.Kind {
			case trigger.KindFeedbackMeeting, trigger.KindReviewMeeting, trigger.KindReplenishMeeting:
				meeting, err := e.generateMeeting(genCtx, s, p)
				if err != nil {
					return err
				}
				mu.Lock()
				meetings = append(meetings, *meeting)
				mu.Unlock()

			case trigger.KindFollowupTasks, trigger.KindReplenishTask:
				generated, err := e.generateTasks(genCtx, s, p)
				if err != nil {
					return err
				}
				mu.Lock()
				tasks = append(tasks, generated...)
				mu.Unlock()

			default:
				return fmt.Errorf("unhandled trigger kind %q", p.Kind)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return tasks, meetings, nil
}

func (e *Engine) generateMeeting(ctx context.Context, s *types.Session, p trigger.PendingGeneration) (*types.Meeting, error) {
	payload, err := e.generator.GenerateMeeting(ctx, s.Profession, s.Level, p.MeetingType, reasonFor(p.Kind))
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &types.Meeting{
		ID:        uuid.New(),
		SessionID: s.ID,
		Type:      payload.Type,
		Status:    types.MeetingScheduled,
		Title:     payload.Title,
		Topics:    payload.Topics,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (e *Engine) generateTasks(ctx context.Context, s *types.Session, p trigger.PendingGeneration) ([]types.Task, error) {
	count := p.TaskCount
	if count <= 0 {
		count = 1
	}
	origin := types.OriginGenerated
	if p.Kind == trigger.KindFollowupTasks {
		origin = types.OriginMeetingFollowup
	}
	complexity := p.Complexity
	if complexity == "" {
		complexity = trigger.ComplexityMedium
	}

	tasks := make([]types.Task, 0, count)
	for i := 0; i < count; i++ {
		payload, err := e.generator.GenerateTask(ctx, s.Profession, s.Level, complexity, performanceSummary(s))
		if err != nil {
			return nil, err
		}
		now := time.Now()
		tasks = append(tasks, types.Task{
			ID:          uuid.New(),
			SessionID:   s.ID,
			Title:       payload.Title,
			Description: payload.Description,
			Format:      payload.Format,
			Rubric:      payload.Rubric,
			Status:      types.TaskActive,
			Origin:      origin,
			XPValue:     payload.XPValue,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	return tasks, nil
}

// replenish fills dashboard deficits left unsatisfied by this cycle's
// triggers, then generates for whatever still fired. The snapshot reflects
// the transition's local adjustments, not just stored state.
func (e *Engine) replenish(ctx context.Context, s *types.Session, snap trigger.Snapshot, sourceEventID string, newTasks []types.Task, newMeetings []types.Meeting) ([]types.Task, []types.Meeting, error) {
	pending := dashboard.Replenish(snap, len(newTasks), len(newMeetings), sourceEventID, e.rng)
	tasks, meetings, err := e.processPending(ctx, s, pending)
	if err != nil {
		return nil, nil, err
	}
	return append(newTasks, tasks...), append(newMeetings, meetings...), nil
}

// reasonFor describes the trigger for the meeting-generation prompt.
func reasonFor(kind trigger.Kind) string {
	switch kind {
	case trigger.KindFeedbackMeeting:
		return "a task failed repeatedly and needs a feedback conversation"
	case trigger.KindReviewMeeting:
		return "a streak of completed tasks warrants a review"
	default:
		return ""
	}
}

// performanceSummary condenses recent stats for the task-generation prompt.
func performanceSummary(s *types.Session) string {
	return fmt.Sprintf("%d tasks completed, %d failed, %d meetings attended averaging %.0f",
		s.Stats.TasksCompleted, s.Stats.TasksFailed, s.Stats.MeetingsAttended, s.Stats.MeetingScoreAvg)
}

// nextEvent bumps the session's monotonic event counter and returns the new
// value. Every inbound event consumes exactly one.
func nextEvent(s *types.Session) int64 {
	s.EventCounter++
	return s.EventCounter
}

// ledgerEntry builds one append-only XP record stamped with an event ID.
func ledgerEntry(s *types.Session, eventID int64, delta int, reason string) types.LedgerEntry {
	return types.LedgerEntry{
		ID:        uuid.New(),
		SessionID: s.ID,
		EventID:   eventID,
		XPDelta:   delta,
		Reason:    reason,
		CreatedAt: time.Now(),
	}
}
