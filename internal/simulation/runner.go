package simulation

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/career-sim/internal/observability"
	"github.com/jonathan/career-sim/internal/session"
	"github.com/jonathan/career-sim/internal/types"
)

// failRate is the chance the simulated player flubs a task submission.
const failRate = 0.2

// Options configures one simulated career run.
type Options struct {
	Profession string
	// Days is how many work cycles to simulate after getting hired. Each
	// day submits every active task, attends every meeting, and rolls the
	// random events once.
	Days    int
	Verbose bool
}

// Runner drives the session engine through a scripted career: job search,
// interview, then a fixed number of work days. The player answers from each
// rubric, so outcomes depend on the seeded dice, not on luck in the content.
type Runner struct {
	engine  *session.Engine
	printer *observability.Printer
	rng     *rand.Rand
}

// NewRunner creates a Runner. The printer receives all formatted output.
func NewRunner(engine *session.Engine, printer *observability.Printer, seed int64) *Runner {
	return &Runner{
		engine:  engine,
		printer: printer,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// Run executes the full scripted career and returns the final session state.
func (r *Runner) Run(ctx context.Context, opts Options) (*types.Session, error) {
	playerID := uuid.New()
	s, err := r.engine.CreateSession(ctx, playerID, opts.Profession)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	r.printer.PrintSession(s)

	if err := r.getHired(ctx, s.ID); err != nil {
		return nil, err
	}

	for day := 1; day <= opts.Days; day++ {
		if err := r.workDay(ctx, s.ID, opts.Verbose); err != nil {
			return nil, fmt.Errorf("day %d: %w", day, err)
		}
	}

	final, err := r.engine.GetSession(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	r.printer.PrintSession(final)

	entries, err := r.engine.Ledger(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	r.printer.PrintLedger(entries)

	return final, nil
}

// getHired runs job searches and interviews until one lands. The player
// answers every question from its rubric, so only the word-count floor and
// concept coverage decide the grade.
func (r *Runner) getHired(ctx context.Context, sessionID uuid.UUID) error {
	for {
		offers, err := r.engine.RequestJobSearch(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("job search failed: %w", err)
		}
		r.printer.PrintOffers(offers)

		offer, err := r.engine.StartInterview(ctx, sessionID, offers[0].ID)
		if err != nil {
			return fmt.Errorf("failed to start interview: %w", err)
		}

		answers := make([]types.InterviewAnswer, 0, len(offer.Questions))
		for _, q := range offer.Questions {
			answers = append(answers, types.InterviewAnswer{
				QuestionID: q.ID,
				Text:       freeTextAnswer(q.Rubric),
			})
		}

		outcome, err := r.engine.SubmitInterview(ctx, sessionID, offer.ID, answers)
		if err != nil {
			return fmt.Errorf("failed to submit interview: %w", err)
		}
		r.printer.PrintInterviewOutcome(outcome)

		if outcome.Result.Passed {
			return nil
		}
	}
}

func (r *Runner) workDay(ctx context.Context, sessionID uuid.UUID, verbose bool) error {
	view, err := r.engine.Dashboard(ctx, sessionID)
	if err != nil {
		return err
	}
	if verbose {
		r.printer.PrintDashboard(view)
	}

	for _, task := range view.Tasks {
		answer := answerFor(task)
		if r.rng.Float64() < failRate {
			answer = types.Answer{Text: "not sure"}
		}
		outcome, err := r.engine.SubmitTask(ctx, task.ID, answer)
		if err != nil {
			return fmt.Errorf("failed to submit task %s: %w", task.ID, err)
		}
		if verbose {
			r.printer.PrintTaskOutcome(outcome)
		}
	}

	for _, meeting := range view.Meetings {
		if err := r.attendMeeting(ctx, meeting.ID, verbose); err != nil {
			return err
		}
	}

	check, err := r.engine.CheckRandomEvents(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to check events: %w", err)
	}
	r.printer.PrintEventCheck(check)
	return nil
}

func (r *Runner) attendMeeting(ctx context.Context, meetingID uuid.UUID, verbose bool) error {
	meeting, err := r.engine.StartMeeting(ctx, meetingID)
	if err != nil {
		return fmt.Errorf("failed to start meeting: %w", err)
	}

	for _, topic := range meeting.Topics {
		text := fmt.Sprintf("On %s, here is where things stand and what I plan to do about it next week.", topic)
		if _, err := r.engine.RespondMeeting(ctx, meetingID, text); err != nil {
			return fmt.Errorf("failed to respond in meeting: %w", err)
		}
	}

	outcome, err := r.engine.CompleteMeeting(ctx, meetingID)
	if err != nil {
		return fmt.Errorf("failed to complete meeting: %w", err)
	}
	if verbose {
		r.printer.PrintMeetingOutcome(outcome)
	}
	return nil
}

// answerFor builds the ideal answer for the task's format straight from its
// rubric.
func answerFor(task types.Task) types.Answer {
	rubric := task.Rubric
	switch task.Format {
	case types.FormatMultipleChoice:
		choice := rubric.CorrectChoice
		return types.Answer{ChoiceIndex: &choice}
	case types.FormatFillInBlank:
		return types.Answer{Blanks: rubric.Blanks}
	case types.FormatMatching:
		pairs := make(map[string]string, len(rubric.Pairs))
		for _, p := range rubric.Pairs {
			pairs[p.Left] = p.Right
		}
		return types.Answer{Pairs: pairs}
	case types.FormatCodeReview:
		return types.Answer{DefectsFound: rubric.Defects}
	case types.FormatPrioritization:
		return types.Answer{Ordering: rubric.ReferenceOrder}
	default:
		return types.Answer{Text: freeTextAnswer(rubric)}
	}
}

// freeTextAnswer writes a prose answer covering every key concept, padded
// well past the grading word-count floor.
func freeTextAnswer(rubric types.Rubric) string {
	var sb strings.Builder
	for _, kc := range rubric.KeyConcepts {
		sb.WriteString(fmt.Sprintf("I would make sure the %s is handled properly and verified. ", kc.Concept))
	}
	sb.WriteString("Throughout the work I would keep stakeholders informed and write down every decision we make along the way.")
	return sb.String()
}
