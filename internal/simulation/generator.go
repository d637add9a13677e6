package simulation

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/jonathan/career-sim/internal/gen"
	"github.com/jonathan/career-sim/internal/trigger"
	"github.com/jonathan/career-sim/internal/types"
)

var (
	companies = []string{"Initech", "Globex", "Hooli", "Umbrella Systems", "Vandelay Industries", "Stark Analytics"}

	seniorityByLevel = []string{"Junior", "", "Senior", "Staff", "Principal"}

	taskThemes = []struct {
		title    string
		concepts []string
	}{
		{"Design the data model for a new feature", []string{"schema", "constraints", "migration"}},
		{"Investigate a production incident", []string{"logs", "root cause", "mitigation"}},
		{"Review a teammate's change", []string{"correctness", "readability", "test coverage"}},
		{"Plan the next iteration of the service", []string{"scope", "dependencies", "estimate"}},
		{"Harden the deployment pipeline", []string{"rollback", "monitoring", "automation"}},
	}

	meetingTopics = map[types.MeetingType][]string{
		types.MeetingOneOnOne:        {"recent wins", "blockers", "growth areas"},
		types.MeetingTeam:            {"sprint progress", "upcoming work", "risks"},
		types.MeetingStakeholder:     {"project status", "timeline", "open questions"},
		types.MeetingPerformance:     {"goals", "feedback", "next steps"},
		types.MeetingProjectUpdate:   {"milestones", "scope changes", "dependencies"},
		types.MeetingFeedbackSession: {"what went wrong", "how to improve", "support needed"},
	}

	interviewPrompts = []struct {
		prompt   string
		concepts []string
	}{
		{"Walk me through how you would design a system for this role.", []string{"requirements", "tradeoffs", "scaling"}},
		{"Tell me about a difficult problem you solved recently.", []string{"problem", "approach", "outcome"}},
		{"How do you prioritize when everything is urgent?", []string{"impact", "communication", "deadlines"}},
		{"How do you handle disagreement with a teammate?", []string{"listening", "compromise", "escalation"}},
	}
)

// OfflineGenerator is a deterministic session.Generator. Content is assembled
// from canned templates, so a seeded run always produces the same career.
type OfflineGenerator struct {
	rng *rand.Rand
}

// NewOfflineGenerator creates an OfflineGenerator for the given seed.
func NewOfflineGenerator(seed int64) *OfflineGenerator {
	return &OfflineGenerator{rng: rand.New(rand.NewSource(seed))}
}

func seniorityFor(level int) string {
	idx := level - 1
	if idx >= len(seniorityByLevel) {
		idx = len(seniorityByLevel) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return seniorityByLevel[idx]
}

// GenerateJobListing fabricates a listing at the session's level.
func (g *OfflineGenerator) GenerateJobListing(_ context.Context, profession string, level int) (*gen.JobListingPayload, error) {
	company := companies[g.rng.Intn(len(companies))]
	title := profession
	if prefix := seniorityFor(level); prefix != "" {
		title = prefix + " " + profession
	}
	return &gen.JobListingPayload{
		Title:       title,
		Company:     company,
		Description: fmt.Sprintf("%s is hiring a %s to own a core part of the product.", company, title),
		Level:       level,
	}, nil
}

// GenerateInterviewQuestions fabricates an interview set, cycling through the
// canned prompt pool.
func (g *OfflineGenerator) GenerateInterviewQuestions(_ context.Context, _, _ string, _, count int) (*gen.QuestionsPayload, error) {
	start := g.rng.Intn(len(interviewPrompts))
	questions := make([]types.InterviewQuestion, 0, count)
	for i := 0; i < count; i++ {
		p := interviewPrompts[(start+i)%len(interviewPrompts)]
		questions = append(questions, types.InterviewQuestion{
			ID:     fmt.Sprintf("q%d", i+1),
			Prompt: p.prompt,
			Rubric: conceptRubric(p.concepts),
		})
	}
	return &gen.QuestionsPayload{Questions: questions}, nil
}

// GenerateTask fabricates a free-text work task. XP scales with complexity.
func (g *OfflineGenerator) GenerateTask(_ context.Context, profession string, level int, complexity trigger.Complexity, _ string) (*gen.TaskPayload, error) {
	theme := taskThemes[g.rng.Intn(len(taskThemes))]

	xp := 30
	switch complexity {
	case trigger.ComplexityMedium:
		xp = 45
	case trigger.ComplexityHard:
		xp = 65
	}
	xp += (level - 1) * 10

	return &gen.TaskPayload{
		Title:       theme.title,
		Description: fmt.Sprintf("As the team's %s, %s. Cover each aspect the team cares about.", profession, lowerFirst(theme.title)),
		Format:      types.FormatFreeText,
		XPValue:     xp,
		Rubric:      conceptRubric(theme.concepts),
	}, nil
}

// GenerateMeeting fabricates a meeting of the requested type.
func (g *OfflineGenerator) GenerateMeeting(_ context.Context, _ string, _ int, meetingType types.MeetingType, reason string) (*gen.MeetingPayload, error) {
	topics := meetingTopics[meetingType]
	if len(topics) == 0 {
		topics = []string{"agenda", "discussion", "action items"}
	}
	title := fmt.Sprintf("%s: %s", meetingLabel(meetingType), topics[0])
	if reason != "" {
		title = fmt.Sprintf("%s (%s)", title, reason)
	}
	return &gen.MeetingPayload{
		Title:       title,
		Type:        meetingType,
		Topics:      topics,
		OpeningLine: fmt.Sprintf("Thanks for joining. Let's start with %s.", topics[0]),
	}, nil
}

// GenerateMeetingResponse rates a turn by how substantive the player's input
// is. Longer, on-topic answers score higher; an occasional action item falls
// out of the non-trivial ones.
func (g *OfflineGenerator) GenerateMeetingResponse(_ context.Context, _ types.MeetingType, topic, playerInput string) (*gen.MeetingResponsePayload, error) {
	words := len(strings.Fields(playerInput))
	score := 50 + words*2
	if score > 95 {
		score = 95
	}

	payload := &gen.MeetingResponsePayload{
		Reply:             fmt.Sprintf("Good point on %s. Let's make sure that lands.", topic),
		ContributionScore: score,
	}
	if words >= 10 && g.rng.Float64() < 0.5 {
		payload.ActionItems = []string{fmt.Sprintf("Follow up on %s", topic)}
	}
	return payload, nil
}

func conceptRubric(concepts []string) types.Rubric {
	keyConcepts := make([]types.KeyConcept, len(concepts))
	for i, c := range concepts {
		keyConcepts[i] = types.KeyConcept{Concept: c, Weight: 1}
	}
	return types.Rubric{KeyConcepts: keyConcepts}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

func meetingLabel(t types.MeetingType) string {
	switch t {
	case types.MeetingOneOnOne:
		return "1:1 with your manager"
	case types.MeetingTeam:
		return "Team sync"
	case types.MeetingStakeholder:
		return "Stakeholder readout"
	case types.MeetingPerformance:
		return "Performance review"
	case types.MeetingProjectUpdate:
		return "Project update"
	case types.MeetingFeedbackSession:
		return "Feedback session"
	}
	return "Meeting"
}
