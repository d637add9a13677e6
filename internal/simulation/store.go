// Package simulation provides an offline harness for the session engine: an
// in-memory store and a seeded content generator, so a full career run can
// execute without a database or an LLM key.
package simulation

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/career-sim/internal/db"
	"github.com/jonathan/career-sim/internal/types"
)

// MemStore is an in-memory session.Store. It honors the same optimistic
// version check as the PostgreSQL store, so engine transitions behave
// identically offline.
type MemStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]types.Session
	tasks    map[uuid.UUID]types.Task
	meetings map[uuid.UUID]types.Meeting
	offers   map[uuid.UUID]types.JobOffer
	ledger   map[uuid.UUID][]types.LedgerEntry
	records  map[string]struct{}

	// order assigns each entity an insertion sequence so listings are
	// deterministic even when timestamps collide.
	order   map[uuid.UUID]int
	nextSeq int
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		sessions: make(map[uuid.UUID]types.Session),
		tasks:    make(map[uuid.UUID]types.Task),
		meetings: make(map[uuid.UUID]types.Meeting),
		offers:   make(map[uuid.UUID]types.JobOffer),
		ledger:   make(map[uuid.UUID][]types.LedgerEntry),
		records:  make(map[string]struct{}),
		order:    make(map[uuid.UUID]int),
	}
}

func recordKey(rec types.TriggerRecord) string {
	return fmt.Sprintf("%s|%s|%s", rec.SessionID, rec.SourceEventID, rec.Kind)
}

// CreateSession inserts a fresh unemployed session for the player.
func (s *MemStore) CreateSession(_ context.Context, playerID uuid.UUID, profession string) (*types.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	session := types.Session{
		ID:         uuid.New(),
		PlayerID:   playerID,
		Profession: profession,
		Level:      1,
		Employment: types.StatusUnemployed,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.sessions[session.ID] = session
	return &session, nil
}

// GetSession retrieves a session by ID. Returns nil if not found.
func (s *MemStore) GetSession(_ context.Context, id uuid.UUID) (*types.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	return &session, nil
}

// GetTask retrieves a task by ID. Returns nil if not found.
func (s *MemStore) GetTask(_ context.Context, id uuid.UUID) (*types.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, nil
	}
	return &task, nil
}

// GetMeeting retrieves a meeting by ID. Returns nil if not found.
func (s *MemStore) GetMeeting(_ context.Context, id uuid.UUID) (*types.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	meeting, ok := s.meetings[id]
	if !ok {
		return nil, nil
	}
	return &meeting, nil
}

// GetJobOffer retrieves a job offer by ID. Returns nil if not found.
func (s *MemStore) GetJobOffer(_ context.Context, id uuid.UUID) (*types.JobOffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	offer, ok := s.offers[id]
	if !ok {
		return nil, nil
	}
	return &offer, nil
}

// ListTasksByStatus returns the session's tasks in the given status, oldest
// first.
func (s *MemStore) ListTasksByStatus(_ context.Context, sessionID uuid.UUID, status types.TaskStatus) ([]types.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []types.Task
	for _, t := range s.tasks {
		if t.SessionID == sessionID && t.Status == status {
			out = append(out, t)
		}
	}
	sortByInsertion(s.order, out, func(t types.Task) uuid.UUID { return t.ID })
	return out, nil
}

// ListMeetingsByStatus returns the session's meetings in the given status,
// oldest first.
func (s *MemStore) ListMeetingsByStatus(_ context.Context, sessionID uuid.UUID, status types.MeetingStatus) ([]types.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []types.Meeting
	for _, m := range s.meetings {
		if m.SessionID == sessionID && m.Status == status {
			out = append(out, m)
		}
	}
	sortByInsertion(s.order, out, func(m types.Meeting) uuid.UUID { return m.ID })
	return out, nil
}

// ListOffersByStatus returns the session's offers in the given status, oldest
// first.
func (s *MemStore) ListOffersByStatus(_ context.Context, sessionID uuid.UUID, status types.OfferStatus) ([]types.JobOffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []types.JobOffer
	for _, o := range s.offers {
		if o.SessionID == sessionID && o.Status == status {
			out = append(out, o)
		}
	}
	sortByInsertion(s.order, out, func(o types.JobOffer) uuid.UUID { return o.ID })
	return out, nil
}

// ListLedger returns the session's ledger entries in event order, matching
// the persistent store.
func (s *MemStore) ListLedger(_ context.Context, sessionID uuid.UUID) ([]types.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.ledger[sessionID]
	out := make([]types.LedgerEntry, len(entries))
	copy(out, entries)
	return out, nil
}

// InsertTriggerRecord writes the idempotency marker. Returns false when the
// record already exists.
func (s *MemStore) InsertTriggerRecord(_ context.Context, rec types.TriggerRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey(rec)
	if _, exists := s.records[key]; exists {
		return false, nil
	}
	s.records[key] = struct{}{}
	return true, nil
}

// Commit applies one engine transition atomically under the optimistic
// version check.
func (s *MemStore) Commit(_ context.Context, m *types.Mutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.sessions[m.Session.ID]
	if !ok {
		return fmt.Errorf("session %s not found", m.Session.ID)
	}
	if stored.Version != m.Session.Version {
		return db.ErrConcurrencyConflict
	}

	next := *m.Session
	next.Version++
	next.UpdatedAt = time.Now()
	s.sessions[next.ID] = next

	for _, t := range m.UpsertTasks {
		s.tasks[t.ID] = t
		s.touch(t.ID)
	}
	for _, mt := range m.UpsertMeetings {
		s.meetings[mt.ID] = mt
		s.touch(mt.ID)
	}
	for _, o := range m.UpsertOffers {
		s.offers[o.ID] = o
		s.touch(o.ID)
	}
	s.ledger[next.ID] = append(s.ledger[next.ID], m.LedgerEntries...)
	return nil
}

// touch assigns an insertion sequence number on first sight. Callers hold mu.
func (s *MemStore) touch(id uuid.UUID) {
	if _, seen := s.order[id]; !seen {
		s.order[id] = s.nextSeq
		s.nextSeq++
	}
}

func sortByInsertion[T any](order map[uuid.UUID]int, items []T, id func(T) uuid.UUID) {
	sort.Slice(items, func(i, j int) bool {
		return order[id(items[i])] < order[id(items[j])]
	})
}
