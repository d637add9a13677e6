// Package server provides the HTTP REST API for the career simulation.
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/career-sim/internal/server/middleware"
	"github.com/jonathan/career-sim/internal/session"
	"github.com/jonathan/career-sim/internal/types"
)

// maxAudioBytes caps voice uploads to the respond endpoint.
const maxAudioBytes = 10 << 20

// GameEngine is the session-engine surface the handlers drive.
// *session.Engine satisfies it; tests fake it.
type GameEngine interface {
	CreateSession(ctx context.Context, playerID uuid.UUID, profession string) (*types.Session, error)
	GetSession(ctx context.Context, id uuid.UUID) (*types.Session, error)
	Dashboard(ctx context.Context, sessionID uuid.UUID) (*session.DashboardView, error)
	RequestJobSearch(ctx context.Context, sessionID uuid.UUID) ([]types.JobOffer, error)
	StartInterview(ctx context.Context, sessionID, offerID uuid.UUID) (*types.JobOffer, error)
	SubmitInterview(ctx context.Context, sessionID, offerID uuid.UUID, answers []types.InterviewAnswer) (*session.InterviewOutcome, error)
	AcceptOffer(ctx context.Context, sessionID, offerID uuid.UUID) (*types.JobOffer, error)
	SubmitTask(ctx context.Context, taskID uuid.UUID, answer types.Answer) (*session.TaskOutcome, error)
	StartMeeting(ctx context.Context, meetingID uuid.UUID) (*types.Meeting, error)
	RespondMeeting(ctx context.Context, meetingID uuid.UUID, text string) (*session.MeetingTurn, error)
	CompleteMeeting(ctx context.Context, meetingID uuid.UUID) (*session.MeetingOutcome, error)
	LeaveMeeting(ctx context.Context, meetingID uuid.UUID) (*session.MeetingOutcome, error)
	CheckRandomEvents(ctx context.Context, sessionID uuid.UUID) (*session.EventCheck, error)
	Task(ctx context.Context, id uuid.UUID) (*types.Task, error)
	Meeting(ctx context.Context, id uuid.UUID) (*types.Meeting, error)
	Offer(ctx context.Context, id uuid.UUID) (*types.JobOffer, error)
	Offers(ctx context.Context, sessionID uuid.UUID) ([]types.JobOffer, error)
	Ledger(ctx context.Context, sessionID uuid.UUID) ([]types.LedgerEntry, error)
}

// SessionLister lists a player's sessions. *db.DB satisfies it.
type SessionLister interface {
	ListSessionsByPlayer(ctx context.Context, playerID uuid.UUID) ([]types.Session, error)
}

// Transcriber turns recorded audio into text. *voice.Transcriber satisfies it.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// ---------------------------------------------------------------------
// Player handlers
// ---------------------------------------------------------------------

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	playerID, err := middleware.GetPlayerID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	player, err := s.playerService.GetPlayer(r.Context(), playerID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, player)
}

// ---------------------------------------------------------------------
// Session handlers
// ---------------------------------------------------------------------

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	playerID, err := middleware.GetPlayerID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req types.CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := s.engine.CreateSession(r.Context(), playerID, req.Profession)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusCreated, created)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	playerID, err := middleware.GetPlayerID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	sessions, err := s.sessions.ListSessionsByPlayer(r.Context(), playerID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, sessions)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.authorizeSession(w, r)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, sess)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.authorizeSession(w, r)
	if !ok {
		return
	}

	view, err := s.engine.Dashboard(r.Context(), sess.ID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, view)
}

func (s *Server) handleListLedger(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.authorizeSession(w, r)
	if !ok {
		return
	}

	entries, err := s.engine.Ledger(r.Context(), sess.ID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, entries)
}

// ---------------------------------------------------------------------
// Job search and interview handlers
// ---------------------------------------------------------------------

func (s *Server) handleJobSearch(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.authorizeSession(w, r)
	if !ok {
		return
	}

	offers, err := s.engine.RequestJobSearch(r.Context(), sess.ID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, offers)
}

func (s *Server) handleListOffers(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.authorizeSession(w, r)
	if !ok {
		return
	}

	offers, err := s.engine.Offers(r.Context(), sess.ID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, offers)
}

func (s *Server) handleStartInterview(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.authorizeSession(w, r)
	if !ok {
		return
	}

	var req types.StartInterviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	offerID, err := uuid.Parse(req.OfferID)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid offer ID")
		return
	}

	offer, err := s.engine.StartInterview(r.Context(), sess.ID, offerID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, offer)
}

func (s *Server) handleSubmitInterview(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.authorizeSession(w, r)
	if !ok {
		return
	}
	offerID, ok := s.parseID(w, r, "offer_id", "Invalid offer ID")
	if !ok {
		return
	}

	var req types.SubmitInterviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	outcome, err := s.engine.SubmitInterview(r.Context(), sess.ID, offerID, req.Answers)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, outcome)
}

func (s *Server) handleAcceptOffer(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.authorizeSession(w, r)
	if !ok {
		return
	}
	offerID, ok := s.parseID(w, r, "offer_id", "Invalid offer ID")
	if !ok {
		return
	}

	offer, err := s.engine.AcceptOffer(r.Context(), sess.ID, offerID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, offer)
}

// ---------------------------------------------------------------------
// Task handlers
// ---------------------------------------------------------------------

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.authorizeSession(w, r)
	if !ok {
		return
	}
	task, ok := s.sessionTask(w, r, sess)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, task)
}

func (s *Server) handleSubmitTask(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.authorizeSession(w, r)
	if !ok {
		return
	}
	task, ok := s.sessionTask(w, r, sess)
	if !ok {
		return
	}

	var req types.SubmitTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	outcome, err := s.engine.SubmitTask(r.Context(), task.ID, req.Answer)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, outcome)
}

// ---------------------------------------------------------------------
// Meeting handlers
// ---------------------------------------------------------------------

func (s *Server) handleGetMeeting(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.authorizeSession(w, r)
	if !ok {
		return
	}
	meeting, ok := s.sessionMeeting(w, r, sess)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, meeting)
}

func (s *Server) handleStartMeeting(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.authorizeSession(w, r)
	if !ok {
		return
	}
	meeting, ok := s.sessionMeeting(w, r, sess)
	if !ok {
		return
	}

	started, err := s.engine.StartMeeting(r.Context(), meeting.ID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, started)
}

func (s *Server) handleRespondMeeting(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.authorizeSession(w, r)
	if !ok {
		return
	}
	meeting, ok := s.sessionMeeting(w, r, sess)
	if !ok {
		return
	}

	var req types.MeetingResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	turn, err := s.engine.RespondMeeting(r.Context(), meeting.ID, req.Text)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, turn)
}

// handleRespondMeetingVoice accepts raw audio, transcribes it, and feeds the
// transcript through the normal respond path.
func (s *Server) handleRespondMeetingVoice(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.authorizeSession(w, r)
	if !ok {
		return
	}
	meeting, ok := s.sessionMeeting(w, r, sess)
	if !ok {
		return
	}

	if s.transcriber == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "Voice transcription is not configured")
		return
	}

	audio, err := io.ReadAll(io.LimitReader(r.Body, maxAudioBytes))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Failed to read audio body")
		return
	}
	mimeType := r.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "audio/webm"
	}

	text, err := s.transcriber.Transcribe(r.Context(), audio, mimeType)
	if err != nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "Transcription failed: "+err.Error())
		return
	}

	turn, err := s.engine.RespondMeeting(r.Context(), meeting.ID, text)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, turn)
}

func (s *Server) handleCompleteMeeting(w http.ResponseWriter, r *http.Request) {
	s.finishMeeting(w, r, s.engine.CompleteMeeting)
}

func (s *Server) handleLeaveMeeting(w http.ResponseWriter, r *http.Request) {
	s.finishMeeting(w, r, s.engine.LeaveMeeting)
}

func (s *Server) finishMeeting(w http.ResponseWriter, r *http.Request, finish func(context.Context, uuid.UUID) (*session.MeetingOutcome, error)) {
	sess, ok := s.authorizeSession(w, r)
	if !ok {
		return
	}
	meeting, ok := s.sessionMeeting(w, r, sess)
	if !ok {
		return
	}

	outcome, err := finish(r.Context(), meeting.ID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, outcome)
}

// ---------------------------------------------------------------------
// Random-event handler
// ---------------------------------------------------------------------

func (s *Server) handleCheckEvents(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.authorizeSession(w, r)
	if !ok {
		return
	}

	check, err := s.engine.CheckRandomEvents(r.Context(), sess.ID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, check)
}

// ---------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------

// authorizeSession loads the session named in the path and verifies the
// authenticated player owns it. It writes the error response itself.
func (s *Server) authorizeSession(w http.ResponseWriter, r *http.Request) (*types.Session, bool) {
	playerID, err := middleware.GetPlayerID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return nil, false
	}

	sessionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid session ID")
		return nil, false
	}

	sess, err := s.engine.GetSession(r.Context(), sessionID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return nil, false
	}
	if sess.PlayerID != playerID {
		forbidden := &ErrForbidden{}
		s.errorResponse(w, HTTPStatus(forbidden), forbidden.Error())
		return nil, false
	}
	return sess, true
}

// sessionTask loads the task named in the path and verifies it belongs to the
// authorized session.
func (s *Server) sessionTask(w http.ResponseWriter, r *http.Request, sess *types.Session) (*types.Task, bool) {
	taskID, ok := s.parseID(w, r, "task_id", "Invalid task ID")
	if !ok {
		return nil, false
	}
	task, err := s.engine.Task(r.Context(), taskID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return nil, false
	}
	if task.SessionID != sess.ID {
		s.errorResponse(w, http.StatusNotFound, "task not found in this session")
		return nil, false
	}
	return task, true
}

// sessionMeeting loads the meeting named in the path and verifies it belongs
// to the authorized session.
func (s *Server) sessionMeeting(w http.ResponseWriter, r *http.Request, sess *types.Session) (*types.Meeting, bool) {
	meetingID, ok := s.parseID(w, r, "meeting_id", "Invalid meeting ID")
	if !ok {
		return nil, false
	}
	meeting, err := s.engine.Meeting(r.Context(), meetingID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return nil, false
	}
	if meeting.SessionID != sess.ID {
		s.errorResponse(w, http.StatusNotFound, "meeting not found in this session")
		return nil, false
	}
	return meeting, true
}

func (s *Server) parseID(w http.ResponseWriter, r *http.Request, pathKey, message string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(pathKey))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, message)
		return uuid.Nil, false
	}
	return id, true
}
