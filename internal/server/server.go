// Package server provides the HTTP REST API for the career simulation.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonathan/career-sim/internal/config"
	"github.com/jonathan/career-sim/internal/db"
	"github.com/jonathan/career-sim/internal/gen"
	"github.com/jonathan/career-sim/internal/llm"
	"github.com/jonathan/career-sim/internal/server/middleware"
	"github.com/jonathan/career-sim/internal/server/ratelimit"
	"github.com/jonathan/career-sim/internal/session"
	"github.com/jonathan/career-sim/internal/trigger"
	"github.com/jonathan/career-sim/internal/voice"
)

// Server represents the HTTP server
type Server struct {
	httpServer    *http.Server
	db            *db.DB
	engine        GameEngine
	sessions      SessionLister
	transcriber   Transcriber
	rateLimiter   *ratelimit.Limiter
	jwtService    *JWTService
	playerService *PlayerService
	authHandler   *AuthHandler
}

// Config holds server configuration
type Config struct {
	Port        int
	DatabaseURL string
	APIKey      string

	// Seed fixes the random source behind trigger rolls; 0 derives one from
	// the clock.
	Seed int64
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	database, err := db.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	client, err := llm.NewClient(context.Background(), llm.DefaultConfig(), cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	generator := gen.NewGenerator(client)
	judge := gen.NewJudge(client)
	engine := session.NewEngine(database, generator, judge, trigger.NewSeeded(seed))

	s := &Server{
		db:       database,
		engine:   engine,
		sessions: database,
	}

	// Voice is optional; the respond/voice endpoint reports 503 without it.
	transcriber, err := voice.NewTranscriber(context.Background(), cfg.APIKey)
	if err != nil {
		log.Printf("Voice transcription disabled: %v", err)
	} else {
		s.transcriber = transcriber
	}

	s.rateLimiter = ratelimit.NewLimiter(ratelimit.LoadConfig())

	passwordConfig, err := config.NewPasswordConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create password config: %w", err)
	}
	s.playerService = NewPlayerService(database, passwordConfig)

	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT config: %w", err)
	}
	s.jwtService = NewJWTService(jwtConfig)
	s.authHandler = NewAuthHandler(s.playerService, s.jwtService)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withRateLimit(s.withLogging(s.withCORS(s.router()))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // generation-backed endpoints are slow
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// router wires up all routes. Game routes sit behind JWT authentication.
func (s *Server) router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /players", s.handleRegister)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("GET /health", s.handleHealth)

	authed := http.NewServeMux()
	authed.HandleFunc("GET /players/me", s.handleGetMe)
	authed.HandleFunc("PUT /players/me/password", s.handleUpdatePassword)

	authed.HandleFunc("POST /sessions", s.handleCreateSession)
	authed.HandleFunc("GET /sessions", s.handleListSessions)
	authed.HandleFunc("GET /sessions/{id}", s.handleGetSession)
	authed.HandleFunc("GET /sessions/{id}/dashboard", s.handleDashboard)
	authed.HandleFunc("GET /sessions/{id}/ledger", s.handleListLedger)

	authed.HandleFunc("POST /sessions/{id}/job-search", s.handleJobSearch)
	authed.HandleFunc("GET /sessions/{id}/offers", s.handleListOffers)
	authed.HandleFunc("POST /sessions/{id}/interview", s.handleStartInterview)
	authed.HandleFunc("POST /sessions/{id}/interview/{offer_id}/submit", s.handleSubmitInterview)
	authed.HandleFunc("POST /sessions/{id}/offers/{offer_id}/accept", s.handleAcceptOffer)

	authed.HandleFunc("GET /sessions/{id}/tasks/{task_id}", s.handleGetTask)
	authed.HandleFunc("POST /sessions/{id}/tasks/{task_id}/submit", s.handleSubmitTask)

	authed.HandleFunc("GET /sessions/{id}/meetings/{meeting_id}", s.handleGetMeeting)
	authed.HandleFunc("POST /sessions/{id}/meetings/{meeting_id}/start", s.handleStartMeeting)
	authed.HandleFunc("POST /sessions/{id}/meetings/{meeting_id}/respond", s.handleRespondMeeting)
	authed.HandleFunc("POST /sessions/{id}/meetings/{meeting_id}/respond/voice", s.handleRespondMeetingVoice)
	authed.HandleFunc("POST /sessions/{id}/meetings/{meeting_id}/complete", s.handleCompleteMeeting)
	authed.HandleFunc("POST /sessions/{id}/meetings/{meeting_id}/leave", s.handleLeaveMeeting)

	authed.HandleFunc("POST /sessions/{id}/events/check", s.handleCheckEvents)

	mux.Handle("/", middleware.AuthMiddleware(s.jwtService.AsTokenValidator())(authed))
	return mux
}

// Start begins listening for requests
func (s *Server) Start() error {
	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	// Stop rate limiter cleanup goroutine
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}

	s.db.Close()
	log.Println("Server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)

		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)
		if !allowed {
			s.setRateLimitHeaders(w, info)
			s.rateLimitResponse(w, info)
			return
		}

		s.setRateLimitHeaders(w, info)
		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": err.Error()})
			return
		}
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// handleRegister handles player registration requests.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	s.authHandler.Register(w, r)
}

// handleLogin handles player login requests.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.authHandler.Login(w, r)
}

// handleUpdatePassword handles password update requests.
func (s *Server) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	playerID, err := middleware.GetPlayerID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	s.authHandler.UpdatePassword(w, r, playerID)
}

// extractClientID extracts the client identifier from the request.
// For MVP, this uses the IP address from RemoteAddr.
// In the future, this could use X-Forwarded-For header (only from trusted proxies).
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]interface{}{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		response["retry_after"] = int(info.RetryAfter.Seconds())
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(info.RetryAfter.Seconds())))
	}

	log.Printf("[rate-limit] Rate limit exceeded: Limit=%d Remaining=%d Reset=%s",
		info.Limit, info.Remaining, info.ResetTime.Format(time.RFC3339))

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
