package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/jonathan/career-sim/internal/db"
	"github.com/jonathan/career-sim/internal/gen"
	"github.com/jonathan/career-sim/internal/session"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", &session.ValidationError{Message: "bad"}, http.StatusBadRequest},
		{"not found", &session.NotFoundError{Resource: "task", ID: "x"}, http.StatusNotFound},
		{"concurrency conflict", db.ErrConcurrencyConflict, http.StatusConflict},
		{"wrapped conflict", fmt.Errorf("commit: %w", db.ErrConcurrencyConflict), http.StatusConflict},
		{"generation failure", &gen.GenerationError{Kind: gen.KindMeeting, Message: "exhausted retries"}, http.StatusServiceUnavailable},
		{"email exists", &ErrEmailAlreadyExists{Email: "a@b.com"}, http.StatusConflict},
		{"invalid credentials", &ErrInvalidCredentials{}, http.StatusUnauthorized},
		{"password mismatch", &ErrPasswordMismatch{}, http.StatusUnauthorized},
		{"player missing", &ErrPlayerNotFound{PlayerID: uuid.New()}, http.StatusNotFound},
		{"forbidden", &ErrForbidden{}, http.StatusForbidden},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.status, HTTPStatus(tc.err))
		})
	}
}
