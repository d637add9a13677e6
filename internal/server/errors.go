// Package server provides the HTTP REST API for the career simulation.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/career-sim/internal/db"
	"github.com/jonathan/career-sim/internal/gen"
	"github.com/jonathan/career-sim/internal/session"
)

// ErrEmailAlreadyExists indicates email is already registered
type ErrEmailAlreadyExists struct {
	Email string
}

func (e *ErrEmailAlreadyExists) Error() string {
	return fmt.Sprintf("email already registered: %s", e.Email)
}

// ErrInvalidCredentials indicates invalid login credentials
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid email or password"
}

// ErrPlayerNotFound indicates the player account was not found
type ErrPlayerNotFound struct {
	PlayerID uuid.UUID
}

func (e *ErrPlayerNotFound) Error() string {
	return fmt.Sprintf("player not found: %s", e.PlayerID)
}

// ErrPasswordMismatch indicates current password is incorrect
type ErrPasswordMismatch struct{}

func (e *ErrPasswordMismatch) Error() string {
	return "current password is incorrect"
}

// ErrForbidden indicates the authenticated player does not own the resource
type ErrForbidden struct{}

func (e *ErrForbidden) Error() string {
	return "session belongs to another player"
}

// HTTPStatus maps an error to the HTTP status code it should produce.
// Engine errors fall through here too: validation failures are 400, missing
// resources 404, version conflicts 409, and generation outages 503.
func HTTPStatus(err error) int {
	var (
		validationErr *session.ValidationError
		notFoundErr   *session.NotFoundError
		genErr        *gen.GenerationError
	)
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		return http.StatusNotFound
	case errors.Is(err, db.ErrConcurrencyConflict):
		return http.StatusConflict
	case errors.As(err, &genErr):
		return http.StatusServiceUnavailable
	}

	switch err.(type) {
	case *ErrEmailAlreadyExists:
		return http.StatusConflict
	case *ErrInvalidCredentials, *ErrPasswordMismatch:
		return http.StatusUnauthorized
	case *ErrPlayerNotFound:
		return http.StatusNotFound
	case *ErrForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
