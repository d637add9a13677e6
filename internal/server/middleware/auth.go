// Package middleware provides HTTP middleware for authentication and authorization.
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

// playerIDKey is the context key for storing the authenticated player ID.
const playerIDKey ContextKey = "playerID"

// TokenValidator is an interface for validating JWT tokens.
// This allows the middleware to work with any JWT service implementation.
type TokenValidator interface {
	ValidateToken(tokenString string) (PlayerIDGetter, error)
}

// PlayerIDGetter is an interface for extracting the player ID from token claims.
type PlayerIDGetter interface {
	GetPlayerID() uuid.UUID
}

// AuthMiddleware creates middleware that validates JWT tokens and adds the
// player ID to the request context.
func AuthMiddleware(jwtService TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			// Handle case-insensitive "Bearer" prefix
			parts := strings.Fields(authHeader)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			tokenString := strings.TrimSpace(parts[1])
			if tokenString == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := jwtService.ValidateToken(tokenString)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), playerIDKey, claims.GetPlayerID())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetPlayerID extracts the authenticated player ID from the request context.
func GetPlayerID(r *http.Request) (uuid.UUID, error) {
	playerID, ok := r.Context().Value(playerIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, fmt.Errorf("player ID not found in request context")
	}
	return playerID, nil
}

// PlayerIDKey returns the context key for the player ID (for testing purposes).
func PlayerIDKey() ContextKey {
	return playerIDKey
}
