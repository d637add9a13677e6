// Package server provides the HTTP REST API for the career simulation.
package server

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/career-sim/internal/config"
	"github.com/jonathan/career-sim/internal/db"
	"github.com/jonathan/career-sim/internal/types"
)

// PlayerDB is the persistence surface the player service needs. *db.DB
// satisfies it; tests fake it.
type PlayerDB interface {
	CreatePlayer(ctx context.Context, name, email, passwordHash string) (uuid.UUID, error)
	GetPlayerByEmail(ctx context.Context, email string) (*db.Player, error)
	GetPlayerByID(ctx context.Context, id uuid.UUID) (*db.Player, error)
	UpdatePlayerPassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// PlayerService provides business logic for player account operations.
type PlayerService struct {
	db             PlayerDB
	passwordConfig *config.PasswordConfig
}

// NewPlayerService creates a new PlayerService with the given dependencies.
func NewPlayerService(db PlayerDB, passwordConfig *config.PasswordConfig) *PlayerService {
	return &PlayerService{
		db:             db,
		passwordConfig: passwordConfig,
	}
}

// toTypesPlayer converts db.Player to types.Player, excluding the password hash.
func toTypesPlayer(p *db.Player) *types.Player {
	if p == nil {
		return nil
	}
	return &types.Player{
		ID:        p.ID,
		Name:      p.Name,
		Email:     p.Email,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// Register creates a new player account with password authentication.
func (s *PlayerService) Register(ctx context.Context, req *types.CreatePlayerRequest) (*types.Player, error) {
	existing, err := s.db.GetPlayerByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if existing != nil {
		return nil, &ErrEmailAlreadyExists{Email: req.Email}
	}

	passwordHash, err := s.passwordConfig.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	playerID, err := s.db.CreatePlayer(ctx, req.Name, req.Email, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	player, err := s.db.GetPlayerByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve created player: %w", err)
	}
	if player == nil {
		return nil, fmt.Errorf("created player not found: %s", playerID)
	}

	return toTypesPlayer(player), nil
}

// Login authenticates a player and returns account data.
func (s *PlayerService) Login(ctx context.Context, req *types.LoginRequest) (*types.Player, error) {
	player, err := s.db.GetPlayerByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to get player by email: %w", err)
	}

	// Security: always return the same generic error whether the account is
	// missing or the password is wrong.
	if player == nil {
		return nil, &ErrInvalidCredentials{}
	}
	if !s.passwordConfig.VerifyPassword(req.Password, player.PasswordHash) {
		return nil, &ErrInvalidCredentials{}
	}

	return toTypesPlayer(player), nil
}

// GetPlayer retrieves an account by ID.
func (s *PlayerService) GetPlayer(ctx context.Context, playerID uuid.UUID) (*types.Player, error) {
	player, err := s.db.GetPlayerByID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	if player == nil {
		return nil, &ErrPlayerNotFound{PlayerID: playerID}
	}
	return toTypesPlayer(player), nil
}

// UpdatePassword replaces a player's password after verifying the current one.
func (s *PlayerService) UpdatePassword(ctx context.Context, playerID uuid.UUID, currentPassword, newPassword string) error {
	player, err := s.db.GetPlayerByID(ctx, playerID)
	if err != nil {
		return fmt.Errorf("failed to get player: %w", err)
	}
	if player == nil {
		return &ErrPlayerNotFound{PlayerID: playerID}
	}

	if !s.passwordConfig.VerifyPassword(currentPassword, player.PasswordHash) {
		return &ErrPasswordMismatch{}
	}

	newHash, err := s.passwordConfig.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.db.UpdatePlayerPassword(ctx, playerID, newHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}
