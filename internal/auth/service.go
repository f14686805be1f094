// Package auth handles web sign-in for back-office actors.
package auth

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/rutacredit/rutacredit/internal/actors"
	"github.com/rutacredit/rutacredit/internal/shared"
)

// ActorStore is the actor lookup the authenticator needs.
type ActorStore interface {
	FindByEmail(ctx context.Context, email string) (actors.Actor, error)
}

// Service wraps authentication business rules.
type Service struct {
	store ActorStore
	repo  Repository
}

// NewService constructs a new Service.
func NewService(store ActorStore, repo Repository) *Service {
	return &Service{store: store, repo: repo}
}

// Authenticate validates email/password credentials. Collectors cannot sign
// in here: the web application is not their channel. Actors that are not yet
// approved authenticate but are reported as such so the caller can route them
// to the onboarding flow instead of the application.
func (s *Service) Authenticate(ctx context.Context, email, password string) (actors.Actor, error) {
	actor, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return actors.Actor{}, shared.ErrInvalidCredentials
	}
	if !actor.IsActive {
		return actors.Actor{}, shared.ErrInvalidCredentials
	}
	if actor.Role == actors.RoleCollector {
		return actors.Actor{}, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(actor.PasswordHash), []byte(password)); err != nil {
		return actors.Actor{}, shared.ErrInvalidCredentials
	}
	return actor, nil
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, id string, actorID int64, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, actorID, expiresAt, ip, ua)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}
