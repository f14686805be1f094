package actors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/rutacredit/rutacredit/internal/shared"
)

// Service handles actor administration business rules.
type Service struct {
	repo   RepositoryPort
	audit  *shared.AuditLogger
	logger *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger}
}

// Get returns a single actor.
func (s *Service) Get(ctx context.Context, id int64) (Actor, error) {
	return s.repo.Get(ctx, id)
}

// List returns all actors.
func (s *Service) List(ctx context.Context) ([]Actor, error) {
	return s.repo.List(ctx)
}

// UpdateAssignments replaces an actor's scope assignment sets. Admin-only;
// callers are responsible for authorisation.
func (s *Service) UpdateAssignments(ctx context.Context, adminID, actorID int64, hierarchyIDs, companyIDs, routeIDs []int64) error {
	if err := s.repo.UpdateAssignments(ctx, actorID, hierarchyIDs, companyIDs, routeIDs); err != nil {
		return fmt.Errorf("update assignments: %w", err)
	}
	s.recordAudit(ctx, adminID, "actor.assignments_updated", actorID, map[string]any{
		"hierarchy_ids": hierarchyIDs,
		"company_ids":   companyIDs,
		"route_ids":     routeIDs,
	})
	return nil
}

// UpdateRole changes an actor's role.
func (s *Service) UpdateRole(ctx context.Context, adminID, actorID int64, role Role) error {
	if !role.Valid() {
		return errors.New("actors: invalid role")
	}
	if err := s.repo.UpdateRole(ctx, actorID, role); err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	s.recordAudit(ctx, adminID, "actor.role_updated", actorID, map[string]any{"role": string(role)})
	return nil
}

// Approve transitions an actor to APPROVED. This explicit administrative
// action is the only path into the approved state; confirming an access code
// never grants it.
func (s *Service) Approve(ctx context.Context, adminID, actorID int64) error {
	return s.setApproval(ctx, adminID, actorID, ApprovalApproved)
}

// Reject transitions an actor to REJECTED.
func (s *Service) Reject(ctx context.Context, adminID, actorID int64) error {
	return s.setApproval(ctx, adminID, actorID, ApprovalRejected)
}

func (s *Service) setApproval(ctx context.Context, adminID, actorID int64, status ApprovalStatus) error {
	if err := s.repo.SetApprovalStatus(ctx, actorID, status); err != nil {
		return fmt.Errorf("set approval status: %w", err)
	}
	s.recordAudit(ctx, adminID, "actor.approval_changed", actorID, map[string]any{"status": string(status)})
	return nil
}

func (s *Service) recordAudit(ctx context.Context, adminID int64, action string, actorID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  adminID,
		Action:   action,
		Entity:   "actor",
		EntityID: strconv.FormatInt(actorID, 10),
		Meta:     meta,
	})
	if err != nil && s.logger != nil {
		s.logger.Warn("record actor audit", slog.String("action", action), slog.Any("error", err))
	}
}
