package actors

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rutacredit/rutacredit/internal/shared"
)

type memoryRepo struct {
	byID map[int64]Actor
}

func newMemoryRepo(seed ...Actor) *memoryRepo {
	repo := &memoryRepo{byID: make(map[int64]Actor)}
	for _, a := range seed {
		repo.byID[a.ID] = a
	}
	return repo
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Actor, error) {
	a, ok := r.byID[id]
	if !ok {
		return Actor{}, shared.ErrNotFound
	}
	return a, nil
}

func (r *memoryRepo) FindByEmail(ctx context.Context, email string) (Actor, error) {
	for _, a := range r.byID {
		if a.Email == email {
			return a, nil
		}
	}
	return Actor{}, shared.ErrNotFound
}

func (r *memoryRepo) List(ctx context.Context) ([]Actor, error) {
	out := make([]Actor, 0, len(r.byID))
	for _, a := range r.byID {
		out = append(out, a)
	}
	return out, nil
}

func (r *memoryRepo) UpdateAssignments(ctx context.Context, id int64, hierarchyIDs, companyIDs, routeIDs []int64) error {
	a, ok := r.byID[id]
	if !ok {
		return shared.ErrNotFound
	}
	a.AssignedHierarchyIDs = hierarchyIDs
	a.AssignedCompanyIDs = companyIDs
	a.AssignedRouteIDs = routeIDs
	r.byID[id] = a
	return nil
}

func (r *memoryRepo) UpdateRole(ctx context.Context, id int64, role Role) error {
	a, ok := r.byID[id]
	if !ok {
		return shared.ErrNotFound
	}
	a.Role = role
	r.byID[id] = a
	return nil
}

func (r *memoryRepo) SetApprovalStatus(ctx context.Context, id int64, status ApprovalStatus) error {
	a, ok := r.byID[id]
	if !ok {
		return shared.ErrNotFound
	}
	a.ApprovalStatus = status
	r.byID[id] = a
	return nil
}

func (r *memoryRepo) SaveLastSelection(ctx context.Context, id int64, hierarchyID, companyID, routeID *int64) error {
	a, ok := r.byID[id]
	if !ok {
		return shared.ErrNotFound
	}
	a.LastHierarchyID = hierarchyID
	a.LastCompanyID = companyID
	a.LastRouteID = routeID
	r.byID[id] = a
	return nil
}

func (r *memoryRepo) SetAccessCode(ctx context.Context, id int64, code string, issuedAt time.Time) error {
	a, ok := r.byID[id]
	if !ok {
		return shared.ErrNotFound
	}
	a.AccessCode = &code
	a.AccessCodeConfirmed = false
	a.AccessCodeIssuedAt = &issuedAt
	r.byID[id] = a
	return nil
}

func (r *memoryRepo) ConfirmAccessCode(ctx context.Context, id int64, code string) (bool, error) {
	a, ok := r.byID[id]
	if !ok || a.AccessCode == nil || *a.AccessCode != code {
		return false, nil
	}
	a.AccessCodeConfirmed = true
	r.byID[id] = a
	return true, nil
}

func (r *memoryRepo) ClearStaleAccessCodes(ctx context.Context, olderThan time.Time) (int64, error) {
	var cleared int64
	for id, a := range r.byID {
		if a.AccessCode != nil && !a.AccessCodeConfirmed && a.AccessCodeIssuedAt != nil && a.AccessCodeIssuedAt.Before(olderThan) {
			a.AccessCode = nil
			a.AccessCodeIssuedAt = nil
			r.byID[id] = a
			cleared++
		}
	}
	return cleared, nil
}

var _ RepositoryPort = (*memoryRepo)(nil)

func TestApproveIsOnlyPathToApproved(t *testing.T) {
	repo := newMemoryRepo(Actor{ID: 7, Email: "u@test.local", ApprovalStatus: ApprovalPending, IsActive: true})
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	// Confirming an access code flips its own flag but never approval.
	require.NoError(t, repo.SetAccessCode(ctx, 7, "123456", time.Now()))
	ok, err := repo.ConfirmAccessCode(ctx, 7, "123456")
	require.NoError(t, err)
	require.True(t, ok)
	got, err := svc.Get(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, ApprovalPending, got.ApprovalStatus)
	require.True(t, got.AccessCodeConfirmed)

	require.NoError(t, svc.Approve(ctx, 1, 7))
	got, err = svc.Get(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, ApprovalApproved, got.ApprovalStatus)
}

func TestRejectTransitions(t *testing.T) {
	repo := newMemoryRepo(Actor{ID: 7, ApprovalStatus: ApprovalPending})
	svc := NewService(repo, nil, nil)

	require.NoError(t, svc.Reject(context.Background(), 1, 7))
	got, err := svc.Get(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, ApprovalRejected, got.ApprovalStatus)
}

func TestUpdateRoleRejectsUnknownRole(t *testing.T) {
	repo := newMemoryRepo(Actor{ID: 7, Role: RoleStandardUser})
	svc := NewService(repo, nil, nil)

	require.Error(t, svc.UpdateRole(context.Background(), 1, 7, Role("MANAGER")))
	require.NoError(t, svc.UpdateRole(context.Background(), 1, 7, RoleMonitor))

	got, err := svc.Get(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, RoleMonitor, got.Role)
}

func TestUpdateAssignmentsReplacesSets(t *testing.T) {
	repo := newMemoryRepo(Actor{ID: 7, AssignedHierarchyIDs: []int64{1, 2}})
	svc := NewService(repo, nil, nil)

	require.NoError(t, svc.UpdateAssignments(context.Background(), 1, 7, []int64{3}, []int64{30}, nil))
	got, err := svc.Get(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, []int64{3}, got.AssignedHierarchyIDs)
	require.Equal(t, []int64{30}, got.AssignedCompanyIDs)
	require.Empty(t, got.AssignedRouteIDs)
}
