package actors

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rutacredit/rutacredit/internal/shared"
)

const actorColumns = `id, email, name, password_hash, role, approval_status, is_active,
assigned_hierarchy_ids, assigned_company_ids, assigned_route_ids,
last_hierarchy_id, last_company_id, last_route_id,
access_code, access_code_confirmed, access_code_issued_at,
created_at, updated_at`

// RepositoryPort defines persistence operations for actors.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (Actor, error)
	FindByEmail(ctx context.Context, email string) (Actor, error)
	List(ctx context.Context) ([]Actor, error)
	UpdateAssignments(ctx context.Context, id int64, hierarchyIDs, companyIDs, routeIDs []int64) error
	UpdateRole(ctx context.Context, id int64, role Role) error
	SetApprovalStatus(ctx context.Context, id int64, status ApprovalStatus) error
	SaveLastSelection(ctx context.Context, id int64, hierarchyID, companyID, routeID *int64) error
	SetAccessCode(ctx context.Context, id int64, code string, issuedAt time.Time) error
	ConfirmAccessCode(ctx context.Context, id int64, code string) (bool, error)
	ClearStaleAccessCodes(ctx context.Context, olderThan time.Time) (int64, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Get fetches an actor by ID.
func (r *Repository) Get(ctx context.Context, id int64) (Actor, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+actorColumns+` FROM actors WHERE id = $1`, id)
	return scanActor(row)
}

// FindByEmail fetches an actor by email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (Actor, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+actorColumns+` FROM actors WHERE lower(email) = lower($1)`, email)
	return scanActor(row)
}

// List returns all actors ordered by name.
func (r *Repository) List(ctx context.Context) ([]Actor, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+actorColumns+` FROM actors ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Actor
	for rows.Next() {
		a, err := scanActor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpdateAssignments replaces the actor's assignment sets.
func (r *Repository) UpdateAssignments(ctx context.Context, id int64, hierarchyIDs, companyIDs, routeIDs []int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE actors
SET assigned_hierarchy_ids = $2, assigned_company_ids = $3, assigned_route_ids = $4, updated_at = NOW()
WHERE id = $1`, id, emptyAsZero(hierarchyIDs), emptyAsZero(companyIDs), emptyAsZero(routeIDs))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpdateRole changes the actor's role.
func (r *Repository) UpdateRole(ctx context.Context, id int64, role Role) error {
	tag, err := r.pool.Exec(ctx, `UPDATE actors SET role = $2, updated_at = NOW() WHERE id = $1`, id, string(role))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SetApprovalStatus records an administrative approval decision.
func (r *Repository) SetApprovalStatus(ctx context.Context, id int64, status ApprovalStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE actors SET approval_status = $2, updated_at = NOW() WHERE id = $1`, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SaveLastSelection persists the last-selected location triple.
func (r *Repository) SaveLastSelection(ctx context.Context, id int64, hierarchyID, companyID, routeID *int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE actors
SET last_hierarchy_id = $2, last_company_id = $3, last_route_id = $4, updated_at = NOW()
WHERE id = $1`, id, hierarchyID, companyID, routeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SetAccessCode stores a freshly issued access code. The single UPDATE swaps
// the code and resets the confirmed flag in one statement, so the previous
// code stops validating the instant the new one exists.
func (r *Repository) SetAccessCode(ctx context.Context, id int64, code string, issuedAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE actors
SET access_code = $2, access_code_confirmed = FALSE, access_code_issued_at = $3, updated_at = NOW()
WHERE id = $1`, id, code, issuedAt.UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ConfirmAccessCode flips access_code_confirmed when the supplied code matches
// the current one. It never touches approval_status.
func (r *Repository) ConfirmAccessCode(ctx context.Context, id int64, code string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE actors
SET access_code_confirmed = TRUE, updated_at = NOW()
WHERE id = $1 AND access_code = $2`, id, code)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ClearStaleAccessCodes drops unconfirmed codes issued before the cutoff and
// returns how many rows were cleaned.
func (r *Repository) ClearStaleAccessCodes(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE actors
SET access_code = NULL, access_code_issued_at = NULL, updated_at = NOW()
WHERE access_code IS NOT NULL AND NOT access_code_confirmed AND access_code_issued_at < $1`, olderThan.UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanActor(row rowScanner) (Actor, error) {
	var a Actor
	err := row.Scan(
		&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.Role, &a.ApprovalStatus, &a.IsActive,
		&a.AssignedHierarchyIDs, &a.AssignedCompanyIDs, &a.AssignedRouteIDs,
		&a.LastHierarchyID, &a.LastCompanyID, &a.LastRouteID,
		&a.AccessCode, &a.AccessCodeConfirmed, &a.AccessCodeIssuedAt,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Actor{}, shared.ErrNotFound
		}
		return Actor{}, err
	}
	return a, nil
}

// emptyAsZero keeps array columns NOT NULL by writing empty arrays for nil slices.
func emptyAsZero(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}

var _ RepositoryPort = (*Repository)(nil)
