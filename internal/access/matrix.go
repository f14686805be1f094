package access

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rutacredit/rutacredit/internal/platform/db"
)

// MatrixStore persists the per-actor module permission matrix.
type MatrixStore interface {
	GetModulePermissions(ctx context.Context, actorID int64) ([]ModulePermission, error)
	UpsertModulePermissions(ctx context.Context, actorID int64, perms []ModulePermission) error
}

// Matrix provides PostgreSQL backed matrix persistence.
type Matrix struct {
	pool *pgxpool.Pool
}

// NewMatrix constructs a Matrix store.
func NewMatrix(pool *pgxpool.Pool) *Matrix {
	return &Matrix{pool: pool}
}

// GetModulePermissions returns the stored rows for an actor. Modules without
// a row are simply absent.
func (m *Matrix) GetModulePermissions(ctx context.Context, actorID int64) ([]ModulePermission, error) {
	rows, err := m.pool.Query(ctx, `SELECT module_id, view_all, can_create, view_own, can_delete
FROM module_permissions WHERE actor_id = $1 ORDER BY module_id`, actorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []ModulePermission
	for rows.Next() {
		var p ModulePermission
		if err := rows.Scan(&p.ModuleID, &p.ViewAll, &p.Create, &p.ViewOwn, &p.Delete); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// UpsertModulePermissions replaces the listed rows as full-row upserts per
// module. Rows are normalised before persisting (view_all implies the rest)
// and all-false rows are deleted, keeping absence and all-false identical.
func (m *Matrix) UpsertModulePermissions(ctx context.Context, actorID int64, perms []ModulePermission) error {
	for _, p := range perms {
		if !p.ModuleID.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownModule, p.ModuleID)
		}
	}

	// Last write wins when a module appears twice in the same request.
	byModule := make(map[Module]ModulePermission, len(perms))
	for _, p := range perms {
		byModule[p.ModuleID] = p.Normalize()
	}

	return db.WithTx(ctx, m.pool, func(tx pgx.Tx) error {
		for _, p := range byModule {
			if p.Empty() {
				if _, err := tx.Exec(ctx, `DELETE FROM module_permissions WHERE actor_id = $1 AND module_id = $2`,
					actorID, string(p.ModuleID)); err != nil {
					return err
				}
				continue
			}
			if _, err := tx.Exec(ctx, `INSERT INTO module_permissions (actor_id, module_id, view_all, can_create, view_own, can_delete, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, NOW())
ON CONFLICT (actor_id, module_id) DO UPDATE
SET view_all = EXCLUDED.view_all,
    can_create = EXCLUDED.can_create,
    view_own = EXCLUDED.view_own,
    can_delete = EXCLUDED.can_delete,
    updated_at = NOW()`,
				actorID, string(p.ModuleID), p.ViewAll, p.Create, p.ViewOwn, p.Delete); err != nil {
				return err
			}
		}
		return nil
	})
}

var _ MatrixStore = (*Matrix)(nil)
