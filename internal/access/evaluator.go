package access

import (
	"context"
	"fmt"

	"github.com/rutacredit/rutacredit/internal/actors"
)

// Evaluator is the single entry point other subsystems call to ask "can actor
// X do action A on module M". It is a pure query with no side effects.
type Evaluator struct {
	matrix  MatrixStore
	metrics *Counters
}

// NewEvaluator builds an Evaluator.
func NewEvaluator(matrix MatrixStore, metrics *Counters) *Evaluator {
	return &Evaluator{matrix: matrix, metrics: metrics}
}

// CanPerform reports whether the actor may perform the action on the module.
//
// SuperAdmin and Admin bypass the matrix entirely; that branch is deliberately
// separate from matrix rows so bypass roles never need phantom all-true rows.
// Non-approved actors are denied regardless of role. Evaluating a Collector
// panics: collectors are served outside the web channel, so reaching this
// point is a routing defect in the caller, not an ordinary "no rights" case.
func (e *Evaluator) CanPerform(ctx context.Context, actor actors.Actor, module Module, action Action) (bool, error) {
	if actor.Role == actors.RoleCollector {
		panic(fmt.Sprintf("access: permission evaluation requested for collector actor %d", actor.ID))
	}
	if !module.Valid() {
		return false, fmt.Errorf("%w: %q", ErrUnknownModule, module)
	}
	if !action.Valid() {
		return false, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	if !actor.Approved() {
		e.metrics.denied()
		return false, nil
	}
	if actor.Role == actors.RoleSuperAdmin || actor.Role == actors.RoleAdmin {
		return true, nil
	}

	perms, err := e.matrix.GetModulePermissions(ctx, actor.ID)
	if err != nil {
		return false, err
	}
	for _, p := range perms {
		if p.ModuleID == module {
			if p.Grants(action) {
				return true, nil
			}
			break
		}
	}
	// A missing row is an ordinary denial, not an error.
	e.metrics.denied()
	return false, nil
}
