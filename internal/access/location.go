package access

import (
	"context"
	"log/slog"

	"github.com/rutacredit/rutacredit/internal/actors"
)

// LocationState names the states of the cascading selector.
type LocationState string

const (
	// StateUnselected means no hierarchy node is chosen yet.
	StateUnselected LocationState = "UNSELECTED"
	// StateNodeSelected means a node is chosen but no company yet.
	StateNodeSelected LocationState = "NODE_SELECTED"
	// StateCompanySelected is the non-terminal intermediate while the route
	// picker is still open: the company has routes and none is chosen yet.
	StateCompanySelected LocationState = "COMPANY_SELECTED"
	// StateCompanyOnly is the terminal state for a company with no routes in
	// scope; the route picker is never shown.
	StateCompanyOnly LocationState = "COMPANY_ONLY"
	// StateRouteSelected means one specific route is active.
	StateRouteSelected LocationState = "ROUTE_SELECTED"
	// StateRouteCleared is the resting "all routes" selection: a company with
	// routes, explicitly browsed without narrowing to one.
	StateRouteCleared LocationState = "ROUTE_CLEARED"
)

// Location is the active (node, company, route) triple driving scoped queries.
// RouteID nil means "all routes within the active company visible to the actor".
type Location struct {
	State           LocationState `json:"state"`
	HierarchyNodeID *int64        `json:"hierarchy_node_id"`
	CompanyID       *int64        `json:"company_id"`
	RouteID         *int64        `json:"route_id"`
}

// SelectionRequest carries one attempted transition of the cascading selector.
// Omitted fields inherit from the current selection where that keeps the
// cascade consistent; selecting a company always discards the previous route.
type SelectionRequest struct {
	HierarchyNodeID *int64
	CompanyID       *int64
	RouteID         *int64
	ClearRoute      bool
}

func (r SelectionRequest) empty() bool {
	return r.HierarchyNodeID == nil && r.CompanyID == nil && r.RouteID == nil && !r.ClearRoute
}

// LastSelectionStore persists the last-selected triple on the actor record.
type LastSelectionStore interface {
	SaveLastSelection(ctx context.Context, actorID int64, hierarchyID, companyID, routeID *int64) error
}

// Locations manages the per-actor location context.
type Locations struct {
	resolver *Resolver
	store    LastSelectionStore
	logger   *slog.Logger
	metrics  *Counters
}

// NewLocations builds a Locations service.
func NewLocations(resolver *Resolver, store LastSelectionStore, logger *slog.Logger, metrics *Counters) *Locations {
	return &Locations{resolver: resolver, store: store, logger: logger, metrics: metrics}
}

// Active derives the actor's current location by intersecting the stored
// last-selected triple with a freshly resolved scope. Components that fell out
// of scope are dropped cascading: losing the node loses company and route too.
func (l *Locations) Active(ctx context.Context, actor actors.Actor) (Location, error) {
	scope, err := l.resolver.Resolve(ctx, actor)
	if err != nil {
		return Location{}, err
	}
	return deriveLocation(scope, actor.LastHierarchyID, actor.LastCompanyID, actor.LastRouteID), nil
}

// Select validates the requested transition against a freshly resolved scope
// and, when accepted, persists the new triple. Persistence is fire-and-forget:
// the returned location is committed in memory even if the write fails, since
// the selection is still valid for the current session.
func (l *Locations) Select(ctx context.Context, actor actors.Actor, req SelectionRequest) (Location, error) {
	if req.empty() {
		return Location{}, ErrEmptySelection
	}

	scope, err := l.resolver.Resolve(ctx, actor)
	if err != nil {
		return Location{}, err
	}
	current := deriveLocation(scope, actor.LastHierarchyID, actor.LastCompanyID, actor.LastRouteID)

	nodeID := current.HierarchyNodeID
	if req.HierarchyNodeID != nil {
		nodeID = req.HierarchyNodeID
	}

	var companyID *int64
	switch {
	case req.CompanyID != nil:
		companyID = req.CompanyID
	case req.HierarchyNodeID != nil:
		// Re-selecting the node resets the rest of the cascade.
		companyID = nil
	default:
		companyID = current.CompanyID
	}

	var routeID *int64
	switch {
	case req.RouteID != nil:
		routeID = req.RouteID
	case req.ClearRoute, req.CompanyID != nil, req.HierarchyNodeID != nil:
		// Route selection never carries across companies or nodes, and
		// ClearRoute is the explicit "all routes" transition.
		routeID = nil
	default:
		routeID = current.RouteID
	}

	if nodeID == nil {
		l.metrics.rejected()
		return Location{}, ErrOutOfScopeSelection
	}
	if !scope.HasNode(*nodeID) {
		l.metrics.rejected()
		return Location{}, ErrOutOfScopeSelection
	}
	if companyID != nil {
		owner, ok := scope.CompanyNode(*companyID)
		if !ok || owner != *nodeID {
			l.metrics.rejected()
			return Location{}, ErrOutOfScopeSelection
		}
	}
	if routeID != nil {
		if companyID == nil {
			l.metrics.rejected()
			return Location{}, ErrOutOfScopeSelection
		}
		owner, ok := scope.RouteCompany(*routeID)
		if !ok || owner != *companyID {
			l.metrics.rejected()
			return Location{}, ErrOutOfScopeSelection
		}
	}

	loc := Location{HierarchyNodeID: nodeID, CompanyID: companyID, RouteID: routeID}
	switch {
	case routeID != nil:
		loc.State = StateRouteSelected
	case companyID != nil && len(scope.RoutesForCompany(*companyID)) == 0:
		loc.State = StateCompanyOnly
	case companyID != nil && req.ClearRoute:
		loc.State = StateRouteCleared
	case companyID != nil:
		loc.State = StateCompanySelected
	default:
		loc.State = StateNodeSelected
	}

	if err := l.store.SaveLastSelection(ctx, actor.ID, nodeID, companyID, routeID); err != nil {
		if l.logger != nil {
			l.logger.Warn("persist location selection",
				slog.Int64("actor_id", actor.ID),
				slog.Any("error", err),
			)
		}
	}

	return loc, nil
}

func deriveLocation(scope EffectiveScope, hierarchyID, companyID, routeID *int64) Location {
	if hierarchyID == nil || !scope.HasNode(*hierarchyID) {
		return Location{State: StateUnselected}
	}
	loc := Location{State: StateNodeSelected, HierarchyNodeID: hierarchyID}

	if companyID == nil {
		return loc
	}
	owner, ok := scope.CompanyNode(*companyID)
	if !ok || owner != *hierarchyID {
		return loc
	}
	loc.CompanyID = companyID

	routes := scope.RoutesForCompany(*companyID)
	if routeID != nil {
		if owner, ok := scope.RouteCompany(*routeID); ok && owner == *companyID {
			loc.State = StateRouteSelected
			loc.RouteID = routeID
			return loc
		}
	}
	if len(routes) == 0 {
		loc.State = StateCompanyOnly
		return loc
	}
	// A stored company without a stored route is a resting "all routes"
	// selection for a returning session.
	loc.State = StateRouteCleared
	return loc
}
