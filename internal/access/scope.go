// Package access implements the authorization core: effective-scope
// resolution, the cascading location selection, the per-module permission
// matrix and the permission evaluator.
package access

import (
	"context"
	"log/slog"

	"github.com/rutacredit/rutacredit/internal/actors"
	"github.com/rutacredit/rutacredit/internal/catalog"
)

// CatalogPort is the slice of catalog reads scope resolution needs.
type CatalogPort interface {
	ListHierarchyNodes(ctx context.Context) ([]catalog.HierarchyNode, error)
	ListActiveCompanies(ctx context.Context) ([]catalog.Company, error)
	ListActiveRoutes(ctx context.Context) ([]catalog.Route, error)
}

// EffectiveScope is the resolved set of hierarchy nodes, companies and routes
// an actor may query or select. It is a per-decision value; never cache it
// across requests, assignment edits must be visible immediately.
type EffectiveScope struct {
	Nodes     []catalog.HierarchyNode
	Companies []catalog.Company
	Routes    []catalog.Route

	nodeIDs      map[int64]struct{}
	companyNodes map[int64]int64
	routeCompany map[int64]int64
}

// NewEffectiveScope builds a scope value with its lookup indexes.
func NewEffectiveScope(nodes []catalog.HierarchyNode, companies []catalog.Company, routes []catalog.Route) EffectiveScope {
	s := EffectiveScope{
		Nodes:        nodes,
		Companies:    companies,
		Routes:       routes,
		nodeIDs:      make(map[int64]struct{}, len(nodes)),
		companyNodes: make(map[int64]int64, len(companies)),
		routeCompany: make(map[int64]int64, len(routes)),
	}
	for _, n := range nodes {
		s.nodeIDs[n.ID] = struct{}{}
	}
	for _, c := range companies {
		s.companyNodes[c.ID] = c.HierarchyNodeID
	}
	for _, r := range routes {
		s.routeCompany[r.ID] = r.CompanyID
	}
	return s
}

// HasNode reports whether the hierarchy node is in scope.
func (s EffectiveScope) HasNode(id int64) bool {
	_, ok := s.nodeIDs[id]
	return ok
}

// HasCompany reports whether the company is in scope.
func (s EffectiveScope) HasCompany(id int64) bool {
	_, ok := s.companyNodes[id]
	return ok
}

// HasRoute reports whether the route is in scope.
func (s EffectiveScope) HasRoute(id int64) bool {
	_, ok := s.routeCompany[id]
	return ok
}

// CompanyNode returns the owning hierarchy node of an in-scope company.
func (s EffectiveScope) CompanyNode(companyID int64) (int64, bool) {
	nodeID, ok := s.companyNodes[companyID]
	return nodeID, ok
}

// RouteCompany returns the owning company of an in-scope route.
func (s EffectiveScope) RouteCompany(routeID int64) (int64, bool) {
	companyID, ok := s.routeCompany[routeID]
	return companyID, ok
}

// RoutesForCompany returns the in-scope routes belonging to a company.
func (s EffectiveScope) RoutesForCompany(companyID int64) []catalog.Route {
	var out []catalog.Route
	for _, r := range s.Routes {
		if r.CompanyID == companyID {
			out = append(out, r)
		}
	}
	return out
}

// Empty reports whether the actor has no reachable location at all. This is a
// legitimate, displayable state, not an error.
func (s EffectiveScope) Empty() bool {
	return len(s.Nodes) == 0 && len(s.Companies) == 0 && len(s.Routes) == 0
}

// Resolver computes effective scopes from the catalog and actor assignments.
type Resolver struct {
	catalog CatalogPort
	logger  *slog.Logger
	metrics *Counters
}

// NewResolver builds a Resolver.
func NewResolver(cat CatalogPort, logger *slog.Logger, metrics *Counters) *Resolver {
	return &Resolver{catalog: cat, logger: logger, metrics: metrics}
}

// Resolve computes the actor's effective scope against the current catalog.
// It always returns a scope; an empty one means "no location available".
// Non-approved actors resolve to an empty scope regardless of role.
func (r *Resolver) Resolve(ctx context.Context, actor actors.Actor) (EffectiveScope, error) {
	scope, findings, err := r.resolve(ctx, actor)
	if err != nil {
		return EffectiveScope{}, err
	}
	for _, companyID := range findings {
		r.metrics.inconsistent()
		if r.logger != nil {
			r.logger.Warn("company assigned outside actor hierarchy, excluded from scope",
				slog.Int64("actor_id", actor.ID),
				slog.Int64("company_id", companyID),
			)
		}
	}
	return scope, nil
}

// InconsistentCompanies returns the company IDs assigned to the actor that
// fall outside the actor's assigned hierarchy nodes. Used by the integrity
// scan to surface misconfigured assignments without spamming decision logs.
func (r *Resolver) InconsistentCompanies(ctx context.Context, actor actors.Actor) ([]int64, error) {
	_, findings, err := r.resolve(ctx, actor)
	return findings, err
}

func (r *Resolver) resolve(ctx context.Context, actor actors.Actor) (EffectiveScope, []int64, error) {
	if !actor.Approved() {
		return NewEffectiveScope(nil, nil, nil), nil, nil
	}

	nodes, err := r.catalog.ListHierarchyNodes(ctx)
	if err != nil {
		return EffectiveScope{}, nil, err
	}
	companies, err := r.catalog.ListActiveCompanies(ctx)
	if err != nil {
		return EffectiveScope{}, nil, err
	}
	routes, err := r.catalog.ListActiveRoutes(ctx)
	if err != nil {
		return EffectiveScope{}, nil, err
	}
	r.metrics.resolution()

	// Role implies universal scope; assignment sets are ignored, not merely
	// empty-defaulted.
	if actor.Role == actors.RoleSuperAdmin {
		return NewEffectiveScope(nodes, companies, routes), nil, nil
	}

	assignedNodes := toSet(actor.AssignedHierarchyIDs)
	assignedCompanies := toSet(actor.AssignedCompanyIDs)
	assignedRoutes := toSet(actor.AssignedRouteIDs)

	activeCompaniesByNode := make(map[int64]int, len(companies))
	for _, c := range companies {
		activeCompaniesByNode[c.HierarchyNodeID]++
	}

	// Nodes without a single active company are pruned from navigation.
	var scopeNodes []catalog.HierarchyNode
	scopeNodeIDs := make(map[int64]struct{})
	for _, n := range nodes {
		if _, ok := assignedNodes[n.ID]; !ok {
			continue
		}
		if activeCompaniesByNode[n.ID] == 0 {
			continue
		}
		scopeNodes = append(scopeNodes, n)
		scopeNodeIDs[n.ID] = struct{}{}
	}

	var scopeCompanies []catalog.Company
	scopeCompanyIDs := make(map[int64]struct{})
	var inconsistent []int64
	for _, c := range companies {
		if _, ok := assignedCompanies[c.ID]; !ok {
			continue
		}
		if _, ok := assignedNodes[c.HierarchyNodeID]; !ok {
			// Assigned company outside the assigned hierarchy nodes: treated
			// as no-access for that company, not as an error.
			inconsistent = append(inconsistent, c.ID)
			continue
		}
		if _, ok := scopeNodeIDs[c.HierarchyNodeID]; !ok {
			continue
		}
		scopeCompanies = append(scopeCompanies, c)
		scopeCompanyIDs[c.ID] = struct{}{}
	}

	var scopeRoutes []catalog.Route
	for _, rt := range routes {
		if _, ok := assignedRoutes[rt.ID]; !ok {
			continue
		}
		if _, ok := scopeCompanyIDs[rt.CompanyID]; !ok {
			continue
		}
		scopeRoutes = append(scopeRoutes, rt)
	}

	return NewEffectiveScope(scopeNodes, scopeCompanies, scopeRoutes), inconsistent, nil
}

func toSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
