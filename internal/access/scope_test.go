package access

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rutacredit/rutacredit/internal/actors"
	"github.com/rutacredit/rutacredit/internal/catalog"
)

type fakeCatalog struct {
	nodes     []catalog.HierarchyNode
	companies []catalog.Company
	routes    []catalog.Route
}

func (f *fakeCatalog) ListHierarchyNodes(ctx context.Context) ([]catalog.HierarchyNode, error) {
	return f.nodes, nil
}

func (f *fakeCatalog) ListActiveCompanies(ctx context.Context) ([]catalog.Company, error) {
	return f.companies, nil
}

func (f *fakeCatalog) ListActiveRoutes(ctx context.Context) ([]catalog.Route, error) {
	return f.routes, nil
}

func testCatalog() *fakeCatalog {
	return &fakeCatalog{
		nodes: []catalog.HierarchyNode{
			{ID: 1, Country: "Colombia", Region: "Antioquia"},
			{ID: 2, Country: "Colombia", Region: "Valle del Cauca"},
			{ID: 3, Country: "México", Region: "Jalisco"},
		},
		companies: []catalog.Company{
			{ID: 10, Name: "Medellín", HierarchyNodeID: 1, IsActive: true},
			{ID: 11, Name: "Envigado", HierarchyNodeID: 1, IsActive: true},
			{ID: 12, Name: "Cali", HierarchyNodeID: 2, IsActive: true},
		},
		routes: []catalog.Route{
			{ID: 100, Name: "Centro", CompanyID: 10, IsActive: true},
			{ID: 101, Name: "Norte", CompanyID: 10, IsActive: true},
			{ID: 102, Name: "Sur", CompanyID: 12, IsActive: true},
		},
	}
}

func approvedActor(role actors.Role) actors.Actor {
	return actors.Actor{ID: 7, Role: role, ApprovalStatus: actors.ApprovalApproved, IsActive: true}
}

func TestResolveSuperAdminIgnoresAssignments(t *testing.T) {
	resolver := NewResolver(testCatalog(), nil, nil)
	actor := approvedActor(actors.RoleSuperAdmin)
	// Assignments present on a SuperAdmin record are stale data and must not
	// narrow the scope.
	actor.AssignedHierarchyIDs = []int64{1}
	actor.AssignedCompanyIDs = []int64{10}

	scope, err := resolver.Resolve(context.Background(), actor)
	require.NoError(t, err)
	require.Len(t, scope.Nodes, 3)
	require.Len(t, scope.Companies, 3)
	require.Len(t, scope.Routes, 3)
}

func TestResolveParentChildConsistency(t *testing.T) {
	resolver := NewResolver(testCatalog(), nil, nil)
	actor := approvedActor(actors.RoleStandardUser)
	actor.AssignedHierarchyIDs = []int64{1}
	actor.AssignedCompanyIDs = []int64{10, 12}
	actor.AssignedRouteIDs = []int64{100, 102}

	scope, err := resolver.Resolve(context.Background(), actor)
	require.NoError(t, err)

	// Every scoped company belongs to a scoped node, every scoped route to a
	// scoped company.
	for _, c := range scope.Companies {
		require.True(t, scope.HasNode(c.HierarchyNodeID))
	}
	for _, r := range scope.Routes {
		require.True(t, scope.HasCompany(r.CompanyID))
	}

	// Company 12 and route 102 hang off node 2, which is not assigned.
	require.True(t, scope.HasCompany(10))
	require.False(t, scope.HasCompany(12))
	require.True(t, scope.HasRoute(100))
	require.False(t, scope.HasRoute(102))
}

func TestResolveInconsistentCompanyExcludedNotFatal(t *testing.T) {
	resolver := NewResolver(testCatalog(), nil, nil)
	actor := approvedActor(actors.RoleStandardUser)
	actor.AssignedHierarchyIDs = []int64{1}
	actor.AssignedCompanyIDs = []int64{10, 12}

	scope, err := resolver.Resolve(context.Background(), actor)
	require.NoError(t, err)
	require.True(t, scope.HasCompany(10))
	require.False(t, scope.HasCompany(12))

	findings, err := resolver.InconsistentCompanies(context.Background(), actor)
	require.NoError(t, err)
	require.Equal(t, []int64{12}, findings)
}

func TestResolveNodeWithoutActiveCompaniesPruned(t *testing.T) {
	resolver := NewResolver(testCatalog(), nil, nil)
	actor := approvedActor(actors.RoleStandardUser)
	// Node 3 has no active companies at all.
	actor.AssignedHierarchyIDs = []int64{1, 3}
	actor.AssignedCompanyIDs = []int64{10}

	scope, err := resolver.Resolve(context.Background(), actor)
	require.NoError(t, err)
	require.True(t, scope.HasNode(1))
	require.False(t, scope.HasNode(3))
}

func TestResolveNonApprovedActorEmptyScope(t *testing.T) {
	resolver := NewResolver(testCatalog(), nil, nil)
	actor := approvedActor(actors.RoleAdmin)
	actor.ApprovalStatus = actors.ApprovalPending
	actor.AssignedHierarchyIDs = []int64{1}
	actor.AssignedCompanyIDs = []int64{10}

	scope, err := resolver.Resolve(context.Background(), actor)
	require.NoError(t, err)
	require.True(t, scope.Empty())
}

func TestResolveEmptyScopeIsValid(t *testing.T) {
	resolver := NewResolver(testCatalog(), nil, nil)
	actor := approvedActor(actors.RoleStandardUser)

	scope, err := resolver.Resolve(context.Background(), actor)
	require.NoError(t, err)
	require.True(t, scope.Empty())
}
