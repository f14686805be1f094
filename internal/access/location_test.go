package access

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rutacredit/rutacredit/internal/actors"
)

type fakeSelectionStore struct {
	saved   bool
	actorID int64
	node    *int64
	company *int64
	route   *int64
	err     error
}

func (f *fakeSelectionStore) SaveLastSelection(ctx context.Context, actorID int64, hierarchyID, companyID, routeID *int64) error {
	if f.err != nil {
		return f.err
	}
	f.saved = true
	f.actorID = actorID
	f.node = hierarchyID
	f.company = companyID
	f.route = routeID
	return nil
}

func ptr(v int64) *int64 { return &v }

func newLocations(store LastSelectionStore) *Locations {
	return NewLocations(NewResolver(testCatalog(), nil, nil), store, nil, nil)
}

func scopedActor() actors.Actor {
	actor := approvedActor(actors.RoleStandardUser)
	actor.AssignedHierarchyIDs = []int64{1, 2}
	actor.AssignedCompanyIDs = []int64{10, 11, 12}
	actor.AssignedRouteIDs = []int64{100, 101, 102}
	return actor
}

func TestActiveUnselectedWithoutStoredTriple(t *testing.T) {
	locs := newLocations(&fakeSelectionStore{})

	loc, err := locs.Active(context.Background(), scopedActor())
	require.NoError(t, err)
	require.Equal(t, StateUnselected, loc.State)
	require.Nil(t, loc.HierarchyNodeID)
}

func TestActiveDropsStaleStoredTriple(t *testing.T) {
	locs := newLocations(&fakeSelectionStore{})
	actor := scopedActor()
	// Node 3 exists in the catalog but has no active companies, so it is out
	// of scope; the stored cascade below it falls away with it.
	actor.AssignedHierarchyIDs = append(actor.AssignedHierarchyIDs, 3)
	actor.LastHierarchyID = ptr(3)
	actor.LastCompanyID = ptr(10)
	actor.LastRouteID = ptr(100)

	loc, err := locs.Active(context.Background(), actor)
	require.NoError(t, err)
	require.Equal(t, StateUnselected, loc.State)
	require.Nil(t, loc.CompanyID)
	require.Nil(t, loc.RouteID)
}

func TestActiveRestoresRouteSelection(t *testing.T) {
	locs := newLocations(&fakeSelectionStore{})
	actor := scopedActor()
	actor.LastHierarchyID = ptr(1)
	actor.LastCompanyID = ptr(10)
	actor.LastRouteID = ptr(100)

	loc, err := locs.Active(context.Background(), actor)
	require.NoError(t, err)
	require.Equal(t, StateRouteSelected, loc.State)
	require.Equal(t, int64(100), *loc.RouteID)
}

func TestActiveStoredCompanyWithoutRoute(t *testing.T) {
	locs := newLocations(&fakeSelectionStore{})

	// Company 10 has routes in scope: resting on "all routes".
	actor := scopedActor()
	actor.LastHierarchyID = ptr(1)
	actor.LastCompanyID = ptr(10)
	loc, err := locs.Active(context.Background(), actor)
	require.NoError(t, err)
	require.Equal(t, StateRouteCleared, loc.State)

	// Company 11 has no routes at all: terminal company-only.
	actor.LastCompanyID = ptr(11)
	loc, err = locs.Active(context.Background(), actor)
	require.NoError(t, err)
	require.Equal(t, StateCompanyOnly, loc.State)
}

func TestSelectCompanyClearsRoute(t *testing.T) {
	store := &fakeSelectionStore{}
	locs := newLocations(store)
	actor := scopedActor()
	actor.LastHierarchyID = ptr(1)
	actor.LastCompanyID = ptr(10)
	actor.LastRouteID = ptr(100)

	loc, err := locs.Select(context.Background(), actor, SelectionRequest{CompanyID: ptr(11)})
	require.NoError(t, err)
	require.Equal(t, int64(11), *loc.CompanyID)
	require.Nil(t, loc.RouteID)
	require.Equal(t, StateCompanyOnly, loc.State)
	require.True(t, store.saved)
	require.Nil(t, store.route)
}

func TestSelectCompanyWithRoutesLeavesPickerOpen(t *testing.T) {
	store := &fakeSelectionStore{}
	locs := newLocations(store)
	actor := scopedActor()
	actor.LastHierarchyID = ptr(1)

	// Company 10 has routes in scope and none was asked for yet, so the
	// selection rests in the intermediate state with the route picker open.
	loc, err := locs.Select(context.Background(), actor, SelectionRequest{CompanyID: ptr(10)})
	require.NoError(t, err)
	require.Equal(t, StateCompanySelected, loc.State)
	require.Equal(t, int64(10), *loc.CompanyID)
	require.Nil(t, loc.RouteID)
	require.True(t, store.saved)
}

func TestSelectNodeResetsCascade(t *testing.T) {
	locs := newLocations(&fakeSelectionStore{})
	actor := scopedActor()
	actor.LastHierarchyID = ptr(1)
	actor.LastCompanyID = ptr(10)
	actor.LastRouteID = ptr(100)

	loc, err := locs.Select(context.Background(), actor, SelectionRequest{HierarchyNodeID: ptr(2)})
	require.NoError(t, err)
	require.Equal(t, StateNodeSelected, loc.State)
	require.Nil(t, loc.CompanyID)
	require.Nil(t, loc.RouteID)
}

func TestSelectRouteWithinCompany(t *testing.T) {
	locs := newLocations(&fakeSelectionStore{})
	actor := scopedActor()
	actor.LastHierarchyID = ptr(1)
	actor.LastCompanyID = ptr(10)

	loc, err := locs.Select(context.Background(), actor, SelectionRequest{RouteID: ptr(101)})
	require.NoError(t, err)
	require.Equal(t, StateRouteSelected, loc.State)
	require.Equal(t, int64(101), *loc.RouteID)
}

func TestSelectClearRoute(t *testing.T) {
	locs := newLocations(&fakeSelectionStore{})
	actor := scopedActor()
	actor.LastHierarchyID = ptr(1)
	actor.LastCompanyID = ptr(10)
	actor.LastRouteID = ptr(100)

	loc, err := locs.Select(context.Background(), actor, SelectionRequest{ClearRoute: true})
	require.NoError(t, err)
	require.Equal(t, StateRouteCleared, loc.State)
	require.Nil(t, loc.RouteID)
	require.Equal(t, int64(10), *loc.CompanyID)
}

func TestSelectOutOfScopeRejected(t *testing.T) {
	locs := newLocations(&fakeSelectionStore{})
	actor := scopedActor()
	actor.AssignedHierarchyIDs = []int64{1}
	actor.AssignedCompanyIDs = []int64{10}
	actor.AssignedRouteIDs = []int64{100}

	_, err := locs.Select(context.Background(), actor, SelectionRequest{HierarchyNodeID: ptr(2)})
	require.ErrorIs(t, err, ErrOutOfScopeSelection)

	_, err = locs.Select(context.Background(), actor, SelectionRequest{HierarchyNodeID: ptr(1), CompanyID: ptr(12)})
	require.ErrorIs(t, err, ErrOutOfScopeSelection)

	// Route 101 belongs to company 10 but is not assigned to the actor.
	_, err = locs.Select(context.Background(), actor, SelectionRequest{HierarchyNodeID: ptr(1), CompanyID: ptr(10), RouteID: ptr(101)})
	require.ErrorIs(t, err, ErrOutOfScopeSelection)
}

func TestSelectEmptyRequestRejected(t *testing.T) {
	locs := newLocations(&fakeSelectionStore{})

	_, err := locs.Select(context.Background(), scopedActor(), SelectionRequest{})
	require.ErrorIs(t, err, ErrEmptySelection)
}

func TestSelectSurvivesPersistenceFailure(t *testing.T) {
	store := &fakeSelectionStore{err: errors.New("db down")}
	locs := newLocations(store)
	actor := scopedActor()

	loc, err := locs.Select(context.Background(), actor, SelectionRequest{HierarchyNodeID: ptr(1)})
	require.NoError(t, err)
	require.Equal(t, StateNodeSelected, loc.State)
}
