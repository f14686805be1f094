package catalog

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	companies []Company
	routes    []Route
}

func (f *fakeRepo) ListHierarchyNodes(_ context.Context) ([]HierarchyNode, error) { return nil, nil }

func (f *fakeRepo) ListActiveCompanies(_ context.Context) ([]Company, error) {
	return append([]Company(nil), f.companies...), nil
}

func (f *fakeRepo) ListCompaniesByNode(_ context.Context, _ int64) ([]Company, error) {
	return append([]Company(nil), f.companies...), nil
}

func (f *fakeRepo) ListActiveRoutes(_ context.Context) ([]Route, error) {
	return append([]Route(nil), f.routes...), nil
}

func (f *fakeRepo) ListRoutesByCompany(_ context.Context, _ int64) ([]Route, error) {
	return append([]Route(nil), f.routes...), nil
}

var _ RepositoryPort = (*fakeRepo)(nil)

func TestCompaniesByNodeSpanishOrdering(t *testing.T) {
	repo := &fakeRepo{companies: []Company{
		{ID: 1, Name: "Ñuñoa Créditos"},
		{ID: 2, Name: "zarzal"},
		{ID: 3, Name: "Ávila Cobros"},
		{ID: 4, Name: "nortefin"},
	}}
	svc := NewService(repo)

	companies, err := svc.CompaniesByNode(context.Background(), 1)
	require.NoError(t, err)

	var names []string
	for _, c := range companies {
		names = append(names, c.Name)
	}
	require.Equal(t, []string{"Ávila Cobros", "nortefin", "Ñuñoa Créditos", "zarzal"}, names)
}

func TestCatalogSortingIsSafeConcurrently(t *testing.T) {
	repo := &fakeRepo{
		companies: []Company{
			{ID: 1, Name: "Ñuñoa Créditos"},
			{ID: 2, Name: "águilas"},
			{ID: 3, Name: "Zarzal"},
			{ID: 4, Name: "córdoba"},
		},
		routes: []Route{
			{ID: 10, Name: "ruta ñame"},
			{ID: 11, Name: "Ruta Álamo"},
			{ID: 12, Name: "ruta zinc"},
		},
	}
	svc := NewService(repo)
	ctx := context.Background()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				if _, err := svc.CompaniesByNode(ctx, 1); err != nil {
					t.Error(err)
					return
				}
				if _, err := svc.RoutesByCompany(ctx, 1); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()
}
