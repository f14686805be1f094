package catalog

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Service handles catalog reads for presentation. Names are ordered with
// Spanish collation so accented company and route names sort as users expect.
// The collator keeps iterator state between comparisons, so it is guarded by
// a mutex for concurrent requests.
type Service struct {
	repo RepositoryPort

	mu       sync.Mutex
	collator *collate.Collator
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{
		repo:     repo,
		collator: collate.New(language.Spanish, collate.IgnoreCase),
	}
}

// HierarchyNodes returns all hierarchy nodes.
func (s *Service) HierarchyNodes(ctx context.Context) ([]HierarchyNode, error) {
	return s.repo.ListHierarchyNodes(ctx)
}

// CompaniesByNode returns the active companies for one hierarchy node.
func (s *Service) CompaniesByNode(ctx context.Context, hierarchyNodeID int64) ([]Company, error) {
	companies, err := s.repo.ListCompaniesByNode(ctx, hierarchyNodeID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	sort.SliceStable(companies, func(i, j int) bool {
		return s.collator.CompareString(companies[i].Name, companies[j].Name) < 0
	})
	s.mu.Unlock()
	return companies, nil
}

// RoutesByCompany returns the active routes for one company.
func (s *Service) RoutesByCompany(ctx context.Context, companyID int64) ([]Route, error) {
	routes, err := s.repo.ListRoutesByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	sort.SliceStable(routes, func(i, j int) bool {
		return s.collator.CompareString(routes[i].Name, routes[j].Name) < 0
	})
	s.mu.Unlock()
	return routes, nil
}
