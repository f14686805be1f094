package catalog

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryPort defines read access to the catalog.
type RepositoryPort interface {
	ListHierarchyNodes(ctx context.Context) ([]HierarchyNode, error)
	ListActiveCompanies(ctx context.Context) ([]Company, error)
	ListCompaniesByNode(ctx context.Context, hierarchyNodeID int64) ([]Company, error)
	ListActiveRoutes(ctx context.Context) ([]Route, error)
	ListRoutesByCompany(ctx context.Context, companyID int64) ([]Route, error)
}

// Repository provides PostgreSQL backed catalog reads.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListHierarchyNodes returns all hierarchy nodes ordered by country then region.
func (r *Repository) ListHierarchyNodes(ctx context.Context) ([]HierarchyNode, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, country, region FROM hierarchy_nodes ORDER BY country, region`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []HierarchyNode
	for rows.Next() {
		var n HierarchyNode
		if err := rows.Scan(&n.ID, &n.Country, &n.Region); err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

// ListActiveCompanies returns every active company in the catalog.
func (r *Repository) ListActiveCompanies(ctx context.Context) ([]Company, error) {
	return r.queryCompanies(ctx, `SELECT id, name, hierarchy_node_id, is_active, created_at
FROM companies WHERE is_active ORDER BY name`)
}

// ListCompaniesByNode returns the active companies attached to one hierarchy node.
func (r *Repository) ListCompaniesByNode(ctx context.Context, hierarchyNodeID int64) ([]Company, error) {
	return r.queryCompanies(ctx, `SELECT id, name, hierarchy_node_id, is_active, created_at
FROM companies WHERE is_active AND hierarchy_node_id = $1 ORDER BY name`, hierarchyNodeID)
}

// ListActiveRoutes returns every active route in the catalog.
func (r *Repository) ListActiveRoutes(ctx context.Context) ([]Route, error) {
	return r.queryRoutes(ctx, `SELECT id, name, company_id, collector_id, is_active, created_at
FROM routes WHERE is_active ORDER BY name`)
}

// ListRoutesByCompany returns the active routes belonging to one company.
func (r *Repository) ListRoutesByCompany(ctx context.Context, companyID int64) ([]Route, error) {
	return r.queryRoutes(ctx, `SELECT id, name, company_id, collector_id, is_active, created_at
FROM routes WHERE is_active AND company_id = $1 ORDER BY name`, companyID)
}

func (r *Repository) queryCompanies(ctx context.Context, query string, args ...any) ([]Company, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var companies []Company
	for rows.Next() {
		var c Company
		if err := rows.Scan(&c.ID, &c.Name, &c.HierarchyNodeID, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

func (r *Repository) queryRoutes(ctx context.Context, query string, args ...any) ([]Route, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var routes []Route
	for rows.Next() {
		var rt Route
		if err := rows.Scan(&rt.ID, &rt.Name, &rt.CompanyID, &rt.CollectorID, &rt.IsActive, &rt.CreatedAt); err != nil {
			return nil, err
		}
		routes = append(routes, rt)
	}
	return routes, rows.Err()
}

var _ RepositoryPort = (*Repository)(nil)
