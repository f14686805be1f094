// Package catalog provides read-only access to the organisational catalog:
// hierarchy nodes (country/region), the companies attached to them, and the
// collection routes attached to each company. Rows are administered elsewhere;
// this package only reads them.
package catalog

import "time"

// HierarchyNode identifies a country/region pair at the top of the
// organisational tree. (country, region) pairs are unique.
type HierarchyNode struct {
	ID      int64
	Country string
	Region  string
}

// Company is a tenant business unit operating within exactly one hierarchy node.
type Company struct {
	ID              int64
	Name            string
	HierarchyNodeID int64
	IsActive        bool
	CreatedAt       time.Time
}

// Route is a collection route belonging to exactly one company, optionally
// assigned to one collector.
type Route struct {
	ID          int64
	Name        string
	CompanyID   int64
	CollectorID *int64
	IsActive    bool
	CreatedAt   time.Time
}
