package access

// Module identifies a functional area subject to independent permission flags.
type Module string

const (
	ModuleClients  Module = "clients"
	ModuleLoans    Module = "loans"
	ModulePayments Module = "payments"
	ModuleExpenses Module = "expenses"
	ModuleReports  Module = "reports"
	ModuleVendors  Module = "vendors"
)

// Modules lists every functional module in display order.
func Modules() []Module {
	return []Module{ModuleClients, ModuleLoans, ModulePayments, ModuleExpenses, ModuleReports, ModuleVendors}
}

// Valid reports whether the module belongs to the closed set.
func (m Module) Valid() bool {
	switch m {
	case ModuleClients, ModuleLoans, ModulePayments, ModuleExpenses, ModuleReports, ModuleVendors:
		return true
	}
	return false
}

// Action is one of the four capabilities per module.
type Action string

const (
	ActionViewAll Action = "view_all"
	ActionCreate  Action = "create"
	ActionViewOwn Action = "view_own"
	ActionDelete  Action = "delete"
)

// Valid reports whether the action belongs to the closed set.
func (a Action) Valid() bool {
	switch a {
	case ActionViewAll, ActionCreate, ActionViewOwn, ActionDelete:
		return true
	}
	return false
}

// ModulePermission is the per-module capability row for one actor. An
// all-false row and an absent row mean the same thing.
type ModulePermission struct {
	ModuleID Module `json:"module_id"`
	ViewAll  bool   `json:"view_all"`
	Create   bool   `json:"create"`
	ViewOwn  bool   `json:"view_own"`
	Delete   bool   `json:"delete"`
}

// Normalize applies the write-time shortcut: view_all implies every other flag.
func (p ModulePermission) Normalize() ModulePermission {
	if p.ViewAll {
		p.Create = true
		p.ViewOwn = true
		p.Delete = true
	}
	return p
}

// Grants reports whether the row grants the action. view_all ORs into every
// check so rows persisted before normalisation existed still evaluate safely.
func (p ModulePermission) Grants(a Action) bool {
	switch a {
	case ActionViewAll:
		return p.ViewAll
	case ActionCreate:
		return p.ViewAll || p.Create
	case ActionViewOwn:
		return p.ViewAll || p.ViewOwn
	case ActionDelete:
		return p.ViewAll || p.Delete
	}
	return false
}

// Empty reports an all-false row.
func (p ModulePermission) Empty() bool {
	return !p.ViewAll && !p.Create && !p.ViewOwn && !p.Delete
}
