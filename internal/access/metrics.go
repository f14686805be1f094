package access

import "github.com/prometheus/client_golang/prometheus"

// Counters tracks access-core decisions on the application registry.
type Counters struct {
	scopeResolutions        prometheus.Counter
	inconsistentAssignments prometheus.Counter
	selectionsRejected      prometheus.Counter
	permissionDenials       prometheus.Counter
}

// NewCounters registers the access counters on the given registerer.
func NewCounters(reg prometheus.Registerer) *Counters {
	c := &Counters{
		scopeResolutions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rutacredit_scope_resolutions_total",
			Help: "Number of effective-scope resolutions performed.",
		}),
		inconsistentAssignments: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rutacredit_inconsistent_assignments_total",
			Help: "Company assignments excluded because they fall outside the actor's hierarchy nodes.",
		}),
		selectionsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rutacredit_location_selections_rejected_total",
			Help: "Location selections rejected as out of scope.",
		}),
		permissionDenials: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rutacredit_permission_denials_total",
			Help: "Permission checks that returned a denial.",
		}),
	}
	reg.MustRegister(c.scopeResolutions, c.inconsistentAssignments, c.selectionsRejected, c.permissionDenials)
	return c
}

func (c *Counters) resolution() {
	if c != nil {
		c.scopeResolutions.Inc()
	}
}

func (c *Counters) inconsistent() {
	if c != nil {
		c.inconsistentAssignments.Inc()
	}
}

func (c *Counters) rejected() {
	if c != nil {
		c.selectionsRejected.Inc()
	}
}

func (c *Counters) denied() {
	if c != nil {
		c.permissionDenials.Inc()
	}
}
