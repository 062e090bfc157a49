package metrics

import (
	"github.com/EnMasseProject/enmasse/internal/router"
)

// Spec declares one output series computed over an entity table.
type Spec struct {
	// Name is the metric name. It also names the value column unless
	// ValueSource is set.
	Name string

	// ID is the exposed series name. Several specs may share a Name and
	// differ by ID, e.g. per-address and router-wide link counts.
	// Default: Name
	ID string

	Help   string
	Labels []string
	Kind   Kind

	// ValueSource is the column holding the numeric value.
	// Default: Name
	ValueSource string

	// Filter, when set, keeps only rows whose attributes equal every
	// required value.
	Filter map[string]string
}

// SeriesID returns ID, or Name when ID is unset.
func (s Spec) SeriesID() string {
	if s.ID != "" {
		return s.ID
	}
	return s.Name
}

// ValueAttribute returns the column the value is read from.
func (s Spec) ValueAttribute() string {
	if s.ValueSource != "" {
		return s.ValueSource
	}
	return s.Name
}

// Binding ties specs to the procedure whose table they read.
type Binding struct {
	Procedure router.Procedure
	Specs     []Spec
}

var (
	routerLabels  = []string{"routerId"}
	addressLabels = []string{"address"}
)

// DefaultBindings returns the fixed router metric declarations, grouped by
// procedure in collection order.
func DefaultBindings() []Binding {
	return []Binding{
		{
			Procedure: router.RouterTotals,
			Specs: []Spec{
				{Name: "connectionCount", ID: "totalConnectionCount", Help: "Total number of connections to router", Labels: routerLabels},
				{Name: "linkCount", ID: "totalLinkCount", Help: "Total number of links to router", Labels: routerLabels},
				{Name: "addrCount", Help: "Number of addresses defined in router", Labels: routerLabels},
				{Name: "autoLinkCount", Help: "Number of auto links defined in router", Labels: routerLabels},
				{Name: "linkRouteCount", Help: "Number of link routers defined in router", Labels: routerLabels},
			},
		},
		{
			Procedure: router.Connections,
			Specs: []Spec{
				{Name: "connectionCount", Help: "Number of connections to router", Labels: []string{"container"}},
			},
		},
		{
			Procedure: router.Links,
			Specs: []Spec{
				{Name: "linkCount", Help: "Number of links to router", Labels: addressLabels},
				{Name: "unsettledCount", Help: "Number of unsettled messages", Labels: addressLabels},
				{Name: "deliveryCount", Help: "Number of delivered messages", Labels: addressLabels, Kind: Counter},
				{Name: "releasedCount", Help: "Number of released messages", Labels: addressLabels, Kind: Counter},
				{Name: "rejectedCount", Help: "Number of rejected messages", Labels: addressLabels, Kind: Counter},
				{Name: "acceptedCount", Help: "Number of accepted messages", Labels: addressLabels, Kind: Counter},
				{Name: "undeliveredCount", Help: "Number of undelivered messages", Labels: addressLabels},
				{Name: "capacity", Help: "Capacity of link", Labels: addressLabels},
				{Name: "linkCount", ID: "consumerCount", Help: "Number of consumers to router", Labels: addressLabels, Filter: map[string]string{"linkDir": "out"}},
				{Name: "linkCount", ID: "producerCount", Help: "Number of producers to router", Labels: addressLabels, Filter: map[string]string{"linkDir": "in"}},
			},
		},
	}
}

// DefaultSpecs returns every spec of DefaultBindings in order.
func DefaultSpecs() []Spec {
	var specs []Spec
	for _, b := range DefaultBindings() {
		specs = append(specs, b.Specs...)
	}
	return specs
}
