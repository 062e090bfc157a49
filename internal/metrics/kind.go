package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Kind is the exposition type of a series.
type Kind int

const (
	Gauge Kind = iota
	Counter
)

// String returns the exposition type name.
func (k Kind) String() string {
	switch k {
	case Gauge:
		return "gauge"
	case Counter:
		return "counter"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ValueType returns the Prometheus value type for k.
func (k Kind) ValueType() prometheus.ValueType {
	if k == Counter {
		return prometheus.CounterValue
	}
	return prometheus.GaugeValue
}
