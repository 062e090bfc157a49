package metrics

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/prometheus/common/model"

	"github.com/EnMasseProject/enmasse/internal/entity"
)

// Sample is one labeled value of a series.
type Sample struct {
	LabelValues []string
	Value       int64
}

// Series is the finalized output of one Spec for one collection pass.
type Series struct {
	Name    string
	ID      string
	Help    string
	Labels  []string
	Kind    Kind
	Samples []Sample
}

// Accumulator sums values per label tuple for one Spec during one pass.
// Samples keep the order in which their label tuple was first seen.
type Accumulator struct {
	spec    Spec
	index   map[string]int
	samples []Sample
}

// NewAccumulator creates an empty accumulator for spec.
func NewAccumulator(spec Spec) *Accumulator {
	return &Accumulator{
		spec:  spec,
		index: make(map[string]int),
	}
}

// Add adds v to the entry for labelValues, creating it if needed.
func (a *Accumulator) Add(labelValues []string, v int64) {
	key := strings.Join(labelValues, string([]byte{model.SeparatorByte}))
	if i, ok := a.index[key]; ok {
		a.samples[i].Value += v
		return
	}
	a.index[key] = len(a.samples)
	a.samples = append(a.samples, Sample{
		LabelValues: append([]string(nil), labelValues...),
		Value:       v,
	})
}

// Len returns the number of distinct label tuples.
func (a *Accumulator) Len() int {
	return len(a.samples)
}

// Finalize returns the accumulated series. The accumulator must not be used
// afterwards.
func (a *Accumulator) Finalize() Series {
	return Series{
		Name:    a.spec.Name,
		ID:      a.spec.SeriesID(),
		Help:    a.spec.Help,
		Labels:  append([]string(nil), a.spec.Labels...),
		Kind:    a.spec.Kind,
		Samples: a.samples,
	}
}

// ValueCoercionError reports a value column that does not hold an integer.
// It aborts the whole collection pass.
type ValueCoercionError struct {
	SeriesID  string
	Attribute string
	Value     any
	Err       error
}

// Error returns the formatted error string.
func (e *ValueCoercionError) Error() string {
	return fmt.Sprintf("metrics: series %s: attribute %s: cannot convert %v (%T) to integer: %v",
		e.SeriesID, e.Attribute, e.Value, e.Value, e.Err)
}

// Unwrap returns the conversion error.
func (e *ValueCoercionError) Unwrap() error {
	return e.Err
}

// Evaluate accumulates spec over every row of table. Rows failing the filter,
// missing a label or value attribute, or holding nil there are skipped. A
// value that cannot be converted to an integer is returned as a
// *ValueCoercionError.
func Evaluate(spec Spec, table *entity.Table) (Series, error) {
	acc := NewAccumulator(spec)
	valueAttr := spec.ValueAttribute()

	for i := 0; i < table.Len(); i++ {
		row := table.Row(i)
		if !matches(row, spec.Filter) {
			continue
		}
		labels, ok := labelValues(row, spec.Labels)
		if !ok {
			continue
		}
		raw, ok := row.Get(valueAttr)
		// nil means the attribute is absent, not that coercion failed.
		if !ok || raw == nil {
			continue
		}
		v, err := ToInt64(raw)
		if err != nil {
			return Series{}, &ValueCoercionError{
				SeriesID:  spec.SeriesID(),
				Attribute: valueAttr,
				Value:     raw,
				Err:       err,
			}
		}
		acc.Add(labels, v)
	}
	return acc.Finalize(), nil
}

// matches reports whether row has every filtered attribute set to the
// required string. A row without the attribute does not match.
func matches(row entity.Row, filter map[string]string) bool {
	for name, want := range filter {
		v, ok := row.Get(name)
		if !ok {
			return false
		}
		s, ok := v.(string)
		if !ok || s != want {
			return false
		}
	}
	return true
}

func labelValues(row entity.Row, names []string) ([]string, bool) {
	out := make([]string, len(names))
	for i, name := range names {
		v, ok := row.Get(name)
		if !ok || v == nil {
			return nil, false
		}
		if s, ok := v.(string); ok {
			out[i] = s
		} else {
			out[i] = fmt.Sprint(v)
		}
	}
	return out, true
}

// ToInt64 converts a management attribute value to an integer. Floats are
// truncated toward zero, booleans count as 0 or 1 and strings must hold a
// base-10 integer.
func ToInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		return fromUint(uint64(n))
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		return fromUint(n)
	case float32:
		return fromFloat(float64(n))
	case float64:
		return fromFloat(n)
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(n), 10, 64)
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

func fromUint(n uint64) (int64, error) {
	if n > math.MaxInt64 {
		return 0, fmt.Errorf("value %d overflows int64", n)
	}
	return int64(n), nil
}

func fromFloat(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("value %v is not finite", f)
	}
	t := math.Trunc(f)
	if t < math.MinInt64 || t >= math.MaxInt64 {
		return 0, fmt.Errorf("value %v overflows int64", f)
	}
	return int64(t), nil
}
