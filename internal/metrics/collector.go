package metrics

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/model"

	"github.com/EnMasseProject/enmasse/internal/management"
)

const selfSubsystem = "router_metrics"

// ClientSource hands out management clients for the duration of one pass.
// *management.Pool implements it.
type ClientSource interface {
	Acquire(ctx context.Context) (*management.Client, error)
	Release(c *management.Client)
}

// Collector runs collection passes against the router and exposes the
// result as a prometheus.Collector. Each call to Collect runs its own pass
// with its own client and accumulators, so overlapping scrapes share no
// state besides the client source and the failure counter.
type Collector struct {
	cfg      Config
	bindings []Binding
	source   ClientSource
	logger   *slog.Logger

	descs         map[string]*prometheus.Desc
	upDesc        *prometheus.Desc
	durationDesc  *prometheus.Desc
	fetchFailures *prometheus.CounterVec
}

// NewCollector validates bindings and builds one descriptor per series.
// Config defaults are applied automatically.
func NewCollector(cfg Config, bindings []Binding, source ClientSource, logger *slog.Logger) (*Collector, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if source == nil {
		return nil, errors.New("metrics: client source is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Collector{
		cfg:      cfg,
		bindings: bindings,
		source:   source,
		logger:   logger.With("component", "metrics"),
		descs:    make(map[string]*prometheus.Desc),
	}

	for _, b := range bindings {
		if b.Procedure.Fetch == nil {
			return nil, fmt.Errorf("metrics: procedure %q has no fetch function", b.Procedure.Name)
		}
		for _, s := range b.Specs {
			if err := validateSpec(s); err != nil {
				return nil, err
			}
			id := s.SeriesID()
			if _, dup := c.descs[id]; dup {
				return nil, fmt.Errorf("metrics: duplicate series %q", id)
			}
			c.descs[id] = prometheus.NewDesc(id, s.Help, s.Labels, nil)
		}
	}

	c.upDesc = prometheus.NewDesc(
		prometheus.BuildFQName(cfg.Namespace, selfSubsystem, "up"),
		"Whether the last collection pass reached the router management agent.",
		nil, nil,
	)
	c.durationDesc = prometheus.NewDesc(
		prometheus.BuildFQName(cfg.Namespace, selfSubsystem, "scrape_duration_seconds"),
		"Duration of the last collection pass.",
		nil, nil,
	)
	c.fetchFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: selfSubsystem,
		Name:      "fetch_failures_total",
		Help:      "Number of procedure fetches that produced no data.",
	}, []string{"procedure"})
	for _, b := range bindings {
		c.fetchFailures.WithLabelValues(b.Procedure.Name)
	}

	return c, nil
}

func validateSpec(s Spec) error {
	if s.Name == "" {
		return errors.New("metrics: spec name is required")
	}
	if !model.IsValidMetricName(model.LabelValue(s.SeriesID())) {
		return fmt.Errorf("metrics: invalid series name %q", s.SeriesID())
	}
	for _, l := range s.Labels {
		if !model.LabelName(l).IsValid() {
			return fmt.Errorf("metrics: series %s: invalid label name %q", s.SeriesID(), l)
		}
	}
	return nil
}

// Pass runs one collection pass and yields the finalized series grouped by
// procedure in binding order. A procedure that fails yields nothing. A value
// coercion failure is yielded as the error and ends the pass.
func (c *Collector) Pass(ctx context.Context) iter.Seq2[Series, error] {
	return func(yield func(Series, error) bool) {
		c.pass(ctx, yield)
	}
}

// pass reports whether the router was reached.
func (c *Collector) pass(ctx context.Context, yield func(Series, error) bool) bool {
	client, err := c.source.Acquire(ctx)
	if err != nil {
		c.logger.Warn("router unreachable", "error", err)
		for _, b := range c.bindings {
			c.fetchFailures.WithLabelValues(b.Procedure.Name).Inc()
		}
		return false
	}
	defer c.source.Release(client)

	for _, b := range c.bindings {
		table, err := b.Procedure.Fetch(ctx, client)
		if err != nil {
			c.logger.Warn("fetch failed",
				"procedure", b.Procedure.Name,
				"entity_type", b.Procedure.EntityType,
				"error", err,
			)
			c.fetchFailures.WithLabelValues(b.Procedure.Name).Inc()
			continue
		}
		for _, s := range b.Specs {
			series, err := Evaluate(s, table)
			if err != nil {
				c.logger.Error("value coercion failed", "procedure", b.Procedure.Name, "error", err)
				yield(Series{}, err)
				return true
			}
			if !yield(series, nil) {
				return true
			}
		}
	}
	return true
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range c.descs {
		ch <- d
	}
	ch <- c.upDesc
	ch <- c.durationDesc
	c.fetchFailures.Describe(ch)
}

// Collect implements prometheus.Collector. It runs one pass bounded by
// PassTimeout. On a value coercion failure it emits an invalid metric so
// that gathering fails as a whole.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.PassTimeout)
	defer cancel()

	var fatal error
	up, err := c.safePass(ctx, func(s Series, err error) bool {
		if err != nil {
			fatal = err
			return false
		}
		c.emit(ch, s)
		return true
	})
	if err != nil {
		fatal = err
	}
	if fatal != nil {
		ch <- prometheus.NewInvalidMetric(c.fatalDesc(fatal), fatal)
		return
	}

	upValue := 0.0
	if up {
		upValue = 1
	}
	ch <- prometheus.MustNewConstMetric(c.upDesc, prometheus.GaugeValue, upValue)
	ch <- prometheus.MustNewConstMetric(c.durationDesc, prometheus.GaugeValue, time.Since(start).Seconds())
	c.fetchFailures.Collect(ch)
}

// safePass runs a pass with panic recovery.
func (c *Collector) safePass(ctx context.Context, yield func(Series, error) bool) (up bool, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("metrics: collection pass panicked: %v\n%s", v, debug.Stack())
			c.logger.Error("collection pass panicked", "error", err)
		}
	}()
	return c.pass(ctx, yield), nil
}

// emit sends one const metric per sample. A sample whose label values cannot
// be encoded is dropped so that the rest of the scrape survives.
func (c *Collector) emit(ch chan<- prometheus.Metric, s Series) {
	desc, ok := c.descs[s.ID]
	if !ok {
		return
	}
	for _, sample := range s.Samples {
		m, err := prometheus.NewConstMetric(desc, s.Kind.ValueType(), float64(sample.Value), sample.LabelValues...)
		if err != nil {
			c.logger.Warn("dropping sample", "series", s.ID, "labels", sample.LabelValues, "error", err)
			continue
		}
		ch <- m
	}
}

func (c *Collector) fatalDesc(err error) *prometheus.Desc {
	var ce *ValueCoercionError
	if errors.As(err, &ce) {
		if d, ok := c.descs[ce.SeriesID]; ok {
			return d
		}
	}
	return c.upDesc
}
