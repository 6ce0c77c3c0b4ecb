package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Spawn reasons used as the "reason" label.
const (
	ReasonSeed    = "seed"
	ReasonRespawn = "respawn"
	ReasonAmbient = "ambient"
)

// Collector bundles Prometheus metrics for the frame loop. A nil *Collector
// is valid and records nothing.
type Collector struct {
	gatherer prometheus.Gatherer

	Frames        prometheus.Counter
	Rebuilds      prometheus.Counter
	LiveSignals   prometheus.Gauge
	Curves        prometheus.Gauge
	Spawned       *prometheus.CounterVec
	Removed       prometheus.Counter
	FrameDuration prometheus.Histogram
}

// NewCollector registers the metrics against reg, defaulting to the global
// registry when nil. Re-registering returns the existing collectors.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &Collector{gatherer: gatherer}
	var err error

	if c.Frames, err = registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "signal_network_frames_total",
		Help: "Frames updated and rendered.",
	})); err != nil {
		return nil, err
	}
	if c.Rebuilds, err = registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "signal_network_rebuilds_total",
		Help: "Full network rebuilds caused by viewport size changes.",
	})); err != nil {
		return nil, err
	}
	if c.LiveSignals, err = registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "signal_network_live_signals",
		Help: "Signals currently alive.",
	})); err != nil {
		return nil, err
	}
	if c.Curves, err = registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "signal_network_curves",
		Help: "Curves in the current network.",
	})); err != nil {
		return nil, err
	}
	if c.Removed, err = registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "signal_network_signals_removed_total",
		Help: "Signals removed after passing the expiry threshold.",
	})); err != nil {
		return nil, err
	}

	spawned := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "signal_network_signals_spawned_total",
		Help: "Signals created, labeled by reason.",
	}, []string{"reason"})
	if err := reg.Register(spawned); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return nil, err
		}
		existing, ok := are.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, fmt.Errorf("collector signal_network_signals_spawned_total already registered with incompatible type")
		}
		spawned = existing
	}
	c.Spawned = spawned

	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "signal_network_frame_duration_seconds",
		Help:    "Time spent in update and render per frame.",
		Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.002, 0.004, 0.008, 0.016, 0.033},
	})
	if err := reg.Register(duration); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return nil, err
		}
		existing, ok := are.ExistingCollector.(prometheus.Histogram)
		if !ok {
			return nil, fmt.Errorf("collector signal_network_frame_duration_seconds already registered with incompatible type")
		}
		duration = existing
	}
	c.FrameDuration = duration

	return c, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveRebuild records a network rebuild.
func (c *Collector) ObserveRebuild(curves, seeded int) {
	if c == nil {
		return
	}
	c.Rebuilds.Inc()
	c.Curves.Set(float64(curves))
	c.LiveSignals.Set(float64(seeded))
	c.Spawned.WithLabelValues(ReasonSeed).Add(float64(seeded))
}

// ObserveFrame records one update+render pass.
func (c *Collector) ObserveFrame(live, removed, respawned, ambient int, took time.Duration) {
	if c == nil {
		return
	}
	c.Frames.Inc()
	c.LiveSignals.Set(float64(live))
	c.Removed.Add(float64(removed))
	if respawned > 0 {
		c.Spawned.WithLabelValues(ReasonRespawn).Add(float64(respawned))
	}
	if ambient > 0 {
		c.Spawned.WithLabelValues(ReasonAmbient).Add(float64(ambient))
	}
	c.FrameDuration.Observe(took.Seconds())
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", counter.Desc())
		}
		return nil, err
	}
	return counter, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", gauge.Desc())
		}
		return nil, err
	}
	return gauge, nil
}
