package scheduler

import (
	"context"
	"time"

	"github.com/iburimskiy/signal-network/internal/logging"
	"github.com/iburimskiy/signal-network/internal/metrics"
	"github.com/iburimskiy/signal-network/internal/network"
	"github.com/iburimskiy/signal-network/internal/render"
)

// Scheduler runs one update/render cycle per Tick. It holds the only
// reference to the Network; the caller drives it from a single goroutine.
type Scheduler struct {
	lines    int
	manager  *network.Manager
	renderer *render.Renderer
	log      logging.Logger
	metrics  *metrics.Collector
	now      func() time.Time

	net     *network.Network
	width   int
	height  int
	frames  uint64
	stopped bool
}

// Options configures a Scheduler. Logger and Metrics may be nil.
type Options struct {
	Lines    int
	Manager  *network.Manager
	Renderer *render.Renderer
	Logger   logging.Logger
	Metrics  *metrics.Collector
}

// New returns a Scheduler with no network; the first Tick builds it.
func New(opts Options) *Scheduler {
	log := opts.Logger
	if log == nil {
		log = logging.Noop()
	}
	return &Scheduler{
		lines:    opts.Lines,
		manager:  opts.Manager,
		renderer: opts.Renderer,
		log:      log.With(logging.String("component", "scheduler")),
		metrics:  opts.Metrics,
		now:      time.Now,
	}
}

// Tick advances one frame for a width x height viewport drawing onto surface.
// A size change discards the network and rebuilds it; the rebuilt network is
// drawn but not advanced on that tick. A nil surface or a stopped scheduler
// makes Tick a no-op.
func (s *Scheduler) Tick(width, height int, surface render.Surface) {
	if s.stopped || surface == nil {
		return
	}
	ctx := context.Background()
	start := s.now()

	if s.net == nil || width != s.width || height != s.height {
		s.rebuild(ctx, width, height)
		s.renderer.Render(surface, s.net)
		return
	}

	st := s.manager.Update(s.net)
	s.renderer.Render(surface, s.net)
	s.frames++

	took := s.now().Sub(start)
	s.metrics.ObserveFrame(len(s.net.Signals), st.Removed, st.Respawned, st.Ambient, took)
	if st.Removed > 0 || st.Ambient > 0 {
		s.log.Debug(ctx, "signals recycled",
			logging.Int("removed", st.Removed),
			logging.Int("respawned", st.Respawned),
			logging.Int("ambient", st.Ambient),
			logging.Int("live", len(s.net.Signals)),
		)
	}
}

func (s *Scheduler) rebuild(ctx context.Context, width, height int) {
	s.width, s.height = width, height
	s.net = s.manager.Build(width, height, s.lines)
	s.metrics.ObserveRebuild(len(s.net.Curves), len(s.net.Signals))
	s.log.Info(ctx, "network rebuilt",
		logging.Int("width", width),
		logging.Int("height", height),
		logging.Int("curves", len(s.net.Curves)),
		logging.Int("signals", len(s.net.Signals)),
	)
}

// Stop tears the scheduler down. Later ticks do nothing.
func (s *Scheduler) Stop() {
	if s.stopped {
		return
	}
	s.stopped = true
	s.log.Info(context.Background(), "scheduler stopped", logging.Any("frames", s.frames))
	s.net = nil
}

// Stopped reports whether Stop has been called.
func (s *Scheduler) Stopped() bool { return s.stopped }

// Network returns the current network, or nil before the first tick and
// after Stop.
func (s *Scheduler) Network() *network.Network { return s.net }

// Frames returns the number of update/render cycles run so far.
func (s *Scheduler) Frames() uint64 { return s.frames }
