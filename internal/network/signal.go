package network

import "math"

// Lifecycle constants.
const (
	ExpireAt         = 1.2
	EntryProgress    = -0.1
	RespawnChance    = 0.7
	SameCurveChance  = 0.5
	AmbientSpawnRate = 0.02

	speedMin   = 0.0005
	speedMax   = 0.0025
	trailMin   = 15.0
	trailMax   = 40.0
	opacityMin = 0.5
	opacityMax = 1.0
)

// Random is the single source of randomness for layout and lifecycle
// decisions. *math/rand/v2.Rand satisfies it.
type Random interface {
	Float64() float64
	IntN(n int) int
}

func uniform(rng Random, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func chance(rng Random, p float64) bool {
	return rng.Float64() < p
}

// Signal is a pulse travelling along Curves[CurveIndex]. CurveIndex is fixed
// for the lifetime of the signal.
type Signal struct {
	CurveIndex  int
	Progress    float64
	Speed       float64
	TrailLength float64
	ColorStart  Color
	ColorEnd    Color
	Opacity     float64
}

// Expired reports whether the signal has travelled past the removal threshold.
func (s *Signal) Expired() bool { return s.Progress > ExpireAt }

// Network is the curve set plus the live signal population for one viewport
// size.
type Network struct {
	Width, Height int
	Curves        []Curve
	Signals       []Signal
}

// Curve resolves a signal's curve index, reporting false if it is stale.
func (n *Network) Curve(i int) (*Curve, bool) {
	if i < 0 || i >= len(n.Curves) {
		return nil, false
	}
	return &n.Curves[i], true
}

// Params are the tunables of the lifecycle manager.
type Params struct {
	Density         int
	SpeedMultiplier float64
}

// Stats summarises one Update.
type Stats struct {
	Advanced  int
	Removed   int
	Respawned int
	Ambient   int
}

// Manager creates, advances and recycles signals. It owns no state besides
// its parameters and random source; the population lives in the Network.
type Manager struct {
	params Params
	rng    Random
}

// NewManager returns a Manager drawing from rng.
func NewManager(params Params, rng Random) *Manager {
	if params.SpeedMultiplier <= 0 {
		params.SpeedMultiplier = 1
	}
	if params.Density < 0 {
		params.Density = 0
	}
	return &Manager{params: params, rng: rng}
}

// Build generates a fresh network for a width x height viewport and seeds it.
func (m *Manager) Build(width, height, lines int) *Network {
	net := &Network{
		Width:  width,
		Height: height,
		Curves: GenerateCurves(m.rng, width, height, lines),
	}
	m.Seed(net)
	return net
}

// Seed spawns the initial population: each curve gets 1-2 signals with
// probability min(1, 2*density/N), placed anywhere along the curve.
func (m *Manager) Seed(net *Network) int {
	n := len(net.Curves)
	if n == 0 {
		return 0
	}
	p := math.Min(1, 2*float64(m.params.Density)/float64(n))
	seeded := 0
	for i := range net.Curves {
		if !chance(m.rng, p) {
			continue
		}
		count := 1 + m.rng.IntN(2)
		for j := 0; j < count; j++ {
			net.Signals = append(net.Signals, m.NewSignal(i, m.rng.Float64()))
			seeded++
		}
	}
	return seeded
}

// NewSignal builds a signal on curveIndex at the given progress with a random
// palette entry, speed, trail length and opacity.
func (m *Manager) NewSignal(curveIndex int, progress float64) Signal {
	g := Palette[m.rng.IntN(len(Palette))]
	return Signal{
		CurveIndex:  curveIndex,
		Progress:    progress,
		Speed:       uniform(m.rng, speedMin, speedMax) * m.params.SpeedMultiplier,
		TrailLength: uniform(m.rng, trailMin, trailMax),
		ColorStart:  g.Start,
		ColorEnd:    g.End,
		Opacity:     uniform(m.rng, opacityMin, opacityMax),
	}
}

// Update advances every signal one frame, removes expired ones with a chance
// of replacement, and runs one ambient spawn trial.
func (m *Manager) Update(net *Network) Stats {
	var st Stats
	n := len(net.Curves)

	var expired []int
	for i := range net.Signals {
		s := &net.Signals[i]
		s.Progress += s.Speed
		st.Advanced++
		if s.Expired() {
			expired = append(expired, i)
		}
	}

	// Removal runs after the scan, highest index first, so earlier
	// positions in expired stay valid.
	for k := len(expired) - 1; k >= 0; k-- {
		idx := expired[k]
		curve := net.Signals[idx].CurveIndex
		net.Signals = append(net.Signals[:idx], net.Signals[idx+1:]...)
		st.Removed++

		if n == 0 || !chance(m.rng, RespawnChance) {
			continue
		}
		if !chance(m.rng, SameCurveChance) || curve >= n {
			curve = m.rng.IntN(n)
		}
		net.Signals = append(net.Signals, m.NewSignal(curve, EntryProgress))
		st.Respawned++
	}

	if n > 0 && chance(m.rng, AmbientSpawnRate*float64(m.params.Density)/5) {
		net.Signals = append(net.Signals, m.NewSignal(m.rng.IntN(n), EntryProgress))
		st.Ambient++
	}
	return st
}
