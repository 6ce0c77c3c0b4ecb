package network

import (
	"math"
	"math/rand/v2"
	"testing"
)

// fixedRandom returns the same value for every draw.
type fixedRandom struct{ v float64 }

func (f fixedRandom) Float64() float64 { return f.v }
func (f fixedRandom) IntN(n int) int   { return int(f.v * float64(n)) }

func oneCurveNetwork() *Network {
	c := Curve{Start: Point{0, 0}, End: Point{10, 10}}
	c.Samples = SampleCurve(c, SampleCount)
	return &Network{Width: 10, Height: 10, Curves: []Curve{c}}
}

func TestRemovalThreshold(t *testing.T) {
	const eps = 0.01
	net := oneCurveNetwork()
	net.Signals = []Signal{
		{CurveIndex: 0, Progress: ExpireAt + eps, Speed: 0.001},
		{CurveIndex: 0, Progress: ExpireAt - eps, Speed: 0.001},
	}
	// 0.99 fails every probability trial: no respawn, no ambient spawn.
	m := NewManager(Params{Density: 8, SpeedMultiplier: 1}, fixedRandom{0.99})
	st := m.Update(net)

	if st.Removed != 1 {
		t.Fatalf("removed %d signals, want 1", st.Removed)
	}
	if len(net.Signals) != 1 {
		t.Fatalf("population = %d, want 1", len(net.Signals))
	}
	if got := net.Signals[0].Progress; math.Abs(got-(ExpireAt-eps+0.001)) > 1e-12 {
		t.Fatalf("survivor progress = %v", got)
	}
}

func TestRemovalKeepsNonExpiredOrder(t *testing.T) {
	net := oneCurveNetwork()
	for i := 0; i < 6; i++ {
		p := 0.1 * float64(i)
		if i%2 == 0 {
			p = 2
		}
		net.Signals = append(net.Signals, Signal{CurveIndex: 0, Progress: p, Speed: 0, TrailLength: float64(i)})
	}
	m := NewManager(Params{Density: 0}, fixedRandom{0.99})
	if st := m.Update(net); st.Removed != 3 {
		t.Fatalf("removed %d, want 3", st.Removed)
	}
	want := []float64{1, 3, 5}
	if len(net.Signals) != len(want) {
		t.Fatalf("population = %d, want %d", len(net.Signals), len(want))
	}
	for i, s := range net.Signals {
		if s.TrailLength != want[i] {
			t.Fatalf("signal %d has trail %v, want %v", i, s.TrailLength, want[i])
		}
	}
}

func TestRespawnEntersFromBeforeCurveStart(t *testing.T) {
	net := oneCurveNetwork()
	net.Signals = []Signal{{CurveIndex: 0, Progress: 5, Speed: 0.001}}
	// 0.1 passes every trial: respawn, same curve, ambient (density 50).
	m := NewManager(Params{Density: 50, SpeedMultiplier: 1}, fixedRandom{0.1})
	st := m.Update(net)
	if st.Removed != 1 || st.Respawned != 1 || st.Ambient != 1 {
		t.Fatalf("unexpected stats %+v", st)
	}
	for _, s := range net.Signals {
		if s.Progress != EntryProgress {
			t.Fatalf("spawned signal progress = %v, want %v", s.Progress, EntryProgress)
		}
	}
}

func TestNewSignalRanges(t *testing.T) {
	m := NewManager(Params{Density: 8, SpeedMultiplier: 2}, rand.New(rand.NewPCG(7, 7)))
	for i := 0; i < 1000; i++ {
		s := m.NewSignal(3, 0.25)
		if s.CurveIndex != 3 || s.Progress != 0.25 {
			t.Fatalf("position not preserved: %+v", s)
		}
		if s.Speed < speedMin*2 || s.Speed > speedMax*2 {
			t.Fatalf("speed %v outside scaled range", s.Speed)
		}
		if s.TrailLength < trailMin || s.TrailLength > trailMax {
			t.Fatalf("trail %v outside range", s.TrailLength)
		}
		if s.Opacity < opacityMin || s.Opacity > opacityMax {
			t.Fatalf("opacity %v outside range", s.Opacity)
		}
		found := false
		for _, g := range Palette {
			if g.Start == s.ColorStart && g.End == s.ColorEnd {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("colour pair not from palette: %+v", s)
		}
	}
}

func TestSeedPlacesSignalsOnCurves(t *testing.T) {
	m := NewManager(Params{Density: 8, SpeedMultiplier: 1}, rand.New(rand.NewPCG(1, 9)))
	net := m.Build(800, 600, 50)
	if len(net.Signals) == 0 {
		t.Fatal("expected seeded signals")
	}
	for _, s := range net.Signals {
		if s.CurveIndex < 0 || s.CurveIndex >= len(net.Curves) {
			t.Fatalf("invalid curve index %d", s.CurveIndex)
		}
		if s.Progress < 0 || s.Progress >= 1 {
			t.Fatalf("seeded progress %v outside [0,1)", s.Progress)
		}
	}
}

func TestSeedSaturatesWhenDensityExceedsCurves(t *testing.T) {
	m := NewManager(Params{Density: 10, SpeedMultiplier: 1}, rand.New(rand.NewPCG(5, 5)))
	net := m.Build(100, 100, 4)
	perCurve := make([]int, len(net.Curves))
	for _, s := range net.Signals {
		perCurve[s.CurveIndex]++
	}
	for i, c := range perCurve {
		if c < 1 || c > 2 {
			t.Fatalf("curve %d has %d seeded signals, want 1-2", i, c)
		}
	}
}

func TestEmptyNetworkIsInert(t *testing.T) {
	m := NewManager(Params{Density: 8, SpeedMultiplier: 1}, rand.New(rand.NewPCG(1, 1)))
	net := m.Build(640, 480, 0)
	if len(net.Curves) != 0 || len(net.Signals) != 0 {
		t.Fatalf("expected empty network, got %d curves %d signals", len(net.Curves), len(net.Signals))
	}
	for i := 0; i < 100; i++ {
		m.Update(net)
	}
	if len(net.Signals) != 0 {
		t.Fatalf("empty network grew to %d signals", len(net.Signals))
	}
}

func TestPopulationStaysBounded(t *testing.T) {
	for _, density := range []int{1, 3, 8, 20} {
		m := NewManager(Params{Density: density, SpeedMultiplier: 1}, rand.New(rand.NewPCG(uint64(density), 42)))
		net := &Network{Curves: GenerateCurves(rand.New(rand.NewPCG(2, 2)), 800, 600, 50)}

		const frames, warmup = 30000, 10000
		sum, maxPop := 0, 0
		for f := 0; f < frames; f++ {
			m.Update(net)
			if f < warmup {
				continue
			}
			sum += len(net.Signals)
			if len(net.Signals) > maxPop {
				maxPop = len(net.Signals)
			}
		}
		mean := float64(sum) / float64(frames-warmup)
		if mean < 1 {
			t.Fatalf("density %d: population died out (mean %.2f)", density, mean)
		}
		if limit := 40*density + 20; maxPop > limit {
			t.Fatalf("density %d: population peaked at %d, limit %d", density, maxPop, limit)
		}
	}
}

func TestRespawnFractionConverges(t *testing.T) {
	m := NewManager(Params{Density: 50, SpeedMultiplier: 200}, rand.New(rand.NewPCG(11, 13)))
	net := m.Build(800, 600, 20)
	removed, respawned := 0, 0
	for f := 0; f < 20000; f++ {
		st := m.Update(net)
		removed += st.Removed
		respawned += st.Respawned
	}
	if removed < 2000 {
		t.Fatalf("too few removals to measure: %d", removed)
	}
	frac := float64(respawned) / float64(removed)
	if math.Abs(frac-RespawnChance) > 0.05 {
		t.Fatalf("respawn fraction = %.3f over %d removals, want %.2f", frac, removed, RespawnChance)
	}
}

func TestFastSingleCurveScenario(t *testing.T) {
	m := NewManager(Params{Density: 1, SpeedMultiplier: 1000}, rand.New(rand.NewPCG(99, 1)))
	net := m.Build(300, 200, 1)
	created := len(net.Signals)
	for f := 0; f < 5000; f++ {
		before := len(net.Signals)
		st := m.Update(net)
		created += st.Respawned + st.Ambient
		if st.Respawned > st.Removed || st.Ambient > 1 {
			t.Fatalf("frame %d: spawned more than removed+1: %+v", f, st)
		}
		if len(net.Signals) > before+1 {
			t.Fatalf("frame %d: population jumped from %d to %d", f, before, len(net.Signals))
		}
		for _, s := range net.Signals {
			if s.CurveIndex != 0 {
				t.Fatalf("signal bound to curve %d on a single-curve network", s.CurveIndex)
			}
		}
	}
	if created > 3*5000 {
		t.Fatalf("created %d signals in 5000 frames", created)
	}
}
