package network

const (
	// SampleCount is the number of uniform parameter steps per curve; each
	// curve carries SampleCount+1 samples.
	SampleCount = 100

	// edgeOffset pushes left/right/top/bottom endpoints just outside the
	// viewport so curves enter and leave cleanly.
	edgeOffset = 10.0

	curvatureMin = 0.3
	curvatureMax = 0.5
	jitter       = 0.15
)

// Point is a position in viewport coordinates.
type Point struct {
	X, Y float64
}

func lerp(a, b Point, t float64) Point {
	return Point{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t}
}

// Curve is a cubic Bézier with a precomputed polyline. It is never mutated
// after GenerateCurves returns it.
type Curve struct {
	Start, End         Point
	Control1, Control2 Point
	Samples            []Point
}

// SampleAt returns the i-th sample, reporting false when i is out of range.
func (c *Curve) SampleAt(i int) (Point, bool) {
	if i < 0 || i >= len(c.Samples) {
		return Point{}, false
	}
	return c.Samples[i], true
}

// Bezier evaluates the cubic Bézier p0,p1,p2,p3 at t.
func Bezier(p0, p1, p2, p3 Point, t float64) Point {
	mt := 1 - t
	a := mt * mt * mt
	b := 3 * mt * mt * t
	c := 3 * mt * t * t
	d := t * t * t
	return Point{
		X: a*p0.X + b*p1.X + c*p2.X + d*p3.X,
		Y: a*p0.Y + b*p1.Y + c*p2.Y + d*p3.Y,
	}
}

// SampleCurve evaluates c at steps+1 uniform parameter values. The first and
// last samples are the exact endpoints.
func SampleCurve(c Curve, steps int) []Point {
	if steps < 1 {
		steps = 1
	}
	out := make([]Point, steps+1)
	for i := 0; i <= steps; i++ {
		out[i] = Bezier(c.Start, c.Control1, c.Control2, c.End, float64(i)/float64(steps))
	}
	out[0] = c.Start
	out[steps] = c.End
	return out
}

// GenerateCurves lays out n curves flowing from the left/bottom edges towards
// the right/top edges of a width x height viewport.
func GenerateCurves(rng Random, width, height, n int) []Curve {
	if n <= 0 {
		return nil
	}
	w, h := float64(width), float64(height)
	curves := make([]Curve, 0, n)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(n)

		var start, end Point
		if t < 0.5 {
			start = Point{X: -edgeOffset, Y: h * (0.3 + 1.4*t)}
		} else {
			start = Point{X: w * ((t - 0.5) * 1.5), Y: h + edgeOffset}
		}
		if t < 0.6 {
			end = Point{X: w + edgeOffset, Y: h * (0.1 + 0.8*t)}
		} else {
			end = Point{X: w * (0.3 + (t-0.6)*1.5), Y: -edgeOffset}
		}

		mid := lerp(start, end, 0.5)
		curvature := uniform(rng, curvatureMin, curvatureMax)
		c1 := lerp(start, mid, curvature)
		c2 := lerp(end, mid, curvature)
		c1.X += uniform(rng, -jitter, jitter) * w
		c1.Y += uniform(rng, -jitter, jitter) * h
		c2.X += uniform(rng, -jitter, jitter) * w
		c2.Y += uniform(rng, -jitter, jitter) * h

		c := Curve{Start: start, End: end, Control1: c1, Control2: c2}
		c.Samples = SampleCurve(c, SampleCount)
		curves = append(curves, c)
	}
	return curves
}
