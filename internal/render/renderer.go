// Package render draws a signal network onto a raster surface.
//
// The Renderer only reads the network. Surfaces adapt the drawing primitives
// to a concrete target: an ebiten screen for the window, or an in-memory
// RGBA image for headless output.
package render

import (
	"math"

	"github.com/iburimskiy/signal-network/internal/network"
)

// Surface is a raster target with the few primitives the renderer needs.
type Surface interface {
	Size() (int, int)
	Fill(c network.Color)
	StrokeLine(a, b network.Point, width float64, c network.Color)
	StrokeCubic(p0, c1, c2, p3 network.Point, width float64, c network.Color)
	// FillRadial fills a disc whose colour goes from inner at the centre to
	// outer at the rim.
	FillRadial(center network.Point, radius float64, inner, outer network.Color)
}

// Renderer holds the fixed styling of a frame.
type Renderer struct {
	Background network.Color
	LineColor  network.Color
	LineWidth  float64
	TrailWidth float64
	GlowRadius float64
}

// New returns a Renderer with the default line styling over background.
func New(background network.Color) *Renderer {
	return &Renderer{
		Background: background.WithAlpha(1),
		LineColor:  network.RGBA(120, 160, 255, 0.06),
		LineWidth:  1,
		TrailWidth: 2,
		GlowRadius: 4,
	}
}

// Render repaints the whole surface: background, every curve, then every
// signal's trail and head glow.
func (r *Renderer) Render(s Surface, net *network.Network) {
	if s == nil {
		return
	}
	s.Fill(r.Background)
	if net == nil {
		return
	}
	for i := range net.Curves {
		c := &net.Curves[i]
		s.StrokeCubic(c.Start, c.Control1, c.Control2, c.End, r.LineWidth, r.LineColor)
	}
	for i := range net.Signals {
		r.drawSignal(s, net, &net.Signals[i])
	}
}

func (r *Renderer) drawSignal(s Surface, net *network.Network, sig *network.Signal) {
	curve, ok := net.Curve(sig.CurveIndex)
	if !ok || len(curve.Samples) == 0 || sig.TrailLength <= 0 {
		return
	}
	head := int(math.Floor(sig.Progress * float64(len(curve.Samples)-1)))
	steps := int(math.Floor(sig.TrailLength))

	for i := 0; i < steps; i++ {
		fade := (sig.TrailLength - float64(i)) / sig.TrailLength
		fade *= fade
		color := sig.ColorStart.WithAlpha(fade * sig.Opacity)

		p, ok := curve.SampleAt(head - i)
		if !ok {
			continue
		}
		if prev, ok := curve.SampleAt(head - i - 1); ok {
			s.StrokeLine(prev, p, r.TrailWidth*fade, color)
		}
		if i == 0 {
			s.FillRadial(p, r.GlowRadius, sig.ColorStart, sig.ColorEnd.WithAlpha(0))
		}
	}
}
