package game

import (
	"image"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/iburimskiy/signal-network/internal/network"
)

const glowTextureSize = 64

var (
	whiteImage    *ebiten.Image
	whiteSubImage *ebiten.Image
	glowImage     *ebiten.Image
)

// initTextures builds the shared textures on first use.
func initTextures() {
	if whiteImage != nil {
		return
	}
	whiteImage = ebiten.NewImage(3, 3)
	whiteImage.Fill(color.White)
	whiteSubImage = whiteImage.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)

	// White disc whose alpha falls linearly from 1 at the centre to 0 at the
	// rim; tinted per draw.
	glowImage = ebiten.NewImage(glowTextureSize, glowTextureSize)
	pixels := make([]byte, glowTextureSize*glowTextureSize*4)
	center := float64(glowTextureSize) / 2
	for y := 0; y < glowTextureSize; y++ {
		for x := 0; x < glowTextureSize; x++ {
			d := math.Hypot(float64(x)+0.5-center, float64(y)+0.5-center) / center
			if d >= 1 {
				continue
			}
			a := uint8((1 - d) * 255)
			// premultiplied
			i := (y*glowTextureSize + x) * 4
			pixels[i+0], pixels[i+1], pixels[i+2], pixels[i+3] = a, a, a, a
		}
	}
	glowImage.WritePixels(pixels)
}

// screenSurface draws onto an ebiten image. initTextures must have run.
type screenSurface struct {
	dst      *ebiten.Image
	vertices []ebiten.Vertex
	indices  []uint16
}

func (s *screenSurface) Size() (int, int) {
	b := s.dst.Bounds()
	return b.Dx(), b.Dy()
}

func (s *screenSurface) Fill(c network.Color) {
	s.dst.Fill(c.NRGBA())
}

func (s *screenSurface) StrokeLine(a, b network.Point, width float64, c network.Color) {
	if width <= 0 || c.A <= 0 {
		return
	}
	vector.StrokeLine(s.dst, float32(a.X), float32(a.Y), float32(b.X), float32(b.Y), float32(width), c.NRGBA(), true)
}

func (s *screenSurface) StrokeCubic(p0, c1, c2, p3 network.Point, width float64, c network.Color) {
	var path vector.Path
	path.MoveTo(float32(p0.X), float32(p0.Y))
	path.CubicTo(float32(c1.X), float32(c1.Y), float32(c2.X), float32(c2.Y), float32(p3.X), float32(p3.Y))

	s.vertices, s.indices = path.AppendVerticesAndIndicesForStroke(s.vertices[:0], s.indices[:0], &vector.StrokeOptions{
		Width:    float32(width),
		LineJoin: vector.LineJoinRound,
	})
	r, g, b, a := float32(c.R)/0xff, float32(c.G)/0xff, float32(c.B)/0xff, float32(c.A)
	for i := range s.vertices {
		s.vertices[i].SrcX = 1
		s.vertices[i].SrcY = 1
		s.vertices[i].ColorR = r
		s.vertices[i].ColorG = g
		s.vertices[i].ColorB = b
		s.vertices[i].ColorA = a
	}
	s.dst.DrawTriangles(s.vertices, s.indices, whiteSubImage, &ebiten.DrawTrianglesOptions{AntiAlias: true})
}

// FillRadial stamps the glow texture tinted between inner and outer at the
// inner alpha; the texture's alpha ramp supplies the fade to transparent.
func (s *screenSurface) FillRadial(center network.Point, radius float64, inner, outer network.Color) {
	if radius <= 0 {
		return
	}
	tint := inner.Lerp(outer.WithAlpha(inner.A), 0.5)
	scale := radius * 2 / glowTextureSize

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(center.X-radius, center.Y-radius)
	op.ColorScale.ScaleWithColor(tint.NRGBA())
	op.Filter = ebiten.FilterLinear
	s.dst.DrawImage(glowImage, op)
}
