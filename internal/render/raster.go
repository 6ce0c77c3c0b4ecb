package render

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/vector"

	"github.com/iburimskiy/signal-network/internal/network"
)

// cubicSegments is the flattening resolution for StrokeCubic.
const cubicSegments = 48

// Raster is a Surface backed by an in-memory RGBA image.
type Raster struct {
	img  *image.RGBA
	z    *vector.Rasterizer
	mask *image.Alpha
}

// NewRaster allocates a width x height surface. It returns nil when the size
// is not positive.
func NewRaster(width, height int) *Raster {
	if width <= 0 || height <= 0 {
		return nil
	}
	return &Raster{
		img: image.NewRGBA(image.Rect(0, 0, width, height)),
		z:    vector.NewRasterizer(1, 1),
		mask: image.NewAlpha(image.Rect(0, 0, 1, 1)),
	}
}

// Image returns the backing image.
func (r *Raster) Image() *image.RGBA { return r.img }

func (r *Raster) Size() (int, int) {
	b := r.img.Bounds()
	return b.Dx(), b.Dy()
}

func (r *Raster) Fill(c network.Color) {
	draw.Draw(r.img, r.img.Bounds(), image.NewUniform(c.NRGBA()), image.Point{}, draw.Src)
}

func (r *Raster) StrokeLine(a, b network.Point, width float64, c network.Color) {
	if width <= 0 || c.A <= 0 {
		return
	}
	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	nx, ny := -dy/length*width/2, dx/length*width/2
	r.fillPolygon(c, []network.Point{
		{X: a.X + nx, Y: a.Y + ny},
		{X: b.X + nx, Y: b.Y + ny},
		{X: b.X - nx, Y: b.Y - ny},
		{X: a.X - nx, Y: a.Y - ny},
	})
}

// fillPolygon rasterizes pts in a scratch area sized to their bounding box.
func (r *Raster) fillPolygon(c network.Color, pts []network.Point) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	box := image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX))+1, int(math.Ceil(maxY))+1)
	clip := box.Intersect(r.img.Bounds())
	if clip.Empty() {
		return
	}

	r.z.Reset(box.Dx(), box.Dy())
	ox, oy := float64(box.Min.X), float64(box.Min.Y)
	r.z.MoveTo(float32(pts[0].X-ox), float32(pts[0].Y-oy))
	for _, p := range pts[1:] {
		r.z.LineTo(float32(p.X-ox), float32(p.Y-oy))
	}
	r.z.ClosePath()

	// Coverage goes into a box-local alpha mask whose origin sits at box.Min.
	mask := r.scratchMask(box.Dx(), box.Dy())
	r.z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	draw.DrawMask(r.img, clip, image.NewUniform(c.NRGBA()), image.Point{}, mask, clip.Min.Sub(box.Min), draw.Over)
}

// scratchMask returns a cleared w x h alpha image, reusing the previous
// backing array when it is large enough.
func (r *Raster) scratchMask(w, h int) *image.Alpha {
	n := w * h
	if cap(r.mask.Pix) < n {
		r.mask = image.NewAlpha(image.Rect(0, 0, w, h))
		return r.mask
	}
	pix := r.mask.Pix[:n]
	clear(pix)
	r.mask = &image.Alpha{Pix: pix, Stride: w, Rect: image.Rect(0, 0, w, h)}
	return r.mask
}

func (r *Raster) StrokeCubic(p0, c1, c2, p3 network.Point, width float64, c network.Color) {
	prev := p0
	for i := 1; i <= cubicSegments; i++ {
		p := network.Bezier(p0, c1, c2, p3, float64(i)/cubicSegments)
		r.StrokeLine(prev, p, width, c)
		prev = p
	}
}

func (r *Raster) FillRadial(center network.Point, radius float64, inner, outer network.Color) {
	if radius <= 0 {
		return
	}
	bounds := image.Rect(
		int(math.Floor(center.X-radius)), int(math.Floor(center.Y-radius)),
		int(math.Ceil(center.X+radius))+1, int(math.Ceil(center.Y+radius))+1,
	).Intersect(r.img.Bounds())

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			d := math.Hypot(float64(x)+0.5-center.X, float64(y)+0.5-center.Y)
			if d > radius {
				continue
			}
			col := inner.Lerp(outer, d/radius)
			if col.A <= 0 {
				continue
			}
			r.img.Set(x, y, over(r.img.RGBAAt(x, y), col.NRGBA()))
		}
	}
}

// over composites src onto dst with the Porter-Duff over operator.
func over(dst color.RGBA, src color.NRGBA) color.RGBA {
	sr, sg, sb, sa := src.RGBA()
	dr, dg, db, da := dst.RGBA()
	inv := 0xffff - sa
	return color.RGBA{
		R: uint8((sr + dr*inv/0xffff) >> 8),
		G: uint8((sg + dg*inv/0xffff) >> 8),
		B: uint8((sb + db*inv/0xffff) >> 8),
		A: uint8((sa + da*inv/0xffff) >> 8),
	}
}

// WritePNG encodes the surface as PNG.
func (r *Raster) WritePNG(w io.Writer) error {
	return png.Encode(w, r.img)
}
