package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"git.sr.ht/~whereswaldon/streamviz/chart"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// ImageSurface rasterizes onto an RGBA image. The image is the logical size
// multiplied by the device pixel ratio, so charts stay sharp on dense
// displays.
type ImageSurface struct {
	img    *image.RGBA
	size   chart.Point
	xf     TransformStack
	raster *vector.Rasterizer
	face   font.Face
}

var _ Surface = (*ImageSurface)(nil)

// NewImageSurface creates a surface of width by height logical units. A dpr
// below or equal to zero is treated as one.
func NewImageSurface(width, height, dpr float64) *ImageSurface {
	if dpr <= 0 {
		dpr = 1
	}
	w := int(ceil(max(width, 0) * dpr))
	h := int(ceil(max(height, 0) * dpr))
	return &ImageSurface{
		img:    image.NewRGBA(image.Rect(0, 0, w, h)),
		size:   chart.Pt(width, height),
		xf:     TransformStack{Density: dpr},
		raster: vector.NewRasterizer(w, h),
		face:   basicfont.Face7x13,
	}
}

func (s *ImageSurface) Size() chart.Point { return s.size }

// Image returns the backing store.
func (s *ImageSurface) Image() *image.RGBA { return s.img }

func (s *ImageSurface) Clear(c color.NRGBA) {
	draw.Draw(s.img, s.img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

func (s *ImageSurface) Push(a chart.Affine) { s.xf.Push(a) }
func (s *ImageSurface) Pop()                { s.xf.Pop() }

// fill rasterizes the polygons added by path with the nonzero rule.
func (s *ImageSurface) fill(c color.NRGBA, path func(r *vector.Rasterizer)) {
	b := s.img.Bounds()
	if b.Empty() {
		return
	}
	s.raster.Reset(b.Dx(), b.Dy())
	path(s.raster)
	s.raster.Draw(s.img, b, image.NewUniform(c), image.Point{})
}

func polygon(r *vector.Rasterizer, pts ...chart.Point) {
	r.MoveTo(float32(pts[0].X), float32(pts[0].Y))
	for _, p := range pts[1:] {
		r.LineTo(float32(p.X), float32(p.Y))
	}
	r.ClosePath()
}

// circle adds a circle wound the same way as the segments of stroke, so that
// overlapping pieces never cancel out.
func circle(r *vector.Rasterizer, c chart.Point, radius float64) {
	n := clamp(int(ceil(radius*2)), 8, 64)
	pts := make([]chart.Point, n)
	for i := range pts {
		theta := -2 * math.Pi * float64(i) / float64(n)
		pts[i] = chart.Pt(c.X+radius*math.Cos(theta), c.Y+radius*math.Sin(theta))
	}
	polygon(r, pts...)
}

// stroke adds a quad for every segment and a round join at every vertex.
// Coordinates are in pixels.
func stroke(r *vector.Rasterizer, pts []chart.Point, width float64) {
	half := width / 2
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		d := b.Sub(a)
		length := math.Hypot(d.X, d.Y)
		if length == 0 {
			continue
		}
		n := chart.Pt(-d.Y, d.X).Mul(half / length)
		polygon(r, a.Add(n), b.Add(n), b.Sub(n), a.Sub(n))
	}
	if half >= 1 || len(pts) == 1 {
		for _, p := range pts {
			circle(r, p, half)
		}
	}
}

func (s *ImageSurface) Polyline(points []chart.Point, width float64, c color.NRGBA) {
	if len(points) == 0 {
		return
	}
	px := make([]chart.Point, len(points))
	for i, p := range points {
		px[i] = s.xf.Apply(p)
	}
	w := max(width*s.xf.Scale(), 1)
	s.fill(c, func(r *vector.Rasterizer) { stroke(r, px, w) })
}

func (s *ImageSurface) FillRect(min, max chart.Point, c color.NRGBA) {
	a, b := s.xf.Apply(min), s.xf.Apply(max)
	if a.X == b.X || a.Y == b.Y {
		return
	}
	s.fill(c, func(r *vector.Rasterizer) {
		polygon(r, a, chart.Pt(b.X, a.Y), b, chart.Pt(a.X, b.Y))
	})
}

func (s *ImageSurface) Arc(center chart.Point, radius float64, c color.NRGBA, filled bool) {
	p := s.xf.Apply(center)
	r := radius * s.xf.Scale()
	if r <= 0 {
		return
	}
	if filled {
		s.fill(c, func(ras *vector.Rasterizer) { circle(ras, p, r) })
		return
	}
	n := clamp(int(ceil(r*2)), 8, 64)
	ring := make([]chart.Point, n+1)
	for i := range ring {
		theta := 2 * math.Pi * float64(i) / float64(n)
		ring[i] = chart.Pt(p.X+r*math.Cos(theta), p.Y+r*math.Sin(theta))
	}
	s.fill(c, func(ras *vector.Rasterizer) { stroke(ras, ring, s.xf.Density) })
}

// Text draws with a fixed 7x13 pixel face regardless of density.
func (s *ImageSurface) Text(at chart.Point, str string, c color.NRGBA, a Anchor) {
	if str == "" {
		return
	}
	d := font.Drawer{
		Dst:  s.img,
		Src:  image.NewUniform(c),
		Face: s.face,
	}
	m := s.face.Metrics()
	w := float64(d.MeasureString(str).Ceil())
	h := float64((m.Ascent + m.Descent).Ceil())
	topLeft := s.xf.Apply(at).Add(a.Offset(w, h))
	d.Dot = fixed.P(int(floor(topLeft.X)), int(floor(topLeft.Y))+m.Ascent.Ceil())
	d.DrawString(str)
}

// WritePNG encodes the backing store as a PNG image.
func (s *ImageSurface) WritePNG(w io.Writer) error {
	if err := png.Encode(w, s.img); err != nil {
		return fmt.Errorf("failed encoding png: %w", err)
	}
	return nil
}
