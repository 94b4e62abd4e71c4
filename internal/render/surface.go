// Package render draws the oscilloscope, the perspective spectrum and the
// stereo VU meters onto raster surfaces.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"math"

	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Point is a position in surface pixels.
type Point struct {
	X, Y float64
}

// Surface is a fixed-size RGBA canvas with a vector graphic context.
type Surface struct {
	img *image.RGBA
	gc  *drawing.RasterGraphicContext
}

// NewSurface allocates a transparent surface of width x height pixels.
func NewSurface(width, height int) (*Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid surface size %dx%d", width, height)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	gc, err := drawing.NewRasterGraphicContext(img)
	if err != nil {
		return nil, fmt.Errorf("surface graphic context: %w", err)
	}

	return &Surface{img: img, gc: gc}, nil
}

// Width in pixels.
func (s *Surface) Width() int { return s.img.Bounds().Dx() }

// Height in pixels.
func (s *Surface) Height() int { return s.img.Bounds().Dy() }

// Image exposes the backing raster. It is overwritten by the next draw.
func (s *Surface) Image() *image.RGBA { return s.img }

// Snapshot returns a copy of the current raster.
func (s *Surface) Snapshot() *image.RGBA {
	out := image.NewRGBA(s.img.Bounds())
	copy(out.Pix, s.img.Pix)
	return out
}

// Clear resets every pixel to transparent.
func (s *Surface) Clear() {
	clear(s.img.Pix)
}

// StrokeLine draws a single segment.
func (s *Surface) StrokeLine(from, to Point, c drawing.Color, width float64) {
	s.StrokePolyline([]Point{from, to}, c, width)
}

// StrokePolyline draws connected segments through points.
func (s *Surface) StrokePolyline(points []Point, c drawing.Color, width float64) {
	if len(points) < 2 {
		return
	}

	s.gc.BeginPath()
	s.gc.SetStrokeColor(c)
	s.gc.SetLineWidth(width)
	s.gc.MoveTo(points[0].X, points[0].Y)
	for _, p := range points[1:] {
		s.gc.LineTo(p.X, p.Y)
	}
	s.gc.Stroke()
}

// FillPolygon fills the closed shape through points.
func (s *Surface) FillPolygon(points []Point, c drawing.Color) {
	if len(points) < 3 {
		return
	}

	s.gc.BeginPath()
	s.gc.SetFillColor(c)
	s.gc.MoveTo(points[0].X, points[0].Y)
	for _, p := range points[1:] {
		s.gc.LineTo(p.X, p.Y)
	}
	s.gc.Close()
	s.gc.Fill()
}

// FillRect composites c over the axis-aligned rectangle.
func (s *Surface) FillRect(x, y, w, h float64, c drawing.Color) {
	r := pixelRect(x, y, w, h).Intersect(s.img.Bounds())
	if r.Empty() || c.A == 0 {
		return
	}
	draw.Draw(s.img, r, image.NewUniform(nrgba(c)), image.Point{}, draw.Over)
}

// FillVerticalGradient paints a top-to-bottom linear gradient over the
// rectangle, one row at a time.
func (s *Surface) FillVerticalGradient(x, y, w, h float64, top, bottom drawing.Color) {
	r := pixelRect(x, y, w, h)
	clipped := r.Intersect(s.img.Bounds())
	if clipped.Empty() {
		return
	}

	span := float64(r.Dy() - 1)
	for row := clipped.Min.Y; row < clipped.Max.Y; row++ {
		t := 0.0
		if span > 0 {
			t = float64(row-r.Min.Y) / span
		}
		line := image.Rect(clipped.Min.X, row, clipped.Max.X, row+1)
		draw.Draw(s.img, line, image.NewUniform(nrgba(lerp(top, bottom, t))), image.Point{}, draw.Over)
	}
}

// FillHorizontalGradient paints a left-to-right gradient through stops,
// which are spread evenly over the full width w. Only the leftmost visible
// pixels are painted.
func (s *Surface) FillHorizontalGradient(x, y, w, h, visible float64, stops ...drawing.Color) {
	if len(stops) == 0 {
		return
	}
	r := pixelRect(x, y, w, h)
	clip := pixelRect(x, y, visible, h).Intersect(s.img.Bounds())
	if clip.Empty() {
		return
	}

	span := float64(r.Dx() - 1)
	for col := clip.Min.X; col < clip.Max.X; col++ {
		t := 0.0
		if span > 0 {
			t = float64(col-r.Min.X) / span
		}
		c := stops[0]
		if len(stops) > 1 {
			pos := t * float64(len(stops)-1)
			i := min(int(pos), len(stops)-2)
			c = lerp(stops[i], stops[i+1], pos-float64(i))
		}
		line := image.Rect(col, clip.Min.Y, col+1, clip.Max.Y)
		draw.Draw(s.img, line, image.NewUniform(nrgba(c)), image.Point{}, draw.Over)
	}
}

// DrawText writes ASCII text with its baseline at (x, y).
func (s *Surface) DrawText(text string, x, y int, c drawing.Color) {
	d := &font.Drawer{
		Dst:  s.img,
		Src:  image.NewUniform(nrgba(c)),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}

// TextWidth is the advance of text in the surface font.
func TextWidth(text string) int {
	return font.MeasureString(basicfont.Face7x13, text).Ceil()
}

// PNG encodes the current raster.
func (s *Surface) PNG() ([]byte, error) {
	return EncodePNG(s.img)
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func pixelRect(x, y, w, h float64) image.Rectangle {
	return image.Rect(
		int(math.Floor(x)),
		int(math.Floor(y)),
		int(math.Ceil(x+w)),
		int(math.Ceil(y+h)),
	)
}
