package render

import "github.com/RMahshie/sonascope/internal/theme"

const (
	scopeGridStep   = 20
	scopeTraceWidth = 2
	scopeGlowWidth  = 6
	scopeGlowAlpha  = 0.35
)

// Oscilloscope plots a time-domain buffer across the surface width.
type Oscilloscope struct {
	points []Point
}

// NewOscilloscope creates an oscilloscope renderer.
func NewOscilloscope() *Oscilloscope {
	return &Oscilloscope{}
}

// Draw clears s and renders the grid, the zero line and the waveform of
// samples, which are expected in [-1, 1]. The trace sits on a wider
// translucent stroke in the palette's glow colour.
func (o *Oscilloscope) Draw(s *Surface, samples []float32, t theme.Theme) {
	p := PaletteFor(t)
	w := float64(s.Width())
	h := float64(s.Height())

	s.Clear()

	s.StrokeLine(Point{0, h / 2}, Point{w, h / 2}, p.ScopeBaseline, 1)
	for y := 0.0; y < h; y += scopeGridStep {
		s.StrokeLine(Point{0, y}, Point{w, y}, p.ScopeGrid, 1)
	}
	for x := 0.0; x < w; x += scopeGridStep {
		s.StrokeLine(Point{x, 0}, Point{x, h}, p.ScopeGrid, 1)
	}

	if len(samples) == 0 {
		return
	}

	o.points = TracePoints(o.points[:0], samples, w, h)

	glow := p.TraceGlow
	glow.A = alpha(scopeGlowAlpha)
	s.StrokePolyline(o.points, glow, scopeGlowWidth)
	s.StrokePolyline(o.points, p.Trace, scopeTraceWidth)
}

// TracePoints projects samples onto a w x h surface: x advances by
// w/len(samples) per sample and y = v*h/2 + h/2. Points are appended to dst.
func TracePoints(dst []Point, samples []float32, w, h float64) []Point {
	if len(samples) == 0 {
		return dst
	}

	slice := w / float64(len(samples))
	x := 0.0
	for _, v := range samples {
		dst = append(dst, Point{X: x, Y: float64(v)*h/2 + h/2})
		x += slice
	}
	return dst
}
