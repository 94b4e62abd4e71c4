package render

import (
	"math"

	"github.com/RMahshie/sonascope/internal/theme"
)

const (
	DefaultBarCount = 64

	barEasing      = 0.3
	angleStep      = 0.01
	cameraDistance = 3.0
	baselineRatio  = 0.65
	heightRatio    = 0.6
	spreadRatio    = 0.4
	barValueScale  = 0.8
	glowHeight     = 10
	spectrumGrid   = 20
)

// Bar is one column of the spectrum; Value eases toward Target every frame.
type Bar struct {
	Value  float64
	Target float64
}

// BarGeometry is the projected trapezoid of one bar.
type BarGeometry struct {
	CenterX   float64
	Top       float64
	Base      float64
	TopWidth  float64
	BaseWidth float64
	Hue       float64
	Sat       float64
	Light     float64
}

// Spectrum renders frequency bars in a slowly rotating perspective.
// Bar heights and the rotation angle persist between frames.
type Spectrum struct {
	bars  []Bar
	angle float64
}

// NewSpectrum creates a spectrum renderer with barCount bars.
func NewSpectrum(barCount int) *Spectrum {
	if barCount <= 0 {
		barCount = DefaultBarCount
	}
	return &Spectrum{bars: make([]Bar, barCount)}
}

// Bars returns a copy of the current bar state.
func (sp *Spectrum) Bars() []Bar {
	return append([]Bar(nil), sp.bars...)
}

// Angle is the current rotation in radians.
func (sp *Spectrum) Angle() float64 { return sp.angle }

// Reset zeroes the bars and the rotation.
func (sp *Spectrum) Reset() {
	clear(sp.bars)
	sp.angle = 0
}

// Update samples freq into the bars, eases their values and advances the
// rotation by one frame.
func (sp *Spectrum) Update(freq []uint8) {
	n := len(sp.bars)
	for i := range sp.bars {
		target := 0.0
		if len(freq) > 0 {
			target = float64(freq[i*len(freq)/n]) / 255
		}
		sp.bars[i].Target = target
		sp.bars[i].Value += (target - sp.bars[i].Value) * barEasing
	}
	sp.angle += angleStep
}

// Geometry projects bar i onto a w x h surface at the current angle.
func (sp *Spectrum) Geometry(i int, w, h float64) BarGeometry {
	n := float64(len(sp.bars))
	norm := float64(i) / n
	value := sp.bars[i].Value
	barWidth := w / n
	centerY := h * baselineRatio

	x3d := (norm - 0.5) * 2
	y3d := value * barValueScale
	z3d := 0.0

	rotX := x3d*math.Cos(sp.angle) - z3d*math.Sin(sp.angle)
	rotZ := x3d*math.Sin(sp.angle) + z3d*math.Cos(sp.angle)

	scale := 1 / (rotZ + cameraDistance)
	perspective := 0.5 + 0.5*scale

	return BarGeometry{
		CenterX:   rotX*scale*w*spreadRatio + w/2,
		Top:       centerY - y3d*h*heightRatio,
		Base:      centerY,
		TopWidth:  barWidth * perspective,
		BaseWidth: barWidth,
		Hue:       math.Mod(240-norm*240, 360),
		Sat:       80 + value*20,
		Light:     40 + value*20,
	}
}

// Draw updates the bars from freq and paints the frame onto s.
func (sp *Spectrum) Draw(s *Surface, freq []uint8, t theme.Theme) {
	p := PaletteFor(t)
	w := float64(s.Width())
	h := float64(s.Height())

	s.Clear()
	s.FillVerticalGradient(0, 0, w, h, p.BackgroundTop, p.BackgroundBase)

	sp.Update(freq)

	for i := range sp.bars {
		g := sp.Geometry(i, w, h)

		s.FillPolygon([]Point{
			{g.CenterX - g.TopWidth/2, g.Top},
			{g.CenterX + g.TopWidth/2, g.Top},
			{g.CenterX + g.BaseWidth/2, g.Base},
			{g.CenterX - g.BaseWidth/2, g.Base},
		}, HSL(g.Hue, g.Sat, g.Light))

		s.FillVerticalGradient(
			g.CenterX-g.TopWidth/2, g.Top, g.TopWidth, glowHeight,
			HSLA(g.Hue, g.Sat, g.Light+30, 0.8),
			HSLA(g.Hue, g.Sat, g.Light, 0),
		)
	}

	centerY := h * baselineRatio
	left := w/2 - w*spreadRatio*math.Cos(sp.angle)
	right := w/2 + w*spreadRatio*math.Cos(sp.angle)
	for y := centerY; y > centerY-h*heightRatio; y -= spectrumGrid {
		s.StrokeLine(Point{left, y}, Point{right, y}, p.SpectrumGrid, 1)
	}
}
