package render

import (
	"image/color"
	"math"

	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/RMahshie/sonascope/internal/theme"
)

// Palette is the set of colours a theme renders with.
type Palette struct {
	Trace          drawing.Color
	TraceGlow      drawing.Color
	ScopeBaseline  drawing.Color
	ScopeGrid      drawing.Color
	BackgroundTop  drawing.Color
	BackgroundBase drawing.Color
	SpectrumGrid   drawing.Color
	MeterTrack     drawing.Color
	MeterText      drawing.Color
}

var (
	lightPalette = Palette{
		Trace:          drawing.ColorFromHex("4285f4"),
		TraceGlow:      drawing.ColorFromHex("3367d6"),
		ScopeBaseline:  rgba(50, 50, 50, 0.5),
		ScopeGrid:      rgba(50, 50, 50, 0.2),
		BackgroundTop:  drawing.ColorFromHex("e6f3ff"),
		BackgroundBase: drawing.ColorFromHex("f8f9fa"),
		SpectrumGrid:   rgba(0, 0, 0, 0.1),
		MeterTrack:     drawing.ColorFromHex("e0e0e0"),
		MeterText:      drawing.ColorFromHex("202124"),
	}
	darkPalette = Palette{
		Trace:          drawing.ColorFromHex("a78bfa"),
		TraceGlow:      drawing.ColorFromHex("8b5cf6"),
		ScopeBaseline:  rgba(50, 50, 50, 0.5),
		ScopeGrid:      rgba(50, 50, 50, 0.2),
		BackgroundTop:  drawing.ColorFromHex("0a1931"),
		BackgroundBase: drawing.ColorFromHex("16213e"),
		SpectrumGrid:   rgba(255, 255, 255, 0.1),
		MeterTrack:     drawing.ColorFromHex("2a2f45"),
		MeterText:      drawing.ColorFromHex("e8eaed"),
	}
)

// PaletteFor returns the palette of t.
func PaletteFor(t theme.Theme) Palette {
	if t.IsDark() {
		return darkPalette
	}
	return lightPalette
}

func rgba(r, g, b uint8, a float64) drawing.Color {
	return drawing.Color{R: r, G: g, B: b, A: alpha(a)}
}

func alpha(a float64) uint8 {
	return uint8(math.Round(clamp(a, 0, 1) * 255))
}

// HSL converts hue in degrees and saturation/lightness in percent to a colour.
func HSL(h, s, l float64) drawing.Color {
	return HSLA(h, s, l, 1)
}

// HSLA is HSL with an alpha in [0,1]. Lightness and saturation are clamped
// to [0,100] the way CSS does.
func HSLA(h, s, l, a float64) drawing.Color {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	s = clamp(s, 0, 100) / 100
	l = clamp(l, 0, 100) / 100

	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := l - c/2

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}

	return drawing.Color{
		R: channel(r + m),
		G: channel(g + m),
		B: channel(b + m),
		A: alpha(a),
	}
}

func channel(v float64) uint8 {
	return uint8(math.Round(clamp(v, 0, 1) * 255))
}

// lerp blends two colours; t=0 yields a, t=1 yields b.
func lerp(a, b drawing.Color, t float64) drawing.Color {
	t = clamp(t, 0, 1)
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return drawing.Color{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}

// nrgba converts to the straight-alpha stdlib colour used for compositing.
func nrgba(c drawing.Color) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

func clamp(v, lo, hi float64) float64 {
	switch {
	case math.IsNaN(v), v < lo:
		return lo
	case v > hi:
		return hi
	}
	return v
}
