package render

import (
	"fmt"

	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/RMahshie/sonascope/internal/meter"
	"github.com/RMahshie/sonascope/internal/theme"
)

var meterStops = []drawing.Color{
	drawing.ColorFromHex("34a853"),
	drawing.ColorFromHex("fbbc05"),
	drawing.ColorFromHex("ea4335"),
}

// VUMeter draws two horizontal level bars labelled L and R.
type VUMeter struct{}

// NewVUMeter creates a VU meter renderer.
func NewVUMeter() *VUMeter {
	return &VUMeter{}
}

// Draw clears s and renders the stereo reading.
func (v *VUMeter) Draw(s *Surface, levels meter.Stereo, t theme.Theme) {
	p := PaletteFor(t)
	w := float64(s.Width())
	h := float64(s.Height())

	s.Clear()

	const pad = 6.0
	labelW := float64(TextWidth("R")) + 2*pad
	valueW := float64(TextWidth("-100.0 dB")) + pad
	trackW := w - labelW - valueW
	if trackW < 1 {
		trackW = 1
	}
	rowH := h / 2

	for row, r := range []struct {
		name    string
		reading meter.Reading
	}{
		{"L", levels.Left},
		{"R", levels.Right},
	} {
		top := float64(row)*rowH + pad/2
		barH := rowH - pad
		if barH < 1 {
			barH = 1
		}
		baseline := int(top + barH/2 + 4)

		s.DrawText(r.name, int(pad), baseline, p.MeterText)
		s.FillRect(labelW, top, trackW, barH, p.MeterTrack)
		s.FillHorizontalGradient(labelW, top, trackW, barH, trackW*r.reading.Percent/100, meterStops...)
		s.DrawText(rasterLabel(r.reading.DB), int(labelW+trackW+pad), baseline, p.MeterText)
	}
}

// rasterLabel is meter.Label restricted to the ASCII bitmap font.
func rasterLabel(db float64) string {
	if db <= meter.FloorDB {
		return "-inf dB"
	}
	return fmt.Sprintf("%.1f dB", db)
}
