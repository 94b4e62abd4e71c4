package config

import (
	"fmt"

	"github.com/RMahshie/sonascope/internal/analysis"
	"github.com/RMahshie/sonascope/internal/capture"
	"github.com/RMahshie/sonascope/internal/meter"
	"github.com/RMahshie/sonascope/internal/pipeline"
	"github.com/RMahshie/sonascope/internal/render"
)

// Source kinds accepted by CAPTURE_PRIMARY and CAPTURE_FALLBACK.
const (
	SourceFFmpeg = "ffmpeg"
	SourceTone   = "tone"
	SourceNone   = "none"
)

// EngineConfig translates the analysis and render settings.
func (c *Config) EngineConfig() pipeline.EngineConfig {
	cfg := pipeline.DefaultEngineConfig()
	cfg.Graph = analysis.GraphConfig{
		SampleRate: c.Capture.SampleRate,
		Main: analysis.AnalyserConfig{
			FFTSize:   c.Analysis.FFTSize,
			Smoothing: c.Analysis.Smoothing,
		},
		Channel: analysis.AnalyserConfig{
			FFTSize:   c.Analysis.ChannelFFTSize,
			Smoothing: c.Analysis.ChannelSmoothing,
		},
	}
	cfg.Scale = meter.Scale{MinDB: c.Render.MeterMinDB, MaxDB: c.Render.MeterMaxDB}
	cfg.BarCount = render.DefaultBarCount
	cfg.Oscilloscope = pipeline.Size{Width: c.Render.ScopeWidth, Height: c.Render.ScopeHeight}
	cfg.Spectrum = pipeline.Size{Width: c.Render.SpectrumWidth, Height: c.Render.SpectrumHeight}
	cfg.Meters = pipeline.Size{Width: c.Render.MeterWidth, Height: c.Render.MeterHeight}
	return cfg
}

// Source builds the capture source described by src. Kind "none" yields a
// nil source.
func (c *Config) Source(name string, src SourceConfig) (capture.Source, error) {
	switch src.Kind {
	case SourceFFmpeg, "":
		return capture.NewFFmpegSource(capture.FFmpegConfig{
			Name:       name,
			Format:     src.Format,
			Input:      src.Input,
			SampleRate: c.Capture.SampleRate,
			Channels:   c.Capture.Channels,
			FFmpegCmd:  c.Capture.FFmpegCmd,
			FFprobeCmd: c.Capture.FFprobeCmd,
		}), nil
	case SourceTone:
		cfg := capture.DefaultToneConfig()
		cfg.Name = name
		cfg.SampleRate = c.Capture.SampleRate
		return capture.NewToneSource(cfg), nil
	case SourceNone:
		return nil, nil
	}
	return nil, fmt.Errorf("unknown capture source kind %q", src.Kind)
}
