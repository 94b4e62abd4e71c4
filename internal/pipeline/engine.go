// Package pipeline connects a capture stream to the analysis graph and the
// three renderers, one frame per clock tick.
package pipeline

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/RMahshie/sonascope/internal/analysis"
	"github.com/RMahshie/sonascope/internal/capture"
	"github.com/RMahshie/sonascope/internal/meter"
	"github.com/RMahshie/sonascope/internal/render"
	"github.com/RMahshie/sonascope/internal/theme"
)

var ErrEngineRunning = errors.New("engine already running")

// ThemeSource reports the theme frames are drawn in.
type ThemeSource interface {
	Active() theme.Theme
}

// Size is a surface size in pixels.
type Size struct {
	Width  int
	Height int
}

type EngineConfig struct {
	Graph        analysis.GraphConfig
	Scale        meter.Scale
	BarCount     int
	Oscilloscope Size
	Spectrum     Size
	Meters       Size
	// BlockFrames is how many frames the pump reads from the stream at once.
	BlockFrames int
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Graph:        analysis.DefaultGraphConfig(),
		Scale:        meter.DefaultScale(),
		BarCount:     render.DefaultBarCount,
		Oscilloscope: Size{Width: 800, Height: 200},
		Spectrum:     Size{Width: 800, Height: 300},
		Meters:       Size{Width: 320, Height: 60},
		BlockFrames:  512,
	}
}

// Engine owns one capture session's analysis and rendering.
type Engine struct {
	cfg    EngineConfig
	clock  Clock
	sink   Sink
	themes ThemeSource

	scopeSurface    *render.Surface
	spectrumSurface *render.Surface
	meterSurface    *render.Surface
	scope           *render.Oscilloscope
	spectrum        *render.Spectrum
	vu              *render.VUMeter

	mu       sync.Mutex
	running  bool
	teardown chan struct{} // closed when an in-flight Stop finishes
	seq      uint64
	stream   capture.Stream
	graph    *analysis.Graph
	pumpDone chan struct{}

	freq  []uint8
	wave  []float32
	left  []float32
	right []float32
}

// NewEngine allocates the surfaces and renderers described by cfg.
func NewEngine(cfg EngineConfig, clock Clock, sink Sink, themes ThemeSource) (*Engine, error) {
	if cfg.BlockFrames <= 0 {
		cfg.BlockFrames = 512
	}

	scopeSurface, err := render.NewSurface(cfg.Oscilloscope.Width, cfg.Oscilloscope.Height)
	if err != nil {
		return nil, fmt.Errorf("oscilloscope surface: %w", err)
	}
	spectrumSurface, err := render.NewSurface(cfg.Spectrum.Width, cfg.Spectrum.Height)
	if err != nil {
		return nil, fmt.Errorf("spectrum surface: %w", err)
	}
	meterSurface, err := render.NewSurface(cfg.Meters.Width, cfg.Meters.Height)
	if err != nil {
		return nil, fmt.Errorf("meter surface: %w", err)
	}

	return &Engine{
		cfg:             cfg,
		clock:           clock,
		sink:            sink,
		themes:          themes,
		scopeSurface:    scopeSurface,
		spectrumSurface: spectrumSurface,
		meterSurface:    meterSurface,
		scope:           render.NewOscilloscope(),
		spectrum:        render.NewSpectrum(cfg.BarCount),
		vu:              render.NewVUMeter(),
	}, nil
}

// Running reports whether a stream is attached.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Start builds a fresh graph for stream, starts pumping samples into it and
// schedules the frame callback. A Start racing a Stop waits for its teardown.
func (e *Engine) Start(stream capture.Stream) error {
	e.mu.Lock()
	for e.teardown != nil {
		td := e.teardown
		e.mu.Unlock()
		<-td
		e.mu.Lock()
	}
	defer e.mu.Unlock()

	if e.running {
		return ErrEngineRunning
	}

	graphCfg := e.cfg.Graph
	graphCfg.SampleRate = stream.SampleRate()
	graph, err := analysis.NewGraph(graphCfg)
	if err != nil {
		return fmt.Errorf("failed to build analysis graph: %w", err)
	}

	e.stream = stream
	e.graph = graph
	e.freq = make([]uint8, graph.Main.FrequencyBinCount())
	e.wave = make([]float32, graph.Main.FFTSize())
	e.left = make([]float32, graph.Left.FFTSize())
	e.right = make([]float32, graph.Right.FFTSize())
	e.pumpDone = make(chan struct{})
	e.running = true

	go e.pump(stream, graph, e.pumpDone)
	e.clock.Start(e.renderFrame)

	log.Info().
		Int("sample_rate", stream.SampleRate()).
		Int("channels", stream.Channels()).
		Int("fft_size", graph.Main.FFTSize()).
		Msg("pipeline started")

	return nil
}

// pump copies the stream into the graph until the stream ends or is closed.
func (e *Engine) pump(stream capture.Stream, graph *analysis.Graph, done chan struct{}) {
	defer close(done)

	channels := max(stream.Channels(), 1)
	buf := make([]float32, e.cfg.BlockFrames*channels)

	for {
		n, err := stream.Read(buf)
		if n > 0 {
			graph.Write(buf[:n*channels], channels)
		}
		if err == nil {
			continue
		}

		if !errors.Is(err, io.EOF) && !graph.Closed() {
			log.Warn().Err(err).Msg("capture stream read failed")
		}

		// Let the meters fall back to the floor.
		silence := make([]float32, graph.Main.FFTSize()*channels)
		graph.Write(silence, channels)
		log.Debug().Msg("capture stream ended")
		return
	}
}

// renderFrame is the clock callback.
func (e *Engine) renderFrame(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return
	}

	t := theme.Light
	if e.themes != nil {
		t = e.themes.Active()
	}

	e.graph.Main.ByteFrequencyData(e.freq)
	e.graph.Main.FloatTimeDomainData(e.wave)
	e.graph.Left.FloatTimeDomainData(e.left)
	e.graph.Right.FloatTimeDomainData(e.right)
	levels := e.cfg.Scale.ReadStereo(e.left, e.right)

	e.scope.Draw(e.scopeSurface, e.wave, t)
	e.spectrum.Draw(e.spectrumSurface, e.freq, t)
	e.vu.Draw(e.meterSurface, levels, t)

	e.seq++
	frame := Frame{
		Seq:          e.seq,
		At:           now,
		Theme:        t,
		Levels:       levels,
		Oscilloscope: e.scopeSurface.Snapshot(),
		Spectrum:     e.spectrumSurface.Snapshot(),
		Meters:       e.meterSurface.Snapshot(),
	}

	if e.sink == nil {
		return
	}
	if err := e.sink.Publish(frame); err != nil {
		log.Error().Err(err).Uint64("seq", frame.Seq).Msg("failed to publish frame")
	}
}

// Stop tears the session down. It is safe to call repeatedly; once it
// returns no further frame is rendered.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	td := make(chan struct{})
	e.teardown = td
	stream, graph, pumpDone := e.stream, e.graph, e.pumpDone
	e.stream, e.graph, e.pumpDone = nil, nil, nil
	e.mu.Unlock()

	e.clock.Cancel()

	if err := stream.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close capture stream")
	}
	<-pumpDone

	if err := graph.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close analysis graph")
	}

	e.mu.Lock()
	e.scopeSurface.Clear()
	e.spectrumSurface.Clear()
	e.meterSurface.Clear()
	e.spectrum.Reset()
	frames := e.seq
	e.mu.Unlock()

	if e.sink != nil {
		e.sink.Reset()
	}

	e.mu.Lock()
	e.teardown = nil
	e.mu.Unlock()
	close(td)

	log.Info().Uint64("frames", frames).Msg("pipeline stopped")
}

// Seq is the number of frames rendered so far.
func (e *Engine) Seq() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seq
}

// Surfaces exposes the live drawing surfaces.
func (e *Engine) Surfaces() (scope, spectrum, meters *render.Surface) {
	return e.scopeSurface, e.spectrumSurface, e.meterSurface
}

// Spectrum exposes the bar state.
func (e *Engine) Spectrum() *render.Spectrum {
	return e.spectrum
}
