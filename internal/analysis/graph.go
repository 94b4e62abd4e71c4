package analysis

import (
	"errors"
	"fmt"
	"sync"
)

// ErrGraphClosed is returned when closing a graph twice.
var ErrGraphClosed = errors.New("audio graph already closed")

// Splitter de-interleaves a multi-channel buffer into two planes.
// A mono input is copied to both outputs.
type Splitter struct {
	left  []float32
	right []float32
	mix   []float32
}

// Split returns the left, right and mono down-mix planes of interleaved.
// The returned slices are reused by the next call.
func (s *Splitter) Split(interleaved []float32, channels int) (left, right, mix []float32) {
	if channels < 1 {
		channels = 1
	}

	frames := len(interleaved) / channels
	s.left = grow(s.left, frames)
	s.right = grow(s.right, frames)
	s.mix = grow(s.mix, frames)

	for f := 0; f < frames; f++ {
		base := f * channels
		l := interleaved[base]
		r := l
		if channels > 1 {
			r = interleaved[base+1]
		}

		var sum float32
		for c := 0; c < channels; c++ {
			sum += interleaved[base+c]
		}

		s.left[f] = l
		s.right[f] = r
		s.mix[f] = sum / float32(channels)
	}

	return s.left, s.right, s.mix
}

func grow(buf []float32, n int) []float32 {
	if cap(buf) < n {
		return make([]float32, n)
	}
	return buf[:n]
}

// GraphConfig sizes the analysers of a Graph.
type GraphConfig struct {
	SampleRate int
	Main       AnalyserConfig
	Channel    AnalyserConfig
}

// DefaultGraphConfig mirrors the visualizer's analysers: a 2048-point
// spectrum analyser and 1024-point per-channel level analysers.
func DefaultGraphConfig() GraphConfig {
	return GraphConfig{
		SampleRate: 48000,
		Main:       AnalyserConfig{FFTSize: 2048, Smoothing: 0.85},
		Channel:    AnalyserConfig{FFTSize: 1024, Smoothing: 0.3},
	}
}

// Graph routes a captured stream into the main analyser (mono down-mix) and
// the left and right channel analysers.
type Graph struct {
	SampleRate int
	Main       *Analyser
	Left       *Analyser
	Right      *Analyser

	mu       sync.Mutex
	splitter Splitter
	closed   bool
}

// NewGraph builds the three analysers described by cfg.
func NewGraph(cfg GraphConfig) (*Graph, error) {
	main, err := NewAnalyser(cfg.Main)
	if err != nil {
		return nil, fmt.Errorf("main analyser: %w", err)
	}
	left, err := NewAnalyser(cfg.Channel)
	if err != nil {
		return nil, fmt.Errorf("left analyser: %w", err)
	}
	right, err := NewAnalyser(cfg.Channel)
	if err != nil {
		return nil, fmt.Errorf("right analyser: %w", err)
	}

	return &Graph{
		SampleRate: cfg.SampleRate,
		Main:       main,
		Left:       left,
		Right:      right,
	}, nil
}

// Write feeds one interleaved block through the splitter into the analysers.
// Writes after Close are dropped.
func (g *Graph) Write(interleaved []float32, channels int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return
	}

	left, right, mix := g.splitter.Split(interleaved, channels)
	g.Main.Write(mix)
	g.Left.Write(left)
	g.Right.Write(right)
}

// Closed reports whether Close has been called.
func (g *Graph) Closed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed
}

// Close disconnects the graph and clears the analysers.
func (g *Graph) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return ErrGraphClosed
	}
	g.closed = true

	g.Main.Reset()
	g.Left.Reset()
	g.Right.Reset()
	return nil
}
