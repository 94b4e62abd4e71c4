// Package analysis models the audio graph that feeds the visualizations:
// analyser nodes holding a window of recent samples, a channel splitter and
// the graph that wires a stereo stream into them.
package analysis

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"sync"

	algofft "github.com/MeKo-Christian/algo-fft"
)

const (
	MinFFTSize = 32
	MaxFFTSize = 32768

	DefaultMinDecibels = -100.0
	DefaultMaxDecibels = -30.0
)

var (
	ErrInvalidFFTSize   = errors.New("fft size must be a power of two between 32 and 32768")
	ErrInvalidSmoothing = errors.New("smoothing time constant must be within [0, 1]")
)

// forwardPlan is the subset of an algo-fft plan the analyser uses.
type forwardPlan interface {
	Forward(dst, src []complex128) error
}

// AnalyserConfig describes one analyser node.
type AnalyserConfig struct {
	FFTSize     int
	Smoothing   float64
	MinDecibels float64
	MaxDecibels float64
}

// Analyser keeps the most recent FFTSize samples written to it and turns
// them into time-domain and frequency-domain snapshots on demand.
// It is safe for one writer and one reader running concurrently.
type Analyser struct {
	mu sync.Mutex

	fftSize   int
	smoothing float64
	minDB     float64
	maxDB     float64

	ring  []float32
	write int

	window   []float64
	plan     forwardPlan
	in       []complex128
	out      []complex128
	smoothed []float64
}

// NewAnalyser validates cfg and allocates the analyser's buffers and FFT plan.
func NewAnalyser(cfg AnalyserConfig) (*Analyser, error) {
	if cfg.FFTSize < MinFFTSize || cfg.FFTSize > MaxFFTSize || cfg.FFTSize&(cfg.FFTSize-1) != 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidFFTSize, cfg.FFTSize)
	}
	if cfg.Smoothing < 0 || cfg.Smoothing > 1 || math.IsNaN(cfg.Smoothing) {
		return nil, fmt.Errorf("%w: got %g", ErrInvalidSmoothing, cfg.Smoothing)
	}
	if cfg.MinDecibels == 0 && cfg.MaxDecibels == 0 {
		cfg.MinDecibels = DefaultMinDecibels
		cfg.MaxDecibels = DefaultMaxDecibels
	}
	if cfg.MinDecibels >= cfg.MaxDecibels {
		return nil, fmt.Errorf("min decibels %g must be below max decibels %g", cfg.MinDecibels, cfg.MaxDecibels)
	}

	plan, err := algofft.NewPlan64(cfg.FFTSize)
	if err != nil {
		return nil, fmt.Errorf("analyser fft plan: %w", err)
	}

	return &Analyser{
		fftSize:   cfg.FFTSize,
		smoothing: cfg.Smoothing,
		minDB:     cfg.MinDecibels,
		maxDB:     cfg.MaxDecibels,
		ring:      make([]float32, cfg.FFTSize),
		window:    blackman(cfg.FFTSize),
		plan:      plan,
		in:        make([]complex128, cfg.FFTSize),
		out:       make([]complex128, cfg.FFTSize),
		smoothed:  make([]float64, cfg.FFTSize/2),
	}, nil
}

// FFTSize is the analysis window length in samples.
func (a *Analyser) FFTSize() int { return a.fftSize }

// FrequencyBinCount is half the FFT size.
func (a *Analyser) FrequencyBinCount() int { return a.fftSize / 2 }

// Write appends samples to the analysis window, discarding the oldest.
func (a *Analyser) Write(samples []float32) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(samples) >= a.fftSize {
		copy(a.ring, samples[len(samples)-a.fftSize:])
		a.write = 0
		return
	}

	for _, s := range samples {
		a.ring[a.write] = s
		a.write++
		if a.write == a.fftSize {
			a.write = 0
		}
	}
}

// FloatTimeDomainData copies the current window, oldest sample first, into dst.
// It returns the number of samples copied.
func (a *Analyser) FloatTimeDomainData(dst []float32) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := min(len(dst), a.fftSize)
	a.copyWindow(dst[:n])
	return n
}

// FloatFrequencyData writes the smoothed magnitude spectrum in dB into dst.
func (a *Analyser) FloatFrequencyData(dst []float32) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.analyse(); err != nil {
		return 0
	}

	n := min(len(dst), len(a.smoothed))
	for k := 0; k < n; k++ {
		dst[k] = float32(toDecibels(a.smoothed[k]))
	}
	return n
}

// ByteFrequencyData writes the smoothed spectrum scaled from
// [MinDecibels, MaxDecibels] onto [0, 255] into dst.
func (a *Analyser) ByteFrequencyData(dst []uint8) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.analyse(); err != nil {
		return 0
	}

	scale := 255 / (a.maxDB - a.minDB)
	n := min(len(dst), len(a.smoothed))
	for k := 0; k < n; k++ {
		v := math.Floor(scale * (toDecibels(a.smoothed[k]) - a.minDB))
		switch {
		case v < 0 || math.IsNaN(v):
			v = 0
		case v > 255:
			v = 255
		}
		dst[k] = uint8(v)
	}
	return n
}

// Reset clears the sample window and the smoothing history.
func (a *Analyser) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	clear(a.ring)
	clear(a.smoothed)
	a.write = 0
}

// copyWindow unrolls the ring into dst; a.mu must be held.
func (a *Analyser) copyWindow(dst []float32) {
	read := a.write
	for i := range dst {
		dst[i] = a.ring[read]
		read++
		if read == a.fftSize {
			read = 0
		}
	}
}

// analyse runs the windowed FFT and folds the magnitudes into the smoothed
// spectrum; a.mu must be held.
func (a *Analyser) analyse() error {
	read := a.write
	for i := 0; i < a.fftSize; i++ {
		a.in[i] = complex(float64(a.ring[read])*a.window[i], 0)
		read++
		if read == a.fftSize {
			read = 0
		}
	}

	if err := a.plan.Forward(a.out, a.in); err != nil {
		return err
	}

	norm := 1 / float64(a.fftSize)
	tau := a.smoothing
	for k := range a.smoothed {
		mag := cmplx.Abs(a.out[k]) * norm
		a.smoothed[k] = tau*a.smoothed[k] + (1-tau)*mag
		if math.IsNaN(a.smoothed[k]) || math.IsInf(a.smoothed[k], 0) {
			a.smoothed[k] = 0
		}
	}

	return nil
}

func toDecibels(mag float64) float64 {
	if mag <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(mag)
}

// blackman returns the α = 0.16 Blackman window of length n.
func blackman(n int) []float64 {
	const (
		alpha = 0.16
		a0    = 0.5 * (1 - alpha)
		a1    = 0.5
		a2    = 0.5 * alpha
	)

	w := make([]float64, n)
	for i := range w {
		x := float64(i) / float64(n)
		w[i] = a0 - a1*math.Cos(2*math.Pi*x) + a2*math.Cos(4*math.Pi*x)
	}
	return w
}
