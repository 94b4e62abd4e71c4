package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(n int, freq, sampleRate, amp float64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(amp * math.Sin(2*math.Pi*freq*float64(i)/sampleRate))
	}
	return out
}

func TestNewAnalyser_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     AnalyserConfig
		wantErr error
	}{
		{name: "valid", cfg: AnalyserConfig{FFTSize: 2048, Smoothing: 0.85}},
		{name: "smallest", cfg: AnalyserConfig{FFTSize: 32}},
		{name: "not power of two", cfg: AnalyserConfig{FFTSize: 1000}, wantErr: ErrInvalidFFTSize},
		{name: "too small", cfg: AnalyserConfig{FFTSize: 16}, wantErr: ErrInvalidFFTSize},
		{name: "too large", cfg: AnalyserConfig{FFTSize: 65536}, wantErr: ErrInvalidFFTSize},
		{name: "negative smoothing", cfg: AnalyserConfig{FFTSize: 256, Smoothing: -0.1}, wantErr: ErrInvalidSmoothing},
		{name: "smoothing above one", cfg: AnalyserConfig{FFTSize: 256, Smoothing: 1.5}, wantErr: ErrInvalidSmoothing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := NewAnalyser(tt.cfg)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, a)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.cfg.FFTSize/2, a.FrequencyBinCount())
		})
	}
}

func TestNewAnalyser_DecibelRange(t *testing.T) {
	_, err := NewAnalyser(AnalyserConfig{FFTSize: 256, MinDecibels: -30, MaxDecibels: -100})
	assert.Error(t, err)
}

func TestAnalyser_TimeDomainKeepsNewestWindow(t *testing.T) {
	a, err := NewAnalyser(AnalyserConfig{FFTSize: 32})
	require.NoError(t, err)

	block := make([]float32, 20)
	for i := range block {
		block[i] = float32(i + 1)
	}
	a.Write(block)
	a.Write(block)

	got := make([]float32, 32)
	require.Equal(t, 32, a.FloatTimeDomainData(got))

	// 40 samples written: the window holds samples 9..40 of the sequence.
	assert.Equal(t, float32(9), got[0])
	assert.Equal(t, float32(20), got[11])
	assert.Equal(t, float32(1), got[12])
	assert.Equal(t, float32(20), got[31])
}

func TestAnalyser_TimeDomainLongBlock(t *testing.T) {
	a, err := NewAnalyser(AnalyserConfig{FFTSize: 32})
	require.NoError(t, err)

	block := make([]float32, 100)
	for i := range block {
		block[i] = float32(i)
	}
	a.Write(block)

	got := make([]float32, 8)
	assert.Equal(t, 8, a.FloatTimeDomainData(got))
	assert.Equal(t, []float32{68, 69, 70, 71, 72, 73, 74, 75}, got)
}

func TestAnalyser_ByteFrequencyPeak(t *testing.T) {
	const (
		fftSize    = 1024
		sampleRate = 48000.0
	)
	a, err := NewAnalyser(AnalyserConfig{FFTSize: fftSize})
	require.NoError(t, err)

	// Bin 64 centre frequency.
	freq := 64 * sampleRate / fftSize
	a.Write(sine(fftSize, freq, sampleRate, 0.8))

	bins := make([]uint8, a.FrequencyBinCount())
	require.Equal(t, fftSize/2, a.ByteFrequencyData(bins))

	peak := 0
	for k, v := range bins {
		if v > bins[peak] {
			peak = k
		}
	}
	assert.Equal(t, 64, peak)
	assert.Equal(t, uint8(255), bins[64])
	assert.Equal(t, uint8(0), bins[300])
}

func TestAnalyser_SilenceIsZero(t *testing.T) {
	a, err := NewAnalyser(AnalyserConfig{FFTSize: 256, Smoothing: 0.5})
	require.NoError(t, err)

	bins := make([]uint8, a.FrequencyBinCount())
	a.ByteFrequencyData(bins)
	for _, v := range bins {
		assert.Equal(t, uint8(0), v)
	}

	floats := make([]float32, a.FrequencyBinCount())
	a.FloatFrequencyData(floats)
	assert.True(t, math.IsInf(float64(floats[0]), -1))
}

func TestAnalyser_SmoothingDecays(t *testing.T) {
	const fftSize = 512
	a, err := NewAnalyser(AnalyserConfig{FFTSize: fftSize, Smoothing: 0.85})
	require.NoError(t, err)

	a.Write(sine(fftSize, 32*48000.0/fftSize, 48000, 0.9))
	loud := make([]float32, a.FrequencyBinCount())
	a.FloatFrequencyData(loud)

	a.Write(make([]float32, fftSize))
	decayed := make([]float32, a.FrequencyBinCount())
	a.FloatFrequencyData(decayed)

	// One silent frame scales the smoothed magnitude by 0.85.
	assert.InDelta(t, float64(loud[32])+20*math.Log10(0.85), float64(decayed[32]), 1e-3)
}

func TestAnalyser_Reset(t *testing.T) {
	a, err := NewAnalyser(AnalyserConfig{FFTSize: 64})
	require.NoError(t, err)

	a.Write(sine(64, 3000, 48000, 1))
	a.Reset()

	got := make([]float32, 64)
	a.FloatTimeDomainData(got)
	for _, v := range got {
		assert.Zero(t, v)
	}
}

func TestBlackmanPeriodic(t *testing.T) {
	w := blackman(8)
	require.Len(t, w, 8)

	assert.InDelta(t, 0.0, w[0], 1e-12)
	assert.InDelta(t, 1.0, w[4], 1e-12)
	// Periodic form: w[i] == w[n-i], with no repeated end point.
	for i := 1; i < 4; i++ {
		assert.InDelta(t, w[i], w[8-i], 1e-12)
	}
	// 0.42 - 0.5·cos(π/4) + 0.08·cos(π/2)
	assert.InDelta(t, 0.42-0.5*math.Sqrt2/2, w[1], 1e-12)
}
