package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitter_Stereo(t *testing.T) {
	var s Splitter
	left, right, mix := s.Split([]float32{1, -1, 0.5, 0.25, 0, 1}, 2)

	assert.Equal(t, []float32{1, 0.5, 0}, left)
	assert.Equal(t, []float32{-1, 0.25, 1}, right)
	assert.Equal(t, []float32{0, 0.375, 0.5}, mix)
}

func TestSplitter_MonoFeedsBothChannels(t *testing.T) {
	var s Splitter
	left, right, mix := s.Split([]float32{0.1, 0.2, 0.3}, 1)

	assert.Equal(t, []float32{0.1, 0.2, 0.3}, left)
	assert.Equal(t, left, right)
	assert.Equal(t, left, mix)
}

func TestSplitter_DropsPartialFrame(t *testing.T) {
	var s Splitter
	left, _, _ := s.Split([]float32{1, 2, 3}, 2)
	assert.Len(t, left, 1)
}

func TestGraph_RoutesChannels(t *testing.T) {
	cfg := DefaultGraphConfig()
	cfg.Main.FFTSize = 32
	cfg.Channel.FFTSize = 32

	g, err := NewGraph(cfg)
	require.NoError(t, err)

	block := make([]float32, 64)
	for f := 0; f < 32; f++ {
		block[2*f] = 0.5
		block[2*f+1] = -0.5
	}
	g.Write(block, 2)

	left := make([]float32, 32)
	right := make([]float32, 32)
	mix := make([]float32, 32)
	g.Left.FloatTimeDomainData(left)
	g.Right.FloatTimeDomainData(right)
	g.Main.FloatTimeDomainData(mix)

	assert.Equal(t, float32(0.5), left[31])
	assert.Equal(t, float32(-0.5), right[31])
	assert.Equal(t, float32(0), mix[31])
}

func TestGraph_CloseIsSingleShot(t *testing.T) {
	g, err := NewGraph(DefaultGraphConfig())
	require.NoError(t, err)

	require.NoError(t, g.Close())
	assert.True(t, g.Closed())
	assert.ErrorIs(t, g.Close(), ErrGraphClosed)

	// Writes after close are ignored.
	g.Write([]float32{1, 1}, 2)
	out := make([]float32, 1024)
	g.Left.FloatTimeDomainData(out)
	assert.Zero(t, out[1023])
}

func TestNewGraph_InvalidConfig(t *testing.T) {
	cfg := DefaultGraphConfig()
	cfg.Channel.FFTSize = 100

	_, err := NewGraph(cfg)
	assert.ErrorIs(t, err, ErrInvalidFFTSize)
}
