package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RMahshie/sonascope/internal/capture"
)

func TestLoad_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.Empty(t, cfg.Database.URL)
	assert.Equal(t, "s3", cfg.Storage.Backend)
	assert.Equal(t, SourceFFmpeg, cfg.Capture.Primary.Kind)
	assert.Equal(t, 48000, cfg.Capture.SampleRate)
	assert.Equal(t, 2048, cfg.Analysis.FFTSize)
	assert.InDelta(t, 0.85, cfg.Analysis.Smoothing, 1e-12)
	assert.Equal(t, 60, cfg.Render.FrameRate)
	assert.InDelta(t, -60.0, cfg.Render.MeterMinDB, 1e-12)
	assert.False(t, cfg.Theme.PrefersDark)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("PORT", "9090")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("CAPTURE_PRIMARY", "TONE")
	t.Setenv("FFT_SIZE", "4096")
	t.Setenv("THEME_PREFERS_DARK", "true")
	t.Setenv("STORAGE_BACKEND", "minio")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, SourceTone, cfg.Capture.Primary.Kind)
	assert.Equal(t, 4096, cfg.Analysis.FFTSize)
	assert.True(t, cfg.Theme.PrefersDark)
	assert.Equal(t, "minio", cfg.Storage.Backend)
}

func TestConfig_EngineConfig(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := Load()
	require.NoError(t, err)

	ec := cfg.EngineConfig()
	assert.Equal(t, 2048, ec.Graph.Main.FFTSize)
	assert.Equal(t, 1024, ec.Graph.Channel.FFTSize)
	assert.InDelta(t, 0.3, ec.Graph.Channel.Smoothing, 1e-12)
	assert.Equal(t, 800, ec.Spectrum.Width)
	assert.Equal(t, 60, ec.Meters.Height)
	assert.InDelta(t, 0.0, ec.Scale.MaxDB, 1e-12)
}

func TestConfig_Source(t *testing.T) {
	cfg := &Config{Capture: CaptureConfig{SampleRate: 44100, Channels: 2}}

	src, err := cfg.Source("display", SourceConfig{Kind: SourceFFmpeg, Format: "pulse", Input: "default.monitor"})
	require.NoError(t, err)
	assert.IsType(t, &capture.FFmpegSource{}, src)
	assert.Equal(t, "display", src.Name())

	src, err = cfg.Source("microphone", SourceConfig{Kind: SourceTone})
	require.NoError(t, err)
	assert.IsType(t, &capture.ToneSource{}, src)
	assert.Equal(t, "microphone", src.Name())

	src, err = cfg.Source("microphone", SourceConfig{Kind: SourceNone})
	require.NoError(t, err)
	assert.Nil(t, src)

	_, err = cfg.Source("x", SourceConfig{Kind: "alsa-direct"})
	assert.Error(t, err)
}
