package config

import (
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Storage  StorageConfig
	Capture  CaptureConfig
	Analysis AnalysisConfig
	Render   RenderConfig
	Theme    ThemeConfig
}

// DatabaseConfig holds database configuration. An empty URL keeps
// preferences in memory.
type DatabaseConfig struct {
	URL string
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           string
	Env            string
	AllowedOrigins []string
}

// StorageConfig holds snapshot storage configuration
type StorageConfig struct {
	Backend         string // s3 or minio
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Endpoint        string
	UseSSL          bool
}

// SourceConfig describes one capture source
type SourceConfig struct {
	Kind   string // ffmpeg, tone or none
	Format string
	Input  string
}

// CaptureConfig holds capture configuration
type CaptureConfig struct {
	Primary    SourceConfig
	Fallback   SourceConfig
	FFmpegCmd  string
	FFprobeCmd string
	SampleRate int
	Channels   int
}

// AnalysisConfig sizes the analysers
type AnalysisConfig struct {
	FFTSize          int
	ChannelFFTSize   int
	Smoothing        float64
	ChannelSmoothing float64
}

// RenderConfig holds frame rate, surface sizes and the meter window
type RenderConfig struct {
	FrameRate      int
	ScopeWidth     int
	ScopeHeight    int
	SpectrumWidth  int
	SpectrumHeight int
	MeterWidth     int
	MeterHeight    int
	MeterMinDB     float64
	MeterMaxDB     float64
}

// ThemeConfig holds the system theme preference
type ThemeConfig struct {
	PrefersDark bool
}

var keys = []string{
	"DATABASE_URL", "PORT", "ENVIRONMENT", "ALLOWED_ORIGINS",
	"STORAGE_BACKEND", "AWS_REGION", "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY",
	"S3_BUCKET", "S3_ENDPOINT", "S3_USE_SSL",
	"CAPTURE_PRIMARY", "CAPTURE_PRIMARY_FORMAT", "CAPTURE_PRIMARY_INPUT",
	"CAPTURE_FALLBACK", "CAPTURE_FALLBACK_FORMAT", "CAPTURE_FALLBACK_INPUT",
	"FFMPEG_CMD", "FFPROBE_CMD", "SAMPLE_RATE", "CHANNELS",
	"FFT_SIZE", "CHANNEL_FFT_SIZE", "SMOOTHING", "CHANNEL_SMOOTHING",
	"FRAME_RATE", "SCOPE_WIDTH", "SCOPE_HEIGHT", "SPECTRUM_WIDTH", "SPECTRUM_HEIGHT",
	"METER_WIDTH", "METER_HEIGHT", "METER_MIN_DB", "METER_MAX_DB",
	"THEME_PREFERS_DARK",
}

// Load loads configuration from environment variables and .env files
func Load() (*Config, error) {
	// Set defaults
	viper.SetDefault("DATABASE_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "dev")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")
	viper.SetDefault("STORAGE_BACKEND", "s3")
	viper.SetDefault("AWS_REGION", "us-east-1")
	viper.SetDefault("AWS_ACCESS_KEY_ID", "")
	viper.SetDefault("AWS_SECRET_ACCESS_KEY", "")
	viper.SetDefault("S3_BUCKET", "")
	viper.SetDefault("S3_ENDPOINT", "")
	viper.SetDefault("S3_USE_SSL", false)

	viper.SetDefault("CAPTURE_PRIMARY", "ffmpeg")
	viper.SetDefault("CAPTURE_PRIMARY_FORMAT", "pulse")
	viper.SetDefault("CAPTURE_PRIMARY_INPUT", "default.monitor")
	viper.SetDefault("CAPTURE_FALLBACK", "ffmpeg")
	viper.SetDefault("CAPTURE_FALLBACK_FORMAT", "pulse")
	viper.SetDefault("CAPTURE_FALLBACK_INPUT", "default")
	viper.SetDefault("FFMPEG_CMD", "ffmpeg")
	viper.SetDefault("FFPROBE_CMD", "ffprobe")
	viper.SetDefault("SAMPLE_RATE", 48000)
	viper.SetDefault("CHANNELS", 2)

	viper.SetDefault("FFT_SIZE", 2048)
	viper.SetDefault("CHANNEL_FFT_SIZE", 1024)
	viper.SetDefault("SMOOTHING", 0.85)
	viper.SetDefault("CHANNEL_SMOOTHING", 0.3)

	viper.SetDefault("FRAME_RATE", 60)
	viper.SetDefault("SCOPE_WIDTH", 800)
	viper.SetDefault("SCOPE_HEIGHT", 200)
	viper.SetDefault("SPECTRUM_WIDTH", 800)
	viper.SetDefault("SPECTRUM_HEIGHT", 300)
	viper.SetDefault("METER_WIDTH", 320)
	viper.SetDefault("METER_HEIGHT", 60)
	viper.SetDefault("METER_MIN_DB", -60.0)
	viper.SetDefault("METER_MAX_DB", 0.0)

	viper.SetDefault("THEME_PREFERS_DARK", false)

	// Read from .env files based on environment
	env := viper.GetString("ENVIRONMENT")
	if env == "" {
		env = "dev"
	}

	viper.SetConfigName(".env." + env)
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	_ = viper.ReadInConfig() // file may not exist

	// Environment variables override .env file values
	viper.AutomaticEnv()
	for _, key := range keys {
		_ = viper.BindEnv(key)
	}

	var config Config
	config.Database.URL = viper.GetString("DATABASE_URL")
	config.Server.Port = viper.GetString("PORT")
	config.Server.Env = viper.GetString("ENVIRONMENT")
	config.Server.AllowedOrigins = splitList(viper.GetString("ALLOWED_ORIGINS"))

	config.Storage.Backend = strings.ToLower(viper.GetString("STORAGE_BACKEND"))
	config.Storage.Region = viper.GetString("AWS_REGION")
	config.Storage.AccessKeyID = viper.GetString("AWS_ACCESS_KEY_ID")
	config.Storage.SecretAccessKey = viper.GetString("AWS_SECRET_ACCESS_KEY")
	config.Storage.Bucket = viper.GetString("S3_BUCKET")
	config.Storage.Endpoint = viper.GetString("S3_ENDPOINT")
	config.Storage.UseSSL = viper.GetBool("S3_USE_SSL")

	config.Capture.Primary = SourceConfig{
		Kind:   strings.ToLower(viper.GetString("CAPTURE_PRIMARY")),
		Format: viper.GetString("CAPTURE_PRIMARY_FORMAT"),
		Input:  viper.GetString("CAPTURE_PRIMARY_INPUT"),
	}
	config.Capture.Fallback = SourceConfig{
		Kind:   strings.ToLower(viper.GetString("CAPTURE_FALLBACK")),
		Format: viper.GetString("CAPTURE_FALLBACK_FORMAT"),
		Input:  viper.GetString("CAPTURE_FALLBACK_INPUT"),
	}
	config.Capture.FFmpegCmd = viper.GetString("FFMPEG_CMD")
	config.Capture.FFprobeCmd = viper.GetString("FFPROBE_CMD")
	config.Capture.SampleRate = viper.GetInt("SAMPLE_RATE")
	config.Capture.Channels = viper.GetInt("CHANNELS")

	config.Analysis.FFTSize = viper.GetInt("FFT_SIZE")
	config.Analysis.ChannelFFTSize = viper.GetInt("CHANNEL_FFT_SIZE")
	config.Analysis.Smoothing = viper.GetFloat64("SMOOTHING")
	config.Analysis.ChannelSmoothing = viper.GetFloat64("CHANNEL_SMOOTHING")

	config.Render.FrameRate = viper.GetInt("FRAME_RATE")
	config.Render.ScopeWidth = viper.GetInt("SCOPE_WIDTH")
	config.Render.ScopeHeight = viper.GetInt("SCOPE_HEIGHT")
	config.Render.SpectrumWidth = viper.GetInt("SPECTRUM_WIDTH")
	config.Render.SpectrumHeight = viper.GetInt("SPECTRUM_HEIGHT")
	config.Render.MeterWidth = viper.GetInt("METER_WIDTH")
	config.Render.MeterHeight = viper.GetInt("METER_HEIGHT")
	config.Render.MeterMinDB = viper.GetFloat64("METER_MIN_DB")
	config.Render.MeterMaxDB = viper.GetFloat64("METER_MAX_DB")

	config.Theme.PrefersDark = viper.GetBool("THEME_PREFERS_DARK")

	log.Debug().
		Strs("allowed_origins", config.Server.AllowedOrigins).
		Str("primary", config.Capture.Primary.Kind).
		Str("fallback", config.Capture.Fallback.Kind).
		Str("storage", config.Storage.Backend).
		Msg("Configuration loaded")

	return &config, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
