package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/sonascope/internal/api"
	"github.com/RMahshie/sonascope/internal/config"
	"github.com/RMahshie/sonascope/internal/pipeline"
	"github.com/RMahshie/sonascope/internal/processing"
	"github.com/RMahshie/sonascope/internal/repository"
	"github.com/RMahshie/sonascope/internal/repository/memory"
	"github.com/RMahshie/sonascope/internal/repository/postgres"
	"github.com/RMahshie/sonascope/internal/storage"
	"github.com/RMahshie/sonascope/internal/theme"
	"github.com/RMahshie/sonascope/pkg/models"
)

const version = "1.0.0"

func main() {
	// Configure zerolog for structured logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if cfg.Server.Env == "prod" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx := context.Background()

	// Preferences
	prefs, closeDB, err := openPreferences(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open preference store")
	}
	defer closeDB()

	themes := theme.NewService(prefs, cfg.Theme.PrefersDark)
	if active, err := themes.Load(ctx); err != nil {
		log.Warn().Err(err).Msg("Using default theme")
	} else {
		log.Info().Str("theme", active.String()).Msg("Theme loaded")
	}

	// Render pipeline
	frames := pipeline.NewFrameStore()
	engine, err := pipeline.NewEngine(cfg.EngineConfig(), pipeline.NewTickerClock(cfg.Render.FrameRate), frames, themes)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create render engine")
	}

	// Capture sources
	primary, err := cfg.Source("display", cfg.Capture.Primary)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid primary capture source")
	}
	if primary == nil {
		log.Fatal().Msg("A primary capture source is required")
	}
	fallback, err := cfg.Source("microphone", cfg.Capture.Fallback)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid fallback capture source")
	}
	captureSvc := processing.NewCaptureService(primary, fallback, engine)

	// Snapshot storage is optional
	var snapshots processing.SnapshotService
	if store, err := openSnapshotStore(ctx, cfg.Storage); err != nil {
		log.Warn().Err(err).Msg("Snapshot storage unavailable")
	} else if store != nil {
		snapshots = processing.NewSnapshotService(store, frames)
	}

	// Create Chi router
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(zerologLogger())
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Frame-Seq"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	router.Use(middleware.Compress(5, "application/json"))

	// Create Huma API
	humaConfig := huma.DefaultConfig("Sonascope API", version)
	humaConfig.DocsPath = "/api/docs"
	humaAPI := humachi.New(router, humaConfig)

	// Register health endpoint
	huma.Register(humaAPI, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns the health status of the service",
	}, func(ctx context.Context, input *struct{}) (*models.HealthResponse, error) {
		resp := &models.HealthResponse{}
		resp.Body.Status = "healthy"
		resp.Body.Version = version
		resp.Body.Time = time.Now()
		resp.Body.Capturing = captureSvc.Status().Capturing
		return resp, nil
	})

	api.RegisterRoutes(humaAPI, api.Services{
		Capture:   captureSvc,
		Snapshots: snapshots,
		Frames:    frames,
		Theme:     themes,
	})

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Starting Sonascope API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	captureSvc.Stop()
	log.Info().Msg("Server exited")
}

// openPreferences connects to PostgreSQL when url is set, otherwise keeps
// preferences in memory for the life of the process.
func openPreferences(ctx context.Context, url string) (repository.PreferenceRepository, func(), error) {
	if url == "" {
		log.Info().Msg("DATABASE_URL not set, theme preference kept in memory")
		return memory.NewPreferenceRepository(), func() {}, nil
	}

	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, err
	}
	if err := postgres.Migrate(pingCtx, db); err != nil {
		db.Close()
		return nil, nil, err
	}

	log.Info().Msg("Connected to PostgreSQL")
	return postgres.NewPostgresPreferenceRepository(db), func() { db.Close() }, nil
}

// openSnapshotStore returns nil when no bucket is configured.
func openSnapshotStore(ctx context.Context, cfg config.StorageConfig) (storage.SnapshotStore, error) {
	if cfg.Bucket == "" {
		log.Info().Msg("S3_BUCKET not set, snapshots disabled")
		return nil, nil
	}

	s3cfg := storage.S3Config{
		Bucket:    cfg.Bucket,
		Endpoint:  cfg.Endpoint,
		Region:    cfg.Region,
		AccessKey: cfg.AccessKeyID,
		SecretKey: cfg.SecretAccessKey,
		UseSSL:    cfg.UseSSL,
	}

	if cfg.Backend == "minio" {
		return storage.NewMinioService(ctx, s3cfg)
	}
	return storage.NewS3Service(ctx, s3cfg)
}

// zerologLogger returns a Chi middleware that logs HTTP requests using zerolog
func zerologLogger() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				log.Info().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Str("remote_ip", r.RemoteAddr).
					Str("request_id", middleware.GetReqID(r.Context())).
					Int("status", ww.Status()).
					Dur("latency", time.Since(start)).
					Str("user_agent", r.UserAgent()).
					Msg("HTTP request")
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
