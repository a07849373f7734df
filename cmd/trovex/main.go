package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/trovex/internal/config"
	"github.com/kailas-cloud/trovex/internal/db"
	dbMemory "github.com/kailas-cloud/trovex/internal/db/memory"
	dbRedis "github.com/kailas-cloud/trovex/internal/db/redis"
	logpkg "github.com/kailas-cloud/trovex/internal/logger"
	"github.com/kailas-cloud/trovex/internal/metrics"
	"github.com/kailas-cloud/trovex/internal/ratelimit"
	archiverepo "github.com/kailas-cloud/trovex/internal/repository/archive"
	deduprepo "github.com/kailas-cloud/trovex/internal/repository/dedup"
	feedbackrepo "github.com/kailas-cloud/trovex/internal/repository/feedback"
	"github.com/kailas-cloud/trovex/internal/transport/brave"
	chiTransport "github.com/kailas-cloud/trovex/internal/transport/chi"
	openaiSum "github.com/kailas-cloud/trovex/internal/transport/openai"
	"github.com/kailas-cloud/trovex/internal/transport/searxng"
	"github.com/kailas-cloud/trovex/internal/transport/tavily"
	admissionuc "github.com/kailas-cloud/trovex/internal/usecase/admission"
	aggregateuc "github.com/kailas-cloud/trovex/internal/usecase/aggregate"
	feedbackuc "github.com/kailas-cloud/trovex/internal/usecase/feedback"
	healthuc "github.com/kailas-cloud/trovex/internal/usecase/health"
	"github.com/kailas-cloud/trovex/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting trovex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	// Create database store based on driver
	var store db.Store
	switch cfg.Database.Driver {
	case "redis":
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
	case "memory":
		store = dbMemory.NewStore()
	default:
		logger.Fatal("Unknown database driver", zap.String("driver", cfg.Database.Driver))
	}
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register aggregation metrics explicitly (no init())
	metrics.RegisterBackendMetrics()

	// Build search backends — composition root
	backends, limiters := buildBackends(cfg, logger)
	if len(backends) == 0 {
		logger.Fatal("No usable search backends (check enabled flags and api keys)")
	}
	names := make([]string, 0, len(backends))
	for _, b := range backends {
		names = append(names, b.Name())
	}
	sort.Strings(names)
	logger.Info("Search backends ready", zap.Strings("engines", names))

	// Optional LLM summary provider
	var summarizer *openaiSum.Summarizer
	if cfg.Summary.Provider != "" && cfg.Summary.APIKey != "" {
		summarizer = openaiSum.NewSummarizer(&openaiSum.Config{
			APIKey:   cfg.Summary.APIKey,
			BaseURL:  cfg.Summary.BaseURL,
			Model:    cfg.Summary.Model,
			Provider: cfg.Summary.Provider,
			Logger:   logger,
		})
		logger.Info("Summary provider created",
			zap.String("provider", cfg.Summary.Provider),
			zap.String("model", cfg.Summary.Model),
		)
	}

	// Create repositories (domain-native, no adapters)
	feedbackRepo := feedbackrepo.New(store)
	historyRepo := deduprepo.New(store)
	archiveRepo := archiverepo.New(store)

	// Create use case services
	aggSvc := aggregateuc.New(backends, limiters, feedbackRepo, summarizerOrNil(summarizer),
		aggregateuc.Config{
			Timeout:           time.Duration(cfg.Aggregation.RequestTimeoutSec) * time.Second,
			DomainCap:         cfg.Aggregation.DomainCap,
			PerBackendResults: cfg.Aggregation.PerBackendResults,
		}, logger)
	admSvc := admissionuc.New(historyRepo, archiveRepo, cfg.Aggregation.AdmissionThreshold, logger)
	fbSvc := feedbackuc.New(feedbackRepo)

	var summaryChecker healthuc.SummaryChecker
	if summarizer != nil {
		summaryChecker = summarizer
	}
	healthSvc := healthuc.New(store, summaryChecker, names)

	// Create chi server
	server := chiTransport.NewServer(aggSvc, admSvc, fbSvc, healthSvc, chiTransport.Defaults{
		MaxSources:     cfg.Aggregation.MaxSources,
		MinCredibility: cfg.Aggregation.MinCredibility,
	}, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Mount(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildBackends constructs every enabled backend that has the credentials it
// needs, plus its rate limiter. Keyed backends without a key are skipped with
// a warning rather than failing startup.
func buildBackends(cfg config.Config, logger *zap.Logger) ([]aggregateuc.Backend, map[string]aggregateuc.Limiter) {
	var backends []aggregateuc.Backend
	limiters := make(map[string]aggregateuc.Limiter)

	for name, bc := range cfg.Backends {
		if !bc.Enabled {
			continue
		}

		var backend aggregateuc.Backend
		switch name {
		case "brave":
			if bc.APIKey == "" {
				logger.Warn("Skipping backend without api key", zap.String("engine", name))
				continue
			}
			backend = brave.New(brave.Config{
				APIKey:  bc.APIKey,
				BaseURL: bc.BaseURL,
				Weight:  bc.Weight,
				Logger:  logger,
			})
		case "tavily":
			if bc.APIKey == "" {
				logger.Warn("Skipping backend without api key", zap.String("engine", name))
				continue
			}
			backend = tavily.New(tavily.Config{
				APIKey:  bc.APIKey,
				BaseURL: bc.BaseURL,
				Weight:  bc.Weight,
				Logger:  logger,
			})
		case "searxng":
			if bc.BaseURL == "" {
				logger.Warn("Skipping searxng without base url")
				continue
			}
			backend = searxng.New(searxng.Config{
				BaseURL: bc.BaseURL,
				Weight:  bc.Weight,
				Logger:  logger,
			})
		default:
			continue
		}

		backends = append(backends, backend)
		if bc.RatePerSec > 0 {
			limiters[name] = ratelimit.NewBucket(bc.RatePerSec, bc.Burst)
		}
	}

	return backends, limiters
}

// summarizerOrNil avoids handing a typed nil pointer to the aggregate service.
func summarizerOrNil(s *openaiSum.Summarizer) aggregateuc.Summarizer {
	if s == nil {
		return nil
	}
	return s
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
