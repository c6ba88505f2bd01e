package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/rooibos-labs/corpsearch/internal/cache"
	"github.com/rooibos-labs/corpsearch/internal/config"
	"github.com/rooibos-labs/corpsearch/internal/domain/search/request"
	logpkg "github.com/rooibos-labs/corpsearch/internal/logger"
	"github.com/rooibos-labs/corpsearch/internal/metrics"
	memrepo "github.com/rooibos-labs/corpsearch/internal/repository/memory"
	pgrepo "github.com/rooibos-labs/corpsearch/internal/repository/postgres"
	sqliterepo "github.com/rooibos-labs/corpsearch/internal/repository/sqlite"
	chiTransport "github.com/rooibos-labs/corpsearch/internal/transport/chi"
	"github.com/rooibos-labs/corpsearch/internal/transport/naver"
	healthuc "github.com/rooibos-labs/corpsearch/internal/usecase/health"
	searchuc "github.com/rooibos-labs/corpsearch/internal/usecase/search"
	"github.com/rooibos-labs/corpsearch/internal/version"
)

// dataset is what the composition root needs from a company directory:
// the search reads plus the health ping.
type dataset interface {
	searchuc.Dataset
	healthuc.DatasetPinger
}

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting corpsearch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("cache_driver", cfg.Cache.Driver),
	)

	ctx := context.Background()

	// Company dataset and bookmark store based on driver
	var (
		data      dataset
		bookmarks searchuc.BookmarkReader
	)
	switch cfg.Database.Driver {
	case "memory":
		var repo *memrepo.Repo
		if cfg.Database.DataPath != "" {
			repo, err = memrepo.Load(cfg.Database.DataPath)
			if err != nil {
				logger.Fatal("Failed to load dataset", zap.Error(err))
			}
		} else {
			repo = memrepo.New(nil, nil)
		}
		data = repo
		bookmarks = memrepo.NewBookmarks(nil)
	case "sqlite":
		repo, oerr := sqliterepo.Open(cfg.Database.DSN)
		if oerr != nil {
			logger.Fatal("Failed to open sqlite dataset", zap.Error(oerr))
		}
		defer repo.Close()
		data = repo
		bookmarks = memrepo.NewBookmarks(nil)
	case "postgres":
		connectCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second)
		repo, cerr := pgrepo.Connect(connectCtx, cfg.Database.DSN)
		cancel()
		if cerr != nil {
			logger.Fatal("Failed to connect to postgres", zap.Error(cerr))
		}
		defer repo.Close()
		data = repo
		bookmarks = repo
	default:
		logger.Fatal("Unknown database driver", zap.String("driver", cfg.Database.Driver))
	}

	readyCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second)
	if err := data.Ping(readyCtx); err != nil {
		cancel()
		logger.Fatal("Dataset not ready", zap.Error(err))
	}
	cancel()
	logger.Info("Connected to dataset")

	// Result cache based on driver. Pass nil interface (not typed nil
	// pointer!) when caching is disabled.
	var (
		resultCache searchuc.Cache
		cachePinger healthuc.CachePinger
	)
	switch cfg.Cache.Driver {
	case "none":
	case "memory":
		mem, merr := cache.NewMemory(cache.MemoryConfig{
			MaxEntries: int64(cfg.Cache.MaxEntries),
			TTL:        time.Duration(cfg.Cache.TTLSec) * time.Second,
		})
		if merr != nil {
			logger.Fatal("Failed to create result cache", zap.Error(merr))
		}
		defer mem.Close()
		resultCache = mem
		cachePinger = mem
	case "redis":
		rd, rerr := cache.NewRedis(cache.RedisConfig{
			Addrs:     cfg.Cache.Addrs,
			Username:  cfg.Cache.Username,
			Password:  cfg.Cache.Password,
			KeyPrefix: cfg.Cache.KeyPrefix,
			TTL:       time.Duration(cfg.Cache.TTLSec) * time.Second,
		})
		if rerr != nil {
			logger.Fatal("Failed to connect to redis cache", zap.Error(rerr))
		}
		defer rd.Close()
		resultCache = rd
		cachePinger = rd
	default:
		logger.Fatal("Unknown cache driver", zap.String("driver", cfg.Cache.Driver))
	}

	// Geocoder is optional; location queries fail with LocationNotFound
	// when it is not configured.
	var geocoder searchuc.Geocoder
	if cfg.Geocoder.BaseURL != "" {
		geocoder = naver.NewClient(naver.Config{
			BaseURL: cfg.Geocoder.BaseURL,
			KeyID:   cfg.Geocoder.KeyID,
			Key:     cfg.Geocoder.Key,
			Timeout: time.Duration(cfg.Geocoder.TimeoutSec) * time.Second,
			Logger:  logger,
		})
		logger.Info("Geocoder configured", zap.String("base_url", cfg.Geocoder.BaseURL))
	}

	// Register search metrics explicitly (no init())
	metrics.RegisterSearchMetrics()

	searchSvc := searchuc.New(data, geocoder, resultCache, bookmarks, logger)
	healthSvc := healthuc.New(data, cachePinger)

	limits := request.Limits{
		DefaultPageSize:     cfg.Search.DefaultPageSize,
		MaxPageSize:         cfg.Search.MaxPageSize,
		DefaultRadiusMeters: cfg.Search.DefaultRadiusMeters,
	}
	server := chiTransport.NewServer(searchSvc, healthSvc, limits, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

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

	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second,
	)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
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
					_ = json.NewEncoder(w).Encode(map[string]any{
						"success": false,
						"error":   "InternalError",
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
