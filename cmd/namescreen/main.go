package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/namescreen/namescreen/internal/config"
	"github.com/namescreen/namescreen/internal/db"
	dbMemory "github.com/namescreen/namescreen/internal/db/memory"
	dbRedis "github.com/namescreen/namescreen/internal/db/redis"
	"github.com/namescreen/namescreen/internal/domain"
	"github.com/namescreen/namescreen/internal/embed/ngram"
	logpkg "github.com/namescreen/namescreen/internal/logger"
	"github.com/namescreen/namescreen/internal/metrics"
	"github.com/namescreen/namescreen/internal/normalize"
	"github.com/namescreen/namescreen/internal/repository/embcache"
	entryrepo "github.com/namescreen/namescreen/internal/repository/entry"
	searchrepo "github.com/namescreen/namescreen/internal/repository/search"
	chiTransport "github.com/namescreen/namescreen/internal/transport/chi"
	openaiEmb "github.com/namescreen/namescreen/internal/transport/openai"
	healthuc "github.com/namescreen/namescreen/internal/usecase/health"
	ingestuc "github.com/namescreen/namescreen/internal/usecase/ingest"
	searchuc "github.com/namescreen/namescreen/internal/usecase/search"
	statsuc "github.com/namescreen/namescreen/internal/usecase/stats"
	"github.com/namescreen/namescreen/internal/version"
)

// maxRequestBytes bounds request bodies; batch ingestion payloads dominate.
const maxRequestBytes = 8 << 20

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

	logger.Info("Starting namescreen API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("vectorizer", cfg.Vectorizer.Provider),
	)

	// Create index store based on driver
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
		logger.Fatal("Failed to create index store", zap.Error(err))
	}
	defer store.Close()

	// Wait for the store to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Index store not ready", zap.Error(err))
	}
	logger.Info("Connected to index store")

	// Register domain metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()

	// Bootstrap the watchlist index
	if err := ensureIndex(ctx, store, cfg); err != nil {
		logger.Fatal("Failed to create index", zap.Error(err))
	}

	// Build embedder chain — composition root
	embedder, err := buildEmbedder(cfg, store, logger)
	if err != nil {
		logger.Fatal("Failed to create vectorizer", zap.Error(err))
	}
	logger.Info("Vectorizer created",
		zap.String("provider", cfg.Vectorizer.Provider),
		zap.String("model", cfg.Vectorizer.Model),
		zap.Int("dimensions", cfg.Vectorizer.Dimensions),
	)

	// Normalizer shared by ingestion and search
	norm := normalize.New()

	// Repositories
	entryRepo := entryrepo.New(store, cfg.Storage.KeyPrefix, cfg.Vectorizer.Dimensions)
	searchRepo := searchrepo.New(store, cfg.Index.Name, cfg.Storage.KeyPrefix)

	// Use case services
	searchSvc := searchuc.New(
		searchRepo, norm, embedder,
		time.Duration(cfg.Search.TimeoutMs)*time.Millisecond, logger,
	)
	ingestSvc := ingestuc.New(entryRepo, norm, embedder, logger)
	healthSvc := healthuc.New(store, embedder)
	statsSvc := statsuc.New(store, cfg.Index.Name, cfg.Vectorizer.Provider, cfg.Vectorizer.Dimensions)

	// Chi server
	server := chiTransport.NewServer(
		searchSvc, ingestSvc, healthSvc, statsSvc, norm, cfg.Index.MaxBatchSize, logger,
	)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestSize(maxRequestBytes))
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// ensureIndex creates the watchlist index if it does not exist yet.
func ensureIndex(ctx context.Context, store db.Store, cfg config.Config) error {
	def := &db.IndexDefinition{
		Name:     cfg.Index.Name,
		Prefixes: []string{cfg.Storage.KeyPrefix + "entry:"},
		Fields: []db.IndexField{
			{Name: db.FieldTokens, Type: db.IndexFieldText},
			{
				Name:              db.FieldVector,
				Type:              db.IndexFieldVector,
				VectorAlgo:        db.VectorHNSW,
				VectorDim:         cfg.Vectorizer.Dimensions,
				VectorDistance:    db.DistanceCosine,
				VectorM:           cfg.Index.HNSWM,
				VectorEFConstruct: cfg.Index.HNSWEFConstruct,
			},
		},
	}
	if err := store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return err
	}
	return nil
}

// buildEmbedder assembles the vectorizer chain: provider -> cache.
func buildEmbedder(cfg config.Config, store db.Store, logger *zap.Logger) (*embcache.CachedEmbedder, error) {
	var base domain.Embedder
	switch cfg.Vectorizer.Provider {
	case "openai":
		base = openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.Vectorizer.APIKey,
			BaseURL:    cfg.Vectorizer.BaseURL,
			Model:      cfg.Vectorizer.Model,
			Dimensions: cfg.Vectorizer.Dimensions,
			Provider:   cfg.Vectorizer.Provider,
			Logger:     logger,
		})
	case "ngram":
		e, err := ngram.New(cfg.Vectorizer.Dimensions)
		if err != nil {
			return nil, err
		}
		base = e
	default:
		return nil, fmt.Errorf("unknown vectorizer provider %q", cfg.Vectorizer.Provider)
	}

	return embcache.New(base, store, cfg.Storage.KeyPrefix, metrics.EmbeddingCacheTotal, logger), nil
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
