package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/aeo-labs/aeo-search/internal/cache"
	"github.com/aeo-labs/aeo-search/internal/config"
	"github.com/aeo-labs/aeo-search/internal/db"
	"github.com/aeo-labs/aeo-search/internal/httpapi"
	"github.com/aeo-labs/aeo-search/internal/search"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx := context.Background()

	// Initialize database (optional: the service answers queries without
	// history when Postgres is not configured)
	var dbClient *db.Client
	if cfg.Postgres.Enabled {
		dbClient, err = db.NewClient(&db.Config{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			Database: cfg.Postgres.Database,
			SSLMode:  cfg.Postgres.SSLMode,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer dbClient.Close()

		if err := dbClient.EnsureSchema(ctx); err != nil {
			logger.Error("Failed to initialize database schema, history disabled for this run", zap.Error(err))
		}
	} else {
		logger.Warn("POSTGRES_HOST not set, search history is disabled")
	}

	// Initialize response cache (optional)
	var responseCache *cache.ResponseCache
	if cfg.Redis.URL != "" {
		responseCache, err = cache.New(cfg.Redis.URL, cfg.Redis.TTL, logger)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer responseCache.Close()
	}

	// Build the search pipeline
	fetcher := search.NewFetcher(search.FetcherConfig{
		APIKey:   cfg.BrightData.APIKey,
		Zone:     cfg.BrightData.Zone,
		Endpoint: cfg.BrightData.Endpoint,
		Timeout:  cfg.BrightData.Timeout,
	}, logger)
	if !fetcher.Configured() {
		logger.Warn("BRIGHTDATA_API_KEY not set, search requests will fail until configured")
	}

	synthesizer := search.NewSynthesizer(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.Timeout, logger)

	var history search.HistoryWriter
	if dbClient != nil {
		history = &historyBridge{db: dbClient}
	}
	var respCache search.ResponseCache
	if responseCache != nil {
		respCache = responseCache
	}

	orchestrator := search.NewOrchestrator(
		fetcher,
		search.NewExtractor(),
		synthesizer,
		history,
		respCache,
		logger,
	)

	// Create handlers
	searchHandler := httpapi.NewSearchHandler(orchestrator, logger)
	var historyStore httpapi.HistoryLister
	if dbClient != nil {
		historyStore = dbClient
	}
	historyHandler := httpapi.NewHistoryHandler(historyStore, logger)
	var dbPinger, cachePinger httpapi.Pinger
	if dbClient != nil {
		dbPinger = dbClient
	}
	if responseCache != nil {
		cachePinger = responseCache
	}
	healthHandler := httpapi.NewHealthHandler(dbPinger, cachePinger, logger)

	// Setup HTTP mux
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /api/search", searchHandler.Search)
	mux.HandleFunc("GET /api/history", historyHandler.List)

	// CORS middleware for all routes (development friendly)
	handler := corsMiddleware(mux)

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("Search API starting", zap.Int("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Search API shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Search API stopped")
}

// historyBridge adapts the database client's async queue to the
// orchestrator's fire-and-forget history contract.
type historyBridge struct {
	db *db.Client
}

func (b *historyBridge) WriteSearchHistory(rec search.HistoryRecord) {
	b.db.QueueSearchHistory(&db.SearchHistory{
		Query:     rec.Query,
		Response:  rec.Answer,
		Citations: pq.StringArray(rec.CitationURLs),
	})
}

// corsMiddleware adds CORS headers for development
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
