package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/cryptofolio/src/config"
	"github.com/username/cryptofolio/src/database"
	"github.com/username/cryptofolio/src/handlers"
	"github.com/username/cryptofolio/src/logger"
	"github.com/username/cryptofolio/src/parsers"
	"github.com/username/cryptofolio/src/processors"
	"github.com/username/cryptofolio/src/services"
	"golang.org/x/time/rate"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if origin == config.Cfg.AllowedOrigin {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Requested-With, If-None-Match")
			w.Header().Set("Access-Control-Expose-Headers", "ETag")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			logger.L.Debug("Handling OPTIONS preflight request", "path", r.URL.Path, "origin", origin)
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Cryptofolio backend server starting...")

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	logger.L.Info("Database initialized successfully.")

	logger.L.Info("Initializing report cache...")
	reportCache := cache.New(services.DefaultCacheExpiration, services.CacheCleanupInterval)
	logger.L.Info("Report cache initialized.")

	sellPolicy := processors.SellClamp
	if config.Cfg.AllowNegativeSells {
		sellPolicy = processors.SellAllowNegative
	}

	logger.L.Info("Initializing services and handlers...")
	portfolioService := services.NewPortfolioService(reportCache, sellPolicy)
	importService := services.NewImportService(portfolioService)
	checkpointService := services.NewCheckpointService(portfolioService)

	uploadHandler := handlers.NewUploadHandler(importService)
	portfolioHandler := handlers.NewPortfolioHandler(portfolioService)
	txHandler := handlers.NewTransactionHandler(portfolioService)
	checkpointHandler := handlers.NewCheckpointHandler(checkpointService)

	logger.L.Info("Importing trade-history files from data directories...")
	if _, err := importService.ImportDirectory(config.Cfg.GMODataDir, parsers.SourceGMO); err != nil {
		logger.L.Error("Failed to import GMO data directory", "dir", config.Cfg.GMODataDir, "error", err)
	}
	if _, err := importService.ImportDirectory(config.Cfg.MercariDataDir, parsers.SourceMercari); err != nil {
		logger.L.Error("Failed to import Mercari data directory", "dir", config.Cfg.MercariDataDir, "error", err)
	}

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	apiRouter.HandleFunc("POST /api/upload", uploadHandler.HandleUpload)
	apiRouter.HandleFunc("POST /api/portfolio/analysis", portfolioHandler.HandleAnalyze)
	apiRouter.HandleFunc("GET /api/portfolio/yearly-profit", portfolioHandler.HandleYearlyProfit)
	apiRouter.HandleFunc("GET /api/portfolio/distribution", portfolioHandler.HandleDistribution)
	apiRouter.HandleFunc("POST /api/portfolio/scenario", portfolioHandler.HandleScenario)
	apiRouter.HandleFunc("GET /api/meta/years", portfolioHandler.HandleGetYears)
	apiRouter.HandleFunc("GET /api/meta/coins", portfolioHandler.HandleGetCoins)
	apiRouter.HandleFunc("GET /api/transactions", txHandler.HandleGetTransactions)
	apiRouter.HandleFunc("DELETE /api/transactions/all", txHandler.HandleDeleteAllTransactions)
	apiRouter.HandleFunc("POST /api/checkpoints", checkpointHandler.HandleSaveCheckpoint)
	apiRouter.HandleFunc("GET /api/checkpoints", checkpointHandler.HandleGetCheckpoints)

	rootMux.Handle("/api/", apiRouter)

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"message": "Cryptofolio backend is running"})
		} else {
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				logger.L.Warn("Root level path not found", "method", r.Method, "path", r.URL.Path)
				http.NotFound(w, r)
			}
		}
	})

	logger.L.Info("Applying global middleware...")
	finalHandler := enableCORS(rateLimitMiddleware(rootMux))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}
