package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	crr "github.com/jwaldner/crr/crr_lib"
	"github.com/jwaldner/crr/internal/config"
	"github.com/jwaldner/crr/internal/handlers"
	"github.com/jwaldner/crr/internal/logger"
	"github.com/jwaldner/crr/internal/metrics"
	"github.com/jwaldner/crr/internal/services"

	"github.com/gorilla/mux"
)

func main() {
	cfg := config.Load()

	// Initialize proper logging with config level and file path
	if err := logger.InitWithConfig(cfg.Logging.LogLevel, cfg.Logging.LogFile); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	logger.Always.Printf("🚀 CRR lattice pricer starting - Port: %s", cfg.Port)

	if cfg.Logging.LogLevel == "verbose" {
		fmt.Printf("⚠️  VERBOSE LOGGING ENABLED - every request will be logged to %s\n", cfg.Logging.LogFile)
	}

	m := metrics.New()

	opts := cfg.EngineOptions()
	opts.Observer = m
	engine := crr.NewEngine(opts)

	logger.Always.Printf("🔧 EXECUTION MODE: %s (%d workers, default N=%d, max N=%d)",
		engine.ExecutionMode(), engine.Workers(), engine.DefaultSteps(), cfg.Engine.MaxSteps)
	if cfg.Greeks.MinAbsoluteStep > 0 {
		logger.Always.Printf("📐 GREEKS: relative step %g, minimum absolute step %g", cfg.Greeks.RelativeStep, cfg.Greeks.MinAbsoluteStep)
	} else {
		logger.Always.Printf("📐 GREEKS: relative step %g, zero r or σ is rejected", cfg.Greeks.RelativeStep)
	}

	pricingHandler := handlers.NewPricingHandler(engine, services.NewRequestService(cfg.Engine.MaxBatchSize), m)

	// Setup router
	r := mux.NewRouter()
	pricingHandler.RegisterRoutes(r)

	// Start server
	fmt.Printf("🌐 Server starting on http://localhost:%s\n", cfg.Port)
	logger.Always.Printf("🌐 Server starting on http://localhost:%s", cfg.Port)
	logger.Info.Printf("🌐 HTTP server started on port %s", cfg.Port)

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal("Server failed to start:", err)
	}
}
