package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"handsim/internal/api"
	"handsim/internal/config"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env file from parent directory
	if err := godotenv.Load("../.env"); err != nil {
		// Try current directory as fallback
		if err := godotenv.Load(".env"); err != nil {
			log.Println("💡 No .env file found, using environment variables only")
		}
	} else {
		log.Println("✅ Loaded environment from ../.env")
	}

	log.Println("🤾 ================================")
	log.Println("🤾  HANDSIM - MATCH SERVER")
	log.Println("🤾 ================================")

	// Load centralized configuration (SSOT - Single Source of Truth)
	appConfig := config.Load()
	serverCfg := appConfig.Server
	simCfg := appConfig.Sim

	log.Printf("⚙️ Sim: dt=%.3fs, duration=%.0fs, max %d concurrent matches",
		simCfg.TickDT, simCfg.Duration, serverCfg.MaxMatches)
	if simCfg.EventLogDir != "" {
		log.Printf("📝 Event logs: %s", simCfg.EventLogDir)
	}

	// Start debug server
	debugCfg := api.DefaultObservabilityConfig()
	debugCfg.Enabled = appConfig.Observability.Enabled
	debugCfg.ListenAddr = "127.0.0.1:" + strconv.Itoa(appConfig.Observability.Port)
	if os.Getenv("DISABLE_DEBUG_SERVER") != "true" {
		if err := api.StartDebugServer(debugCfg); err != nil {
			log.Printf("⚠️ Debug server disabled: %v", err)
		}
	}

	registry := api.NewRegistry(serverCfg.MaxMatches)
	server := api.NewServer(registry, appConfig)

	// Start API server in goroutine
	addr := fmt.Sprintf(":%d", serverCfg.Port)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(addr)
	}()

	// Wait for shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Server ready! Press Ctrl+C to stop.")
	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
		return
	}

	log.Println("🛑 Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("⚠️ Shutdown error: %v", err)
	}

	// Cancel every running match so event logs flush.
	for _, entry := range registry.List() {
		entry.Cancel()
	}
	server.Stop()
	log.Println("👋 Goodbye!")
}
