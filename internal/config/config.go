// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for all server and simulation settings.
//
// IMPORTANT: When changing values, only modify this file.
// All other parts of the codebase should reference these values.
package config

import (
	"os"
	"strconv"
	"strings"
)

// =============================================================================
// SIMULATION CONFIGURATION
// =============================================================================

// SimConfig holds match simulation settings shared by every run.
type SimConfig struct {
	TickDT       float64 // Fixed simulated timestep in seconds
	Duration     float64 // Full match length in simulated seconds
	EventLogDir  string  // Directory for per-match NDJSON event logs ("" = off)
	DefaultSkill int     // Average ability for generated squads
}

// DefaultSim returns the default simulation configuration.
func DefaultSim() SimConfig {
	return SimConfig{
		TickDT:       0.05,
		Duration:     3600, // 2 x 30 min
		EventLogDir:  "",
		DefaultSkill: 60,
	}
}

// SimFromEnv returns simulation configuration with environment variable
// overrides. Environment variables take precedence over defaults.
func SimFromEnv() SimConfig {
	cfg := DefaultSim()

	if dt := getEnvFloat("SIM_TICK_DT", 0); dt > 0 {
		cfg.TickDT = dt
	}
	if d := getEnvFloat("SIM_DURATION", 0); d > 0 {
		cfg.Duration = d
	}
	if dir := os.Getenv("SIM_EVENT_LOG_DIR"); dir != "" {
		cfg.EventLogDir = dir
	}
	if s := getEnvInt("SIM_DEFAULT_SKILL", 0); s > 0 {
		cfg.DefaultSkill = s
	}

	return cfg
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int
	MaxMatches     int // Concurrent running matches per process
	FrameWidth     int // Rendered frame width in pixels
	FrameHeight    int // Rendered frame height in pixels
	RequestsPerSec int // Per-IP API rate limit
	RequestBurst   int

	// AllowedOrigins is the browser origin allow-list, shared by CORS and the
	// websocket upgrade check. A trailing "*" matches as a prefix.
	AllowedOrigins []string
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:           3000,
		MaxMatches:     16,
		FrameWidth:     1280,
		FrameHeight:    720,
		RequestsPerSec: 20,
		RequestBurst:   40,
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
	}
}

// ServerFromEnv returns server configuration with environment variable overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if mm := getEnvInt("MAX_MATCHES", 0); mm > 0 {
		cfg.MaxMatches = mm
	}
	if w := getEnvInt("FRAME_WIDTH", 0); w > 0 {
		cfg.FrameWidth = w
	}
	if h := getEnvInt("FRAME_HEIGHT", 0); h > 0 {
		cfg.FrameHeight = h
	}
	if r := getEnvInt("API_RATE_LIMIT", 0); r > 0 {
		cfg.RequestsPerSec = r
		cfg.RequestBurst = 2 * r
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	return cfg
}

// =============================================================================
// OBSERVABILITY CONFIGURATION
// =============================================================================

// ObservabilityConfig holds the internal metrics endpoint settings.
type ObservabilityConfig struct {
	Enabled bool
	Port    int // Bound to localhost only
}

// DefaultObservability returns the default observability configuration.
func DefaultObservability() ObservabilityConfig {
	return ObservabilityConfig{
		Enabled: true,
		Port:    9090,
	}
}

// ObservabilityFromEnv returns observability configuration with environment
// variable overrides.
func ObservabilityFromEnv() ObservabilityConfig {
	cfg := DefaultObservability()

	if os.Getenv("METRICS_ENABLED") == "false" {
		cfg.Enabled = false
	}
	if p := getEnvInt("METRICS_PORT", 0); p > 0 {
		cfg.Port = p
	}

	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Sim           SimConfig
	Server        ServerConfig
	Observability ObservabilityConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Sim:           SimFromEnv(),
		Server:        ServerFromEnv(),
		Observability: ObservabilityFromEnv(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
