package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Host modes.
const (
	HostBridge = "bridge"
	HostMemory = "memory"
)

const minCallTimeoutMS = 500

// Config holds all configuration for the tabkeeper daemon.
type Config struct {
	BindAddr         string
	PortCandidates   []string
	PortAutoFallback bool

	// Host selection
	Host          string
	MemoryFixture string
	CallTimeoutMS int

	// Logging
	LogLevel string
	LogFile  string

	// Browser launch
	LaunchBrowser bool
	ProfileDir    string
	ExtensionDir  string
	StartURL      string
}

// Load reads configuration from environment variables and optional .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	cfg := &Config{
		BindAddr: getEnvOrDefault("TABKEEPER_BIND_ADDR", "127.0.0.1:8189"),
		PortCandidates: getEnvListOrDefault("TABKEEPER_PORT_CANDIDATES",
			[]string{"127.0.0.1:8190", "127.0.0.1:8191", "127.0.0.1:8192"}),
		PortAutoFallback: getEnvBoolOrDefault("TABKEEPER_PORT_AUTO_FALLBACK", true),
		Host:             strings.ToLower(getEnvOrDefault("TABKEEPER_HOST", HostBridge)),
		MemoryFixture:    getEnvOrDefault("TABKEEPER_MEMORY_FIXTURE", ""),
		CallTimeoutMS:    getEnvIntOrDefault("TABKEEPER_CALL_TIMEOUT_MS", 5000),
		LogLevel:         strings.ToLower(getEnvOrDefault("TABKEEPER_LOG_LEVEL", "info")),
		LogFile:          getEnvOrDefault("TABKEEPER_LOG_FILE", "logs/tabkeeper.log"),
		LaunchBrowser:    getEnvBoolOrDefault("TABKEEPER_LAUNCH_BROWSER", false),
		ProfileDir:       getEnvOrDefault("TABKEEPER_PROFILE_DIR", "./browser_profile"),
		ExtensionDir:     getEnvOrDefault("TABKEEPER_EXTENSION_DIR", "./bridge_extension"),
		StartURL:         getEnvOrDefault("TABKEEPER_START_URL", "chrome://newtab/"),
	}
	if cfg.CallTimeoutMS < minCallTimeoutMS {
		cfg.CallTimeoutMS = minCallTimeoutMS
	}

	switch cfg.Host {
	case HostBridge, HostMemory:
	default:
		return nil, fmt.Errorf("config: TABKEEPER_HOST must be %q or %q, got %q", HostBridge, HostMemory, cfg.Host)
	}
	if cfg.LaunchBrowser && cfg.Host != HostBridge {
		return nil, fmt.Errorf("config: TABKEEPER_LAUNCH_BROWSER needs TABKEEPER_HOST=%s", HostBridge)
	}
	return cfg, nil
}

// BridgeURL returns the WebSocket URL the extension dials.
func (c *Config) BridgeURL() string {
	return "ws://" + c.BindAddr + "/bridge"
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvListOrDefault(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvBoolOrDefault(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}
