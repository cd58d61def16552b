package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix prefixes the rate limit environment variables.
const EnvPrefix = "PROFILE_AUDITOR_RATE_LIMIT_"

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern; a trailing "/" matches by prefix
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	// IdleTTL is how long an unused bucket is kept before cleanup drops it.
	IdleTTL         time.Duration
	Allowlist       map[string]bool
	Denylist        map[string]bool
	EndpointConfigs []EndpointConfig
}

// DefaultConfig returns the limits used when nothing is configured.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		DefaultLimit:    600,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		IdleTTL:         time.Hour,
		Allowlist:       map[string]bool{},
		Denylist:        map[string]bool{},
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// LoadConfig reads PROFILE_AUDITOR_RATE_LIMIT_* over DefaultConfig.
func LoadConfig(getenv func(string) string) *Config {
	if getenv == nil {
		getenv = os.Getenv
	}
	env := func(name string) string { return strings.TrimSpace(getenv(EnvPrefix + name)) }

	cfg := DefaultConfig()
	if v, err := strconv.ParseBool(env("ENABLED")); err == nil {
		cfg.Enabled = v
	}
	if v, err := strconv.Atoi(env("DEFAULT_LIMIT")); err == nil && v > 0 {
		cfg.DefaultLimit = v
	}
	if v, err := time.ParseDuration(env("DEFAULT_WINDOW")); err == nil && v > 0 {
		cfg.DefaultWindow = v
	}
	if v, err := time.ParseDuration(env("CLEANUP_INTERVAL")); err == nil && v > 0 {
		cfg.CleanupInterval = v
	}
	cfg.Allowlist = parseIPList(env("ALLOWLIST"))
	cfg.Denylist = parseIPList(env("DENYLIST"))
	return cfg
}

// DefaultEndpointConfigs returns the per-route limits.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Starting or retrying a session fans out to the verification backend.
		{Path: "/api/sessions/", Method: "POST", Limit: 30, Window: time.Minute, Burst: 5},
		// Invitations send email.
		{Path: "/api/invite/", Method: "POST", Limit: 10, Window: time.Hour, Burst: 3},
		{Path: "/api/sessions/", Method: "DELETE", Limit: 60, Window: time.Minute, Burst: 10},
	}
}

// parseIPList parses a comma-separated list of IP addresses into a set.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
