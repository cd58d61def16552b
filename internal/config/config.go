// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Credential store backends.
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "PROFILE_AUDITOR_"

// Duration is a time.Duration that reads "1s"/"500ms" strings from JSON and YAML.
type Duration time.Duration

// UnmarshalJSON accepts a Go duration string or a number of milliseconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return d.parse(s)
	}
	var ms int64
	if err := json.Unmarshal(data, &ms); err != nil {
		return fmt.Errorf("duration must be a string like \"2s\" or milliseconds: %w", err)
	}
	*d = Duration(time.Duration(ms) * time.Millisecond)
	return nil
}

// MarshalJSON writes the duration as a Go duration string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalYAML accepts a Go duration string or a number of milliseconds,
// matching UnmarshalJSON.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration must be a string like \"2s\" or milliseconds, got %s", node.ShortTag())
	}
	if node.ShortTag() == "!!int" {
		ms, err := strconv.ParseInt(node.Value, 0, 64)
		if err != nil {
			return fmt.Errorf("duration must be a string like \"2s\" or milliseconds: %w", err)
		}
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}
	return d.parse(node.Value)
}

func (d *Duration) parse(s string) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config represents the configuration that can be loaded from a JSON or YAML file.
// All fields are optional; missing values use defaults or are provided via flags.
type Config struct {
	// Backend
	APIBaseURL     string   `json:"api_base_url,omitempty" yaml:"api_base_url,omitempty" validate:"omitempty,url"` // Verification backend root URL
	RequestTimeout Duration `json:"request_timeout,omitempty" yaml:"request_timeout,omitempty"`                    // Per-request HTTP timeout

	// Orchestration
	ResumeRetryDelay    Duration `json:"resume_retry_delay,omitempty" yaml:"resume_retry_delay,omitempty"` // Delay while the resume is still processing
	LaunchRetryDelay    Duration `json:"launch_retry_delay,omitempty" yaml:"launch_retry_delay,omitempty"` // Delay when launch is rejected as processing
	PollInterval        Duration `json:"poll_interval,omitempty" yaml:"poll_interval,omitempty"`           // Delay between status polls
	MaxRetries          int      `json:"max_retries,omitempty" yaml:"max_retries,omitempty" validate:"gte=0,lte=1000"`
	PurgeOnEarlyFailure bool     `json:"purge_on_early_failure,omitempty" yaml:"purge_on_early_failure,omitempty"` // Also clear credentials when pre-launch stages fail

	// Credential store
	CredentialStore string   `json:"credential_store,omitempty" yaml:"credential_store,omitempty" validate:"omitempty,oneof=memory file redis postgres"`
	CredentialPath  string   `json:"credential_path,omitempty" yaml:"credential_path,omitempty"` // File store location
	CredentialTTL   Duration `json:"credential_ttl,omitempty" yaml:"credential_ttl,omitempty"`   // Redis key expiry
	RedisURL        string   `json:"redis_url,omitempty" yaml:"redis_url,omitempty"`
	DatabaseURL     string   `json:"database_url,omitempty" yaml:"database_url,omitempty"` // PostgreSQL connection URL
	Session         string   `json:"session,omitempty" yaml:"session,omitempty" validate:"omitempty,max=128"`

	// Server
	ListenAddr string `json:"listen_addr,omitempty" yaml:"listen_addr,omitempty"`

	// Behavior
	Verbose bool `json:"verbose,omitempty" yaml:"verbose,omitempty"` // Print detailed debug information
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		APIBaseURL:       "http://localhost:8000",
		RequestTimeout:   Duration(30 * time.Second),
		ResumeRetryDelay: Duration(time.Second),
		LaunchRetryDelay: Duration(2 * time.Second),
		PollInterval:     Duration(time.Second),
		MaxRetries:       10,
		CredentialStore:  StoreFile,
		CredentialPath:   defaultCredentialPath(),
		CredentialTTL:    Duration(time.Hour),
		Session:          "default",
		ListenAddr:       ":8090",
	}
}

func defaultCredentialPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "profile_auditor", "credentials.json")
}

// LoadConfig loads configuration from a JSON or YAML file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

// ApplyEnv overrides fields from PROFILE_AUDITOR_* environment variables.
// Unparseable values are reported rather than ignored.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}
	env := func(name string) string { return strings.TrimSpace(getenv(EnvPrefix + name)) }

	strs := map[string]*string{
		"API_BASE_URL":     &c.APIBaseURL,
		"CREDENTIAL_STORE": &c.CredentialStore,
		"CREDENTIAL_PATH":  &c.CredentialPath,
		"REDIS_URL":        &c.RedisURL,
		"DATABASE_URL":     &c.DatabaseURL,
		"SESSION":          &c.Session,
		"LISTEN_ADDR":      &c.ListenAddr,
	}
	for name, field := range strs {
		if v := env(name); v != "" {
			*field = v
		}
	}

	durations := map[string]*Duration{
		"REQUEST_TIMEOUT":    &c.RequestTimeout,
		"RESUME_RETRY_DELAY": &c.ResumeRetryDelay,
		"LAUNCH_RETRY_DELAY": &c.LaunchRetryDelay,
		"POLL_INTERVAL":      &c.PollInterval,
		"CREDENTIAL_TTL":     &c.CredentialTTL,
	}
	for name, field := range durations {
		if v := env(name); v != "" {
			if err := field.parse(v); err != nil {
				return fmt.Errorf("config error: %s%s: %w", EnvPrefix, name, err)
			}
		}
	}

	if v := env("MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config error: %sMAX_RETRIES: %w", EnvPrefix, err)
		}
		c.MaxRetries = n
	}

	bools := map[string]*bool{
		"VERBOSE":                &c.Verbose,
		"PURGE_ON_EARLY_FAILURE": &c.PurgeOnEarlyFailure,
	}
	for name, field := range bools {
		if v := env(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("config error: %s%s: %w", EnvPrefix, name, err)
			}
			*field = b
		}
	}

	return nil
}

// Validate checks that the configuration has valid values.
// Required fields are not checked here since defaults are merged afterwards.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	for name, d := range map[string]Duration{
		"request_timeout":    c.RequestTimeout,
		"resume_retry_delay": c.ResumeRetryDelay,
		"launch_retry_delay": c.LaunchRetryDelay,
		"poll_interval":      c.PollInterval,
		"credential_ttl":     c.CredentialTTL,
	} {
		if d < 0 {
			return fmt.Errorf("config error: '%s' must be non-negative", name)
		}
	}

	switch c.CredentialStore {
	case StoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("config error: 'redis_url' is required for the redis credential store")
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config error: 'database_url' is required for the postgres credential store")
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.APIBaseURL == "" {
		result.APIBaseURL = defaults.APIBaseURL
	}
	if result.CredentialStore == "" {
		result.CredentialStore = defaults.CredentialStore
	}
	if result.CredentialPath == "" {
		result.CredentialPath = defaults.CredentialPath
	}
	if result.RedisURL == "" {
		result.RedisURL = defaults.RedisURL
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.Session == "" {
		result.Session = defaults.Session
	}
	if result.ListenAddr == "" {
		result.ListenAddr = defaults.ListenAddr
	}

	// Durations and ints: use default if zero
	if result.RequestTimeout == 0 {
		result.RequestTimeout = defaults.RequestTimeout
	}
	if result.ResumeRetryDelay == 0 {
		result.ResumeRetryDelay = defaults.ResumeRetryDelay
	}
	if result.LaunchRetryDelay == 0 {
		result.LaunchRetryDelay = defaults.LaunchRetryDelay
	}
	if result.PollInterval == 0 {
		result.PollInterval = defaults.PollInterval
	}
	if result.CredentialTTL == 0 {
		result.CredentialTTL = defaults.CredentialTTL
	}
	if result.MaxRetries == 0 {
		result.MaxRetries = defaults.MaxRetries
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (flags and env always win for bools)

	return result
}

// Load reads the optional config file, applies the environment and fills in defaults.
func Load(path string) (Config, error) {
	cfg := &Config{}
	if path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return Config{}, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return Config{}, err
	}
	merged := cfg.MergeWithDefaults(Defaults())
	if err := merged.Validate(); err != nil {
		return Config{}, err
	}
	return merged, nil
}
