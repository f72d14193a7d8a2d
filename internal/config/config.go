// ABOUTME: Configuration loading and parsing for popcode-gateway
// ABOUTME: Supports YAML or TOML files with environment variable expansion and duration parsing

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config represents the complete popcode-gateway configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Database  DatabaseConfig  `yaml:"database" toml:"database"`
	Auth      AuthConfig      `yaml:"auth" toml:"auth"`
	GitHub    GitHubConfig    `yaml:"github" toml:"github"`
	Retry     RetryConfig     `yaml:"retry" toml:"retry"`
	Import    ImportConfig    `yaml:"import" toml:"import"`
	Bootstrap BootstrapConfig `yaml:"bootstrap" toml:"bootstrap"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics" toml:"metrics"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr" toml:"http_addr"`
	// BaseURL is the public URL of the workspace, used for gist import links
	BaseURL string `yaml:"base_url" toml:"base_url"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// AuthConfig holds session signing and GitHub OAuth configuration
type AuthConfig struct {
	JWTSecret          string        `yaml:"jwt_secret" toml:"jwt_secret"`
	SessionTTL         time.Duration `yaml:"-" toml:"-"`
	SessionTTLRaw      string        `yaml:"session_ttl" toml:"session_ttl"`
	GitHubClientID     string        `yaml:"github_client_id" toml:"github_client_id"`
	GitHubClientSecret string        `yaml:"github_client_secret" toml:"github_client_secret"`
	OAuthRedirectURL   string        `yaml:"oauth_redirect_url" toml:"oauth_redirect_url"`
	OAuthScopes        []string      `yaml:"oauth_scopes" toml:"oauth_scopes"`
	// OAuthAuthURL and OAuthTokenURL override github.com for GitHub Enterprise
	OAuthAuthURL  string `yaml:"oauth_auth_url" toml:"oauth_auth_url"`
	OAuthTokenURL string `yaml:"oauth_token_url" toml:"oauth_token_url"`
}

// GitHubConfig holds source-hosting client configuration
type GitHubConfig struct {
	APIURL            string        `yaml:"api_url" toml:"api_url"`
	Timeout           time.Duration `yaml:"-" toml:"-"`
	TimeoutRaw        string        `yaml:"timeout" toml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second" toml:"requests_per_second"`
	Burst             int           `yaml:"burst" toml:"burst"`
	// ImportRef is the ref imported for repositories; empty means the default branch
	ImportRef string `yaml:"import_ref" toml:"import_ref"`
}

// RetryConfig is the default backoff policy for outbound calls
type RetryConfig struct {
	Retries     int           `yaml:"retries" toml:"retries"`
	Factor      float64       `yaml:"factor" toml:"factor"`
	MinDelay    time.Duration `yaml:"-" toml:"-"`
	MaxDelay    time.Duration `yaml:"-" toml:"-"`
	MinDelayRaw string        `yaml:"min_delay" toml:"min_delay"`
	MaxDelayRaw string        `yaml:"max_delay" toml:"max_delay"`
}

// ImportConfig overrides the retry count for the import paths
type ImportConfig struct {
	GistRetries int `yaml:"gist_retries" toml:"gist_retries"`
	RepoRetries int `yaml:"repo_retries" toml:"repo_retries"`
}

// BootstrapConfig holds run guard settings
type BootstrapConfig struct {
	RunGuardTTL    time.Duration `yaml:"-" toml:"-"`
	RunGuardTTLRaw string        `yaml:"run_guard_ttl" toml:"run_guard_ttl"`
	RunGuardSize   int           `yaml:"run_guard_size" toml:"run_guard_size"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// MetricsConfig holds metrics endpoint configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Path    string `yaml:"path" toml:"path"`
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Files ending in .toml are parsed as TOML, everything else as YAML.
// Environment variables in the format ${VAR_NAME} are expanded.
// Duration strings are parsed into time.Duration values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the raw content
	expandedData := expandEnvVars(string(data))

	cfg := seeded()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(expandedData, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := seeded()
	cfg.Server = ServerConfig{HTTPAddr: "127.0.0.1:8080"}
	cfg.Database = DatabaseConfig{Path: ":memory:"}
	cfg.applyDefaults()
	return &cfg
}

// seeded returns a Config holding the retry counts before decoding, so a
// count written as 0 in the file survives and disables retries.
func seeded() Config {
	return Config{
		Retry:  RetryConfig{Retries: 5},
		Import: ImportConfig{GistRetries: 3, RepoRetries: 3},
	}
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// applyDefaults fills zero values. Retry defaults mirror the values the
// workspace client has always used: factor 2, 1s..10s. Retry counts come
// from seeded since 0 is a valid count.
func (c *Config) applyDefaults() {
	if c.Server.BaseURL == "" && c.Server.HTTPAddr != "" {
		c.Server.BaseURL = "http://" + c.Server.HTTPAddr
	}
	if c.Auth.SessionTTL == 0 {
		c.Auth.SessionTTL = 30 * 24 * time.Hour
	}
	if len(c.Auth.OAuthScopes) == 0 {
		c.Auth.OAuthScopes = []string{"gist", "public_repo"}
	}
	if c.GitHub.Timeout == 0 {
		c.GitHub.Timeout = 30 * time.Second
	}
	if c.GitHub.Burst == 0 {
		c.GitHub.Burst = 10
	}
	if c.Retry.Factor == 0 {
		c.Retry.Factor = 2
	}
	if c.Retry.MinDelay == 0 {
		c.Retry.MinDelay = time.Second
	}
	if c.Retry.MaxDelay == 0 {
		c.Retry.MaxDelay = 10 * time.Second
	}
	if c.Bootstrap.RunGuardTTL == 0 {
		c.Bootstrap.RunGuardTTL = 2 * time.Minute
	}
	if c.Bootstrap.RunGuardSize == 0 {
		c.Bootstrap.RunGuardSize = 10_000
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 bytes")
	}

	if c.Auth.GitHubClientID != "" && c.Auth.GitHubClientSecret == "" {
		return fmt.Errorf("auth.github_client_secret is required when auth.github_client_id is set")
	}

	if c.Retry.Retries < 0 {
		return fmt.Errorf("retry.retries must not be negative")
	}
	if c.Retry.Factor <= 1 {
		return fmt.Errorf("retry.factor must be greater than 1")
	}
	if c.Retry.MaxDelay < c.Retry.MinDelay {
		return fmt.Errorf("retry.max_delay must not be less than retry.min_delay")
	}
	if c.Import.GistRetries < 0 || c.Import.RepoRetries < 0 {
		return fmt.Errorf("import retries must not be negative")
	}

	if c.GitHub.RequestsPerSecond < 0 {
		return fmt.Errorf("github.requests_per_second must not be negative")
	}

	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	fields := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"auth.session_ttl", cfg.Auth.SessionTTLRaw, &cfg.Auth.SessionTTL},
		{"github.timeout", cfg.GitHub.TimeoutRaw, &cfg.GitHub.Timeout},
		{"retry.min_delay", cfg.Retry.MinDelayRaw, &cfg.Retry.MinDelay},
		{"retry.max_delay", cfg.Retry.MaxDelayRaw, &cfg.Retry.MaxDelay},
		{"bootstrap.run_guard_ttl", cfg.Bootstrap.RunGuardTTLRaw, &cfg.Bootstrap.RunGuardTTL},
	}

	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("parsing %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = d
	}

	return nil
}
