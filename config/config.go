// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Database drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// DefaultMapper is the mapper every configuration carries.
const DefaultMapper = "default"

// ClientRepositoryPrefix prefixes the link repository registered for each
// HTTP client.
const ClientRepositoryPrefix = "client."

// DefaultMapperHandlers are the handlers of the default mapper.
var DefaultMapperHandlers = []string{"attribute", "relationship", "link"}

// Config is the root configuration structure.
type Config struct {
	Server           ServerConfig                `yaml:"server"`
	Logging          LoggingConfig               `yaml:"logging"`
	Metrics          MetricsConfig               `yaml:"metrics"`
	Database         DatabaseConfig              `yaml:"database"`
	Mappers          map[string]MapperConfig     `yaml:"mappers"`
	LinkRepositories map[string]RepositoryConfig `yaml:"link_repositories"`
	HTTPClients      map[string]HTTPClientConfig `yaml:"http_clients"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	// BaseURL is the public URL of the server. It backs the "api" link
	// repository unless link_repositories defines one.
	BaseURL string `yaml:"base_url"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// DatabaseConfig configures the demo store.
type DatabaseConfig struct {
	Driver      string `yaml:"driver"` // memory, sqlite
	DSN         string `yaml:"dsn"`
	Seed        bool   `yaml:"seed"`
	IDGenerator string `yaml:"id_generator"` // uuid, uuidv7
}

// MapperConfig selects the handlers of a named object mapper and the
// resource types it converts. The default mapper also converts every type
// no other mapper claims.
type MapperConfig struct {
	Handlers []string `yaml:"handlers"`
	Types    []string `yaml:"types"` // resource types, e.g. people
}

// RepositoryConfig defines a named link repository.
type RepositoryConfig struct {
	BaseURL string                 `yaml:"base_url"`
	Routes  map[string]RouteConfig `yaml:"routes"`
}

// RouteConfig defines one named route.
type RouteConfig struct {
	Path    string         `yaml:"path"`
	Methods []string       `yaml:"methods"`
	Meta    map[string]any `yaml:"meta"`
}

// HTTPClientConfig defines a named outbound JSON:API client.
type HTTPClientConfig struct {
	BaseURL    string                 `yaml:"base_url"`
	Timeout    time.Duration          `yaml:"timeout"`
	Decorators []string               `yaml:"decorators"`
	Resources  map[string]RouteConfig `yaml:"resources"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	cfg := Config{Metrics: MetricsConfig{Enabled: true}}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Apply environment variable overrides
	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}

	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv creates configuration entirely from environment variables.
//
// Environment variables:
//
//	JSONVIEW_SERVER_HOST       - Server host (default: 0.0.0.0)
//	JSONVIEW_SERVER_PORT       - Server port (default: 8080)
//	JSONVIEW_SERVER_BASE_URL   - Public base URL (default: http://localhost:<port>)
//	JSONVIEW_LOG_LEVEL         - Log level: debug, info, warn, error (default: info)
//	JSONVIEW_LOG_FORMAT        - Log format: json or console (default: json)
//	JSONVIEW_METRICS_ENABLED   - Enable the metrics endpoint (default: true)
//	JSONVIEW_METRICS_PATH      - Metrics endpoint path (default: /metrics)
//	JSONVIEW_DATABASE_DRIVER   - Store driver: memory or sqlite (default: memory)
//	JSONVIEW_DATABASE_DSN      - SQLite database path (default: jsonview.db)
//	JSONVIEW_DATABASE_SEED     - Seed demo data into an empty store
func LoadFromEnv() (*Config, error) {
	cfg := Config{Metrics: MetricsConfig{Enabled: true}}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadWithFallback loads from file when it exists and falls back to
// environment variables otherwise.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return LoadFromEnv()
}

// applyEnvOverrides applies JSONVIEW_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) error {
	// Server configuration
	if v := os.Getenv("JSONVIEW_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("JSONVIEW_SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("JSONVIEW_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("JSONVIEW_SERVER_READ_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("JSONVIEW_SERVER_READ_TIMEOUT: %w", err)
		}
		cfg.Server.ReadTimeout = d
	}
	if v := os.Getenv("JSONVIEW_SERVER_WRITE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("JSONVIEW_SERVER_WRITE_TIMEOUT: %w", err)
		}
		cfg.Server.WriteTimeout = d
	}
	if v := os.Getenv("JSONVIEW_SERVER_BASE_URL"); v != "" {
		cfg.Server.BaseURL = v
	}

	// Logging configuration
	if v := os.Getenv("JSONVIEW_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("JSONVIEW_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	// Metrics configuration
	if v := os.Getenv("JSONVIEW_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("JSONVIEW_METRICS_PATH"); v != "" {
		cfg.Metrics.Path = v
	}

	// Database configuration
	if v := os.Getenv("JSONVIEW_DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("JSONVIEW_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("JSONVIEW_DATABASE_SEED"); v != "" {
		cfg.Database.Seed = parseBool(v)
	}
	if v := os.Getenv("JSONVIEW_DATABASE_ID_GENERATOR"); v != "" {
		cfg.Database.IDGenerator = v
	}

	return nil
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.BaseURL == "" {
		host := cfg.Server.Host
		if host == "0.0.0.0" || host == "" {
			host = "localhost"
		}
		cfg.Server.BaseURL = fmt.Sprintf("http://%s:%d", host, cfg.Server.Port)
	}
	cfg.Server.BaseURL = strings.TrimRight(cfg.Server.BaseURL, "/")

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DriverMemory
	}
	if cfg.Database.Driver == DriverSQLite && cfg.Database.DSN == "" {
		cfg.Database.DSN = "jsonview.db"
	}
	if cfg.Database.IDGenerator == "" {
		cfg.Database.IDGenerator = "uuid"
	}

	if cfg.Mappers == nil {
		cfg.Mappers = make(map[string]MapperConfig)
	}
	if _, ok := cfg.Mappers[DefaultMapper]; !ok {
		cfg.Mappers[DefaultMapper] = MapperConfig{Handlers: append([]string(nil), DefaultMapperHandlers...)}
	}

	for name, c := range cfg.HTTPClients {
		if c.Timeout == 0 {
			c.Timeout = 30 * time.Second
			cfg.HTTPClients[name] = c
		}
	}
}

func validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", cfg.Server.Port)
	}
	if err := validateBaseURL(cfg.Server.BaseURL); err != nil {
		return fmt.Errorf("server.base_url: %w", err)
	}

	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: trace, debug, info, warn, error, got %q", cfg.Logging.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format)
	}

	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with '/', got %q", cfg.Metrics.Path)
	}

	validDrivers := map[string]bool{DriverMemory: true, DriverSQLite: true}
	if !validDrivers[cfg.Database.Driver] {
		return fmt.Errorf("database.driver must be 'memory' or 'sqlite', got %q", cfg.Database.Driver)
	}

	claimed := make(map[string]string)
	for _, name := range cfg.MapperNames() {
		mc := cfg.Mappers[name]
		for i, h := range mc.Handlers {
			if strings.TrimSpace(h) == "" {
				return fmt.Errorf("mappers.%s.handlers[%d] is empty", name, i)
			}
		}
		for i, typ := range mc.Types {
			if strings.TrimSpace(typ) == "" {
				return fmt.Errorf("mappers.%s.types[%d] is empty", name, i)
			}
			if owner, ok := claimed[typ]; ok {
				return fmt.Errorf("mappers.%s.types: %q is already mapped by %q", name, typ, owner)
			}
			claimed[typ] = name
		}
	}

	for _, alias := range sortedKeys(cfg.LinkRepositories) {
		if strings.HasPrefix(alias, ClientRepositoryPrefix) {
			return fmt.Errorf("link_repositories.%s: prefix %q is reserved for http clients", alias, ClientRepositoryPrefix)
		}
		repo := cfg.LinkRepositories[alias]
		if err := validateBaseURL(repo.BaseURL); err != nil {
			return fmt.Errorf("link_repositories.%s.base_url: %w", alias, err)
		}
		if err := validateRoutes(repo.Routes); err != nil {
			return fmt.Errorf("link_repositories.%s.routes.%w", alias, err)
		}
	}

	for _, name := range sortedKeys(cfg.HTTPClients) {
		c := cfg.HTTPClients[name]
		if c.BaseURL == "" {
			return fmt.Errorf("http_clients.%s.base_url is required", name)
		}
		if err := validateBaseURL(c.BaseURL); err != nil {
			return fmt.Errorf("http_clients.%s.base_url: %w", name, err)
		}
		if err := validateRoutes(c.Resources); err != nil {
			return fmt.Errorf("http_clients.%s.resources.%w", name, err)
		}
	}

	return nil
}

func validateBaseURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("must be an absolute URL, got %q", raw)
	}
	return nil
}

func validateRoutes(routes map[string]RouteConfig) error {
	for _, name := range sortedKeys(routes) {
		path := routes[name].Path
		if path == "" {
			return fmt.Errorf("%s.path is required", name)
		}
		if !strings.HasPrefix(path, "/") {
			return fmt.Errorf("%s.path must start with '/', got %q", name, path)
		}
	}
	return nil
}

// MapperNames returns the configured mapper names with the default mapper
// first and the rest sorted.
func (c *Config) MapperNames() []string {
	names := make([]string, 0, len(c.Mappers))
	if _, ok := c.Mappers[DefaultMapper]; ok {
		names = append(names, DefaultMapper)
	}
	for _, name := range sortedKeys(c.Mappers) {
		if name != DefaultMapper {
			names = append(names, name)
		}
	}
	return names
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
