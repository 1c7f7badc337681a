package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultUserAgent is the browser identity presented to the mirror
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/128.0.0.0 Safari/537.36 Edg/128.0.0.0"

// Config holds all configuration options for the bridge
type Config struct {
	// Account being mirrored
	Source SourceConfig `yaml:"source" json:"source"`

	// Mirror front-end settings
	Mirror MirrorConfig `yaml:"mirror" json:"mirror"`

	// Destination network credentials
	Bluesky BlueskyConfig `yaml:"bluesky" json:"bluesky"`

	// Pagination limits
	Collector CollectorConfig `yaml:"collector" json:"collector"`

	// Dedup store location
	Store StoreConfig `yaml:"store" json:"store"`

	// Posting behaviour
	Publish PublishConfig `yaml:"publish" json:"publish"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// SourceConfig identifies the account whose history is mirrored
type SourceConfig struct {
	Account string `yaml:"account" json:"account"`
}

// MirrorConfig holds settings for the read-only mirror
type MirrorConfig struct {
	BaseURL      string        `yaml:"base_url" json:"base_url"`
	UserAgent    string        `yaml:"user_agent" json:"user_agent"`
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`
	SearchFilter string        `yaml:"search_filter" json:"search_filter"`
}

// BlueskyConfig holds destination credentials
type BlueskyConfig struct {
	Host     string `yaml:"host" json:"host"`
	Handle   string `yaml:"handle" json:"handle"`
	Password string `yaml:"password" json:"password"`
}

// CollectorConfig bounds the pagination loop
type CollectorConfig struct {
	// MaxPages stops collection after this many pages; 0 means unbounded
	MaxPages int `yaml:"max_pages" json:"max_pages"`
}

// StoreConfig selects the dedup store backend
type StoreConfig struct {
	Backend string `yaml:"backend" json:"backend"`
	Path    string `yaml:"path" json:"path"`
}

// PublishConfig controls how posts are sent
type PublishConfig struct {
	// PostsPerMinute paces posting; 0 disables pacing
	PostsPerMinute int `yaml:"posts_per_minute" json:"posts_per_minute"`
	// Pacing is "window" (rolling minute) or "bucket" (burst then pause)
	Pacing string `yaml:"pacing" json:"pacing"`

	DryRun bool `yaml:"dry_run" json:"dry_run"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// Store backends
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Mirror: MirrorConfig{
			UserAgent:    DefaultUserAgent,
			Timeout:      30 * time.Second,
			SearchFilter: "tweets",
		},
		Bluesky: BlueskyConfig{
			Host: "https://bsky.social",
		},
		Collector: CollectorConfig{
			MaxPages: 500,
		},
		Store: StoreConfig{
			Backend: BackendJSON,
			Path:    "posted_tweets.json",
		},
		Publish: PublishConfig{
			PostsPerMinute: 0,
			Pacing:         "window",
			DryRun:         false,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// firstEnv returns the value of the first set variable in names
func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if account := firstEnv("CROSSPOSTER_ACCOUNT", "TWITTER_USERNAME"); account != "" {
		c.Source.Account = account
	}
	if mirror := firstEnv("CROSSPOSTER_MIRROR_URL", "NITTER_INSTANCE"); mirror != "" {
		c.Mirror.BaseURL = mirror
	}
	if userAgent := os.Getenv("CROSSPOSTER_USER_AGENT"); userAgent != "" {
		c.Mirror.UserAgent = userAgent
	}

	if handle := os.Getenv("BLUESKY_HANDLE"); handle != "" {
		c.Bluesky.Handle = handle
	}
	if password := os.Getenv("BLUESKY_PASSWORD"); password != "" {
		c.Bluesky.Password = password
	}
	if host := os.Getenv("BLUESKY_HOST"); host != "" {
		c.Bluesky.Host = host
	}

	if maxPages := os.Getenv("CROSSPOSTER_MAX_PAGES"); maxPages != "" {
		val, err := strconv.Atoi(maxPages)
		if err != nil {
			return fmt.Errorf("invalid CROSSPOSTER_MAX_PAGES %q: %w", maxPages, err)
		}
		c.Collector.MaxPages = val
	}

	if backend := os.Getenv("CROSSPOSTER_STORE_BACKEND"); backend != "" {
		c.Store.Backend = strings.ToLower(backend)
	}
	if path := os.Getenv("CROSSPOSTER_STORE_PATH"); path != "" {
		c.Store.Path = path
	}

	if ppm := os.Getenv("CROSSPOSTER_POSTS_PER_MINUTE"); ppm != "" {
		val, err := strconv.Atoi(ppm)
		if err != nil {
			return fmt.Errorf("invalid CROSSPOSTER_POSTS_PER_MINUTE %q: %w", ppm, err)
		}
		c.Publish.PostsPerMinute = val
	}
	if pacing := os.Getenv("CROSSPOSTER_PACING"); pacing != "" {
		c.Publish.Pacing = strings.ToLower(pacing)
	}
	if dryRun := os.Getenv("CROSSPOSTER_DRY_RUN"); dryRun != "" {
		c.Publish.DryRun = strings.ToLower(dryRun) == "true"
	}

	if logLevel := os.Getenv("CROSSPOSTER_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile := os.Getenv("CROSSPOSTER_LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = FindConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))

	return nil
}

// SearchPaths lists config file locations in order of precedence
func SearchPaths() []string {
	home := os.Getenv("HOME")
	return []string{
		".crossposter.yaml",
		".crossposter.yml",
		filepath.Join(home, ".config", "crossposter", "config.yaml"),
		filepath.Join(home, ".config", "crossposter", "config.yml"),
		filepath.Join(home, ".crossposter.yaml"),
	}
}

// FindConfigFile returns the first existing config file, or ""
func FindConfigFile() string {
	for _, loc := range SearchPaths() {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}
	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Source.Account == "" {
		errs = append(errs, errors.New("source account is required"))
	}

	if c.Mirror.BaseURL == "" {
		errs = append(errs, errors.New("mirror base URL is required"))
	} else if u, err := url.Parse(c.Mirror.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("mirror base URL %q must be an absolute URL", c.Mirror.BaseURL))
	}
	if c.Mirror.Timeout <= 0 {
		errs = append(errs, errors.New("mirror timeout must be positive"))
	}
	if c.Mirror.SearchFilter == "" {
		errs = append(errs, errors.New("mirror search filter is required"))
	}

	if c.Collector.MaxPages < 0 {
		errs = append(errs, errors.New("max pages cannot be negative"))
	}

	switch strings.ToLower(strings.TrimSpace(c.Store.Backend)) {
	case BackendJSON, BackendSQLite:
	default:
		errs = append(errs, fmt.Errorf("invalid store backend %q", c.Store.Backend))
	}
	if c.Store.Path == "" {
		errs = append(errs, errors.New("store path is required"))
	}

	if c.Publish.PostsPerMinute < 0 {
		errs = append(errs, errors.New("posts per minute cannot be negative"))
	}
	switch c.Publish.Pacing {
	case "window", "bucket", "":
	default:
		errs = append(errs, fmt.Errorf("invalid pacing %q", c.Publish.Pacing))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// ValidateCredentials checks that destination credentials are present.
// Dry runs never contact the destination and skip this check.
func (c *Config) ValidateCredentials() error {
	if c.Publish.DryRun {
		return nil
	}
	var errs []error
	if c.Bluesky.Handle == "" {
		errs = append(errs, errors.New("Bluesky handle is required"))
	}
	if c.Bluesky.Password == "" {
		errs = append(errs, errors.New("Bluesky app password is required"))
	}
	if c.Bluesky.Host == "" {
		errs = append(errs, errors.New("Bluesky host is required"))
	}
	return errors.Join(errs...)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Redacted returns a copy with secrets masked, for display
func (c *Config) Redacted() *Config {
	cp := *c
	if cp.Bluesky.Password != "" {
		cp.Bluesky.Password = "********"
	}
	return &cp
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if account, ok := flags["account"].(string); ok && account != "" {
		c.Source.Account = account
	}
	if mirror, ok := flags["mirror"].(string); ok && mirror != "" {
		c.Mirror.BaseURL = mirror
	}
	if storePath, ok := flags["store"].(string); ok && storePath != "" {
		c.Store.Path = storePath
	}
	if backend, ok := flags["store-backend"].(string); ok && backend != "" {
		c.Store.Backend = strings.ToLower(backend)
	}
	if maxPages, ok := flags["max-pages"].(int); ok && maxPages >= 0 {
		c.Collector.MaxPages = maxPages
	}
	if ppm, ok := flags["posts-per-minute"].(int); ok && ppm >= 0 {
		c.Publish.PostsPerMinute = ppm
	}
	if dryRun, ok := flags["dry-run"].(bool); ok {
		c.Publish.DryRun = dryRun
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Resolve merges all sources with proper precedence without validating.
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Resolve(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".crossposter.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	return config, nil
}

// Load resolves configuration from all sources and validates it
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	config, err := Resolve(configPath, flags)
	if err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
