// Package config provides Viper-based configuration loading for the battle server.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Server modes.
const (
	ModeStandalone = "standalone"
	ModePersistent = "persistent"
)

// Decision chooser kinds.
const (
	ChooserRandom = "random"
	ChooserScript = "script"
	ChooserLLM    = "llm"
)

// ServerConfig holds top-level server settings.
type ServerConfig struct {
	// Mode is "standalone" (in-memory ledger and blob store) or "persistent".
	Mode string `mapstructure:"mode"`
	// HealthInterval is the period of the database health check; 0 disables it.
	HealthInterval time.Duration `mapstructure:"health_interval"`
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Persistent reports whether external stores are in use.
func (s ServerConfig) Persistent() bool {
	return s.Mode == ModePersistent
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// CacheConfig holds Redis settings for the blob store.
type CacheConfig struct {
	Addr     string `mapstructure:"addr"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	// BlobTTL expires uploaded blobs; 0 keeps them forever.
	BlobTTL time.Duration `mapstructure:"blob_ttl"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// APIConfig holds HTTP listener settings.
type APIConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// DebugRoutes enables gin debug mode.
	DebugRoutes bool `mapstructure:"debug_routes"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (a APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// ArtConfig holds image-generation API settings.
type ArtConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	StylePreset string        `mapstructure:"style_preset"`
	Timeout     time.Duration `mapstructure:"timeout"`
	RetryMax    int           `mapstructure:"retry_max"`
	// ImageSize is the edge of the normalized square PNG.
	ImageSize int `mapstructure:"image_size"`
}

// DecisionConfig selects and configures the opponent move chooser.
type DecisionConfig struct {
	// Kind is one of "random", "script", "llm".
	Kind             string `mapstructure:"kind"`
	Model            string `mapstructure:"model"`
	MaxTokens        int64  `mapstructure:"max_tokens"`
	APIKey           string `mapstructure:"api_key"`
	ScriptPath       string `mapstructure:"script_path"`
	InstructionLimit int    `mapstructure:"instruction_limit"`
}

// BattleConfig holds battle engine settings.
type BattleConfig struct {
	// Ruleset is "simple" or "effects".
	Ruleset string `mapstructure:"ruleset"`
	// RarityTable is "primary" or "alternate".
	RarityTable string `mapstructure:"rarity_table"`
	// MaxTurns bounds auto-battle.
	MaxTurns int `mapstructure:"max_turns"`
	// Seed, when non-zero, makes all randomness reproducible.
	Seed int64 `mapstructure:"seed"`
}

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	API      APIConfig      `mapstructure:"api"`
	Art      ArtConfig      `mapstructure:"art"`
	Decision DecisionConfig `mapstructure:"decision"`
	Battle   BattleConfig   `mapstructure:"battle"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string
	add := func(err error) {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	add(validateServer(c.Server))
	if c.Server.Persistent() {
		add(validateDatabase(c.Database))
		add(validateCache(c.Cache))
	}
	add(validateLogging(c.Logging))
	add(validateAPI(c.API))
	add(validateArt(c.Art))
	add(validateDecision(c.Decision))
	add(validateBattle(c.Battle))

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func joined(errs []string) error {
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateServer(s ServerConfig) error {
	var errs []string
	if s.Mode != ModeStandalone && s.Mode != ModePersistent {
		errs = append(errs, fmt.Sprintf("server.mode must be one of [standalone, persistent], got %q", s.Mode))
	}
	if s.HealthInterval < 0 {
		errs = append(errs, "server.health_interval must not be negative")
	}
	if s.ShutdownTimeout <= 0 {
		errs = append(errs, "server.shutdown_timeout must be positive")
	}
	return joined(errs)
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	return joined(errs)
}

func validateCache(c CacheConfig) error {
	var errs []string
	if c.Addr == "" {
		errs = append(errs, "cache.addr must not be empty")
	}
	if c.DB < 0 {
		errs = append(errs, fmt.Sprintf("cache.db must be >= 0, got %d", c.DB))
	}
	if c.BlobTTL < 0 {
		errs = append(errs, "cache.blob_ttl must not be negative")
	}
	return joined(errs)
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateAPI(a APIConfig) error {
	var errs []string
	if a.Port < 1 || a.Port > 65535 {
		errs = append(errs, fmt.Sprintf("api.port must be 1-65535, got %d", a.Port))
	}
	if a.ReadTimeout < 0 {
		errs = append(errs, "api.read_timeout must not be negative")
	}
	if a.WriteTimeout < 0 {
		errs = append(errs, "api.write_timeout must not be negative")
	}
	return joined(errs)
}

func validateArt(a ArtConfig) error {
	var errs []string
	if a.BaseURL == "" {
		errs = append(errs, "art.base_url must not be empty")
	}
	if a.Model == "" {
		errs = append(errs, "art.model must not be empty")
	}
	if a.Timeout < 0 {
		errs = append(errs, "art.timeout must not be negative")
	}
	if a.RetryMax < 0 {
		errs = append(errs, fmt.Sprintf("art.retry_max must be >= 0, got %d", a.RetryMax))
	}
	if a.ImageSize < 1 {
		errs = append(errs, fmt.Sprintf("art.image_size must be >= 1, got %d", a.ImageSize))
	}
	return joined(errs)
}

func validateDecision(d DecisionConfig) error {
	var errs []string
	switch d.Kind {
	case ChooserRandom:
	case ChooserScript:
		if d.ScriptPath == "" {
			errs = append(errs, "decision.script_path must not be empty when decision.kind is script")
		}
	case ChooserLLM:
		if d.Model == "" {
			errs = append(errs, "decision.model must not be empty when decision.kind is llm")
		}
	default:
		errs = append(errs, fmt.Sprintf("decision.kind must be one of [random, script, llm], got %q", d.Kind))
	}
	if d.MaxTokens < 1 {
		errs = append(errs, fmt.Sprintf("decision.max_tokens must be >= 1, got %d", d.MaxTokens))
	}
	if d.InstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("decision.instruction_limit must be >= 0, got %d", d.InstructionLimit))
	}
	return joined(errs)
}

func validateBattle(b BattleConfig) error {
	var errs []string
	if b.Ruleset != "simple" && b.Ruleset != "effects" {
		errs = append(errs, fmt.Sprintf("battle.ruleset must be one of [simple, effects], got %q", b.Ruleset))
	}
	if b.RarityTable != "primary" && b.RarityTable != "alternate" {
		errs = append(errs, fmt.Sprintf("battle.rarity_table must be one of [primary, alternate], got %q", b.RarityTable))
	}
	if b.MaxTurns < 1 {
		errs = append(errs, fmt.Sprintf("battle.max_turns must be >= 1, got %d", b.MaxTurns))
	}
	return joined(errs)
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with MONSTER_ prefix
	v.SetEnvPrefix("MONSTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults returns a Viper instance holding only the default values.
func Defaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.mode", ModeStandalone)
	v.SetDefault("server.health_interval", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "monster")
	v.SetDefault("database.password", "monster")
	v.SetDefault("database.name", "monsterbattle")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("cache.addr", "localhost:6379")
	v.SetDefault("cache.username", "")
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.blob_ttl", "0s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.read_timeout", "15s")
	v.SetDefault("api.write_timeout", "2m")
	v.SetDefault("api.debug_routes", false)

	v.SetDefault("art.base_url", "https://api.venice.ai")
	v.SetDefault("art.api_key", "")
	v.SetDefault("art.model", "flux-dev-uncensored")
	v.SetDefault("art.style_preset", "Fantasy Art")
	v.SetDefault("art.timeout", "90s")
	v.SetDefault("art.retry_max", 2)
	v.SetDefault("art.image_size", 1024)

	v.SetDefault("decision.kind", ChooserRandom)
	v.SetDefault("decision.model", "claude-3-5-haiku-latest")
	v.SetDefault("decision.max_tokens", 256)
	v.SetDefault("decision.api_key", "")
	v.SetDefault("decision.script_path", "content/scripts")
	v.SetDefault("decision.instruction_limit", 100000)

	v.SetDefault("battle.ruleset", "effects")
	v.SetDefault("battle.rarity_table", "primary")
	v.SetDefault("battle.max_turns", 200)
	v.SetDefault("battle.seed", 0)
}
