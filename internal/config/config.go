package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/supply-planner/internal/procurement"
	"github.com/eugenenazirov/supply-planner/internal/storage"
)

const (
	defaultPort           = "8080"
	defaultLogLevel       = "info"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
	defaultMaxQuantity    = 1_000_000
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > YAML config > Environment variables > Defaults
type Config struct {
	Port                 string              `validate:"required"`
	InitialOffers        []procurement.Offer `validate:"-"`
	ShutdownGracePeriod  time.Duration       `validate:"gte=0"`
	ReadHeaderTimeout    time.Duration       `validate:"gte=0"`
	WriteTimeout         time.Duration       `validate:"gte=0"`
	IdleTimeout          time.Duration       `validate:"gte=0"`
	EnableRequestLogging bool
	LogLevel             string  `validate:"oneof=debug info warn error"`
	RateLimitRPS         float64 `validate:"gte=0"`
	RateLimitBurst       int     `validate:"gte=0"`
	// MaxQuantity caps the requested quantity; solver memory grows linearly with it.
	MaxQuantity  int     `validate:"gt=0"`
	MaxOffers    int     `validate:"gt=0"`
	PriceCeiling float64 `validate:"gte=0"`
	// MaxSolverCells bounds purchase units times quantity per plan; 0 removes the bound.
	MaxSolverCells int `validate:"gte=0"`
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	Port                 string              `yaml:"port"`
	Offers               []procurement.Offer `yaml:"offers"`
	ShutdownGracePeriod  string              `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string              `yaml:"read_header_timeout"`
	WriteTimeout         string              `yaml:"write_timeout"`
	IdleTimeout          string              `yaml:"idle_timeout"`
	EnableRequestLogging *bool               `yaml:"enable_request_logging"`
	LogLevel             string              `yaml:"log_level"`
	RateLimit            yamlRateLimit       `yaml:"rate_limit"`
	Planner              yamlPlanner         `yaml:"planner"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

// yamlPlanner represents the planner section in YAML.
type yamlPlanner struct {
	MaxQuantity  *int     `yaml:"max_quantity"`
	MaxOffers    *int     `yaml:"max_offers"`
	PriceCeiling *float64 `yaml:"price_ceiling"`
	MaxCells     *int     `yaml:"max_cells"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile     string
	OffersFile     string
	Port           *string
	LogLevel       *string
	RateLimitRPS   *float64
	RateLimitBurst *int
	MaxQuantity    *int
	PriceCeiling   *float64
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	applyEnvConfig(&cfg)

	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		if err := applyYAMLConfig(&cfg, yamlCfg); err != nil {
			return Config{}, fmt.Errorf("apply YAML config: %w", err)
		}
	}

	if overrides != nil {
		if err := applyCLIOverrides(&cfg, overrides); err != nil {
			return Config{}, err
		}
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadOffers reads an offer catalog from a YAML file with a top-level "offers" list.
func LoadOffers(path string) ([]procurement.Offer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read offers file: %w", err)
	}

	var doc struct {
		Offers []procurement.Offer `yaml:"offers"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse offers file: %w", err)
	}
	if doc.Offers == nil {
		return []procurement.Offer{}, nil
	}
	return doc.Offers, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Port:                 defaultPort,
		InitialOffers:        storage.DefaultOffers(),
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		LogLevel:             defaultLogLevel,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
		MaxQuantity:          defaultMaxQuantity,
		MaxOffers:            storage.DefaultMaxOffers,
		MaxSolverCells:       procurement.DefaultMaxCells,
	}
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) error {
	if yamlCfg.Port != "" {
		cfg.Port = yamlCfg.Port
	}

	if yamlCfg.Offers != nil {
		cfg.InitialOffers = yamlCfg.Offers
	}

	durations := []struct {
		raw    string
		target *time.Duration
		key    string
	}{
		{yamlCfg.ShutdownGracePeriod, &cfg.ShutdownGracePeriod, "shutdown_grace_period"},
		{yamlCfg.ReadHeaderTimeout, &cfg.ReadHeaderTimeout, "read_header_timeout"},
		{yamlCfg.WriteTimeout, &cfg.WriteTimeout, "write_timeout"},
		{yamlCfg.IdleTimeout, &cfg.IdleTimeout, "idle_timeout"},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.key, err)
		}
		*d.target = parsed
	}

	if yamlCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *yamlCfg.EnableRequestLogging
	}

	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = strings.ToLower(yamlCfg.LogLevel)
	}

	if yamlCfg.RateLimit.RPS != nil {
		cfg.RateLimitRPS = *yamlCfg.RateLimit.RPS
	}

	if yamlCfg.RateLimit.Burst != nil {
		cfg.RateLimitBurst = *yamlCfg.RateLimit.Burst
	}

	if yamlCfg.Planner.MaxQuantity != nil {
		cfg.MaxQuantity = *yamlCfg.Planner.MaxQuantity
	}

	if yamlCfg.Planner.MaxOffers != nil {
		cfg.MaxOffers = *yamlCfg.Planner.MaxOffers
	}

	if yamlCfg.Planner.PriceCeiling != nil {
		cfg.PriceCeiling = *yamlCfg.Planner.PriceCeiling
	}

	if yamlCfg.Planner.MaxCells != nil {
		cfg.MaxSolverCells = *yamlCfg.Planner.MaxCells
	}

	return nil
}

// applyEnvConfig applies environment variable configuration.
func applyEnvConfig(cfg *Config) {
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.Port = port
	}

	if level := strings.TrimSpace(os.Getenv("LOG_LEVEL")); level != "" {
		cfg.LogLevel = strings.ToLower(level)
	}

	if rps := strings.TrimSpace(os.Getenv("RATE_LIMIT_RPS")); rps != "" {
		if value, err := strconv.ParseFloat(rps, 64); err == nil && value >= 0 {
			cfg.RateLimitRPS = value
		}
	}

	if burst := strings.TrimSpace(os.Getenv("RATE_LIMIT_BURST")); burst != "" {
		if value, err := strconv.Atoi(burst); err == nil && value >= 0 {
			cfg.RateLimitBurst = value
		}
	}

	if maxQty := strings.TrimSpace(os.Getenv("MAX_QUANTITY")); maxQty != "" {
		if value, err := strconv.Atoi(maxQty); err == nil && value > 0 {
			cfg.MaxQuantity = value
		}
	}

	if ceiling := strings.TrimSpace(os.Getenv("PRICE_CEILING")); ceiling != "" {
		if value, err := strconv.ParseFloat(ceiling, 64); err == nil && value >= 0 {
			cfg.PriceCeiling = value
		}
	}
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) error {
	if overrides.OffersFile != "" {
		offers, err := LoadOffers(overrides.OffersFile)
		if err != nil {
			return fmt.Errorf("load offers: %w", err)
		}
		cfg.InitialOffers = offers
	}

	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}

	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		cfg.LogLevel = strings.ToLower(*overrides.LogLevel)
	}

	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}

	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}

	if overrides.MaxQuantity != nil && *overrides.MaxQuantity > 0 {
		cfg.MaxQuantity = *overrides.MaxQuantity
	}

	if overrides.PriceCeiling != nil && *overrides.PriceCeiling >= 0 {
		cfg.PriceCeiling = *overrides.PriceCeiling
	}

	return nil
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid configuration: %s failed %q", verrs[0].Field(), verrs[0].Tag())
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if len(cfg.InitialOffers) > cfg.MaxOffers {
		return fmt.Errorf("invalid configuration: %d initial offers exceed max offers %d", len(cfg.InitialOffers), cfg.MaxOffers)
	}
	return nil
}
