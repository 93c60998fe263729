package config

import (
	"errors"
	"fmt"
	"os"

	"studiobook/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig          `yaml:"app"`
	Database   DatabaseConfig     `yaml:"database"`
	Redis      RedisConfig        `yaml:"redis"`
	Logging    LoggingConfig      `yaml:"logging"`
	Monitoring MonitoringConfig   `yaml:"monitoring"`
	API        APIConfig          `yaml:"api"`
	Booking    BookingConfig      `yaml:"booking"`
	Exports    ExportConfig       `yaml:"exports"`
	Principals []models.Principal `yaml:"principals"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type BookingConfig struct {
	SweepInterval int `yaml:"sweep_interval"` // seconds
	SlotCacheTTL  int `yaml:"slot_cache_ttl"` // seconds
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

type APIConfig struct {
	HTTP      APIHTTPConfig      `yaml:"http"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Port int `yaml:"port"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	HeaderExtra  string         `yaml:"header_extra"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

// APIClientKey binds an API key pair to a configured principal.
type APIClientKey struct {
	Key         string `yaml:"key"`
	Extra       string `yaml:"extra"`
	PrincipalID string `yaml:"principal_id"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

func Load(configPath string) (*Config, error) {
	// .env, если есть, подхватывается до раскрытия переменных
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if err := ValidatePrincipals(c.Principals); err != nil {
		return err
	}

	if c.API.Auth.Enabled {
		principalIDs := make(map[string]bool, len(c.Principals))
		for _, p := range c.Principals {
			principalIDs[p.ID] = true
		}
		seenKeys := make(map[string]bool, len(c.API.Auth.APIKeys))
		for _, k := range c.API.Auth.APIKeys {
			if k.Key == "" {
				return errors.New("api key must not be empty")
			}
			if seenKeys[k.Key] {
				return fmt.Errorf("duplicate api key for principal %q", k.PrincipalID)
			}
			seenKeys[k.Key] = true
			if !principalIDs[k.PrincipalID] {
				return fmt.Errorf("api key references unknown principal %q", k.PrincipalID)
			}
		}
	}

	return nil
}

func ValidatePrincipals(principals []models.Principal) error {
	ids := make(map[string]bool, len(principals))
	for _, p := range principals {
		if p.ID == "" {
			return fmt.Errorf("principal %q has empty id", p.Name)
		}
		if ids[p.ID] {
			return fmt.Errorf("duplicate principal id found: %s", p.ID)
		}
		ids[p.ID] = true
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.Auth.HeaderExtra == "" {
		c.API.Auth.HeaderExtra = "x-api-extra"
	}
	if c.API.RateLimit.RPS == 0 {
		c.API.RateLimit.RPS = models.DefaultRateLimitRPS
	}
	if c.API.RateLimit.Burst == 0 {
		c.API.RateLimit.Burst = models.DefaultRateLimitBurst
	}

	if c.Booking.SweepInterval == 0 {
		c.Booking.SweepInterval = models.DefaultSweepInterval
	}
	if c.Booking.SlotCacheTTL == 0 {
		c.Booking.SlotCacheTTL = models.DefaultSlotCacheTTL
	}

	if c.Exports.Path == "" {
		c.Exports.Path = "./exports"
	}
}
