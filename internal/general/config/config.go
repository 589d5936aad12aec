package config

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
)

type Config struct {
	Database struct {
		Host     string
		Port     int
		User     string
		Password string
		Name     string // YAML key: "database"
	}
	RabbitMQ struct {
		Host     string
		Port     int
		User     string
		Password string
	}
	Services struct {
		TrackingServicePort int
		AdminServicePort    int
	}
	JWT struct {
		SecretKey string
	}
	Limits struct {
		LocationUpdatesPerMinute int
		TrackRequestsPerMinute   int
		HTTPRequestsPerSecond    int
	}
}

// LoadFromFile loads config from a YAML file to a Config struct, applies defaults, and validates required fields.
func LoadFromFile(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := parseYAML(file, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets safe defaults for some fields.
func applyDefaults(cfg *Config) {
	// Database
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}

	// RabbitMQ
	if cfg.RabbitMQ.Host == "" {
		cfg.RabbitMQ.Host = "localhost"
	}
	if cfg.RabbitMQ.Port == 0 {
		cfg.RabbitMQ.Port = 5672
	}

	// Services
	if cfg.Services.TrackingServicePort == 0 {
		cfg.Services.TrackingServicePort = 3000
	}
	if cfg.Services.AdminServicePort == 0 {
		cfg.Services.AdminServicePort = 3004
	}

	// JWT: generate an ephemeral secret for local runs when none is configured
	if strings.TrimSpace(cfg.JWT.SecretKey) == "" {
		cfg.JWT.SecretKey = randomSecret()
	}

	// Rate limits (per connection per minute for WS events)
	if cfg.Limits.LocationUpdatesPerMinute == 0 {
		cfg.Limits.LocationUpdatesPerMinute = 60
	}
	if cfg.Limits.TrackRequestsPerMinute == 0 {
		cfg.Limits.TrackRequestsPerMinute = 10
	}
	if cfg.Limits.HTTPRequestsPerSecond == 0 {
		cfg.Limits.HTTPRequestsPerSecond = 20
	}
}

// validate checks that the required fields are present.
func (cfg *Config) validate() error {
	var missing []string

	if strings.TrimSpace(cfg.Database.User) == "" {
		missing = append(missing, "database.user")
	}
	if strings.TrimSpace(cfg.Database.Password) == "" {
		missing = append(missing, "database.password")
	}
	if strings.TrimSpace(cfg.Database.Name) == "" {
		missing = append(missing, "database.database")
	}
	if strings.TrimSpace(cfg.RabbitMQ.User) == "" {
		missing = append(missing, "rabbitmq.user")
	}
	if strings.TrimSpace(cfg.RabbitMQ.Password) == "" {
		missing = append(missing, "rabbitmq.password")
	}

	if len(missing) > 0 {
		return errors.New("missing required keys: " + strings.Join(missing, ", "))
	}

	if cfg.Services.TrackingServicePort == cfg.Services.AdminServicePort {
		return errors.New("tracking_service_port and admin_service_port must differ")
	}
	if cfg.Limits.LocationUpdatesPerMinute < 0 || cfg.Limits.TrackRequestsPerMinute < 0 {
		return errors.New("limits must not be negative")
	}

	return nil
}

// randomSecret returns a base64 string of 32 random bytes.
func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		// extremely unlikely; a fixed dev fallback beats a crash at startup
		return "dev-only-insecure-secret"
	}
	return base64.RawStdEncoding.EncodeToString(b)
}
