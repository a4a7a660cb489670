package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/ramiqadoumi/go-drive-quest/internal/progress"
)

// Config holds typed configuration for the api service.
type Config struct {
	LogLevel        string
	HTTPPort        string
	MetricsAddr     string
	KafkaBrokers    string
	Topic           string
	RedisAddr       string
	PostgresDSN     string
	JWTSecret       string
	JWTIssuer       string
	TokenTTL        time.Duration
	Timezone        string
	ResetPolicy     string
	StreakTaskID    int
	CacheTTL        time.Duration
	LocalCacheSize  int
	LocalCacheTTL   time.Duration
	LoginRateLimit  int
	LoginRateWindow time.Duration
	OTelEndpoint    string
	OTelSampleRatio float64
}

// Load reads all values from the given viper instance.
func Load(v *viper.Viper) Config {
	return Config{
		LogLevel:        v.GetString("log_level"),
		HTTPPort:        v.GetString("http_port"),
		MetricsAddr:     v.GetString("metrics_addr"),
		KafkaBrokers:    v.GetString("kafka_brokers"),
		Topic:           v.GetString("topic"),
		RedisAddr:       v.GetString("redis_addr"),
		PostgresDSN:     v.GetString("postgres_dsn"),
		JWTSecret:       v.GetString("jwt_secret"),
		JWTIssuer:       v.GetString("jwt_issuer"),
		TokenTTL:        v.GetDuration("token_ttl"),
		Timezone:        v.GetString("timezone"),
		ResetPolicy:     v.GetString("reset_policy"),
		StreakTaskID:    v.GetInt("streak_task_id"),
		CacheTTL:        v.GetDuration("cache_ttl"),
		LocalCacheSize:  v.GetInt("local_cache_size"),
		LocalCacheTTL:   v.GetDuration("local_cache_ttl"),
		LoginRateLimit:  v.GetInt("login_rate_limit"),
		LoginRateWindow: v.GetDuration("login_rate_window"),
		OTelEndpoint:    v.GetString("otel_endpoint"),
		OTelSampleRatio: v.GetFloat64("otel_sample_ratio"),
	}
}

// Validate rejects settings the service cannot start with.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("jwt_secret must be set")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token_ttl must be positive, got %s", c.TokenTTL)
	}
	if c.StreakTaskID < 0 {
		return fmt.Errorf("streak_task_id must not be negative, got %d", c.StreakTaskID)
	}
	if _, err := c.Policy(); err != nil {
		return err
	}
	_, err := c.Location()
	return err
}

// Location resolves Timezone; empty means UTC.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Policy parses ResetPolicy.
func (c Config) Policy() (progress.ResetPolicy, error) {
	return progress.ParseResetPolicy(c.ResetPolicy)
}
