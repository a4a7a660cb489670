package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds typed configuration for the scheduler service.
type Config struct {
	LogLevel                string
	KafkaBrokers            string
	Topic                   string
	RedisAddr               string
	PostgresDSN             string
	Timezone                string
	RolloverSchedule        string
	LeaderboardSyncSchedule string
	LeaderboardSyncLimit    int
	MetricsAddr             string
	OTelEndpoint            string
	OTelSampleRatio         float64
}

// Load reads all values from the given viper instance.
func Load(v *viper.Viper) Config {
	return Config{
		LogLevel:                v.GetString("log_level"),
		KafkaBrokers:            v.GetString("kafka_brokers"),
		Topic:                   v.GetString("topic"),
		RedisAddr:               v.GetString("redis_addr"),
		PostgresDSN:             v.GetString("postgres_dsn"),
		Timezone:                v.GetString("timezone"),
		RolloverSchedule:        v.GetString("rollover_schedule"),
		LeaderboardSyncSchedule: v.GetString("leaderboard_sync_schedule"),
		LeaderboardSyncLimit:    v.GetInt("leaderboard_sync_limit"),
		MetricsAddr:             v.GetString("metrics_addr"),
		OTelEndpoint:            v.GetString("otel_endpoint"),
		OTelSampleRatio:         v.GetFloat64("otel_sample_ratio"),
	}
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
