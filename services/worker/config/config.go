package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds typed configuration for the worker service.
type Config struct {
	LogLevel           string
	KafkaBrokers       string
	Topic              string
	DLQTopic           string
	GroupID            string
	RedisAddr          string
	MaxRetries         int
	EventTimeout       time.Duration
	RetryBaseDelay     time.Duration
	RewardWebhookURL   string
	RewardWebhookToken string
	SMTPHost           string
	SMTPPort           int
	SMTPFrom           string
	SMTPUsername       string
	SMTPPassword       string
	MetricsAddr        string
	OTelEndpoint       string
	OTelSampleRatio    float64
}

// Load reads all values from the given viper instance.
func Load(v *viper.Viper) Config {
	return Config{
		LogLevel:           v.GetString("log_level"),
		KafkaBrokers:       v.GetString("kafka_brokers"),
		Topic:              v.GetString("topic"),
		DLQTopic:           v.GetString("dlq_topic"),
		GroupID:            v.GetString("group_id"),
		RedisAddr:          v.GetString("redis_addr"),
		MaxRetries:         v.GetInt("max_retries"),
		EventTimeout:       v.GetDuration("event_timeout"),
		RetryBaseDelay:     v.GetDuration("retry_base_delay"),
		RewardWebhookURL:   v.GetString("reward_webhook_url"),
		RewardWebhookToken: v.GetString("reward_webhook_token"),
		SMTPHost:           v.GetString("smtp_host"),
		SMTPPort:           v.GetInt("smtp_port"),
		SMTPFrom:           v.GetString("smtp_from"),
		SMTPUsername:       v.GetString("smtp_username"),
		SMTPPassword:       v.GetString("smtp_password"),
		MetricsAddr:        v.GetString("metrics_addr"),
		OTelEndpoint:       v.GetString("otel_endpoint"),
		OTelSampleRatio:    v.GetFloat64("otel_sample_ratio"),
	}
}
