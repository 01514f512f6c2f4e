package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the process configuration of the orders service and the outbox
// relay worker.
type Config struct {
	ServiceName string    `mapstructure:"service_name"`
	Env         string    `mapstructure:"env"`
	Port        string    `mapstructure:"port"`
	Database    Database  `mapstructure:"database"`
	Kafka       Kafka     `mapstructure:"kafka"`
	Redis       Redis     `mapstructure:"redis"`
	Gateway     Gateway   `mapstructure:"gateway"`
	Payments    Payments  `mapstructure:"payments"`
	Outbox      Outbox    `mapstructure:"outbox"`
	Telemetry   Telemetry `mapstructure:"telemetry"`
}

type Database struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

type Kafka struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type Gateway struct {
	// BaseURL is the public API gateway base, used both to call the payment
	// participant and to build payment links.
	BaseURL string `mapstructure:"base_url"`
}

type Payments struct {
	// Strict disables the legacy lenient fallback in the outbox relay.
	Strict         bool `mapstructure:"strict"`
	TimeoutSeconds int  `mapstructure:"timeout_seconds"`
}

type Outbox struct {
	PollIntervalSeconds int `mapstructure:"poll_interval_seconds"`
}

type Telemetry struct {
	Enabled      bool   `mapstructure:"enabled"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

// ReadConfig loads configuration from an optional config file plus ORDERS_*
// environment overrides, falling back to local-development defaults.
func ReadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.AutomaticEnv()
	v.SetEnvPrefix("ORDERS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service_name", "orders-service")
	v.SetDefault("env", "local")
	v.SetDefault("port", "8081")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.database", "orders")
	v.SetDefault("database.ssl_mode", "disable")

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "order-saga-events")
	v.SetDefault("kafka.group_id", "orders-service")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("gateway.base_url", "http://api-gateway:8080")

	v.SetDefault("payments.strict", false)
	v.SetDefault("payments.timeout_seconds", 10)

	v.SetDefault("outbox.poll_interval_seconds", 5)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.otlp_endpoint", "localhost:4318")
}

// DatabaseURL builds the postgres connection string.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// PaymentTimeout returns the payment call timeout as a duration.
func (c *Config) PaymentTimeout() time.Duration {
	return time.Duration(c.Payments.TimeoutSeconds) * time.Second
}

// OutboxPollInterval returns the relay poll interval as a duration.
func (c *Config) OutboxPollInterval() time.Duration {
	return time.Duration(c.Outbox.PollIntervalSeconds) * time.Second
}
