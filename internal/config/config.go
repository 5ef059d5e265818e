package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/flexprice/invoicedesk/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Server     ServerConfig     `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	Postgres   PostgresConfig
	PubSub     PubSubConfig `mapstructure:"pubsub" validate:"required"`
	Kafka      KafkaConfig
	Sentry     SentryConfig
	Cache      CacheConfig
	Templates  TemplatesConfig
	Ledger     LedgerConfig
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type ServerConfig struct {
	Address string `validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

type PostgresConfig struct {
	Enabled                bool   `mapstructure:"enabled"`
	Host                   string `mapstructure:"host"`
	Port                   int    `mapstructure:"port"`
	User                   string `mapstructure:"user"`
	Password               string `mapstructure:"password"`
	DBName                 string `mapstructure:"dbname"`
	SSLMode                string `mapstructure:"sslmode"`
	MaxOpenConns           int    `mapstructure:"max_open_conns"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes"`
	// ConnectRetrySeconds bounds the startup retry loop, 0 disables retries
	ConnectRetrySeconds int `mapstructure:"connect_retry_seconds"`
}

type PubSubConfig struct {
	Backend     types.PubSubType `mapstructure:"backend" validate:"required,oneof=memory kafka"`
	EventsTopic string           `mapstructure:"events_topic" validate:"required"`
	ExportTopic string           `mapstructure:"export_topic" validate:"required"`
}

type KafkaConfig struct {
	Brokers       []string `mapstructure:"brokers"`
	ConsumerGroup string   `mapstructure:"consumer_group"`
	ClientID      string   `mapstructure:"client_id"`
}

type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

type CacheConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// TemplatesConfig holds the template catalog and the free tier quota
type TemplatesConfig struct {
	FreeQuota int              `mapstructure:"free_quota" validate:"min=0"`
	Catalog   []TemplateConfig `mapstructure:"catalog" validate:"dive"`
}

type TemplateConfig struct {
	ID   string             `mapstructure:"id" validate:"required"`
	Name string             `mapstructure:"name"`
	Tier types.TemplateTier `mapstructure:"tier" validate:"required,oneof=FREE PRO"`
}

// LedgerConfig lists the tenants whose stores are seeded from the ledger at startup.
// Other tenants are seeded on first access.
type LedgerConfig struct {
	PreloadTenants []string `mapstructure:"preload_tenants"`
}

func NewConfig() (*Configuration, error) {
	// .env is optional and only used for local development
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/invoicedesk")

	v.SetEnvPrefix("INVOICEDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Error reading config file: %v\n", err)
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	} else {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", types.ModeLocal)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", types.LogLevelInfo)
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.max_open_conns", 10)
	v.SetDefault("postgres.max_idle_conns", 5)
	v.SetDefault("postgres.conn_max_lifetime_minutes", 30)
	v.SetDefault("postgres.connect_retry_seconds", 30)
	v.SetDefault("pubsub.backend", types.PubSubTypeMemory)
	v.SetDefault("pubsub.events_topic", "invoice_events")
	v.SetDefault("pubsub.export_topic", "invoice_exports")
	v.SetDefault("kafka.consumer_group", "invoicedesk")
	v.SetDefault("kafka.client_id", "invoicedesk")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("templates.free_quota", types.DefaultFreeTemplateQuota)
}

func (c Configuration) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.PubSub.Backend == types.PubSubTypeKafka && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when pubsub.backend is kafka")
	}
	return nil
}

// GetDefaultConfig returns a default configuration for local development
// This is useful for running scripts or other non-web applications
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		PubSub: PubSubConfig{
			Backend:     types.PubSubTypeMemory,
			EventsTopic: "invoice_events",
			ExportTopic: "invoice_exports",
		},
		Cache:     CacheConfig{Enabled: true},
		Templates: TemplatesConfig{FreeQuota: types.DefaultFreeTemplateQuota},
	}
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User,
		c.Password,
		c.DBName,
		c.Host,
		c.Port,
		c.SSLMode,
	)
}
