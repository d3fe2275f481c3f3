package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Environment    string        `mapstructure:"environment"`
	ServerAddress  string        `mapstructure:"server.address"`
	ServerTimeout  time.Duration `mapstructure:"server.timeout"`
	MetricsEnabled bool          `mapstructure:"metrics_enabled"`
	LogLevel       string        `mapstructure:"logging.level"`
	LogFormat      string        `mapstructure:"logging.format"`
	DB             DatabaseConfig
	Redis          RedisConfig
	Azure          AzureConfig
	Elastic        ElasticConfig
	Tracing        TracingConfig
	Worker         WorkerConfig
	AI             AIConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host       string `mapstructure:"database.host"`
	Port       int    `mapstructure:"database.port"`
	User       string `mapstructure:"database.user"`
	Password   string `mapstructure:"database.password"`
	DBName     string `mapstructure:"database.name"`
	SSLMode    string `mapstructure:"database.ssl_mode"`
	LogQueries bool   `mapstructure:"database.log_queries"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string `mapstructure:"redis.host"`
	Port     int    `mapstructure:"redis.port"`
	Password string `mapstructure:"redis.password"`
	DB       int    `mapstructure:"redis.db"`
	Enabled  bool   `mapstructure:"redis.enabled"`
}

// AzureConfig holds Azure Service Bus configuration
type AzureConfig struct {
	QueueConnStr string `mapstructure:"azure.queue_conn_str"`
	QueueName    string `mapstructure:"azure.queue_name"`
}

// ElasticConfig holds Elasticsearch configuration
type ElasticConfig struct {
	URL      string `mapstructure:"elastic.url"`
	Username string `mapstructure:"elastic.username"`
	Password string `mapstructure:"elastic.password"`
	Prefix   string `mapstructure:"elastic.prefix"`
	Enabled  bool   `mapstructure:"elastic.enabled"`
}

// TracingConfig holds tracing configuration
type TracingConfig struct {
	LicenseKey     string `mapstructure:"tracing.license_key"`
	AppName        string `mapstructure:"tracing.app_name"`
	LogLevel       string `mapstructure:"tracing.log_level"`
	LogEnabled     bool   `mapstructure:"tracing.log_enabled"`
	DistribTracing bool   `mapstructure:"tracing.distributed_tracing_enabled"`
}

// WorkerConfig holds background worker configuration
type WorkerConfig struct {
	OverdueInterval    time.Duration `mapstructure:"worker.overdue_interval"`
	StalledInterval    time.Duration `mapstructure:"worker.stalled_interval"`
	DayCounterInterval time.Duration `mapstructure:"worker.day_counter_interval"`
	CleanupInterval    time.Duration `mapstructure:"worker.cleanup_interval"`
	StalledAfter       time.Duration `mapstructure:"worker.stalled_after"`
	DeadlineWindow     time.Duration `mapstructure:"worker.deadline_window"`
}

// AIConfig holds AI provider configuration
type AIConfig struct {
	Enabled         bool   `mapstructure:"ai.enabled"`
	Provider        string `mapstructure:"ai.provider"`
	APIKey          string `mapstructure:"ai.api_key"`
	Model           string `mapstructure:"ai.model"`
	RiskAssessment  bool   `mapstructure:"ai.risk_assessment"`
	Recommendations bool   `mapstructure:"ai.recommendations"`
	Timeline        bool   `mapstructure:"ai.timeline"`
}

// LoadConfig reads configuration from file or environment variables
func LoadConfig(path string) (Config, error) {
	v := viper.New()

	setDefaults(v)

	v.AddConfigPath(path)
	v.AddConfigPath("./config")
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			v.SetConfigName("app")
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				// Continue even if no config file is found - ENV vars and defaults apply
				fmt.Printf("Warning: No configuration file found: %v\n", err)
			}
		} else {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("TRACKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("unable to unmarshal config: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("server.address", "0.0.0.0:8080")
	v.SetDefault("server.timeout", "30s")
	v.SetDefault("metrics_enabled", true)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "tracker")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.log_queries", false)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.enabled", true)

	v.SetDefault("azure.queue_name", "tracker-alerts")

	v.SetDefault("elastic.url", "http://localhost:9200")
	v.SetDefault("elastic.prefix", "tracker")
	v.SetDefault("elastic.enabled", true)

	v.SetDefault("tracing.app_name", "Tracker Service")
	v.SetDefault("tracing.log_level", "info")
	v.SetDefault("tracing.log_enabled", true)
	v.SetDefault("tracing.distributed_tracing_enabled", true)

	v.SetDefault("worker.overdue_interval", "1h")
	v.SetDefault("worker.stalled_interval", "6h")
	v.SetDefault("worker.day_counter_interval", "24h")
	v.SetDefault("worker.cleanup_interval", "24h")
	v.SetDefault("worker.stalled_after", "336h")
	v.SetDefault("worker.deadline_window", "72h")

	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.provider", "local")
	v.SetDefault("ai.model", "")
	v.SetDefault("ai.risk_assessment", true)
	v.SetDefault("ai.recommendations", true)
	v.SetDefault("ai.timeline", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// FormatIndex formats an Elasticsearch index name with the configured prefix
func FormatIndex(cfg ElasticConfig, index string) string {
	return cfg.Prefix + "-" + index
}
