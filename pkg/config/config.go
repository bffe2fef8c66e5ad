package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppConfig holds the complete configuration for the application
type AppConfig struct {
	Environment string         `mapstructure:"environment"`
	LogLevel    string         `mapstructure:"log_level"`
	ServiceName string         `mapstructure:"service_name"`
	HTTP        HTTPConfig     `mapstructure:"http"`
	MongoDB     MongoConfig    `mapstructure:"mongodb"`
	Redis       RedisConfig    `mapstructure:"redis"`
	Kafka       KafkaConfig    `mapstructure:"kafka"`
	Postgres    PostgresConfig `mapstructure:"postgres"`
	Exporter    ExporterConfig `mapstructure:"exporter"`
}

type HTTPConfig struct {
	Addr           string        `mapstructure:"addr"`
	ObsAddr        string        `mapstructure:"obs_addr"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
}

type MongoConfig struct {
	URI            string        `mapstructure:"uri"`
	Database       string        `mapstructure:"database"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// RedisConfig enables the leaderboard cache when Addr is set
type RedisConfig struct {
	Addr           string        `mapstructure:"addr"`
	LeaderboardTTL time.Duration `mapstructure:"leaderboard_ttl"`
}

// KafkaConfig enables the game-event publisher when Brokers is set
type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type PostgresConfig struct {
	URI      string `mapstructure:"uri"`
	MaxConns int    `mapstructure:"max_conns"`
	MinConns int    `mapstructure:"min_conns"`
}

type ExporterConfig struct {
	BatchSize      int           `mapstructure:"batch_size"`
	FlushInterval  time.Duration `mapstructure:"flush_interval"`
	CheckpointPath string        `mapstructure:"checkpoint_path"`
}

// Load loads configuration from file and environment variables
func Load(path string) (*AppConfig, error) {
	v := viper.New()

	// Default values
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("http.addr", ":8000")
	v.SetDefault("http.obs_addr", ":9090")
	v.SetDefault("http.allowed_origins", []string{"*"})
	v.SetDefault("http.read_timeout", 10*time.Second)
	v.SetDefault("http.write_timeout", 10*time.Second)
	v.SetDefault("mongodb.connect_timeout", 10*time.Second)
	v.SetDefault("mongodb.database", "plastic_bag_king")
	v.SetDefault("redis.leaderboard_ttl", 30*time.Second)
	v.SetDefault("kafka.topic", "game-events")
	v.SetDefault("postgres.max_conns", 20)
	v.SetDefault("postgres.min_conns", 2)
	v.SetDefault("exporter.batch_size", 500)
	v.SetDefault("exporter.flush_interval", time.Second)
	v.SetDefault("exporter.checkpoint_path", "export_checkpoint.bin")

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Config file
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	// Bind environment variables explicitly for nested structs to ensure Unmarshal picks them up
	v.BindEnv("service_name", "SERVICE_NAME")
	v.BindEnv("environment", "ENVIRONMENT")
	v.BindEnv("log_level", "LOG_LEVEL")
	v.BindEnv("http.addr", "HTTP_ADDR")
	v.BindEnv("http.obs_addr", "HTTP_OBS_ADDR")
	v.BindEnv("http.allowed_origins", "HTTP_ALLOWED_ORIGINS")
	v.BindEnv("mongodb.uri", "MONGODB_URI")
	v.BindEnv("mongodb.database", "MONGODB_DATABASE")
	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("redis.leaderboard_ttl", "REDIS_LEADERBOARD_TTL")
	v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("kafka.topic", "KAFKA_TOPIC")
	v.BindEnv("postgres.uri", "POSTGRES_URI")
	v.BindEnv("postgres.max_conns", "POSTGRES_MAX_CONNS")
	v.BindEnv("postgres.min_conns", "POSTGRES_MIN_CONNS")
	v.BindEnv("exporter.batch_size", "EXPORTER_BATCH_SIZE")
	v.BindEnv("exporter.flush_interval", "EXPORTER_FLUSH_INTERVAL")
	v.BindEnv("exporter.checkpoint_path", "EXPORTER_CHECKPOINT_PATH")

	var config AppConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Comma-separated lists arriving from a single env var need a manual split
	if brokers := v.GetString("kafka.brokers"); brokers != "" && len(config.Kafka.Brokers) <= 1 {
		config.Kafka.Brokers = strings.Split(brokers, ",")
	}
	if origins := v.GetString("http.allowed_origins"); origins != "" && strings.Contains(origins, ",") {
		config.HTTP.AllowedOrigins = strings.Split(origins, ",")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *AppConfig) Validate() error {
	if c.ServiceName == "" {
		return errors.New("service_name is required")
	}
	if c.MongoDB.URI == "" {
		return errors.New("mongodb.uri is required")
	}
	if c.MongoDB.Database == "" {
		return errors.New("mongodb.database is required")
	}
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return errors.New("kafka.topic is required when brokers are set")
	}
	return nil
}

// EventsEnabled reports whether the Kafka game-event publisher is configured
func (c *AppConfig) EventsEnabled() bool {
	return len(c.Kafka.Brokers) > 0
}

// CacheEnabled reports whether the Redis leaderboard cache is configured
func (c *AppConfig) CacheEnabled() bool {
	return c.Redis.Addr != ""
}
