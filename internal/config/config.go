package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gtanker/ercot-spp-sellback/internal/ercot"
	"github.com/gtanker/ercot-spp-sellback/internal/models"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Kafka    KafkaConfig
	Redis    RedisConfig
	Poller   PollerConfig
	Sellback SellbackConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
	Host string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Brokers      []string
	EventsTopic  string // outbound price/earnings events
	MeterTopic   string // inbound cumulative export readings
	MeterGroupID string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// PollerConfig holds the ERCOT fetch schedule configuration
type PollerConfig struct {
	SourceURL    string
	Interval     time.Duration
	FetchTimeout time.Duration
}

// SellbackConfig holds the zone and buyback terms
type SellbackConfig struct {
	Zone     models.Zone
	Fraction decimal.Decimal // portion of SPP paid for exports, in (0, 1]
}

// MinPollInterval is the floor for the poll schedule; ERCOT publishes new
// intervals every five minutes and sub-minute polling is disallowed.
const MinPollInterval = time.Minute

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "ercotsellback"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Kafka: KafkaConfig{
			Brokers:      []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			EventsTopic:  getEnv("KAFKA_EVENTS_TOPIC", "ercot-events"),
			MeterTopic:   getEnv("KAFKA_METER_TOPIC", "meter-readings"),
			MeterGroupID: getEnv("KAFKA_METER_GROUP_ID", "ercot-sellback"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Poller: PollerConfig{
			SourceURL:    getEnv("ERCOT_SOURCE_URL", ercot.DefaultURL),
			Interval:     getEnvDuration("POLL_INTERVAL", 5*time.Minute),
			FetchTimeout: getEnvDuration("FETCH_TIMEOUT", 30*time.Second),
		},
		Sellback: SellbackConfig{
			Zone:     models.Zone(getEnv("ERCOT_ZONE", string(models.ZoneLoadNorth))),
			Fraction: getEnvDecimal("SELLBACK_FRACTION", "0.90"),
		},
	}
}

// Validate checks the loaded configuration for values the core cannot
// operate with. The zone is immutable after startup, so a bad zone must be
// rejected here rather than discovered as a recurring poll failure.
func (c *Config) Validate() error {
	if !c.Sellback.Zone.Valid() {
		return fmt.Errorf("invalid ERCOT_ZONE %q: %w", c.Sellback.Zone, models.ErrUnknownZone)
	}
	if c.Sellback.Fraction.LessThanOrEqual(decimal.Zero) || c.Sellback.Fraction.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("SELLBACK_FRACTION must be in (0, 1], got %s", c.Sellback.Fraction)
	}
	if c.Poller.Interval < MinPollInterval {
		return fmt.Errorf("POLL_INTERVAL must be at least %s, got %s", MinPollInterval, c.Poller.Interval)
	}
	if c.Poller.FetchTimeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT must be positive, got %s", c.Poller.FetchTimeout)
	}
	return nil
}

// ConnectionString returns the PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.DBName + "?sslmode=" + d.SSLMode
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvDecimal(key, defaultValue string) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	d, _ := decimal.NewFromString(defaultValue)
	return d
}
