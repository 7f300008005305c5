package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Broker   BrokerConfig
	Topics   Topics
	Sync     SyncConfig
	Server   ServerConfig
	Auth     AuthConfig
	Database DatabaseConfig
}

// BrokerConfig holds the pub/sub broker endpoint selection
type BrokerConfig struct {
	URL               string // explicit override, wins over the secure/plain pair
	Secure            bool
	SecureURL         string
	PlainURL          string
	Username          string
	Password          string
	ClientPrefix      string
	ReconnectInterval time.Duration
}

// Endpoint returns the broker URL the transport should dial
func (b BrokerConfig) Endpoint() string {
	if b.URL != "" {
		return b.URL
	}
	if b.Secure {
		return b.SecureURL
	}
	return b.PlainURL
}

// SyncConfig holds settings of the synchronization core
type SyncConfig struct {
	QueueSize          int
	ActivitySentinel   string
	DefaultOperator    string
	DefaultDestination string
	DefaultSupplier    string
	ActionTimeout      time.Duration
	WatchdogSchedule   string
	WarehouseCapacity  int
	// RateCardGrace is how long a fresh start waits for a retained rate
	// card before publishing the built-in defaults
	RateCardGrace time.Duration
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port        string
	FrontendDir string
}

// AuthConfig holds operator authentication settings
type AuthConfig struct {
	JWTSecret string
	Operators map[string]string // operator name -> bcrypt hash
}

// Enabled reports whether mutating routes require a bearer token
func (a AuthConfig) Enabled() bool { return a.JWTSecret != "" }

// DatabaseConfig holds journal database configuration
type DatabaseConfig struct {
	JournalEnabled bool
	Host           string
	Port           string
	Username       string
	Password       string
	Database       string
}

// Load reads the optional env file and materializes a Config from the environment
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
		}
	} else {
		// A missing .env is fine, the environment may be set directly
		_ = godotenv.Load()
	}

	topics := DefaultTopics(getEnv("TOPIC_PREFIX", DefaultTopicPrefix))
	if path := os.Getenv("TOPICS_FILE"); path != "" {
		overridden, err := LoadTopicsFile(path, topics)
		if err != nil {
			return nil, err
		}
		topics = overridden
	}

	operators, err := parseOperators(os.Getenv("OPERATORS"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Broker: BrokerConfig{
			URL:               os.Getenv("BROKER_URL"),
			Secure:            getBoolEnv("BROKER_SECURE", false),
			SecureURL:         getEnv("BROKER_URL_SECURE", "wss://supos-ce-instance1.supos.app:8084/mqtt"),
			PlainURL:          getEnv("BROKER_URL_PLAIN", "ws://13.229.82.59:8083/mqtt"),
			Username:          os.Getenv("BROKER_USERNAME"),
			Password:          os.Getenv("BROKER_PASSWORD"),
			ClientPrefix:      getEnv("BROKER_CLIENT_PREFIX", "eckcosting"),
			ReconnectInterval: getDurationEnv("BROKER_RECONNECT_INTERVAL", 5*time.Second),
		},
		Topics: topics,
		Sync: SyncConfig{
			QueueSize:          getIntEnv("QUEUE_SIZE", 256),
			ActivitySentinel:   getEnv("ACTIVITY_SENTINEL", "Placeholder"),
			DefaultOperator:    getEnv("DEFAULT_OPERATOR", "Operator_01"),
			DefaultDestination: getEnv("DEFAULT_DESTINATION", "Shanghai"),
			DefaultSupplier:    getEnv("DEFAULT_SUPPLIER", "Warehouse Supplier A"),
			ActionTimeout:      getDurationEnv("ACTION_TIMEOUT", 5*time.Minute),
			WatchdogSchedule:   getEnv("WATCHDOG_SCHEDULE", "@every 30s"),
			WarehouseCapacity:  getIntEnv("WAREHOUSE_CAPACITY", 20),
			RateCardGrace:      getDurationEnv("RATE_CARD_GRACE", 3*time.Second),
		},
		Server: ServerConfig{
			Port:        getEnv("PORT", "3210"),
			FrontendDir: os.Getenv("FRONTEND_DIR"),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("JWT_SECRET"),
			Operators: operators,
		},
		Database: DatabaseConfig{
			JournalEnabled: getBoolEnv("JOURNAL_ENABLED", false),
			Host:           getEnv("PG_HOST", "localhost"),
			Port:           getEnv("PG_PORT", "5432"),
			Username:       getEnv("PG_USERNAME", "postgres"),
			Password:       os.Getenv("PG_PASSWORD"),
			Database:       getEnv("PG_DATABASE", "eckcosting"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate ensures that required configuration fields are populated
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Broker.Endpoint() == "" {
		return errors.New("broker endpoint must be provided (BROKER_URL or BROKER_URL_PLAIN/BROKER_URL_SECURE)")
	}
	if c.Sync.QueueSize < 1 {
		return errors.New("QUEUE_SIZE must be at least 1")
	}
	if c.Sync.WarehouseCapacity < 1 {
		return errors.New("WAREHOUSE_CAPACITY must be at least 1")
	}
	if err := c.Topics.Validate(); err != nil {
		return err
	}
	return nil
}

// parseOperators reads "name:hash,name:hash"
func parseOperators(raw string) (map[string]string, error) {
	operators := make(map[string]string)
	if strings.TrimSpace(raw) == "" {
		return operators, nil
	}
	for _, pair := range strings.Split(raw, ",") {
		name, hash, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok || name == "" || hash == "" {
			return nil, fmt.Errorf("invalid OPERATORS entry %q, expected name:bcrypt-hash", pair)
		}
		operators[name] = hash
	}
	return operators, nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
