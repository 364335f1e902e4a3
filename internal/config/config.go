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

// Config holds all service settings, populated from environment variables
// (optionally seeded from a .env file).
type Config struct {
	KafkaBrokers   []string
	KafkaFeedTopic string
	KafkaGroupID   string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Document store (incident collection + sub-records).
	DocstoreBaseURL string
	DocstoreTimeout time.Duration

	// Geospatial index (nearby emergency resources).
	OverpassURL     string
	OverpassTimeout time.Duration
	POIRadiusMeters int

	// Alert queue. Disabled when RedisAddr is empty.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	AlertQueueKey string

	// Operator identity.
	JWTSecret     string
	OperatorToken string
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is loaded first if
// present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	shutdownTimeout, err := envDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	docstoreTimeout, err := envDuration("DOCSTORE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	overpassTimeout, err := envDuration("OVERPASS_TIMEOUT", 25*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		KafkaBrokers:   splitBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaFeedTopic: envOrDefault("KAFKA_FEED_TOPIC", "incident-snapshots"),
		KafkaGroupID:   envOrDefault("KAFKA_GROUP_ID", "dispatch-console"),

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DocstoreBaseURL: os.Getenv("DOCSTORE_BASE_URL"),
		DocstoreTimeout: docstoreTimeout,

		OverpassURL:     envOrDefault("OVERPASS_URL", "https://overpass-api.de/api/interpreter"),
		OverpassTimeout: overpassTimeout,
		POIRadiusMeters: envInt("POI_RADIUS_METERS", 5000),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),
		AlertQueueKey: envOrDefault("ALERT_QUEUE_KEY", "dispatch:alerts"),

		JWTSecret:     os.Getenv("JWT_SECRET"),
		OperatorToken: os.Getenv("OPERATOR_TOKEN"),
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaFeedTopic == "" {
		return nil, errors.New("KAFKA_FEED_TOPIC is required")
	}
	if cfg.DocstoreBaseURL == "" {
		return nil, errors.New("DOCSTORE_BASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.POIRadiusMeters <= 0 {
		return nil, errors.New("invalid POI_RADIUS_METERS")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func splitBrokers(s string) []string {
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}
