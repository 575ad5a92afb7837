package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	MongoURI      string
	MongoDatabase string
	MongoTimeout  time.Duration

	// Upstream APIs. Keys are not validated here: a missing key fails the
	// dependent call at first use.
	FIRMSAPIKey       string
	FIRMSBaseURL      string
	FIRMSSource       string
	FIRMSArea         string
	FIRMSDays         int
	OpenWeatherAPIKey string
	OpenWeatherURL    string
	NominatimURL      string
	NominatimAgent    string
	NominatimRate     float64
	NominatimCache    int // LRU entries; 0 disables the cache
	GeminiAPIKey      string
	GeminiBaseURL     string
	GeminiModel       string
	UpstreamTimeout   time.Duration

	// Marker pipeline.
	SampleStride        int
	EnrichDelay         time.Duration
	RefreshInitialDelay time.Duration
	RefreshInterval     time.Duration
	AllowOverlap        bool
	ResetOnEmptyFeed    bool

	// Kafka marker event publishing.
	KafkaEnabled     bool
	KafkaBrokers     []string
	KafkaMarkerTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	mongoTimeout, err := parseDuration("MONGO_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	upstreamTimeout, err := parseDuration("UPSTREAM_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}
	enrichDelay, err := parseDuration("ENRICH_DELAY", "1s")
	if err != nil {
		return nil, err
	}
	initialDelay, err := parseDuration("REFRESH_INITIAL_DELAY", "10s")
	if err != nil {
		return nil, err
	}
	interval, err := parseDuration("REFRESH_INTERVAL", "6h")
	if err != nil {
		return nil, err
	}

	stride, err := parsePositiveInt("SAMPLE_STRIDE", 280)
	if err != nil {
		return nil, err
	}
	days, err := parsePositiveInt("FIRMS_DAYS", 7)
	if err != nil {
		return nil, err
	}
	if days > 10 {
		return nil, errors.New("FIRMS_DAYS must be between 1 and 10")
	}

	rate, err := strconv.ParseFloat(sharedcfg.EnvOrDefault("NOMINATIM_RATE", "1"), 64)
	if err != nil || rate <= 0 {
		return nil, errors.New("invalid NOMINATIM_RATE")
	}

	cacheSize, err := strconv.Atoi(sharedcfg.EnvOrDefault("NOMINATIM_CACHE_SIZE", "4096"))
	if err != nil || cacheSize < 0 {
		return nil, errors.New("invalid NOMINATIM_CACHE_SIZE")
	}

	allowOverlap, err := parseBool("REFRESH_ALLOW_OVERLAP", false)
	if err != nil {
		return nil, err
	}
	resetOnEmpty, err := parseBool("RESET_ON_EMPTY_FEED", false)
	if err != nil {
		return nil, err
	}
	kafkaEnabled, err := parseBool("KAFKA_ENABLED", false)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":5000"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		MongoURI:      sharedcfg.EnvOrDefault("MONGO_API", "mongodb://localhost:27017"),
		MongoDatabase: sharedcfg.EnvOrDefault("MONGO_DATABASE", "user_data"),
		MongoTimeout:  mongoTimeout,

		FIRMSAPIKey:       os.Getenv("FIRMS_API_KEY"),
		FIRMSBaseURL:      sharedcfg.EnvOrDefault("FIRMS_BASE_URL", "https://firms.modaps.eosdis.nasa.gov"),
		FIRMSSource:       sharedcfg.EnvOrDefault("FIRMS_SOURCE", "VIIRS_SNPP_NRT"),
		FIRMSArea:         sharedcfg.EnvOrDefault("FIRMS_AREA", "world"),
		FIRMSDays:         days,
		OpenWeatherAPIKey: os.Getenv("OPENWEATHER_API_KEY"),
		OpenWeatherURL:    sharedcfg.EnvOrDefault("OPENWEATHER_BASE_URL", "https://api.openweathermap.org"),
		NominatimURL:      sharedcfg.EnvOrDefault("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org"),
		NominatimAgent:    sharedcfg.EnvOrDefault("NOMINATIM_USER_AGENT", "wildfire-map-service/1.0"),
		NominatimRate:     rate,
		NominatimCache:    cacheSize,
		GeminiAPIKey:      os.Getenv("GEMINI"),
		GeminiBaseURL:     sharedcfg.EnvOrDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
		GeminiModel:       sharedcfg.EnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		UpstreamTimeout:   upstreamTimeout,

		SampleStride:        stride,
		EnrichDelay:         enrichDelay,
		RefreshInitialDelay: initialDelay,
		RefreshInterval:     interval,
		AllowOverlap:        allowOverlap,
		ResetOnEmptyFeed:    resetOnEmpty,

		KafkaEnabled:     kafkaEnabled,
		KafkaBrokers:     sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaMarkerTopic: sharedcfg.EnvOrDefault("KAFKA_MARKER_TOPIC", "wildfire-markers"),
	}

	if cfg.MongoURI == "" {
		return nil, errors.New("MONGO_API is required")
	}
	if cfg.RefreshInterval <= 0 {
		return nil, errors.New("REFRESH_INTERVAL must be positive")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
	}
	if cfg.KafkaEnabled && cfg.KafkaMarkerTopic == "" {
		return nil, errors.New("KAFKA_MARKER_TOPIC is required when KAFKA_ENABLED is true")
	}

	return cfg, nil
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}

func parseBool(key string, def bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s", key)
	}
	return b, nil
}
