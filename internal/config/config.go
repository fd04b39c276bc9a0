// Package config reads the service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Storage backends for per-user state.
const (
	StorageMemory = "memory"
	StorageFile   = "file"
	StorageMongo  = "mongo"
)

// Provider names for geocoding and routing.
const (
	ProviderMapbox    = "mapbox"
	ProviderNominatim = "nominatim"
	ProviderOSRM      = "osrm"
)

// Config is the complete service configuration.
type Config struct {
	Port string

	MapboxToken      string
	MapboxBaseURL    string
	RouteProfile     string
	Geocoder         string
	NominatimBaseURL string
	Router           string
	OSRMBaseURL      string
	GeocodeCacheSize int
	HTTPTimeout      time.Duration

	Storage  string
	DataDir  string
	MongoURI string
	MongoDB  string

	MQTTBroker  string
	MQTTTopic   string
	KafkaBroker string
	KafkaTopic  string

	LogLevel  log.Level
	LogFormat string
}

// LoadDotEnv loads a .env file when one exists.
func LoadDotEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		log.Debug("No .env file found, assuming environment variables are set directly")
	}
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		MapboxToken:      os.Getenv("MAPBOX_TOKEN"),
		MapboxBaseURL:    getEnv("MAPBOX_BASE_URL", "https://api.mapbox.com"),
		RouteProfile:     getEnv("ROUTE_PROFILE", "walking"),
		Geocoder:         strings.ToLower(getEnv("GEOCODER", ProviderMapbox)),
		NominatimBaseURL: getEnv("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org"),
		Router:           strings.ToLower(getEnv("ROUTER", ProviderMapbox)),
		OSRMBaseURL:      getEnv("OSRM_BASE_URL", "https://router.project-osrm.org"),
		Storage:          strings.ToLower(getEnv("STORAGE", StorageFile)),
		DataDir:          getEnv("DATA_DIR", "data"),
		MongoURI:         os.Getenv("MONGO_URI"),
		MongoDB:          getEnv("MONGO_DB", "trip_planner"),
		MQTTBroker:       os.Getenv("MQTT_BROKER"),
		MQTTTopic:        getEnv("MQTT_TOPIC", "trips"),
		KafkaBroker:      os.Getenv("KAFKA_BROKER"),
		KafkaTopic:       getEnv("KAFKA_TOPIC", "trips.planned"),
		LogFormat:        strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	var errs []error

	size, err := strconv.Atoi(getEnv("GEOCODE_CACHE_SIZE", "256"))
	if err != nil || size < 0 {
		errs = append(errs, fmt.Errorf("GEOCODE_CACHE_SIZE must be a non-negative integer"))
	}
	cfg.GeocodeCacheSize = size

	timeout, err := time.ParseDuration(getEnv("HTTP_TIMEOUT", "10s"))
	if err != nil || timeout <= 0 {
		errs = append(errs, fmt.Errorf("HTTP_TIMEOUT must be a positive duration"))
	}
	cfg.HTTPTimeout = timeout

	level, err := log.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	cfg.LogLevel = level

	if err := cfg.validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	switch c.Geocoder {
	case ProviderMapbox, ProviderNominatim:
	default:
		errs = append(errs, fmt.Errorf("unknown GEOCODER %q", c.Geocoder))
	}
	switch c.Router {
	case ProviderMapbox, ProviderOSRM:
	default:
		errs = append(errs, fmt.Errorf("unknown ROUTER %q", c.Router))
	}
	if c.MapboxToken == "" && (c.Geocoder == ProviderMapbox || c.Router == ProviderMapbox) {
		errs = append(errs, errors.New("MAPBOX_TOKEN is required for the mapbox provider"))
	}
	switch c.Storage {
	case StorageMemory, StorageFile, StorageMongo:
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE %q", c.Storage))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown LOG_FORMAT %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

// ConfigureLogging applies the log level and formatter.
func (c *Config) ConfigureLogging() {
	log.SetLevel(c.LogLevel)
	if c.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
		return
	}
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}
