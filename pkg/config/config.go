package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"
)

// Config holds the configuration for a Circadia agent.
type Config struct {
	// MQTT configuration
	MQTTBroker   string
	MQTTPort     int
	MQTTUser     string
	MQTTPassword string
	MQTTClientID string

	// Redis configuration
	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int

	// Postgres configuration
	PostgresHost            string
	PostgresPort            int
	PostgresUser            string
	PostgresPassword        string
	PostgresDB              string
	PostgresSSLMode         string
	PostgresMaxConnections  int
	PostgresMaxIdleConns    int
	PostgresConnMaxLifetime time.Duration

	// Service configuration
	ServiceName string
	HealthPort  int
	LogLevel    string

	// Sample ingestion configuration
	SampleTopics     []string
	MaxSampleHistory int
	SampleTTLHours   float64

	// Geographic position for daylight context
	Latitude  float64
	Longitude float64

	// Detector configuration
	FrameSampleRegions    int
	FrameNeutralThreshold float64
	CameraEnabled         bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		MQTTBroker:   "localhost",
		MQTTPort:     1883,
		MQTTUser:     "",
		MQTTPassword: "",
		MQTTClientID: "",

		RedisHost:     "localhost",
		RedisPort:     6379,
		RedisPassword: "",
		RedisDB:       0,

		PostgresHost:            "localhost",
		PostgresPort:            5432,
		PostgresUser:            "circadia",
		PostgresPassword:        "",
		PostgresDB:              "circadia",
		PostgresSSLMode:         "disable",
		PostgresMaxConnections:  10,
		PostgresMaxIdleConns:    5,
		PostgresConnMaxLifetime: 30 * time.Minute,

		ServiceName: "circadia-agent",
		HealthPort:  8080,
		LogLevel:    "info",

		SampleTopics:     []string{"circadia/raw/+/+"},
		MaxSampleHistory: 5000,
		SampleTTLHours:   48.0,

		// Helsinki defaults, matching the reference deployment
		Latitude:  60.1695,
		Longitude: 24.9354,

		FrameSampleRegions:    4,
		FrameNeutralThreshold: 0.1,
		CameraEnabled:         false,
	}
}

// LoadFromEnv loads configuration from environment variables with the
// CIRCADIA_ prefix.
func (c *Config) LoadFromEnv() {
	if v := os.Getenv("CIRCADIA_MQTT_BROKER"); v != "" {
		c.MQTTBroker = v
	}
	if v := os.Getenv("CIRCADIA_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.MQTTPort = port
		}
	}
	if v := os.Getenv("CIRCADIA_MQTT_USER"); v != "" {
		c.MQTTUser = v
	}
	if v := os.Getenv("CIRCADIA_MQTT_PASSWORD"); v != "" {
		c.MQTTPassword = v
	}
	if v := os.Getenv("CIRCADIA_MQTT_CLIENT_ID"); v != "" {
		c.MQTTClientID = v
	}

	if v := os.Getenv("CIRCADIA_REDIS_HOST"); v != "" {
		c.RedisHost = v
	}
	if v := os.Getenv("CIRCADIA_REDIS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.RedisPort = port
		}
	}
	if v := os.Getenv("CIRCADIA_REDIS_PASSWORD"); v != "" {
		c.RedisPassword = v
	}
	if v := os.Getenv("CIRCADIA_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.RedisDB = db
		}
	}

	if v := os.Getenv("CIRCADIA_POSTGRES_HOST"); v != "" {
		c.PostgresHost = v
	}
	if v := os.Getenv("CIRCADIA_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.PostgresPort = port
		}
	}
	if v := os.Getenv("CIRCADIA_POSTGRES_USER"); v != "" {
		c.PostgresUser = v
	}
	if v := os.Getenv("CIRCADIA_POSTGRES_PASSWORD"); v != "" {
		c.PostgresPassword = v
	}
	if v := os.Getenv("CIRCADIA_POSTGRES_DB"); v != "" {
		c.PostgresDB = v
	}
	if v := os.Getenv("CIRCADIA_POSTGRES_SSL_MODE"); v != "" {
		c.PostgresSSLMode = v
	}
	if v := os.Getenv("CIRCADIA_POSTGRES_MAX_CONNECTIONS"); v != "" {
		if conns, err := strconv.Atoi(v); err == nil {
			c.PostgresMaxConnections = conns
		}
	}

	if v := os.Getenv("CIRCADIA_SERVICE_NAME"); v != "" {
		c.ServiceName = v
	}
	if v := os.Getenv("CIRCADIA_HEALTH_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.HealthPort = port
		}
	}
	if v := os.Getenv("CIRCADIA_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}

	if v := os.Getenv("CIRCADIA_MAX_SAMPLE_HISTORY"); v != "" {
		if max, err := strconv.Atoi(v); err == nil {
			c.MaxSampleHistory = max
		}
	}
	if v := os.Getenv("CIRCADIA_SAMPLE_TTL_HOURS"); v != "" {
		if hours, err := strconv.ParseFloat(v, 64); err == nil {
			c.SampleTTLHours = hours
		}
	}

	if v := os.Getenv("CIRCADIA_LATITUDE"); v != "" {
		if lat, err := strconv.ParseFloat(v, 64); err == nil {
			c.Latitude = lat
		}
	}
	if v := os.Getenv("CIRCADIA_LONGITUDE"); v != "" {
		if lon, err := strconv.ParseFloat(v, 64); err == nil {
			c.Longitude = lon
		}
	}

	if v := os.Getenv("CIRCADIA_FRAME_SAMPLE_REGIONS"); v != "" {
		if regions, err := strconv.Atoi(v); err == nil {
			c.FrameSampleRegions = regions
		}
	}
	if v := os.Getenv("CIRCADIA_FRAME_NEUTRAL_THRESHOLD"); v != "" {
		if threshold, err := strconv.ParseFloat(v, 64); err == nil {
			c.FrameNeutralThreshold = threshold
		}
	}
	if v := os.Getenv("CIRCADIA_CAMERA_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.CameraEnabled = enabled
		}
	}
}

// LoadFromFlags parses command-line flags and overrides config values.
func (c *Config) LoadFromFlags() {
	pflag.StringVar(&c.MQTTBroker, "mqtt-broker", c.MQTTBroker, "MQTT broker hostname")
	pflag.IntVar(&c.MQTTPort, "mqtt-port", c.MQTTPort, "MQTT broker port")
	pflag.StringVar(&c.MQTTUser, "mqtt-user", c.MQTTUser, "MQTT username")
	pflag.StringVar(&c.MQTTPassword, "mqtt-password", c.MQTTPassword, "MQTT password")
	pflag.StringVar(&c.MQTTClientID, "mqtt-client-id", c.MQTTClientID, "MQTT client ID")

	pflag.StringVar(&c.RedisHost, "redis-host", c.RedisHost, "Redis hostname")
	pflag.IntVar(&c.RedisPort, "redis-port", c.RedisPort, "Redis port")
	pflag.StringVar(&c.RedisPassword, "redis-password", c.RedisPassword, "Redis password")
	pflag.IntVar(&c.RedisDB, "redis-db", c.RedisDB, "Redis database number")

	pflag.StringVar(&c.PostgresHost, "postgres-host", c.PostgresHost, "Postgres hostname")
	pflag.IntVar(&c.PostgresPort, "postgres-port", c.PostgresPort, "Postgres port")
	pflag.StringVar(&c.PostgresUser, "postgres-user", c.PostgresUser, "Postgres user")
	pflag.StringVar(&c.PostgresPassword, "postgres-password", c.PostgresPassword, "Postgres password")
	pflag.StringVar(&c.PostgresDB, "postgres-db", c.PostgresDB, "Postgres database name")
	pflag.StringVar(&c.PostgresSSLMode, "postgres-ssl-mode", c.PostgresSSLMode, "Postgres SSL mode")

	pflag.StringVar(&c.ServiceName, "service-name", c.ServiceName, "Service name")
	pflag.IntVar(&c.HealthPort, "health-port", c.HealthPort, "Health check HTTP port")
	pflag.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error)")

	pflag.IntVar(&c.MaxSampleHistory, "max-sample-history", c.MaxSampleHistory, "Maximum buffered samples per device")
	pflag.Float64Var(&c.SampleTTLHours, "sample-ttl-hours", c.SampleTTLHours, "Sample buffer retention in hours")

	pflag.Float64Var(&c.Latitude, "latitude", c.Latitude, "Geographic latitude for daylight context")
	pflag.Float64Var(&c.Longitude, "longitude", c.Longitude, "Geographic longitude for daylight context")

	pflag.IntVar(&c.FrameSampleRegions, "frame-sample-regions", c.FrameSampleRegions, "Camera frame sampling regions")
	pflag.Float64Var(&c.FrameNeutralThreshold, "frame-neutral-threshold", c.FrameNeutralThreshold, "Neutral tile channel-spread threshold")
	pflag.BoolVar(&c.CameraEnabled, "camera-enabled", c.CameraEnabled, "Enable camera-based detection")

	pflag.Parse()
}

// Validate checks that required configuration values are set.
func (c *Config) Validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT broker is required")
	}
	if c.MQTTPort <= 0 || c.MQTTPort > 65535 {
		return fmt.Errorf("MQTT port must be between 1 and 65535")
	}
	if c.RedisHost == "" {
		return fmt.Errorf("Redis host is required")
	}
	if c.RedisPort <= 0 || c.RedisPort > 65535 {
		return fmt.Errorf("Redis port must be between 1 and 65535")
	}
	if c.HealthPort <= 0 || c.HealthPort > 65535 {
		return fmt.Errorf("Health port must be between 1 and 65535")
	}
	if c.ServiceName == "" {
		return fmt.Errorf("Service name is required")
	}
	if c.SampleTTLHours <= 0 {
		return fmt.Errorf("Sample TTL must be positive")
	}
	if c.FrameNeutralThreshold < 0 || c.FrameNeutralThreshold > 1 {
		return fmt.Errorf("Frame neutral threshold must be in [0,1]")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// MQTTAddress returns the full MQTT broker address.
func (c *Config) MQTTAddress() string {
	return fmt.Sprintf("tcp://%s:%d", c.MQTTBroker, c.MQTTPort)
}

// RedisAddress returns the full Redis address.
func (c *Config) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// PostgresConnectionString returns the lib/pq connection string.
func (c *Config) PostgresConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode)
}
