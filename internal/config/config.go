package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	MQTT        MQTTConfig        `json:"mqtt"`
	Postgres    PostgresConfig    `json:"postgres"`
	InfluxDB    InfluxConfig      `json:"influxdb"`
	Redis       RedisConfig       `json:"redis"`
	HTTP        HTTPConfig        `json:"http"`
	Logger      LoggerConfig      `json:"logger"`
	Positioning PositioningConfig `json:"positioning"`
	Service     ServiceConfig     `json:"service"`
}

type MQTTConfig struct {
	Host                 string        `json:"host"`
	Port                 int           `json:"port"`
	Username             string        `json:"username"`
	Password             string        `json:"password"`
	ClientID             string        `json:"client_id"`
	BaseTopic            string        `json:"base_topic"`
	QoS                  byte          `json:"qos"`
	KeepAlive            int           `json:"keep_alive"`
	AutoReconnect        bool          `json:"auto_reconnect"`
	MaxReconnectInterval time.Duration `json:"max_reconnect_interval"`
	CleanSession         bool          `json:"clean_session"`
}

type PostgresConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Dsn      string `json:"dsn"`
	Database string `json:"database"`
	SSLMode  string `json:"ssl_mode"`
	TimeZone string `json:"timezone"`
}

type InfluxConfig struct {
	URL           string `json:"url"`
	Token         string `json:"token"`
	Organization  string `json:"organization"`
	Bucket        string `json:"bucket"`
	BatchSize     int    `json:"batch_size"`
	FlushInterval int    `json:"flush_interval_seconds"`
}

type RedisConfig struct {
	Addr     string        `json:"addr"`
	Password string        `json:"password"`
	DB       int           `json:"db"`
	FixTTL   time.Duration `json:"fix_ttl"`
}

type HTTPConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type LoggerConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// PositioningConfig carries the tunables of the position solver and the
// dead-reckoning integrator.
type PositioningConfig struct {
	DefaultTxPower   float64 `json:"default_tx_power"`
	PathLossExponent float64 `json:"path_loss_exponent"`
	StrideLength     float64 `json:"stride_length"`
	ConfidenceDecay  float64 `json:"confidence_decay"`
	ConfidenceFloor  float64 `json:"confidence_floor"`
	StaleScanFactor  float64 `json:"stale_scan_factor"`
}

type ServiceConfig struct {
	Name              string        `json:"name"`
	Version           string        `json:"version"`
	AnchorSyncPeriod  time.Duration `json:"anchor_sync_period"`
	EngineIdleTimeout time.Duration `json:"engine_idle_timeout"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		MQTT: MQTTConfig{
			Host:                 getEnv("MQTT_HOST", "localhost"),
			Port:                 getEnvAsInt("MQTT_PORT", 1883),
			Username:             getEnv("MQTT_USERNAME", ""),
			Password:             getEnv("MQTT_PASSWORD", ""),
			ClientID:             getEnv("MQTT_CLIENT_ID", "position-engine"),
			BaseTopic:            getEnv("MQTT_BASE_TOPIC", "indoornav"),
			QoS:                  byte(getEnvAsInt("MQTT_QOS", 1)),
			KeepAlive:            getEnvAsInt("MQTT_KEEP_ALIVE", 60),
			AutoReconnect:        getEnvAsBool("MQTT_AUTO_RECONNECT", true),
			MaxReconnectInterval: getEnvAsDuration("MQTT_MAX_RECONNECT_INTERVAL", "10s"),
			CleanSession:         getEnvAsBool("MQTT_CLEAN_SESSION", true),
		},
		Postgres: PostgresConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvAsInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			Database: getEnv("POSTGRES_DATABASE", "indoor_nav"),
			SSLMode:  getEnv("POSTGRES_SSL_MODE", "disable"),
			TimeZone: getEnv("POSTGRES_TIMEZONE", "UTC"),
		},
		InfluxDB: InfluxConfig{
			URL:           getEnv("INFLUXDB_URL", "http://localhost:8086"),
			Token:         getEnv("INFLUXDB_TOKEN", ""),
			Organization:  getEnv("INFLUXDB_ORG", "indoor_nav"),
			Bucket:        getEnv("INFLUXDB_BUCKET", "positioning"),
			BatchSize:     getEnvAsInt("INFLUXDB_BATCH_SIZE", 100),
			FlushInterval: getEnvAsInt("INFLUXDB_FLUSH_INTERVAL", 10),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			FixTTL:   getEnvAsDuration("REDIS_FIX_TTL", "10m"),
		},
		HTTP: HTTPConfig{
			Host: getEnv("HTTP_HOST", "0.0.0.0"),
			Port: getEnvAsInt("HTTP_PORT", 8080),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
		Positioning: PositioningConfig{
			DefaultTxPower:   getEnvAsFloat("POSITIONING_DEFAULT_TX_POWER", -59.0),
			PathLossExponent: getEnvAsFloat("POSITIONING_PATH_LOSS_EXPONENT", 2.0),
			StrideLength:     getEnvAsFloat("POSITIONING_STRIDE_LENGTH", 0.75),
			ConfidenceDecay:  getEnvAsFloat("POSITIONING_CONFIDENCE_DECAY", 0.02),
			ConfidenceFloor:  getEnvAsFloat("POSITIONING_CONFIDENCE_FLOOR", 0.05),
			StaleScanFactor:  getEnvAsFloat("POSITIONING_STALE_SCAN_FACTOR", 0.8),
		},
		Service: ServiceConfig{
			Name:              getEnv("SERVICE_NAME", "position-engine"),
			Version:           getEnv("SERVICE_VERSION", "1.0.0"),
			AnchorSyncPeriod:  getEnvAsDuration("ANCHOR_SYNC_PERIOD", "1m"),
			EngineIdleTimeout: getEnvAsDuration("ENGINE_IDLE_TIMEOUT", "10m"),
		},
	}

	baseTopic, found := strings.CutSuffix(config.MQTT.BaseTopic, "/")
	if found {
		config.MQTT.BaseTopic = baseTopic
	}

	config.Postgres.Dsn = fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		config.Postgres.Host, config.Postgres.Port, config.Postgres.User,
		config.Postgres.Password, config.Postgres.Database,
		func() string {
			if config.Postgres.SSLMode == "false" || config.Postgres.SSLMode == "" {
				return "disable"
			}
			return config.Postgres.SSLMode
		}(),
		config.Postgres.TimeZone,
	)

	return config, config.validate()
}

func (c *Config) validate() error {
	if c.Positioning.PathLossExponent <= 0 {
		return fmt.Errorf("POSITIONING_PATH_LOSS_EXPONENT has to be positive")
	}
	if c.Positioning.StrideLength <= 0 {
		return fmt.Errorf("POSITIONING_STRIDE_LENGTH has to be positive")
	}
	if c.Positioning.ConfidenceFloor < 0 || c.Positioning.ConfidenceFloor > 1 {
		return fmt.Errorf("POSITIONING_CONFIDENCE_FLOOR has to be within [0, 1]")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
