package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the KotakeeOS core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Home      HomeConfig      `yaml:"home"`
	Devices   DevicesConfig   `yaml:"devices"`
	Weather   WeatherConfig   `yaml:"weather"`
	Database  DatabaseConfig  `yaml:"database"`
	History   HistoryConfig   `yaml:"history"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// HomeConfig describes the static house topology and where the input-rule
// tables live.
type HomeConfig struct {
	Name      string       `yaml:"name"`
	ZipCode   string       `yaml:"zip_code"`
	RulesPath string       `yaml:"rules_path"`
	Rooms     []RoomConfig `yaml:"rooms"`
}

// RoomConfig describes one room and its modules.
type RoomConfig struct {
	ID      int            `yaml:"id"`
	Name    string         `yaml:"name"`
	Modules []ModuleConfig `yaml:"modules"`
}

// ModuleConfig describes one hardware endpoint.
type ModuleConfig struct {
	ID      string         `yaml:"id"`
	Address string         `yaml:"address"`
	Virtual bool           `yaml:"virtual"`
	Actions []ActionConfig `yaml:"actions"`
}

// ActionConfig binds an action id to the GPIO pins that implement it.
// Input actions carry no pins.
type ActionConfig struct {
	ID   int   `yaml:"id"`
	Pins []int `yaml:"pins,omitempty"`
}

// DevicesConfig contains settings for the outbound device client.
type DevicesConfig struct {
	// Timeout bounds each device request, in seconds.
	Timeout int `yaml:"timeout"`
}

// WeatherConfig contains OpenWeatherMap settings.
type WeatherConfig struct {
	APIKey string `yaml:"api_key"`
	// DoNotQuery serves canned data instead of hitting the API.
	DoNotQuery bool `yaml:"do_not_query"`
	// UpdateInterval is the refresh period in minutes.
	UpdateInterval int `yaml:"update_interval"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// HistoryConfig contains action-history retention settings.
type HistoryConfig struct {
	// RetentionDays is how long transitions are kept. 0 disables pruning.
	RetentionDays int `yaml:"retention_days"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: KOTAKEE_SECTION_KEY
// For example: KOTAKEE_DATABASE_PATH, KOTAKEE_API_PORT
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Home: HomeConfig{
			Name:      "Kotakee",
			RulesPath: "./configs/rules.json",
		},
		Devices: DevicesConfig{
			Timeout: 5,
		},
		Weather: WeatherConfig{
			DoNotQuery:     true,
			UpdateInterval: 15,
		},
		Database: DatabaseConfig{
			Path:        "./data/kotakee.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		History: HistoryConfig{
			RetentionDays: 30,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "kotakee-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: KOTAKEE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Home
	if v := os.Getenv("KOTAKEE_HOME_ZIP_CODE"); v != "" {
		cfg.Home.ZipCode = v
	}
	if v := os.Getenv("KOTAKEE_HOME_RULES_PATH"); v != "" {
		cfg.Home.RulesPath = v
	}

	// Weather - API key stays out of the config file
	if v := os.Getenv("KOTAKEE_WEATHER_API_KEY"); v != "" {
		cfg.Weather.APIKey = v
	}

	// Database
	if v := os.Getenv("KOTAKEE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("KOTAKEE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("KOTAKEE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("KOTAKEE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("KOTAKEE_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("KOTAKEE_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}

	// InfluxDB
	if v := os.Getenv("KOTAKEE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if len(c.Home.Rooms) == 0 {
		errs = append(errs, "home.rooms must declare at least one room")
	}
	seenRooms := make(map[int]bool)
	for _, room := range c.Home.Rooms {
		if seenRooms[room.ID] {
			errs = append(errs, fmt.Sprintf("home.rooms: duplicate room id %d", room.ID))
		}
		seenRooms[room.ID] = true
		for _, mod := range room.Modules {
			if mod.ID == "" {
				errs = append(errs, fmt.Sprintf("room %d: module id is required", room.ID))
			}
			if mod.Address == "" && !mod.Virtual {
				errs = append(errs, fmt.Sprintf("room %d module %q: address is required", room.ID, mod.ID))
			}
			if len(mod.Actions) == 0 {
				errs = append(errs, fmt.Sprintf("room %d module %q: at least one action is required", room.ID, mod.ID))
			}
		}
	}

	// Live weather queries need a key; canned mode does not.
	if !c.Weather.DoNotQuery && c.Weather.APIKey == "" {
		errs = append(errs, "weather.api_key is required unless weather.do_not_query is set (set KOTAKEE_WEATHER_API_KEY)")
	}
	if !c.Weather.DoNotQuery && c.Home.ZipCode == "" {
		errs = append(errs, "home.zip_code is required for live weather queries")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// GetDeviceTimeout returns the device request timeout as a Duration.
func (c *Config) GetDeviceTimeout() time.Duration {
	return time.Duration(c.Devices.Timeout) * time.Second
}

// GetWeatherInterval returns the weather refresh period as a Duration.
func (c *Config) GetWeatherInterval() time.Duration {
	return time.Duration(c.Weather.UpdateInterval) * time.Minute
}
