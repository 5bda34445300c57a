package config

import (
	"os"
	"path/filepath"
	"testing"
)

// roomsYAML is the minimal topology most tests reuse.
const roomsYAML = `
home:
  name: "Test Home"
  zip_code: "95051"
  rooms:
    - id: 2
      name: "bedroom"
      modules:
        - id: "bed-1"
          address: "10.0.0.21"
          actions:
            - id: 50
              pins: [12]
            - id: 5050
`

func validRooms() []RoomConfig {
	return []RoomConfig{
		{
			ID:   2,
			Name: "bedroom",
			Modules: []ModuleConfig{
				{
					ID:      "bed-1",
					Address: "10.0.0.21",
					Actions: []ActionConfig{{ID: 50, Pins: []int{12}}},
				},
			},
		},
	}
}

func TestLoad_ValidConfig(t *testing.T) {
	content := roomsYAML + `
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
api:
  host: "0.0.0.0"
  port: 8080
weather:
  do_not_query: true
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Home.Name != "Test Home" {
		t.Errorf("Home.Name = %q, want %q", cfg.Home.Name, "Test Home")
	}

	if len(cfg.Home.Rooms) != 1 || len(cfg.Home.Rooms[0].Modules) != 1 {
		t.Fatalf("rooms = %+v", cfg.Home.Rooms)
	}
	mod := cfg.Home.Rooms[0].Modules[0]
	if mod.Address != "10.0.0.21" || len(mod.Actions) != 2 {
		t.Errorf("module = %+v", mod)
	}

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}

	if cfg.MQTT.Broker.Host != "localhost" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "localhost")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	// No rooms declared.
	content := `
database:
  path: "/tmp/test.db"
api:
  port: 8080
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected validation error for missing rooms, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Home:     HomeConfig{Rooms: validRooms()},
			Database: DatabaseConfig{Path: "/data/kotakee.db"},
			Weather:  WeatherConfig{DoNotQuery: true},
			MQTT:     MQTTConfig{QoS: 1},
			API:      APIConfig{Port: 8080},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid config", func(*Config) {}, false},
		{"missing database path", func(c *Config) { c.Database.Path = "" }, true},
		{"invalid QoS", func(c *Config) { c.MQTT.QoS = 3 }, true},
		{"invalid port low", func(c *Config) { c.API.Port = 0 }, true},
		{"invalid port high", func(c *Config) { c.API.Port = 70000 }, true},
		{"no rooms", func(c *Config) { c.Home.Rooms = nil }, true},
		{"duplicate room ids", func(c *Config) { c.Home.Rooms = append(c.Home.Rooms, c.Home.Rooms[0]) }, true},
		{"module without address", func(c *Config) { c.Home.Rooms[0].Modules[0].Address = "" }, true},
		{"virtual module without address", func(c *Config) {
			c.Home.Rooms[0].Modules[0].Address = ""
			c.Home.Rooms[0].Modules[0].Virtual = true
		}, false},
		{"module without actions", func(c *Config) { c.Home.Rooms[0].Modules[0].Actions = nil }, true},
		{"live weather without api key", func(c *Config) { c.Weather.DoNotQuery = false }, true},
		{"live weather with key and zip", func(c *Config) {
			c.Weather.DoNotQuery = false
			c.Weather.APIKey = "key"
			c.Home.ZipCode = "95051"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
		Devices: DevicesConfig{Timeout: 5},
		Weather: WeatherConfig{UpdateInterval: 15},
	}

	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}

	if got := cfg.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}

	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}

	if got := cfg.GetDeviceTimeout().Seconds(); got != 5 {
		t.Errorf("GetDeviceTimeout() = %v, want 5", got)
	}

	if got := cfg.GetWeatherInterval().Minutes(); got != 15 {
		t.Errorf("GetWeatherInterval() = %v, want 15", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("KOTAKEE_HOME_ZIP_CODE", "95051")
	t.Setenv("KOTAKEE_WEATHER_API_KEY", "weather-key")
	t.Setenv("KOTAKEE_DATABASE_PATH", "/custom/path.db")
	t.Setenv("KOTAKEE_MQTT_HOST", "mqtt.example.com")
	t.Setenv("KOTAKEE_MQTT_USERNAME", "testuser")
	t.Setenv("KOTAKEE_MQTT_PASSWORD", "testpass")
	t.Setenv("KOTAKEE_API_HOST", "192.168.1.1")
	t.Setenv("KOTAKEE_API_PORT", "9090")
	t.Setenv("KOTAKEE_INFLUXDB_TOKEN", "secret-token")

	applyEnvOverrides(cfg)

	if cfg.Home.ZipCode != "95051" {
		t.Errorf("Home.ZipCode = %q, want %q", cfg.Home.ZipCode, "95051")
	}

	if cfg.Weather.APIKey != "weather-key" {
		t.Errorf("Weather.APIKey = %q, want %q", cfg.Weather.APIKey, "weather-key")
	}

	if cfg.Database.Path != "/custom/path.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/custom/path.db")
	}

	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}

	if cfg.MQTT.Auth.Username != "testuser" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "testuser")
	}

	if cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "testpass")
	}

	if cfg.API.Host != "192.168.1.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "192.168.1.1")
	}

	if cfg.API.Port != 9090 {
		t.Errorf("API.Port = %d, want 9090", cfg.API.Port)
	}

	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Database.Path == "" {
		t.Error("defaultConfig should have non-empty Database.Path")
	}

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}

	if cfg.API.Port != 8080 {
		t.Errorf("defaultConfig API.Port = %d, want 8080", cfg.API.Port)
	}

	if !cfg.Weather.DoNotQuery {
		t.Error("defaultConfig should default to canned weather data")
	}
}
