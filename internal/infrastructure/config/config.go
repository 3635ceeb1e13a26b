package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for pihub.
type Config struct {
	Hardware HardwareConfig `yaml:"hardware"`
	Sensors  SensorsConfig  `yaml:"sensors"`
	Relays   RelaysConfig   `yaml:"relays"`
	API      APIConfig      `yaml:"api"`
	Database DatabaseConfig `yaml:"database"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// HardwareConfig selects the driver variant and sysfs roots.
type HardwareConfig struct {
	// Mode is "real" (sysfs drivers) or "simulated".
	Mode string `yaml:"mode"`

	// W1Dir is the 1-wire sysfs root for DS18B20 sensors.
	W1Dir string `yaml:"w1_dir"`

	// GPIODir is the sysfs GPIO root for relay pins.
	GPIODir string `yaml:"gpio_dir"`
}

// SensorsConfig declares the sensor families and their units.
type SensorsConfig struct {
	DHT22   DHT22Config   `yaml:"dht22"`
	DS18B20 DS18B20Config `yaml:"ds18b20"`
}

// DHT22Config contains the DHT22 family settings.
type DHT22Config struct {
	// PollInterval is the per-unit polling cadence in seconds.
	PollInterval int `yaml:"poll_interval"`

	// AggregateInterval is the family publish cadence in seconds.
	AggregateInterval int `yaml:"aggregate_interval"`

	Units []DHT22Unit `yaml:"units"`
}

// DHT22Unit declares one DHT22 sensor.
type DHT22Unit struct {
	// Pin is the BCM pin the sensor data line is wired to; it is the
	// unit's cache key.
	Pin int `yaml:"pin"`

	// Device is the iio device directory exposing this sensor
	// (e.g. /sys/bus/iio/devices/iio:device0). Ignored in simulated
	// mode.
	Device string `yaml:"device"`

	Name     string `yaml:"name"`
	Location string `yaml:"location"`
}

// DS18B20Config contains the DS18B20 family settings.
type DS18B20Config struct {
	PollInterval      int `yaml:"poll_interval"`
	AggregateInterval int `yaml:"aggregate_interval"`

	Units []DS18B20Unit `yaml:"units"`
}

// DS18B20Unit declares one DS18B20 sensor.
type DS18B20Unit struct {
	// ID is the 1-wire serial ("000000b239d5"); it is the unit's
	// cache key.
	ID string `yaml:"id"`

	Name     string `yaml:"name"`
	Location string `yaml:"location"`
}

// RelaysConfig declares the relay board.
type RelaysConfig struct {
	// ReconcileInterval is the background republish cadence in seconds.
	ReconcileInterval int `yaml:"reconcile_interval"`

	Units []RelayUnit `yaml:"units"`
}

// RelayUnit declares one relay.
type RelayUnit struct {
	ID         string `yaml:"id"`
	Pin        int    `yaml:"pin"`
	Name       string `yaml:"name"`
	ActiveHigh bool   `yaml:"active_high"`
	Initial    bool   `yaml:"initial"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`

	// PanelDir serves the dashboard from the filesystem instead of the
	// embedded assets when set (dev mode).
	PanelDir string `yaml:"panel_dir"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
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

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT state publishing settings.
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

// MQTTReconnectConfig contains MQTT reconnection settings in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// InfluxDBConfig contains InfluxDB telemetry export settings.
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

// Hardware modes.
const (
	HardwareModeReal      = "real"
	HardwareModeSimulated = "simulated"
)

// Load reads configuration from a YAML file and applies environment
// variable overrides.
//
// Loading order: defaults, then file values, then PIHUB_* environment
// variables. The merged result is validated before being returned.
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
		Hardware: HardwareConfig{
			Mode:    HardwareModeSimulated,
			W1Dir:   "/sys/bus/w1/devices",
			GPIODir: "/sys/class/gpio",
		},
		Sensors: SensorsConfig{
			DHT22: DHT22Config{
				PollInterval:      5,
				AggregateInterval: 15,
			},
			DS18B20: DS18B20Config{
				PollInterval:      15,
				AggregateInterval: 15,
			},
		},
		Relays: RelaysConfig{
			ReconcileInterval: 5,
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
		Database: DatabaseConfig{
			Path:        "./data/pihub.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "pihub",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies PIHUB_SECTION_KEY environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PIHUB_HARDWARE_MODE"); v != "" {
		cfg.Hardware.Mode = v
	}
	if v := os.Getenv("PIHUB_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("PIHUB_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("PIHUB_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("PIHUB_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("PIHUB_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}
	if v := os.Getenv("PIHUB_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
	if v := os.Getenv("PIHUB_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Hardware.Mode != HardwareModeReal && c.Hardware.Mode != HardwareModeSimulated {
		errs = append(errs, fmt.Sprintf("hardware.mode must be %q or %q", HardwareModeReal, HardwareModeSimulated))
	}

	if c.Sensors.DHT22.PollInterval <= 0 {
		errs = append(errs, "sensors.dht22.poll_interval must be positive")
	}
	if c.Sensors.DHT22.AggregateInterval <= 0 {
		errs = append(errs, "sensors.dht22.aggregate_interval must be positive")
	}
	if c.Sensors.DS18B20.PollInterval <= 0 {
		errs = append(errs, "sensors.ds18b20.poll_interval must be positive")
	}
	if c.Sensors.DS18B20.AggregateInterval <= 0 {
		errs = append(errs, "sensors.ds18b20.aggregate_interval must be positive")
	}
	if c.Relays.ReconcileInterval <= 0 {
		errs = append(errs, "relays.reconcile_interval must be positive")
	}

	seenPins := make(map[int]bool)
	for _, u := range c.Sensors.DHT22.Units {
		if u.Pin <= 0 {
			errs = append(errs, "sensors.dht22.units: pin must be positive")
			continue
		}
		if seenPins[u.Pin] {
			errs = append(errs, fmt.Sprintf("sensors.dht22.units: duplicate pin %d", u.Pin))
		}
		seenPins[u.Pin] = true
	}

	seenIDs := make(map[string]bool)
	for _, u := range c.Sensors.DS18B20.Units {
		if u.ID == "" {
			errs = append(errs, "sensors.ds18b20.units: id is required")
			continue
		}
		if seenIDs[u.ID] {
			errs = append(errs, fmt.Sprintf("sensors.ds18b20.units: duplicate id %q", u.ID))
		}
		seenIDs[u.ID] = true
	}

	seenRelayIDs := make(map[string]bool)
	seenRelayPins := make(map[int]bool)
	for _, u := range c.Relays.Units {
		if u.Pin <= 0 {
			errs = append(errs, "relays.units: pin must be positive")
			continue
		}
		if seenRelayPins[u.Pin] {
			errs = append(errs, fmt.Sprintf("relays.units: duplicate pin %d", u.Pin))
		}
		seenRelayPins[u.Pin] = true
		if u.ID != "" {
			if seenRelayIDs[u.ID] {
				errs = append(errs, fmt.Sprintf("relays.units: duplicate id %q", u.ID))
			}
			seenRelayIDs[u.ID] = true
		}
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}
	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Token == "" {
			errs = append(errs, "influxdb.token is required when influxdb is enabled (set PIHUB_INFLUXDB_TOKEN)")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// DHT22PollInterval returns the DHT22 polling cadence as a Duration.
func (c *Config) DHT22PollInterval() time.Duration {
	return time.Duration(c.Sensors.DHT22.PollInterval) * time.Second
}

// DHT22AggregateInterval returns the DHT22 publish cadence as a Duration.
func (c *Config) DHT22AggregateInterval() time.Duration {
	return time.Duration(c.Sensors.DHT22.AggregateInterval) * time.Second
}

// DS18B20PollInterval returns the DS18B20 polling cadence as a Duration.
func (c *Config) DS18B20PollInterval() time.Duration {
	return time.Duration(c.Sensors.DS18B20.PollInterval) * time.Second
}

// DS18B20AggregateInterval returns the DS18B20 publish cadence as a Duration.
func (c *Config) DS18B20AggregateInterval() time.Duration {
	return time.Duration(c.Sensors.DS18B20.AggregateInterval) * time.Second
}

// ReconcileInterval returns the relay republish cadence as a Duration.
func (c *Config) ReconcileInterval() time.Duration {
	return time.Duration(c.Relays.ReconcileInterval) * time.Second
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
