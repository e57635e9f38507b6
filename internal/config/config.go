package config

import (
	"bytes"
	"os"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// Config holds all application configuration values.
type Config struct {
	Device   DeviceConfig   `toml:"device"`
	IMU      IMUConfig      `toml:"imu"`
	GPS      GPSConfig      `toml:"gps"`
	Location LocationConfig `toml:"location"`
	Queue    QueueConfig    `toml:"queue"`
	Storage  StorageConfig  `toml:"storage"`
	MQTT     MQTTConfig     `toml:"mqtt"`
	Web      WebConfig      `toml:"web"`
	Metrics  MetricsConfig  `toml:"metrics"`
	Display  DisplayConfig  `toml:"display"`
	Env      EnvConfig      `toml:"env"`
	Log      LogConfig      `toml:"log"`
}

type DeviceConfig struct {
	Name string `toml:"name"`
	// LoopIntervalMS is the main loop period in milliseconds.
	LoopIntervalMS int `toml:"loop_interval_ms"`
	// EpochTickMS is the period of the epoch counter update.
	EpochTickMS int `toml:"epoch_tick_ms"`
}

type IMUConfig struct {
	Mock      bool   `toml:"mock"`
	SPIDevice string `toml:"spi_device"`
	CSPin     string `toml:"cs_pin"`
	// SampleRateHz is the raw read rate of the sampler.
	SampleRateHz float64 `toml:"sample_rate_hz"`
	Decimate     int     `toml:"decimate"`
	Taps         int     `toml:"taps"`
	LSBPerG      float64 `toml:"lsb_per_g"`
	FIFOSize     int     `toml:"fifo_size"`
	FIFODelayMS  int     `toml:"fifo_delay_ms"`
	// MockHeight and MockPeriod shape the synthetic swell.
	MockHeight float64 `toml:"mock_height_m"`
	MockPeriod float64 `toml:"mock_period_s"`
}

type GPSConfig struct {
	Enabled    bool   `toml:"enabled"`
	SerialPort string `toml:"serial_port"`
	BaudRate   uint   `toml:"baud_rate"`
	MaxAgeMS   int    `toml:"max_age_ms"`
}

type LocationConfig struct {
	CooldownMS int `toml:"cooldown_ms"`
	// TimeoutMS bounds one location and time query.
	TimeoutMS int `toml:"timeout_ms"`
}

type QueueConfig struct {
	Capacity int `toml:"capacity"`
}

type StorageConfig struct {
	Enabled         bool   `toml:"enabled"`
	Dir             string `toml:"dir"`
	PackagesPerFile int    `toml:"packages_per_file"`
}

type MQTTConfig struct {
	Enabled         bool   `toml:"enabled"`
	Broker          string `toml:"broker"`
	ClientID        string `toml:"client_id"`
	ClientIDConsole string `toml:"client_id_console"`
	ClientIDGPS     string `toml:"client_id_gps"`
	TopicAxl        string `toml:"topic_axl"`
	TopicGPS        string `toml:"topic_gps"`
	TimeoutMS       int    `toml:"timeout_ms"`
	SendIntervalMS  int    `toml:"send_interval_ms"`
}

type WebConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
}

type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
}

type DisplayConfig struct {
	Enabled          bool `toml:"enabled"`
	UpdateIntervalMS int  `toml:"update_interval_ms"`
}

type EnvConfig struct {
	Enabled   bool   `toml:"enabled"`
	SPIDevice string `toml:"spi_device"`
}

type LogConfig struct {
	Verbose bool `toml:"verbose"`
	// EpochTime stamps log lines with the epoch counter instead of host time.
	EpochTime bool `toml:"epoch_time"`
}

// Package-level variables for the singleton; use InitGlobal and Get.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns the configuration used for keys missing from the file.
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			Name:           "wavebuoy",
			LoopIntervalMS: 20,
			EpochTickMS:    1000,
		},
		IMU: IMUConfig{
			SPIDevice:    "/dev/spidev0.0",
			CSPin:        "GPIO8",
			SampleRateHz: 208,
			Decimate:     4,
			Taps:         33,
			LSBPerG:      16384,
			FIFOSize:     1024,
			FIFODelayMS:  100,
			MockHeight:   1.5,
			MockPeriod:   8,
		},
		GPS: GPSConfig{
			Enabled:    true,
			SerialPort: "/dev/serial0",
			BaudRate:   9600,
			MaxAgeMS:   10_000,
		},
		Location: LocationConfig{
			CooldownMS: 60_000,
			TimeoutMS:  5_000,
		},
		Queue: QueueConfig{
			Capacity: 32,
		},
		Storage: StorageConfig{
			Enabled:         true,
			Dir:             "./data",
			PackagesPerFile: 12,
		},
		MQTT: MQTTConfig{
			Broker:          "tcp://localhost:1883",
			ClientID:        "wavebuoy",
			ClientIDConsole: "wavebuoy-console",
			ClientIDGPS:     "wavebuoy-gps",
			TopicAxl:        "wavebuoy/axl",
			TopicGPS:        "wavebuoy/gps",
			TimeoutMS:       5_000,
			SendIntervalMS:  1_000,
		},
		Web: WebConfig{
			Addr: ":8080",
		},
		Metrics: MetricsConfig{
			Addr: ":9100",
		},
		Display: DisplayConfig{
			UpdateIntervalMS: 1_000,
		},
		Env: EnvConfig{
			SPIDevice: "/dev/spidev0.1",
		},
	}
}

// Load reads the configuration file over the defaults. Unknown keys are
// rejected.
func Load(configPath string) (*Config, error) {
	raw, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open config file")
	}
	return Parse(raw)
}

// Parse decodes TOML over the defaults and validates the result.
func Parse(raw []byte) (*Config, error) {
	cfg := Default()
	if err := toml.NewDecoder(bytes.NewReader(raw)).DisallowUnknownFields().Decode(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode config")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks that the values are usable.
func (c *Config) validate() error {
	if c.Device.LoopIntervalMS <= 0 {
		return errors.New("device.loop_interval_ms must be positive")
	}
	if c.Device.EpochTickMS <= 0 {
		return errors.New("device.epoch_tick_ms must be positive")
	}
	if c.IMU.SampleRateHz <= 0 {
		return errors.New("imu.sample_rate_hz must be positive")
	}
	if c.IMU.Decimate < 1 {
		return errors.New("imu.decimate must be at least 1")
	}
	if c.IMU.Taps < 3 {
		return errors.New("imu.taps must be at least 3")
	}
	if !c.IMU.Mock && c.IMU.SPIDevice == "" {
		return errors.New("imu.spi_device is required")
	}
	if c.GPS.Enabled && c.GPS.SerialPort == "" {
		return errors.New("gps.serial_port is required")
	}
	if c.GPS.Enabled && c.GPS.BaudRate == 0 {
		return errors.New("gps.baud_rate is required")
	}
	if c.Location.CooldownMS < 0 {
		return errors.Errorf("location.cooldown_ms must not be negative, got %d", c.Location.CooldownMS)
	}
	if c.Queue.Capacity <= 0 {
		return errors.Errorf("queue.capacity must be positive, got %d", c.Queue.Capacity)
	}
	if c.Storage.Enabled && c.Storage.Dir == "" {
		return errors.New("storage.dir is required")
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return errors.New("mqtt.broker is required")
	}
	return nil
}

// LoopInterval is the main loop period.
func (c *Config) LoopInterval() time.Duration { return ms(c.Device.LoopIntervalMS) }

// EpochTick is the epoch counter update period.
func (c *Config) EpochTick() time.Duration { return ms(c.Device.EpochTickMS) }

// Cooldown is the minimum interval between fix attempts.
func (c *Config) Cooldown() time.Duration { return ms(c.Location.CooldownMS) }

// SamplePeriod is the raw sampler period.
func (c *Config) SamplePeriod() time.Duration {
	return time.Duration(float64(time.Second) / c.IMU.SampleRateHz)
}

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

// InitGlobal initializes the global configuration from file. Only the first
// call loads the file.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance, or nil before InitGlobal.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
