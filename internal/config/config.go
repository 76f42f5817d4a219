package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "DELEGATE_EXPIRY"

// Config is the service configuration.
type Config struct {
	Service   ServiceConfig   `mapstructure:"service" yaml:"service" json:"service"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging" json:"logging"`
	HTTP      HTTPConfig      `mapstructure:"http" yaml:"http" json:"http"`
	Bus       BusConfig       `mapstructure:"bus" yaml:"bus" json:"bus"`
	Heartbeat HeartbeatConfig `mapstructure:"heartbeat" yaml:"heartbeat" json:"heartbeat"`
}

type ServiceConfig struct {
	Name string `mapstructure:"name" yaml:"name" json:"name"`
	Env  string `mapstructure:"env" yaml:"env" json:"env"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level" yaml:"level" json:"level"`
	File  string `mapstructure:"file" yaml:"file" json:"file"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr" json:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// BusConfig tunes the in-memory event bus.
type BusConfig struct {
	QueueSize     int           `mapstructure:"queue_size" yaml:"queue_size" json:"queue_size"`
	PruneInterval time.Duration `mapstructure:"prune_interval" yaml:"prune_interval" json:"prune_interval"`
}

// HeartbeatConfig drives the built-in heartbeat publisher and its watcher subscription.
type HeartbeatConfig struct {
	Interval time.Duration `mapstructure:"interval" yaml:"interval" json:"interval"`
	WatchTTL time.Duration `mapstructure:"watch_ttl" yaml:"watch_ttl" json:"watch_ttl"`
}

func DefaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			Name: "delegate-expiry",
			Env:  "dev",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Bus: BusConfig{
			QueueSize:     1024,
			PruneInterval: time.Second,
		},
		Heartbeat: HeartbeatConfig{
			Interval: time.Second,
			WatchTTL: 30 * time.Second,
		},
	}
}

// LoadConfig reads configuration from configPath, or from config.yaml in the usual
// locations when configPath is empty. Environment variables prefixed with
// DELEGATE_EXPIRY_ override file values (bus.queue_size -> DELEGATE_EXPIRY_BUS_QUEUE_SIZE).
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	config := DefaultConfig()
	setDefaults(v, config)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/delegate-expiry")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// setDefaults registers every key so AutomaticEnv can resolve it during Unmarshal.
func setDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("service.name", c.Service.Name)
	v.SetDefault("service.env", c.Service.Env)
	v.SetDefault("logging.level", c.Logging.Level)
	v.SetDefault("logging.file", c.Logging.File)
	v.SetDefault("http.addr", c.HTTP.Addr)
	v.SetDefault("http.shutdown_timeout", c.HTTP.ShutdownTimeout)
	v.SetDefault("bus.queue_size", c.Bus.QueueSize)
	v.SetDefault("bus.prune_interval", c.Bus.PruneInterval)
	v.SetDefault("heartbeat.interval", c.Heartbeat.Interval)
	v.SetDefault("heartbeat.watch_ttl", c.Heartbeat.WatchTTL)
}

func (c *Config) Validate() error {
	if c.Service.Name == "" {
		return fmt.Errorf("service name is required")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	if c.HTTP.Addr == "" {
		return fmt.Errorf("http addr is required")
	}
	if c.Bus.QueueSize <= 0 {
		return fmt.Errorf("bus queue size must be positive")
	}
	if c.Bus.PruneInterval < 0 {
		return fmt.Errorf("bus prune interval must not be negative")
	}
	if c.Heartbeat.Interval <= 0 {
		return fmt.Errorf("heartbeat interval must be positive")
	}
	if c.Heartbeat.WatchTTL < 0 {
		return fmt.Errorf("heartbeat watch ttl must not be negative")
	}
	return nil
}
