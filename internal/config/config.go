package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config is the full server configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Game     GameConfig     `mapstructure:"game"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
}

type ServerConfig struct {
	WebSocket   WebSocketConfig `mapstructure:"websocket"`
	Metrics     MetricsConfig   `mapstructure:"metrics"`
	LeasePeriod time.Duration   `mapstructure:"lease_period"`
}

type WebSocketConfig struct {
	Address string `mapstructure:"address"`
	// SendQueueSize bounds each client's outbound event queue; a client
	// that falls this far behind is disconnected.
	SendQueueSize int `mapstructure:"send_queue_size"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

type GameConfig struct {
	HistoryCapacity int `mapstructure:"history_capacity"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DatabaseConfig struct {
	// DSN enables the audit repository when set; empty disables it.
	DSN string `mapstructure:"dsn"`
}

// Load reads configuration from the given file, falling back to defaults
// when the file is absent. Environment variables prefixed MONOPOLY_
// override file values.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.websocket.address", ":8080")
	v.SetDefault("server.websocket.send_queue_size", 64)
	v.SetDefault("server.metrics.enabled", true)
	v.SetDefault("server.metrics.address", ":9091")
	v.SetDefault("server.lease_period", time.Minute)
	v.SetDefault("game.history_capacity", 100)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("database.dsn", "")

	v.SetEnvPrefix("MONOPOLY")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}
