package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTPPort int `mapstructure:"httpPort"`
	UDPPort  int `mapstructure:"udpPort"`

	// Mediation timers, all integer milliseconds on the wire.
	PtpmServerConnectTimeoutMs   int `mapstructure:"ptpmServerConnectTimeoutMs"`
	PtpmConnectRequestIntervalMs int `mapstructure:"ptpmConnectRequestIntervalMs"`
	PtpmConnectTimeoutMs         int `mapstructure:"ptpmConnectTimeoutMs"`
}

func (c *Config) CaptureTimeout() time.Duration {
	return time.Duration(c.PtpmServerConnectTimeoutMs) * time.Millisecond
}

func (c *Config) ReminderInterval() time.Duration {
	return time.Duration(c.PtpmConnectRequestIntervalMs) * time.Millisecond
}

func (c *Config) ConnectTimeout() time.Duration {
	return time.Duration(c.PtpmConnectTimeoutMs) * time.Millisecond
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	fileName := os.Getenv("ORION_CONFIG")
	if fileName == "" {
		fileName = "config/config.yaml"
	}
	v.SetConfigFile(fileName)

	v.SetDefault("httpPort", 5980)
	v.SetDefault("udpPort", 5990)
	v.SetDefault("ptpmServerConnectTimeoutMs", 300000)
	v.SetDefault("ptpmConnectRequestIntervalMs", 10000)
	v.SetDefault("ptpmConnectTimeoutMs", 300000)

	// Config file is optional; defaults cover everything.
	_ = v.ReadInConfig()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
