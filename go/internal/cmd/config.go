package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mvasilevs/zole/go/internal/room"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Room struct {
		BidTimeoutSeconds     int `yaml:"bid_timeout_seconds"`
		DiscardTimeoutSeconds int `yaml:"discard_timeout_seconds"`
		PlayTimeoutSeconds    int `yaml:"play_timeout_seconds"`
		UnitStake             int `yaml:"unit_stake"`
	} `yaml:"room"`
	NATS struct {
		Enabled bool   `yaml:"enabled"`
		URL     string `yaml:"url"`
	} `yaml:"nats"`
	Database struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"database"`
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.Server.Port = "8080"
	cfg.Room.BidTimeoutSeconds = 15
	cfg.Room.DiscardTimeoutSeconds = 30
	cfg.Room.PlayTimeoutSeconds = 20
	cfg.Room.UnitStake = 2
	cfg.NATS.URL = "nats://localhost:4222"
	return cfg
}

func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// RoomConfig converts the yaml settings into gameplay config.
func (c *Config) RoomConfig() room.Config {
	return room.Config{
		BidTimeout:     time.Duration(c.Room.BidTimeoutSeconds) * time.Second,
		DiscardTimeout: time.Duration(c.Room.DiscardTimeoutSeconds) * time.Second,
		PlayTimeout:    time.Duration(c.Room.PlayTimeoutSeconds) * time.Second,
		UnitStake:      c.Room.UnitStake,
	}
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
