// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package config loads epsonctl settings.
//
// Settings come from, in increasing priority: built-in defaults, a YAML or
// TOML file (chosen by extension), environment variables, and CLI flags
// applied by the caller before Validate.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Environment variable names
const (
	EnvSerialPort = "SERIAL_PORT"
	EnvTimeout    = "TIMEOUT" // whole seconds
	EnvLogLevel   = "LOG_LEVEL"
	EnvHTTPAddr   = "HTTP_ADDR"
	EnvMQTTBroker = "MQTT_BROKER"
	EnvBridgeURL  = "BRIDGE_URL"
	EnvPassword   = "BRIDGE_PASSWORD"
)

// ErrNoLink is returned by Validate when neither a serial port nor a
// bridge URL is configured.
var ErrNoLink = errors.New("config: either serial.port or bridge.url must be set")

// Config is the root configuration structure
type Config struct {
	Serial  SerialConfig  `yaml:"serial" toml:"serial"`
	Bridge  BridgeConfig  `yaml:"bridge" toml:"bridge"`
	HTTP    HTTPConfig    `yaml:"http" toml:"http"`
	MQTT    MQTTConfig    `yaml:"mqtt" toml:"mqtt"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

// SerialConfig describes the RS-232 link. Framing is fixed at 8N1.
type SerialConfig struct {
	Port        string        `yaml:"port" toml:"port"`
	BaudRate    int           `yaml:"baud_rate" toml:"baud_rate"`
	ReadTimeout time.Duration `yaml:"read_timeout" toml:"read_timeout"`
}

// BridgeConfig describes a network serial bridge reached over WebSocket.
// When URL is set it is used instead of the local serial port.
type BridgeConfig struct {
	URL         string `yaml:"url" toml:"url"`
	Username    string `yaml:"username" toml:"username"`
	Password    string `yaml:"password" toml:"password"`
	NoSSLVerify bool   `yaml:"no_ssl_verify" toml:"no_ssl_verify"`
}

// HTTPConfig contains HTTP API server settings
type HTTPConfig struct {
	Addr            string        `yaml:"addr" toml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" toml:"shutdown_timeout"`
}

// MQTTConfig contains MQTT bridge settings
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled" toml:"enabled"`
	Broker      string `yaml:"broker" toml:"broker"`
	ClientID    string `yaml:"client_id" toml:"client_id"`
	Username    string `yaml:"username" toml:"username"`
	Password    string `yaml:"password" toml:"password"`
	TopicPrefix string `yaml:"topic_prefix" toml:"topic_prefix"`
	QoS         int    `yaml:"qos" toml:"qos"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"` // console or json
	Output string `yaml:"output" toml:"output"` // stdout or stderr
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			BaudRate:    9600,
			ReadTimeout: time.Second,
		},
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		MQTT: MQTTConfig{
			Broker:      "tcp://localhost:1883",
			ClientID:    "epsonctl",
			TopicPrefix: "epsonctl",
			QoS:         1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Output: "stderr",
		},
	}
}

// Load reads the file at path (if any) over the defaults and applies
// environment overrides. It does not validate.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := decode(path, data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		_, err := toml.Decode(string(data), cfg)
		return err
	case ".yaml", ".yml", "":
		return yaml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("unsupported config format %q (use .yaml or .toml)", filepath.Ext(path))
	}
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv(EnvSerialPort); v != "" {
		c.Serial.Port = v
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		secs, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvTimeout, v, err)
		}
		c.Serial.ReadTimeout = time.Duration(secs) * time.Second
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvHTTPAddr); v != "" {
		c.HTTP.Addr = v
	}
	if v := os.Getenv(EnvMQTTBroker); v != "" {
		c.MQTT.Broker = v
		c.MQTT.Enabled = true
	}
	if v := os.Getenv(EnvBridgeURL); v != "" {
		c.Bridge.URL = v
	}
	if v := os.Getenv(EnvPassword); v != "" {
		c.Bridge.Password = v
	}
	return nil
}

// Validate checks the configuration for values the link cannot work with
func (c *Config) Validate() error {
	var errs []error

	if c.Serial.Port == "" && c.Bridge.URL == "" {
		errs = append(errs, ErrNoLink)
	}
	if c.Serial.BaudRate <= 0 {
		errs = append(errs, fmt.Errorf("serial.baud_rate must be positive, got %d", c.Serial.BaudRate))
	}
	if c.Serial.ReadTimeout <= 0 {
		errs = append(errs, fmt.Errorf("serial.read_timeout must be positive, got %v", c.Serial.ReadTimeout))
	}
	if c.MQTT.Enabled {
		if c.MQTT.Broker == "" {
			errs = append(errs, errors.New("mqtt.broker is required when mqtt is enabled"))
		}
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			errs = append(errs, fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", c.MQTT.QoS))
		}
		if strings.Trim(c.MQTT.TopicPrefix, "/") == "" {
			errs = append(errs, errors.New("mqtt.topic_prefix must not be empty"))
		}
	}
	switch strings.ToLower(c.Logging.Format) {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}
