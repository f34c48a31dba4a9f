// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Serial.BaudRate != 9600 {
		t.Errorf("BaudRate = %d, want 9600", cfg.Serial.BaudRate)
	}
	if cfg.Serial.ReadTimeout != time.Second {
		t.Errorf("ReadTimeout = %v, want 1s", cfg.Serial.ReadTimeout)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("HTTP.Addr = %q, want :8080", cfg.HTTP.Addr)
	}
	if cfg.MQTT.Enabled {
		t.Error("MQTT should be disabled by default")
	}
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "epsonctl.yaml", `
serial:
  port: /dev/ttyUSB0
  read_timeout: 2500ms
http:
  addr: 127.0.0.1:9000
mqtt:
  enabled: true
  broker: tcp://broker:1883
  topic_prefix: home/projector
logging:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Serial.Port != "/dev/ttyUSB0" {
		t.Errorf("Serial.Port = %q", cfg.Serial.Port)
	}
	if cfg.Serial.ReadTimeout != 2500*time.Millisecond {
		t.Errorf("ReadTimeout = %v, want 2.5s", cfg.Serial.ReadTimeout)
	}
	if cfg.Serial.BaudRate != 9600 {
		t.Errorf("BaudRate = %d, default should survive partial file", cfg.Serial.BaudRate)
	}
	if cfg.HTTP.Addr != "127.0.0.1:9000" {
		t.Errorf("HTTP.Addr = %q", cfg.HTTP.Addr)
	}
	if !cfg.MQTT.Enabled || cfg.MQTT.TopicPrefix != "home/projector" {
		t.Errorf("MQTT = %+v", cfg.MQTT)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestLoad_TOML(t *testing.T) {
	path := writeFile(t, "epsonctl.toml", `
[serial]
port = "/dev/ttyS1"
read_timeout = "3s"

[bridge]
url = "ws://bridge.local/serial"
username = "admin"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Serial.Port != "/dev/ttyS1" {
		t.Errorf("Serial.Port = %q", cfg.Serial.Port)
	}
	if cfg.Serial.ReadTimeout != 3*time.Second {
		t.Errorf("ReadTimeout = %v, want 3s", cfg.Serial.ReadTimeout)
	}
	if cfg.Bridge.URL != "ws://bridge.local/serial" || cfg.Bridge.Username != "admin" {
		t.Errorf("Bridge = %+v", cfg.Bridge)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load of missing file should fail")
	}
	if _, err := Load(writeFile(t, "bad.yaml", "serial: [")); err == nil {
		t.Error("Load of malformed YAML should fail")
	}
	if _, err := Load(writeFile(t, "config.json", "{}")); err == nil {
		t.Error("Load of unsupported extension should fail")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvSerialPort, "/dev/ttyACM3")
	t.Setenv(EnvTimeout, "4")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvMQTTBroker, "tcp://mqtt:1883")

	path := writeFile(t, "epsonctl.yaml", "serial:\n  port: /dev/ttyUSB0\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Serial.Port != "/dev/ttyACM3" {
		t.Errorf("Serial.Port = %q, env should win over file", cfg.Serial.Port)
	}
	if cfg.Serial.ReadTimeout != 4*time.Second {
		t.Errorf("ReadTimeout = %v, want 4s", cfg.Serial.ReadTimeout)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
	if !cfg.MQTT.Enabled || cfg.MQTT.Broker != "tcp://mqtt:1883" {
		t.Errorf("MQTT = %+v", cfg.MQTT)
	}
}

func TestLoad_InvalidTimeoutEnv(t *testing.T) {
	t.Setenv(EnvTimeout, "soon")
	if _, err := Load(""); err == nil {
		t.Error("Load should reject a non-numeric TIMEOUT")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"serial port", func(c *Config) { c.Serial.Port = "/dev/ttyUSB0" }, false},
		{"bridge url", func(c *Config) { c.Bridge.URL = "ws://bridge/serial" }, false},
		{"no link", func(c *Config) {}, true},
		{"zero timeout", func(c *Config) { c.Serial.Port = "x"; c.Serial.ReadTimeout = 0 }, true},
		{"zero baud", func(c *Config) { c.Serial.Port = "x"; c.Serial.BaudRate = 0 }, true},
		{"bad qos", func(c *Config) { c.Serial.Port = "x"; c.MQTT.Enabled = true; c.MQTT.QoS = 3 }, true},
		{"empty prefix", func(c *Config) { c.Serial.Port = "x"; c.MQTT.Enabled = true; c.MQTT.TopicPrefix = "/" }, true},
		{"bad log format", func(c *Config) { c.Serial.Port = "x"; c.Logging.Format = "xml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if err := Default().Validate(); !errors.Is(err, ErrNoLink) {
		t.Errorf("Validate() = %v, want ErrNoLink", err)
	}
}
