// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"time"

	"github.com/Thermoquad/epsonctl/internal/config"
	"github.com/Thermoquad/epsonctl/internal/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const version = "1.0.0"

var (
	configPath string

	// Serial connection flags
	portName string
	baudRate int

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	readTimeout time.Duration
	logLevel    string

	// Set by loadConfig before any subcommand runs
	cfg    *config.Config
	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "epsonctl",
	Short: "Epson projector RS-232 controller",
	Long: `epsonctl - control Epson projectors over their ESC/VP21 serial interface.

Queries and sets power and input source, sends remote control key presses,
and can expose the projector over an HTTP API and an MQTT bridge.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 9600]
  WebSocket: --url ws://host/path [--username user]

Settings may also come from a YAML or TOML file (--config) and from the
SERIAL_PORT, TIMEOUT, LOG_LEVEL, HTTP_ADDR, MQTT_BROKER, BRIDGE_URL and
BRIDGE_PASSWORD environment variables. Flags win over both.

For WebSocket authentication, the password is read from BRIDGE_PASSWORD or
the config file, or prompted interactively if not set. The --password flag is
intentionally not provided to avoid leaking credentials in shell history.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (.yaml or .toml)")

	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 9600, "Baud rate (serial only)")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	rootCmd.PersistentFlags().DurationVar(&readTimeout, "timeout", time.Second, "Response deadline per command")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

// loadConfig layers flags the user actually set over the file and environment
func loadConfig(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd, loaded)

	if err := loaded.Validate(); err != nil {
		return err
	}

	cfg = loaded
	logger = logging.New(cfg.Logging, version)
	return nil
}

func applyFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("port") {
		c.Serial.Port = portName
	}
	if flags.Changed("baud") {
		c.Serial.BaudRate = baudRate
	}
	if flags.Changed("url") {
		c.Bridge.URL = wsURL
	}
	if flags.Changed("username") {
		c.Bridge.Username = wsUsername
	}
	if flags.Changed("no-ssl-verify") {
		c.Bridge.NoSSLVerify = wsNoSSLVerify
	}
	if flags.Changed("timeout") {
		c.Serial.ReadTimeout = readTimeout
	}
	if flags.Changed("log-level") {
		c.Logging.Level = logLevel
	}
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
