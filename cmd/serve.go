// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/Thermoquad/epsonctl/internal/api"
	"github.com/Thermoquad/epsonctl/internal/mqtt"
	"github.com/spf13/cobra"
)

var (
	serveAddr string
	serveMQTT string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the projector over HTTP and, optionally, MQTT",
	Long: `Expose the projector through a REST API and an optional MQTT bridge.

HTTP endpoints (under /api/v1):
  GET  /health, /status, /power-status, /power, /source, /sources
  POST /power {"power":"on"}, /source {"source":"hdmi2"}, /key {"key":"menu"}

MQTT topics (under the configured prefix):
  power/set, source/set, key/set, status/get    commands
  status                                        retained status JSON
  error                                         command failures
  availability                                  online/offline (LWT)

Runs until interrupted (SIGINT or SIGTERM).`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "listen", "", "HTTP listen address (overrides http.addr)")
	serveCmd.Flags().StringVar(&serveMQTT, "mqtt", "", "MQTT broker URL, enables the bridge (overrides mqtt.broker)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	if cmd.Flags().Changed("listen") {
		cfg.HTTP.Addr = serveAddr
	}
	if cmd.Flags().Changed("mqtt") {
		cfg.MQTT.Broker = serveMQTT
		cfg.MQTT.Enabled = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctrl, connInfo, err := openController()
	if err != nil {
		return err
	}
	defer ctrl.Close()
	logger.Info().Str("connection", connInfo).Dur("timeout", ctrl.ReadTimeout()).Msg("projector link open")

	var bridge *mqtt.Bridge
	if cfg.MQTT.Enabled {
		client, err := mqtt.Connect(cfg.MQTT, logger.With().Str("component", "mqtt").Logger())
		if err != nil {
			return err
		}
		defer client.Close()

		bridge = mqtt.NewBridge(ctrl, client, cfg.MQTT.TopicPrefix, logger.With().Str("component", "bridge").Logger())
		if err := bridge.Start(client); err != nil {
			return err
		}
		if err := bridge.PublishStatus(); err != nil {
			logger.Warn().Err(err).Msg("initial status publish failed")
		}
		logger.Info().Str("broker", cfg.MQTT.Broker).Str("prefix", cfg.MQTT.TopicPrefix).Msg("MQTT bridge running")
	}

	server, err := api.New(api.Deps{
		Config:    cfg.HTTP,
		Logger:    logger.With().Str("component", "api").Logger(),
		Projector: ctrl,
		Version:   version,
		StateChanged: func() {
			if bridge == nil {
				return
			}
			if err := bridge.PublishStatus(); err != nil {
				logger.Warn().Err(err).Msg("status publish failed")
			}
		},
	})
	if err != nil {
		return err
	}
	if err := server.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info().Msg("shutting down")
	return server.Close()
}
