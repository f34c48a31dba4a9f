// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package api exposes a projector over an HTTP REST API.
//
// The server follows a simple lifecycle:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Every handler goes through the projector Controller, so requests are
// serialized on the link and a slow set operation delays the others.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Thermoquad/epsonctl/internal/config"
	"github.com/Thermoquad/epsonctl/pkg/escvp"
	"github.com/Thermoquad/epsonctl/pkg/projector"
	"github.com/rs/zerolog"
)

// Projector is the part of *projector.Controller the API drives
type Projector interface {
	Status() (projector.Status, error)
	PowerStatus() (escvp.PowerStatus, error)
	Power() (escvp.Power, error)
	Source() (escvp.Source, error)
	SetPower(target escvp.Power) error
	SetSource(target escvp.Source) error
	SendKey(key escvp.Key) error
}

// Deps holds the dependencies required by the API server
type Deps struct {
	Config    config.HTTPConfig
	Logger    zerolog.Logger
	Projector Projector
	Version   string

	// StateChanged, if set, is called after a command that may have changed
	// the projector state succeeds.
	StateChanged func()
}

// Server is the HTTP API server
type Server struct {
	cfg          config.HTTPConfig
	log          zerolog.Logger
	projector    Projector
	version      string
	stateChanged func()
	server       *http.Server
	listener     net.Listener
}

// New creates a server. It does not listen until Start is called.
func New(deps Deps) (*Server, error) {
	if deps.Projector == nil {
		return nil, errors.New("projector is required")
	}

	return &Server{
		cfg:          deps.Config,
		log:          deps.Logger,
		projector:    deps.Projector,
		version:      deps.Version,
		stateChanged: deps.StateChanged,
	}, nil
}

// Handler returns the routed handler without starting a listener
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start binds the listen address and serves in a background goroutine.
// Bind errors are returned; later serve errors are logged.
func (s *Server) Start(_ context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr, err)
	}
	s.listener = ln

	s.server = &http.Server{
		Handler:           s.buildRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		s.log.Info().Str("address", ln.Addr().String()).Msg("API server listening")
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("API server error")
		}
	}()

	return nil
}

// Addr returns the bound address once started
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close gracefully shuts down the server, waiting up to the configured
// shutdown timeout for in-flight requests.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.log.Info().Msg("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

func (s *Server) notify() {
	if s.stateChanged != nil {
		s.stateChanged()
	}
}
