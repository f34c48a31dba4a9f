// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Thermoquad/epsonctl/pkg/escvp"
	"github.com/Thermoquad/epsonctl/pkg/projector"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var controlCmd = &cobra.Command{
	Use:   "control",
	Short: "Interactive TUI for controlling the projector",
	Long: `Control the projector via an interactive terminal UI.

Features:
  - Live power and source status, refreshed periodically
  - Power toggle and input selection
  - Remote control keys (menu, escape, arrows, enter)
  - Event log of every command and failure
  - Automatic reconnection on connection loss

Supports both serial and WebSocket connections.`,
	Args: cobra.NoArgs,
	RunE: runControl,
}

func init() {
	rootCmd.AddCommand(controlCmd)
}

// controlBackend is what the TUI drives. Calls may block for several
// seconds and are always issued from tea.Cmd goroutines.
type controlBackend interface {
	Status() (projector.Status, error)
	SetPower(target escvp.Power) error
	SetSource(target escvp.Source) error
	SendKey(key escvp.Key) error

	// Reconnect reopens the link with backoff. It returns false if the
	// session is shutting down.
	Reconnect() (connInfo string, ok bool)
}

// controlSession owns the controller and replaces it after a link loss
type controlSession struct {
	mu   sync.RWMutex
	ctrl *projector.Controller
	done chan struct{}
	open func() (*projector.Controller, string, error)
}

func runControl(cmd *cobra.Command, args []string) error {
	ctrl, connInfo, err := openController()
	if err != nil {
		return err
	}

	session := &controlSession{
		ctrl: ctrl,
		done: make(chan struct{}),
		open: openController,
	}
	defer session.close()

	p := tea.NewProgram(initialControlModel(session, connInfo), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

func (s *controlSession) current() *projector.Controller {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctrl
}

func (s *controlSession) Status() (projector.Status, error) { return s.current().Status() }
func (s *controlSession) SetPower(t escvp.Power) error      { return s.current().SetPower(t) }
func (s *controlSession) SetSource(t escvp.Source) error    { return s.current().SetSource(t) }
func (s *controlSession) SendKey(k escvp.Key) error         { return s.current().SendKey(k) }

// Reconnect retries with exponential backoff until it succeeds or the
// session is closed.
func (s *controlSession) Reconnect() (string, bool) {
	s.current().Close()

	backoff := 1 * time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-s.done:
			return "", false
		case <-time.After(backoff):
		}

		ctrl, connInfo, err := s.open()
		if err == nil {
			s.mu.Lock()
			s.ctrl = ctrl
			s.mu.Unlock()
			return connInfo, true
		}
		logger.Debug().Err(err).Dur("backoff", backoff).Msg("reconnect failed")

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

func (s *controlSession) close() {
	close(s.done)
	s.current().Close()
}

// linkLost reports whether err means the link itself is gone
func linkLost(err error) bool {
	return errors.Is(err, projector.ErrLink) || errors.Is(err, projector.ErrNoResponse)
}
