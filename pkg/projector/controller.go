// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package projector owns the link to a single Epson projector.
//
// A Controller serializes every operation on the link, pairs each command
// with its response under a deadline, and drives bounded set-then-verify
// loops for power and source changes. The device has no transactions: a
// failed set may leave it in an intermediate state and callers should
// re-query.
package projector

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Thermoquad/epsonctl/pkg/escvp"
	"github.com/rs/zerolog"
)

// Link settings
const (
	BaudRate           = 9600
	DefaultReadTimeout = time.Second
	MaxSetAttempts     = 3
)

// Link is the byte channel to the device. go.bug.st/serial.Port satisfies it.
type Link interface {
	io.ReadWriteCloser

	// SetReadTimeout bounds how long Read blocks. A Read that times out
	// returns 0, nil.
	SetReadTimeout(t time.Duration) error

	// ResetInputBuffer discards bytes already queued for reading.
	ResetInputBuffer() error
}

// Options configures a Controller
type Options struct {
	// ReadTimeout is the per-exchange deadline and the settle delay after a
	// set command. Zero means DefaultReadTimeout.
	ReadTimeout time.Duration
	Logger      zerolog.Logger
}

// Controller is the single authority over the projector link.
//
// Thread Safety:
//   - All methods are safe for concurrent use. Operations are fully
//     serialized; no two exchanges ever interleave on the link.
type Controller struct {
	mu          sync.Mutex
	link        Link
	decoder     *escvp.Decoder
	buf         []byte
	readTimeout time.Duration
	log         zerolog.Logger
}

// Status is a consistent snapshot of the projector state. Source is only
// queried while the projector is on.
type Status struct {
	PowerStatus escvp.PowerStatus `json:"powerStatus"`
	Power       escvp.Power       `json:"power"`
	Source      *escvp.Source     `json:"source,omitempty"`
}

// New wraps an open link
func New(link Link, opts Options) *Controller {
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}
	return &Controller{
		link:        link,
		decoder:     escvp.NewDecoder(),
		buf:         make([]byte, 128),
		readTimeout: opts.ReadTimeout,
		log:         opts.Logger,
	}
}

// ReadTimeout returns the configured per-exchange deadline
func (c *Controller) ReadTimeout() time.Duration {
	return c.readTimeout
}

// Close closes the underlying link
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.link.Close()
}

// PowerStatus queries the detailed power status
func (c *Controller) PowerStatus() (escvp.PowerStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.powerStatus()
}

// Power queries the power status and reduces it to on/off
func (c *Controller) Power() (escvp.Power, error) {
	status, err := c.PowerStatus()
	if err != nil {
		return escvp.PowerOff, err
	}
	return status.Power(), nil
}

// Source queries the current input source
func (c *Controller) Source() (escvp.Source, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.source()
}

// Status queries power and, when the projector is on, the source, holding
// the link for the whole snapshot.
func (c *Controller) Status() (Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	status, err := c.powerStatus()
	if err != nil {
		return Status{}, err
	}
	st := Status{PowerStatus: status, Power: status.Power()}
	if st.Power != escvp.PowerOn {
		return st, nil
	}

	src, err := c.source()
	if err != nil {
		return Status{}, err
	}
	st.Source = &src
	return st, nil
}

// SetPower switches the projector on or off and waits until a power query
// agrees, re-sending the command up to MaxSetAttempts times.
func (c *Controller) SetPower(target escvp.Power) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.converge(escvp.SetPower{Power: target}, func() (bool, error) {
		status, err := c.powerStatus()
		if err != nil {
			return false, err
		}
		return status.Power() == target, nil
	})
}

// SetSource selects an input and waits until a source query agrees,
// re-sending the command up to MaxSetAttempts times.
func (c *Controller) SetSource(target escvp.Source) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.converge(escvp.SetSource{Source: target}, func() (bool, error) {
		current, err := c.source()
		if err != nil {
			return false, err
		}
		return current == target, nil
	})
}

// SendKey emulates a remote control button press. The device reply is not
// validated.
func (c *Controller) SendKey(key escvp.Key) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.exchange(escvp.SendKey{Key: key}, c.readTimeout)
	return err
}

func (c *Controller) powerStatus() (escvp.PowerStatus, error) {
	cmd := escvp.QueryPower{}
	resp, err := c.exchange(cmd, c.readTimeout)
	if err != nil {
		return escvp.PowerStatusStandbyNetworkOff, err
	}
	r, ok := resp.(escvp.PowerStatusResponse)
	if !ok {
		return escvp.PowerStatusStandbyNetworkOff, fmt.Errorf("%w: %s answered with %s", ErrUnexpectedResponse, cmd, resp)
	}
	return r.Status, nil
}

func (c *Controller) source() (escvp.Source, error) {
	cmd := escvp.QuerySource{}
	resp, err := c.exchange(cmd, c.readTimeout)
	if err != nil {
		return escvp.SourceInput1, err
	}
	r, ok := resp.(escvp.SourceResponse)
	if !ok {
		return escvp.SourceInput1, fmt.Errorf("%w: %s answered with %s", ErrUnexpectedResponse, cmd, resp)
	}
	return r.Source, nil
}

// converge runs the bounded set-then-verify loop. A mismatch consumes an
// attempt; any error from a query or the set command aborts at once.
func (c *Controller) converge(set escvp.Command, converged func() (bool, error)) error {
	if _, err := escvp.Encode(set); err != nil {
		return err
	}

	for attempt := 1; attempt <= MaxSetAttempts; attempt++ {
		ok, err := converged()
		if err != nil {
			return err
		}
		if ok {
			c.log.Debug().Stringer("command", set).Int("attempt", attempt).Msg("device in requested state")
			return nil
		}

		c.log.Info().Stringer("command", set).Int("attempt", attempt).Msg("device differs from requested state, sending")
		// The acknowledgement is device chatter and is not validated
		if _, err := c.exchange(set, c.readTimeout); err != nil {
			return err
		}
		time.Sleep(c.readTimeout)
	}

	c.log.Warn().Stringer("command", set).Int("attempts", MaxSetAttempts).Msg("device did not converge")
	return fmt.Errorf("%w: %s after %d attempts", ErrNotConverged, set, MaxSetAttempts)
}

// exchange writes one command and waits for the next decoded response.
// Stale bytes in the decoder and the link input queue are dropped first so a
// late reply to an earlier command cannot be taken for this one.
func (c *Controller) exchange(cmd escvp.Command, timeout time.Duration) (escvp.Response, error) {
	wire, err := escvp.Encode(cmd)
	if err != nil {
		return nil, err
	}

	c.decoder.Reset()
	if err := c.link.ResetInputBuffer(); err != nil {
		return nil, fmt.Errorf("%w: reset input buffer: %w", ErrLink, err)
	}

	c.log.Debug().Stringer("command", cmd).Str("wire", escvp.FormatWire(wire)).Msg("send")
	if _, err := c.link.Write(wire); err != nil {
		return nil, fmt.Errorf("%w: write %s: %w", ErrLink, cmd, err)
	}

	deadline := time.Now().Add(timeout)
	closed := false
	for {
		resp, err := c.decoder.Next()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", cmd, err)
		}
		if resp != nil {
			c.log.Debug().Stringer("command", cmd).Stringer("response", resp).Msg("receive")
			return resp, nil
		}
		if closed {
			return nil, fmt.Errorf("%w: %s", ErrNoResponse, cmd)
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			c.log.Warn().Stringer("command", cmd).Dur("timeout", timeout).Int("buffered", c.decoder.Buffered()).Msg("response timeout")
			return nil, fmt.Errorf("%w: %s after %v", ErrTimeout, cmd, timeout)
		}
		if err := c.link.SetReadTimeout(remaining); err != nil {
			return nil, fmt.Errorf("%w: set read timeout: %w", ErrLink, err)
		}

		n, err := c.link.Read(c.buf)
		if n > 0 {
			c.decoder.Write(c.buf[:n])
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				closed = true
				continue
			}
			return nil, fmt.Errorf("%w: read %s: %w", ErrLink, cmd, err)
		}
	}
}
