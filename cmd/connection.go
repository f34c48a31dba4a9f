// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/Thermoquad/epsonctl/internal/config"
	"github.com/Thermoquad/epsonctl/pkg/projector"
	"github.com/gorilla/websocket"
	"go.bug.st/serial"
	"golang.org/x/term"
)

// WebSocketLink carries projector bytes over a WebSocket serial bridge.
//
// A pump goroutine owns the socket reads so that read timeouts never touch
// the connection itself; gorilla treats an expired read deadline as fatal.
type WebSocketLink struct {
	conn    *websocket.Conn
	frames  chan []byte
	done    chan struct{} // closed when the pump exits
	stop    chan struct{} // closed by Close
	buf     []byte
	timeout time.Duration // negative blocks forever

	writeMu   sync.Mutex
	closeOnce sync.Once
}

func newWebSocketLink(conn *websocket.Conn) *WebSocketLink {
	l := &WebSocketLink{
		conn:    conn,
		frames:  make(chan []byte, 64),
		done:    make(chan struct{}),
		stop:    make(chan struct{}),
		timeout: -1,
	}
	go l.pump()
	return l
}

func (l *WebSocketLink) pump() {
	defer close(l.done)
	for {
		messageType, data, err := l.conn.ReadMessage()
		if err != nil {
			return
		}
		// The bridge may relay ASCII as text frames
		if messageType != websocket.BinaryMessage && messageType != websocket.TextMessage {
			continue
		}
		select {
		case l.frames <- data:
		case <-l.stop:
			return
		}
	}
}

// Read returns buffered bytes, or waits for the next frame until the read
// timeout expires (0, nil) or the bridge goes away (io.EOF).
func (l *WebSocketLink) Read(p []byte) (int, error) {
	if len(l.buf) > 0 {
		return l.take(p), nil
	}

	var expired <-chan time.Time
	if l.timeout >= 0 {
		timer := time.NewTimer(l.timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case data := <-l.frames:
		l.buf = data
		return l.take(p), nil
	case <-l.done:
		// Frames queued before the socket closed are still delivered
		select {
		case data := <-l.frames:
			l.buf = data
			return l.take(p), nil
		default:
			return 0, io.EOF
		}
	case <-expired:
		return 0, nil
	}
}

func (l *WebSocketLink) take(p []byte) int {
	n := copy(p, l.buf)
	l.buf = l.buf[n:]
	return n
}

func (l *WebSocketLink) Write(p []byte) (int, error) {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	if err := l.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// SetReadTimeout bounds Read. A negative value blocks until data arrives.
func (l *WebSocketLink) SetReadTimeout(t time.Duration) error {
	l.timeout = t
	return nil
}

// ResetInputBuffer drops partially consumed and queued frames
func (l *WebSocketLink) ResetInputBuffer() error {
	l.buf = nil
	for {
		select {
		case <-l.frames:
		default:
			return nil
		}
	}
}

func (l *WebSocketLink) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.stop)
		err = l.conn.Close()
	})
	return err
}

// OpenSerialLink opens a serial port with 8N1 framing
func OpenSerialLink(portName string, baudRate int) (projector.Link, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}

	return port, nil
}

// OpenWebSocketLink opens a WebSocket bridge connection with HTTP Basic auth
func OpenWebSocketLink(wsURL, username, password string, skipSSLVerify bool) (*WebSocketLink, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: skipSSLVerify,
		}
	}

	headers := http.Header{}
	if username != "" && password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %w", err)
	}

	return newWebSocketLink(conn), nil
}

// GetPassword returns the configured bridge password or prompts for one
func GetPassword(cfg config.BridgeConfig) (string, error) {
	if cfg.Password != "" {
		return cfg.Password, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")

	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Not a terminal
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// OpenLink opens the bridge when a URL is configured, the serial port otherwise
func OpenLink(cfg *config.Config) (projector.Link, string, error) {
	if cfg.Bridge.URL != "" {
		password := ""
		if cfg.Bridge.Username != "" {
			var err error
			password, err = GetPassword(cfg.Bridge)
			if err != nil {
				return nil, "", err
			}
		}

		link, err := OpenWebSocketLink(cfg.Bridge.URL, cfg.Bridge.Username, password, cfg.Bridge.NoSSLVerify)
		if err != nil {
			return nil, "", err
		}
		return link, fmt.Sprintf("WebSocket: %s", cfg.Bridge.URL), nil
	}

	if cfg.Serial.Port != "" {
		link, err := OpenSerialLink(cfg.Serial.Port, cfg.Serial.BaudRate)
		if err != nil {
			return nil, "", err
		}
		return link, fmt.Sprintf("Serial: %s @ %d baud", cfg.Serial.Port, cfg.Serial.BaudRate), nil
	}

	return nil, "", fmt.Errorf("either --port or --url must be specified")
}

// openController opens the configured link and wraps it in a Controller
func openController() (*projector.Controller, string, error) {
	link, info, err := OpenLink(cfg)
	if err != nil {
		return nil, "", err
	}

	ctrl := projector.New(link, projector.Options{
		ReadTimeout: cfg.Serial.ReadTimeout,
		Logger:      logger.With().Str("link", info).Logger(),
	})
	return ctrl, info, nil
}
