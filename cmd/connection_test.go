// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Thermoquad/epsonctl/pkg/escvp"
	"github.com/Thermoquad/epsonctl/pkg/projector"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const testTimeout = 100 * time.Millisecond

// projectorServer answers each WebSocket message with reply(line). An
// empty reply sends nothing.
func projectorServer(t *testing.T, onConnect func(*websocket.Conn), reply func(line string) string) *httptest.Server {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		if onConnect != nil {
			onConnect(conn)
		}
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if out := reply(strings.TrimSpace(string(data))); out != "" {
				conn.WriteMessage(websocket.BinaryMessage, []byte(out))
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURLFor(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

// simulatedProjector is a minimal state machine speaking ESC/VP21
type simulatedProjector struct {
	mu     sync.Mutex
	power  string
	source string
}

func (p *simulatedProjector) reply(line string) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case line == "PWR?":
		return ":PWR=" + p.power + "\r"
	case line == "SOURCE?":
		return ":SOURCE=" + p.source + "\r"
	case line == "POWER ON":
		p.power = "01"
	case line == "POWER OFF":
		p.power = "00"
	case strings.HasPrefix(line, "SOURCE "):
		p.source = strings.ToUpper(strings.TrimPrefix(line, "SOURCE "))
	}
	return ":\r"
}

func openTestController(t *testing.T, srv *httptest.Server) *projector.Controller {
	t.Helper()
	link, err := OpenWebSocketLink(wsURLFor(srv), "", "", false)
	if err != nil {
		t.Fatalf("OpenWebSocketLink failed: %v", err)
	}
	ctrl := projector.New(link, projector.Options{ReadTimeout: testTimeout, Logger: zerolog.Nop()})
	t.Cleanup(func() { ctrl.Close() })
	return ctrl
}

func TestOpenWebSocketLink_RejectsScheme(t *testing.T) {
	for _, u := range []string{"http://bridge/serial", "serial:///dev/ttyUSB0", "://"} {
		if _, err := OpenWebSocketLink(u, "", "", false); err == nil {
			t.Errorf("OpenWebSocketLink(%q) should fail", u)
		}
	}
}

func TestOpenWebSocketLink_BasicAuth(t *testing.T) {
	var gotUser, gotPass string
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, _ = r.BasicAuth()
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.Close()
	}))
	defer srv.Close()

	link, err := OpenWebSocketLink(wsURLFor(srv), "admin", "hunter2", false)
	if err != nil {
		t.Fatalf("OpenWebSocketLink failed: %v", err)
	}
	defer link.Close()

	if gotUser != "admin" || gotPass != "hunter2" {
		t.Errorf("basic auth = %q/%q, want admin/hunter2", gotUser, gotPass)
	}
}

func TestOpenWebSocketLink_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := OpenWebSocketLink(wsURLFor(srv), "", "", false)
	if err == nil || !strings.Contains(err.Error(), "HTTP 401") {
		t.Errorf("err = %v, want HTTP 401", err)
	}
}

func TestWebSocketLink_ReadTimeout(t *testing.T) {
	srv := projectorServer(t, nil, func(string) string { return "" })

	link, err := OpenWebSocketLink(wsURLFor(srv), "", "", false)
	if err != nil {
		t.Fatalf("OpenWebSocketLink failed: %v", err)
	}
	defer link.Close()

	link.SetReadTimeout(20 * time.Millisecond)
	start := time.Now()
	n, err := link.Read(make([]byte, 16))
	if n != 0 || err != nil {
		t.Errorf("Read = %d, %v; want 0, nil on timeout", n, err)
	}
	if elapsed := time.Since(start); elapsed < 15*time.Millisecond {
		t.Errorf("Read returned after %v, before the timeout", elapsed)
	}
}

func TestWebSocketLink_PartialReads(t *testing.T) {
	srv := projectorServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.BinaryMessage, []byte(":PWR=01\r"))
	}, func(string) string { return "" })

	link, err := OpenWebSocketLink(wsURLFor(srv), "", "", false)
	if err != nil {
		t.Fatalf("OpenWebSocketLink failed: %v", err)
	}
	defer link.Close()
	link.SetReadTimeout(time.Second)

	var got []byte
	buf := make([]byte, 3)
	for len(got) < 8 {
		n, err := link.Read(buf)
		if err != nil || n == 0 {
			t.Fatalf("Read = %d, %v after %q", n, err, got)
		}
		got = append(got, buf[:n]...)
	}
	if string(got) != ":PWR=01\r" {
		t.Errorf("read %q", got)
	}
}

func TestWebSocketLink_ResetDropsStaleFrames(t *testing.T) {
	sim := &simulatedProjector{power: "01", source: "30"}
	srv := projectorServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.BinaryMessage, []byte(":SOURCE=A0\r"))
	}, sim.reply)

	link, err := OpenWebSocketLink(wsURLFor(srv), "", "", false)
	if err != nil {
		t.Fatalf("OpenWebSocketLink failed: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for len(link.frames) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("stale frame never arrived")
		}
		time.Sleep(time.Millisecond)
	}

	ctrl := projector.New(link, projector.Options{ReadTimeout: testTimeout, Logger: zerolog.Nop()})
	defer ctrl.Close()

	status, err := ctrl.PowerStatus()
	if err != nil {
		t.Fatalf("PowerStatus failed: %v", err)
	}
	if status != escvp.PowerStatusLampOn {
		t.Errorf("status = %s, want lampOn", status)
	}
}

func TestWebSocketLink_EOFWhenBridgeCloses(t *testing.T) {
	srv := projectorServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.BinaryMessage, []byte("bye\r"))
		conn.Close()
	}, func(string) string { return "" })

	link, err := OpenWebSocketLink(wsURLFor(srv), "", "", false)
	if err != nil {
		t.Fatalf("OpenWebSocketLink failed: %v", err)
	}
	defer link.Close()

	buf := make([]byte, 16)
	n, err := link.Read(buf)
	if err != nil || string(buf[:n]) != "bye\r" {
		t.Fatalf("first Read = %q, %v", buf[:n], err)
	}
	if _, err := link.Read(buf); !errors.Is(err, io.EOF) {
		t.Errorf("Read after close = %v, want io.EOF", err)
	}
}

func TestWebSocketLink_CloseIsIdempotent(t *testing.T) {
	srv := projectorServer(t, nil, func(string) string { return "" })

	link, err := OpenWebSocketLink(wsURLFor(srv), "", "", false)
	if err != nil {
		t.Fatalf("OpenWebSocketLink failed: %v", err)
	}
	if err := link.Close(); err != nil {
		t.Errorf("first Close = %v", err)
	}
	if err := link.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
	if _, err := link.Read(make([]byte, 4)); !errors.Is(err, io.EOF) {
		t.Errorf("Read after Close = %v, want io.EOF", err)
	}
}

func TestController_OverWebSocket(t *testing.T) {
	sim := &simulatedProjector{power: "00", source: "10"}
	srv := projectorServer(t, nil, sim.reply)
	ctrl := openTestController(t, srv)

	if err := ctrl.SetPower(escvp.PowerOn); err != nil {
		t.Fatalf("SetPower failed: %v", err)
	}
	if err := ctrl.SetSource(escvp.SourceHdmi2); err != nil {
		t.Fatalf("SetSource failed: %v", err)
	}

	st, err := ctrl.Status()
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if st.Power != escvp.PowerOn || st.Source == nil || *st.Source != escvp.SourceHdmi2 {
		t.Errorf("status = %+v", st)
	}
}
