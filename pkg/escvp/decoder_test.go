// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package escvp

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// ============================================================
// Decode Tests
// ============================================================

func TestDecode_AllPowerCodes(t *testing.T) {
	known := map[uint8]PowerStatus{
		0x00: PowerStatusStandbyNetworkOff,
		0x01: PowerStatusLampOn,
		0x02: PowerStatusWarmup,
		0x03: PowerStatusCoolDown,
		0x05: PowerStatusAbnormalityStandby,
		0x07: PowerStatusWirelessHdStandby,
	}

	for code := 0; code <= 0xFF; code++ {
		for _, hex := range []string{fmt.Sprintf("%02X", code), fmt.Sprintf("%02x", code)} {
			resp, rest, err := Decode([]byte("PWR=" + hex + "\r"))
			if len(rest) != 0 {
				t.Errorf("PWR=%s: rest = %q, want empty", hex, rest)
			}

			want, ok := known[uint8(code)]
			if !ok {
				if !errors.Is(err, ErrUnknownCode) {
					t.Errorf("PWR=%s: err = %v, want ErrUnknownCode", hex, err)
				}
				if resp != nil {
					t.Errorf("PWR=%s: resp = %v, want nil", hex, resp)
				}
				continue
			}

			if err != nil {
				t.Fatalf("PWR=%s: unexpected error: %v", hex, err)
			}
			got, isPower := resp.(PowerStatusResponse)
			if !isPower {
				t.Fatalf("PWR=%s: resp = %T, want PowerStatusResponse", hex, resp)
			}
			if got.Status != want {
				t.Errorf("PWR=%s: status = %s, want %s", hex, got.Status, want)
			}
		}
	}
}

func TestDecode_Source(t *testing.T) {
	tests := []struct {
		input string
		want  Source
	}{
		{"SOURCE=10\r", SourceInput1},
		{"SOURCE=20\r", SourceInput2DSub15},
		{"SOURCE=21\r", SourceInput2Rgb},
		{"SOURCE=30\r", SourceInput3Hdmi},
		{"SOURCE=31\r", SourceInput3DigitalRgb},
		{"SOURCE=40\r", SourceVideo},
		{"SOURCE=41\r", SourceVideoRca},
		{"SOURCE=A0\r", SourceHdmi2},
		{"SOURCE=a0\r", SourceHdmi2},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			resp, _, err := Decode([]byte(tt.input))
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			got, ok := resp.(SourceResponse)
			if !ok {
				t.Fatalf("resp = %T, want SourceResponse", resp)
			}
			if got.Source != tt.want {
				t.Errorf("source = %s, want %s", got.Source, tt.want)
			}
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
		wantMsg string
	}{
		{"power bad hex", "PWR=ZZ\r", ErrMalformedCode, "ZZ"},
		{"power short", "PWR=1\r", ErrMalformedCode, "1"},
		{"power empty", "PWR=\r", ErrMalformedCode, ""},
		{"power unknown", "PWR=04\r", ErrUnknownCode, "0x04"},
		{"source bad hex", "SOURCE=G1\r", ErrMalformedCode, "G1"},
		{"source unknown", "SOURCE=11\r", ErrUnknownCode, "0x11"},
		{"signed hex", "PWR=+1\r", ErrMalformedCode, "+1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, rest, err := Decode([]byte(tt.input))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("err = %q, should mention %q", err, tt.wantMsg)
			}
			if resp != nil {
				t.Errorf("resp = %v, want nil", resp)
			}
			if len(rest) != 0 {
				t.Errorf("frame not consumed, rest = %q", rest)
			}
		})
	}
}

func TestDecode_InsufficientData(t *testing.T) {
	inputs := []string{"", "PWR=0", "PWR=01", ":::", "SOURCE=30\n", "garbage"}

	for _, in := range inputs {
		resp, rest, err := Decode([]byte(in))
		if err != nil {
			t.Errorf("Decode(%q) error = %v, want nil", in, err)
		}
		if resp != nil {
			t.Errorf("Decode(%q) resp = %v, want nil", in, resp)
		}
		if string(rest) != in {
			t.Errorf("Decode(%q) consumed bytes, rest = %q", in, rest)
		}
	}
}

func TestDecode_LeadingCarriageReturn(t *testing.T) {
	resp, rest, err := Decode([]byte("\r"))
	if err != nil || resp != nil {
		t.Fatalf("Decode(\\r) = %v, %v; want nil, nil", resp, err)
	}
	if len(rest) != 0 {
		t.Errorf("leading CR not consumed, rest = %q", rest)
	}

	resp, rest, err = Decode([]byte("\rPWR=01\r"))
	if err != nil || resp != nil {
		t.Fatalf("Decode = %v, %v; want nil, nil", resp, err)
	}
	if string(rest) != "PWR=01\r" {
		t.Errorf("rest = %q, want %q", rest, "PWR=01\r")
	}
}

func TestDecode_ColonsStripped(t *testing.T) {
	plain, _, err := Decode([]byte("PWR=01\r"))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	for _, prefix := range []string{":", "::", ":::::"} {
		got, _, err := Decode([]byte(prefix + "PWR=01\r"))
		if err != nil {
			t.Fatalf("Decode(%sPWR=01) failed: %v", prefix, err)
		}
		if got != plain {
			t.Errorf("Decode(%sPWR=01) = %v, want %v", prefix, got, plain)
		}
	}

	got, _, err := Decode([]byte("::SOURCE=30\r"))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got != (SourceResponse{Source: SourceInput3Hdmi}) {
		t.Errorf("got %v, want input3Hdmi", got)
	}
}

func TestDecode_InvalidLine(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{"error reply", []byte("ERR\r"), "ERR"},
		{"prompt only", []byte(":\r"), ""},
		{"lowercase prefix", []byte("pwr=01\r"), "pwr=01"},
		{"space before prefix", []byte(" PWR=01\r"), " PWR=01"},
		{"not utf8", []byte{0xFF, 0xFE, CR}, "frame is not valid UTF-8: FF FE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _, err := Decode(tt.input)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			line, ok := resp.(InvalidLine)
			if !ok {
				t.Fatalf("resp = %T, want InvalidLine", resp)
			}
			if line.Text != tt.want {
				t.Errorf("Text = %q, want %q", line.Text, tt.want)
			}
		})
	}
}

func TestDecode_Deterministic(t *testing.T) {
	input := []byte("::PWR=02\rSOURCE=A0\r")
	r1, rest1, err1 := Decode(input)
	r2, rest2, err2 := Decode(input)
	if r1 != r2 || string(rest1) != string(rest2) || err1 != err2 {
		t.Errorf("Decode not deterministic: (%v %q %v) vs (%v %q %v)", r1, rest1, err1, r2, rest2, err2)
	}
}

// ============================================================
// Decoder Tests
// ============================================================

func TestDecoder_ByteAtATime(t *testing.T) {
	d := NewDecoder()
	input := []byte(":PWR=01\r")

	for i, b := range input {
		d.Write([]byte{b})
		resp, err := d.Next()
		if err != nil {
			t.Fatalf("byte %d: unexpected error: %v", i, err)
		}
		if i < len(input)-1 && resp != nil {
			t.Fatalf("byte %d: early response %v", i, resp)
		}
		if i == len(input)-1 && resp != (PowerStatusResponse{Status: PowerStatusLampOn}) {
			t.Fatalf("final byte: resp = %v, want lampOn", resp)
		}
	}

	if d.Buffered() != 0 {
		t.Errorf("Buffered() = %d, want 0", d.Buffered())
	}
}

func TestDecoder_MultipleFrames(t *testing.T) {
	d := NewDecoder()
	d.Write([]byte("\r\r:PWR=00\r:SOURCE=30\rERR\r:"))

	want := []Response{
		PowerStatusResponse{Status: PowerStatusStandbyNetworkOff},
		SourceResponse{Source: SourceInput3Hdmi},
		InvalidLine{Text: "ERR"},
	}

	for i, w := range want {
		got, err := d.Next()
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if got != w {
			t.Errorf("frame %d = %v, want %v", i, got, w)
		}
	}

	got, err := d.Next()
	if got != nil || err != nil {
		t.Errorf("trailing prompt: got %v, %v; want nil, nil", got, err)
	}
	if d.Buffered() != 1 {
		t.Errorf("Buffered() = %d, want 1 (trailing prompt)", d.Buffered())
	}
}

func TestDecoder_ErrorConsumesFrame(t *testing.T) {
	d := NewDecoder()
	d.Write([]byte("PWR=99\rPWR=01\r"))

	if _, err := d.Next(); !errors.Is(err, ErrUnknownCode) {
		t.Fatalf("first frame: err = %v, want ErrUnknownCode", err)
	}
	resp, err := d.Next()
	if err != nil {
		t.Fatalf("second frame: %v", err)
	}
	if resp != (PowerStatusResponse{Status: PowerStatusLampOn}) {
		t.Errorf("second frame = %v, want lampOn", resp)
	}
}

func TestDecoder_Reset(t *testing.T) {
	d := NewDecoder()
	d.Write([]byte("PWR=0"))
	d.Reset()
	if d.Buffered() != 0 {
		t.Fatalf("Buffered() after Reset = %d, want 0", d.Buffered())
	}

	d.Write([]byte("1\r"))
	resp, err := d.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if _, ok := resp.(InvalidLine); !ok {
		t.Errorf("resp = %v, want InvalidLine for stale tail", resp)
	}
}
