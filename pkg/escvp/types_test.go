// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package escvp

import (
	"encoding/json"
	"testing"
)

func TestPowerStatus_Power(t *testing.T) {
	tests := []struct {
		status PowerStatus
		want   Power
	}{
		{PowerStatusStandbyNetworkOff, PowerOff},
		{PowerStatusLampOn, PowerOn},
		{PowerStatusWarmup, PowerOn},
		{PowerStatusCoolDown, PowerOff},
		{PowerStatusAbnormalityStandby, PowerOff},
		{PowerStatusWirelessHdStandby, PowerOff},
	}

	if len(tests) != len(PowerStatuses()) {
		t.Fatalf("table covers %d statuses, enumeration has %d", len(tests), len(PowerStatuses()))
	}

	for _, tt := range tests {
		if got := tt.status.Power(); got != tt.want {
			t.Errorf("%s.Power() = %s, want %s", tt.status, got, tt.want)
		}
	}
}

func TestCodeTables_Bidirectional(t *testing.T) {
	for _, s := range PowerStatuses() {
		code, ok := s.Code()
		if !ok {
			t.Fatalf("%s has no code", s)
		}
		back, ok := PowerStatusFromCode(code)
		if !ok || back != s {
			t.Errorf("PowerStatusFromCode(0x%02X) = %s, %v; want %s", code, back, ok, s)
		}
	}

	for _, s := range Sources() {
		code, ok := s.Code()
		if !ok {
			t.Fatalf("%s has no code", s)
		}
		back, ok := SourceFromCode(code)
		if !ok || back != s {
			t.Errorf("SourceFromCode(0x%02X) = %s, %v; want %s", code, back, ok, s)
		}
	}

	if len(Sources()) != 8 {
		t.Errorf("len(Sources()) = %d, want 8", len(Sources()))
	}
	if len(PowerStatuses()) != 6 {
		t.Errorf("len(PowerStatuses()) = %d, want 6", len(PowerStatuses()))
	}
}

func TestParseSource(t *testing.T) {
	tests := []struct {
		input   string
		want    Source
		wantErr bool
	}{
		{"input3Hdmi", SourceInput3Hdmi, false},
		{"INPUT3HDMI", SourceInput3Hdmi, false},
		{"hdmi2", SourceHdmi2, false},
		{"a0", SourceHdmi2, false},
		{"0x30", SourceInput3Hdmi, false},
		{" video ", SourceVideo, false},
		{"11", 0, true},
		{"hdmi9", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseSource(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSource(%q) err = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseSource(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}
}

func TestParsePowerAndKey(t *testing.T) {
	if p, err := ParsePower("ON"); err != nil || p != PowerOn {
		t.Errorf("ParsePower(ON) = %s, %v", p, err)
	}
	if p, err := ParsePower("off"); err != nil || p != PowerOff {
		t.Errorf("ParsePower(off) = %s, %v", p, err)
	}
	if _, err := ParsePower("standby"); err == nil {
		t.Error("ParsePower(standby) should fail")
	}

	if k, err := ParseKey("Menu"); err != nil || k != KeyMenu {
		t.Errorf("ParseKey(Menu) = %s, %v", k, err)
	}
	if k, err := ParseKey("48"); err != nil || k != KeySource {
		t.Errorf("ParseKey(48) = %s, %v", k, err)
	}
	if _, err := ParseKey("volume"); err == nil {
		t.Error("ParseKey(volume) should fail")
	}
}

func TestJSONNames(t *testing.T) {
	type status struct {
		PowerStatus PowerStatus `json:"powerStatus"`
		Power       Power       `json:"power"`
		Source      *Source     `json:"source,omitempty"`
	}

	src := SourceInput3Hdmi
	data, err := json.Marshal(status{PowerStatusLampOn, PowerOn, &src})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	want := `{"powerStatus":"lampOn","power":"on","source":"input3Hdmi"}`
	if string(data) != want {
		t.Errorf("Marshal = %s, want %s", data, want)
	}

	var back status
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if back.PowerStatus != PowerStatusLampOn || back.Power != PowerOn || back.Source == nil || *back.Source != src {
		t.Errorf("Unmarshal = %+v", back)
	}

	if _, err := json.Marshal(Source(42)); err == nil {
		t.Error("Marshal of out-of-table source should fail")
	}
}
