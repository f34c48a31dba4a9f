// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package escvp

import (
	"fmt"
	"strconv"
	"strings"
)

// entry binds one enumeration value to its wire code and text name
type entry[T comparable] struct {
	value T
	code  uint8
	name  string
}

// codeTable is a total, bidirectional lookup between an enumeration, its
// wire codes and its text names. Conversions never go through casts.
type codeTable[T comparable] struct {
	entries []entry[T]
	byCode  map[uint8]T
	byValue map[T]entry[T]
	byName  map[string]T
}

func newCodeTable[T comparable](entries ...entry[T]) *codeTable[T] {
	t := &codeTable[T]{
		entries: entries,
		byCode:  make(map[uint8]T, len(entries)),
		byValue: make(map[T]entry[T], len(entries)),
		byName:  make(map[string]T, len(entries)),
	}
	for _, e := range entries {
		t.byCode[e.code] = e.value
		t.byValue[e.value] = e
		t.byName[strings.ToLower(e.name)] = e.value
	}
	return t
}

func (t *codeTable[T]) fromCode(code uint8) (T, bool) {
	v, ok := t.byCode[code]
	return v, ok
}

func (t *codeTable[T]) code(v T) (uint8, bool) {
	e, ok := t.byValue[v]
	return e.code, ok
}

func (t *codeTable[T]) name(v T) (string, bool) {
	e, ok := t.byValue[v]
	return e.name, ok
}

// parse accepts a text name (case-insensitive) or a two digit hex code
func (t *codeTable[T]) parse(kind, s string) (T, error) {
	s = strings.TrimSpace(s)
	if v, ok := t.byName[strings.ToLower(s)]; ok {
		return v, nil
	}
	hex := strings.TrimPrefix(strings.ToLower(s), "0x")
	if len(hex) == codeDigits {
		if n, err := strconv.ParseUint(hex, 16, 8); err == nil {
			if v, ok := t.byCode[uint8(n)]; ok {
				return v, nil
			}
		}
	}
	var zero T
	return zero, fmt.Errorf("unknown %s %q", kind, s)
}

func (t *codeTable[T]) values() []T {
	out := make([]T, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e.value)
	}
	return out
}

//////////////////////////////////////////////////////////////
// PowerStatus
//////////////////////////////////////////////////////////////

// PowerStatus is the detailed power state reported by PWR?
type PowerStatus int

// Power status values
const (
	PowerStatusStandbyNetworkOff PowerStatus = iota
	PowerStatusLampOn
	PowerStatusWarmup
	PowerStatusCoolDown
	PowerStatusAbnormalityStandby
	PowerStatusWirelessHdStandby
)

var powerStatusTable = newCodeTable(
	entry[PowerStatus]{PowerStatusStandbyNetworkOff, 0x00, "standbyNetworkOff"},
	entry[PowerStatus]{PowerStatusLampOn, 0x01, "lampOn"},
	entry[PowerStatus]{PowerStatusWarmup, 0x02, "warmup"},
	entry[PowerStatus]{PowerStatusCoolDown, 0x03, "coolDown"},
	entry[PowerStatus]{PowerStatusAbnormalityStandby, 0x05, "abnormalityStandby"},
	entry[PowerStatus]{PowerStatusWirelessHdStandby, 0x07, "wirelessHdStandby"},
)

// PowerStatusFromCode maps a wire code to a PowerStatus
func PowerStatusFromCode(code uint8) (PowerStatus, bool) {
	return powerStatusTable.fromCode(code)
}

// ParsePowerStatus parses a power status name or hex code
func ParsePowerStatus(s string) (PowerStatus, error) {
	return powerStatusTable.parse("power status", s)
}

// PowerStatuses returns every power status in code order
func PowerStatuses() []PowerStatus {
	return powerStatusTable.values()
}

// Code returns the wire code of the status
func (s PowerStatus) Code() (uint8, bool) {
	return powerStatusTable.code(s)
}

// Power derives the coarse on/off state. Lamp on and warm-up count as on;
// every other status is off.
func (s PowerStatus) Power() Power {
	switch s {
	case PowerStatusLampOn, PowerStatusWarmup:
		return PowerOn
	default:
		return PowerOff
	}
}

func (s PowerStatus) String() string {
	if name, ok := powerStatusTable.name(s); ok {
		return name
	}
	return fmt.Sprintf("PowerStatus(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler
func (s PowerStatus) MarshalText() ([]byte, error) {
	name, ok := powerStatusTable.name(s)
	if !ok {
		return nil, fmt.Errorf("invalid power status %d", int(s))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *PowerStatus) UnmarshalText(text []byte) error {
	v, err := ParsePowerStatus(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

//////////////////////////////////////////////////////////////
// Source
//////////////////////////////////////////////////////////////

// Source is a projector input
type Source int

// Source values
const (
	SourceInput1 Source = iota
	SourceInput2DSub15
	SourceInput2Rgb
	SourceInput3Hdmi
	SourceInput3DigitalRgb
	SourceVideo
	SourceVideoRca
	SourceHdmi2
)

var sourceTable = newCodeTable(
	entry[Source]{SourceInput1, 0x10, "input1"},
	entry[Source]{SourceInput2DSub15, 0x20, "input2DSub15"},
	entry[Source]{SourceInput2Rgb, 0x21, "input2Rgb"},
	entry[Source]{SourceInput3Hdmi, 0x30, "input3Hdmi"},
	entry[Source]{SourceInput3DigitalRgb, 0x31, "input3DigitalRgb"},
	entry[Source]{SourceVideo, 0x40, "video"},
	entry[Source]{SourceVideoRca, 0x41, "videoRca"},
	entry[Source]{SourceHdmi2, 0xA0, "hdmi2"},
)

// SourceFromCode maps a wire code to a Source
func SourceFromCode(code uint8) (Source, bool) {
	return sourceTable.fromCode(code)
}

// ParseSource parses a source name or hex code
func ParseSource(s string) (Source, error) {
	return sourceTable.parse("source", s)
}

// Sources returns every source in code order
func Sources() []Source {
	return sourceTable.values()
}

// Code returns the wire code of the source
func (s Source) Code() (uint8, bool) {
	return sourceTable.code(s)
}

func (s Source) String() string {
	if name, ok := sourceTable.name(s); ok {
		return name
	}
	return fmt.Sprintf("Source(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler
func (s Source) MarshalText() ([]byte, error) {
	name, ok := sourceTable.name(s)
	if !ok {
		return nil, fmt.Errorf("invalid source %d", int(s))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *Source) UnmarshalText(text []byte) error {
	v, err := ParseSource(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

//////////////////////////////////////////////////////////////
// Power
//////////////////////////////////////////////////////////////

// Power is the coarse on/off state
type Power int

// Power values
const (
	PowerOff Power = iota
	PowerOn
)

var powerNames = map[Power]string{
	PowerOff: "off",
	PowerOn:  "on",
}

// powerWords are the POWER command arguments
var powerWords = map[Power]string{
	PowerOff: "OFF",
	PowerOn:  "ON",
}

// ParsePower parses "on" or "off" (case-insensitive)
func ParsePower(s string) (Power, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on":
		return PowerOn, nil
	case "off":
		return PowerOff, nil
	}
	return PowerOff, fmt.Errorf("unknown power %q", s)
}

func (p Power) String() string {
	if name, ok := powerNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Power(%d)", int(p))
}

// MarshalText implements encoding.TextMarshaler
func (p Power) MarshalText() ([]byte, error) {
	name, ok := powerNames[p]
	if !ok {
		return nil, fmt.Errorf("invalid power %d", int(p))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (p *Power) UnmarshalText(text []byte) error {
	v, err := ParsePower(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

//////////////////////////////////////////////////////////////
// Key
//////////////////////////////////////////////////////////////

// Key is a remote control button sent with the KEY command
type Key int

// Key values
const (
	KeyPower Key = iota
	KeyMenu
	KeyEsc
	KeyEnter
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeySource
)

var keyTable = newCodeTable(
	entry[Key]{KeyPower, 0x01, "power"},
	entry[Key]{KeyMenu, 0x03, "menu"},
	entry[Key]{KeyEsc, 0x05, "esc"},
	entry[Key]{KeyEnter, 0x16, "enter"},
	entry[Key]{KeyUp, 0x35, "up"},
	entry[Key]{KeyDown, 0x36, "down"},
	entry[Key]{KeyLeft, 0x37, "left"},
	entry[Key]{KeyRight, 0x38, "right"},
	entry[Key]{KeySource, 0x48, "source"},
)

// ParseKey parses a key name or hex code
func ParseKey(s string) (Key, error) {
	return keyTable.parse("key", s)
}

// Keys returns every key in code order
func Keys() []Key {
	return keyTable.values()
}

// Code returns the wire code of the key
func (k Key) Code() (uint8, bool) {
	return keyTable.code(k)
}

func (k Key) String() string {
	if name, ok := keyTable.name(k); ok {
		return name
	}
	return fmt.Sprintf("Key(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler
func (k Key) MarshalText() ([]byte, error) {
	name, ok := keyTable.name(k)
	if !ok {
		return nil, fmt.Errorf("invalid key %d", int(k))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *Key) UnmarshalText(text []byte) error {
	v, err := ParseKey(string(text))
	if err != nil {
		return err
	}
	*k = v
	return nil
}
