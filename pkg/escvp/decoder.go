// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package escvp

import (
	"bytes"
	"fmt"
	"strconv"
	"unicode/utf8"
)

// Decode extracts the first CR terminated frame from buf.
//
// It returns the decoded response and the bytes left after the frame:
//   - no CR in buf: nil response, buf unchanged (more data needed)
//   - CR is the first byte: the CR is consumed and nil is returned
//   - decode failure: the frame is consumed and the error returned
func Decode(buf []byte) (Response, []byte, error) {
	i := bytes.IndexByte(buf, CR)
	if i < 0 {
		return nil, buf, nil
	}
	frame, rest := buf[:i], buf[i+1:]
	if len(frame) == 0 {
		return nil, rest, nil
	}
	resp, err := parseFrame(frame)
	return resp, rest, err
}

func parseFrame(frame []byte) (Response, error) {
	frame = bytes.TrimLeft(frame, string(rune(Prompt)))

	switch {
	case bytes.HasPrefix(frame, []byte(powerPrefix)):
		code, err := parseCode(frame[len(powerPrefix):])
		if err != nil {
			return nil, err
		}
		status, ok := PowerStatusFromCode(code)
		if !ok {
			return nil, fmt.Errorf("%w: power status 0x%02X", ErrUnknownCode, code)
		}
		return PowerStatusResponse{Status: status}, nil

	case bytes.HasPrefix(frame, []byte(sourcePrefix)):
		code, err := parseCode(frame[len(sourcePrefix):])
		if err != nil {
			return nil, err
		}
		source, ok := SourceFromCode(code)
		if !ok {
			return nil, fmt.Errorf("%w: source 0x%02X", ErrUnknownCode, code)
		}
		return SourceResponse{Source: source}, nil

	default:
		if !utf8.Valid(frame) {
			return InvalidLine{Text: fmt.Sprintf("frame is not valid UTF-8: % X", frame)}, nil
		}
		return InvalidLine{Text: string(frame)}, nil
	}
}

// parseCode reads the two hex digits following a status prefix
func parseCode(b []byte) (uint8, error) {
	if len(b) < codeDigits {
		return 0, fmt.Errorf("%w: %q", ErrMalformedCode, b)
	}
	n, err := strconv.ParseUint(string(b[:codeDigits]), 16, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedCode, b[:codeDigits])
	}
	return uint8(n), nil
}

// Decoder accumulates link bytes and yields responses as frames complete.
// It holds nothing but the unconsumed tail.
type Decoder struct {
	buf []byte
}

// NewDecoder creates an empty decoder
func NewDecoder() *Decoder {
	return &Decoder{buf: make([]byte, 0, 64)}
}

// Write appends bytes read from the link. It never fails.
func (d *Decoder) Write(p []byte) (int, error) {
	d.buf = append(d.buf, p...)
	return len(p), nil
}

// Next returns the next decoded response, or nil when more data is needed.
// Empty frames are skipped.
func (d *Decoder) Next() (Response, error) {
	for {
		resp, rest, err := Decode(d.buf)
		consumed := len(d.buf) - len(rest)
		d.buf = append(d.buf[:0], rest...)
		if err != nil || resp != nil || consumed == 0 {
			return resp, err
		}
	}
}

// Reset discards any buffered bytes
func (d *Decoder) Reset() {
	d.buf = d.buf[:0]
}

// Buffered returns the number of undecoded bytes
func (d *Decoder) Buffered() int {
	return len(d.buf)
}
