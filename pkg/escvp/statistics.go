// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package escvp

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Statistics tracks decoded frame counts and error rates on a link
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	TotalFrames    uint64
	PowerFrames    uint64
	SourceFrames   uint64
	InvalidLines   uint64
	MalformedCodes uint64
	UnknownCodes   uint64
	OtherErrors    uint64

	// Rates (calculated)
	FrameRate float64 // frames/sec
	ErrorRate float64 // errors/sec
}

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// Update records one Decoder.Next result. Calls that yielded neither a
// response nor an error are ignored.
func (s *Statistics) Update(resp Response, decodeErr error) {
	if resp == nil && decodeErr == nil {
		return
	}
	s.TotalFrames++
	s.LastUpdateTime = time.Now()

	switch {
	case errors.Is(decodeErr, ErrMalformedCode):
		s.MalformedCodes++
	case errors.Is(decodeErr, ErrUnknownCode):
		s.UnknownCodes++
	case decodeErr != nil:
		s.OtherErrors++
	default:
		switch resp.(type) {
		case PowerStatusResponse:
			s.PowerFrames++
		case SourceResponse:
			s.SourceFrames++
		case InvalidLine:
			s.InvalidLines++
		}
	}
}

// Errors returns the number of frames that failed to decode
func (s *Statistics) Errors() uint64 {
	return s.MalformedCodes + s.UnknownCodes + s.OtherErrors
}

// CalculateRates calculates frame and error rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.FrameRate = float64(s.TotalFrames) / elapsed
		s.ErrorRate = float64(s.Errors()) / elapsed
	}
}

func (s *Statistics) percent(n uint64) float64 {
	if s.TotalFrames == 0 {
		return 0
	}
	return float64(n) * 100.0 / float64(s.TotalFrames)
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	var b strings.Builder
	fmt.Fprintf(&b, "=== Statistics (%.0f seconds) ===\n", time.Since(s.StartTime).Seconds())
	fmt.Fprintf(&b, "Total Frames:    %8d\n", s.TotalFrames)
	fmt.Fprintf(&b, "Power Status:    %8d (%.1f%%)\n", s.PowerFrames, s.percent(s.PowerFrames))
	fmt.Fprintf(&b, "Source Status:   %8d (%.1f%%)\n", s.SourceFrames, s.percent(s.SourceFrames))
	fmt.Fprintf(&b, "Other Lines:     %8d (%.1f%%)\n", s.InvalidLines, s.percent(s.InvalidLines))

	if errs := s.Errors(); errs > 0 {
		fmt.Fprintf(&b, "Decode Errors:   %8d (%.1f%%)\n", errs, s.percent(errs))
		if s.MalformedCodes > 0 {
			fmt.Fprintf(&b, "  Malformed Code:   %5d\n", s.MalformedCodes)
		}
		if s.UnknownCodes > 0 {
			fmt.Fprintf(&b, "  Unknown Code:     %5d\n", s.UnknownCodes)
		}
		if s.OtherErrors > 0 {
			fmt.Fprintf(&b, "  Other:            %5d\n", s.OtherErrors)
		}
	}

	fmt.Fprintf(&b, "Frame Rate:      %8.1f frames/sec\n", s.FrameRate)
	fmt.Fprintf(&b, "Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	b.WriteString("================================\n")
	return b.String()
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	*s = *NewStatistics()
}
