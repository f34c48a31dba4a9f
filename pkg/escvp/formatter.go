// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package escvp

import (
	"fmt"
	"time"
)

// FormatResponse formats a decoded response into a human-readable line
func FormatResponse(ts time.Time, resp Response) string {
	timestamp := ts.Format("15:04:05.000")

	switch r := resp.(type) {
	case PowerStatusResponse:
		code, _ := r.Status.Code()
		return fmt.Sprintf("[%s] PWR    %s (0x%02X) power=%s\n", timestamp, r.Status, code, r.Status.Power())
	case SourceResponse:
		code, _ := r.Source.Code()
		return fmt.Sprintf("[%s] SOURCE %s (0x%02X)\n", timestamp, r.Source, code)
	case InvalidLine:
		return fmt.Sprintf("[%s] OTHER  %q\n", timestamp, r.Text)
	default:
		return fmt.Sprintf("[%s] UNKNOWN %v\n", timestamp, resp)
	}
}

// FormatWire quotes raw wire bytes with control characters made visible
func FormatWire(b []byte) string {
	return fmt.Sprintf("%q", b)
}
