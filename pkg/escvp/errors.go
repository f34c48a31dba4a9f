// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package escvp

import "errors"

// Codec errors. Use errors.Is to match; the wrapped message carries the
// offending text or code.
var (
	// ErrMalformedCode is returned when a status response does not carry two
	// valid hex digits.
	ErrMalformedCode = errors.New("escvp: malformed status code")

	// ErrUnknownCode is returned when a status code has no enumeration entry.
	ErrUnknownCode = errors.New("escvp: unknown status code")

	// ErrUnencodable is returned when a command argument has no wire code.
	ErrUnencodable = errors.New("escvp: command cannot be encoded")
)
