// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package projector

import "errors"

// Controller errors. Use errors.Is to match; wrapped messages name the
// command and, where relevant, the offending response.
var (
	// ErrTimeout is returned when no frame arrives within the read timeout.
	// It aborts the whole operation and is never retried.
	ErrTimeout = errors.New("projector: timed out waiting for response")

	// ErrNoResponse is returned when the link closes with no frame pending.
	ErrNoResponse = errors.New("projector: link closed with no response")

	// ErrUnexpectedResponse is returned when a well-formed response of the
	// wrong kind answers a query.
	ErrUnexpectedResponse = errors.New("projector: unexpected response")

	// ErrNotConverged is returned when the device still disagrees with the
	// requested state after every set attempt.
	ErrNotConverged = errors.New("projector: device did not reach requested state")

	// ErrLink is returned when the underlying link fails to read or write.
	ErrLink = errors.New("projector: link failure")
)
