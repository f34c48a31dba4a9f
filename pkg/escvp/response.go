// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package escvp

import "fmt"

// Response is one decoded inbound frame. Only the decoder produces them.
type Response interface {
	fmt.Stringer
	response()
}

// PowerStatusResponse is the reply to PWR?
type PowerStatusResponse struct {
	Status PowerStatus
}

// SourceResponse is the reply to SOURCE?
type SourceResponse struct {
	Source Source
}

// InvalidLine is any frame that is not a recognized status line. Device
// chatter passes through as InvalidLine rather than failing the exchange.
type InvalidLine struct {
	Text string
}

func (PowerStatusResponse) response() {}
func (SourceResponse) response()      {}
func (InvalidLine) response()         {}

func (r PowerStatusResponse) String() string { return fmt.Sprintf("PowerStatus(%s)", r.Status) }
func (r SourceResponse) String() string      { return fmt.Sprintf("SourceStatus(%s)", r.Source) }
func (r InvalidLine) String() string         { return fmt.Sprintf("InvalidLine(%q)", r.Text) }
