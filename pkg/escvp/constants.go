// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package escvp implements the line-oriented ASCII control protocol spoken by
// Epson projectors over RS-232 (ESC/VP21).
//
// Commands are single lines terminated by CR LF. Responses are CR terminated
// frames, optionally prefixed by one or more ':' prompt bytes left over from
// the previous exchange. This package translates between those bytes and
// typed Command/Response values. It knows nothing about timing or the link.
package escvp

// Framing bytes
const (
	CR     = 0x0D
	LF     = 0x0A
	Prompt = ':'
)

// Response prefixes
const (
	powerPrefix  = "PWR="
	sourcePrefix = "SOURCE="
)

// Command keywords
const (
	cmdQueryPower  = "PWR?"
	cmdQuerySource = "SOURCE?"
	cmdPower       = "POWER"
	cmdSource      = "SOURCE"
	cmdKey         = "KEY"
)

// codeDigits is the number of hex digits carried by a status response
const codeDigits = 2
