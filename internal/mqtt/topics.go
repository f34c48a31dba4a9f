// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package mqtt

import "strings"

// Availability payloads
const (
	Online  = "online"
	Offline = "offline"
)

// Topics builds topic names under a configurable prefix
type Topics struct {
	prefix string
}

// NewTopics trims surrounding slashes from prefix
func NewTopics(prefix string) Topics {
	return Topics{prefix: strings.Trim(prefix, "/")}
}

func (t Topics) join(parts ...string) string {
	return t.prefix + "/" + strings.Join(parts, "/")
}

// PowerSet accepts "on" or "off"
func (t Topics) PowerSet() string { return t.join("power", "set") }

// SourceSet accepts a source name or hex code
func (t Topics) SourceSet() string { return t.join("source", "set") }

// KeySet accepts a key name or hex code
func (t Topics) KeySet() string { return t.join("key", "set") }

// StatusGet triggers a status publish; the payload is ignored
func (t Topics) StatusGet() string { return t.join("status", "get") }

// Status carries the retained status JSON
func (t Topics) Status() string { return t.join("status") }

// Error carries the last command failure
func (t Topics) Error() string { return t.join("error") }

// Availability carries the retained online/offline marker and the LWT
func (t Topics) Availability() string { return t.join("availability") }
