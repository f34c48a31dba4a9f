// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package escvp

import "fmt"

// Command is an outbound request. Commands are immutable values built per
// call and consumed by Encode.
type Command interface {
	fmt.Stringer
	command()
}

// QueryPower asks for the current power status (PWR?)
type QueryPower struct{}

// QuerySource asks for the current input source (SOURCE?)
type QuerySource struct{}

// SetPower switches the projector on or off (POWER ON / POWER OFF)
type SetPower struct {
	Power Power
}

// SetSource selects an input source (SOURCE xx)
type SetSource struct {
	Source Source
}

// SendKey emulates a remote control button press (KEY xx)
type SendKey struct {
	Key Key
}

func (QueryPower) command()  {}
func (QuerySource) command() {}
func (SetPower) command()    {}
func (SetSource) command()   {}
func (SendKey) command()     {}

func (QueryPower) String() string  { return "QueryPower" }
func (QuerySource) String() string { return "QuerySource" }
func (c SetPower) String() string  { return fmt.Sprintf("SetPower(%s)", c.Power) }
func (c SetSource) String() string { return fmt.Sprintf("SetSource(%s)", c.Source) }
func (c SendKey) String() string   { return fmt.Sprintf("SendKey(%s)", c.Key) }
