// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// epsonctl - Epson projector RS-232 controller
//
// Drives Epson projectors through the ESC/VP21 serial protocol from the
// command line, an HTTP API, or an MQTT bridge.

package main

import (
	"os"

	"github.com/Thermoquad/epsonctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
