// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Thermoquad/epsonctl/pkg/escvp"
	"github.com/Thermoquad/epsonctl/pkg/projector"
	"github.com/spf13/cobra"
)

// Probe exit codes
const (
	probeOK        = 0
	probeTimeout   = 1
	probeLinkError = 2
)

var probeWait int

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Test the connection by querying the power status",
	Long: `Send a power status query and wait for the projector to answer.

Any decodable answer counts as success, including one the projector reports
as an error line; it proves the link and baud rate are right.

Exit codes:
  0 - Projector answered before timeout
  1 - Timeout reached without an answer
  2 - Connection error

Useful for testing cabling or a WebSocket serial bridge.`,
	Args: cobra.NoArgs,
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
	probeCmd.Flags().IntVar(&probeWait, "wait", 10, "Seconds to wait for an answer")
}

func runProbe(cmd *cobra.Command, args []string) error {
	link, connInfo, err := OpenLink(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(probeLinkError)
	}

	wait := time.Duration(probeWait) * time.Second
	fmt.Printf("epsonctl - Probe\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds\n", probeWait)
	fmt.Printf("Waiting for power status...\n\n")

	ctrl := projector.New(link, projector.Options{ReadTimeout: wait, Logger: logger})
	code := probe(ctrl, os.Stdout, os.Stderr)
	ctrl.Close()
	os.Exit(code)
	return nil
}

// probe runs a single power query and maps the outcome to an exit code
func probe(ctrl *projector.Controller, stdout, stderr io.Writer) int {
	status, err := ctrl.PowerStatus()
	switch {
	case err == nil:
		code, _ := status.Code()
		fmt.Fprintf(stdout, "SUCCESS: Projector answered\n")
		fmt.Fprintf(stdout, "  Power status: %s (0x%02X)\n", status, code)
		fmt.Fprintf(stdout, "  Power: %s\n", status.Power())
		return probeOK

	case errors.Is(err, projector.ErrTimeout), errors.Is(err, projector.ErrNoResponse):
		fmt.Fprintf(stderr, "TIMEOUT: %v\n", err)
		return probeTimeout

	case errors.Is(err, projector.ErrLink):
		fmt.Fprintf(stderr, "Link error: %v\n", err)
		return probeLinkError

	case errors.Is(err, projector.ErrUnexpectedResponse),
		errors.Is(err, escvp.ErrMalformedCode),
		errors.Is(err, escvp.ErrUnknownCode):
		fmt.Fprintf(stdout, "SUCCESS: Projector answered, but not with a known power status\n")
		fmt.Fprintf(stdout, "  %v\n", err)
		return probeOK

	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return probeLinkError
	}
}
