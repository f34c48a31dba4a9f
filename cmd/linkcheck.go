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

var linkCheckDuration int

var linkCheckCmd = &cobra.Command{
	Use:   "link-check",
	Short: "Test raw link stability",
	Long: `Hold the link open without sending anything and log every byte received.

Useful for debugging a flaky WebSocket bridge or serial adapter. Received
bytes are printed with control characters escaped.

Exit codes:
  0 - Link stayed up for the whole duration
  1 - Link failed during the test
  2 - Connection error`,
	Args: cobra.NoArgs,
	RunE: runLinkCheck,
}

func init() {
	rootCmd.AddCommand(linkCheckCmd)
	linkCheckCmd.Flags().IntVar(&linkCheckDuration, "duration", 30, "Test duration in seconds")
}

func runLinkCheck(cmd *cobra.Command, args []string) error {
	link, connInfo, err := OpenLink(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer link.Close()

	fmt.Printf("Link Stability Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Duration: %d seconds\n\n", linkCheckDuration)
	fmt.Printf("Listening for data...\n\n")

	result := checkLink(link, time.Duration(linkCheckDuration)*time.Second, time.Second, os.Stdout)

	fmt.Printf("\n--- Test Results ---\n")
	fmt.Printf("Duration: %v\n", result.elapsed.Round(time.Second))
	fmt.Printf("Reads with data: %d\n", result.chunks)
	fmt.Printf("Bytes received: %d\n", result.bytes)
	if result.err != nil {
		fmt.Printf("Result: FAILED (%v)\n", result.err)
		os.Exit(1)
	}
	fmt.Printf("Result: PASSED (link stable)\n")
	return nil
}

type linkCheckResult struct {
	elapsed time.Duration
	chunks  int
	bytes   int
	err     error
}

// checkLink reads from link until duration passes or the link fails,
// printing a heartbeat every quiet interval
func checkLink(link projector.Link, duration, heartbeat time.Duration, out io.Writer) linkCheckResult {
	var result linkCheckResult
	start := time.Now()
	end := start.Add(duration)

	if err := link.SetReadTimeout(heartbeat); err != nil {
		result.err = err
		return result
	}

	buf := make([]byte, 256)
	for time.Now().Before(end) {
		n, err := link.Read(buf)
		if n > 0 {
			result.chunks++
			result.bytes += n
			fmt.Fprintf(out, "[%s] Received %d bytes: %s\n",
				time.Now().Format("15:04:05.000"), n, escvp.FormatWire(buf[:n]))
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = errors.New("link closed")
			}
			result.err = err
			break
		}
		if n == 0 {
			fmt.Fprintf(out, "[%s] Still connected... (%.0fs remaining)\n",
				time.Now().Format("15:04:05.000"), time.Until(end).Seconds())
		}
	}

	result.elapsed = time.Since(start)
	return result
}
