// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Thermoquad/epsonctl/pkg/escvp"
	"github.com/spf13/cobra"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Display projector responses in human-readable format",
	Long: `Continuously decode and display ESC/VP21 responses as they arrive.

Nothing is sent to the projector. Useful alongside another controller on a
shared bridge, or to watch a projector that reports on its own.

With --stats, a frame statistics summary is printed every --stats-interval
seconds and again when the link closes.

Supports both serial and WebSocket connections.`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

// maxReadFailures ends the monitor after this many back to back read
// errors. A closed serial port fails every Read without returning io.EOF.
const maxReadFailures = 10

var (
	monitorStats         bool
	monitorStatsInterval int
)

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().BoolVar(&monitorStats, "stats", false, "Print frame statistics")
	monitorCmd.Flags().IntVar(&monitorStatsInterval, "stats-interval", 30, "Seconds between statistics summaries")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	link, connInfo, err := OpenLink(cfg)
	if err != nil {
		return err
	}
	defer link.Close()

	fmt.Printf("epsonctl - Monitor\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	var stats *escvp.Statistics
	if monitorStats {
		stats = escvp.NewStatistics()
	}
	return monitorLoop(link, cmd.OutOrStdout(), stats, time.Duration(monitorStatsInterval)*time.Second)
}

// monitorLoop prints every decoded frame until the link closes. A nil stats
// disables the summaries.
func monitorLoop(link io.Reader, out io.Writer, stats *escvp.Statistics, statsInterval time.Duration) error {
	decoder := escvp.NewDecoder()
	buf := make([]byte, 128)
	lastSummary := time.Now()
	failures := 0

	for {
		n, err := link.Read(buf)
		if n > 0 {
			decoder.Write(buf[:n])
			drainDecoder(decoder, out, stats)
		}
		if stats != nil && statsInterval > 0 && time.Since(lastSummary) >= statsInterval {
			fmt.Fprint(out, stats)
			lastSummary = time.Now()
		}
		if err == nil {
			failures = 0
			continue
		}
		if errors.Is(err, io.EOF) {
			logger.Info().Msg("connection closed")
			if stats != nil {
				fmt.Fprint(out, stats)
			}
			return nil
		}
		failures++
		if failures >= maxReadFailures {
			if stats != nil {
				fmt.Fprint(out, stats)
			}
			return fmt.Errorf("link failed after %d consecutive read errors: %w", failures, err)
		}
		logger.Warn().Err(err).Int("failures", failures).Msg("read error")
		time.Sleep(10 * time.Millisecond)
	}
}

func drainDecoder(decoder *escvp.Decoder, out io.Writer, stats *escvp.Statistics) {
	for {
		resp, err := decoder.Next()
		if stats != nil {
			stats.Update(resp, err)
		}
		if err != nil {
			fmt.Fprintf(out, "[ERROR] %v\n", err)
			continue
		}
		if resp == nil {
			return
		}
		fmt.Fprint(out, escvp.FormatResponse(time.Now(), resp))
	}
}
