// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"

	"github.com/Thermoquad/epsonctl/pkg/escvp"
	"github.com/Thermoquad/epsonctl/pkg/projector"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show power status and, when on, the input source",
	Args:  cobra.NoArgs,
	RunE: withController(func(ctrl *projector.Controller, _ []string) error {
		st, err := ctrl.Status()
		if err != nil {
			return err
		}
		fmt.Println(formatStatus(st))
		return nil
	}),
}

var powerCmd = &cobra.Command{
	Use:       "power [on|off]",
	Short:     "Show the power state, or switch the projector on or off",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE: withController(func(ctrl *projector.Controller, args []string) error {
		if len(args) == 0 {
			p, err := ctrl.Power()
			if err != nil {
				return err
			}
			fmt.Println(p)
			return nil
		}

		target, err := escvp.ParsePower(args[0])
		if err != nil {
			return err
		}
		if err := ctrl.SetPower(target); err != nil {
			return err
		}
		fmt.Printf("power %s\n", target)
		return nil
	}),
}

var powerStatusCmd = &cobra.Command{
	Use:   "power-status",
	Short: "Show the detailed power status",
	Args:  cobra.NoArgs,
	RunE: withController(func(ctrl *projector.Controller, _ []string) error {
		status, err := ctrl.PowerStatus()
		if err != nil {
			return err
		}
		code, _ := status.Code()
		fmt.Printf("%s (0x%02X)\n", status, code)
		return nil
	}),
}

var sourceCmd = &cobra.Command{
	Use:   "source [name|code]",
	Short: "Show the input source, or select one",
	Long: `Show the current input source, or select one by name or hex code.

Sources: ` + strings.Join(sourceNames(), ", "),
	Args: cobra.MaximumNArgs(1),
	RunE: withController(func(ctrl *projector.Controller, args []string) error {
		if len(args) == 0 {
			src, err := ctrl.Source()
			if err != nil {
				return err
			}
			code, _ := src.Code()
			fmt.Printf("%s (0x%02X)\n", src, code)
			return nil
		}

		target, err := escvp.ParseSource(args[0])
		if err != nil {
			return err
		}
		if err := ctrl.SetSource(target); err != nil {
			return err
		}
		fmt.Printf("source %s\n", target)
		return nil
	}),
}

var keyCmd = &cobra.Command{
	Use:   "key <name|code>",
	Short: "Send a remote control key press",
	Long: `Send a remote control key press. The projector reply is not checked.

Keys: ` + strings.Join(keyNames(), ", "),
	Args: cobra.ExactArgs(1),
	RunE: withController(func(ctrl *projector.Controller, args []string) error {
		key, err := escvp.ParseKey(args[0])
		if err != nil {
			return err
		}
		return ctrl.SendKey(key)
	}),
}

func init() {
	rootCmd.AddCommand(statusCmd, powerCmd, powerStatusCmd, sourceCmd, keyCmd)
}

// withController opens the link for the duration of a single command
func withController(run func(ctrl *projector.Controller, args []string) error) func(*cobra.Command, []string) error {
	return func(_ *cobra.Command, args []string) error {
		ctrl, _, err := openController()
		if err != nil {
			return err
		}
		defer ctrl.Close()
		return run(ctrl, args)
	}
}

func formatStatus(st projector.Status) string {
	var b strings.Builder
	fmt.Fprintf(&b, "power:  %s (%s)", st.Power, st.PowerStatus)
	if st.Source != nil {
		fmt.Fprintf(&b, "\nsource: %s", *st.Source)
	}
	return b.String()
}

func sourceNames() []string {
	var names []string
	for _, s := range escvp.Sources() {
		names = append(names, s.String())
	}
	return names
}

func keyNames() []string {
	var names []string
	for _, k := range escvp.Keys() {
		names = append(names, k.String())
	}
	return names
}
