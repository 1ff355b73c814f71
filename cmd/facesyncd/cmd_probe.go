package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/normanking/facesync/internal/capability"
)

func newProbeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Probe the host for analyzer-path audio capabilities",
		RunE: func(cmd *cobra.Command, args []string) error {
			report := capability.Detect(capability.HostEnvironment{})

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			if report.Supported {
				fmt.Println("analyzer path: supported")
			} else {
				fmt.Println("analyzer path: unsupported (synthetic mouth only)")
			}
			for _, m := range report.MissingFeatures {
				fmt.Printf("  missing: %s\n", m)
			}
			for _, w := range report.Warnings {
				fmt.Printf("  warning: %s\n", w)
			}
			return nil
		},
	}
}
