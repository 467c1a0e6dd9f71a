package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-doppler/rfsim"
)

var algorithmsCmd = &cobra.Command{
	Use:   "algorithms",
	Short: "List simulator algorithms and whether they run in this build",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := rfsim.DefaultRegistry()
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		for _, name := range reg.Algorithms() {
			status := "available"
			if _, err := reg.New(name); errors.Is(err, rfsim.ErrAlgorithmUnavailable) {
				status = "unavailable"
			}
			if _, err := fmt.Fprintf(tw, "%s\t%s\n", name, status); err != nil {
				return fmt.Errorf("failed to write output row: %w", err)
			}
		}
		return tw.Flush()
	},
}
