package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"frazil/frazil"
)

func init() {
	RootCmd.AddCommand(checkConfigCmd)
}

var checkConfigCmd = &cobra.Command{
	Use:   "check-config",
	Short: "Validate the configuration file and print the selected strategy",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if !Options.Enabled {
			fmt.Fprintln(out, "ALLOW_FRAZIL is off, supercooling is left to the host")
			return nil
		}
		strategy, err := Options.Strategy()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "strategy: %s\nreference: %s\nformula: %s\n",
			strategy, Options.Reference(), Options.Formula)
		if strategy == frazil.RedistributeToSurface {
			fmt.Fprintf(out, "thickness weighted: %t\n", Options.ThicknessWeighted)
		}
		return nil
	},
}
