package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/talgya/battle-hexes/internal/scenario"
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List the scenario presets",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, id := range scenario.IDs() {
			p, err := scenario.Lookup(id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s (%d units per side, objective %d points)\n",
				p.ID, p.Name, p.UnitsPerSide, p.ObjectivePoints)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scenariosCmd)
}
