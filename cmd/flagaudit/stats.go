package main

import (
	"github.com/spf13/cobra"

	"github.com/y0ug/flagaudit/internal/report"
)

func newStatsCmd(a *app) *cobra.Command {
	var filters filterOptions

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Count total, temporary, archived and inactive flags of a project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := a.query(cmd, &filters)
			if err != nil {
				return err
			}

			auditor, _, store, err := a.newAuditor()
			if err != nil {
				return err
			}
			defer store.Close(cmd.Context())

			stats, err := auditor.Stats(cmd.Context(), q)
			if err != nil {
				return err
			}

			if a.jsonOutput() {
				return report.WriteJSON(cmd.OutOrStdout(), stats)
			}
			return report.WriteStats(cmd.OutOrStdout(), stats)
		},
	}
	addFilterFlags(cmd, &filters, true)
	return cmd
}
