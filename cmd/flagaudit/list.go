package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/y0ug/flagaudit/internal/report"
)

func newListCmd(a *app) *cobra.Command {
	var (
		filters filterOptions
		raw     bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all feature flags for a project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := a.query(cmd, &filters)
			if err != nil {
				return err
			}

			auditor, client, store, err := a.newAuditor()
			if err != nil {
				return err
			}
			defer store.Close(cmd.Context())

			if raw {
				data, err := client.FetchRaw(cmd.Context(), q.Project, q.Fetch)
				if err != nil {
					return fmt.Errorf("failed to fetch flags for project %s: %w", q.Project, err)
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}

			list, err := auditor.ListFlags(cmd.Context(), q)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.jsonOutput() {
				return report.WriteJSON(out, list)
			}
			return report.WriteFlagList(out, list, a.reportOptions(q.Months))
		},
	}
	addFilterFlags(cmd, &filters, false)
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the LaunchDarkly payload unchanged, ignoring filters")
	return cmd
}
