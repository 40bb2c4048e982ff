package main

import (
	"github.com/spf13/cobra"

	"github.com/y0ug/flagaudit/internal/flags"
	"github.com/y0ug/flagaudit/internal/report"
)

type inactiveOutput struct {
	Project string       `json:"project"`
	Months  int          `json:"months"`
	Count   int          `json:"count"`
	Flags   []flags.Flag `json:"flags"`
}

func newInactiveCmd(a *app) *cobra.Command {
	var (
		filters filterOptions
		notify  bool
	)

	cmd := &cobra.Command{
		Use:   "inactive",
		Short: "List inactive temporary flags not modified in any environment for X months",
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

			list, err := auditor.InactiveFlags(cmd.Context(), q)
			if err != nil {
				return err
			}

			opts := a.reportOptions(q.Months)
			out := cmd.OutOrStdout()
			if a.jsonOutput() {
				if list == nil {
					list = []flags.Flag{}
				}
				err = report.WriteJSON(out, inactiveOutput{Project: q.Project, Months: q.Months, Count: len(list), Flags: list})
			} else {
				err = report.WriteInactive(out, list, opts)
			}
			if err != nil {
				return err
			}

			if notify && len(list) > 0 {
				n, err := a.notifier()
				if err != nil {
					return err
				}
				return n.Send(report.SlackMessage(list, opts))
			}
			return nil
		},
	}
	addFilterFlags(cmd, &filters, true)
	cmd.Flags().BoolVar(&notify, "notify", false, "Send the cleanup message to $SHOUTRRR_URLS")
	return cmd
}
