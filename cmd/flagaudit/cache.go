package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/y0ug/flagaudit/internal/cache"
	"github.com/y0ug/flagaudit/internal/report"
)

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local cache",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List cached projects with their age and expiry",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := cache.NewStore(a.cacheCfg, a.logger)
				if err != nil {
					return err
				}
				defer store.Close(cmd.Context())

				entries, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				if a.jsonOutput() {
					if entries == nil {
						entries = []cache.Entry{}
					}
					return report.WriteJSON(cmd.OutOrStdout(), entries)
				}
				return report.WriteCacheEntries(cmd.OutOrStdout(), entries, store.Location(), store.TTL(), time.Now())
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove every cached project",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := cache.NewStore(a.cacheCfg, a.logger)
				if err != nil {
					return err
				}
				defer store.Close(cmd.Context())

				if err := store.Clear(cmd.Context()); err != nil {
					return err
				}
				a.logger.WithField("cache", store.Location()).Debug("Cache cleared")
				_, err = cmd.OutOrStdout().Write([]byte("✓ Cache cleared successfully\n"))
				return err
			},
		},
	)
	return cmd
}
