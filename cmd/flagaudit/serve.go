package main

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/y0ug/flagaudit/internal/audit"
	"github.com/y0ug/flagaudit/internal/flags"
	"github.com/y0ug/flagaudit/internal/report"
	"github.com/y0ug/flagaudit/internal/webserver"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		port          int
		watchInterval time.Duration
		filters       filterOptions
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the audit reports over HTTP",
		Long: "Serve the audit reports over HTTP. With --watch-interval the inactive flags of\n" +
			"--project are checked periodically and sent to $SHOUTRRR_URLS.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := a.query(cmd, &filters)
			if err != nil {
				return err
			}

			wsConfig, err := webserver.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load webserver configuration: %w", err)
			}
			if cmd.Flags().Changed("port") {
				wsConfig.ListenTo = fmt.Sprintf(":%d", port)
			}

			auditor, _, store, err := a.newAuditor()
			if err != nil {
				return err
			}
			defer store.Close(context.Background())

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if watchInterval > 0 {
				n, err := a.notifier()
				if err != nil {
					return err
				}
				opts := a.reportOptions(q.Months)
				wait := startWatch(ctx, auditor, q, watchInterval, func(_ context.Context, _ audit.Query, inactive []flags.Flag) error {
					return n.Send(report.SlackMessage(inactive, opts))
				})
				// The store closes only after the last check has finished.
				defer func() {
					stop()
					wait()
				}()
				a.logger.WithField("interval", watchInterval).Info("Watching inactive flags")
			}

			ws := webserver.NewWebServer(auditor, store, q.Months, wsConfig, a.logger)
			serverErrors := make(chan error, 1)
			server := webserver.StartWebServer(ws, serverErrors)

			select {
			case <-ctx.Done():
				a.logger.Info("Received shutdown signal. Initiating shutdown...")
			case err := <-serverErrors:
				return fmt.Errorf("web server error: %w", err)
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("failed to gracefully shutdown the server: %w", err)
			}

			a.logger.Info("Shutdown complete")
			return nil
		},
	}

	addFilterFlags(cmd, &filters, true)
	cmd.Flags().IntVar(&port, "port", 8080, "Port to listen on (default $PORT or 8080)")
	cmd.Flags().DurationVar(&watchInterval, "watch-interval", 0, "Check --project for inactive flags at this interval and notify (0 disables)")
	return cmd
}

// startWatch runs auditor.Watch in the background. The returned func blocks
// until the watch has stopped.
func startWatch(ctx context.Context, auditor *audit.Auditor, q audit.Query, interval time.Duration, reporter audit.Reporter) (wait func()) {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		auditor.Watch(ctx, q, interval, reporter)
	}()
	return wg.Wait
}
