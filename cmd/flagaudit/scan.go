package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/y0ug/flagaudit/internal/audit"
	"github.com/y0ug/flagaudit/internal/flags"
	"github.com/y0ug/flagaudit/internal/report"
	"github.com/y0ug/flagaudit/internal/scanner"
)

func newScanCmd(a *app) *cobra.Command {
	var (
		filters     filterOptions
		directory   string
		extensions  []string
		maxFileSize int
		excludeDirs []string
		workers     int
		notify      bool
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a codebase for references to inactive flags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := scanner.ValidateRoot(directory); err != nil {
				return fmt.Errorf("directory '%s' does not exist: %w", directory, err)
			}
			if maxFileSize <= 0 {
				return fmt.Errorf("--max-file-size must be positive")
			}

			q, err := a.query(cmd, &filters)
			if err != nil {
				return err
			}

			scanOpts := []scanner.Option{scanner.WithMaxFileSizeMB(maxFileSize)}
			if dirs := ParseCommaSeparated(excludeDirs); len(dirs) > 0 {
				scanOpts = append(scanOpts, scanner.WithExcludeDirs(append(dirs, scanner.DefaultExcludeDirs...)))
			}
			if workers > 0 {
				scanOpts = append(scanOpts, scanner.WithWorkers(workers))
			}

			auditor, _, store, err := a.newAuditor(scanOpts...)
			if err != nil {
				return err
			}
			defer store.Close(cmd.Context())

			absDir, err := filepath.Abs(directory)
			if err != nil {
				absDir = directory
			}
			exts := ParseCommaSeparated(extensions)

			out := cmd.OutOrStdout()
			if !a.jsonOutput() {
				report.WriteScanHeader(out, absDir, exts, q.Exclude)
			}

			result, err := auditor.Scan(cmd.Context(), q, audit.ScanOptions{Directory: absDir, Extensions: exts})
			if err != nil {
				return err
			}

			opts := a.reportOptions(q.Months)
			if a.jsonOutput() {
				if err := report.WriteJSON(out, result); err != nil {
					return err
				}
			} else {
				report.WriteScanReport(out, result, opts)
			}

			if notify && len(result.Flags) > 0 {
				referenced := make([]flags.Flag, len(result.Flags))
				for i, ref := range result.Flags {
					referenced[i] = ref.Flag
				}
				n, err := a.notifier()
				if err != nil {
					return err
				}
				return n.Send(report.SlackMessage(referenced, opts))
			}
			return nil
		},
	}

	addFilterFlags(cmd, &filters, true)
	cmd.Flags().StringVarP(&directory, "dir", "d", ".", "Directory to scan")
	cmd.Flags().StringArrayVar(&extensions, "ext", nil, "File extensions to scan (comma-separated or repeated)")
	cmd.Flags().IntVar(&maxFileSize, "max-file-size", scanner.DefaultMaxFileSizeMB, "Max file size in MB to scan")
	cmd.Flags().StringArrayVar(&excludeDirs, "exclude-dir", nil, "Additional directory names to skip (comma-separated or repeated)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Number of files scanned in parallel (default number of CPUs)")
	cmd.Flags().BoolVar(&notify, "notify", false, "Send the cleanup message for referenced flags to $SHOUTRRR_URLS")
	return cmd
}
