package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/y0ug/flagaudit/internal/audit"
)

// WriteScanHeader describes what is about to be scanned.
func WriteScanHeader(w io.Writer, dir string, extensions, exclude []string) {
	fmt.Fprintf(w, "\n%s %s\n", titleColor.Sprint("Scanning directory:"), keyColor.Sprint(dir))

	if len(extensions) > 0 {
		display := make([]string, len(extensions))
		for i, ext := range extensions {
			display[i] = "." + ext
		}
		fmt.Fprintf(w, "%s %s\n", titleColor.Sprint("File extensions:"), strings.Join(display, ", "))
	} else {
		dimColor.Fprintln(w, "Scanning all file types")
	}

	if len(exclude) > 0 {
		fmt.Fprintf(w, "%s %s\n", titleColor.Sprint("Excluding flags:"), strings.Join(exclude, ", "))
	}
	fmt.Fprintln(w)
}

// WriteScanReport writes every referenced inactive flag with its locations.
func WriteScanReport(w io.Writer, report *audit.ScanReport, opts Options) {
	dimColor.Fprintf(w, "Checked %d inactive flag(s) against codebase\n\n", report.Checked)

	if len(report.Flags) == 0 {
		okColor.Fprintln(w, "✓ No inactive flags found in codebase!")
		dimColor.Fprintln(w, "All inactive flags have been cleaned up.")
		return
	}

	warnColor.Fprintf(w, "Found %d inactive flag(s) in codebase\n\n", len(report.Flags))

	for _, ref := range report.Flags {
		f := ref.Flag
		fmt.Fprintf(w, "%s %s\n", keyColor.Sprint(f.Key), formatEnvStatus(f, opts.order(), true, true))
		fmt.Fprintf(w, "  %s %s\n", dimColor.Sprint("Maintainer:"), f.Maintainer.FirstName)
		fmt.Fprintf(w, "  %s %s\n", dimColor.Sprint("Created:"), FormatDate(f.CreationDate))
		fmt.Fprintf(w, "  %s %s\n", dimColor.Sprint("URL:"), opts.FlagURL(f))
		fmt.Fprintf(w, "  %s\n", titleColor.Sprint("Locations:"))
		for _, loc := range ref.Locations {
			fmt.Fprintf(w, "    %s:%s\n", pathColor.Sprint(loc.FilePath), lineColor.Sprint(loc.LineNumber))
		}
		fmt.Fprintln(w)
	}
}
