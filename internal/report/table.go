package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/y0ug/flagaudit/internal/audit"
	"github.com/y0ug/flagaudit/internal/flags"
)

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
}

// WriteFlagsTable writes one row per flag with its environments, maintainer
// and dates.
func WriteFlagsTable(w io.Writer, list []flags.Flag, opts Options) error {
	tw := newTabWriter(w)
	fmt.Fprintf(tw, "FLAG KEY\tENVIRONMENTS\tMAINTAINER\tCREATED\tLAST MODIFIED\n")
	for _, f := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			f.Key,
			FormatEnvStatus(f, opts.order(), false),
			f.Maintainer.FirstName,
			FormatDate(f.CreationDate),
			FormatLastModified(f),
		)
	}
	return tw.Flush()
}

// WriteFlagList writes the output of the list command.
func WriteFlagList(w io.Writer, list []flags.Flag, opts Options) error {
	if len(list) == 0 {
		warnColor.Fprintf(w, "No flags found in project '%s'\n", opts.Project)
		return nil
	}

	fmt.Fprintf(w, "\n%s %s\n", titleColor.Sprint("Feature Flags for Project:"), keyColor.Sprint(opts.Project))
	dimColor.Fprintf(w, "Total flags: %d\n\n", len(list))
	if err := WriteFlagsTable(w, list, opts); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return nil
}

// WriteInactive writes the output of the inactive command, grouping the
// flags by the toggle state of their primary environment.
func WriteInactive(w io.Writer, list []flags.Flag, opts Options) error {
	if len(list) == 0 {
		okColor.Fprintln(w, "✓ No inactive flags found!")
		dimColor.Fprintf(w, "All temporary flags have been modified within the last %d months.\n", opts.Months)
		return nil
	}

	warnColor.Fprintln(w, "\nInactive Feature Flags")
	dimColor.Fprintf(w, "Flags not modified in any environment for %d+ months\n\n", opts.Months)
	fmt.Fprintf(w, "%s %d\n\n", titleColor.Sprint("Total inactive flags:"), len(list))

	off, on := flags.SplitByToggle(list, opts.order())
	groups := []struct {
		label string
		list  []flags.Flag
	}{
		{offColor.Sprint("Flags toggled OFF in their primary environment:"), off},
		{onColor.Sprint("Flags toggled ON in their primary environment:"), on},
	}
	for _, g := range groups {
		if len(g.list) == 0 {
			continue
		}
		fmt.Fprintf(w, "%s %d\n\n", g.label, len(g.list))
		if err := WriteFlagsTable(w, g.list, opts); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}
	return nil
}

// WriteStats writes the counters of a project.
func WriteStats(w io.Writer, stats *audit.Stats) error {
	fmt.Fprintf(w, "\n%s %s\n\n", titleColor.Sprint("Flag statistics for project:"), keyColor.Sprint(stats.Project))

	tw := newTabWriter(w)
	fmt.Fprintf(tw, "Total flags\t%d\n", stats.Total)
	fmt.Fprintf(tw, "Temporary\t%d\n", stats.Temporary)
	fmt.Fprintf(tw, "Archived\t%d\n", stats.Archived)
	fmt.Fprintf(tw, "Inactive (%d+ months)\t%d\n", stats.Months, stats.Inactive)
	fmt.Fprintf(tw, "  toggled ON\t%d\n", stats.InactiveOn)
	fmt.Fprintf(tw, "  toggled OFF\t%d\n", stats.InactiveOff)
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return nil
}
