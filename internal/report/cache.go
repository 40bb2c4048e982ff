package report

import (
	"fmt"
	"io"
	"time"

	"github.com/y0ug/flagaudit/internal/cache"
)

// WriteCacheEntries lists the cached projects with their age and expiry
// relative to now.
func WriteCacheEntries(w io.Writer, entries []cache.Entry, location string, ttl time.Duration, now time.Time) error {
	if len(entries) == 0 {
		warnColor.Fprintln(w, "No cached projects found")
		return nil
	}

	fmt.Fprintf(w, "\n%s %s\n", titleColor.Sprint("Cache Location:"), location)
	dimColor.Fprintf(w, "TTL: %d minutes\n\n", int(ttl.Minutes()))

	tw := newTabWriter(w)
	fmt.Fprintf(tw, "PROJECT\tCACHED\tAGE\tEXPIRES\n")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			e.Key,
			e.CachedAt.Local().Format(dateTimeLayout),
			formatAge(e.Age(now)),
			formatExpiry(e.ExpiresAt.Sub(now)),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return nil
}
