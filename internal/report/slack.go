package report

import (
	"fmt"
	"strings"

	"github.com/y0ug/flagaudit/internal/flags"
)

const slackTemplate = `*:among-use-party: Feature flags cleanup time*

> All these (temporary) feature flags haven't been modified in ANY environment (production, staging, dev, etc.) in the last %d months. That smells like an inactive flag!

# Total inactive flags: %d

*Inactive flags that are toggled ` + "`off`" + ` in production:*

> :work: Suggested actions:
> a. Enable the flag in production, or
> b. Archive the flag and remove all code evaluating this flag, or
> c. Only if it truly makes sense, make this a _permanent_ flag instead of a _temporary_ one

%s

*Inactive flags that are toggled ` + "`on`" + ` in production:*

> :work: Suggested actions:
> a. Archive the flag and remove all code evaluating this flag, or
> b. Only if it truly makes sense, make this a _permanent_ flag instead of a _temporary_ one

%s
`

// SlackMessage renders the cleanup announcement for inactive flags, grouped
// by the toggle state of their primary environment.
func SlackMessage(list []flags.Flag, opts Options) string {
	off, on := flags.SplitByToggle(list, opts.order())
	return fmt.Sprintf(slackTemplate, opts.Months, len(list), slackList(off, opts), slackList(on, opts))
}

func slackList(list []flags.Flag, opts Options) string {
	if len(list) == 0 {
		return "_None_"
	}
	lines := make([]string, len(list))
	for i, f := range list {
		lines[i] = fmt.Sprintf("• <%s|%s> (maintainer: %s, last modified: %s)",
			opts.FlagURL(f), f.Key, f.Maintainer.FirstName, FormatLastModified(f))
	}
	return strings.Join(lines, "\n")
}
