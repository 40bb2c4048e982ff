package audit

import (
	"context"
	"time"

	"github.com/y0ug/flagaudit/internal/flags"
)

// Reporter receives the inactive flags found by Watch.
type Reporter func(ctx context.Context, q Query, inactive []flags.Flag) error

// Watch runs InactiveFlags every interval until ctx is cancelled and hands
// non-empty results to report. The first check runs immediately. Each check
// after the first bypasses the cached payload so the results follow the
// flag service.
func (a *Auditor) Watch(ctx context.Context, q Query, interval time.Duration, report Reporter) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log := a.Config.Logger.WithField("project", q.Project)
	for {
		select {
		case <-ctx.Done():
			log.Info("Watch stopped due to context cancellation")
			return
		default:
			a.checkOnce(ctx, q, report)
			q.Fetch.OverrideCache = true
			select {
			case <-ctx.Done():
				log.Info("Watch stopped due to context cancellation")
				return
			case <-ticker.C:
			}
		}
	}
}

func (a *Auditor) checkOnce(ctx context.Context, q Query, report Reporter) {
	log := a.Config.Logger.WithField("project", q.Project)

	inactive, err := a.InactiveFlags(ctx, q)
	if err != nil {
		log.WithError(err).Error("Failed to check inactive flags")
		return
	}
	if len(inactive) == 0 {
		log.Debug("No inactive flags")
		return
	}

	log.WithField("inactive", len(inactive)).Info("Inactive flags found")
	if err := report(ctx, q, inactive); err != nil {
		log.WithError(err).Error("Failed to report inactive flags")
	}
}
