package notifications

import (
	"errors"
	"fmt"

	"github.com/containrrr/shoutrrr/pkg/router"
	"github.com/containrrr/shoutrrr/pkg/types"
	"github.com/sirupsen/logrus"
)

var ErrNoServices = errors.New("no notification services configured, set SHOUTRRR_URLS")

// Notifier sends audit reports via Shoutrrr.
type Notifier struct {
	sr     *router.ServiceRouter
	title  string
	logger logrus.FieldLogger
}

// NewNotifier initializes a Notifier for the configured services.
func NewNotifier(cfg *NotificationConfig, logger logrus.FieldLogger) (*Notifier, error) {
	if !cfg.Enabled() {
		return nil, ErrNoServices
	}
	sr, err := router.New(nil, cfg.ShoutrrrURLs...)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification router: %w", err)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Notifier{sr: sr, title: cfg.Title, logger: logger}, nil
}

// Send delivers message to every configured service. Failures of single
// services are logged and joined into the returned error.
func (n *Notifier) Send(message string) error {
	params := types.Params{
		"title": n.title,
	}

	var errs []error
	for _, err := range n.sr.Send(message, &params) {
		if err != nil {
			n.logger.WithError(err).Error("Failed to send notification")
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("notification failed: %w", errors.Join(errs...))
	}

	n.logger.Info("Notification sent successfully")
	return nil
}
