package pipeline

import (
	"context"
	"net/http"

	"github.com/oljwatch/job-harvester/common/config"
	"github.com/rs/zerolog/log"
)

// Notifier pings the downstream webhook after a run that added jobs.
// Delivery is best effort: failures are logged, never propagated, so a
// flaky consumer cannot fail a run that already persisted its data.
type Notifier struct {
	url  string
	http *http.Client
}

// NewNotifier creates a Notifier from the webhook config.
func NewNotifier(cfg config.Config) *Notifier {
	return &Notifier{
		url:  cfg.Webhook.URL,
		http: &http.Client{Timeout: cfg.Webhook.Timeout},
	}
}

// Notify sends an empty POST to the configured webhook. The signal
// carries no payload; consumers query the API for the new rows.
func (n *Notifier) Notify(ctx context.Context) {
	if n == nil || n.url == "" {
		log.Warn().Msg("Webhook URL not configured, skipping notification")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to build webhook request")
		return
	}

	resp, err := n.http.Do(req)
	if err != nil {
		log.Error().Err(err).Msg("Failed to send webhook notification")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		log.Info().Msg("Job notification triggered successfully")
	} else {
		log.Error().Int("status", resp.StatusCode).Msg("Webhook rejected notification")
	}
}
