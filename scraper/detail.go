package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// FetchDetail fetches and parses one job detail page. A transport error
// or a non-success status yields (nil, err) or (nil, nil) respectively;
// either way the caller drops the item and the batch continues. The
// detail URL is derived deterministically from the job id.
func (c *Client) FetchDetail(ctx context.Context, jobID string, index, total int) (*Record, error) {
	url := c.cfg.Upstream.DetailBaseURL + jobID

	log.Info().
		Int("index", index).
		Int("total", total).
		Str("jobID", jobID).
		Msg("Scraping job detail")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building detail request: %w", err)
	}
	req.Header.Set("User-Agent", randomUserAgent())
	for k, v := range secFetchHeaders {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching job %s: %w", jobID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Error().
			Str("jobID", jobID).
			Int("status", resp.StatusCode).
			Msg("Failed to retrieve job detail")
		return nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading job %s body: %w", jobID, err)
	}

	return parseRecord(jobID, url, string(body), time.Now())
}
