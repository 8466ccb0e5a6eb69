package scraper

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"regexp"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
)

// jobDetailPath matches job detail links on the listing page; the numeric
// tail is the upstream job identifier.
var jobDetailPath = regexp.MustCompile(`^/jobseekers/job/\d+$`)

// DiscoveryError is returned when the listing page itself cannot be
// fetched. It is fatal to a harvest run: without the listing there are no
// candidates to process.
type DiscoveryError struct {
	StatusCode int
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("listing page fetch failed with status %d", e.StatusCode)
}

// DiscoverListings fetches the search page and returns one JobListingRef
// per job detail link, in page order. Order carries no meaning downstream.
func (c *Client) DiscoverListings(ctx context.Context) ([]JobListingRef, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.Upstream.SearchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building listing request: %w", err)
	}
	req.Header.Set("User-Agent", randomUserAgent())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching listing page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &DiscoveryError{StatusCode: resp.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing listing page: %w", err)
	}

	var refs []JobListingRef
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || !jobDetailPath.MatchString(href) {
			return
		}
		refs = append(refs, JobListingRef{
			JobID: path.Base(href),
			URL:   c.cfg.Upstream.BaseURL + href,
		})
	})

	log.Info().Int("count", len(refs)).Msg("Discovered job listings")
	return refs, nil
}
