// Package scraper fetches the upstream listing and detail pages and turns
// them into structured job records. Field extraction is tolerant: a field
// the page does not carry is simply absent, never an error.
package scraper

import (
	"net/http"
	"time"

	"github.com/oljwatch/job-harvester/common/config"
	"github.com/samber/mo"
)

// JobListingRef is a candidate posting discovered on the listing page. It
// lives only for the duration of a run; the detail fetch materializes it
// into a Record.
type JobListingRef struct {
	JobID string
	URL   string
}

// Record is a fully parsed detail page. Content fields are optional
// because the upstream HTML is not guaranteed complete; Summary is filled
// in later by the summarization stage.
type Record struct {
	JobID        string
	Title        mo.Option[string]
	WorkType     mo.Option[string]
	Salary       mo.Option[string]
	HoursPerWeek mo.Option[string]
	JobOverview  mo.Option[string]
	Summary      mo.Option[string]
	RawText      string
	Link         string
	DateCreated  time.Time
}

// Client talks to the upstream listing site.
type Client struct {
	http *http.Client
	cfg  config.Config
}

// NewClient creates a scraper client with the configured fetch timeout.
func NewClient(cfg config.Config) *Client {
	return &Client{
		http: &http.Client{Timeout: cfg.Scraper.FetchTimeout},
		cfg:  cfg,
	}
}
