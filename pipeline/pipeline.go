// Package pipeline runs the crawl-and-ingest flow: listing discovery,
// detail fetching, dedup, summarization, persistence, cleanup and the
// new-jobs webhook. One invocation is one linear run.
package pipeline

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/oljwatch/job-harvester/common/services"
	"github.com/oljwatch/job-harvester/repository"
	"github.com/oljwatch/job-harvester/scraper"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

// Harvester discovers candidate postings and fetches their detail pages.
// Implemented by scraper.Client.
type Harvester interface {
	DiscoverListings(ctx context.Context) ([]scraper.JobListingRef, error)
	FetchDetail(ctx context.Context, jobID string, index, total int) (*scraper.Record, error)
}

// Summarizer assigns a summary to every record in the batch, settling all
// of them before it returns. Implemented by summarize.Orchestrator.
type Summarizer interface {
	SummarizeBatch(ctx context.Context, records []*scraper.Record) error
}

// Config carries the optional collaborators and run parameters.
type Config struct {
	Summarizer Summarizer // nil skips summarization
	Notifier   *Notifier  // nil skips the webhook
	Lock       *RunLock   // nil skips run locking
	Limit      int        // 0 means no cap on candidates per run
	DelayMin   time.Duration
	DelayMax   time.Duration
}

// Pipeline wires the stages of one harvest run together.
type Pipeline struct {
	harvester  Harvester
	jobs       services.JobService
	summarizer Summarizer
	notifier   *Notifier
	lock       *RunLock
	limit      int
	delayMin   time.Duration
	delayMax   time.Duration
}

// New creates a Pipeline.
func New(harvester Harvester, jobs services.JobService, cfg Config) *Pipeline {
	return &Pipeline{
		harvester:  harvester,
		jobs:       jobs,
		summarizer: cfg.Summarizer,
		notifier:   cfg.Notifier,
		lock:       cfg.Lock,
		limit:      cfg.Limit,
		delayMin:   cfg.DelayMin,
		delayMax:   cfg.DelayMax,
	}
}

// RunStats summarizes one completed harvest run.
type RunStats struct {
	RunID             string    `json:"run_id"`
	Discovered        int       `json:"discovered"`
	Fetched           int       `json:"fetched"`
	New               int       `json:"new"`
	Inserted          int64     `json:"inserted"`
	DuplicatesSkipped int64     `json:"duplicates_skipped"`
	Purged            int64     `json:"purged"`
	StartedAt         time.Time `json:"started_at"`
	FinishedAt        time.Time `json:"finished_at"`
}

// Run executes one full harvest. Listing discovery failure is fatal;
// everything downstream degrades per item instead of aborting the batch.
func (p *Pipeline) Run(ctx context.Context) (*RunStats, error) {
	stats := &RunStats{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}

	if p.lock != nil {
		if err := p.lock.Acquire(ctx, stats.RunID); err != nil {
			return nil, err
		}
		defer p.lock.Release(context.WithoutCancel(ctx))
	}

	log.Info().Str("runID", stats.RunID).Msg("Starting harvest run")

	refs, err := p.harvester.DiscoverListings(ctx)
	if err != nil {
		return nil, fmt.Errorf("discovering listings: %w", err)
	}
	stats.Discovered = len(refs)

	if p.limit > 0 && len(refs) > p.limit {
		log.Info().Int("limit", p.limit).Msg("Limiting candidates for this run")
		refs = refs[:p.limit]
	}

	records := p.fetchDetails(ctx, refs)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stats.Fetched = len(records)

	// Dedup gate runs before summarization so already-stored postings
	// never cost a generation call.
	newRecords := make([]*scraper.Record, 0, len(records))
	for _, rec := range records {
		exists, err := p.jobs.Exists(ctx, rec.JobID)
		if err != nil {
			return nil, fmt.Errorf("checking job %s: %w", rec.JobID, err)
		}
		if exists {
			log.Warn().Str("jobID", rec.JobID).Msg("Job already exists, skipping")
			continue
		}
		newRecords = append(newRecords, rec)
	}
	stats.New = len(newRecords)

	if p.summarizer != nil && len(newRecords) > 0 {
		start := time.Now()
		if err := p.summarizer.SummarizeBatch(ctx, newRecords); err != nil {
			return nil, fmt.Errorf("summarizing batch: %w", err)
		}
		log.Info().
			Int("count", len(newRecords)).
			Dur("took", time.Since(start)).
			Msg("Generated job summaries")
	}

	batch := lo.Map(newRecords, func(rec *scraper.Record, _ int) repository.CreateJobParams {
		return toCreateParams(rec)
	})

	inserted, skipped, err := p.jobs.InsertBatch(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("persisting batch: %w", err)
	}
	stats.Inserted = inserted
	stats.DuplicatesSkipped = skipped
	log.Info().
		Int64("inserted", inserted).
		Int64("duplicates", skipped).
		Msg("Persisted new jobs")

	// Store-wide hygiene pass, independent of what this run inserted.
	purged, err := p.jobs.DeleteIncomplete(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to purge incomplete jobs")
	} else {
		stats.Purged = purged
		log.Info().Int64("purged", purged).Msg("Removed incomplete jobs")
	}

	if inserted > 0 {
		p.notifier.Notify(ctx)
	} else {
		log.Info().Msg("No new jobs added, skipping webhook notification")
	}

	stats.FinishedAt = time.Now()
	log.Info().
		Str("runID", stats.RunID).
		Dur("took", stats.FinishedAt.Sub(stats.StartedAt)).
		Msg("Harvest run finished")

	if p.lock != nil {
		if err := p.lock.StoreLastRun(ctx, stats); err != nil {
			log.Warn().Err(err).Msg("Failed to store run stats")
		}
	}

	return stats, nil
}

// fetchDetails walks the candidates sequentially with a jittered delay
// between requests. Sequential on purpose: the throttle trades run
// latency for a lower chance of the upstream blocking us.
func (p *Pipeline) fetchDetails(ctx context.Context, refs []scraper.JobListingRef) []*scraper.Record {
	records := make([]*scraper.Record, 0, len(refs))
	for i, ref := range refs {
		rec, err := p.harvester.FetchDetail(ctx, ref.JobID, i+1, len(refs))
		if err != nil {
			log.Warn().Err(err).Str("jobID", ref.JobID).Msg("Dropping job after fetch failure")
		} else if rec != nil {
			records = append(records, rec)
		}

		if i < len(refs)-1 {
			if err := p.sleepJitter(ctx); err != nil {
				return records
			}
		}
	}
	return records
}

func (p *Pipeline) sleepJitter(ctx context.Context) error {
	d := p.delayMin
	if p.delayMax > p.delayMin {
		d += time.Duration(rand.Int63n(int64(p.delayMax - p.delayMin)))
	}
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func toCreateParams(rec *scraper.Record) repository.CreateJobParams {
	return repository.CreateJobParams{
		JobID:        rec.JobID,
		Title:        optText(rec.Title),
		WorkType:     optText(rec.WorkType),
		Salary:       optText(rec.Salary),
		HoursPerWeek: optText(rec.HoursPerWeek),
		JobOverview:  optText(rec.JobOverview),
		Summary:      optText(rec.Summary),
		RawText:      pgtype.Text{String: rec.RawText, Valid: true},
		Link:         pgtype.Text{String: rec.Link, Valid: true},
		DateCreated:  rec.DateCreated,
	}
}

func optText(o mo.Option[string]) pgtype.Text {
	if v, ok := o.Get(); ok {
		return pgtype.Text{String: v, Valid: true}
	}
	return pgtype.Text{}
}
