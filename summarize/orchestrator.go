package summarize

import (
	"context"
	"fmt"
	"time"

	"github.com/oljwatch/job-harvester/common"
	"github.com/oljwatch/job-harvester/common/work"
	"github.com/oljwatch/job-harvester/scraper"
	"github.com/rs/zerolog/log"
	"github.com/samber/mo"
)

// Orchestrator fans summary generation out over a bounded worker pool.
// The pool size caps concurrent calls against the rate-limited API; an
// unbounded fan-out would queue one in-flight request per record.
type Orchestrator struct {
	gen         Generator
	workers     int
	callTimeout time.Duration
}

// NewOrchestrator builds an orchestrator around the given generator.
func NewOrchestrator(gen Generator, workers int, callTimeout time.Duration) *Orchestrator {
	if workers <= 0 {
		workers = 1
	}
	return &Orchestrator{
		gen:         gen,
		workers:     workers,
		callTimeout: callTimeout,
	}
}

// SummarizeBatch generates a summary for every record in the batch and
// assigns it in place. It returns only after every task has settled. A
// failed generation does not affect its siblings: the record gets the
// fixed fallback text and the batch continues.
func (o *Orchestrator) SummarizeBatch(ctx context.Context, records []*scraper.Record) error {
	if len(records) == 0 {
		return nil
	}

	pool, err := work.NewPool[string](o.workers, len(records), o.callTimeout)
	if err != nil {
		return fmt.Errorf("creating summarization pool: %w", err)
	}
	pool.Start(ctx, "summarize")
	defer pool.Stop()

	// Keyed by task id, not job id: a batch can carry two records with
	// the same upstream id and both must settle.
	byTask := make(map[string]*scraper.Record, len(records))
	queued := 0

	for _, rec := range records {
		rec := rec
		overview := rec.JobOverview.OrElse("")

		task, err := work.NewTask[string](
			func(taskCtx context.Context) (string, error) {
				return o.gen.GenerateSummary(taskCtx, overview, rec.Link)
			},
		)
		if err != nil {
			log.Error().Err(err).Str("jobID", rec.JobID).Msg("Failed to create summarization task")
			rec.Summary = mo.Some(common.FallbackSummary)
			continue
		}

		if err := pool.AddTask(ctx, task); err != nil {
			log.Error().Err(err).Str("jobID", rec.JobID).Msg("Failed to queue summarization task")
			rec.Summary = mo.Some(common.FallbackSummary)
			continue
		}

		byTask[task.ExecutorID()] = rec
		queued++
	}

	// Join point: every queued task settles before we return. When ctx is
	// cancelled the workers stop, so still-queued tasks will never reach
	// the results channel; settle their records here instead of blocking.
	for settled := 0; settled < queued; settled++ {
		select {
		case res := <-pool.Results():
			rec, ok := byTask[res.TaskID]
			if !ok {
				continue
			}
			if res.Error != nil {
				log.Error().Err(res.Error).Str("jobID", rec.JobID).Msg("Summary generation failed")
				rec.Summary = mo.Some(common.FallbackSummary)
				continue
			}
			rec.Summary = mo.Some(res.Result)

		case <-ctx.Done():
			for _, rec := range byTask {
				if rec.Summary.IsAbsent() {
					rec.Summary = mo.Some(common.FallbackSummary)
				}
			}
			return ctx.Err()
		}
	}

	return nil
}
