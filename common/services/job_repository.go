package services

import (
	"context"
	"fmt"

	"github.com/oljwatch/job-harvester/common/db"
	"github.com/oljwatch/job-harvester/repository"
	"github.com/rs/zerolog/log"
)

// JobService is the persistence contract the pipeline and the query API
// depend on. The pipeline is assumed to be the store's only writer.
type JobService interface {
	// Exists reports whether a job with the given upstream id is already stored.
	Exists(ctx context.Context, jobID string) (bool, error)

	// InsertBatch re-checks existence per record and inserts the records
	// still absent, all inside one transaction. It returns the number of
	// rows inserted and the number skipped as duplicates.
	InsertBatch(ctx context.Context, batch []repository.CreateJobParams) (inserted, skipped int64, err error)

	// DeleteIncomplete removes every stored record with at least one null
	// required content field and returns the count deleted.
	DeleteIncomplete(ctx context.Context) (int64, error)

	// List returns one page of jobs plus the total count matching the filters.
	List(ctx context.Context, arg repository.ListJobsParams) ([]repository.Job, int64, error)
}

// JobRepository is the PostgreSQL implementation of JobService
type JobRepository struct {
	db *db.DB
}

// NewJobRepository creates a PostgreSQL-backed JobService
func NewJobRepository(conn *db.DB) JobService {
	return &JobRepository{
		db: conn,
	}
}

// Exists does a point lookup by upstream job id
func (r *JobRepository) Exists(ctx context.Context, jobID string) (bool, error) {
	return r.db.Queries().JobExistsByJobID(ctx, jobID)
}

// InsertBatch inserts all still-new records as a single unit. Records
// that gained a stored twin during the summarization window are skipped
// with a warning, not treated as an error.
func (r *JobRepository) InsertBatch(ctx context.Context, batch []repository.CreateJobParams) (int64, int64, error) {
	if len(batch) == 0 {
		return 0, 0, nil
	}

	tx, err := r.db.Pool().Begin(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("beginning insert transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	qtx := r.db.Queries().WithTx(tx)

	var inserted int64
	for _, params := range batch {
		exists, err := qtx.JobExistsByJobID(ctx, params.JobID)
		if err != nil {
			return 0, 0, fmt.Errorf("checking job %s: %w", params.JobID, err)
		}
		if exists {
			log.Warn().Str("jobID", params.JobID).Msg("Job already exists, skipping insertion")
			continue
		}

		if _, err := qtx.CreateJob(ctx, params); err != nil {
			return 0, 0, fmt.Errorf("inserting job %s: %w", params.JobID, err)
		}
		inserted++
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, fmt.Errorf("committing insert transaction: %w", err)
	}

	return inserted, int64(len(batch)) - inserted, nil
}

// DeleteIncomplete purges malformed records store-wide
func (r *JobRepository) DeleteIncomplete(ctx context.Context) (int64, error) {
	return r.db.Queries().DeleteIncompleteJobs(ctx)
}

// List returns a filtered, sorted page of jobs and the unpaginated total
func (r *JobRepository) List(ctx context.Context, arg repository.ListJobsParams) ([]repository.Job, int64, error) {
	q := r.db.Queries()

	total, err := q.CountListedJobs(ctx, arg)
	if err != nil {
		return nil, 0, err
	}

	jobs, err := q.ListJobs(ctx, arg)
	if err != nil {
		return nil, 0, err
	}

	return jobs, total, nil
}
