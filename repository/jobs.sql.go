package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

const createJob = `-- name: CreateJob :one
INSERT INTO jobs (
	job_id, title, work_type, salary, hours_per_week,
	job_overview, summary, raw_text, link, date_created
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
)
RETURNING id
`

type CreateJobParams struct {
	JobID        string
	Title        pgtype.Text
	WorkType     pgtype.Text
	Salary       pgtype.Text
	HoursPerWeek pgtype.Text
	JobOverview  pgtype.Text
	Summary      pgtype.Text
	RawText      pgtype.Text
	Link         pgtype.Text
	DateCreated  time.Time
}

func (q *Queries) CreateJob(ctx context.Context, arg CreateJobParams) (int64, error) {
	row := q.db.QueryRow(ctx, createJob,
		arg.JobID,
		arg.Title,
		arg.WorkType,
		arg.Salary,
		arg.HoursPerWeek,
		arg.JobOverview,
		arg.Summary,
		arg.RawText,
		arg.Link,
		arg.DateCreated,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const jobExistsByJobID = `-- name: JobExistsByJobID :one
SELECT EXISTS (
	SELECT 1 FROM jobs WHERE job_id = $1
)
`

func (q *Queries) JobExistsByJobID(ctx context.Context, jobID string) (bool, error) {
	row := q.db.QueryRow(ctx, jobExistsByJobID, jobID)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const deleteIncompleteJobs = `-- name: DeleteIncompleteJobs :execrows
DELETE FROM jobs
WHERE title IS NULL
   OR work_type IS NULL
   OR salary IS NULL
   OR hours_per_week IS NULL
   OR job_overview IS NULL
`

func (q *Queries) DeleteIncompleteJobs(ctx context.Context) (int64, error) {
	result, err := q.db.Exec(ctx, deleteIncompleteJobs)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const countJobs = `-- name: CountJobs :one
SELECT count(*) FROM jobs
`

func (q *Queries) CountJobs(ctx context.Context) (int64, error) {
	row := q.db.QueryRow(ctx, countJobs)
	var count int64
	err := row.Scan(&count)
	return count, err
}
