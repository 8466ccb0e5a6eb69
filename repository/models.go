package repository

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// Job is a persisted job posting. Every content field is nullable because
// the upstream detail pages are not guaranteed to be complete.
type Job struct {
	ID           int64       `json:"id"`
	JobID        string      `json:"job_id"`
	Title        pgtype.Text `json:"title"`
	WorkType     pgtype.Text `json:"work_type"`
	Salary       pgtype.Text `json:"salary"`
	HoursPerWeek pgtype.Text `json:"hours_per_week"`
	JobOverview  pgtype.Text `json:"job_overview"`
	Summary      pgtype.Text `json:"summary"`
	RawText      pgtype.Text `json:"-"`
	Link         pgtype.Text `json:"link"`
	DateCreated  time.Time   `json:"date_created"`
}
