package repository

// The list query is hand-maintained rather than generated because its
// filter set is dynamic.

import (
	"context"
	"fmt"
	"strings"
)

// ListJobsParams carries the filter, sort and pagination surface of the
// query API. Zero values mean "not applied".
type ListJobsParams struct {
	Salary       string
	PostedAfter  string // YYYY-MM-DD
	PostedBefore string // YYYY-MM-DD
	Keywords     []string
	SortBy       string // one of id, job_id, date_created
	Order        string // asc or desc
	Limit        int32
	Offset       int32
}

var listSortColumns = map[string]string{
	"id":           "id",
	"job_id":       "job_id",
	"date_created": "date_created",
}

// buildJobFilter renders the WHERE clause shared by ListJobs and
// CountListedJobs. Keywords are OR-matched against title and overview.
func buildJobFilter(arg ListJobsParams) (string, []interface{}) {
	var conds []string
	var args []interface{}

	next := func() string {
		return fmt.Sprintf("$%d", len(args))
	}

	if arg.Salary != "" {
		args = append(args, "%"+arg.Salary+"%")
		conds = append(conds, "salary ILIKE "+next())
	}
	if arg.PostedAfter != "" {
		args = append(args, arg.PostedAfter)
		conds = append(conds, "date_created >= "+next()+"::date")
	}
	if arg.PostedBefore != "" {
		args = append(args, arg.PostedBefore)
		conds = append(conds, "date_created <= "+next()+"::date")
	}
	if len(arg.Keywords) > 0 {
		var kwConds []string
		for _, kw := range arg.Keywords {
			args = append(args, "%"+kw+"%")
			p := next()
			kwConds = append(kwConds, fmt.Sprintf("(title ILIKE %s OR job_overview ILIKE %s)", p, p))
		}
		conds = append(conds, "("+strings.Join(kwConds, " OR ")+")")
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListJobs returns a page of jobs matching the given filters.
func (q *Queries) ListJobs(ctx context.Context, arg ListJobsParams) ([]Job, error) {
	where, args := buildJobFilter(arg)

	sortCol, ok := listSortColumns[arg.SortBy]
	if !ok {
		sortCol = "date_created"
	}
	direction := "DESC"
	if strings.EqualFold(arg.Order, "asc") {
		direction = "ASC"
	}

	sql := fmt.Sprintf(
		`SELECT id, job_id, title, work_type, salary, hours_per_week,
		        job_overview, summary, raw_text, link, date_created
		 FROM jobs%s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		where, sortCol, direction, len(args)+1, len(args)+2,
	)
	args = append(args, arg.Limit, arg.Offset)

	rows, err := q.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Job
	for rows.Next() {
		var j Job
		if err := rows.Scan(
			&j.ID,
			&j.JobID,
			&j.Title,
			&j.WorkType,
			&j.Salary,
			&j.HoursPerWeek,
			&j.JobOverview,
			&j.Summary,
			&j.RawText,
			&j.Link,
			&j.DateCreated,
		); err != nil {
			return nil, err
		}
		items = append(items, j)
	}
	return items, rows.Err()
}

// CountListedJobs returns the total number of jobs matching the same
// filters as ListJobs, ignoring pagination.
func (q *Queries) CountListedJobs(ctx context.Context, arg ListJobsParams) (int64, error) {
	where, args := buildJobFilter(arg)

	row := q.db.QueryRow(ctx, "SELECT count(*) FROM jobs"+where, args...)
	var count int64
	err := row.Scan(&count)
	return count, err
}
