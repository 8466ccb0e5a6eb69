// Package handler exposes the read-only query API over the job store.
package handler

import (
	"context"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/oljwatch/job-harvester/common/config"
	"github.com/oljwatch/job-harvester/common/db"
	"github.com/oljwatch/job-harvester/common/services"
	"github.com/oljwatch/job-harvester/common/utils"
	"github.com/oljwatch/job-harvester/repository"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

var dateParamPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

var sortColumns = []string{"id", "job_id", "date_created"}

// connManager is the slice of common/db.DB the handler needs to recover
// from dropped connections. Nil disables the reconnect path.
type connManager interface {
	Reacquire(ctx context.Context) error
}

type JobsHandler struct {
	jobs   services.JobService
	conn   connManager
	router *chi.Mux
	cfg    config.Config
}

func NewJobsHandler(jobs services.JobService, conn *db.DB, cfg config.Config) *JobsHandler {
	router := chi.NewRouter()

	h := &JobsHandler{
		jobs:   jobs,
		router: router,
		cfg:    cfg,
	}
	if conn != nil {
		h.conn = conn
	}

	router.Get("/", h.handleListJobs)
	return h
}

func (h *JobsHandler) Router() *chi.Mux {
	return h.router
}

type pagination struct {
	TotalCount  int64 `json:"total_count"`
	TotalPages  int64 `json:"total_pages"`
	CurrentPage int64 `json:"current_page"`
	Limit       int32 `json:"limit"`
	Offset      int32 `json:"offset"`
	HasNext     bool  `json:"has_next"`
	HasPrev     bool  `json:"has_prev"`
}

type appliedFilters struct {
	Salary       string `json:"salary"`
	PostedAfter  string `json:"posted_after"`
	PostedBefore string `json:"posted_before"`
	SearchQuery  string `json:"search_query"`
	SortBy       string `json:"sort_by"`
	Order        string `json:"order"`
}

type listJobsResponse struct {
	Jobs       []repository.Job `json:"jobs"`
	Pagination pagination       `json:"pagination"`
	Filters    appliedFilters   `json:"filters_applied"`
}

func (h *JobsHandler) handleListJobs(w http.ResponseWriter, r *http.Request) {
	params, searchQuery, err := parseListParams(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	jobs, total, err := h.listWithRetry(r.Context(), params)
	if err != nil {
		if db.IsConnectionError(err) {
			utils.WriteError(w, http.StatusServiceUnavailable, "Database temporarily unavailable")
			return
		}
		log.Error().Err(err).Msg("Failed to list jobs")
		utils.WriteError(w, http.StatusInternalServerError, "Failed to fetch jobs")
		return
	}

	if jobs == nil {
		jobs = []repository.Job{}
	}

	totalPages := int64(math.Ceil(float64(total) / float64(params.Limit)))
	utils.WriteJSON(w, http.StatusOK, listJobsResponse{
		Jobs: jobs,
		Pagination: pagination{
			TotalCount:  total,
			TotalPages:  totalPages,
			CurrentPage: int64(params.Offset)/int64(params.Limit) + 1,
			Limit:       params.Limit,
			Offset:      params.Offset,
			HasNext:     int64(params.Offset)+int64(params.Limit) < total,
			HasPrev:     params.Offset > 0,
		},
		Filters: appliedFilters{
			Salary:       params.Salary,
			PostedAfter:  params.PostedAfter,
			PostedBefore: params.PostedBefore,
			SearchQuery:  searchQuery,
			SortBy:       params.SortBy,
			Order:        params.Order,
		},
	})
}

// listWithRetry retries the query after connection-level failures,
// rebuilding the pool between attempts. Anything else fails immediately.
func (h *JobsHandler) listWithRetry(ctx context.Context, params repository.ListJobsParams) ([]repository.Job, int64, error) {
	attempts := int(h.cfg.Api.FetchRetries)
	if attempts < 1 {
		attempts = 1
	}

	var jobs []repository.Job
	var total int64
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		jobs, total, err = h.jobs.List(ctx, params)
		if err == nil {
			return jobs, total, nil
		}
		if h.conn == nil || !db.IsConnectionError(err) {
			return nil, 0, err
		}

		log.Warn().Err(err).Int("attempt", attempt).Msg("Job query hit a connection error")
		if attempt < attempts {
			if reErr := h.conn.Reacquire(ctx); reErr != nil {
				log.Error().Err(reErr).Msg("Database reconnection failed")
			}
		}
	}
	return nil, 0, err
}

func parseListParams(r *http.Request) (repository.ListJobsParams, string, error) {
	q := r.URL.Query()
	params := repository.ListJobsParams{
		Limit:  defaultLimit,
		SortBy: "date_created",
		Order:  "desc",
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxLimit {
			return params, "", &paramError{"limit must be an integer between 1 and 100"}
		}
		params.Limit = int32(limit)
	}

	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return params, "", &paramError{"offset must be a non-negative integer"}
		}
		params.Offset = int32(offset)
	}

	// page is sugar over offset and wins when both are present.
	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return params, "", &paramError{"page must be a positive integer"}
		}
		params.Offset = int32(page-1) * params.Limit
	}

	params.Salary = q.Get("salary")

	if raw := q.Get("posted_after"); raw != "" {
		if !dateParamPattern.MatchString(raw) {
			return params, "", &paramError{"posted_after must be formatted as YYYY-MM-DD"}
		}
		params.PostedAfter = raw
	}
	if raw := q.Get("posted_before"); raw != "" {
		if !dateParamPattern.MatchString(raw) {
			return params, "", &paramError{"posted_before must be formatted as YYYY-MM-DD"}
		}
		params.PostedBefore = raw
	}

	if raw := q.Get("sort_by"); raw != "" {
		if !lo.Contains(sortColumns, raw) {
			return params, "", &paramError{"sort_by must be one of id, job_id, date_created"}
		}
		params.SortBy = raw
	}

	if raw := q.Get("order"); raw != "" {
		order := strings.ToLower(raw)
		if order != "asc" && order != "desc" {
			return params, "", &paramError{"order must be asc or desc"}
		}
		params.Order = order
	}

	searchQuery := q.Get("q")
	if searchQuery != "" {
		params.Keywords = lo.FilterMap(strings.Split(searchQuery, ","), func(kw string, _ int) (string, bool) {
			kw = strings.TrimSpace(kw)
			return kw, kw != ""
		})
	}

	return params, searchQuery, nil
}

type paramError struct {
	msg string
}

func (e *paramError) Error() string {
	return e.msg
}
