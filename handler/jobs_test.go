package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/oljwatch/job-harvester/common/config"
	"github.com/oljwatch/job-harvester/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJobService struct {
	lastParams repository.ListJobsParams
	jobs       []repository.Job
	total      int64
	errs       []error // consumed per call; nil entries mean success
	calls      int
}

func (f *fakeJobService) Exists(ctx context.Context, jobID string) (bool, error) {
	return false, nil
}

func (f *fakeJobService) InsertBatch(ctx context.Context, batch []repository.CreateJobParams) (int64, int64, error) {
	return 0, 0, nil
}

func (f *fakeJobService) DeleteIncomplete(ctx context.Context) (int64, error) {
	return 0, nil
}

func (f *fakeJobService) List(ctx context.Context, arg repository.ListJobsParams) ([]repository.Job, int64, error) {
	f.lastParams = arg
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, 0, err
		}
	}
	return f.jobs, f.total, nil
}

type noopConn struct {
	reacquires int
}

func (c *noopConn) Reacquire(ctx context.Context) error {
	c.reacquires++
	return nil
}

func newTestHandler(svc *fakeJobService) *JobsHandler {
	h := NewJobsHandler(svc, nil, config.DefaultConfig())
	return h
}

func doRequest(t *testing.T, h *JobsHandler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)
	return rec
}

func sampleJob(id int64, jobID string) repository.Job {
	return repository.Job{
		ID:          id,
		JobID:       jobID,
		Title:       pgtype.Text{String: "Virtual Assistant", Valid: true},
		DateCreated: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestListJobsDefaults(t *testing.T) {
	svc := &fakeJobService{jobs: []repository.Job{sampleJob(1, "100")}, total: 1}
	rec := doRequest(t, newTestHandler(svc), "/")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int32(10), svc.lastParams.Limit)
	assert.Equal(t, int32(0), svc.lastParams.Offset)
	assert.Equal(t, "date_created", svc.lastParams.SortBy)
	assert.Equal(t, "desc", svc.lastParams.Order)

	var resp listJobsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Jobs, 1)
	assert.Equal(t, int64(1), resp.Pagination.TotalCount)
	assert.Equal(t, int64(1), resp.Pagination.CurrentPage)
	assert.False(t, resp.Pagination.HasNext)
	assert.False(t, resp.Pagination.HasPrev)
}

func TestListJobsPageTranslatesToOffset(t *testing.T) {
	svc := &fakeJobService{total: 23}
	rec := doRequest(t, newTestHandler(svc), "/?limit=5&page=2")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int32(5), svc.lastParams.Limit)
	assert.Equal(t, int32(5), svc.lastParams.Offset)

	var resp listJobsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(5), resp.Pagination.TotalPages)
	assert.Equal(t, int64(2), resp.Pagination.CurrentPage)
	assert.True(t, resp.Pagination.HasNext)
	assert.True(t, resp.Pagination.HasPrev)
}

func TestListJobsFilterPassthrough(t *testing.T) {
	svc := &fakeJobService{}
	rec := doRequest(t, newTestHandler(svc),
		"/?salary=40000&posted_after=2026-01-01&posted_before=2026-06-30&q=python,%20remote%20,&sort_by=id&order=asc")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "40000", svc.lastParams.Salary)
	assert.Equal(t, "2026-01-01", svc.lastParams.PostedAfter)
	assert.Equal(t, "2026-06-30", svc.lastParams.PostedBefore)
	assert.Equal(t, []string{"python", "remote"}, svc.lastParams.Keywords)
	assert.Equal(t, "id", svc.lastParams.SortBy)
	assert.Equal(t, "asc", svc.lastParams.Order)

	var resp listJobsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "python, remote ,", resp.Filters.SearchQuery)
}

func TestListJobsRejectsBadParams(t *testing.T) {
	tests := []struct {
		name   string
		target string
	}{
		{"limit zero", "/?limit=0"},
		{"limit above cap", "/?limit=101"},
		{"limit not a number", "/?limit=ten"},
		{"negative offset", "/?offset=-1"},
		{"page zero", "/?page=0"},
		{"malformed posted_after", "/?posted_after=01-01-2026"},
		{"malformed posted_before", "/?posted_before=2026/06/30"},
		{"unknown sort column", "/?sort_by=salary"},
		{"unknown order", "/?order=sideways"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeJobService{}
			rec := doRequest(t, newTestHandler(svc), tc.target)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Zero(t, svc.calls, "invalid params must not reach the store")
		})
	}
}

func TestListJobsEmptyStoreReturnsEmptyArray(t *testing.T) {
	svc := &fakeJobService{}
	rec := doRequest(t, newTestHandler(svc), "/")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"jobs":[]`)
}

func TestListJobsRetriesConnectionErrors(t *testing.T) {
	connErr := &net.OpError{Op: "read", Err: errors.New("connection reset by peer")}
	svc := &fakeJobService{
		errs:  []error{connErr, nil},
		jobs:  []repository.Job{sampleJob(1, "100")},
		total: 1,
	}

	conn := &noopConn{}
	h := NewJobsHandler(svc, nil, config.DefaultConfig())
	h.conn = conn

	rec := doRequest(t, h, "/")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, svc.calls)
	assert.Equal(t, 1, conn.reacquires)
}

func TestListJobsExhaustedRetriesReturn503(t *testing.T) {
	connErr := &net.OpError{Op: "read", Err: errors.New("connection reset by peer")}
	svc := &fakeJobService{errs: []error{connErr, connErr, connErr}}

	h := NewJobsHandler(svc, nil, config.DefaultConfig())
	h.conn = &noopConn{}

	rec := doRequest(t, h, "/")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, 3, svc.calls)
}

func TestListJobsQueryErrorReturns500(t *testing.T) {
	svc := &fakeJobService{errs: []error{errors.New("syntax error")}}
	rec := doRequest(t, newTestHandler(svc), "/")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 1, svc.calls, "query errors are not retried")
}
