package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/oljwatch/job-harvester/common/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(searchURL, baseURL, detailBaseURL string) *Client {
	cfg := config.DefaultConfig()
	cfg.Upstream.SearchURL = searchURL
	cfg.Upstream.BaseURL = baseURL
	cfg.Upstream.DetailBaseURL = detailBaseURL
	return NewClient(cfg)
}

func TestDiscoverListings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body>
			<a href="/jobseekers/job/111">VA wanted</a>
			<a href="/jobseekers/job/222">Bookkeeper</a>
			<a href="/jobseekers/jobsearch?page=2">Next</a>
			<a href="/about">About us</a>
			<a href="/jobseekers/job/not-a-number">Broken</a>
		</body></html>`))
	}))
	defer server.Close()

	c := testClient(server.URL, "https://example.test", "https://example.test/jobseekers/job/")

	refs, err := c.DiscoverListings(context.Background())
	require.NoError(t, err)
	require.Len(t, refs, 2)

	assert.Equal(t, "111", refs[0].JobID)
	assert.Equal(t, "https://example.test/jobseekers/job/111", refs[0].URL)
	assert.Equal(t, "222", refs[1].JobID)
}

func TestDiscoverListings_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := testClient(server.URL, "https://example.test", "https://example.test/jobseekers/job/")

	_, err := c.DiscoverListings(context.Background())
	require.Error(t, err)

	var discErr *DiscoveryError
	require.ErrorAs(t, err, &discErr)
	assert.Equal(t, http.StatusServiceUnavailable, discErr.StatusCode)
}

func TestFetchDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(fullDetailPage))
	}))
	defer server.Close()

	c := testClient("unused", "https://example.test", server.URL+"/jobseekers/job/")

	rec, err := c.FetchDetail(context.Background(), "12345", 1, 1)
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, "12345", rec.JobID)
	assert.Equal(t, server.URL+"/jobseekers/job/12345", rec.Link)
	assert.Equal(t, "Virtual Assistant - Full Time", rec.Title.MustGet())
	assert.NotEmpty(t, rec.RawText)
}

func TestFetchDetail_NotFoundIsDropped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := testClient("unused", "https://example.test", server.URL+"/jobseekers/job/")

	rec, err := c.FetchDetail(context.Background(), "404404", 1, 1)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestFetchDetail_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	server.Close() // closed on purpose

	c := testClient("unused", "https://example.test", server.URL+"/jobseekers/job/")

	rec, err := c.FetchDetail(context.Background(), "1", 1, 1)
	require.Error(t, err)
	assert.Nil(t, rec)
}
