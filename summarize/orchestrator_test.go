package summarize

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/oljwatch/job-harvester/common"
	"github.com/oljwatch/job-harvester/scraper"
	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGenerator fails for job ids listed in failFor and records the
// maximum number of calls in flight at once.
type fakeGenerator struct {
	mu       sync.Mutex
	failFor  map[string]bool
	inFlight int64
	maxSeen  int64
	calls    int64
}

func (g *fakeGenerator) GenerateSummary(ctx context.Context, overview, link string) (string, error) {
	cur := atomic.AddInt64(&g.inFlight, 1)
	defer atomic.AddInt64(&g.inFlight, -1)
	atomic.AddInt64(&g.calls, 1)

	g.mu.Lock()
	if cur > g.maxSeen {
		g.maxSeen = cur
	}
	fail := g.failFor[link]
	g.mu.Unlock()

	time.Sleep(10 * time.Millisecond)

	if fail {
		return "", errors.New("model unavailable")
	}
	return "summary of " + overview, nil
}

func record(jobID, overview string) *scraper.Record {
	return &scraper.Record{
		JobID:       jobID,
		JobOverview: mo.Some(overview),
		Link:        "https://example.test/jobseekers/job/" + jobID,
	}
}

func TestSummarizeBatch_AllSucceed(t *testing.T) {
	gen := &fakeGenerator{}
	o := NewOrchestrator(gen, 4, time.Second)

	records := []*scraper.Record{
		record("1", "first job"),
		record("2", "second job"),
		record("3", "third job"),
	}

	require.NoError(t, o.SummarizeBatch(context.Background(), records))

	assert.Equal(t, "summary of first job", records[0].Summary.MustGet())
	assert.Equal(t, "summary of second job", records[1].Summary.MustGet())
	assert.Equal(t, "summary of third job", records[2].Summary.MustGet())
	assert.EqualValues(t, 3, atomic.LoadInt64(&gen.calls))
}

func TestSummarizeBatch_PartialFailureIsolation(t *testing.T) {
	gen := &fakeGenerator{failFor: map[string]bool{
		"https://example.test/jobseekers/job/2": true,
	}}
	o := NewOrchestrator(gen, 4, time.Second)

	records := []*scraper.Record{
		record("1", "first job"),
		record("2", "second job"),
		record("3", "third job"),
	}

	require.NoError(t, o.SummarizeBatch(context.Background(), records))

	assert.Equal(t, "summary of first job", records[0].Summary.MustGet())
	assert.Equal(t, common.FallbackSummary, records[1].Summary.MustGet())
	assert.Equal(t, "summary of third job", records[2].Summary.MustGet())
}

func TestSummarizeBatch_BoundedConcurrency(t *testing.T) {
	gen := &fakeGenerator{}
	o := NewOrchestrator(gen, 2, time.Second)

	var records []*scraper.Record
	for i := 0; i < 10; i++ {
		records = append(records, record(string(rune('a'+i)), "job"))
	}

	require.NoError(t, o.SummarizeBatch(context.Background(), records))

	assert.LessOrEqual(t, gen.maxSeen, int64(2))
	for _, rec := range records {
		assert.True(t, rec.Summary.IsPresent())
	}
}

func TestSummarizeBatch_EmptyBatch(t *testing.T) {
	gen := &fakeGenerator{}
	o := NewOrchestrator(gen, 4, time.Second)

	require.NoError(t, o.SummarizeBatch(context.Background(), nil))
	assert.EqualValues(t, 0, atomic.LoadInt64(&gen.calls))
}

func TestSummarizeBatch_DuplicateJobIDs(t *testing.T) {
	gen := &fakeGenerator{}
	o := NewOrchestrator(gen, 2, time.Second)

	// Same upstream id listed twice; both copies must settle.
	twinA := record("7", "first copy")
	twinB := record("7", "second copy")
	records := []*scraper.Record{twinA, twinB}

	require.NoError(t, o.SummarizeBatch(context.Background(), records))

	assert.Equal(t, "summary of first copy", twinA.Summary.MustGet())
	assert.Equal(t, "summary of second copy", twinB.Summary.MustGet())
	assert.EqualValues(t, 2, atomic.LoadInt64(&gen.calls))
}

func TestSummarizeBatch_ContextCancelled(t *testing.T) {
	o := NewOrchestrator(blockingGenerator{}, 1, time.Minute)

	records := []*scraper.Record{
		record("1", "first job"),
		record("2", "second job"),
		record("3", "third job"),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- o.SummarizeBatch(ctx, records)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("SummarizeBatch did not return after cancellation")
	}

	for i, rec := range records {
		assert.Equal(t, common.FallbackSummary, rec.Summary.MustGet(), "record %d must settle", i)
	}
}

type blockingGenerator struct{}

func (blockingGenerator) GenerateSummary(ctx context.Context, overview, link string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestSummarizeBatch_Timeout(t *testing.T) {
	slow := slowGenerator{delay: 200 * time.Millisecond}
	o := NewOrchestrator(slow, 1, 20*time.Millisecond)

	records := []*scraper.Record{record("1", "slow job")}
	require.NoError(t, o.SummarizeBatch(context.Background(), records))

	assert.Equal(t, common.FallbackSummary, records[0].Summary.MustGet())
}

type slowGenerator struct {
	delay time.Duration
}

func (g slowGenerator) GenerateSummary(ctx context.Context, overview, link string) (string, error) {
	select {
	case <-time.After(g.delay):
		return "late summary", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
