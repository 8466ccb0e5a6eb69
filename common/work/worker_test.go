package work

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewPool(t *testing.T) {
	tests := []struct {
		name        string
		workers     int
		queueSize   int
		expectError bool
	}{
		{"valid pool", 5, 10, false},
		{"zero workers", 0, 10, true},
		{"negative workers", -1, 10, true},
		{"zero queue size", 5, 0, false},
		{"negative queue size", 5, -1, false}, // clamped to 0
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool, err := NewPool[string](tt.workers, tt.queueSize, time.Second)
			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
				return
			}
			if pool == nil {
				t.Error("Expected pool but got nil")
			}
		})
	}
}

func TestPoolBasicOperation(t *testing.T) {
	ctx := context.Background()
	pool, err := NewPool[string](2, 5, 5*time.Second)
	if err != nil {
		t.Fatal(err)
	}

	pool.Start(ctx, "test-pool")
	defer pool.Stop()

	var executedCount int64
	task, err := NewTask[string](
		func(ctx context.Context) (string, error) {
			atomic.AddInt64(&executedCount, 1)
			return "test result", nil
		},
		WithID[string]("task-1"),
	)
	if err != nil {
		t.Fatal(err)
	}

	if err := pool.AddTask(ctx, task); err != nil {
		t.Fatal(err)
	}

	select {
	case result := <-pool.Results():
		if !result.IsSuccess() {
			t.Errorf("Task failed: %v", result.Error)
		}
		if result.Result != "test result" {
			t.Errorf("Expected 'test result', got '%s'", result.Result)
		}
		if result.TaskID != "task-1" {
			t.Errorf("Expected task ID 'task-1', got '%s'", result.TaskID)
		}
		if atomic.LoadInt64(&executedCount) != 1 {
			t.Errorf("Expected 1 execution, got %d", executedCount)
		}
	case <-time.After(3 * time.Second):
		t.Error("Timeout waiting for result")
	}
}

func TestPoolFailureIsolation(t *testing.T) {
	ctx := context.Background()
	pool, err := NewPool[int](3, 10, 5*time.Second)
	if err != nil {
		t.Fatal(err)
	}

	pool.Start(ctx, "isolation-test-pool")

	const numTasks = 6
	boom := errors.New("boom")

	for i := 0; i < numTasks; i++ {
		n := i
		task, err := NewTask[int](
			func(ctx context.Context) (int, error) {
				if n%2 == 1 {
					return 0, boom
				}
				return n * 2, nil
			},
		)
		if err != nil {
			t.Fatal(err)
		}
		if err := pool.AddTask(ctx, task); err != nil {
			t.Fatal(err)
		}
	}

	var ok, failed int
	for i := 0; i < numTasks; i++ {
		select {
		case result := <-pool.Results():
			if result.IsSuccess() {
				ok++
			} else {
				if !errors.Is(result.Error, boom) {
					t.Errorf("Unexpected error: %v", result.Error)
				}
				failed++
			}
		case <-time.After(3 * time.Second):
			t.Fatal("Timeout waiting for results")
		}
	}

	if ok != 3 || failed != 3 {
		t.Errorf("Expected 3 successes and 3 failures, got %d/%d", ok, failed)
	}

	pool.Stop()
}

func TestPoolTaskTimeout(t *testing.T) {
	ctx := context.Background()
	pool, err := NewPool[string](1, 2, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	pool.Start(ctx, "timeout-test-pool")
	defer pool.Stop()

	task, err := NewTask[string](
		func(ctx context.Context) (string, error) {
			select {
			case <-time.After(5 * time.Second):
				return "too late", nil
			case <-ctx.Done():
				return "", ctx.Err()
			}
		},
		WithTimeout[string](50*time.Millisecond),
	)
	if err != nil {
		t.Fatal(err)
	}

	if err := pool.AddTask(ctx, task); err != nil {
		t.Fatal(err)
	}

	select {
	case result := <-pool.Results():
		if result.IsSuccess() {
			t.Error("Expected timed-out task to fail")
		}
		if !errors.Is(result.Error, context.DeadlineExceeded) {
			t.Errorf("Expected deadline exceeded, got %v", result.Error)
		}
	case <-time.After(3 * time.Second):
		t.Error("Timeout waiting for result")
	}
}

func TestPoolAddAfterStop(t *testing.T) {
	ctx := context.Background()
	pool, err := NewPool[string](1, 1, time.Second)
	if err != nil {
		t.Fatal(err)
	}

	pool.Start(ctx, "stopped-pool")
	pool.Stop()

	task, err := NewTask[string](func(ctx context.Context) (string, error) {
		return "", nil
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := pool.AddTask(ctx, task); !errors.Is(err, ErrPoolStopped) {
		t.Errorf("Expected ErrPoolStopped, got %v", err)
	}
}
