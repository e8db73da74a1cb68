package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type countingJob struct {
	counter *atomic.Int64
}

type countingResult struct {
	err error
}

func (r countingResult) GetError() error { return r.err }

func (j countingJob) Execute(ctx context.Context) Result {
	j.counter.Add(1)
	return countingResult{}
}

func TestPool_ExecutesAllJobs(t *testing.T) {
	var counter atomic.Int64
	pool := NewPool(context.Background(), 4)
	pool.Start()

	const jobs = 20
	for i := 0; i < jobs; i++ {
		if !pool.Submit(countingJob{counter: &counter}) {
			t.Fatalf("Expected job %d to be accepted", i)
		}
	}
	results := pool.Wait()

	if got := counter.Load(); got != jobs {
		t.Errorf("Expected %d executions, got %d", jobs, got)
	}
	if len(results) != jobs {
		t.Errorf("Expected %d results, got %d", jobs, len(results))
	}
}

func TestPool_ManyMoreJobsThanBuffer(t *testing.T) {
	// A single worker gives the smallest channel buffers; the submit
	// loop must still complete because the collector drains results
	// while jobs are queued.
	var counter atomic.Int64
	pool := NewPool(context.Background(), 1)
	pool.Start()

	const jobs = 100
	done := make(chan []Result, 1)
	go func() {
		for i := 0; i < jobs; i++ {
			pool.Submit(countingJob{counter: &counter})
		}
		done <- pool.Wait()
	}()

	select {
	case results := <-done:
		if len(results) != jobs {
			t.Errorf("Expected %d results, got %d", jobs, len(results))
		}
		if got := counter.Load(); got != jobs {
			t.Errorf("Expected %d executions, got %d", jobs, got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Submit/Wait did not complete; workers wedged on a full results buffer")
	}
}

func TestPool_ZeroWorkersClampedToOne(t *testing.T) {
	var counter atomic.Int64
	pool := NewPool(context.Background(), 0)
	pool.Start()
	pool.Submit(countingJob{counter: &counter})
	results := pool.Wait()

	if len(results) != 1 {
		t.Errorf("Expected 1 result, got %d", len(results))
	}
}

func TestPool_SubmitRefusedAfterContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool(ctx, 2)
	pool.Start()
	cancel()

	var counter atomic.Int64
	if pool.Submit(countingJob{counter: &counter}) {
		t.Error("Expected Submit to refuse a job after cancellation")
	}
	pool.Wait()
}

func TestLimiter_AllowWithinBurst(t *testing.T) {
	l := NewLimiter(1, 2)

	if !l.Allow("svc") {
		t.Error("Expected the first request within burst to be allowed")
	}
	if !l.Allow("svc") {
		t.Error("Expected the second request within burst to be allowed")
	}
	if l.Allow("svc") {
		t.Error("Expected the burst to be exhausted")
	}
}

func TestLimiter_ServicesIndependent(t *testing.T) {
	l := NewLimiter(1, 1)

	if !l.Allow("embed") {
		t.Error("Expected embed to be allowed")
	}
	if !l.Allow("search") {
		t.Error("Expected search to have its own budget")
	}
}

func TestLimiter_ServiceRateOverride(t *testing.T) {
	l := NewLimiter(1, 1)
	l.SetServiceRate("embed", 1, 3)

	for i := 0; i < 3; i++ {
		if !l.Allow("embed") {
			t.Errorf("Expected request %d within the overridden burst to be allowed", i+1)
		}
	}
	if l.Allow("embed") {
		t.Error("Expected the overridden burst to be exhausted")
	}
	if !l.Allow("search") {
		t.Error("Expected other services to keep the default burst")
	}
}

func TestLimiter_WaitHonorsCancelledContext(t *testing.T) {
	l := NewLimiter(0.001, 1)
	l.Allow("svc") // Exhaust the burst

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Wait(ctx, "svc"); err == nil {
		t.Error("Expected an error from a cancelled context")
	}
}
