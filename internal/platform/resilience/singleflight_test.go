package resilience

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSingleFlight_CollapsesConcurrentCalls(t *testing.T) {
	var g SingleFlight
	var executions atomic.Int32
	var shared atomic.Int32

	const workers = 24
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			v, err, wasShared := g.Do("espn:boxscores:3", func() (any, error) {
				executions.Add(1)
				time.Sleep(20 * time.Millisecond)
				return "payload", nil
			})
			if err != nil {
				t.Errorf("singleflight call failed: %v", err)
			}
			if got, _ := v.(string); got != "payload" {
				t.Errorf("unexpected value: %v", v)
			}
			if wasShared {
				shared.Add(1)
			}
		}()
	}

	close(start)
	wg.Wait()

	if got := executions.Load(); got != 1 {
		t.Fatalf("expected one execution, got %d", got)
	}
	if got := shared.Load(); got != workers-1 {
		t.Fatalf("expected %d shared results, got %d", workers-1, got)
	}
}

func TestSingleFlight_PropagatesError(t *testing.T) {
	var g SingleFlight
	wantErr := errors.New("upstream unavailable")

	_, err, _ := g.Do("espn:teams", func() (any, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected leader error to surface, got %v", err)
	}

	// A later call for the same key runs fresh.
	v, err, shared := g.Do("espn:teams", func() (any, error) {
		return 42, nil
	})
	if err != nil || shared {
		t.Fatalf("expected fresh execution after completed flight: %v %v", err, shared)
	}
	if v != 42 {
		t.Fatalf("unexpected value: %v", v)
	}
}
