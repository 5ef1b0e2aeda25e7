package resilience

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestSingleFlight_CollapsesConcurrentCalls(t *testing.T) {
	var flight SingleFlight
	var executions atomic.Int32

	release := make(chan struct{})
	var wg sync.WaitGroup
	results := make([]any, 8)

	for i := range results {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			val, err, _ := flight.Do("match-state:12345", func() (any, error) {
				executions.Add(1)
				<-release
				return "snapshot", nil
			})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			results[slot] = val
		}(i)
	}

	close(release)
	wg.Wait()

	if got := executions.Load(); got != 1 {
		t.Fatalf("expected one execution, got %d", got)
	}
	for i, val := range results {
		if val != "snapshot" {
			t.Fatalf("slot %d got %v", i, val)
		}
	}
}

func TestSingleFlight_DistinctKeysRunIndependently(t *testing.T) {
	var flight SingleFlight

	first, err, shared := flight.Do("a", func() (any, error) { return 1, nil })
	if err != nil || shared {
		t.Fatalf("unexpected result: %v %v %v", first, err, shared)
	}

	second, err, shared := flight.Do("b", func() (any, error) { return 2, nil })
	if err != nil || shared {
		t.Fatalf("unexpected result: %v %v %v", second, err, shared)
	}

	if first == second {
		t.Fatalf("expected distinct results, got %v and %v", first, second)
	}
}
