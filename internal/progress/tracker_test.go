package progress

import (
	"errors"
	"sync"
	"testing"
)

type recorder struct {
	values []int
}

func (r *recorder) Reset()        { r.values = append(r.values, Idle) }
func (r *recorder) Set(value int) { r.values = append(r.values, value) }

// TestTrackerLifecycle verifies idle default, set and reset.
func TestTrackerLifecycle(t *testing.T) {
	tr := NewTracker()
	if got := tr.Get(); got != Idle {
		t.Fatalf("new tracker = %d, want 0", got)
	}

	tr.Set(Downloading)
	if got := tr.Get(); got != Downloading {
		t.Fatalf("Get() = %d, want %d", got, Downloading)
	}

	tr.Reset()
	if got := tr.Get(); got != Idle {
		t.Fatalf("after reset = %d, want 0", got)
	}
}

// TestTrackerConcurrentReads checks reads are safe while a writer runs.
func TestTrackerConcurrentReads(t *testing.T) {
	tr := NewTracker()
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i <= 100; i++ {
			tr.Set(i)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			if v := tr.Get(); v < 0 || v > 100 {
				t.Errorf("read out of range: %d", v)
			}
		}
	}()
	wg.Wait()
}

// TestMultiFansOut verifies every reporter sees every update in order.
func TestMultiFansOut(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	r := Multi(a, nil, b)

	r.Reset()
	r.Set(Resolving)
	r.Set(Done)

	want := []int{Idle, Resolving, Done}
	for _, rec := range []*recorder{a, b} {
		if len(rec.values) != len(want) {
			t.Fatalf("values = %v, want %v", rec.values, want)
		}
		for i := range want {
			if rec.values[i] != want[i] {
				t.Fatalf("values = %v, want %v", rec.values, want)
			}
		}
	}
}

// TestRegistryPerJob verifies jobs are isolated and cleared on finish.
func TestRegistryPerJob(t *testing.T) {
	reg := NewRegistry()
	one, err := reg.Start("one")
	if err != nil {
		t.Fatalf("start one: %v", err)
	}
	two, err := reg.Start("two")
	if err != nil {
		t.Fatalf("start two: %v", err)
	}

	one.Set(Resolving)
	two.Set(Transcribing)
	if reg.Get("one") != Resolving || reg.Get("two") != Transcribing {
		t.Fatalf("got one=%d two=%d", reg.Get("one"), reg.Get("two"))
	}

	if _, err := reg.Start("one"); !errors.Is(err, ErrJobExists) {
		t.Fatalf("duplicate start error = %v, want %v", err, ErrJobExists)
	}

	reg.Finish("one")
	if reg.Get("one") != Idle {
		t.Fatalf("finished job should read idle, got %d", reg.Get("one"))
	}
	if reg.Active() != 1 {
		t.Fatalf("Active() = %d, want 1", reg.Active())
	}
	if reg.Get("missing") != Idle {
		t.Fatal("unknown job should read idle")
	}
}
