package robolink

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestPollerRunsItemsInOrder(t *testing.T) {
	var mu sync.Mutex
	var order []string
	record := func(s string) {
		mu.Lock()
		order = append(order, s)
		mu.Unlock()
	}

	p := NewPoller()
	p.Interval = time.Millisecond
	p.Add(
		PollFunc(func(context.Context) error { record("a"); return nil }),
		PollFunc(func(context.Context) error { record("b"); return nil }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx)
	}()

	for {
		time.Sleep(2 * time.Millisecond)
		mu.Lock()
		n := len(order)
		mu.Unlock()
		if n >= 4 {
			break
		}
	}
	cancel()
	<-done

	for i := 0; i+1 < len(order); i += 2 {
		if order[i] != "a" || order[i+1] != "b" {
			t.Fatalf("order: got %v", order)
		}
	}
}

func TestPollerSurvivesFailingItem(t *testing.T) {
	polled := 0

	p := NewPoller()
	p.Interval = time.Millisecond
	p.Add(
		Named("flaky", PollFunc(func(context.Context) error { return errors.New("boom") })),
		PollFunc(func(context.Context) error { polled++; return nil }),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	p.Run(ctx)

	if polled == 0 {
		t.Error("healthy item starved by failing sibling")
	}
	if p.Errors() == 0 {
		t.Error("failing item not counted")
	}
}

func TestPollerErrorsReadableWhileRunning(t *testing.T) {
	p := NewPoller()
	p.Interval = time.Millisecond
	p.Add(PollFunc(func(context.Context) error { return errors.New("boom") }))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Run(ctx)
	}()

	for p.Errors() == 0 {
		time.Sleep(time.Millisecond)
	}
	cancel()
	<-done
}

func TestPollerWake(t *testing.T) {
	polled := make(chan struct{}, 1)

	p := NewPoller()
	p.Interval = time.Hour // Only Wake can trigger a round
	p.Add(PollFunc(func(context.Context) error {
		select {
		case polled <- struct{}{}:
		default:
		}
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	p.Wake()

	select {
	case <-polled:
	case <-time.After(time.Second):
		t.Fatal("Wake did not trigger a round")
	}
}

func TestRunnerAggregatesErrors(t *testing.T) {
	r := NewRunner()
	r.Go(
		RunFunc(func(context.Context) error { return errors.New("first") }),
		RunFunc(func(context.Context) error { return nil }),
		RunFunc(func(context.Context) error { return context.Canceled }),
	)

	err := r.Wait()
	if err == nil || err.Error() != "first" {
		t.Errorf("Wait: got %v, want first", err)
	}
}
