// Package robolink ties servo buses and sensor streams into cooperative
// polling loops. The pmx package speaks the Kondo PMX servo protocol, the
// mip package parses MicroStrain sensor streams; this package runs both on
// a shared schedule.
package robolink

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
)

// Pollable is a unit of periodic work: a servo telemetry fetch, a sensor
// stream drain, a control step. Poll is called from a single goroutine.
type Pollable interface {
	Poll(ctx context.Context) error
}

// PollFunc adapts a function to the Pollable interface.
type PollFunc func(ctx context.Context) error

// Poll implements Pollable.
func (f PollFunc) Poll(ctx context.Context) error {
	return f(ctx)
}

type namedPollable struct {
	Pollable
	name string
}

// Named wraps a Pollable with a name used in diagnostics.
func Named(name string, p Pollable) Pollable {
	return &namedPollable{name: name, Pollable: p}
}

// Poller runs registered Pollables round-robin on a fixed interval. One
// failing Pollable does not stop the loop or the others; errors are logged
// and counted.
type Poller struct {
	// Interval between rounds. Default is 10ms.
	Interval time.Duration

	items  []Pollable
	wakeCh chan struct{}
	errors atomic.Uint64
}

// NewPoller creates a Poller with the default interval.
func NewPoller() *Poller {
	return &Poller{
		Interval: 10 * time.Millisecond,
		wakeCh:   make(chan struct{}, 1),
	}
}

// Add registers Pollables. Not safe to call while Run is active.
func (p *Poller) Add(items ...Pollable) *Poller {
	p.items = append(p.items, items...)
	return p
}

// Wake schedules an immediate round ahead of the next tick.
func (p *Poller) Wake() {
	select {
	case p.wakeCh <- struct{}{}:
	default:
	}
}

// Errors returns the number of failed polls so far. Safe to call from any
// goroutine.
func (p *Poller) Errors() uint64 {
	return p.errors.Load()
}

// Run drives the loop until the context is canceled.
func (p *Poller) Run(ctx context.Context) error {
	interval := p.Interval
	if interval == 0 {
		interval = 10 * time.Millisecond
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.runRound(ctx)
		case <-p.wakeCh:
			p.runRound(ctx)
		}
	}
}

func (p *Poller) runRound(ctx context.Context) {
	for _, item := range p.items {
		if ctx.Err() != nil {
			return
		}
		if err := item.Poll(ctx); err != nil {
			p.errors.Add(1)
			if named, ok := item.(*namedPollable); ok {
				glog.Warningf("poll %s: %v", named.name, err)
			} else {
				glog.Warningf("poll: %v", err)
			}
		}
	}
}
