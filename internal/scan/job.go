// Package scan acquires page images from an external scan device.
package scan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// DefaultTickInterval is how often a running job advances its progress.
	DefaultTickInterval = 100 * time.Millisecond

	// progressSteps is the number of ticks in one full progress cycle.
	progressSteps = 50
)

// ErrCancelled is the failure reported when the job's context ends first.
var ErrCancelled = errors.New("scan cancelled")

// Acquirer produces one scanned image.
type Acquirer interface {
	Acquire(ctx context.Context) ([]byte, error)
}

// AcquirerFunc adapts a function to Acquirer.
type AcquirerFunc func(ctx context.Context) ([]byte, error)

// Acquire calls f.
func (f AcquirerFunc) Acquire(ctx context.Context) ([]byte, error) { return f(ctx) }

// Event is the terminal outcome of a job. Err is nil on success.
type Event struct {
	Data []byte
	Err  error
}

// Succeeded reports whether the scan produced an image.
func (e Event) Succeeded() bool { return e.Err == nil }

// Job is one outstanding acquisition.
type Job struct {
	cancel context.CancelFunc
	events chan Event
	done   chan struct{}
	ticks  atomic.Int64
	once   sync.Once
	result Event
}

// Start runs acquirer in the background. The returned job delivers exactly
// one Event; a cancelled context or a device failure resolves to a failure.
func Start(ctx context.Context, acquirer Acquirer, interval time.Duration) *Job {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	ctx, cancel := context.WithCancel(ctx)
	job := &Job{
		cancel: cancel,
		events: make(chan Event, 1),
		done:   make(chan struct{}),
	}

	go job.tick(interval)
	go job.run(ctx, acquirer)
	return job
}

// run waits for the acquirer or the end of ctx, whichever comes first. A
// result arriving after cancellation is dropped.
func (j *Job) run(ctx context.Context, acquirer Acquirer) {
	results := make(chan Event, 1)
	go func() {
		data, err := acquire(ctx, acquirer)
		results <- Event{Data: data, Err: err}
	}()

	var ev Event
	select {
	case ev = <-results:
	case <-ctx.Done():
		j.finish(Event{Err: fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())})
		return
	}

	if ev.Err == nil && ctx.Err() != nil {
		ev.Err = ctx.Err()
	}
	if ev.Err != nil && ctx.Err() != nil {
		ev.Err = fmt.Errorf("%w: %v", ErrCancelled, ev.Err)
	}
	if ev.Err != nil {
		ev.Data = nil
	} else if len(ev.Data) == 0 {
		ev.Err = errors.New("scanner returned no image")
	}
	j.finish(ev)
}

func acquire(ctx context.Context, acquirer Acquirer) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scan acquirer panicked: %v", r)
		}
	}()
	return acquirer.Acquire(ctx)
}

func (j *Job) tick(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.ticks.Add(1)
		}
	}
}

func (j *Job) finish(ev Event) {
	j.once.Do(func() {
		j.result = ev
		close(j.done)
		j.events <- ev
		close(j.events)
		j.cancel()
	})
}

// Events yields the terminal event once and is then closed.
func (j *Job) Events() <-chan Event { return j.events }

// Done is closed when the job has finished.
func (j *Job) Done() <-chan struct{} { return j.done }

// Wait blocks until the job finishes and returns its event.
func (j *Job) Wait() Event {
	<-j.done
	return j.result
}

// Cancel ends the job with an ErrCancelled failure and asks the acquirer to
// stop. It does not wait for the acquirer to return.
func (j *Job) Cancel() { j.cancel() }

// Progress is a liveness indicator, not an estimate. While the job runs it
// advances by 0.02 per tick and wraps within [0,1). A finished job reports
// 1 on success and 0 on failure.
func (j *Job) Progress() float64 {
	select {
	case <-j.done:
		if j.result.Succeeded() {
			return 1
		}
		return 0
	default:
	}
	return progressAt(j.ticks.Load())
}

func progressAt(ticks int64) float64 {
	return float64(ticks%progressSteps) / progressSteps
}
