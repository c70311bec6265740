package scan

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blockingAcquirer(release <-chan struct{}, data []byte) Acquirer {
	return AcquirerFunc(func(ctx context.Context) ([]byte, error) {
		select {
		case <-release:
			return data, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
}

func collect(t *testing.T, job *Job) []Event {
	t.Helper()
	var events []Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-job.Events():
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatal("job did not finish")
		}
	}
}

func TestJobSuccess(t *testing.T) {
	job := Start(context.Background(), AcquirerFunc(func(context.Context) ([]byte, error) {
		return []byte("image"), nil
	}), time.Millisecond)

	events := collect(t, job)
	require.Len(t, events, 1)
	assert.True(t, events[0].Succeeded())
	assert.Equal(t, []byte("image"), events[0].Data)
	assert.Equal(t, events[0], job.Wait())
	assert.Equal(t, 1.0, job.Progress())
}

func TestJobDeviceFailure(t *testing.T) {
	boom := errors.New("device busy")
	job := Start(context.Background(), AcquirerFunc(func(context.Context) ([]byte, error) {
		return []byte("partial"), boom
	}), time.Millisecond)

	events := collect(t, job)
	require.Len(t, events, 1)
	assert.False(t, events[0].Succeeded())
	assert.ErrorIs(t, events[0].Err, boom)
	assert.Nil(t, events[0].Data)
	assert.Equal(t, 0.0, job.Progress())
}

func TestJobEmptyImageIsFailure(t *testing.T) {
	job := Start(context.Background(), AcquirerFunc(func(context.Context) ([]byte, error) {
		return nil, nil
	}), time.Millisecond)
	ev := job.Wait()
	assert.False(t, ev.Succeeded())
}

func TestJobCancelResolvesToFailure(t *testing.T) {
	job := Start(context.Background(), blockingAcquirer(make(chan struct{}), []byte("x")), time.Millisecond)
	job.Cancel()

	events := collect(t, job)
	require.Len(t, events, 1)
	assert.ErrorIs(t, events[0].Err, ErrCancelled)
}

func TestJobCancelDoesNotWaitForAcquirer(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	job := Start(context.Background(), AcquirerFunc(func(context.Context) ([]byte, error) {
		<-block
		return []byte("late"), nil
	}), time.Millisecond)
	job.Cancel()

	events := collect(t, job)
	require.Len(t, events, 1)
	assert.ErrorIs(t, events[0].Err, ErrCancelled)
	assert.Nil(t, events[0].Data)
	assert.Equal(t, 0.0, job.Progress())
}

func TestJobParentContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	job := Start(ctx, blockingAcquirer(make(chan struct{}), []byte("x")), time.Millisecond)
	cancel()

	ev := job.Wait()
	assert.ErrorIs(t, ev.Err, ErrCancelled)
	<-job.Events()
	_, open := <-job.Events()
	assert.False(t, open, "events should close after the terminal event")
}

func TestJobPanicIsFailure(t *testing.T) {
	job := Start(context.Background(), AcquirerFunc(func(context.Context) ([]byte, error) {
		panic("driver crashed")
	}), time.Millisecond)
	ev := job.Wait()
	require.Error(t, ev.Err)
	assert.Contains(t, ev.Err.Error(), "driver crashed")
}

func TestProgressAdvancesWhileRunning(t *testing.T) {
	release := make(chan struct{})
	job := Start(context.Background(), blockingAcquirer(release, []byte("x")), time.Millisecond)

	require.Eventually(t, func() bool {
		p := job.Progress()
		return p > 0 && p < 1
	}, 5*time.Second, time.Millisecond)

	close(release)
	assert.True(t, job.Wait().Succeeded())
}

func TestProgressWraps(t *testing.T) {
	assert.Equal(t, 0.0, progressAt(0))
	assert.InDelta(t, 0.02, progressAt(1), 1e-9)
	assert.InDelta(t, 0.98, progressAt(49), 1e-9)
	assert.Equal(t, 0.0, progressAt(50))
	assert.InDelta(t, 0.04, progressAt(102), 1e-9)
	for ticks := int64(0); ticks < 500; ticks++ {
		p := progressAt(ticks)
		require.GreaterOrEqual(t, p, 0.0)
		require.Less(t, p, 1.0)
	}
}
