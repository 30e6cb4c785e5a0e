package application

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePendingProcessor struct {
	runs    int64
	started chan struct{}
	gate    chan struct{}
	err     error
}

func newFakePendingProcessor() *fakePendingProcessor {
	return &fakePendingProcessor{started: make(chan struct{}, 16)}
}

func (f *fakePendingProcessor) ProcessPending(ctx context.Context) (RunSummary, error) {
	atomic.AddInt64(&f.runs, 1)
	select {
	case f.started <- struct{}{}:
	default:
	}
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return RunSummary{Interrupted: true}, ctx.Err()
		}
	}
	return RunSummary{}, f.err
}

func (f *fakePendingProcessor) Runs() int64 {
	return atomic.LoadInt64(&f.runs)
}

func TestRunner_TriggerStartsRun(t *testing.T) {
	proc := newFakePendingProcessor()
	runner := NewRunner(proc, 0, zap.NewNop())
	runner.Start(context.Background())
	defer runner.Stop()

	assert.True(t, runner.Trigger())
	require.Eventually(t, func() bool { return proc.Runs() == 1 }, time.Second, 5*time.Millisecond)
}

func TestRunner_TriggersCoalesceWhileRunning(t *testing.T) {
	proc := newFakePendingProcessor()
	proc.gate = make(chan struct{})
	runner := NewRunner(proc, 0, zap.NewNop())
	runner.Start(context.Background())
	defer runner.Stop()

	require.True(t, runner.Trigger())
	<-proc.started

	// Con una ejecución en curso solo cabe un disparo pendiente.
	assert.True(t, runner.Trigger())
	assert.False(t, runner.Trigger())
	assert.False(t, runner.Trigger())

	close(proc.gate)
	require.Eventually(t, func() bool { return proc.Runs() == 2 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int64(2), proc.Runs())
}

func TestRunner_StopWaitsForRunningProcess(t *testing.T) {
	proc := newFakePendingProcessor()
	proc.gate = make(chan struct{})
	runner := NewRunner(proc, 0, zap.NewNop())
	runner.Start(context.Background())

	runner.Trigger()
	<-proc.started

	stopped := make(chan struct{})
	go func() {
		runner.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after cancelling the run")
	}

	// Stop es idempotente y no falla sin Start.
	runner.Stop()
	NewRunner(proc, 0, zap.NewNop()).Stop()
}

func TestRunner_PollingInterval(t *testing.T) {
	proc := newFakePendingProcessor()
	runner := NewRunner(proc, 10*time.Millisecond, zap.NewNop())
	runner.Start(context.Background())
	defer runner.Stop()

	require.Eventually(t, func() bool { return proc.Runs() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestRunner_SurvivesFailedRuns(t *testing.T) {
	proc := newFakePendingProcessor()
	proc.err = errors.New("store unavailable")
	runner := NewRunner(proc, 0, zap.NewNop())
	runner.Start(context.Background())
	defer runner.Stop()

	runner.Trigger()
	require.Eventually(t, func() bool { return proc.Runs() == 1 }, time.Second, 5*time.Millisecond)
	runner.Trigger()
	require.Eventually(t, func() bool { return proc.Runs() == 2 }, time.Second, 5*time.Millisecond)
}

func TestRunner_StartIsIdempotent(t *testing.T) {
	proc := newFakePendingProcessor()
	runner := NewRunner(proc, 0, zap.NewNop())
	runner.Start(context.Background())
	runner.Start(context.Background())
	defer runner.Stop()

	runner.Trigger()
	require.Eventually(t, func() bool { return proc.Runs() == 1 }, time.Second, 5*time.Millisecond)
}
