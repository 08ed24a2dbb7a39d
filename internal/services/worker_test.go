package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/resume-studio/internal/models"
	"alfredoptarigan/resume-studio/internal/statemachine"
)

func TestWorkerRunsQueuedStages(t *testing.T) {
	m := NewSessionManager(10, time.Hour, nil)
	w := NewWorker(nil, time.Hour, 2)
	w.Start(context.Background())
	defer w.Stop()

	var sawSession atomic.Value
	s := m.Create(models.FormDemo)
	pending, err := s.Controller.Submit(nil, func(ctx context.Context) (any, error) {
		sawSession.Store(sessionIDFrom(ctx))
		return "done", nil
	})
	require.NoError(t, err)

	require.NoError(t, w.Enqueue(Task{SessionID: s.ID, Stage: "demo", Pending: pending}))

	select {
	case <-pending.Done():
	case <-time.After(time.Second):
		t.Fatal("stage did not run")
	}
	assert.Equal(t, statemachine.Succeeded, s.Controller.Snapshot().State)
	assert.Equal(t, s.ID.String(), sawSession.Load())
}

func TestWorkerStopDrainsQueueAndRefusesNewTasks(t *testing.T) {
	m := NewSessionManager(10, time.Hour, nil)
	w := NewWorker(m, time.Hour, 1)

	// queued before the workers start, run on shutdown
	s := m.Create(models.FormDemo)
	pending, err := s.Controller.Submit(nil, func(ctx context.Context) (any, error) { return 1, nil })
	require.NoError(t, err)
	require.NoError(t, w.Enqueue(Task{SessionID: s.ID, Stage: "demo", Pending: pending}))

	w.Start(context.Background())
	w.Stop()
	w.Stop()

	<-pending.Done()
	assert.Equal(t, statemachine.Succeeded, s.Controller.Snapshot().State)

	other := m.Create(models.FormDemo)
	p2, err := other.Controller.Submit(nil, func(ctx context.Context) (any, error) { return 1, nil })
	require.NoError(t, err)
	assert.ErrorIs(t, w.Enqueue(Task{SessionID: other.ID, Stage: "demo", Pending: p2}), ErrWorkerStopped)
}

func TestWorkerRunsEveryTaskAcceptedDuringStop(t *testing.T) {
	m := NewSessionManager(100, time.Hour, nil)
	w := NewWorker(nil, time.Hour, 2)
	w.Start(context.Background())

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted []*statemachine.Pending
	)
	for i := 0; i < 50; i++ {
		s := m.Create(models.FormDemo)
		pending, err := s.Controller.Submit(nil, func(ctx context.Context) (any, error) { return 1, nil })
		require.NoError(t, err)

		wg.Add(1)
		go func() {
			defer wg.Done()
			if w.Enqueue(Task{SessionID: s.ID, Stage: "demo", Pending: pending}) == nil {
				mu.Lock()
				accepted = append(accepted, pending)
				mu.Unlock()
			}
		}()
	}
	w.Stop()
	wg.Wait()

	for _, p := range accepted {
		select {
		case <-p.Done():
		default:
			t.Fatal("accepted task was never run")
		}
	}
}

func TestWorkerEnqueueDoesNotBlockOnFullQueue(t *testing.T) {
	w := NewWorker(nil, time.Hour, 1)

	for i := 0; i < 100; i++ {
		require.NoError(t, w.Enqueue(Task{Stage: "demo"}))
	}
	assert.ErrorIs(t, w.Enqueue(Task{Stage: "demo"}), ErrQueueFull)
}
