package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"alfredoptarigan/resume-studio/internal/statemachine"
)

var (
	ErrWorkerStopped = errors.New("worker stopped")
	ErrQueueFull     = errors.New("worker queue is full")
)

// Task is a started stage waiting for its remote call.
type Task struct {
	SessionID uuid.UUID
	Stage     string
	Pending   *statemachine.Pending
}

type Worker interface {
	Start(ctx context.Context)
	Stop()
	Enqueue(task Task) error
}

type worker struct {
	sessions      *SessionManager
	sessionTTL    time.Duration
	sweepInterval time.Duration
	jobQueue      chan Task
	concurrency   int
	wg            sync.WaitGroup
	stopChan      chan struct{}
	stopOnce      sync.Once

	// mu orders Enqueue against Stop: once stopped is set no task can
	// reach the queue, and every task already sent is drained
	mu      sync.RWMutex
	stopped bool
}

// NewWorker runs stages on concurrency goroutines. When sessions is set it
// also sweeps stored sessions older than sessionTTL.
func NewWorker(sessions *SessionManager, sessionTTL time.Duration, concurrency int) Worker {
	return &worker{
		sessions:      sessions,
		sessionTTL:    sessionTTL,
		sweepInterval: 10 * time.Minute,
		jobQueue:      make(chan Task, 100),
		concurrency:   concurrency,
		stopChan:      make(chan struct{}),
	}
}

// Start implements Worker.
func (w *worker) Start(ctx context.Context) {
	log.Printf("🚀 Starting worker with %d concurrent workers\n", w.concurrency)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.processTasks(ctx, i+1)
	}

	if w.sessions != nil {
		w.wg.Add(1)
		go w.sweepSessions()
	}

	log.Println("✅ Worker started successfully")
}

// Stop implements Worker. Queued tasks that have not started are run before
// the workers exit so no session is left in flight.
func (w *worker) Stop() {
	w.stopOnce.Do(func() {
		log.Println("🛑 Stopping worker...")
		w.mu.Lock()
		w.stopped = true
		w.mu.Unlock()
		close(w.stopChan)
		w.wg.Wait()
		log.Println("✅ Worker stopped")
	})
}

// Enqueue implements Worker. It never blocks: a full queue returns
// ErrQueueFull and the caller runs the stage itself.
func (w *worker) Enqueue(task Task) error {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.stopped {
		log.Printf("⚠️  Worker stopped, cannot enqueue %s for session %s\n", task.Stage, task.SessionID)
		return ErrWorkerStopped
	}

	select {
	case w.jobQueue <- task:
		log.Printf("📥 %s for session %s enqueued\n", task.Stage, task.SessionID)
		return nil
	default:
		log.Printf("⚠️  Queue full, cannot enqueue %s for session %s\n", task.Stage, task.SessionID)
		return ErrQueueFull
	}
}

func (w *worker) processTasks(ctx context.Context, workerID int) {
	defer w.wg.Done()
	log.Printf("👷 Worker #%d started processing tasks\n", workerID)

	for {
		select {
		case <-w.stopChan:
			w.drain(ctx, workerID)
			log.Printf("👷 Worker #%d stopped\n", workerID)
			return
		case task := <-w.jobQueue:
			w.run(ctx, workerID, task)
		}
	}
}

func (w *worker) drain(ctx context.Context, workerID int) {
	for {
		select {
		case task := <-w.jobQueue:
			w.run(ctx, workerID, task)
		default:
			return
		}
	}
}

func (w *worker) run(ctx context.Context, workerID int, task Task) {
	log.Printf("👷 Worker #%d running %s for session %s\n", workerID, task.Stage, task.SessionID)
	taskCtx := WithSessionID(context.WithoutCancel(ctx), task.SessionID.String())
	if err := task.Pending.Run(taskCtx); err != nil {
		log.Printf("❌ Worker #%d: %s failed for session %s: %v\n", workerID, task.Stage, task.SessionID, err)
		return
	}
	log.Printf("✅ Worker #%d completed %s for session %s\n", workerID, task.Stage, task.SessionID)
}

func (w *worker) sweepSessions() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			n, err := w.sessions.PurgeStored(w.sessionTTL)
			if err != nil {
				log.Printf("⚠️  Failed to purge stored sessions: %v\n", err)
				continue
			}
			if n > 0 {
				log.Printf("🧹 Purged %d stored sessions\n", n)
			}
		}
	}
}
