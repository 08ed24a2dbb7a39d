package statemachine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// StageFunc performs the remote call of a first stage.
type StageFunc func(ctx context.Context) (any, error)

// AdvanceFunc performs the dependent stage given the first stage's result.
type AdvanceFunc func(ctx context.Context, prior any) (any, error)

// Snapshot is the externally visible state of a form.
type Snapshot struct {
	State          State             `json:"state"`
	AdvanceState   State             `json:"advance_state,omitempty"`
	View           View              `json:"view"`
	Result         any               `json:"result,omitempty"`
	AdvancedResult any               `json:"advanced_result,omitempty"`
	Error          string            `json:"error,omitempty"`
	AdvanceError   string            `json:"advance_error,omitempty"`
	FieldErrors    map[string]string `json:"field_errors,omitempty"`
	UpdatedAt      time.Time         `json:"updated_at"`
	// Version increases with every accepted event.
	Version uint64 `json:"version"`
}

// InFlight reports whether a stage call is outstanding.
func (s Snapshot) InFlight() bool {
	return s.State == Submitting || s.AdvanceState == Advancing
}

type fieldError interface {
	Fields() map[string]string
}

// Controller serializes access to a Machine. Submit and Advance perform the
// guarding transition synchronously and hand back a Pending that runs the
// remote call; the in-flight state rejects duplicate submissions.
type Controller struct {
	mu        sync.Mutex
	m         *Machine
	updatedAt time.Time
	version   uint64
	onChange  []func(Snapshot)
}

func NewController(multiStage bool) *Controller {
	return &Controller{m: NewMachine(multiStage), updatedAt: time.Now()}
}

// OnChange registers a listener invoked with a fresh snapshot after every
// accepted event. Listeners run outside the controller lock.
func (c *Controller) OnChange(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = append(c.onChange, fn)
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	s := Snapshot{
		State:          c.m.primary,
		View:           c.m.View(),
		Result:         c.m.result,
		AdvancedResult: c.m.advancedResult,
		Error:          c.m.err,
		AdvanceError:   c.m.advanceErr,
		FieldErrors:    copyFields(c.m.fieldErrors),
		UpdatedAt:      c.updatedAt,
		Version:        c.version,
	}
	if c.m.multiStage {
		s.AdvanceState = c.m.secondary
	}
	return s
}

// dispatch applies ev and notifies listeners when it was accepted.
func (c *Controller) dispatch(ev Event) error {
	return c.dispatchThen(ev, nil)
}

// dispatchThen runs then under the same lock once ev has been accepted.
func (c *Controller) dispatchThen(ev Event, then func(m *Machine)) error {
	c.mu.Lock()
	err := c.m.Dispatch(ev)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	if then != nil {
		then(c.m)
	}
	c.updatedAt = time.Now()
	c.version++
	snap := c.snapshotLocked()
	listeners := append([]func(Snapshot){}, c.onChange...)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
	return nil
}

// Submit validates the input and, when valid, moves the form to Submitting.
// A validation failure leaves the form in Idle with field errors attached and
// is returned to the caller; run is never invoked in that case.
func (c *Controller) Submit(validate func() error, run StageFunc) (*Pending, error) {
	if validate != nil {
		if verr := validate(); verr != nil {
			if err := c.dispatch(Event{Type: EventValidationFailed, Fields: fieldsOf(verr)}); err != nil {
				return nil, err
			}
			return nil, verr
		}
	}

	if err := c.dispatch(Event{Type: EventSubmit}); err != nil {
		return nil, err
	}

	return newPending(c, func(ctx context.Context) (any, error) { return run(ctx) }, EventSucceeded, EventFailed), nil
}

// Advance starts the dependent stage with the stored first-stage result.
func (c *Controller) Advance(run AdvanceFunc) (*Pending, error) {
	var prior any
	if err := c.dispatchThen(Event{Type: EventAdvance}, func(m *Machine) { prior = m.result }); err != nil {
		return nil, err
	}

	return newPending(c, func(ctx context.Context) (any, error) { return run(ctx, prior) }, EventAdvanceSucceeded, EventAdvanceFailed), nil
}

// Reset returns an idle form to its initial state.
func (c *Controller) Reset() error {
	return c.dispatch(Event{Type: EventReset})
}

func fieldsOf(err error) map[string]string {
	var fe fieldError
	if errors.As(err, &fe) {
		return fe.Fields()
	}
	return map[string]string{"request": err.Error()}
}

// Pending is a started stage whose remote call has not run yet.
type Pending struct {
	c       *Controller
	run     func(ctx context.Context) (any, error)
	success EventType
	failure EventType

	once sync.Once
	done chan struct{}
	err  error
}

func newPending(c *Controller, run func(ctx context.Context) (any, error), success, failure EventType) *Pending {
	return &Pending{c: c, run: run, success: success, failure: failure, done: make(chan struct{})}
}

// Run executes the stage once and records its outcome on the form. The
// returned error is the stage error; the form stays usable either way.
func (p *Pending) Run(ctx context.Context) error {
	p.once.Do(func() {
		defer close(p.done)

		result, err := p.call(ctx)
		if err != nil {
			p.err = err
			_ = p.c.dispatch(Event{Type: p.failure, Err: err})
			return
		}
		_ = p.c.dispatch(Event{Type: p.success, Result: result})
	})
	return p.err
}

func (p *Pending) call(ctx context.Context) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stage panicked: %v", r)
		}
	}()
	return p.run(ctx)
}

// Done is closed once Run has recorded the outcome.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Err is the stage error after Done is closed.
func (p *Pending) Err() error {
	<-p.done
	return p.err
}
