// Package statemachine drives a form through its request stages without any
// UI binding. A form has a primary machine (Idle -> Submitting -> Succeeded |
// Failed) and, for multi-stage forms, a secondary machine for the dependent
// stage that only unlocks once the primary machine has succeeded.
package statemachine

import (
	"errors"
	"fmt"
)

type State string

const (
	Idle       State = "idle"
	Submitting State = "submitting"
	Succeeded  State = "succeeded"
	Failed     State = "failed"

	Locked         State = "locked"
	ReadyToAdvance State = "ready_to_advance"
	Advancing      State = "advancing"
	Advanced       State = "advanced"
	AdvanceFailed  State = "advance_failed"
)

type EventType string

const (
	EventSubmit           EventType = "submit"
	EventValidationFailed EventType = "validation_failed"
	EventSucceeded        EventType = "succeeded"
	EventFailed           EventType = "failed"
	EventReset            EventType = "reset"

	EventAdvance          EventType = "advance"
	EventAdvanceSucceeded EventType = "advance_succeeded"
	EventAdvanceFailed    EventType = "advance_failed"
)

// View is the panel a client should show for the current state.
type View string

const (
	ViewInput    View = "input"
	ViewResults  View = "results"
	ViewRevision View = "revision"
)

var (
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrBusy is returned while a stage call is outstanding for the form.
	ErrBusy = errors.New("a request is already in progress")
	// ErrNotReady is returned when the dependent stage is requested before
	// the first stage has succeeded.
	ErrNotReady = errors.New("previous stage has not succeeded")
)

// Event is one message for the machine. Result and Err carry stage outcomes;
// Fields carries field-level validation messages.
type Event struct {
	Type   EventType
	Result any
	Err    error
	Fields map[string]string
}

type layer int

const (
	primaryLayer layer = iota
	secondaryLayer
)

type rule struct {
	from  State
	event EventType
	to    State
}

var primaryRules = []rule{
	{Idle, EventSubmit, Submitting},
	{Succeeded, EventSubmit, Submitting},
	{Failed, EventSubmit, Submitting},

	{Idle, EventValidationFailed, Idle},
	{Succeeded, EventValidationFailed, Idle},
	{Failed, EventValidationFailed, Idle},

	{Submitting, EventSucceeded, Succeeded},
	{Submitting, EventFailed, Failed},

	{Idle, EventReset, Idle},
	{Succeeded, EventReset, Idle},
	{Failed, EventReset, Idle},
}

var secondaryRules = []rule{
	{ReadyToAdvance, EventAdvance, Advancing},
	{Advanced, EventAdvance, Advancing},
	{AdvanceFailed, EventAdvance, Advancing},

	{Advancing, EventAdvanceSucceeded, Advanced},
	{Advancing, EventAdvanceFailed, AdvanceFailed},
}

type transitionTable map[State]map[EventType]State

func buildTable(rules []rule) transitionTable {
	t := transitionTable{}
	for _, r := range rules {
		if t[r.from] == nil {
			t[r.from] = map[EventType]State{}
		}
		t[r.from][r.event] = r.to
	}
	return t
}

var (
	primaryTable   = buildTable(primaryRules)
	secondaryTable = buildTable(secondaryRules)
)

func layerOf(ev EventType) (layer, bool) {
	switch ev {
	case EventSubmit, EventValidationFailed, EventSucceeded, EventFailed, EventReset:
		return primaryLayer, true
	case EventAdvance, EventAdvanceSucceeded, EventAdvanceFailed:
		return secondaryLayer, true
	}
	return 0, false
}

// Transition describes one applied event.
type Transition struct {
	Event     EventType
	From      State
	To        State
	Secondary bool
}

// Machine holds the state of one form. It is not safe for concurrent use;
// Controller serializes access.
type Machine struct {
	multiStage bool

	primary   State
	secondary State

	result         any
	advancedResult any
	err            string
	advanceErr     string
	fieldErrors    map[string]string

	queue     []Event
	draining  bool
	listeners []func(Transition)
}

// NewMachine returns a machine in Idle. multiStage enables the dependent stage.
func NewMachine(multiStage bool) *Machine {
	return &Machine{
		multiStage: multiStage,
		primary:    Idle,
		secondary:  Locked,
	}
}

// OnTransition registers a listener called after every applied event.
// Listeners may Dispatch; their events are queued behind the current one.
func (m *Machine) OnTransition(fn func(Transition)) {
	m.listeners = append(m.listeners, fn)
}

// Dispatch queues ev and drains the queue in FIFO order. It returns the
// error of the first rejected event.
func (m *Machine) Dispatch(ev Event) error {
	m.queue = append(m.queue, ev)
	if m.draining {
		return nil
	}

	m.draining = true
	defer func() { m.draining = false }()

	var firstErr error
	for len(m.queue) > 0 {
		next := m.queue[0]
		m.queue = m.queue[1:]
		if err := m.apply(next); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *Machine) apply(ev Event) error {
	l, ok := layerOf(ev.Type)
	if !ok {
		return fmt.Errorf("%w: unknown event %q", ErrInvalidTransition, ev.Type)
	}

	if l == primaryLayer {
		return m.applyPrimary(ev)
	}
	return m.applySecondary(ev)
}

func (m *Machine) applyPrimary(ev Event) error {
	if m.secondary == Advancing && ev.Type != EventSucceeded && ev.Type != EventFailed {
		return ErrBusy
	}

	to, ok := primaryTable[m.primary][ev.Type]
	if !ok {
		if m.primary == Submitting {
			return ErrBusy
		}
		return fmt.Errorf("%w: %s on %s", ErrInvalidTransition, ev.Type, m.primary)
	}

	from := m.primary
	m.primary = to

	switch ev.Type {
	case EventSubmit, EventReset:
		m.clearPrimary()
		m.clearSecondary()
	case EventValidationFailed:
		m.clearPrimary()
		m.clearSecondary()
		m.fieldErrors = copyFields(ev.Fields)
	case EventSucceeded:
		m.result = ev.Result
		if m.multiStage {
			m.secondary = ReadyToAdvance
		}
	case EventFailed:
		m.err = errorMessage(ev.Err)
	}

	m.notify(Transition{Event: ev.Type, From: from, To: to})
	return nil
}

func (m *Machine) applySecondary(ev Event) error {
	to, ok := secondaryTable[m.secondary][ev.Type]
	if !ok {
		switch {
		case m.secondary == Advancing:
			return ErrBusy
		case m.secondary == Locked && ev.Type == EventAdvance:
			if m.primary == Submitting {
				return ErrBusy
			}
			return ErrNotReady
		}
		return fmt.Errorf("%w: %s on %s", ErrInvalidTransition, ev.Type, m.secondary)
	}

	from := m.secondary
	m.secondary = to

	switch ev.Type {
	case EventAdvance:
		m.clearSecondary()
		m.secondary = to
	case EventAdvanceSucceeded:
		m.advancedResult = ev.Result
	case EventAdvanceFailed:
		m.advanceErr = errorMessage(ev.Err)
	}

	m.notify(Transition{Event: ev.Type, From: from, To: to, Secondary: true})
	return nil
}

func (m *Machine) clearPrimary() {
	m.result = nil
	m.err = ""
	m.fieldErrors = nil
}

func (m *Machine) clearSecondary() {
	m.secondary = Locked
	m.advancedResult = nil
	m.advanceErr = ""
}

func (m *Machine) notify(t Transition) {
	for _, fn := range m.listeners {
		fn(t)
	}
}

func (m *Machine) State() State        { return m.primary }
func (m *Machine) AdvanceState() State { return m.secondary }
func (m *Machine) Result() any         { return m.result }
func (m *Machine) AdvancedResult() any { return m.advancedResult }
func (m *Machine) MultiStage() bool    { return m.multiStage }

// View derives the visible panel. A failed dependent stage keeps the first
// stage's results on screen.
func (m *Machine) View() View {
	switch {
	case m.primary != Succeeded:
		return ViewInput
	case m.secondary == Advanced:
		return ViewRevision
	default:
		return ViewResults
	}
}

func errorMessage(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

func copyFields(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
