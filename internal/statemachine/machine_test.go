package statemachine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachinePrimaryHappyPath(t *testing.T) {
	m := NewMachine(false)
	assert.Equal(t, Idle, m.State())
	assert.Equal(t, ViewInput, m.View())

	require.NoError(t, m.Dispatch(Event{Type: EventSubmit}))
	assert.Equal(t, Submitting, m.State())
	assert.Equal(t, ViewInput, m.View())

	require.NoError(t, m.Dispatch(Event{Type: EventSucceeded, Result: "ok"}))
	assert.Equal(t, Succeeded, m.State())
	assert.Equal(t, "ok", m.Result())
	assert.Equal(t, ViewResults, m.View())
	assert.Equal(t, Locked, m.AdvanceState(), "single stage forms never unlock")
}

func TestMachineFailureKeepsInputView(t *testing.T) {
	m := NewMachine(false)
	require.NoError(t, m.Dispatch(Event{Type: EventSubmit}))
	require.NoError(t, m.Dispatch(Event{Type: EventFailed, Err: errors.New("quota exceeded")}))

	assert.Equal(t, Failed, m.State())
	assert.Equal(t, ViewInput, m.View())
	assert.Equal(t, "quota exceeded", m.err)
	assert.Nil(t, m.Result())
}

func TestMachineRejectsDuplicateSubmit(t *testing.T) {
	m := NewMachine(true)
	require.NoError(t, m.Dispatch(Event{Type: EventSubmit}))

	assert.ErrorIs(t, m.Dispatch(Event{Type: EventSubmit}), ErrBusy)
	assert.ErrorIs(t, m.Dispatch(Event{Type: EventValidationFailed}), ErrBusy)
	assert.ErrorIs(t, m.Dispatch(Event{Type: EventAdvance}), ErrBusy)
}

func TestMachineValidationFailureStaysIdle(t *testing.T) {
	m := NewMachine(false)
	require.NoError(t, m.Dispatch(Event{Type: EventValidationFailed, Fields: map[string]string{"url": "bad"}}))

	assert.Equal(t, Idle, m.State())
	assert.Equal(t, map[string]string{"url": "bad"}, m.fieldErrors)

	require.NoError(t, m.Dispatch(Event{Type: EventSubmit}))
	assert.Nil(t, m.fieldErrors, "a new submission clears field errors")
}

func TestMachineAdvanceGatedOnSuccess(t *testing.T) {
	m := NewMachine(true)
	assert.ErrorIs(t, m.Dispatch(Event{Type: EventAdvance}), ErrNotReady)

	require.NoError(t, m.Dispatch(Event{Type: EventSubmit}))
	require.NoError(t, m.Dispatch(Event{Type: EventFailed, Err: errors.New("boom")}))
	assert.ErrorIs(t, m.Dispatch(Event{Type: EventAdvance}), ErrNotReady)

	require.NoError(t, m.Dispatch(Event{Type: EventSubmit}))
	require.NoError(t, m.Dispatch(Event{Type: EventSucceeded, Result: "analysis"}))
	assert.Equal(t, ReadyToAdvance, m.AdvanceState())

	require.NoError(t, m.Dispatch(Event{Type: EventAdvance}))
	assert.Equal(t, Advancing, m.AdvanceState())
	assert.ErrorIs(t, m.Dispatch(Event{Type: EventSubmit}), ErrBusy, "resubmitting while the dependent stage runs is refused")

	require.NoError(t, m.Dispatch(Event{Type: EventAdvanceSucceeded, Result: "revision"}))
	assert.Equal(t, Advanced, m.AdvanceState())
	assert.Equal(t, ViewRevision, m.View())
	assert.Equal(t, "revision", m.AdvancedResult())
}

func TestMachineAdvanceFailureIsStageLocal(t *testing.T) {
	m := NewMachine(true)
	require.NoError(t, m.Dispatch(Event{Type: EventSubmit}))
	require.NoError(t, m.Dispatch(Event{Type: EventSucceeded, Result: "analysis"}))
	require.NoError(t, m.Dispatch(Event{Type: EventAdvance}))
	require.NoError(t, m.Dispatch(Event{Type: EventAdvanceFailed, Err: errors.New("model refused")}))

	assert.Equal(t, Succeeded, m.State())
	assert.Equal(t, AdvanceFailed, m.AdvanceState())
	assert.Equal(t, "analysis", m.Result())
	assert.Equal(t, ViewResults, m.View())
	assert.Equal(t, "model refused", m.advanceErr)

	// retry of the dependent stage is allowed
	require.NoError(t, m.Dispatch(Event{Type: EventAdvance}))
	assert.Empty(t, m.advanceErr)
}

func TestMachineResubmitClearsDownstream(t *testing.T) {
	m := NewMachine(true)
	require.NoError(t, m.Dispatch(Event{Type: EventSubmit}))
	require.NoError(t, m.Dispatch(Event{Type: EventSucceeded, Result: "first"}))
	require.NoError(t, m.Dispatch(Event{Type: EventAdvance}))
	require.NoError(t, m.Dispatch(Event{Type: EventAdvanceSucceeded, Result: "revision"}))

	require.NoError(t, m.Dispatch(Event{Type: EventSubmit}))
	assert.Nil(t, m.Result())
	assert.Nil(t, m.AdvancedResult())
	assert.Equal(t, Locked, m.AdvanceState())
}

func TestMachineUnexpectedCompletionIsRejected(t *testing.T) {
	m := NewMachine(true)
	err := m.Dispatch(Event{Type: EventSucceeded})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	err = m.Dispatch(Event{Type: EventAdvanceSucceeded})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	err = m.Dispatch(Event{Type: "teleport"})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestMachineQueuesEventsFromListeners(t *testing.T) {
	m := NewMachine(false)
	var seen []EventType
	m.OnTransition(func(tr Transition) {
		seen = append(seen, tr.Event)
		if tr.Event == EventSubmit {
			// queued behind the current event, not applied re-entrantly
			assert.NoError(t, m.Dispatch(Event{Type: EventSucceeded, Result: 42}))
			assert.Equal(t, Submitting, m.State())
		}
	})

	require.NoError(t, m.Dispatch(Event{Type: EventSubmit}))
	assert.Equal(t, []EventType{EventSubmit, EventSucceeded}, seen)
	assert.Equal(t, Succeeded, m.State())
	assert.Equal(t, 42, m.Result())
}

func TestTransitionTablesOnlyReferenceKnownEvents(t *testing.T) {
	for _, r := range append(append([]rule{}, primaryRules...), secondaryRules...) {
		_, ok := layerOf(r.event)
		assert.True(t, ok, "rule %v uses unknown event", r)
	}
}
