package coordinator

import (
	"github.com/go-foreman/enrollsaga/saga"
	"github.com/pkg/errors"
)

// statusNone is the status of a saga the coordinator has not seen yet
const statusNone saga.Status = ""

type transition struct {
	from []saga.Status
	to   saga.Status
}

var nonTerminal = []saga.Status{saga.StatusStarted, saga.StatusInProgress, saga.StatusFailed, saga.StatusCompensating}

var transitions = map[saga.EventType]transition{
	saga.EventSagaStarted:           {from: []saga.Status{statusNone}, to: saga.StatusStarted},
	saga.EventStepCompleted:         {from: []saga.Status{saga.StatusStarted, saga.StatusInProgress}, to: saga.StatusInProgress},
	saga.EventSagaCompleted:         {from: []saga.Status{saga.StatusStarted, saga.StatusInProgress}, to: saga.StatusCompleted},
	saga.EventStepFailed:            {from: nonTerminal, to: saga.StatusFailed},
	saga.EventSagaFailed:            {from: []saga.Status{saga.StatusStarted, saga.StatusInProgress, saga.StatusFailed}, to: saga.StatusFailed},
	saga.EventCompensationStarted:   {from: []saga.Status{saga.StatusFailed}, to: saga.StatusCompensating},
	saga.EventCompensation:          {from: []saga.Status{saga.StatusCompensating}, to: saga.StatusCompensating},
	saga.EventCompensationCompleted: {from: []saga.Status{saga.StatusCompensating}, to: saga.StatusCompensated},
}

type InvalidTransitionErr struct {
	From  saga.Status
	Event saga.EventType
}

func (e InvalidTransitionErr) Error() string {
	from := string(e.From)
	if e.From == statusNone {
		from = "none"
	}
	return "event " + string(e.Event) + " is not allowed in status " + from
}

func IsInvalidTransition(err error) bool {
	var transitionErr InvalidTransitionErr
	return errors.As(err, &transitionErr)
}

// NextStatus returns the status a saga moves to when ev is applied in status current.
// Empty current means the saga has not been seen yet.
func NextStatus(current saga.Status, ev saga.EventType) (saga.Status, error) {
	t, exists := transitions[ev]
	if !exists {
		return current, errors.Errorf("unknown event type %q", ev)
	}

	for _, from := range t.from {
		if from == current {
			return t.to, nil
		}
	}

	return current, InvalidTransitionErr{From: current, Event: ev}
}
