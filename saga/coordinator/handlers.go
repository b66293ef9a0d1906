package coordinator

import (
	"github.com/go-foreman/enrollsaga/saga"
)

// payloadHandler copies what an event carries into the projection, the status is changed by the caller
type payloadHandler func(instance *saga.Instance, ev *saga.SagaEvent)

var payloadHandlers = map[saga.EventType]payloadHandler{
	saga.EventSagaStarted: mergeIDs,
	saga.EventStepCompleted: func(instance *saga.Instance, ev *saga.SagaEvent) {
		mergeIDs(instance, ev)
		if ev.CurrentStep != "" {
			instance.AddCompletedStep(ev.CurrentStep)
		}
	},
	saga.EventStepFailed: func(instance *saga.Instance, ev *saga.SagaEvent) {
		mergeIDs(instance, ev)
		instance.FailedStep = ev.CurrentStep
		instance.ErrorMessage = ev.ErrorMessage
	},
	saga.EventSagaFailed: func(instance *saga.Instance, ev *saga.SagaEvent) {
		if instance.FailedStep == "" {
			instance.FailedStep = ev.CurrentStep
		}
		if ev.ErrorMessage != "" {
			instance.ErrorMessage = ev.ErrorMessage
		}
	},
	saga.EventCompensation: func(instance *saga.Instance, ev *saga.SagaEvent) {
		// a failed compensation keeps the step out of the compensated list
		if ev.ErrorMessage == "" && ev.CurrentStep != "" {
			instance.AddCompensatedStep(ev.CurrentStep)
		}
	},
	saga.EventSagaCompleted: mergeIDs,
}

func mergeIDs(instance *saga.Instance, ev *saga.SagaEvent) {
	if ev.PaymentID != "" {
		instance.PaymentID = ev.PaymentID
	}
	if ev.EnrollmentID != "" {
		instance.EnrollmentID = ev.EnrollmentID
	}
}
