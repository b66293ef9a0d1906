package saga

import (
	"time"

	"github.com/go-foreman/enrollsaga/pubsub/message"
	"github.com/go-foreman/enrollsaga/runtime/scheme"
)

const (
	// SchemeGroup is the group saga contracts are registered with
	SchemeGroup scheme.Group = "saga"
	// EventsTopic is where the orchestrator publishes lifecycle events
	EventsTopic = "saga-events"
)

type EventType string

const (
	EventSagaStarted           EventType = "SAGA_STARTED"
	EventStepCompleted         EventType = "STEP_COMPLETED"
	EventStepFailed            EventType = "STEP_FAILED"
	EventCompensationStarted   EventType = "COMPENSATION_STARTED"
	EventCompensationCompleted EventType = "COMPENSATION_COMPLETED"
	EventSagaCompleted         EventType = "SAGA_COMPLETED"
	EventSagaFailed            EventType = "SAGA_FAILED"
	EventCompensation          EventType = "COMPENSATION"
)

// SagaEvent is an immutable fact about one transition of a saga.
// SequenceNumber starts at 1 and grows by one for every event of the same saga.
type SagaEvent struct {
	message.ObjectMeta
	EventID        string    `json:"eventId"`
	OccurredAt     time.Time `json:"occurredAt"`
	SequenceNumber uint64    `json:"sequenceNumber"`
	SagaID         string    `json:"sagaId"`
	EventType      EventType `json:"eventType"`
	CurrentStep    string    `json:"currentStep,omitempty"`
	UserID         int64     `json:"userId"`
	CourseID       int64     `json:"courseId"`
	PaymentID      string    `json:"paymentId,omitempty"`
	EnrollmentID   string    `json:"enrollmentId,omitempty"`
	ErrorMessage   string    `json:"errorMessage,omitempty"`
}

// MessageKey keeps all events of one saga on the same partition
func (e *SagaEvent) MessageKey() string {
	return e.SagaID
}

// RegisterTypes adds saga contracts to the registry so they can be decoded from the bus
func RegisterTypes(registry scheme.KnownTypesRegistry) {
	registry.AddKnownTypes(SchemeGroup, &SagaEvent{})
}
