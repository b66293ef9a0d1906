// Package contracts holds events exchanged by the payment and enrollment services.
// Every event is keyed by payment id so all events of one payment stay on one partition.
package contracts

import (
	"github.com/go-foreman/enrollsaga/pubsub/message"
	"github.com/go-foreman/enrollsaga/runtime/scheme"
	"github.com/google/uuid"
)

const (
	Group scheme.Group = "enrollment"

	PaymentCreatedTopic   = "payment-created"
	PaymentConfirmedTopic = "payment-confirmed"
	PaymentFailedTopic    = "payment-failed"
	EnrollmentResultTopic = "enrollment-result"
)

// Topics lists every topic of the cross-service saga
var Topics = []string{PaymentCreatedTopic, PaymentConfirmedTopic, PaymentFailedTopic, EnrollmentResultTopic}

type EnrollmentStatus string

const (
	EnrollmentSucceeded EnrollmentStatus = "SUCCESS"
	EnrollmentFailed    EnrollmentStatus = "FAILED"
)

type PaymentCreated struct {
	message.ObjectMeta
	EventID       string  `json:"eventId"`
	PaymentID     string  `json:"paymentId"`
	UserID        int64   `json:"userId"`
	CourseID      int64   `json:"courseId"`
	Type          string  `json:"type"`
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"paymentMethod"`
}

func (e *PaymentCreated) MessageKey() string {
	return e.PaymentID
}

type EnrollmentResult struct {
	message.ObjectMeta
	EventID      string           `json:"eventId"`
	PaymentID    string           `json:"paymentId"`
	UserID       int64            `json:"userId"`
	CourseID     int64            `json:"courseId"`
	EnrollmentID string           `json:"enrollmentId,omitempty"`
	Status       EnrollmentStatus `json:"status"`
	ErrorMessage string           `json:"errorMessage,omitempty"`
}

func (e *EnrollmentResult) MessageKey() string {
	return e.PaymentID
}

type PaymentConfirmed struct {
	message.ObjectMeta
	EventID   string `json:"eventId"`
	PaymentID string `json:"paymentId"`
	UserID    int64  `json:"userId"`
	CourseID  int64  `json:"courseId"`
}

func (e *PaymentConfirmed) MessageKey() string {
	return e.PaymentID
}

type PaymentFailed struct {
	message.ObjectMeta
	EventID   string `json:"eventId"`
	PaymentID string `json:"paymentId"`
	UserID    int64  `json:"userId"`
	Reason    string `json:"reason"`
}

func (e *PaymentFailed) MessageKey() string {
	return e.PaymentID
}

func RegisterTypes(registry scheme.KnownTypesRegistry) {
	registry.AddKnownTypes(Group,
		&PaymentCreated{},
		&EnrollmentResult{},
		&PaymentConfirmed{},
		&PaymentFailed{},
	)
}

var eventNamespace = uuid.MustParse("6f1c1a5e-3a4e-4bb5-9b5e-2f0b7c9d8e11")

// DerivedEventID returns the same id for the same cause and kind, so an event re-emitted after a retry is deduplicated downstream
func DerivedEventID(causeEventID, kind string) string {
	return uuid.NewSHA1(eventNamespace, []byte(causeEventID+"/"+kind)).String()
}
