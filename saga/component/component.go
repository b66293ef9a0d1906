// Package component plugs the saga engine and the enrollment services into the message bus.
package component

import (
	"github.com/go-foreman/enrollsaga"
	"github.com/go-foreman/enrollsaga/contracts"
	"github.com/go-foreman/enrollsaga/enrollment"
	"github.com/go-foreman/enrollsaga/payment"
	"github.com/go-foreman/enrollsaga/saga"
	"github.com/go-foreman/enrollsaga/saga/coordinator"
)

const (
	CoordinatorQueue = "saga-coordinator"
	PaymentQueue     = "payment-service"
	EnrollmentQueue  = "enrollment-service"
)

// ComponentFunc adapts a function to enrollsaga.Component
type ComponentFunc func(b *enrollsaga.MessageBus) error

func (f ComponentFunc) Init(b *enrollsaga.MessageBus) error {
	return f(b)
}

// SagaEvents registers saga events and routes them to the events topic. The orchestrator's publisher needs it.
func SagaEvents() enrollsaga.Component {
	return ComponentFunc(func(b *enrollsaga.MessageBus) error {
		saga.RegisterTypes(b.SchemeRegistry())
		b.RouteToTopic(saga.EventsTopic, &saga.SagaEvent{})
		return nil
	})
}

// Coordinator consumes saga events into the coordinator's projection
func Coordinator(c *coordinator.Coordinator) enrollsaga.Component {
	return ComponentFunc(func(b *enrollsaga.MessageBus) error {
		saga.RegisterTypes(b.SchemeRegistry())
		b.ConsumeTopics(CoordinatorQueue, saga.EventsTopic)
		b.Dispatcher().Subscribe(&saga.SagaEvent{}, c.Handle)
		return nil
	})
}

// Payment routes payment events out and feeds enrollment results to the payment service
func Payment(svc *payment.Service) enrollsaga.Component {
	return ComponentFunc(func(b *enrollsaga.MessageBus) error {
		contracts.RegisterTypes(b.SchemeRegistry())
		b.RouteToTopic(contracts.PaymentCreatedTopic, &contracts.PaymentCreated{})
		b.RouteToTopic(contracts.PaymentConfirmedTopic, &contracts.PaymentConfirmed{})
		b.RouteToTopic(contracts.PaymentFailedTopic, &contracts.PaymentFailed{})
		b.ConsumeTopics(PaymentQueue, contracts.EnrollmentResultTopic)
		b.Dispatcher().Subscribe(&contracts.EnrollmentResult{}, svc.EnrollmentResultExecutor)
		return nil
	})
}

// Enrollment routes enrollment results out and feeds created payments to the enrollment service
func Enrollment(svc *enrollment.Service) enrollsaga.Component {
	return ComponentFunc(func(b *enrollsaga.MessageBus) error {
		contracts.RegisterTypes(b.SchemeRegistry())
		b.RouteToTopic(contracts.EnrollmentResultTopic, &contracts.EnrollmentResult{})
		b.ConsumeTopics(EnrollmentQueue, contracts.PaymentCreatedTopic)
		b.Dispatcher().Subscribe(&contracts.PaymentCreated{}, svc.PaymentCreatedExecutor)
		return nil
	})
}
