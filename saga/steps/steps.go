// Package steps holds the enrollment saga steps. Every step reaches its collaborator through a narrow interface
// and its compensation undoes only what is recorded in the saga context.
package steps

import (
	"context"

	"github.com/go-foreman/enrollsaga/course"
	"github.com/go-foreman/enrollsaga/saga"
	"github.com/pkg/errors"
)

const (
	ValidateCourseStep       = "ValidateCourse"
	CreatePaymentStep        = "CreatePayment"
	CreateEnrollmentStep     = "CreateEnrollment"
	UpdateCourseCapacityStep = "UpdateCourseCapacity"

	// PriceKey holds the course price resolved by ValidateCourse
	PriceKey = "coursePrice"
	// CapacityUpdatedKey is set once UpdateCourseCapacity took a seat
	CapacityUpdatedKey = "capacityUpdated"
)

//go:generate mockgen --build_flags=--mod=mod -destination ../../testing/mocks/saga/steps/collaborators.go -package steps . CourseValidator,PaymentReserver,EnrollmentWriter,CapacityUpdater

type CourseValidator interface {
	ValidateCourse(ctx context.Context, courseID int64) (float64, error)
}

type PaymentReserver interface {
	ReservePayment(ctx context.Context, userID, courseID int64, amount float64) (string, error)
	RefundPayment(ctx context.Context, paymentID string) error
}

type EnrollmentWriter interface {
	CreateEnrollment(ctx context.Context, userID, courseID int64, paymentID string) (string, error)
	DeleteEnrollment(ctx context.Context, enrollmentID string) error
}

type CapacityUpdater interface {
	IncrementEnrolled(ctx context.Context, courseID int64) error
	DecrementEnrolled(ctx context.Context, courseID int64) error
}

// Pipeline returns the enrollment steps in execution order
func Pipeline(courses CourseValidator, payments PaymentReserver, enrollments EnrollmentWriter, capacity CapacityUpdater) []saga.Step {
	return []saga.Step{
		&ValidateCourse{courses: courses},
		&CreatePayment{payments: payments},
		&CreateEnrollment{enrollments: enrollments},
		&UpdateCourseCapacity{capacity: capacity},
	}
}

// classify marks known course errors as business rejections
func classify(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, course.ErrCourseNotFound) || errors.Is(err, course.ErrCourseInactive) || errors.Is(err, course.ErrCourseFull) {
		return saga.WithRejectionErr(err)
	}

	return err
}

type ValidateCourse struct {
	courses CourseValidator
}

func NewValidateCourse(courses CourseValidator) *ValidateCourse {
	return &ValidateCourse{courses: courses}
}

func (s *ValidateCourse) Name() string {
	return ValidateCourseStep
}

func (s *ValidateCourse) Execute(ctx context.Context, sagaCtx *saga.Context) error {
	price, err := s.courses.ValidateCourse(ctx, sagaCtx.CourseID)
	if err != nil {
		return classify(err)
	}

	sagaCtx.Set(PriceKey, price)

	return nil
}

// Compensate does nothing, validation is read only
func (s *ValidateCourse) Compensate(ctx context.Context, sagaCtx *saga.Context) error {
	return nil
}

type CreatePayment struct {
	payments PaymentReserver
}

func NewCreatePayment(payments PaymentReserver) *CreatePayment {
	return &CreatePayment{payments: payments}
}

func (s *CreatePayment) Name() string {
	return CreatePaymentStep
}

func (s *CreatePayment) Execute(ctx context.Context, sagaCtx *saga.Context) error {
	price, _ := sagaCtx.Value(PriceKey)
	amount, _ := price.(float64)

	paymentID, err := s.payments.ReservePayment(ctx, sagaCtx.UserID, sagaCtx.CourseID, amount)
	if err != nil {
		return err
	}

	sagaCtx.PaymentID = paymentID

	return nil
}

func (s *CreatePayment) Compensate(ctx context.Context, sagaCtx *saga.Context) error {
	if sagaCtx.PaymentID == "" {
		return nil
	}

	if err := s.payments.RefundPayment(ctx, sagaCtx.PaymentID); err != nil {
		return errors.Wrapf(err, "refunding payment %s", sagaCtx.PaymentID)
	}

	return nil
}

type CreateEnrollment struct {
	enrollments EnrollmentWriter
}

func NewCreateEnrollment(enrollments EnrollmentWriter) *CreateEnrollment {
	return &CreateEnrollment{enrollments: enrollments}
}

func (s *CreateEnrollment) Name() string {
	return CreateEnrollmentStep
}

func (s *CreateEnrollment) Execute(ctx context.Context, sagaCtx *saga.Context) error {
	enrollmentID, err := s.enrollments.CreateEnrollment(ctx, sagaCtx.UserID, sagaCtx.CourseID, sagaCtx.PaymentID)
	if err != nil {
		return classify(err)
	}

	sagaCtx.EnrollmentID = enrollmentID

	return nil
}

func (s *CreateEnrollment) Compensate(ctx context.Context, sagaCtx *saga.Context) error {
	if sagaCtx.EnrollmentID == "" {
		return nil
	}

	if err := s.enrollments.DeleteEnrollment(ctx, sagaCtx.EnrollmentID); err != nil {
		return errors.Wrapf(err, "deleting enrollment %s", sagaCtx.EnrollmentID)
	}

	return nil
}

type UpdateCourseCapacity struct {
	capacity CapacityUpdater
}

func NewUpdateCourseCapacity(capacity CapacityUpdater) *UpdateCourseCapacity {
	return &UpdateCourseCapacity{capacity: capacity}
}

func (s *UpdateCourseCapacity) Name() string {
	return UpdateCourseCapacityStep
}

func (s *UpdateCourseCapacity) Execute(ctx context.Context, sagaCtx *saga.Context) error {
	if err := s.capacity.IncrementEnrolled(ctx, sagaCtx.CourseID); err != nil {
		return classify(err)
	}

	sagaCtx.Set(CapacityUpdatedKey, true)

	return nil
}

func (s *UpdateCourseCapacity) Compensate(ctx context.Context, sagaCtx *saga.Context) error {
	if !sagaCtx.Flag(CapacityUpdatedKey) {
		return nil
	}

	if err := s.capacity.DecrementEnrolled(ctx, sagaCtx.CourseID); err != nil {
		return errors.Wrapf(err, "releasing seat in course %d", sagaCtx.CourseID)
	}

	sagaCtx.Set(CapacityUpdatedKey, false)

	return nil
}
