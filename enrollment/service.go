// Package enrollment persists enrollments and reacts to created payments.
package enrollment

import (
	"context"
	"time"

	"github.com/go-foreman/enrollsaga/contracts"
	"github.com/go-foreman/enrollsaga/course"
	"github.com/go-foreman/enrollsaga/idempotency"
	"github.com/go-foreman/enrollsaga/log"
	"github.com/go-foreman/enrollsaga/metrics"
	busErrs "github.com/go-foreman/enrollsaga/pubsub/errors"
	"github.com/go-foreman/enrollsaga/pubsub/message"
	"github.com/go-foreman/enrollsaga/pubsub/message/execution"
	"github.com/go-foreman/enrollsaga/saga/mutex"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/puzpuzpuz/xsync/v3"
)

const consumerName = "enrollment"

var ErrEnrollmentNotFound = errors.New("enrollment not found")

type Enrollment struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"userId"`
	CourseID  int64     `json:"courseId"`
	PaymentID string    `json:"paymentId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Capacity is the part of the course catalog enrollment depends on
type Capacity interface {
	EnsureSeat(ctx context.Context, courseID int64) error
	IncrementEnrolled(ctx context.Context, courseID int64) error
}

type Sender interface {
	Send(ctx context.Context, msg *message.OutcomingMessage) error
}

type Opt func(s *Service)

func WithIdempotencyStore(store idempotency.Store) Opt {
	return func(s *Service) {
		s.processed = store
	}
}

// WithMutex replaces the in-memory lock that serializes deliveries of one payment
func WithMutex(m mutex.Mutex) Opt {
	return func(s *Service) {
		s.mutex = m
	}
}

func WithMetrics(m *metrics.Metrics) Opt {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithClock(now func() time.Time) Opt {
	return func(s *Service) {
		s.now = now
	}
}

type Service struct {
	enrollments *xsync.MapOf[string, Enrollment]
	// byPayment makes creation an upsert keyed by payment id
	byPayment *xsync.MapOf[string, string]
	capacity  Capacity
	sender    Sender
	processed idempotency.Store
	mutex     mutex.Mutex
	logger    log.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewService(capacity Capacity, sender Sender, logger log.Logger, opts ...Opt) *Service {
	s := &Service{
		enrollments: xsync.NewMapOf[string, Enrollment](),
		byPayment:   xsync.NewMapOf[string, string](),
		capacity:    capacity,
		sender:      sender,
		processed:   idempotency.NewMemoryStore(),
		mutex:       mutex.NewMemoryMutex(),
		logger:      logger,
		now:         time.Now,
	}

	for _, o := range opts {
		o(s)
	}

	return s
}

func (s *Service) Get(ctx context.Context, enrollmentID string) (Enrollment, error) {
	e, ok := s.enrollments.Load(enrollmentID)
	if !ok {
		return Enrollment{}, errors.Wrapf(ErrEnrollmentNotFound, "enrollment %s", enrollmentID)
	}
	return e, nil
}

// Count returns how many enrollments exist, used by tests and the status endpoint
func (s *Service) Count() int {
	return s.enrollments.Size()
}

// CreateEnrollment checks that the course has a seat and persists an enrollment. A second call with
// the same payment returns the enrollment created by the first one.
func (s *Service) CreateEnrollment(ctx context.Context, userID, courseID int64, paymentID string) (string, error) {
	if paymentID != "" {
		if id, ok := s.byPayment.Load(paymentID); ok {
			return id, nil
		}
	}

	if err := s.capacity.EnsureSeat(ctx, courseID); err != nil {
		return "", err
	}

	e, _ := s.upsert(userID, courseID, paymentID)

	return e.ID, nil
}

// upsert creates an enrollment unless the payment already has one, created reports which case happened
func (s *Service) upsert(userID, courseID int64, paymentID string) (e Enrollment, created bool) {
	e = Enrollment{
		ID:        uuid.New().String(),
		UserID:    userID,
		CourseID:  courseID,
		PaymentID: paymentID,
		CreatedAt: s.now(),
	}

	if paymentID == "" {
		s.enrollments.Store(e.ID, e)
		return e, true
	}

	id, loaded := s.byPayment.LoadOrCompute(paymentID, func() string {
		s.enrollments.Store(e.ID, e)
		return e.ID
	})

	if loaded {
		existing, _ := s.enrollments.Load(id)
		return existing, false
	}

	return e, true
}

// DeleteEnrollment removes an enrollment, deleting an unknown one is a no-op
func (s *Service) DeleteEnrollment(ctx context.Context, enrollmentID string) error {
	e, loaded := s.enrollments.LoadAndDelete(enrollmentID)
	if !loaded {
		s.logger.Logf(log.DebugLevel, "nothing to delete for enrollment %s", enrollmentID)
		return nil
	}

	if e.PaymentID != "" {
		s.byPayment.Delete(e.PaymentID)
	}

	s.logger.Logf(log.InfoLevel, "enrollment %s deleted", enrollmentID)

	return nil
}

// HandlePaymentCreated enrolls the user of a created payment and publishes the result.
// A redelivered event produces neither a second enrollment nor a second result.
func (s *Service) HandlePaymentCreated(ctx context.Context, ev *contracts.PaymentCreated) error {
	unlock, err := s.lockPayment(ctx, ev.PaymentID)
	if err != nil {
		return err
	}
	defer unlock()

	_, err = idempotency.Guard(ctx, s.processed, s.metrics, consumerName, ev.EventID, func() error {
		result := &contracts.EnrollmentResult{
			EventID:   contracts.DerivedEventID(ev.EventID, "EnrollmentResult"),
			PaymentID: ev.PaymentID,
			UserID:    ev.UserID,
			CourseID:  ev.CourseID,
		}

		if id, ok := s.byPayment.Load(ev.PaymentID); ok {
			result.Status = contracts.EnrollmentSucceeded
			result.EnrollmentID = id
		} else if err := s.capacity.IncrementEnrolled(ctx, ev.CourseID); err != nil {
			if !isBusinessFailure(err) {
				return errors.Wrapf(err, "reserving seat in course %d", ev.CourseID)
			}

			s.logger.Logf(log.WarnLevel, "enrollment for payment %s failed. %s", ev.PaymentID, err)
			result.Status = contracts.EnrollmentFailed
			result.ErrorMessage = err.Error()
		} else {
			e, _ := s.upsert(ev.UserID, ev.CourseID, ev.PaymentID)
			result.Status = contracts.EnrollmentSucceeded
			result.EnrollmentID = e.ID
			s.logger.Logf(log.InfoLevel, "enrollment %s created for payment %s", e.ID, ev.PaymentID)
		}

		if err := s.sender.Send(ctx, message.NewOutcomingMessage(result, message.WithTraceID(ev.PaymentID))); err != nil {
			return errors.Wrapf(err, "publishing enrollment result for payment %s", ev.PaymentID)
		}

		return nil
	})

	return err
}

func isBusinessFailure(err error) bool {
	return errors.Is(err, course.ErrCourseFull) || errors.Is(err, course.ErrCourseNotFound) || errors.Is(err, course.ErrCourseInactive)
}

// PaymentCreatedExecutor adapts HandlePaymentCreated to the bus
func (s *Service) PaymentCreatedExecutor(execCtx execution.MessageExecutionCtx) error {
	ev, ok := execCtx.Message().Payload().(*contracts.PaymentCreated)
	if !ok {
		return busErrs.WithStatusErr(busErrs.NoRetry, errors.Errorf("enrollment service received %T instead of payment created", execCtx.Message().Payload()))
	}

	return s.HandlePaymentCreated(execCtx.Context(), ev)
}

// lockPayment serializes handling of one payment, concurrent redeliveries would otherwise both pass the processed check
func (s *Service) lockPayment(ctx context.Context, paymentID string) (func(), error) {
	lock, err := s.mutex.Lock(ctx, consumerName+"/"+paymentID)
	if err != nil {
		return nil, errors.Wrapf(err, "locking payment %s", paymentID)
	}

	return func() {
		if err := lock.Release(ctx); err != nil {
			s.logger.Logf(log.ErrorLevel, "releasing lock of payment %s. %s", paymentID, err)
		}
	}, nil
}
