// Package payment reserves payments for enrollments and resolves them from enrollment results.
package payment

import (
	"context"
	"time"

	"github.com/go-foreman/enrollsaga/contracts"
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

const (
	consumerName = "payment"

	typeCourseEnrollment = "COURSE_ENROLLMENT"
	methodSaga           = "SAGA"
)

var (
	ErrPaymentNotFound = errors.New("payment not found")
	ErrInvalidAmount   = errors.New("amount must be positive")
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusFailed    Status = "FAILED"
	StatusRefunded  Status = "REFUNDED"
)

type Payment struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"userId"`
	CourseID  int64     `json:"courseId"`
	Type      string    `json:"type"`
	Amount    float64   `json:"amount"`
	Method    string    `json:"paymentMethod"`
	Status    Status    `json:"status"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Request struct {
	UserID        int64   `json:"userId" binding:"required"`
	CourseID      int64   `json:"courseId" binding:"required"`
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"paymentMethod"`
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

// Service keeps payments in memory. It is the payment reserver of the orchestrated saga
// and the payment side of the event driven one.
type Service struct {
	payments  *xsync.MapOf[string, Payment]
	sender    Sender
	processed idempotency.Store
	mutex     mutex.Mutex
	logger    log.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewService(sender Sender, logger log.Logger, opts ...Opt) *Service {
	s := &Service{
		payments:  xsync.NewMapOf[string, Payment](),
		sender:    sender,
		processed: idempotency.NewMemoryStore(),
		mutex:     mutex.NewMemoryMutex(),
		logger:    logger,
		now:       time.Now,
	}

	for _, o := range opts {
		o(s)
	}

	return s
}

func (s *Service) Get(ctx context.Context, paymentID string) (Payment, error) {
	p, ok := s.payments.Load(paymentID)
	if !ok {
		return Payment{}, errors.Wrapf(ErrPaymentNotFound, "payment %s", paymentID)
	}
	return p, nil
}

func (s *Service) reserve(userID, courseID int64, amount float64, method string) (Payment, error) {
	if amount <= 0 {
		return Payment{}, errors.Wrapf(ErrInvalidAmount, "got %.2f", amount)
	}

	now := s.now()
	p := Payment{
		ID:        uuid.New().String(),
		UserID:    userID,
		CourseID:  courseID,
		Type:      typeCourseEnrollment,
		Amount:    amount,
		Method:    method,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.payments.Store(p.ID, p)

	return p, nil
}

// ReservePayment creates a PENDING payment for the orchestrated saga
func (s *Service) ReservePayment(ctx context.Context, userID, courseID int64, amount float64) (string, error) {
	p, err := s.reserve(userID, courseID, amount, methodSaga)
	if err != nil {
		return "", err
	}

	s.logger.Logf(log.InfoLevel, "reserved payment %s of %.2f for user %d and course %d", p.ID, amount, userID, courseID)

	return p.ID, nil
}

// RefundPayment rolls back a reservation. Refunding an unknown or already refunded payment is a no-op.
func (s *Service) RefundPayment(ctx context.Context, paymentID string) error {
	var refunded bool

	s.payments.Compute(paymentID, func(p Payment, loaded bool) (Payment, bool) {
		if !loaded {
			return p, true
		}

		if p.Status == StatusRefunded {
			return p, false
		}

		p.Status = StatusRefunded
		p.UpdatedAt = s.now()
		refunded = true

		return p, false
	})

	if refunded {
		s.logger.Logf(log.InfoLevel, "payment %s refunded", paymentID)
	} else {
		s.logger.Logf(log.DebugLevel, "nothing to refund for payment %s", paymentID)
	}

	return nil
}

// CreatePayment reserves a payment and starts the event driven saga by publishing PaymentCreated
func (s *Service) CreatePayment(ctx context.Context, req Request) (Payment, error) {
	method := req.PaymentMethod
	if method == "" {
		method = "CARD"
	}

	p, err := s.reserve(req.UserID, req.CourseID, req.Amount, method)
	if err != nil {
		return Payment{}, err
	}

	ev := &contracts.PaymentCreated{
		EventID:       uuid.New().String(),
		PaymentID:     p.ID,
		UserID:        p.UserID,
		CourseID:      p.CourseID,
		Type:          p.Type,
		Amount:        p.Amount,
		PaymentMethod: p.Method,
	}

	if err := s.sender.Send(ctx, message.NewOutcomingMessage(ev, message.WithTraceID(p.ID))); err != nil {
		s.resolve(p.ID, StatusFailed, "payment created event was not published")
		return Payment{}, errors.Wrapf(err, "publishing payment created for %s", p.ID)
	}

	s.logger.Logf(log.InfoLevel, "payment %s created, waiting for enrollment", p.ID)

	return p, nil
}

// HandleEnrollmentResult resolves a PENDING payment. The outcome event is sent before the payment is resolved,
// so a failed send is retried and a resolved payment always has its outcome published.
// A failed enrollment rolls the reservation back, the payment ends REFUNDED and keeps the failure reason.
func (s *Service) HandleEnrollmentResult(ctx context.Context, ev *contracts.EnrollmentResult) error {
	unlock, err := s.lockPayment(ctx, ev.PaymentID)
	if err != nil {
		return err
	}
	defer unlock()

	_, err = idempotency.Guard(ctx, s.processed, s.metrics, consumerName, ev.EventID, func() error {
		p, ok := s.payments.Load(ev.PaymentID)
		if !ok {
			return busErrs.WithStatusErr(busErrs.NoRetry, errors.Wrapf(ErrPaymentNotFound, "enrollment result %s for payment %s", ev.EventID, ev.PaymentID))
		}

		if p.Status != StatusPending {
			s.logger.Logf(log.WarnLevel, "payment %s is already %s, ignoring enrollment result %s", p.ID, p.Status, ev.EventID)
			return nil
		}

		var (
			outcome message.Object
			status  Status
			reason  string
		)

		switch ev.Status {
		case contracts.EnrollmentSucceeded:
			status = StatusConfirmed
			outcome = &contracts.PaymentConfirmed{
				EventID:   contracts.DerivedEventID(ev.EventID, "PaymentConfirmed"),
				PaymentID: p.ID,
				UserID:    p.UserID,
				CourseID:  p.CourseID,
			}
		case contracts.EnrollmentFailed:
			status = StatusFailed
			reason = ev.ErrorMessage
			outcome = &contracts.PaymentFailed{
				EventID:   contracts.DerivedEventID(ev.EventID, "PaymentFailed"),
				PaymentID: p.ID,
				UserID:    p.UserID,
				Reason:    ev.ErrorMessage,
			}
		default:
			return busErrs.WithStatusErr(busErrs.NoRetry, errors.Errorf("unknown enrollment status %q in result %s", ev.Status, ev.EventID))
		}

		if err := s.sender.Send(ctx, message.NewOutcomingMessage(outcome, message.WithTraceID(p.ID))); err != nil {
			return errors.Wrapf(err, "publishing outcome of payment %s", p.ID)
		}

		if s.resolve(p.ID, status, reason) {
			s.logger.Logf(log.InfoLevel, "payment %s is %s", p.ID, status)
		}

		if status == StatusFailed {
			return s.RefundPayment(ctx, p.ID)
		}

		return nil
	})

	return err
}

// resolve moves a PENDING payment to status and reports whether it did
func (s *Service) resolve(paymentID string, status Status, reason string) bool {
	var resolved bool

	s.payments.Compute(paymentID, func(p Payment, loaded bool) (Payment, bool) {
		if !loaded {
			return p, true
		}

		if p.Status != StatusPending {
			return p, false
		}

		p.Status = status
		p.Reason = reason
		p.UpdatedAt = s.now()
		resolved = true

		return p, false
	})

	return resolved
}

// EnrollmentResultExecutor adapts HandleEnrollmentResult to the bus
func (s *Service) EnrollmentResultExecutor(execCtx execution.MessageExecutionCtx) error {
	ev, ok := execCtx.Message().Payload().(*contracts.EnrollmentResult)
	if !ok {
		return busErrs.WithStatusErr(busErrs.NoRetry, errors.Errorf("payment service received %T instead of enrollment result", execCtx.Message().Payload()))
	}

	return s.HandleEnrollmentResult(execCtx.Context(), ev)
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
