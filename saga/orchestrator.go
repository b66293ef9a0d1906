package saga

import (
	"context"
	"fmt"
	"time"

	"github.com/go-foreman/enrollsaga/log"
	"github.com/go-foreman/enrollsaga/metrics"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	failureRejected   = "rejected"
	failureUnexpected = "unexpected"
	failureTimeout    = "timeout"
)

// Result is the definitive outcome of one saga execution
type Result struct {
	Success      bool   `json:"success"`
	SagaID       string `json:"sagaId"`
	EnrollmentID string `json:"enrollmentId,omitempty"`
	PaymentID    string `json:"paymentId,omitempty"`
	FailedStep   string `json:"failedStep,omitempty"`
	Message      string `json:"message"`
}

type OrchestratorOpt func(o *Orchestrator)

// WithStepTimeout sets a deadline for every step and every compensation.
// A step that fails after its deadline passed is compensated together with the completed steps.
func WithStepTimeout(d time.Duration) OrchestratorOpt {
	return func(o *Orchestrator) {
		o.stepTimeout = d
	}
}

func WithOrchestratorMetrics(m *metrics.Metrics) OrchestratorOpt {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithClock replaces time.Now, used in tests
func WithClock(now func() time.Time) OrchestratorOpt {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// WithIDGenerator replaces generation of saga and event ids
func WithIDGenerator(newID func() string) OrchestratorOpt {
	return func(o *Orchestrator) {
		o.newID = newID
	}
}

// Orchestrator runs a pipeline of steps in order and compensates completed steps in reverse when one of them fails
type Orchestrator struct {
	steps       []Step
	publisher   EventPublisher
	logger      log.Logger
	metrics     *metrics.Metrics
	stepTimeout time.Duration
	now         func() time.Time
	newID       func() string
}

func NewOrchestrator(publisher EventPublisher, logger log.Logger, steps []Step, opts ...OrchestratorOpt) *Orchestrator {
	o := &Orchestrator{
		steps:     steps,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

func (o *Orchestrator) ExecuteEnrollmentSaga(ctx context.Context, userID, courseID int64) Result {
	return o.Execute(ctx, NewContext(o.newID(), userID, courseID))
}

// Execute runs the pipeline for sagaCtx. Cancellation of ctx is ignored, a started saga always completes or gets compensated.
func (o *Orchestrator) Execute(ctx context.Context, sagaCtx *Context) Result {
	ctx = context.WithoutCancel(ctx)
	startedAt := o.now()
	logger := o.logger.WithFields([]log.Field{{Name: "sagaId", Val: sagaCtx.SagaID}})
	events := &eventSequence{sagaCtx: sagaCtx, now: o.now, newID: o.newID}

	logger.Logf(log.InfoLevel, "starting saga for user %d and course %d", sagaCtx.UserID, sagaCtx.CourseID)
	o.publish(ctx, events.next(EventSagaStarted, "", ""), logger)

	completed := make([]Step, 0, len(o.steps))

	for _, step := range o.steps {
		kind, err := o.executeStep(ctx, step, sagaCtx)
		if err == nil {
			completed = append(completed, step)
			sagaCtx.markCompleted(step.Name())
			o.publish(ctx, events.next(EventStepCompleted, step.Name(), ""), logger)
			logger.Logf(log.DebugLevel, "step %s completed", step.Name())
			continue
		}

		failureMsg := fmt.Sprintf("saga failed at step %s: %s", step.Name(), err)
		logger.Logf(log.ErrorLevel, "step %s failed (%s). %s", step.Name(), kind, err)
		o.metrics.StepFailed(step.Name(), kind)

		o.publish(ctx, events.next(EventStepFailed, step.Name(), err.Error()), logger)
		o.publish(ctx, events.next(EventSagaFailed, step.Name(), failureMsg), logger)

		toCompensate := completed
		if kind == failureTimeout {
			// effect of a timed out step may have landed
			toCompensate = append(append(make([]Step, 0, len(completed)+1), completed...), step)
		}

		o.compensate(ctx, sagaCtx, toCompensate, events, logger)
		o.metrics.SagaFinished("compensated", o.now().Sub(startedAt).Seconds())

		return Result{
			Success:    false,
			SagaID:     sagaCtx.SagaID,
			FailedStep: step.Name(),
			Message:    failureMsg,
		}
	}

	o.publish(ctx, events.next(EventSagaCompleted, "", ""), logger)
	o.metrics.SagaFinished("completed", o.now().Sub(startedAt).Seconds())
	logger.Log(log.InfoLevel, "saga completed")

	return Result{
		Success:      true,
		SagaID:       sagaCtx.SagaID,
		EnrollmentID: sagaCtx.EnrollmentID,
		PaymentID:    sagaCtx.PaymentID,
		Message:      "enrollment saga completed",
	}
}

// executeStep turns panics and errors into a failure kind
func (o *Orchestrator) executeStep(ctx context.Context, step Step, sagaCtx *Context) (kind string, err error) {
	stepCtx, cancel := o.stepContext(ctx)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			kind = failureUnexpected
			err = errors.Errorf("panic: %v", r)
		}
	}()

	err = step.Execute(stepCtx, sagaCtx)

	switch {
	case err == nil:
		return "", nil
	case stepCtx.Err() == context.DeadlineExceeded:
		return failureTimeout, errors.Wrapf(err, "deadline of %s exceeded", o.stepTimeout)
	case IsRejection(err):
		return failureRejected, err
	default:
		return failureUnexpected, err
	}
}

// publish keeps a misbehaving publisher from aborting the saga, a lost event is only logged
func (o *Orchestrator) publish(ctx context.Context, ev *SagaEvent, logger log.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Logf(log.ErrorLevel, "panic while publishing event %s %s with sequence %d: %v", ev.EventID, ev.EventType, ev.SequenceNumber, r)
		}
	}()

	o.publisher.Publish(ctx, ev)
}

func (o *Orchestrator) stepContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.stepTimeout > 0 {
		return context.WithTimeout(ctx, o.stepTimeout)
	}
	return context.WithCancel(ctx)
}

type eventSequence struct {
	sagaCtx *Context
	now     func() time.Time
	newID   func() string
	last    uint64
}

func (s *eventSequence) next(eventType EventType, step, errMsg string) *SagaEvent {
	s.last++

	return &SagaEvent{
		EventID:        s.newID(),
		OccurredAt:     s.now().UTC(),
		SequenceNumber: s.last,
		SagaID:         s.sagaCtx.SagaID,
		EventType:      eventType,
		CurrentStep:    step,
		UserID:         s.sagaCtx.UserID,
		CourseID:       s.sagaCtx.CourseID,
		PaymentID:      s.sagaCtx.PaymentID,
		EnrollmentID:   s.sagaCtx.EnrollmentID,
		ErrorMessage:   errMsg,
	}
}
