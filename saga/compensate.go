package saga

import (
	"context"

	"github.com/go-foreman/enrollsaga/log"
	"github.com/pkg/errors"
)

// compensate undoes steps in reverse order. Every step gets its attempt, failures are only logged and published.
func (o *Orchestrator) compensate(ctx context.Context, sagaCtx *Context, steps []Step, events *eventSequence, logger log.Logger) {
	o.publish(ctx, events.next(EventCompensationStarted, "", ""), logger)

	for i := len(steps) - 1; i >= 0; i-- {
		step := steps[i]

		var errMsg string
		if err := o.compensateStep(ctx, step, sagaCtx); err != nil {
			errMsg = err.Error()
			logger.Logf(log.ErrorLevel, "compensation of step %s failed. %s", step.Name(), err)
			o.metrics.StepFailed(step.Name(), "compensation")
		} else {
			logger.Logf(log.InfoLevel, "step %s compensated", step.Name())
		}

		o.publish(ctx, events.next(EventCompensation, step.Name(), errMsg), logger)
	}

	o.publish(ctx, events.next(EventCompensationCompleted, "", ""), logger)
}

func (o *Orchestrator) compensateStep(ctx context.Context, step Step, sagaCtx *Context) (err error) {
	stepCtx, cancel := o.stepContext(ctx)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic: %v", r)
		}
	}()

	return step.Compensate(stepCtx, sagaCtx)
}
