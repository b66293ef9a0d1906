package saga

import (
	"context"

	"github.com/pkg/errors"
)

// Step is one unit of the saga. Execute returns nil on success, the error text becomes the failure message.
// Compensate undoes Execute and must check that the effect exists before undoing it.
type Step interface {
	Name() string
	Execute(ctx context.Context, sagaCtx *Context) error
	Compensate(ctx context.Context, sagaCtx *Context) error
}

type StepFunc func(ctx context.Context, sagaCtx *Context) error

// NewStep builds a step from functions. A nil comp means there is nothing to undo.
func NewStep(name string, exec, comp StepFunc) Step {
	return &funcStep{name: name, exec: exec, comp: comp}
}

type funcStep struct {
	name string
	exec StepFunc
	comp StepFunc
}

func (s *funcStep) Name() string {
	return s.name
}

func (s *funcStep) Execute(ctx context.Context, sagaCtx *Context) error {
	if s.exec == nil {
		return nil
	}
	return s.exec(ctx, sagaCtx)
}

func (s *funcStep) Compensate(ctx context.Context, sagaCtx *Context) error {
	if s.comp == nil {
		return nil
	}
	return s.comp(ctx, sagaCtx)
}

// RejectionErr is an expected business rejection, e.g. the course is full
type RejectionErr struct {
	error
}

func (e RejectionErr) Cause() error {
	return e.error
}

func (e RejectionErr) Unwrap() error {
	return e.error
}

// Reject returns a RejectionErr with formatted message
func Reject(format string, args ...interface{}) error {
	return RejectionErr{errors.Errorf(format, args...)}
}

// WithRejectionErr marks err as a business rejection
func WithRejectionErr(err error) error {
	if err == nil {
		return nil
	}
	return RejectionErr{err}
}

func IsRejection(err error) bool {
	var rejection RejectionErr
	return errors.As(err, &rejection)
}
