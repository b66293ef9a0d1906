package errors

import (
	"github.com/pkg/errors"
)

// Status tells the subscriber what to do with a package whose handler failed
type Status int

const (
	// Retry the handler until the retry budget is spent
	Retry Status = iota
	// NoRetry sends the package straight to the dead letter topic
	NoRetry
)

type StatusErr struct {
	error
	status Status
}

func (s StatusErr) Status() Status {
	return s.status
}

func (s StatusErr) Cause() error {
	return s.error
}

func (s StatusErr) Unwrap() error {
	return s.error
}

func WithStatusErr(status Status, err error) error {
	if err == nil {
		return nil
	}
	return StatusErr{error: err, status: status}
}

// GetStatus returns the status attached anywhere in the chain of err, Retry if none
func GetStatus(err error) Status {
	var statusErr StatusErr
	if errors.As(err, &statusErr) {
		return statusErr.status
	}
	return Retry
}
