package subscriber

import (
	"context"
	"fmt"

	"github.com/go-foreman/enrollsaga/log"
	msgDispatcher "github.com/go-foreman/enrollsaga/pubsub/dispatcher"
	puberrors "github.com/go-foreman/enrollsaga/pubsub/errors"
	"github.com/go-foreman/enrollsaga/pubsub/message"
	"github.com/go-foreman/enrollsaga/pubsub/message/execution"
	"github.com/go-foreman/enrollsaga/pubsub/transport"
	"github.com/pkg/errors"
)

//go:generate mockgen --build_flags=--mod=mod -destination ../../testing/mocks/pubsub/subscriber/processor.go -package subscriber . Processor

// Processor decodes a package and runs every executor subscribed to its type
type Processor interface {
	Process(ctx context.Context, inPkg transport.IncomingPkg) error
}

// ProcessorFunc is an adapter to use ordinary functions as Processor
type ProcessorFunc func(ctx context.Context, inPkg transport.IncomingPkg) error

func (f ProcessorFunc) Process(ctx context.Context, inPkg transport.IncomingPkg) error {
	return f(ctx, inPkg)
}

type processor struct {
	logger            log.Logger
	marshaller        message.Marshaller
	dispatcher        msgDispatcher.Dispatcher
	msgExecCtxFactory execution.MessageExecutionCtxFactory
}

func NewMessageProcessor(marshaller message.Marshaller, msgExecCtxFactory execution.MessageExecutionCtxFactory, msgDispatcher msgDispatcher.Dispatcher, logger log.Logger) Processor {
	return &processor{marshaller: marshaller, msgExecCtxFactory: msgExecCtxFactory, dispatcher: msgDispatcher, logger: logger}
}

func (p *processor) Process(ctx context.Context, inPkg transport.IncomingPkg) error {
	obj, err := p.marshaller.Unmarshal(inPkg.Payload())
	if err != nil {
		p.logger.Logf(log.ErrorLevel, "failed to decode package %s from %s. %s", inPkg.UID(), inPkg.Origin(), err)
		return puberrors.WithStatusErr(puberrors.NoRetry, errors.Wrapf(err, "decoding package %s", inPkg.UID()))
	}

	executors := p.dispatcher.Match(obj)

	if len(executors) == 0 {
		errMsg := fmt.Sprintf("no executors defined for message %s of kind %s", inPkg.UID(), obj.GroupKind().String())
		p.logger.Log(log.ErrorLevel, errMsg)
		return puberrors.WithStatusErr(puberrors.NoRetry, WithNoExecutorsDefinedErr(errors.New(errMsg)))
	}

	receivedMsg := message.NewReceivedMessage(inPkg.UID(), obj, message.Headers(inPkg.Headers()), inPkg.ReceivedAt(), inPkg.Origin())
	execCtx := p.msgExecCtxFactory.CreateCtx(ctx, receivedMsg)

	for _, exec := range executors {
		if err := exec(execCtx); err != nil {
			return errors.Wrapf(err, "executing message %s of kind %s", inPkg.UID(), obj.GroupKind().String())
		}
	}

	return nil
}

type NoExecutorsDefinedErr struct {
	error
}

func (e NoExecutorsDefinedErr) Cause() error {
	return e.error
}

func WithNoExecutorsDefinedErr(err error) error {
	return NoExecutorsDefinedErr{err}
}
