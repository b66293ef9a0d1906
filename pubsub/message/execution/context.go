package execution

import (
	"context"

	"github.com/go-foreman/enrollsaga/log"
	"github.com/go-foreman/enrollsaga/pubsub/endpoint"
	"github.com/go-foreman/enrollsaga/pubsub/message"
	"github.com/pkg/errors"
)

// MessageExecutionCtx is passed to each executor and contains received message, ctx, knows how to send out a message.
type MessageExecutionCtx interface {
	// Message returns received message
	Message() *message.ReceivedMessage
	// Context returns parent execution context. Each message has own time limit in which it must be processed.
	Context() context.Context
	// Send sends an outcoming message to registered endpoints. Trace id of the received message is propagated.
	Send(message *message.OutcomingMessage) error
	// Logger returns logger instance with traceId and message uid included as fields
	Logger() log.Logger
}

type messageExecutionCtx struct {
	ctx     context.Context
	message *message.ReceivedMessage
	router  endpoint.Router
	logger  log.Logger
}

func (m messageExecutionCtx) Context() context.Context {
	return m.ctx
}

func (m messageExecutionCtx) Send(msg *message.OutcomingMessage) error {
	if traceID := m.message.TraceID(); traceID != "" {
		msg.Headers()["traceId"] = traceID
	}

	endpoints := m.router.Route(msg.Payload())

	if len(endpoints) == 0 {
		m.logger.Log(log.WarnLevel, "no endpoints defined for message")
		return nil
	}

	for _, endp := range endpoints {
		if err := endp.Send(m.ctx, msg); err != nil {
			m.logger.Logf(log.ErrorLevel, "error sending message. %s", err)
			return errors.Wrapf(err, "sending message %s to %s", msg.UID(), endp.Name())
		}
	}

	return nil
}

func (m messageExecutionCtx) Message() *message.ReceivedMessage {
	return m.message
}

func (m messageExecutionCtx) Logger() log.Logger {
	return m.logger
}

type MessageExecutionCtxFactory interface {
	CreateCtx(ctx context.Context, message *message.ReceivedMessage) MessageExecutionCtx
}

type messageExecutionCtxFactory struct {
	router endpoint.Router
	logger log.Logger
}

func NewMessageExecutionCtxFactory(router endpoint.Router, logger log.Logger) MessageExecutionCtxFactory {
	return &messageExecutionCtxFactory{router: router, logger: logger}
}

func (m messageExecutionCtxFactory) CreateCtx(ctx context.Context, message *message.ReceivedMessage) MessageExecutionCtx {
	fields := make([]log.Field, 1, 3)
	fields[0] = log.Field{Name: "uid", Val: message.UID()}

	if traceID := message.TraceID(); traceID != "" {
		fields = append(fields, log.Field{Name: "traceId", Val: traceID})
	}

	if sagaUID := message.Headers().SagaUID(); sagaUID != "" {
		fields = append(fields, log.Field{Name: "sagaUID", Val: sagaUID})
	}

	return &messageExecutionCtx{ctx: ctx, message: message, router: m.router, logger: m.logger.WithFields(fields)}
}
