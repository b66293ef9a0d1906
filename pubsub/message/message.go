package message

import (
	"time"

	"github.com/google/uuid"
)

// ReceivedMessage is a decoded package that came from a transport
type ReceivedMessage struct {
	uid        string
	headers    Headers
	payload    Object
	receivedAt time.Time
	origin     string
}

func NewReceivedMessage(uid string, payload Object, headers Headers, receivedAt time.Time, origin string) *ReceivedMessage {
	if headers == nil {
		headers = Headers{}
	}
	return &ReceivedMessage{uid: uid, payload: payload, headers: headers, receivedAt: receivedAt, origin: origin}
}

func (m ReceivedMessage) UID() string {
	return m.uid
}

func (m ReceivedMessage) Headers() Headers {
	return m.headers
}

func (m ReceivedMessage) Payload() Object {
	return m.payload
}

func (m ReceivedMessage) ReceivedAt() time.Time {
	return m.receivedAt
}

// Origin is the topic or queue the message was consumed from
func (m ReceivedMessage) Origin() string {
	return m.origin
}

func (m ReceivedMessage) TraceID() string {
	return m.headers.TraceID()
}

// OutcomingMessage is a message that is going to be sent to endpoints
type OutcomingMessage struct {
	uid     string
	headers Headers
	payload Object
}

func (m OutcomingMessage) UID() string {
	return m.uid
}

func (m OutcomingMessage) Headers() Headers {
	return m.headers
}

func (m OutcomingMessage) Payload() Object {
	return m.payload
}

func (m OutcomingMessage) TraceID() string {
	return m.headers.TraceID()
}

// Key is the partitioning key of the message, empty when the payload is not Keyed
func (m OutcomingMessage) Key() string {
	if keyed, ok := m.payload.(Keyed); ok {
		return keyed.MessageKey()
	}
	return ""
}

type outcomingMsgOpts struct {
	headers Headers
	traceID string
}

type OutcomingMsgOption func(o *outcomingMsgOpts)

func WithHeaders(headers Headers) OutcomingMsgOption {
	return func(o *outcomingMsgOpts) {
		o.headers = headers
	}
}

func WithTraceID(traceID string) OutcomingMsgOption {
	return func(o *outcomingMsgOpts) {
		o.traceID = traceID
	}
}

// NewOutcomingMessage wraps payload into a message with a fresh uid. Headers uid and traceId are always set by the constructor.
func NewOutcomingMessage(payload Object, opts ...OutcomingMsgOption) *OutcomingMessage {
	msgOpts := &outcomingMsgOpts{}
	for _, o := range opts {
		o(msgOpts)
	}

	headers := Headers{}
	for k, v := range msgOpts.headers {
		headers[k] = v
	}

	uid := uuid.New().String()
	if payload.GetUID() == "" {
		payload.SetUID(uid)
	}

	traceID := msgOpts.traceID
	if traceID == "" {
		traceID = uuid.New().String()
	}

	headers[uidHeader] = uid
	headers[traceIDHeader] = traceID

	return &OutcomingMessage{uid: uid, headers: headers, payload: payload}
}

// FromReceivedMsg converts received message into outcoming preserving uid and headers
func FromReceivedMsg(received *ReceivedMessage) *OutcomingMessage {
	headers := Headers{}
	for k, v := range received.Headers() {
		headers[k] = v
	}

	return &OutcomingMessage{uid: received.UID(), headers: headers, payload: received.Payload()}
}
