package endpoint

import (
	"context"

	"github.com/go-foreman/enrollsaga/pubsub/message"
	"github.com/go-foreman/enrollsaga/pubsub/transport"
	"github.com/pkg/errors"
)

//go:generate mockgen --build_flags=--mod=mod -destination ../../testing/mocks/pubsub/endpoint/endpoint.go -package endpoint . Endpoint,Router

type Endpoint interface {
	// Name is a unique name of the endpoint
	Name() string
	// Send sends a message to specified implementation
	Send(ctx context.Context, message *message.OutcomingMessage) error
}

// NewTransportEndpoint creates an endpoint that marshals messages and sends them to destination through the transport.
// The message key, when the payload has one, overrides the routing key of the destination.
func NewTransportEndpoint(name string, t transport.Transport, destination transport.DeliveryDestination, msgMarshaller message.Marshaller) Endpoint {
	return &transportEndpoint{name: name, transport: t, destination: destination, msgMarshaller: msgMarshaller}
}

type transportEndpoint struct {
	transport     transport.Transport
	destination   transport.DeliveryDestination
	msgMarshaller message.Marshaller
	name          string
}

func (a transportEndpoint) Name() string {
	return a.name
}

func (a transportEndpoint) Send(ctx context.Context, msg *message.OutcomingMessage) error {
	dataToSend, err := a.msgMarshaller.Marshal(msg.Payload())

	if err != nil {
		return errors.Wrapf(err, "serializing message %s to json", msg.UID())
	}

	toSend := transport.NewOutboundPkg(dataToSend, "application/json", a.destination, msg.Headers(), msg.Key())

	return a.transport.Send(ctx, toSend)
}
