package transport

import (
	"time"
)

// IncomingPkg is a raw package consumed from a broker
type IncomingPkg interface {
	UID() string
	// Origin is the topic (or queue) the package was consumed from
	Origin() string
	// Key is the message key, e.g. kafka key or amqp routing key
	Key() string
	Payload() []byte
	Headers() map[string]interface{}
	Ack(options ...AcknowledgmentOption) error
	Nack(options ...AcknowledgmentOption) error
	Reject(options ...AcknowledgmentOption) error
	ReceivedAt() time.Time
	PublishedAt() time.Time
}

// Positioned is implemented by packages of log based brokers
type Positioned interface {
	Partition() int
	Offset() int64
}

type OutboundPkg interface {
	Payload() []byte
	ContentType() string
	Headers() map[string]interface{}
	Destination() DeliveryDestination
	// Key is the partitioning key of the package, empty means any partition
	Key() string
}

func NewOutboundPkg(payload []byte, contentType string, destination DeliveryDestination, headers map[string]interface{}, key string) OutboundPkg {
	return &outboundPkg{payload: payload, contentType: contentType, destination: destination, headers: headers, key: key}
}

type outboundPkg struct {
	payload     []byte
	contentType string
	headers     map[string]interface{}
	destination DeliveryDestination
	key         string
}

func (o outboundPkg) Payload() []byte {
	return o.payload
}

func (o outboundPkg) ContentType() string {
	return o.contentType
}

func (o outboundPkg) Headers() map[string]interface{} {
	return o.headers
}

func (o outboundPkg) Destination() DeliveryDestination {
	return o.destination
}

func (o outboundPkg) Key() string {
	return o.key
}

type DeliveryDestination struct {
	DestinationTopic string
	RoutingKey       string
}

type AcknowledgmentOption func(options map[string]interface{})
