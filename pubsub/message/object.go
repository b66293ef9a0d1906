package message

import (
	"github.com/go-foreman/enrollsaga/runtime/scheme"
)

// Object is a contract that travels over the bus
type Object interface {
	scheme.Object
	GetUID() string
	SetUID(uid string)
}

// Keyed is implemented by contracts that must land on the same partition, e.g. all events of one payment
type Keyed interface {
	MessageKey() string
}

// ObjectMeta is embedded into every contract
type ObjectMeta struct {
	scheme.TypeMeta
	UID string `json:"uid,omitempty"`
}

func (o *ObjectMeta) GetUID() string {
	return o.UID
}

func (o *ObjectMeta) SetUID(uid string) {
	o.UID = uid
}
