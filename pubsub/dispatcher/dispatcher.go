package dispatcher

import (
	"reflect"
	"sync"

	"github.com/go-foreman/enrollsaga/pubsub/message"
	"github.com/go-foreman/enrollsaga/pubsub/message/execution"
	"github.com/go-foreman/enrollsaga/runtime/scheme"
)

// Dispatcher matches a decoded object with the executors subscribed to its type
type Dispatcher interface {
	// Match returns executors of the object type followed by executors subscribed to every type
	Match(obj message.Object) []execution.Executor
	// Subscribe registers executor for the type of obj. Registering the same function twice is a no-op.
	Subscribe(obj message.Object, executor execution.Executor) Dispatcher
	// SubscribeForAll registers executor for objects of any type
	SubscribeForAll(executor execution.Executor) Dispatcher
}

func NewDispatcher() Dispatcher {
	return &dispatcher{
		listeners: make(map[reflect.Type][]execution.Executor),
	}
}

type dispatcher struct {
	mu           sync.RWMutex
	listeners    map[reflect.Type][]execution.Executor
	allListeners []execution.Executor
}

func (d *dispatcher) Match(obj message.Object) []execution.Executor {
	structType := scheme.GetStructType(obj)

	d.mu.RLock()
	defer d.mu.RUnlock()

	listeners := d.listeners[structType]
	res := make([]execution.Executor, 0, len(listeners)+len(d.allListeners))
	res = append(res, listeners...)

	for _, l := range d.allListeners {
		if !contains(res, l) {
			res = append(res, l)
		}
	}

	return res
}

func (d *dispatcher) Subscribe(obj message.Object, executor execution.Executor) Dispatcher {
	structType := scheme.GetStructType(obj)

	d.mu.Lock()
	defer d.mu.Unlock()

	if !contains(d.listeners[structType], executor) {
		d.listeners[structType] = append(d.listeners[structType], executor)
	}

	return d
}

func (d *dispatcher) SubscribeForAll(executor execution.Executor) Dispatcher {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !contains(d.allListeners, executor) {
		d.allListeners = append(d.allListeners, executor)
	}

	return d
}

// functions are not comparable, so the code pointer is compared
func contains(executors []execution.Executor, executor execution.Executor) bool {
	executorPtr := reflect.ValueOf(executor).Pointer()
	for _, e := range executors {
		if reflect.ValueOf(e).Pointer() == executorPtr {
			return true
		}
	}

	return false
}
