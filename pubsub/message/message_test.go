package message

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type SomeEvent struct {
	ObjectMeta
	SomeData string
}

type keyedEvent struct {
	ObjectMeta
	PaymentID string
}

func (k keyedEvent) MessageKey() string {
	return k.PaymentID
}

func TestNewOutcomingMessage(t *testing.T) {
	t.Run("basic constructor", func(t *testing.T) {
		ev := &SomeEvent{}
		m := NewOutcomingMessage(ev)

		assert.Equal(t, m.Payload(), ev)
		assert.NotEmpty(t, m.UID())
		assert.Equal(t, m.UID(), ev.GetUID())
		assert.NotEmpty(t, m.TraceID())
		assert.Empty(t, m.Key())
	})

	t.Run("with traceID", func(t *testing.T) {
		ev := &SomeEvent{}
		m := NewOutcomingMessage(ev, WithTraceID("sometraceid"), WithHeaders(Headers{"key": "val", "traceId": "this-will-be-overridden"}))
		assert.Equal(t, m.Payload(), ev)
		assert.NotEmpty(t, m.UID())
		assert.EqualValues(t, Headers{"traceId": "sometraceid", "key": "val", "uid": m.UID()}, m.Headers())
	})

	t.Run("keyed payload", func(t *testing.T) {
		m := NewOutcomingMessage(&keyedEvent{PaymentID: "pay-1"})
		assert.Equal(t, "pay-1", m.Key())
	})

	t.Run("from received message", func(t *testing.T) {
		received := NewReceivedMessage("uid-1", &SomeEvent{}, Headers{"traceId": "t1", "attempts": 2}, time.Now(), "saga-events")
		m := FromReceivedMsg(received)
		assert.Equal(t, "uid-1", m.UID())
		assert.Equal(t, "t1", m.TraceID())

		m.Headers().SetAttempts(3)
		assert.Equal(t, 2, received.Headers().Attempts())
	})
}

func TestHeaders_Attempts(t *testing.T) {
	for name, val := range map[string]interface{}{
		"int":         3,
		"int32":       int32(3),
		"int64":       int64(3),
		"float64":     float64(3),
		"json number": json.Number("3"),
		"string":      "3",
	} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, 3, Headers{"attempts": val}.Attempts())
		})
	}

	t.Run("missing or garbage", func(t *testing.T) {
		assert.Equal(t, 0, Headers{}.Attempts())
		assert.Equal(t, 0, Headers{"attempts": "x"}.Attempts())
		assert.Equal(t, 0, Headers{"attempts": struct{}{}}.Attempts())
	})
}

func TestHeaders_StringMap(t *testing.T) {
	h := Headers{"uid": "1", "attempts": 2, "raw": []byte("b")}
	assert.Equal(t, map[string]string{"uid": "1", "attempts": "2", "raw": "b"}, h.StringMap())
}
