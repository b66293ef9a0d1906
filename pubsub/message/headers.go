package message

import (
	"encoding/json"
	"strconv"
)

const (
	uidHeader      = "uid"
	traceIDHeader  = "traceId"
	sagaUIDHeader  = "sagaUID"
	attemptsHeader = "attempts"
)

// Headers are transferred along with a payload. Values come back from brokers in different shapes
// (amqp keeps int32, kafka only strings), so readers here normalize them.
type Headers map[string]interface{}

func (h Headers) UID() string {
	return h.stringValue(uidHeader)
}

func (h Headers) TraceID() string {
	return h.stringValue(traceIDHeader)
}

func (h Headers) SagaUID() string {
	return h.stringValue(sagaUIDHeader)
}

func (h Headers) SetSagaUID(uid string) {
	h[sagaUIDHeader] = uid
}

// Attempts returns how many times the message was already delivered to a handler and failed
func (h Headers) Attempts() int {
	v, exists := h[attemptsHeader]
	if !exists {
		return 0
	}

	switch val := v.(type) {
	case int:
		return val
	case int32:
		return int(val)
	case int64:
		return int(val)
	case uint32:
		return int(val)
	case float64:
		return int(val)
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return 0
		}
		return int(n)
	case string:
		n, err := strconv.Atoi(val)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func (h Headers) SetAttempts(attempts int) {
	h[attemptsHeader] = attempts
}

// StringMap flattens headers for transports and records that only carry strings
func (h Headers) StringMap() map[string]string {
	res := make(map[string]string, len(h))
	for k, v := range h {
		switch val := v.(type) {
		case string:
			res[k] = val
		case []byte:
			res[k] = string(val)
		default:
			b, err := json.Marshal(val)
			if err != nil {
				continue
			}
			res[k] = string(b)
		}
	}

	return res
}

func (h Headers) stringValue(key string) string {
	v, exists := h[key]
	if !exists {
		return ""
	}

	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	default:
		return ""
	}
}
