package deadletter

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-foreman/enrollsaga/pubsub/message"
	"github.com/go-foreman/enrollsaga/pubsub/transport"
	"github.com/pkg/errors"
)

// Record is the envelope published to a dead letter topic
type Record struct {
	OriginalTopic     string            `json:"originalTopic"`
	OriginalPartition *int              `json:"originalPartition"`
	OriginalOffset    *int64            `json:"originalOffset"`
	OriginalKey       string            `json:"originalKey"`
	OriginalValue     string            `json:"originalValue"`
	OriginalHeaders   map[string]string `json:"originalHeaders,omitempty"`
	ExceptionType     string            `json:"exceptionType"`
	ExceptionMessage  string            `json:"exceptionMessage"`
	Attempts          int               `json:"attempts"`
	Timestamp         time.Time         `json:"timestamp"`
}

// NewRecord captures a failed package. Partition and offset are set only for brokers that have them.
func NewRecord(inPkg transport.IncomingPkg, cause error, attempts int, capturedAt time.Time) Record {
	r := Record{
		OriginalTopic:   inPkg.Origin(),
		OriginalKey:     inPkg.Key(),
		OriginalValue:   string(inPkg.Payload()),
		OriginalHeaders: message.Headers(inPkg.Headers()).StringMap(),
		Attempts:        attempts,
		Timestamp:       capturedAt.UTC(),
	}

	if positioned, ok := inPkg.(transport.Positioned); ok {
		partition, offset := positioned.Partition(), positioned.Offset()
		r.OriginalPartition = &partition
		r.OriginalOffset = &offset
	}

	if cause != nil {
		r.ExceptionType = fmt.Sprintf("%T", errors.Cause(cause))
		r.ExceptionMessage = cause.Error()
	}

	return r
}

func (r Record) Validate() error {
	if r.OriginalTopic == "" {
		return errors.New("original topic is empty")
	}

	if r.ExceptionType == "" {
		return errors.New("exception type is empty")
	}

	if r.Timestamp.IsZero() {
		return errors.New("timestamp is not set")
	}

	if (r.OriginalPartition == nil) != (r.OriginalOffset == nil) {
		return errors.New("partition and offset must be set together")
	}

	if r.Attempts < 1 {
		return errors.Errorf("attempts must be positive, got %d", r.Attempts)
	}

	return nil
}

func (r Record) Marshal() ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, errors.Wrapf(err, "validating dead letter record from %s", r.OriginalTopic)
	}

	b, err := json.Marshal(r)
	if err != nil {
		return nil, errors.Wrapf(err, "marshalling dead letter record from %s", r.OriginalTopic)
	}

	return b, nil
}
