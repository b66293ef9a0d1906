package kafka

import (
	"context"

	"github.com/segmentio/kafka-go"
)

//go:generate mockgen --build_flags=--mod=mod -destination mock_test.go -package kafka . Reader,Writer

// Reader is the part of *kafka.Reader used by the transport
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Writer is the part of *kafka.Writer used by the transport
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}
