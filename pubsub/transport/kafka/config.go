package kafka

import (
	"strings"
	"time"
)

type Config struct {
	Brokers []string
	// GroupID is the consumer group every queue of this transport consumes in
	GroupID           string
	MinBytes          int
	MaxBytes          int
	MaxWait           time.Duration
	NumPartitions     int
	ReplicationFactor int
}

var DefaultConfig = Config{
	GroupID:           "enrollsaga",
	MinBytes:          1,
	MaxBytes:          10e6,
	MaxWait:           time.Millisecond * 500,
	NumPartitions:     3,
	ReplicationFactor: 1,
}

// ParseBrokers splits a comma separated broker list, blanks are skipped
func ParseBrokers(brokersCSV string) []string {
	brokers := []string{}
	for _, b := range strings.Split(brokersCSV, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
