package deadletter

const dltSuffix = "-dlt"

// TopicResolver maps a source topic to its dead letter topic
type TopicResolver interface {
	Resolve(topic string) (string, bool)
}

// StaticTopics is a fixed source topic to dead letter topic mapping
type StaticTopics map[string]string

func (s StaticTopics) Resolve(topic string) (string, bool) {
	dlt, ok := s[topic]
	return dlt, ok && dlt != ""
}

// DefaultTopics maps every given topic to <topic>-dlt
func DefaultTopics(topics ...string) StaticTopics {
	res := make(StaticTopics, len(topics))
	for _, t := range topics {
		res[t] = DeadLetterTopic(t)
	}
	return res
}

func DeadLetterTopic(topic string) string {
	return topic + dltSuffix
}
