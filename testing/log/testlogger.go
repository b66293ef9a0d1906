package log

import (
	"fmt"
	"sync"

	"github.com/go-foreman/enrollsaga/log"
)

// NewNilLogger is used in tests, prints nothing but remembers every entry so assertions can be made on it
func NewNilLogger() *testLogger {
	return &testLogger{entriesStore: &entriesStore{}}
}

type entriesStore struct {
	mu      sync.Mutex
	entries []entry
}

type testLogger struct {
	level        log.Level
	fields       []log.Field
	entriesStore *entriesStore
}

type entry struct {
	Msg    string
	Level  log.Level
	Fields []log.Field
}

func (n *testLogger) Log(level log.Level, v ...interface{}) {
	n.append(entry{Msg: fmt.Sprint(v...), Level: level, Fields: n.fields})
}

func (n *testLogger) Logf(level log.Level, template string, args ...interface{}) {
	n.append(entry{Msg: fmt.Sprintf(template, args...), Level: level, Fields: n.fields})
}

func (n *testLogger) SetLevel(level log.Level) {
	n.level = level
}

func (n *testLogger) WithFields(fields []log.Field) log.Logger {
	merged := make([]log.Field, 0, len(n.fields)+len(fields))
	merged = append(merged, n.fields...)
	merged = append(merged, fields...)

	return &testLogger{
		entriesStore: n.entriesStore,
		level:        n.level,
		fields:       merged,
	}
}

func (n *testLogger) append(e entry) {
	n.entriesStore.mu.Lock()
	defer n.entriesStore.mu.Unlock()
	n.entriesStore.entries = append(n.entriesStore.entries, e)
}

func (n testLogger) Entries() []entry {
	n.entriesStore.mu.Lock()
	defer n.entriesStore.mu.Unlock()

	r := make([]entry, len(n.entriesStore.entries))
	copy(r, n.entriesStore.entries)
	return r
}

func (n testLogger) Messages() []string {
	entries := n.Entries()
	r := make([]string, len(entries))
	for i := range entries {
		r[i] = entries[i].Msg
	}

	return r
}

// MessagesWithLevel returns messages logged exactly with the level
func (n testLogger) MessagesWithLevel(level log.Level) []string {
	var r []string
	for _, e := range n.Entries() {
		if e.Level == level {
			r = append(r, e.Msg)
		}
	}

	return r
}

func (n testLogger) LastMessage() string {
	entries := n.Entries()
	if len(entries) > 0 {
		return entries[len(entries)-1].Msg
	}

	return ""
}

func (n *testLogger) Clear() {
	n.entriesStore.mu.Lock()
	defer n.entriesStore.mu.Unlock()

	n.entriesStore.entries = make([]entry, 0)
	n.level = log.InfoLevel
	n.fields = nil
}
