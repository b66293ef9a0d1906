package log

import (
	"github.com/sirupsen/logrus"
)

// NewLogrusLogger adapts logrus to Logger. Fields are passed as logrus fields, levels map one to one.
func NewLogrusLogger(l *logrus.Logger) Logger {
	return &logrusLogger{entry: logrus.NewEntry(l)}
}

type logrusLogger struct {
	entry *logrus.Entry
}

func (l logrusLogger) Log(level Level, v ...interface{}) {
	l.entry.Log(logrus.Level(level), v...)
}

func (l logrusLogger) Logf(level Level, template string, args ...interface{}) {
	l.entry.Logf(logrus.Level(level), template, args...)
}

func (l *logrusLogger) SetLevel(level Level) {
	l.entry.Logger.SetLevel(logrus.Level(level))
}

func (l logrusLogger) WithFields(fields []Field) Logger {
	lf := make(logrus.Fields, len(fields))
	for _, f := range fields {
		lf[f.Name] = f.Val
	}

	return &logrusLogger{entry: l.entry.WithFields(lf)}
}
