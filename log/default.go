package log

import (
	"fmt"
	"io"
	"log"
	"strings"
)

const defaultPrefix = "[enrollsaga] "

// DefaultLogger returns a stdlib backed implementation of Logger, used when nothing else is configured. Default level is info.
func DefaultLogger(out io.Writer) Logger {
	return &defaultLogger{
		internalLogger: log.New(out, defaultPrefix, log.Ldate|log.Ltime|log.Lmicroseconds),
		level:          InfoLevel,
	}
}

type defaultLogger struct {
	internalLogger *log.Logger
	level          Level
	fields         []Field
}

func (l defaultLogger) Log(level Level, v ...interface{}) {
	if level == FatalLevel {
		l.internalLogger.Fatal(v...)
		return
	}

	if level == PanicLevel {
		l.internalLogger.Panic(v...)
		return
	}

	if level > l.level {
		return
	}

	entry := fmt.Sprint(v...)
	if len(l.fields) > 0 {
		entry = fmt.Sprintf("[%s] %s", l.renderFields(), entry)
	}

	if err := l.internalLogger.Output(3, fmt.Sprintf("%s %s", level, entry)); err != nil {
		l.internalLogger.Printf("err logging an entry: %s. %s\n", err, fmt.Sprint(v...))
	}
}

func (l defaultLogger) Logf(level Level, template string, args ...interface{}) {
	l.Log(level, fmt.Sprintf(template, args...))
}

func (l *defaultLogger) SetLevel(level Level) {
	l.level = level
}

func (l defaultLogger) WithFields(fields []Field) Logger {
	merged := make([]Field, 0, len(l.fields)+len(fields))
	merged = append(merged, l.fields...)
	merged = append(merged, fields...)

	return &defaultLogger{
		internalLogger: l.internalLogger,
		level:          l.level,
		fields:         merged,
	}
}

func (l defaultLogger) renderFields() string {
	parts := make([]string, len(l.fields))
	for i, f := range l.fields {
		parts[i] = fmt.Sprintf("%s=%v", f.Name, f.Val)
	}
	return strings.Join(parts, " ")
}
