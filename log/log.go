package log

// Level of a log entry. Lower is more severe, the order matches logrus levels.
type Level uint32

const (
	PanicLevel Level = iota
	FatalLevel
	ErrorLevel
	WarnLevel
	InfoLevel
	DebugLevel
	TraceLevel
)

// Field is a named value attached to every entry of a logger
type Field struct {
	Name string
	Val  interface{}
}

// Logger is used by every component of the saga engine, implement it to plug in another logging library
type Logger interface {
	Log(level Level, v ...interface{})
	Logf(level Level, template string, args ...interface{})
	SetLevel(level Level)
	// WithFields returns a new logger which includes fields in every entry. Parent logger is not modified.
	WithFields(fields []Field) Logger
}

// ParseLevel converts a level name (as used in configs) into Level
func ParseLevel(lvl string) (Level, bool) {
	for level, name := range levelNames {
		if name == lvl {
			return level, true
		}
	}

	return InfoLevel, false
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "unknown"
}

var levelNames = map[Level]string{
	PanicLevel: "panic",
	FatalLevel: "fatal",
	ErrorLevel: "error",
	WarnLevel:  "warn",
	InfoLevel:  "info",
	DebugLevel: "debug",
	TraceLevel: "trace",
}
