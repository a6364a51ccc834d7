package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"
)

// LogLevel represents the severity of a log entry
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARNING
	ERROR
	FATAL
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARNING:
		return "WARNING"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name to a LogLevel, defaulting to INFO
func ParseLevel(level string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return DEBUG
	case "WARNING", "WARN":
		return WARNING
	case "ERROR":
		return ERROR
	case "FATAL":
		return FATAL
	default:
		return INFO
	}
}

// core is shared by a logger and every logger derived from it, so
// SetOutput and SetJSONFormat apply to the whole family.
type core struct {
	mu         sync.Mutex
	out        io.Writer
	jsonFormat bool
}

// Logger is a leveled logger with text and JSON output
type Logger struct {
	core  *core
	level LogLevel
	name  string
}

// NewLogger creates a logger writing to stderr at the given level
func NewLogger(level string) *Logger {
	return &Logger{
		core:  &core{out: os.Stderr},
		level: ParseLevel(level),
	}
}

// Discard returns a logger that drops everything
func Discard() *Logger {
	l := NewLogger("FATAL")
	l.SetOutput(io.Discard)
	return l
}

// SetOutput changes the destination of log output
func (l *Logger) SetOutput(w io.Writer) {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	l.core.out = w
}

// SetJSONFormat toggles JSON output
func (l *Logger) SetJSONFormat(enabled bool) {
	l.core.mu.Lock()
	defer l.core.mu.Unlock()
	l.core.jsonFormat = enabled
}

// Named returns a logger that tags every entry with a component name
func (l *Logger) Named(name string) *Logger {
	child := *l
	if child.name != "" {
		child.name = child.name + "." + name
	} else {
		child.name = name
	}
	return &child
}

// Level returns the minimum level that is written
func (l *Logger) Level() LogLevel {
	return l.level
}

func (l *Logger) shouldLog(level LogLevel) bool {
	return level >= l.level
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(DEBUG, nil, format, args...)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.log(INFO, nil, format, args...)
}

func (l *Logger) Warning(format string, args ...interface{}) {
	l.log(WARNING, nil, format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.log(ERROR, nil, format, args...)
}

// Fatal logs the message and exits the process
func (l *Logger) Fatal(format string, args ...interface{}) {
	l.log(FATAL, nil, format, args...)
	os.Exit(1)
}

// WithFields returns a logger that attaches the given fields to every entry
func (l *Logger) WithFields(fields map[string]interface{}) *FieldLogger {
	copied := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return &FieldLogger{logger: l, fields: copied}
}

// GetLogr exposes the logger as a logr.Logger
func (l *Logger) GetLogr() logr.Logger {
	return logr.New(&logrSink{logger: l})
}

func (l *Logger) log(level LogLevel, fields map[string]interface{}, format string, args ...interface{}) {
	if !l.shouldLog(level) {
		return
	}

	message := format
	if len(args) > 0 {
		message = fmt.Sprintf(format, args...)
	}

	l.core.mu.Lock()
	defer l.core.mu.Unlock()

	now := time.Now().Format(time.RFC3339)
	if l.core.jsonFormat {
		entry := map[string]string{
			"time":    now,
			"level":   level.String(),
			"message": message,
		}
		if l.name != "" {
			entry["logger"] = l.name
		}
		for k, v := range fields {
			entry[k] = fmt.Sprint(v)
		}
		data, err := json.Marshal(entry)
		if err != nil {
			return
		}
		fmt.Fprintln(l.core.out, string(data))
		return
	}

	var b strings.Builder
	b.WriteString(now)
	b.WriteString(" [")
	b.WriteString(level.String())
	b.WriteString("] ")
	if l.name != "" {
		b.WriteString(l.name)
		b.WriteString(": ")
	}
	b.WriteString(message)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, fields[k])
	}
	fmt.Fprintln(l.core.out, b.String())
}

// FieldLogger is a logger with a fixed set of fields
type FieldLogger struct {
	logger *Logger
	fields map[string]interface{}
}

func (f *FieldLogger) Debug(format string, args ...interface{}) {
	f.logger.log(DEBUG, f.fields, format, args...)
}

func (f *FieldLogger) Info(format string, args ...interface{}) {
	f.logger.log(INFO, f.fields, format, args...)
}

func (f *FieldLogger) Warning(format string, args ...interface{}) {
	f.logger.log(WARNING, f.fields, format, args...)
}

func (f *FieldLogger) Error(format string, args ...interface{}) {
	f.logger.log(ERROR, f.fields, format, args...)
}

// logrSink adapts Logger to logr.LogSink. logr verbosity 0 maps to INFO,
// anything above to DEBUG.
type logrSink struct {
	logger *Logger
	name   string
	values []interface{}
}

func (s *logrSink) Init(logr.RuntimeInfo) {}

func (s *logrSink) Enabled(level int) bool {
	if level > 0 {
		return s.logger.shouldLog(DEBUG)
	}
	return s.logger.shouldLog(INFO)
}

func (s *logrSink) Info(level int, msg string, keysAndValues ...interface{}) {
	lvl := INFO
	if level > 0 {
		lvl = DEBUG
	}
	s.logger.log(lvl, s.fields(keysAndValues), "%s", s.prefix(msg))
}

func (s *logrSink) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := s.fields(keysAndValues)
	if err != nil {
		fields["error"] = err.Error()
	}
	s.logger.log(ERROR, fields, "%s", s.prefix(msg))
}

func (s *logrSink) WithValues(keysAndValues ...interface{}) logr.LogSink {
	values := make([]interface{}, 0, len(s.values)+len(keysAndValues))
	values = append(values, s.values...)
	values = append(values, keysAndValues...)
	return &logrSink{logger: s.logger, name: s.name, values: values}
}

func (s *logrSink) WithName(name string) logr.LogSink {
	full := name
	if s.name != "" {
		full = s.name + "/" + name
	}
	return &logrSink{logger: s.logger, name: full, values: s.values}
}

func (s *logrSink) prefix(msg string) string {
	if s.name == "" {
		return msg
	}
	return s.name + ": " + msg
}

func (s *logrSink) fields(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{})
	all := append(append([]interface{}{}, s.values...), keysAndValues...)
	for i := 0; i+1 < len(all); i += 2 {
		fields[fmt.Sprint(all[i])] = all[i+1]
	}
	return fields
}
