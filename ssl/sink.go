package ssl

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Severity ranks sink records.
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// Sink receives per-connection diagnostics.  Implementations must not
// block and must not fail; the adapters call Record mid-loop.
type Sink interface {
	Record(sev Severity, msg string)
}

func recordf(s Sink, sev Severity, format string, args ...interface{}) {
	if s == nil {
		return
	}
	s.Record(sev, fmt.Sprintf(format, args...))
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) Record(Severity, string) {}

// LogrusSink forwards records to a logrus logger.
type LogrusSink struct {
	Logger logrus.FieldLogger
}

// NewLogrusSink returns a sink on the given logger, or on the logrus
// standard logger when l is nil.
func NewLogrusSink(l logrus.FieldLogger) LogrusSink {
	if l == nil {
		l = logrus.StandardLogger()
	}
	return LogrusSink{Logger: l}
}

func (s LogrusSink) Record(sev Severity, msg string) {
	switch sev {
	case SeverityError:
		s.Logger.Error(msg)
	case SeverityWarning:
		s.Logger.Warning(msg)
	default:
		s.Logger.Debug(msg)
	}
}
