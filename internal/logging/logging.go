// Package logging provides a small leveled logger that writes RFC 5424
// structured syslog lines (spec §7: "structured log lines with
// level"), built on github.com/crewjam/rfc5424 for message framing.
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/crewjam/rfc5424"
)

// Level orders log severity; a Logger discards anything below its
// configured floor.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) priority() rfc5424.Priority {
	switch l {
	case DEBUG:
		return rfc5424.User | rfc5424.Debug
	case INFO:
		return rfc5424.User | rfc5424.Info
	case WARN:
		return rfc5424.User | rfc5424.Warning
	case ERROR:
		return rfc5424.User | rfc5424.Error
	default:
		return rfc5424.User | rfc5424.Info
	}
}

// Logger writes leveled lines to a single writer, serialized by a
// mutex since scan tasks log concurrently.
type Logger struct {
	mu       sync.Mutex
	w        io.Writer
	floor    Level
	hostname string
	appname  string
}

// New builds a Logger writing to w at the given floor level. appname
// identifies this process in the RFC5424 APP-NAME field.
func New(w io.Writer, floor Level, appname string) *Logger {
	hostname, _ := os.Hostname()
	return &Logger{w: w, floor: floor, hostname: hostname, appname: appname}
}

func (l *Logger) log(lvl Level, msg string) {
	if lvl < l.floor {
		return
	}
	m := rfc5424.Message{
		Priority:  lvl.priority(),
		Timestamp: time.Now(),
		Hostname:  l.hostname,
		AppName:   l.appname,
		MessageID: lvl.String(),
		Message:   []byte(msg),
	}
	b, err := m.MarshalBinary()
	if err != nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(b)
	l.w.Write([]byte("\n"))
}

func (l *Logger) Debug(format string, args ...any) { l.log(DEBUG, fmt.Sprintf(format, args...)) }
func (l *Logger) Info(format string, args ...any)  { l.log(INFO, fmt.Sprintf(format, args...)) }
func (l *Logger) Warn(format string, args ...any)  { l.log(WARN, fmt.Sprintf(format, args...)) }
func (l *Logger) Error(format string, args ...any) { l.log(ERROR, fmt.Sprintf(format, args...)) }
