// Package logging provides a small, goroutine-safe leveled logger shared
// across the daemon, the scanner, and the mission.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Logger is a lightweight logger safe for concurrent use from many
// goroutines at once (scan workers, the watcher loop, RPC handlers).
type Logger struct {
	mu     sync.Mutex
	out    io.Writer
	debug  bool
	fields []string
}

// New returns a Logger writing to w. debug controls whether Debug-level
// lines are emitted at all.
func New(w io.Writer, debug bool) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return &Logger{out: w, debug: debug}
}

// With returns a copy of the logger that prefixes every subsequent line
// with the given key=value fields, without affecting the receiver.
func (l *Logger) With(fields ...string) *Logger {
	next := &Logger{out: l.out, debug: l.debug, fields: append(append([]string{}, l.fields...), fields...)}
	return next
}

func (l *Logger) log(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ts := time.Now().Format("2006-01-02T15:04:05")
	line := fmt.Sprintf("%s [%s] %s", ts, level, msg)
	if len(l.fields) > 0 {
		line += " " + strings.Join(l.fields, " ")
	}
	fmt.Fprintln(l.out, line)
}

func (l *Logger) Debugf(format string, args ...any) {
	if !l.debug {
		return
	}
	l.log("DEBUG", fmt.Sprintf(format, args...))
}

func (l *Logger) Infof(format string, args ...any) { l.log("INFO", fmt.Sprintf(format, args...)) }
func (l *Logger) Warnf(format string, args ...any)  { l.log("WARN", fmt.Sprintf(format, args...)) }
func (l *Logger) Errorf(format string, args ...any) { l.log("ERROR", fmt.Sprintf(format, args...)) }
