package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync/atomic"
	"time"
)

// Logger provides leveled logging. One Logger is created per harvest
// invocation and handed to every component that needs to report progress.
type Logger struct {
	info  *log.Logger
	warn  *log.Logger
	err   *log.Logger
	debug *log.Logger

	debugOn atomic.Bool
	color   bool
}

// NewLogger creates a Logger writing to stdout/stderr with ANSI colours.
func NewLogger() *Logger {
	l := &Logger{
		info:  log.New(os.Stdout, "", 0),
		warn:  log.New(os.Stdout, "", 0),
		err:   log.New(os.Stderr, "", 0),
		debug: log.New(os.Stdout, "", 0),
		color: true,
	}
	l.debugOn.Store(true)
	return l
}

// NewLoggerTo creates a colourless Logger sending every level to w.
func NewLoggerTo(w io.Writer) *Logger {
	l := &Logger{
		info:  log.New(w, "", 0),
		warn:  log.New(w, "", 0),
		err:   log.New(w, "", 0),
		debug: log.New(w, "", 0),
	}
	l.debugOn.Store(true)
	return l
}

// Discard returns a Logger that drops everything.
func Discard() *Logger {
	return NewLoggerTo(io.Discard)
}

// SetDebug toggles Debug output.
func (l *Logger) SetDebug(on bool) {
	l.debugOn.Store(on)
}

func (l *Logger) timestamp() string {
	return time.Now().Format("2006-01-02 15:04:05")
}

func (l *Logger) line(level, ansi, format string) string {
	if l.color {
		return fmt.Sprintf("[%s] \033[%sm%-5s\033[0m %s\n", l.timestamp(), ansi, level, format)
	}
	return fmt.Sprintf("[%s] %-5s %s\n", l.timestamp(), level, format)
}

func (l *Logger) Info(format string, args ...any) {
	l.info.Printf(l.line("INFO", "32", format), args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.warn.Printf(l.line("WARN", "33", format), args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.err.Printf(l.line("ERROR", "31", format), args...)
}

func (l *Logger) Debug(format string, args ...any) {
	if !l.debugOn.Load() {
		return
	}
	l.debug.Printf(l.line("DEBUG", "36", format), args...)
}
