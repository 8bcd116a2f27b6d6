package ulogger

import (
	"strings"
	"sync"
	"testing"
)

var verboseLevels = map[string]int{"DEBUG": 0, "INFO": 1, "WARN": 2, "ERROR": 3, "FATAL": 4}

// VerboseTestLogger writes to the test log, so output only shows for failing tests or with -v.
// Loggers derived with New share the test and the lock, and prefix their service name.
type VerboseTestLogger struct {
	tb      testing.TB
	service string
	level   int
	mu      *sync.Mutex
}

func NewVerboseTestLogger(tb testing.TB, opts ...Option) *VerboseTestLogger {
	o := &Options{logLevel: "DEBUG"}
	for _, opt := range opts {
		opt(o)
	}

	l := &VerboseTestLogger{tb: tb, mu: &sync.Mutex{}}
	l.SetLogLevel(o.logLevel)

	return l
}

func (l *VerboseTestLogger) LogLevel() int {
	return l.level
}

// SetLogLevel ignores unknown levels.
func (l *VerboseTestLogger) SetLogLevel(level string) {
	if lvl, ok := verboseLevels[strings.ToUpper(level)]; ok {
		l.level = lvl
	}
}

func (l *VerboseTestLogger) New(service string, options ...Option) Logger {
	c := *l
	c.service = service

	o := &Options{}
	for _, opt := range options {
		opt(o)
	}

	c.SetLogLevel(o.logLevel)

	return &c
}

func (l *VerboseTestLogger) Duplicate(options ...Option) Logger {
	return l.New(l.service, options...)
}

func (l *VerboseTestLogger) log(level, format string, args []interface{}) {
	if verboseLevels[level] < l.level {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.tb.Helper()

	if l.service != "" {
		format = l.service + " " + format
	}

	l.tb.Logf("["+level+"] "+format, args...)
}

func (l *VerboseTestLogger) Debugf(format string, args ...interface{}) {
	l.log("DEBUG", format, args)
}

func (l *VerboseTestLogger) Infof(format string, args ...interface{}) {
	l.log("INFO", format, args)
}

func (l *VerboseTestLogger) Warnf(format string, args ...interface{}) {
	l.log("WARN", format, args)
}

func (l *VerboseTestLogger) Errorf(format string, args ...interface{}) {
	l.log("ERROR", format, args)
}

func (l *VerboseTestLogger) Fatalf(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.tb.Fatalf("[FATAL] "+format, args...)
}
