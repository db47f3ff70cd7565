package logging

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// ConsoleLogger writes short human-readable lines to a writer, normally
// the terminal. When the writer coordinates with a progress line (see
// output.Console) each log line is printed above the bar.
type ConsoleLogger struct {
	w      io.Writer
	level  Level
	mu     *sync.Mutex
	fields Fields
}

// NewConsoleLogger creates a console logger writing to w
func NewConsoleLogger(w io.Writer, level Level) *ConsoleLogger {
	return &ConsoleLogger{w: w, level: level, mu: &sync.Mutex{}}
}

// Debug logs a debug message
func (l *ConsoleLogger) Debug(ctx context.Context, msg string, fields Fields) {
	l.log(DebugLevel, msg, nil, fields)
}

// Info logs an info message
func (l *ConsoleLogger) Info(ctx context.Context, msg string, fields Fields) {
	l.log(InfoLevel, msg, nil, fields)
}

// Warn logs a warning message
func (l *ConsoleLogger) Warn(ctx context.Context, msg string, fields Fields) {
	l.log(WarnLevel, msg, nil, fields)
}

// Error logs an error message
func (l *ConsoleLogger) Error(ctx context.Context, msg string, err error, fields Fields) {
	l.log(ErrorLevel, msg, err, fields)
}

// WithFields returns a logger with additional fields
func (l *ConsoleLogger) WithFields(fields Fields) Logger {
	return &ConsoleLogger{
		w:      l.w,
		level:  l.level,
		mu:     l.mu,
		fields: mergeFields(l.fields, fields),
	}
}

// Close does nothing; the writer belongs to the caller
func (l *ConsoleLogger) Close() error {
	return nil
}

func (l *ConsoleLogger) log(level Level, msg string, err error, fields Fields) {
	if level < l.level || l.w == nil {
		return
	}

	line := fmt.Sprintf("%s - %s - %s", time.Now().Format("2006-01-02 15:04:05"), level.String(), msg)
	if err != nil {
		line += ": " + err.Error()
	}
	line += formatFields(mergeFields(l.fields, fields))

	l.mu.Lock()
	defer l.mu.Unlock()
	io.WriteString(l.w, line+"\n")
}
