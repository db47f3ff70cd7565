package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Format is the encoding of a log file
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// FileLoggerConfig describes a log file and its rotation
type FileLoggerConfig struct {
	Path   string
	Format Format
	Level  Level
	// MaxSize in bytes triggers a rotation; 0 keeps a single growing file
	MaxSize int64
	// MaxBackups is how many rotated files (path.1 .. path.N) are kept
	MaxBackups int
}

// rotatingFile is an append-only file that shifts itself to numbered
// backups once it reaches maxSize. Safe for concurrent use.
type rotatingFile struct {
	path       string
	maxSize    int64
	maxBackups int

	mu   sync.Mutex
	file *os.File
	size int64
}

func openRotatingFile(path string, maxSize int64, maxBackups int) (*rotatingFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	rf := &rotatingFile{path: path, maxSize: maxSize, maxBackups: maxBackups}
	if err := rf.open(); err != nil {
		return nil, err
	}
	return rf, nil
}

func (rf *rotatingFile) open() error {
	file, err := os.OpenFile(rf.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}
	rf.file = file
	rf.size = info.Size()
	return nil
}

// writeLine appends one encoded entry. Writes after Close are dropped.
func (rf *rotatingFile) writeLine(line []byte) {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	if rf.file == nil {
		return
	}
	if rf.maxSize > 0 && rf.size >= rf.maxSize {
		rf.rotate()
		if rf.file == nil {
			return
		}
	}

	n, _ := rf.file.Write(line)
	rf.size += int64(n)
}

func (rf *rotatingFile) backup(n int) string {
	return fmt.Sprintf("%s.%d", rf.path, n)
}

// rotate shifts path.N-1 -> path.N ... path -> path.1 and reopens path.
// Must be called with mu held.
func (rf *rotatingFile) rotate() {
	rf.file.Close()
	rf.file = nil

	if rf.maxBackups > 0 {
		os.Remove(rf.backup(rf.maxBackups))
		for i := rf.maxBackups - 1; i >= 1; i-- {
			os.Rename(rf.backup(i), rf.backup(i+1))
		}
		os.Rename(rf.path, rf.backup(1))
	} else {
		os.Remove(rf.path)
	}

	if err := rf.open(); err != nil {
		rf.file = nil
	}
}

func (rf *rotatingFile) close() error {
	rf.mu.Lock()
	defer rf.mu.Unlock()

	if rf.file == nil {
		return nil
	}
	err := rf.file.Close()
	rf.file = nil
	return err
}

// FileLogger writes entries to a rotating log file. Loggers derived with
// WithFields share the parent's file, so closing any of them closes all.
type FileLogger struct {
	out    *rotatingFile
	format Format
	level  Level
	fields Fields
}

// NewFileLogger opens (or creates) the log file described by config
func NewFileLogger(config FileLoggerConfig) (*FileLogger, error) {
	out, err := openRotatingFile(config.Path, config.MaxSize, config.MaxBackups)
	if err != nil {
		return nil, err
	}
	return &FileLogger{out: out, format: config.Format, level: config.Level}, nil
}

func (l *FileLogger) Debug(ctx context.Context, msg string, fields Fields) {
	l.log(DebugLevel, msg, nil, fields)
}

func (l *FileLogger) Info(ctx context.Context, msg string, fields Fields) {
	l.log(InfoLevel, msg, nil, fields)
}

func (l *FileLogger) Warn(ctx context.Context, msg string, fields Fields) {
	l.log(WarnLevel, msg, nil, fields)
}

func (l *FileLogger) Error(ctx context.Context, msg string, err error, fields Fields) {
	l.log(ErrorLevel, msg, err, fields)
}

// WithFields returns a logger that adds fields to every entry
func (l *FileLogger) WithFields(fields Fields) Logger {
	derived := *l
	derived.fields = mergeFields(l.fields, fields)
	return &derived
}

// Close closes the shared log file
func (l *FileLogger) Close() error {
	return l.out.close()
}

func (l *FileLogger) log(level Level, msg string, err error, fields Fields) {
	if level < l.level {
		return
	}

	e := entry{
		time:   time.Now().UTC(),
		level:  level,
		msg:    msg,
		err:    err,
		fields: mergeFields(l.fields, fields),
	}

	var line []byte
	if l.format == FormatJSON {
		var encErr error
		if line, encErr = e.json(); encErr != nil {
			return
		}
	} else {
		line = e.text()
	}

	l.out.writeLine(line)
}

type entry struct {
	time   time.Time
	level  Level
	msg    string
	err    error
	fields Fields
}

// json encodes the entry as one object. Fields never shadow the
// timestamp, level, message and error keys.
func (e entry) json() ([]byte, error) {
	obj := make(map[string]interface{}, len(e.fields)+4)
	for k, v := range e.fields {
		obj[k] = v
	}
	obj["timestamp"] = e.time.Format(time.RFC3339)
	obj["level"] = e.level.String()
	obj["message"] = e.msg
	if e.err != nil {
		obj["error"] = e.err.Error()
	}

	data, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func (e entry) text() []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] %s", e.time.Format("2006-01-02T15:04:05.000Z"), e.level, e.msg)
	if e.err != nil {
		fmt.Fprintf(&b, " error=%q", e.err.Error())
	}
	b.WriteString(formatFields(e.fields))
	b.WriteByte('\n')
	return []byte(b.String())
}

// formatFields renders fields as " k=v" pairs in key order
func formatFields(fields Fields) string {
	if len(fields) == 0 {
		return ""
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, fields[k])
	}
	return b.String()
}

func mergeFields(base, extra Fields) Fields {
	if len(extra) == 0 {
		return base
	}
	merged := make(Fields, len(base)+len(extra))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}
