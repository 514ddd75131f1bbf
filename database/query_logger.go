package database

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm/logger"
)

// QueryLog is one recorded SQL statement
type QueryLog struct {
	ID        int           `json:"id"`
	SQL       string        `json:"sql"`
	Duration  time.Duration `json:"duration_ns"`
	Rows      int64         `json:"rows"`
	Error     string        `json:"error,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// QueryLogger keeps the last statements in a fixed-size ring. It backs the
// debug SQL endpoint and the per-page SQL panel.
type QueryLogger struct {
	mu    sync.RWMutex
	ring  []QueryLog
	next  int // slot the next statement goes into
	size  int
	total int // statements seen, including overwritten ones
}

// NewQueryLogger creates a QueryLogger holding up to capacity statements
func NewQueryLogger(capacity int) *QueryLogger {
	if capacity < 1 {
		capacity = 1
	}
	return &QueryLogger{ring: make([]QueryLog, capacity)}
}

// LogQuery records one statement, overwriting the oldest when full
func (ql *QueryLogger) LogQuery(sql string, duration time.Duration, rows int64, err error) {
	ql.mu.Lock()
	defer ql.mu.Unlock()

	ql.total++
	entry := QueryLog{
		ID:        ql.total,
		SQL:       sql,
		Duration:  duration,
		Rows:      rows,
		Timestamp: time.Now(),
	}
	if err != nil {
		entry.Error = err.Error()
	}

	ql.ring[ql.next] = entry
	ql.next = (ql.next + 1) % len(ql.ring)
	if ql.size < len(ql.ring) {
		ql.size++
	}
}

// Recent returns up to n statements, newest first
func (ql *QueryLogger) Recent(n int) []QueryLog {
	ql.mu.RLock()
	defer ql.mu.RUnlock()

	if n < 0 {
		n = 0
	}
	if n > ql.size {
		n = ql.size
	}

	out := make([]QueryLog, n)
	for i := range out {
		out[i] = ql.ring[(ql.next-1-i+len(ql.ring))%len(ql.ring)]
	}
	return out
}

// All returns every retained statement, newest first
func (ql *QueryLogger) All() []QueryLog {
	return ql.Recent(len(ql.ring))
}

// Clear forgets the retained statements. Count keeps growing.
func (ql *QueryLogger) Clear() {
	ql.mu.Lock()
	defer ql.mu.Unlock()
	ql.size = 0
}

// Count is the number of statements seen since start
func (ql *QueryLogger) Count() int {
	ql.mu.RLock()
	defer ql.mu.RUnlock()
	return ql.total
}

// RecordingLogger is a gorm logger that also records every statement
type RecordingLogger struct {
	logger.Interface
	Queries *QueryLogger
}

// LogMode keeps the recorder when gorm changes the level
func (l *RecordingLogger) LogMode(level logger.LogLevel) logger.Interface {
	return &RecordingLogger{Interface: l.Interface.LogMode(level), Queries: l.Queries}
}

// Trace records the statement after handing it to the wrapped logger
func (l *RecordingLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.Interface != nil {
		l.Interface.Trace(ctx, begin, fc, err)
	}
	if l.Queries == nil {
		return
	}
	sql, rows := fc()
	l.Queries.LogQuery(sql, time.Since(begin), rows, err)
}
