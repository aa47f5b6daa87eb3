package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// CallLog is one structured record of a single RPC call or one-shot CLI
// invocation (Validator/Assimilator), distinct from the operational
// logger: it is meant to be aggregated/queried per task_id, not just
// tailed.
type CallLog struct {
	Timestamp    time.Time `json:"timestamp"`
	Component    string    `json:"component"` // gateway, validator, assimilator
	Method       string    `json:"method"`    // CreateTask, PollTask, init, compare, success, error
	TaskID       string    `json:"task_id,omitempty"`
	DurationMs   int64     `json:"duration_ms"`
	Success      bool      `json:"success"`
	Error        string    `json:"error,omitempty"`
	ExitCode     int       `json:"exit_code,omitempty"`
	ResultStatus string    `json:"result_status,omitempty"`
}

// Logger handles per-call logging, independent of the operational slog
// logger (Op()).
type Logger struct {
	mu      sync.Mutex
	enabled bool
	file    *os.File
	console bool
}

var defaultLogger = &Logger{enabled: true, console: true}

// Default returns the default per-call Logger.
func Default() *Logger {
	return defaultLogger
}

// SetOutput appends call logs to the given file in addition to console
// output.
func (l *Logger) SetOutput(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		l.file.Close()
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	l.file = f
	return nil
}

// SetConsole enables/disables human-readable console output.
func (l *Logger) SetConsole(enabled bool) {
	l.mu.Lock()
	l.console = enabled
	l.mu.Unlock()
}

// Log writes one call log entry.
func (l *Logger) Log(entry *CallLog) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.enabled {
		return
	}
	entry.Timestamp = time.Now()

	if l.console {
		status := "ok"
		if !entry.Success {
			status = "fail"
		}
		fmt.Printf("[%s] %s %s %s %dms\n", entry.Component, entry.Method, entry.TaskID, status, entry.DurationMs)
	}

	if l.file != nil {
		data, err := json.Marshal(entry)
		if err == nil {
			l.file.Write(append(data, '\n'))
		}
	}
}
