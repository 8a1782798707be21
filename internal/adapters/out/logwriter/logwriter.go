// Package logwriter persists raw tool output (archiver, image pulls) to rotated files.
package logwriter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds the configuration for the log writer.
type Config struct {
	// Dir is the directory where run logs are stored.
	Dir string
	// MaxSize is the maximum size in megabytes before rotation.
	MaxSize int
	// MaxBackups is the number of old log files to retain.
	MaxBackups int
	// MaxAge is the maximum number of days to retain old log files.
	MaxAge int
}

// LogWriter implements the RunLog interface.
type LogWriter struct {
	config  Config
	loggers map[string]*lumberjack.Logger
	mu      sync.Mutex
	now     func() time.Time
}

// New creates a new LogWriter.
func New(config Config) (*LogWriter, error) {
	// Ensure the log directory exists
	if err := os.MkdirAll(config.Dir, 0700); err != nil {
		return nil, err
	}

	return &LogWriter{
		config:  config,
		loggers: make(map[string]*lumberjack.Logger),
		now:     time.Now,
	}, nil
}

// Open returns an append-only writer for <Dir>/<name>.log. Writers opened for
// the same name share one rotating file; closing a writer leaves the file open
// until Close is called on the LogWriter.
func (w *LogWriter) Open(name string) (io.WriteCloser, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	filename := sanitizeName(name) + ".log"
	logger, ok := w.loggers[filename]
	if !ok {
		logger = &lumberjack.Logger{
			Filename:   filepath.Join(w.config.Dir, filename),
			MaxSize:    w.config.MaxSize,
			MaxBackups: w.config.MaxBackups,
			MaxAge:     w.config.MaxAge,
			Compress:   true,
		}
		w.loggers[filename] = logger
	}

	h := &handle{mu: &w.mu, logger: logger}
	if _, err := fmt.Fprintf(logger, "=== %s ===\n", w.now().Format(time.RFC3339)); err != nil {
		return nil, err
	}
	return h, nil
}

// Close releases all files opened so far.
func (w *LogWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var firstErr error
	for filename, logger := range w.loggers {
		if err := logger.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(w.loggers, filename)
	}
	return firstErr
}

// handle serializes writes to a shared logger.
type handle struct {
	mu     *sync.Mutex
	logger *lumberjack.Logger
	closed bool
}

func (h *handle) Write(p []byte) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return 0, os.ErrClosed
	}
	return h.logger.Write(p)
}

func (h *handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

// sanitizeName converts a log name to a safe filename.
func sanitizeName(name string) string {
	safe := strings.ReplaceAll(name, "/", "_")
	safe = strings.ReplaceAll(safe, ":", "_")
	safe = strings.ReplaceAll(safe, " ", "_")
	safe = strings.ReplaceAll(safe, "..", "_")
	if safe == "" {
		safe = "run"
	}
	return safe
}
