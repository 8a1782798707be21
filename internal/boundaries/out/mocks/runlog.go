package mocks

import (
	"bytes"
	"io"
	"sync"
)

// MemoryRunLog is an in-memory out.RunLog for tests.
type MemoryRunLog struct {
	mu   sync.Mutex
	logs map[string]*bytes.Buffer
}

// NewMemoryRunLog creates an empty in-memory run log.
func NewMemoryRunLog() *MemoryRunLog {
	return &MemoryRunLog{logs: make(map[string]*bytes.Buffer)}
}

func (r *MemoryRunLog) Open(name string) (io.WriteCloser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	buf, ok := r.logs[name]
	if !ok {
		buf = &bytes.Buffer{}
		r.logs[name] = buf
	}
	return &memoryWriter{mu: &r.mu, buf: buf}, nil
}

func (r *MemoryRunLog) Close() error { return nil }

// Contents returns everything written to the named log.
func (r *MemoryRunLog) Contents(name string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if buf, ok := r.logs[name]; ok {
		return buf.String()
	}
	return ""
}

type memoryWriter struct {
	mu  *sync.Mutex
	buf *bytes.Buffer
}

func (w *memoryWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

func (w *memoryWriter) Close() error { return nil }
