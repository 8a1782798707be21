package archive

import (
	"bytes"
	"io"
	"strings"

	"github.com/stackkeeper/stackkeeper/internal/domain"
)

// lineWriter splits archiver output into lines, forwards each raw line to
// the run log and a classified copy to the display callback.
type lineWriter struct {
	raw     io.Writer
	display func(domain.OutputLine)
	buf     []byte
}

func newLineWriter(raw io.Writer, display func(domain.OutputLine)) *lineWriter {
	return &lineWriter{raw: raw, display: display}
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexAny(w.buf, "\r\n")
		if i < 0 {
			break
		}
		w.emit(string(w.buf[:i]))
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}

// Flush emits a trailing line that was not newline terminated.
func (w *lineWriter) Flush() {
	if len(w.buf) > 0 {
		w.emit(string(w.buf))
		w.buf = nil
	}
}

func (w *lineWriter) emit(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	if w.raw != nil {
		_, _ = io.WriteString(w.raw, line+"\n")
	}
	if w.display != nil {
		w.display(domain.OutputLine{Class: domain.ClassifyLine(line), Text: line})
	}
}
