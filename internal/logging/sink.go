package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dshills/scriptbridge/internal/host"
)

// WriterSink writes timestamped lines to an io.Writer.
type WriterSink struct {
	out io.Writer
	now func() time.Time
}

// NewWriterSink creates a sink writing to w (stderr when nil).
func NewWriterSink(w io.Writer) *WriterSink {
	if w == nil {
		w = os.Stderr
	}
	return &WriterSink{out: w, now: time.Now}
}

// HandleLog writes one line.
func (s *WriterSink) HandleLog(level, message string) {
	ts := s.now().Format("2006-01-02T15:04:05.000")
	_, _ = fmt.Fprintf(s.out, "%s [%s] %s\n", ts, strings.ToUpper(level), message)
}

// HostSink forwards records to the engine's log sink, renaming levels to
// the engine vocabulary on the way.
type HostSink struct {
	sink host.LogSink
}

// NewHostSink wraps the engine's log sink.
func NewHostSink(sink host.LogSink) *HostSink {
	return &HostSink{sink: sink}
}

// HandleLog forwards the record.
func (s *HostSink) HandleLog(level, message string) {
	s.sink.HandleLog(NormalizeLevel(level), message)
}

// MultiSink fans records out to several sinks.
type MultiSink []Sink

// HandleLog forwards the record to every sink.
func (m MultiSink) HandleLog(level, message string) {
	for _, s := range m {
		s.HandleLog(level, message)
	}
}
