// Package logsink provides the plain-text adapter for the engine's trace
// log (component C8, engine.LogSink).
package logsink

import (
	"fmt"
	"io"
	"sync"

	"github.com/pedohorse/tankgrid-battle-sim/internal/engine"
)

// TextSink writes one line per (object, action, time, duration) tuple to w,
// in the teacher's fmt.Fprintf-based logging style. Safe for concurrent use,
// though the engine only ever calls Write from its single scheduler
// goroutine.
type TextSink struct {
	mu sync.Mutex
	w  io.Writer
}

var _ engine.LogSink = (*TextSink)(nil)

// NewTextSink wraps w (stdout, a log file, ...) as an engine.LogSink.
func NewTextSink(w io.Writer) *TextSink {
	return &TextSink{w: w}
}

func (s *TextSink) Write(objectLabel, actionLabel string, t, duration engine.GameTime) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "%d\t%s\t%s\t%d\n", t, objectLabel, actionLabel, duration)
}
