package log

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// RawLogger records every line received from the keypad controller.
type RawLogger interface {
	Log(line []byte)
}

// rawLogger implements RawLogger with thread-safe writes.
type rawLogger struct {
	w  io.Writer
	mu sync.Mutex
}

// NewRaw creates a new RawLogger. If writer is nil, returns a no-op logger.
func NewRaw(w io.Writer) RawLogger {
	return &rawLogger{w: w}
}

// Log emits a single line with timestamp, length and the quoted bytes.
func (r *rawLogger) Log(line []byte) {
	if len(line) == 0 || r.w == nil {
		return
	}

	out := fmt.Sprintf("%s rx %d bytes: %q\n",
		time.Now().Format("2006/01/02 15:04:05.000"),
		len(line),
		line)

	r.mu.Lock()
	_, _ = io.WriteString(r.w, out)
	r.mu.Unlock()
}
