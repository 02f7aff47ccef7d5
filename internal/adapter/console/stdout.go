package console

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Reporter writes one milestone line per call. Lines always end in a newline
// so external scrapers can match them individually.
type Reporter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewReporter creates a reporter writing to w, or stdout when w is nil.
func NewReporter(w io.Writer) *Reporter {
	if w == nil {
		w = os.Stdout
	}
	return &Reporter{w: w}
}

// Printf formats and writes a single line.
func (r *Reporter) Printf(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = io.WriteString(r.w, line)
}
