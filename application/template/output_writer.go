package template

import (
	"errors"
	"strings"
)

var errOutputLimit = errors.New("rendered output limit reached")

// outputWriter collects rendered output up to a fixed size. Once a write
// would cross the limit nothing more is kept and every write fails.
type outputWriter struct {
	sb       strings.Builder
	limit    int
	exceeded bool
}

func newOutputWriter(limit int) *outputWriter {
	return &outputWriter{limit: limit}
}

func (w *outputWriter) Write(p []byte) (int, error) {
	if w.exceeded || w.sb.Len()+len(p) > w.limit {
		w.exceeded = true
		return 0, errOutputLimit
	}
	return w.sb.Write(p)
}

func (w *outputWriter) String() string {
	return w.sb.String()
}
