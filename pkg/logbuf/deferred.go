// Package logbuf holds log output while the terminal is owned by a full
// screen program.
package logbuf

import (
	"bytes"
	"io"
	"sync"
)

// DeferredWriter buffers every Write until Flush. Each Write is kept as its
// own record so line-oriented writers such as zerolog.ConsoleWriter receive
// one event per call.
type DeferredWriter struct {
	mu      sync.Mutex
	records [][]byte
}

// Write stores a copy of p.
func (d *DeferredWriter) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.records = append(d.records, bytes.Clone(p))
	return len(p), nil
}

// Len returns the number of buffered records.
func (d *DeferredWriter) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.records)
}

// Flush writes the buffered records to w in order and clears the buffer.
func (d *DeferredWriter) Flush(w io.Writer) error {
	d.mu.Lock()
	records := d.records
	d.records = nil
	d.mu.Unlock()

	for _, r := range records {
		if _, err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}
