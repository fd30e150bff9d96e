// SPDX-License-Identifier: MIT
package transport

import (
	"bufio"
	"io"
	"strconv"
	"sync"
)

// WriterTransport prints one "<index> <value>" line per sample, the value
// rendered with two decimals. It is the console sink.
type WriterTransport struct {
	mu   sync.Mutex
	w    *bufio.Writer
	line []byte // Scratch buffer reused for every line
}

// NewWriterTransport wraps w. Output is buffered and flushed once per batch.
func NewWriterTransport(w io.Writer) *WriterTransport {
	return &WriterTransport{
		w:    bufio.NewWriter(w),
		line: make([]byte, 0, 32),
	}
}

// Send writes the batch and flushes it.
func (wt *WriterTransport) Send(batch []Sample) error {
	wt.mu.Lock()
	defer wt.mu.Unlock()

	for _, s := range batch {
		wt.line = AppendLine(wt.line[:0], s)
		if _, err := wt.w.Write(wt.line); err != nil {
			return err
		}
	}
	return wt.w.Flush()
}

// Close flushes anything still buffered.
func (wt *WriterTransport) Close() error {
	wt.mu.Lock()
	defer wt.mu.Unlock()
	return wt.w.Flush()
}

// AppendLine appends the diagnostic line for s, including the trailing newline.
func AppendLine(dst []byte, s Sample) []byte {
	dst = strconv.AppendInt(dst, int64(s.Index), 10)
	dst = append(dst, ' ')
	dst = strconv.AppendFloat(dst, float64(s.Value), 'f', 2, 32)
	return append(dst, '\n')
}

var _ Transport = (*WriterTransport)(nil)
