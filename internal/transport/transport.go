// SPDX-License-Identifier: MIT
package transport

import (
	"errors"
)

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("transport closed")

// Sample is one observed value and its position inside the block it came from.
type Sample struct {
	Index int
	Value float32
}

// Transport delivers drained samples somewhere outside the process.
// Send is only ever called from the non-real-time drainer goroutine, never
// from the audio callback. The batch is reused after Send returns, so
// implementations that keep samples must copy them.
type Transport interface {
	Send(batch []Sample) error
	Close() error
}

// Multi fans every batch out to several transports.
type Multi []Transport

// Send forwards batch to every transport, even when an earlier one fails.
func (m Multi) Send(batch []Sample) error {
	var errs []error
	for _, t := range m {
		if err := t.Send(batch); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every transport and joins their errors.
func (m Multi) Close() error {
	var errs []error
	for _, t := range m {
		if err := t.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ Transport = Multi(nil)
