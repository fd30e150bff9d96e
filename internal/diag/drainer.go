// SPDX-License-Identifier: MIT
package diag

import (
	"fmt"
	"sync"
	"time"

	applog "probe/internal/log"
	"probe/internal/transport"
)

// DrainerOptions configures a Drainer.
type DrainerOptions struct {
	Interval   time.Duration // Ticker period, defaults to 20ms
	BatchSize  int           // Samples handed to the transport per Send, defaults to 4096
	Summary    bool          // Log a BlockSummary per block at debug level
	FramesHint int           // Expected block size, sizes the summary buffers
}

// Drainer periodically empties a Ring into a transport. It runs in its own
// goroutine managed by Start and Stop.
type Drainer struct {
	ring      *Ring
	transport transport.Transport
	interval  time.Duration
	batch     []transport.Sample // Reused for every Send
	summary   *summarizer

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex

	sent        uint64
	sendErrors  uint64
	lastDropped uint64
}

// NewDrainer returns a stopped Drainer.
func NewDrainer(ring *Ring, t transport.Transport, opts DrainerOptions) (*Drainer, error) {
	if ring == nil {
		return nil, fmt.Errorf("diag: ring cannot be nil")
	}
	if t == nil {
		return nil, fmt.Errorf("diag: transport cannot be nil")
	}
	if opts.Interval <= 0 {
		opts.Interval = 20 * time.Millisecond
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 4096
	}

	d := &Drainer{
		ring:      ring,
		transport: t,
		interval:  opts.Interval,
		batch:     make([]transport.Sample, opts.BatchSize),
	}
	if opts.Summary {
		d.summary = newSummarizer(opts.FramesHint, logSummary)
	}
	return d, nil
}

func logSummary(s BlockSummary) {
	applog.Debugf("diag: block %d frames=%d peak=%.4f rms=%.4f mean=%.4f",
		s.Block, s.Frames, s.Peak, s.RMS, s.Mean)
}

// Start launches the drain goroutine. Calling Start on a running Drainer is a no-op.
func (d *Drainer) Start() {
	d.mu.Lock()
	if d.ticker != nil {
		d.mu.Unlock()
		applog.Warnf("Drainer: Start called but already running.")
		return
	}

	d.ticker = time.NewTicker(d.interval)
	d.doneChan = make(chan struct{})
	d.stopOnce = sync.Once{}

	ticker := d.ticker
	doneChan := d.doneChan
	d.mu.Unlock()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		applog.Debugf("Drainer: started (interval %s, batch %d)", d.interval, len(d.batch))
		for {
			select {
			case <-ticker.C:
				d.drain()
			case <-doneChan:
				d.drain()
				return
			}
		}
	}()
}

// Stop signals the goroutine, waits for its final drain and flushes any
// partial block summary. Calling Stop on a stopped Drainer is a no-op.
func (d *Drainer) Stop() error {
	d.mu.Lock()
	if d.ticker == nil {
		d.mu.Unlock()
		return nil
	}
	d.stopOnce.Do(func() {
		close(d.doneChan)
		d.ticker.Stop()
		d.ticker = nil
	})
	d.mu.Unlock()

	d.wg.Wait()
	if d.summary != nil {
		d.summary.flush()
	}
	applog.Debugf("Drainer: stopped after %d samples", d.sent)
	return nil
}

// drain empties the ring in batches. Only the drain goroutine calls it.
func (d *Drainer) drain() {
	for {
		n := d.ring.Drain(d.batch)
		if n == 0 {
			break
		}
		batch := d.batch[:n]
		if d.summary != nil {
			d.summary.add(batch)
		}
		if err := d.transport.Send(batch); err != nil {
			d.sendErrors++
			applog.Errorf("Drainer: transport error: %v", err)
		}
		d.sent += uint64(n)
		if n < len(d.batch) {
			break
		}
	}

	if dropped := d.ring.Dropped(); dropped != d.lastDropped {
		applog.Warnf("Drainer: diagnostic queue full, %d samples dropped (%d total)",
			dropped-d.lastDropped, dropped)
		d.lastDropped = dropped
	}
}

// DrainerStats is a snapshot of the Drainer's counters. Read it after Stop.
type DrainerStats struct {
	Sent       uint64
	SendErrors uint64
	Dropped    uint64
}

// Stats returns the counters. Only valid once the Drainer is stopped.
func (d *Drainer) Stats() DrainerStats {
	return DrainerStats{
		Sent:       d.sent,
		SendErrors: d.sendErrors,
		Dropped:    d.ring.Dropped(),
	}
}

// Close stops the drainer and closes its transport.
func (d *Drainer) Close() error {
	if err := d.Stop(); err != nil {
		return err
	}
	return d.transport.Close()
}
