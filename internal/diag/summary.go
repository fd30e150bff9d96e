// SPDX-License-Identifier: MIT
package diag

import (
	"math"

	"probe/internal/transport"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// BlockSummary describes one observed block.
type BlockSummary struct {
	Block  uint64
	Frames int
	Peak   float64 // Largest absolute sample
	RMS    float64
	Mean   float64 // DC offset
}

// summarizer reassembles blocks from the sample stream. A sample with index 0
// starts a new block, which closes the previous one.
type summarizer struct {
	block   uint64
	values  []float64
	scratch []float64
	emit    func(BlockSummary)
}

func newSummarizer(framesHint int, emit func(BlockSummary)) *summarizer {
	return &summarizer{
		values:  make([]float64, 0, framesHint),
		scratch: make([]float64, 0, framesHint),
		emit:    emit,
	}
}

func (s *summarizer) add(batch []transport.Sample) {
	for _, smp := range batch {
		if smp.Index == 0 && len(s.values) > 0 {
			s.flush()
		}
		s.values = append(s.values, float64(smp.Value))
	}
}

// flush closes the block in progress, if any.
func (s *summarizer) flush() {
	if len(s.values) == 0 {
		return
	}
	s.block++
	s.emit(summarize(s.block, s.values, &s.scratch))
	s.values = s.values[:0]
}

func summarize(block uint64, values []float64, scratch *[]float64) BlockSummary {
	abs := (*scratch)[:0]
	for _, v := range values {
		abs = append(abs, math.Abs(v))
	}
	*scratch = abs

	return BlockSummary{
		Block:  block,
		Frames: len(values),
		Peak:   floats.Max(abs),
		RMS:    floats.Norm(values, 2) / math.Sqrt(float64(len(values))),
		Mean:   stat.Mean(values, nil),
	}
}
