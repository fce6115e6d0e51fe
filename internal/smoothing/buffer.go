// Package smoothing provides the moving-average filter used to damp per-frame
// jitter in landmark-derived signals before threshold comparison.
package smoothing

import "gonum.org/v1/gonum/stat"

// Buffer is a fixed-capacity moving average over the most recent samples.
type Buffer struct {
	data   []float64
	window []float64
	pos    int
	full   bool
}

// New creates a Buffer averaging over the last size samples.
// Sizes below 1 are treated as 1.
func New(size int) *Buffer {
	if size < 1 {
		size = 1
	}
	return &Buffer{
		data:   make([]float64, size),
		window: make([]float64, 0, size),
	}
}

// Add pushes v, evicting the oldest sample once the buffer is full,
// and returns the mean of the current window.
func (b *Buffer) Add(v float64) float64 {
	b.data[b.pos] = v
	b.pos++
	if b.pos == len(b.data) {
		b.pos = 0
		b.full = true
	}
	return b.Mean()
}

// Mean returns the mean of the current window, or 0 when empty.
func (b *Buffer) Mean() float64 {
	n := b.Len()
	if n == 0 {
		return 0
	}
	b.window = append(b.window[:0], b.data[:n]...)
	return stat.Mean(b.window, nil)
}

// Len returns the number of samples currently held.
func (b *Buffer) Len() int {
	if b.full {
		return len(b.data)
	}
	return b.pos
}

// Cap returns the window size.
func (b *Buffer) Cap() int {
	return len(b.data)
}

// Reset discards all samples.
func (b *Buffer) Reset() {
	b.pos = 0
	b.full = false
	clear(b.data)
}
