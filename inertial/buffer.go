// Package inertial buffers gyroscope samples and integrates them into the rotation predicted
// between two image frames.
package inertial

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/Taeyoung96/VINS-RGBD-FAST/spatialmath"
)

// ErrOutOfOrder is returned when a sample is older than the newest buffered one.
var ErrOutOfOrder = errors.New("inertial sample out of order")

// Sample is a single gyroscope reading. Orientation and linear acceleration are not used.
type Sample struct {
	Timestamp       float64
	AngularVelocity spatialmath.AngularVelocity
}

// Buffer is a time ordered queue of samples. It is appended to by the inertial stream and read
// and trimmed by the image stream; every access happens under one mutex so the two can be
// driven from different goroutines.
type Buffer struct {
	mu      sync.Mutex
	samples []Sample
}

// NewBuffer returns an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Append adds a sample. Samples must arrive with non-decreasing timestamps; an older sample is
// rejected with ErrOutOfOrder and the buffer is left untouched.
func (b *Buffer) Append(s Sample) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n := len(b.samples); n > 0 && s.Timestamp < b.samples[n-1].Timestamp {
		return errors.Wrapf(ErrOutOfOrder, "sample at %.6f is older than buffered %.6f", s.Timestamp, b.samples[n-1].Timestamp)
	}
	b.samples = append(b.samples, s)
	return nil
}

// Len returns the number of buffered samples.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.samples)
}

// Snapshot returns a copy of the buffered samples.
func (b *Buffer) Snapshot() []Sample {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Sample, len(b.samples))
	copy(out, b.samples)
	return out
}

// Clear drops every sample.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.samples = nil
}

// consume returns the angular velocities of the contiguous run of samples with
// lo <= ts < hi, found by scanning from the front, and drops everything before the end of
// that run. ok is false if the buffer was empty.
func (b *Buffer) consume(lo, hi float64) (window []spatialmath.AngularVelocity, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.samples) == 0 {
		return nil, false
	}

	begin := 0
	for begin < len(b.samples) && b.samples[begin].Timestamp < lo {
		begin++
	}
	end := begin
	for end < len(b.samples) && b.samples[end].Timestamp < hi {
		end++
	}

	window = make([]spatialmath.AngularVelocity, 0, end-begin)
	for _, s := range b.samples[begin:end] {
		window = append(window, s.AngularVelocity)
	}

	remaining := make([]Sample, len(b.samples)-end)
	copy(remaining, b.samples[end:])
	b.samples = remaining
	return window, true
}
