package l2signal

import (
	"github.com/banshee-data/vitals.report/internal/vitals/ring"
)

// DefaultBufferCapacity is the number of filtered samples retained.
const DefaultBufferCapacity = 300

// Sample is one filtered PPG value with its frame timestamp.
type Sample struct {
	Value       float64
	TimestampMs int64
}

// SampleBuffer retains the most recent filtered samples, oldest first.
type SampleBuffer struct {
	buf *ring.Buffer[Sample]
}

// NewSampleBuffer returns a buffer holding at most capacity samples.
func NewSampleBuffer(capacity int) *SampleBuffer {
	if capacity < 1 {
		capacity = DefaultBufferCapacity
	}
	return &SampleBuffer{buf: ring.New[Sample](capacity)}
}

// Add appends a sample, evicting the oldest when full.
func (b *SampleBuffer) Add(s Sample) {
	b.buf.Push(s)
}

// Len returns the number of buffered samples.
func (b *SampleBuffer) Len() int { return b.buf.Len() }

// Cap returns the buffer capacity.
func (b *SampleBuffer) Cap() int { return b.buf.Cap() }

// Latest returns the newest sample.
func (b *SampleBuffer) Latest() (Sample, bool) { return b.buf.Last() }

// Values returns up to n of the newest sample values, oldest first.
func (b *SampleBuffer) Values(n int) []float64 {
	tail := b.buf.Tail(n)
	out := make([]float64, len(tail))
	for i, s := range tail {
		out[i] = s.Value
	}
	return out
}

// Samples returns up to n of the newest samples, oldest first.
func (b *SampleBuffer) Samples(n int) []Sample {
	return b.buf.Tail(n)
}

// Reset empties the buffer.
func (b *SampleBuffer) Reset() {
	b.buf.Clear()
}
