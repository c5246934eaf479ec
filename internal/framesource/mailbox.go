package framesource

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/banshee-data/vitals.report/internal/vitals/l1frames"
)

// ErrClosed is returned by Next once the mailbox is closed and drained.
var ErrClosed = errors.New("framesource: closed")

// Mailbox is a capacity-one handoff between one producer and one consumer.
// Put never blocks: an unread frame is replaced by the newer one.
type Mailbox struct {
	ch        chan l1frames.Frame
	done      chan struct{}
	closeOnce sync.Once
	putMu     sync.Mutex

	delivered atomic.Uint64
	dropped   atomic.Uint64
}

// NewMailbox returns an empty, open mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{
		ch:   make(chan l1frames.Frame, 1),
		done: make(chan struct{}),
	}
}

// Put offers f to the consumer, displacing any unread frame. It reports
// whether a frame was displaced. Put after Close is a no-op.
func (m *Mailbox) Put(f l1frames.Frame) (replaced bool) {
	m.putMu.Lock()
	defer m.putMu.Unlock()

	select {
	case <-m.done:
		return false
	default:
	}
	for {
		select {
		case m.ch <- f:
			m.delivered.Add(1)
			return replaced
		default:
		}
		select {
		case <-m.ch:
			m.dropped.Add(1)
			replaced = true
		default:
		}
	}
}

// Next blocks until a frame is available, the mailbox is closed, or ctx is
// done. A frame put before Close is still returned.
func (m *Mailbox) Next(ctx context.Context) (l1frames.Frame, error) {
	select {
	case f := <-m.ch:
		return f, nil
	case <-ctx.Done():
		return l1frames.Frame{}, ctx.Err()
	case <-m.done:
		select {
		case f := <-m.ch:
			return f, nil
		default:
			return l1frames.Frame{}, ErrClosed
		}
	}
}

// Frames exposes the receive side for select loops. It is never closed;
// watch Done and finish with Next to drain.
func (m *Mailbox) Frames() <-chan l1frames.Frame { return m.ch }

// Done is closed by Close.
func (m *Mailbox) Done() <-chan struct{} { return m.done }

// Close stops the mailbox. It is safe to call more than once.
func (m *Mailbox) Close() {
	m.closeOnce.Do(func() { close(m.done) })
}

// Stats reports frames accepted by Put and frames displaced before being
// read.
func (m *Mailbox) Stats() (delivered, dropped uint64) {
	return m.delivered.Load(), m.dropped.Load()
}
