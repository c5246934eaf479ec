package publish

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/banshee-data/vitals.report/internal/vitals/pipeline"
)

// Sink receives snapshots.
type Sink interface {
	Publish(ctx context.Context, snap pipeline.Snapshot) error
	Close() error
}

// Stats counts publish outcomes of a sink.
type Stats struct {
	Published uint64 `json:"published"`
	Errors    uint64 `json:"errors"`
}

type counters struct {
	published atomic.Uint64
	errors    atomic.Uint64
}

func (c *counters) record(err error) error {
	if err != nil {
		c.errors.Add(1)
		return err
	}
	c.published.Add(1)
	return nil
}

func (c *counters) stats() Stats {
	return Stats{Published: c.published.Load(), Errors: c.errors.Load()}
}

// Multi publishes to every sink and joins their errors. One failing sink
// does not stop the others.
type Multi []Sink

// Publish implements Sink.
func (m Multi) Publish(ctx context.Context, snap pipeline.Snapshot) error {
	var errs []error
	for _, s := range m {
		if err := s.Publish(ctx, snap); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close implements Sink.
func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every snapshot.
type Discard struct{}

func (Discard) Publish(context.Context, pipeline.Snapshot) error { return nil }
func (Discard) Close() error { return nil }
