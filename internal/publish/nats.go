package publish

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/banshee-data/vitals.report/internal/vitals/pipeline"
)

// DefaultNATSSubject is the subject snapshots are published on.
const DefaultNATSSubject = "vitals.snapshot"

// natsConn is the subset of *nats.Conn the sink uses.
type natsConn interface {
	Publish(subj string, data []byte) error
	Drain() error
}

// NATSSink publishes snapshots on a NATS subject.
type NATSSink struct {
	conn     natsConn
	subject  string
	encoding Encoding
	counters
}

// ConnectNATS dials url with unlimited reconnects and returns a sink
// publishing on subject.
func ConnectNATS(url, subject string, enc Encoding) (*NATSSink, error) {
	nc, err := nats.Connect(
		url,
		nats.Name("vitals.report"),
		nats.Timeout(3*time.Second),
		nats.ReconnectWait(500*time.Millisecond),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				opsf("nats disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			diagf("nats reconnected to %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect %s: %w", url, err)
	}
	diagf("nats connected to %s, subject %s", url, subject)
	return NewNATSSink(nc, subject, enc), nil
}

// NewNATSSink wraps an existing connection.
func NewNATSSink(conn natsConn, subject string, enc Encoding) *NATSSink {
	if subject == "" {
		subject = DefaultNATSSubject
	}
	return &NATSSink{conn: conn, subject: subject, encoding: enc}
}

// Publish implements Sink. NATS publishes are asynchronous; ctx is only
// checked before encoding.
func (s *NATSSink) Publish(ctx context.Context, snap pipeline.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := Encode(snap, s.encoding)
	if err != nil {
		return s.record(err)
	}
	if err := s.conn.Publish(s.subject, payload); err != nil {
		opsf("nats publish to %s failed: %v", s.subject, err)
		return s.record(fmt.Errorf("nats publish: %w", err))
	}
	tracef("nats %s: %d bytes", s.subject, len(payload))
	return s.record(nil)
}

// Stats reports publish counts.
func (s *NATSSink) Stats() Stats { return s.stats() }

// Close drains pending messages and closes the connection.
func (s *NATSSink) Close() error { return s.conn.Drain() }
