package framesource

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/banshee-data/vitals.report/internal/serialmux"
	"github.com/banshee-data/vitals.report/internal/vitals/l1frames"
	"github.com/banshee-data/vitals.report/internal/vitals/synth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frameAt(ts int64) l1frames.Frame {
	return l1frames.Frame{TimestampMs: ts, RawValue: 0.8, Stats: l1frames.ChannelStats{MeanRed: 200}}
}

func TestMailbox_KeepsNewest(t *testing.T) {
	t.Parallel()
	m := NewMailbox()

	assert.False(t, m.Put(frameAt(1)))
	assert.True(t, m.Put(frameAt(2)))
	assert.True(t, m.Put(frameAt(3)))

	f, err := m.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), f.TimestampMs)

	delivered, dropped := m.Stats()
	assert.Equal(t, uint64(3), delivered)
	assert.Equal(t, uint64(2), dropped)
}

func TestMailbox_NextBlocksUntilPut(t *testing.T) {
	t.Parallel()
	m := NewMailbox()

	got := make(chan l1frames.Frame, 1)
	go func() {
		f, err := m.Next(context.Background())
		if err == nil {
			got <- f
		}
	}()

	time.Sleep(10 * time.Millisecond)
	m.Put(frameAt(7))
	select {
	case f := <-got:
		assert.Equal(t, int64(7), f.TimestampMs)
	case <-time.After(time.Second):
		t.Fatal("Next did not return after Put")
	}
}

func TestMailbox_CloseDrainsThenErrors(t *testing.T) {
	t.Parallel()
	m := NewMailbox()
	m.Put(frameAt(1))
	m.Close()
	m.Close()

	f, err := m.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), f.TimestampMs)

	_, err = m.Next(context.Background())
	assert.ErrorIs(t, err, ErrClosed)

	assert.False(t, m.Put(frameAt(2)))
	_, err = m.Next(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMailbox_ContextCancel(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMailbox().Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMailbox_ConcurrentProducer(t *testing.T) {
	t.Parallel()
	m := NewMailbox()
	const n = 1000

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := int64(1); i <= n; i++ {
			m.Put(frameAt(i))
		}
		m.Close()
	}()

	var last int64
	for {
		f, err := m.Next(context.Background())
		if errors.Is(err, ErrClosed) {
			break
		}
		require.NoError(t, err)
		require.Greater(t, f.TimestampMs, last, "frames must arrive in order")
		last = f.TimestampMs
	}
	wg.Wait()
	assert.Equal(t, int64(n), last)
}

const recording = `# synthetic recording
{"ts":0,"r":200,"g":50,"b":40,"texture":0.2,"stability":0.8}

{"ts":33,"raw":0.79,"r":201,"g":50,"b":40,"texture":0.2,"stability":0.8}
{"ts":67,"r":-1}
{"ts":100,"r":199,"g":50,"b":40,"texture":0.2,"stability":0.8}
`

func TestDecoder(t *testing.T) {
	t.Parallel()
	d := NewDecoder(strings.NewReader(recording))

	f, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, int64(0), f.TimestampMs)
	assert.InDelta(t, 200.0/255, f.RawValue, 1e-12)

	f, err = d.Next()
	require.NoError(t, err)
	assert.Equal(t, 0.79, f.RawValue)

	_, err = d.Next()
	assert.ErrorIs(t, err, l1frames.ErrMalformedFrame)
	assert.Contains(t, err.Error(), "line 5")

	f, err = d.Next()
	require.NoError(t, err)
	assert.Equal(t, int64(100), f.TimestampMs)

	_, err = d.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadAll_StopsAtMalformed(t *testing.T) {
	t.Parallel()
	frames, err := ReadAll(strings.NewReader(recording))
	assert.ErrorIs(t, err, l1frames.ErrMalformedFrame)
	assert.Len(t, frames, 2)
}

// collect drains the mailbox until it closes.
func collect(m *Mailbox) []l1frames.Frame {
	var out []l1frames.Frame
	for {
		f, err := m.Next(context.Background())
		if err != nil {
			return out
		}
		out = append(out, f)
	}
}

func TestReplaySource_SkipsMalformed(t *testing.T) {
	t.Parallel()
	m := NewMailbox()
	got := make(chan []l1frames.Frame)
	go func() { got <- collect(m) }()

	// Unpaced replay can outrun the consumer; only ordering is asserted.
	err := ReplaySource{Reader: strings.NewReader(recording)}.Run(context.Background(), m)
	require.NoError(t, err)
	m.Close()

	frames := <-got
	require.NotEmpty(t, frames)
	assert.Equal(t, int64(100), frames[len(frames)-1].TimestampMs)
}

func TestReplaySource_Paced(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	g, err := synth.New(synth.DefaultConfig(synth.KindFinger))
	require.NoError(t, err)
	for _, f := range g.Frames(5) {
		line, err := l1frames.EncodeLine(f)
		require.NoError(t, err)
		buf.Write(line)
		buf.WriteByte('\n')
	}

	m := NewMailbox()
	start := time.Now()
	require.NoError(t, ReplaySource{Reader: &buf, RateHz: 100}.Run(context.Background(), m))
	// Five frames at 100 Hz with a burst of one take at least 40ms.
	assert.GreaterOrEqual(t, time.Since(start), 35*time.Millisecond)
}

func TestReplaySource_Cancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := ReplaySource{Reader: strings.NewReader(recording), RateHz: 1}.Run(ctx, NewMailbox())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSynthSource_Count(t *testing.T) {
	t.Parallel()
	g, err := synth.New(synth.DefaultConfig(synth.KindLED))
	require.NoError(t, err)

	m := NewMailbox()
	require.NoError(t, SynthSource{Generator: g, Count: 10}.Run(context.Background(), m))
	delivered, _ := m.Stats()
	assert.Equal(t, uint64(10), delivered)

	f, err := m.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(300), f.TimestampMs)
}

func TestSerialSource(t *testing.T) {
	t.Parallel()
	port := serialmux.NewTestableSerialPort()
	mux := serialmux.NewSerialMux(port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go mux.Monitor(ctx)

	m := NewMailbox()
	done := make(chan error, 1)
	go func() { done <- SerialSource{Mux: mux}.Run(ctx, m) }()

	// Wait for the subscription before feeding lines.
	deadline := time.Now().Add(time.Second)
	var f l1frames.Frame
	for {
		port.AddReadData([]byte("# status\n{\"ts\":5,\"r\":200,\"g\":50,\"b\":40}\n"))
		fctx, fcancel := context.WithTimeout(ctx, 20*time.Millisecond)
		got, err := m.Next(fctx)
		fcancel()
		if err == nil {
			f = got
			break
		}
		require.True(t, time.Now().Before(deadline), "no frame delivered")
	}
	assert.Equal(t, int64(5), f.TimestampMs)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("serial source did not stop")
	}
}
