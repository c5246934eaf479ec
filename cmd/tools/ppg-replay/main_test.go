package main

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/vitals.report/internal/monitoring"
	"github.com/banshee-data/vitals.report/internal/report"
	"github.com/banshee-data/vitals.report/internal/testutil"
	"github.com/banshee-data/vitals.report/internal/vitals/l1frames"
	"github.com/banshee-data/vitals.report/internal/vitals/synth"
)

func recording(t *testing.T, kind synth.Kind, n int) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("# test recording\n")
	for _, f := range testutil.Frames(t, kind, n) {
		line, err := l1frames.EncodeLine(f)
		require.NoError(t, err)
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return &buf
}

func TestReplay_Finger(t *testing.T) {
	var csvOut, summary bytes.Buffer
	trace := report.NewTrace()

	res, err := replay(recording(t, synth.KindFinger, 600), options{
		CSV:     &csvOut,
		Summary: &summary,
		Trace:   trace,
	})
	require.NoError(t, err)

	assert.Equal(t, 600, res.Frames)
	assert.Zero(t, res.Malformed)
	assert.True(t, res.Last.FingerDetected)
	assert.InDelta(t, 72, res.Last.HeartRate, 5)
	assert.Equal(t, monitoring.LevelHigh, res.Last.Level)
	assert.Positive(t, res.Detected)

	rows, err := csv.NewReader(&csvOut).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 601)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, "0", rows[1][0])

	// One line per second of recording: 0s through 19s.
	assert.Equal(t, 20, strings.Count(summary.String(), "\n"))

	snaps, samples := trace.Len()
	assert.Equal(t, 600, snaps)
	assert.Positive(t, samples)
	assert.LessOrEqual(t, samples, 600)
}

func TestReplay_SkipsMalformed(t *testing.T) {
	in := recording(t, synth.KindDark, 30)
	in.WriteString("{not json}\n")

	res, err := replay(in, options{})
	require.NoError(t, err)
	assert.Equal(t, 30, res.Frames)
	assert.Equal(t, 1, res.Malformed)
	assert.False(t, res.Last.FingerDetected)
}

func TestReplay_StrictStopsOnMalformed(t *testing.T) {
	in := bytes.NewBufferString("{not json}\n")
	_, err := replay(in, options{StopOnBad: true})
	assert.ErrorIs(t, err, l1frames.ErrMalformedFrame)
}
