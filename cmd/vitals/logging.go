package main

import (
	"io"
	"os"

	"github.com/banshee-data/vitals.report/internal/framesource"
	"github.com/banshee-data/vitals.report/internal/publish"
	"github.com/banshee-data/vitals.report/internal/session"
	"github.com/banshee-data/vitals.report/internal/vitals/l3validity"
	"github.com/banshee-data/vitals.report/internal/vitals/l4cardiac"
	"github.com/banshee-data/vitals.report/internal/vitals/l5pressure"
	"github.com/banshee-data/vitals.report/internal/vitals/pipeline"
)

// configureLogging routes every package's ops stream to stderr and its diag
// (and optionally trace) stream to path. An empty path mutes diag and trace.
func configureLogging(path string, trace bool) (func(), error) {
	ops := io.Writer(os.Stderr)
	var diag io.Writer
	closer := func() {}

	switch path {
	case "":
	case "-":
		diag = os.Stderr
	default:
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		diag = f
		closer = func() { f.Close() }
	}

	var tr io.Writer
	if trace {
		tr = diag
	}

	pipeline.SetLogWriters(ops, diag, tr)
	l3validity.SetLogWriters(l3validity.LogWriters{Ops: ops, Diag: diag, Trace: tr})
	l4cardiac.SetLogWriters(l4cardiac.LogWriters{Ops: ops, Diag: diag, Trace: tr})
	l5pressure.SetLogWriters(l5pressure.LogWriters{Ops: ops, Diag: diag, Trace: tr})
	framesource.SetLogWriters(framesource.LogWriters{Ops: ops, Diag: diag, Trace: tr})
	session.SetLogWriters(session.LogWriters{Ops: ops, Diag: diag, Trace: tr})
	publish.SetLogWriters(publish.LogWriters{Ops: ops, Diag: diag, Trace: tr})
	return closer, nil
}
