package api

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/vitals.report/internal/db"
	"github.com/banshee-data/vitals.report/internal/report"
)

// sessionChart renders a session's heart rate, SpO2 and quality as an
// interactive HTML line chart using go-echarts.
func (s *Server) sessionChart(w http.ResponseWriter, r *http.Request) {
	sess, snaps, ok := s.sessionSnapshots(w, r, 0)
	if !ok {
		return
	}
	if len(snaps) == 0 {
		s.writeJSONError(w, http.StatusNotFound, "session has no snapshots")
		return
	}

	line := sessionLineChart(sess, snaps)
	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		log.Printf("failed to render chart: %v", err)
		http.Error(w, "failed to render chart", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func sessionLineChart(sess db.Session, snaps []db.StoredSnapshot) *charts.Line {
	origin := snaps[0].Snapshot.TimestampMs
	xs := make([]string, len(snaps))
	hr := make([]opts.LineData, len(snaps))
	spo2 := make([]opts.LineData, len(snaps))
	quality := make([]opts.LineData, len(snaps))
	for i, st := range snaps {
		snap := st.Snapshot
		xs[i] = strconv.FormatFloat(float64(snap.TimestampMs-origin)/1000, 'f', 1, 64)
		quality[i] = opts.LineData{Value: snap.Quality}
		// "-" leaves a gap where no finger was present.
		hr[i] = opts.LineData{Value: "-"}
		spo2[i] = opts.LineData{Value: "-"}
		if snap.FingerDetected && snap.HeartRate > 0 {
			hr[i] = opts.LineData{Value: snap.HeartRate}
		}
		if snap.FingerDetected && snap.SpO2 > 0 {
			spo2[i] = opts.LineData{Value: snap.SpO2}
		}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Vitals session", Width: "100%", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Session " + sess.ID,
			Subtitle: fmt.Sprintf("source=%s started=%s snapshots=%d", sess.Source, sess.StartedAt.Format("2006-01-02 15:04:05"), len(snaps)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time (s)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 130}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
	)
	line.SetXAxis(xs).
		AddSeries("Heart rate (BPM)", hr).
		AddSeries("SpO2 (%)", spo2).
		AddSeries("Quality", quality)
	return line
}

// sessionPlot renders the same series as a static PNG.
func (s *Server) sessionPlot(w http.ResponseWriter, r *http.Request) {
	sess, snaps, ok := s.sessionSnapshots(w, r, 0)
	if !ok {
		return
	}
	trace := report.NewTrace()
	for _, st := range snaps {
		trace.AddSnapshot(st.Snapshot)
	}
	p, err := trace.VitalsPlot("Session " + sess.ID)
	if errors.Is(err, report.ErrEmptyTrace) {
		s.writeJSONError(w, http.StatusNotFound, "session has no snapshots")
		return
	}
	if err != nil {
		http.Error(w, "failed to build plot", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := report.WritePNG(&buf, p); err != nil {
		log.Printf("failed to render plot: %v", err)
		http.Error(w, "failed to render plot", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(buf.Bytes())
}
