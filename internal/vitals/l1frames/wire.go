package l1frames

import (
	"encoding/json"
	"fmt"
)

// wireFrame is the JSON line representation streamed by capture boards and
// stored in recordings.
type wireFrame struct {
	TS        int64       `json:"ts"`
	Raw       *float64    `json:"raw,omitempty"`
	R         float64     `json:"r"`
	G         float64     `json:"g"`
	B         float64     `json:"b"`
	Texture   float64     `json:"texture"`
	Stability float64     `json:"stability"`
	ROI       *wireRegion `json:"roi,omitempty"`
	Corners   []float64   `json:"corners,omitempty"`
	Patch     *wirePatch  `json:"patch,omitempty"`
	RR        *wireRR     `json:"rr,omitempty"`
}

type wireRegion struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

type wirePatch struct {
	W    int       `json:"w"`
	H    int       `json:"h"`
	Luma []float64 `json:"luma"`
}

type wireRR struct {
	Intervals []float64 `json:"intervals"`
	LastPeak  *int64    `json:"last_peak,omitempty"`
}

// DecodeLine parses one JSON line into a validated Frame. When the line
// carries no "raw" value the PPG sample is derived from the red mean
// normalised to [0, 1].
func DecodeLine(line []byte) (Frame, error) {
	var w wireFrame
	if err := json.Unmarshal(line, &w); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}

	f := Frame{
		TimestampMs: w.TS,
		Stats: ChannelStats{
			MeanRed:      w.R,
			MeanGreen:    w.G,
			MeanBlue:     w.B,
			TextureScore: w.Texture,
			Stability:    w.Stability,
		},
		Corners: w.Corners,
	}
	if w.Raw != nil {
		f.RawValue = *w.Raw
	} else {
		f.RawValue = w.R / 255
	}
	if w.ROI != nil {
		f.ROI = Region{X: w.ROI.X, Y: w.ROI.Y, Width: w.ROI.W, Height: w.ROI.H}
	}
	if w.Patch != nil {
		f.Patch = &Patch{Width: w.Patch.W, Height: w.Patch.H, Luma: w.Patch.Luma}
	}
	if w.RR != nil {
		f.RR = &RRIntervals{Intervals: w.RR.Intervals, LastPeakMs: w.RR.LastPeak}
	}

	if err := f.Validate(); err != nil {
		return Frame{}, err
	}
	return f, nil
}

// EncodeLine renders a Frame as a single JSON line (without trailing newline).
func EncodeLine(f Frame) ([]byte, error) {
	raw := f.RawValue
	w := wireFrame{
		TS:        f.TimestampMs,
		Raw:       &raw,
		R:         f.Stats.MeanRed,
		G:         f.Stats.MeanGreen,
		B:         f.Stats.MeanBlue,
		Texture:   f.Stats.TextureScore,
		Stability: f.Stats.Stability,
		Corners:   f.Corners,
	}
	if f.ROI != (Region{}) {
		w.ROI = &wireRegion{X: f.ROI.X, Y: f.ROI.Y, W: f.ROI.Width, H: f.ROI.Height}
	}
	if f.Patch != nil {
		w.Patch = &wirePatch{W: f.Patch.Width, H: f.Patch.Height, Luma: f.Patch.Luma}
	}
	if f.RR != nil {
		w.RR = &wireRR{Intervals: f.RR.Intervals, LastPeak: f.RR.LastPeakMs}
	}
	return json.Marshal(w)
}
