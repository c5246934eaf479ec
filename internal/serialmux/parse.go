package serialmux

import "strings"

// Line kinds emitted by the capture board.
const (
	LineTypeFrame   = "frame"
	LineTypeStatus  = "status"
	LineTypeUnknown = "unknown"
)

// ClassifyLine returns the kind of a capture-board line. Frames are JSON
// objects carrying a timestamp; status replies are JSON objects with a
// "status" key or '#'-prefixed comments.
func ClassifyLine(line string) string {
	line = strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(line, "#"):
		return LineTypeStatus
	case !strings.HasPrefix(line, "{"):
		return LineTypeUnknown
	case strings.Contains(line, `"status"`):
		return LineTypeStatus
	case strings.Contains(line, `"ts"`):
		return LineTypeFrame
	}
	return LineTypeUnknown
}
