package subtitle

import (
	"fmt"
	"strings"
	"time"
)

// represents single subtitle entry
type Entry struct {
	Index     int
	StartTime time.Duration
	EndTime   time.Duration
	Lines     []string
}

// Text joins the entry's lines with newlines.
func (e Entry) Text() string {
	return strings.Join(e.Lines, "\n")
}

func (e Entry) Duration() time.Duration {
	return e.EndTime - e.StartTime
}

// represents complete subtitle track
type Subtitle struct {
	Entries  []Entry
	Language string
	Format   string
}

// represents supported subtitle formats
type Format string

const (
	FormatSRT Format = "srt"
	FormatVTT Format = "vtt"
	FormatASS Format = "ass"
)

// ParseFormat accepts a format name with or without a leading dot.
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(s), ".") {
	case "srt":
		return FormatSRT, nil
	case "vtt", "webvtt":
		return FormatVTT, nil
	case "ass", "ssa":
		return FormatASS, nil
	default:
		return "", fmt.Errorf("unsupported format: %s (supported: srt, vtt, ass)", s)
	}
}

// Cue is one timed group of lines, in seconds on the audio timeline.
type Cue struct {
	Start float64
	End   float64
	Lines []string
}

// interface for subtitle generation
type Generator interface {
	Generate(cues []Cue) (*Subtitle, error)
}

// interface for writing subtitles to files
type Writer interface {
	Marshal(subtitle *Subtitle) []byte
	Write(subtitle *Subtitle, path string) error
}
