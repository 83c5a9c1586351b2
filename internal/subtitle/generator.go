package subtitle

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrTimelineGap is returned when consecutive cues do not touch.
var ErrTimelineGap = errors.New("timeline is not contiguous")

// absorbs float noise such as 4.499999999 for a 4.5 s boundary
const msTolerance = 1e-6

// DefaultGenerator numbers cues and converts their times to whole
// milliseconds.
type DefaultGenerator struct {
	Language string
	Format   Format
}

func NewDefaultGenerator() *DefaultGenerator {
	return &DefaultGenerator{Format: FormatSRT}
}

// converts cues to a subtitle, numbering entries from 1
func (g *DefaultGenerator) Generate(cues []Cue) (*Subtitle, error) {
	format := g.Format
	if format == "" {
		format = FormatSRT
	}

	entries := make([]Entry, 0, len(cues))
	for i, cue := range cues {
		if cue.Start < 0 || cue.End < cue.Start || math.IsNaN(cue.Start) || math.IsNaN(cue.End) {
			return nil, fmt.Errorf("cue %d has invalid span %.6f-%.6f", i+1, cue.Start, cue.End)
		}

		entry := Entry{
			Index:     i + 1,
			StartTime: ToDuration(cue.Start),
			EndTime:   ToDuration(cue.End),
			Lines:     cue.Lines,
		}
		if i == 0 && entry.StartTime != 0 {
			return nil, fmt.Errorf("%w: first entry starts at %v", ErrTimelineGap, entry.StartTime)
		}
		if i > 0 && entry.StartTime != entries[i-1].EndTime {
			return nil, fmt.Errorf("%w: entry %d ends at %v, entry %d starts at %v",
				ErrTimelineGap, i, entries[i-1].EndTime, i+1, entry.StartTime)
		}
		entries = append(entries, entry)
	}

	return &Subtitle{
		Entries:  entries,
		Language: g.Language,
		Format:   string(format),
	}, nil
}

// ToDuration truncates seconds to whole milliseconds.
func ToDuration(seconds float64) time.Duration {
	ms := math.Floor(seconds*1000 + msTolerance)
	return time.Duration(ms) * time.Millisecond
}
