// Package validate checks a subtitle against the line budgets and timeline
// rules the converter works to.
package validate

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mgpai22/vvsrt/internal/segment"
	"github.com/mgpai22/vvsrt/internal/subtitle"
)

type Kind string

const (
	KindMaxLines        Kind = "MAX_LINES"
	KindMaxChars        Kind = "MAX_CHARS"
	KindLeadingPunct    Kind = "LEADING_PUNCTUATION"
	KindMeaningless     Kind = "MEANINGLESS_PUNCTUATION"
	KindIndexGap        Kind = "INDEX_GAP"
	KindTimelineGap     Kind = "TIMELINE_GAP"
	KindTimelineOverlap Kind = "TIMELINE_OVERLAP"
)

// Kinds lists every rule in report order.
var Kinds = []Kind{
	KindMaxLines,
	KindMaxChars,
	KindLeadingPunct,
	KindMeaningless,
	KindIndexGap,
	KindTimelineGap,
	KindTimelineOverlap,
}

type Options struct {
	MaxChars       int
	MaxLines       int
	ExemptEmotion  bool
	EmotionPattern string
}

func DefaultOptions() Options {
	d := segment.DefaultOptions()
	return Options{
		MaxChars:       d.MaxChars,
		MaxLines:       d.MaxLines,
		EmotionPattern: d.EmotionPattern,
	}
}

// Violation is one broken rule. Line is 1-based and zero for rules that
// apply to a whole entry.
type Violation struct {
	Kind     Kind
	Index    int
	Line     int
	Expected int
	Actual   int
	Text     string
}

func (v Violation) String() string {
	switch v.Kind {
	case KindMaxLines:
		return fmt.Sprintf("entry #%d: %d lines > %d", v.Index, v.Actual, v.Expected)
	case KindMaxChars:
		return fmt.Sprintf("entry #%d line %d: %d chars > %d", v.Index, v.Line, v.Actual, v.Expected)
	case KindIndexGap:
		return fmt.Sprintf("entry #%d: expected index %d", v.Index, v.Expected)
	case KindTimelineGap, KindTimelineOverlap:
		return fmt.Sprintf("entry #%d: %s", v.Index, v.Text)
	default:
		return fmt.Sprintf("entry #%d line %d: %q", v.Index, v.Line, v.Text)
	}
}

// Allowance is an over-long line accepted because of its emotional tail.
type Allowance struct {
	Index   int
	Line    int
	Chars   int
	Base    string
	Emotion string
}

type Stats struct {
	Entries          int
	MaxCharsPerLine  int
	MaxLinesPerEntry int
	AvgCharsPerLine  float64
	AvgLinesPerEntry float64
	EmotionLines     int
}

type Report struct {
	Violations []Violation
	Allowances []Allowance
	Stats      Stats
}

// OK reports whether no rule was broken.
func (r *Report) OK() bool {
	return len(r.Violations) == 0
}

func (r *Report) Count(kind Kind) int {
	n := 0
	for _, v := range r.Violations {
		if v.Kind == kind {
			n++
		}
	}
	return n
}

// Check validates every entry of sub. Entries without lines are timeline
// placeholders and only take part in the index and timeline checks.
func Check(sub *subtitle.Subtitle, opts Options) (*Report, error) {
	if opts.MaxChars <= 0 || opts.MaxLines <= 0 {
		return nil, fmt.Errorf("max chars and max lines must be positive, got %d/%d: %w",
			opts.MaxChars, opts.MaxLines, segment.ErrUnresolvableSplit)
	}
	emotion, err := segment.NewEmotion(opts.EmotionPattern)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	var totalChars, totalLines int

	for i, entry := range sub.Entries {
		report.checkSequence(sub.Entries, i)

		if len(entry.Lines) > opts.MaxLines {
			report.add(Violation{
				Kind:     KindMaxLines,
				Index:    entry.Index,
				Expected: opts.MaxLines,
				Actual:   len(entry.Lines),
				Text:     entry.Text(),
			})
		}
		report.Stats.MaxLinesPerEntry = max(report.Stats.MaxLinesPerEntry, len(entry.Lines))
		totalLines += len(entry.Lines)

		for j, line := range entry.Lines {
			n := segment.DisplayLen(line)
			tail := emotion.Tail(line)
			totalChars += n
			report.Stats.MaxCharsPerLine = max(report.Stats.MaxCharsPerLine, n)
			if tail > 0 {
				report.Stats.EmotionLines++
			}

			if n > opts.MaxChars {
				if opts.ExemptEmotion && n-tail <= opts.MaxChars {
					runes := []rune(strings.TrimSpace(line))
					report.Allowances = append(report.Allowances, Allowance{
						Index:   entry.Index,
						Line:    j + 1,
						Chars:   n,
						Base:    string(runes[:n-tail]),
						Emotion: string(runes[n-tail:]),
					})
				} else {
					report.add(Violation{
						Kind:     KindMaxChars,
						Index:    entry.Index,
						Line:     j + 1,
						Expected: opts.MaxChars,
						Actual:   n,
						Text:     line,
					})
				}
			}

			switch {
			case n == 0 || segment.PunctuationOnly(line):
				report.add(Violation{Kind: KindMeaningless, Index: entry.Index, Line: j + 1, Text: line})
			case startsWithPunct(line):
				report.add(Violation{Kind: KindLeadingPunct, Index: entry.Index, Line: j + 1, Text: line})
			}
		}
	}

	report.Stats.Entries = len(sub.Entries)
	if totalLines > 0 {
		report.Stats.AvgCharsPerLine = float64(totalChars) / float64(totalLines)
	}
	if len(sub.Entries) > 0 {
		report.Stats.AvgLinesPerEntry = float64(totalLines) / float64(len(sub.Entries))
	}
	return report, nil
}

func (r *Report) add(v Violation) {
	r.Violations = append(r.Violations, v)
}

// checkSequence compares entry i with the one before it.
func (r *Report) checkSequence(entries []subtitle.Entry, i int) {
	cur := entries[i]
	if i == 0 {
		if cur.Index != 1 {
			r.add(Violation{Kind: KindIndexGap, Index: cur.Index, Expected: 1, Actual: cur.Index})
		}
		return
	}

	prev := entries[i-1]
	if cur.Index != prev.Index+1 {
		r.add(Violation{Kind: KindIndexGap, Index: cur.Index, Expected: prev.Index + 1, Actual: cur.Index})
	}
	switch {
	case cur.StartTime > prev.EndTime:
		r.add(Violation{
			Kind:  KindTimelineGap,
			Index: cur.Index,
			Text:  fmt.Sprintf("starts %v after the previous entry ends", cur.StartTime-prev.EndTime),
		})
	case cur.StartTime < prev.EndTime:
		r.add(Violation{
			Kind:  KindTimelineOverlap,
			Index: cur.Index,
			Text:  fmt.Sprintf("overlaps the previous entry by %v", prev.EndTime-cur.StartTime),
		})
	}
}

func startsWithPunct(line string) bool {
	r, _ := utf8.DecodeRuneInString(strings.TrimSpace(line))
	return segment.IsComma(r) || segment.IsTerminal(r)
}
