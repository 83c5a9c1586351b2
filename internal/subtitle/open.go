package subtitle

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/asticode/go-astisub"
)

// parsed subtitle file
type File interface {
	Format() Format
	Subtitle() *Subtitle
}

// Open parses SubRip and WebVTT files natively. SSA/ASS, TTML and STL files
// are read through astisub.
func Open(path string) (File, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".srt":
		return parseSRTFile(path)
	case ".vtt":
		return parseVTTFile(path)
	case ".ass", ".ssa", ".ttml", ".stl":
		return openWithAstisub(path)
	default:
		return nil, fmt.Errorf("unsupported subtitle format: %s", ext)
	}
}

type genericFile struct {
	format  Format
	entries []Entry
}

func (f *genericFile) Format() Format {
	return f.format
}

func (f *genericFile) Subtitle() *Subtitle {
	return &Subtitle{
		Entries: f.entries,
		Format:  string(f.format),
	}
}

func openWithAstisub(path string) (*genericFile, error) {
	subs, err := astisub.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open subtitle file: %w", err)
	}

	format := Format(strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
	if format == "ssa" {
		format = FormatASS
	}
	return &genericFile{format: format, entries: FromAstisub(subs)}, nil
}

// FromAstisub converts astisub items into entries numbered from 1.
func FromAstisub(subs *astisub.Subtitles) []Entry {
	entries := make([]Entry, 0, len(subs.Items))
	for i, item := range subs.Items {
		entry := Entry{
			Index:     i + 1,
			StartTime: item.StartAt,
			EndTime:   item.EndAt,
		}
		for _, line := range item.Lines {
			var sb strings.Builder
			for _, li := range line.Items {
				sb.WriteString(li.Text)
			}
			entry.Lines = append(entry.Lines, sb.String())
		}
		entries = append(entries, entry)
	}
	return entries
}
