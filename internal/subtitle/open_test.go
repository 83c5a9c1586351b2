package subtitle

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseSRTFile(t *testing.T) {
	content := "\ufeff1\n" + `00:00:00,000 --> 00:00:04,000
Hello, world!

2
00:00:04,000 --> 00:00:04,000

3
00:00:04,000 --> 00:00:08,200
This is a test.
With multiple lines.

4
01:00:10,000 --> 01:00:12,500
Final subtitle.
`
	tmpDir := t.TempDir()
	srtPath := filepath.Join(tmpDir, "test.srt")
	if err := os.WriteFile(srtPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	file, err := Open(srtPath)
	if err != nil {
		t.Fatalf("failed to open SRT file: %v", err)
	}

	if file.Format() != FormatSRT {
		t.Errorf("expected format SRT, got %s", file.Format())
	}

	sub := file.Subtitle()
	if len(sub.Entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(sub.Entries))
	}

	if sub.Entries[0].Index != 1 || sub.Entries[0].StartTime != 0 {
		t.Errorf("entry 0: unexpected index/start %d/%v", sub.Entries[0].Index, sub.Entries[0].StartTime)
	}
	if sub.Entries[0].EndTime != 4*time.Second {
		t.Errorf("entry 0: expected end 4s, got %v", sub.Entries[0].EndTime)
	}
	if sub.Entries[0].Text() != "Hello, world!" {
		t.Errorf("entry 0: expected 'Hello, world!', got %q", sub.Entries[0].Text())
	}

	if len(sub.Entries[1].Lines) != 0 || sub.Entries[1].Duration() != 0 {
		t.Errorf("entry 1: expected an empty placeholder, got %+v", sub.Entries[1])
	}

	expected := []string{"This is a test.", "With multiple lines."}
	if strings.Join(sub.Entries[2].Lines, "|") != strings.Join(expected, "|") {
		t.Errorf("entry 2: expected %q, got %q", expected, sub.Entries[2].Lines)
	}

	want := time.Hour + 10*time.Second
	if sub.Entries[3].StartTime != want {
		t.Errorf("entry 3: expected start %v, got %v", want, sub.Entries[3].StartTime)
	}
}

func TestParseVTTFile(t *testing.T) {
	content := `WEBVTT

NOTE generated for a test
spanning two lines

1
00:00:01.000 --> 00:00:04.000
Hello, world!

2
00:00:05.500 --> 00:00:08.200 align:center
This is a test.
With multiple lines.

00:10.000 --> 00:12.500
No cue identifier.
`
	tmpDir := t.TempDir()
	vttPath := filepath.Join(tmpDir, "test.vtt")
	if err := os.WriteFile(vttPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	file, err := Open(vttPath)
	if err != nil {
		t.Fatalf("failed to open VTT file: %v", err)
	}

	if file.Format() != FormatVTT {
		t.Errorf("expected format VTT, got %s", file.Format())
	}

	sub := file.Subtitle()
	if len(sub.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(sub.Entries))
	}

	if sub.Entries[0].StartTime != 1*time.Second {
		t.Errorf("entry 0: expected start 1s, got %v", sub.Entries[0].StartTime)
	}
	if sub.Entries[1].Text() != "This is a test.\nWith multiple lines." {
		t.Errorf("entry 1: unexpected text %q", sub.Entries[1].Text())
	}
	if sub.Entries[2].Index != 3 || sub.Entries[2].StartTime != 10*time.Second {
		t.Errorf("entry 2: unexpected index/start %d/%v", sub.Entries[2].Index, sub.Entries[2].StartTime)
	}
	if sub.Entries[2].Text() != "No cue identifier." {
		t.Errorf("entry 2: expected 'No cue identifier.', got %q", sub.Entries[2].Text())
	}
}

func TestOpenASSThroughAstisub(t *testing.T) {
	sub := &Subtitle{Entries: []Entry{
		{Index: 1, StartTime: 0, EndTime: 1500 * time.Millisecond, Lines: []string{"こんにちは"}},
		{Index: 2, StartTime: 1500 * time.Millisecond, EndTime: 4 * time.Second, Lines: []string{"一行目", "二行目"}},
	}}

	writer, err := NewWriter(FormatASS)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "out.ass")
	if err := writer.Write(sub, path); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	file, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open ASS file: %v", err)
	}
	if file.Format() != FormatASS {
		t.Errorf("expected format ASS, got %s", file.Format())
	}

	entries := file.Subtitle().Entries
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[1].StartTime != 1500*time.Millisecond || entries[1].EndTime != 4*time.Second {
		t.Errorf("entry 1: unexpected times %v-%v", entries[1].StartTime, entries[1].EndTime)
	}
	text := strings.Join(entries[1].Lines, "")
	if !strings.Contains(text, "一行目") || !strings.Contains(text, "二行目") {
		t.Errorf("entry 1: unexpected lines %q", entries[1].Lines)
	}
}

func TestOpenUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("hello"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	if _, err := Open(path); err == nil {
		t.Error("expected error for unsupported extension")
	}
	if _, err := Open(filepath.Join(t.TempDir(), "missing.srt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"srt", FormatSRT, false},
		{".VTT", FormatVTT, false},
		{"webvtt", FormatVTT, false},
		{"ssa", FormatASS, false},
		{"sub", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr != (err != nil) || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}

	if GetExtensionForFormat(FormatASS) != ".ass" {
		t.Error("expected .ass extension")
	}
}
