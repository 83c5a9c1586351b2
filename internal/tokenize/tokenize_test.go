package tokenize

import (
	"errors"
	"strings"
	"testing"

	"github.com/mgpai22/vvsrt/internal/segment"
)

func TestNew(t *testing.T) {
	tests := []struct {
		mode    string
		wantNil bool
		wantErr bool
	}{
		{ModeSimple, false, false},
		{"SIMPLE", false, false},
		{ModeNone, true, false},
		{"mecab", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			tok, err := New(tt.mode)
			if tt.wantErr != (err != nil) {
				t.Fatalf("New(%q) error = %v, wantErr %v", tt.mode, err, tt.wantErr)
			}
			if tt.wantNil != (tok == nil) {
				t.Errorf("New(%q) = %v, wantNil %v", tt.mode, tok, tt.wantNil)
			}
		})
	}
}

func TestKagomeTokenize(t *testing.T) {
	tok, err := New(ModeKagome)
	if err != nil {
		if errors.Is(err, segment.ErrTokenizerUnavailable) {
			t.Skipf("dictionary unavailable: %v", err)
		}
		t.Fatalf("New returned error: %v", err)
	}

	text := "すもももももももものうち"
	tokens, err := tok.Tokenize(text)
	if err != nil {
		t.Fatalf("Tokenize returned error: %v", err)
	}

	var surfaces []string
	particles := 0
	for _, token := range tokens {
		surfaces = append(surfaces, token.Surface)
		if token.POS == "助詞" {
			particles++
		}
	}
	if strings.Join(surfaces, "") != text {
		t.Errorf("surfaces %q do not cover the input", surfaces)
	}
	if len(tokens) < 5 {
		t.Errorf("expected the sentence to be split into morphemes, got %q", surfaces)
	}
	if particles == 0 {
		t.Errorf("expected particles to be tagged, got %+v", tokens)
	}
}

func TestKagomeDrivesSegmentation(t *testing.T) {
	tok, err := NewKagome()
	if err != nil {
		t.Skipf("dictionary unavailable: %v", err)
	}

	opts := segment.DefaultOptions()
	opts.MaxChars = 12
	s, err := segment.New(opts, tok)
	if err != nil {
		t.Fatalf("segment.New returned error: %v", err)
	}

	text := "吾輩は猫である。名前はまだ無い。どこで生れたかとんと見当がつかぬ。"
	result, err := s.Segment(text)
	if err != nil {
		t.Fatalf("Segment returned error: %v", err)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", result.Warnings)
	}
	if got := strings.Join(result.Lines(), ""); got != text {
		t.Errorf("lines %q do not reproduce the text", result.Lines())
	}
}

func TestKagomeReadings(t *testing.T) {
	tok, err := NewKagome()
	if err != nil {
		t.Skipf("dictionary unavailable: %v", err)
	}

	tokens, err := tok.Tokenize("今日は天気です")
	if err != nil {
		t.Fatalf("Tokenize returned error: %v", err)
	}
	readings := map[string]string{}
	for _, token := range tokens {
		readings[token.Surface] = token.Reading
	}
	if readings["今日"] != "キョウ" {
		t.Errorf("reading of 今日 = %q, want キョウ (tokens %+v)", readings["今日"], tokens)
	}
	if readings["天気"] != "テンキ" {
		t.Errorf("reading of 天気 = %q, want テンキ", readings["天気"])
	}
}
