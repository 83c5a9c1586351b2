package segment

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// ErrUnresolvableSplit is returned for budgets the forced split could
	// never satisfy.
	ErrUnresolvableSplit = errors.New("unresolvable split")

	// ErrTokenizerUnavailable marks a tokenizer that could not be built or
	// failed on an input. Segmentation continues with SimpleTokenizer.
	ErrTokenizerUnavailable = errors.New("tokenizer unavailable")

	// ErrEmptyUtteranceText is returned for blank text when RequireText is set.
	ErrEmptyUtteranceText = errors.New("empty utterance text")
)

const (
	DefaultMaxChars      = 26
	DefaultMaxLines      = 2
	DefaultMinLineLength = 7

	// trailing run of two or more repeated punctuation or elongation marks
	DefaultEmotionPattern = `[。！？、…・ー～!?~]{2,}$`
)

// Options is the immutable budget every segmentation step works against.
type Options struct {
	MaxChars      int
	MaxLines      int
	MinLineLength int

	// ExemptEmotion lets a trailing emotional-expression run extend past
	// MaxChars. When false the run counts like any other text.
	ExemptEmotion  bool
	EmotionPattern string

	RequireText bool
}

func DefaultOptions() Options {
	return Options{
		MaxChars:       DefaultMaxChars,
		MaxLines:       DefaultMaxLines,
		MinLineLength:  DefaultMinLineLength,
		EmotionPattern: DefaultEmotionPattern,
	}
}

// Validate rejects budgets before any text is processed.
func (o Options) Validate() error {
	if o.MaxChars <= 0 {
		return fmt.Errorf("max chars must be positive, got %d: %w", o.MaxChars, ErrUnresolvableSplit)
	}
	if o.MaxLines <= 0 {
		return fmt.Errorf("max lines must be positive, got %d: %w", o.MaxLines, ErrUnresolvableSplit)
	}
	if o.MinLineLength < 0 {
		return fmt.Errorf("min line length must not be negative, got %d", o.MinLineLength)
	}
	if _, err := NewEmotion(o.EmotionPattern); err != nil {
		return err
	}
	return nil
}

// Emotion detects emotional-expression runs at the end of a line.
type Emotion struct {
	re *regexp.Regexp
}

// NewEmotion compiles pattern. An empty pattern selects the default.
func NewEmotion(pattern string) (*Emotion, error) {
	if pattern == "" {
		pattern = DefaultEmotionPattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid emotion pattern %q: %w", pattern, err)
	}
	return &Emotion{re: re}, nil
}

// Tail returns the character count of the emotional-expression run that
// ends s, or zero when there is none.
func (e *Emotion) Tail(s string) int {
	s = strings.TrimSpace(s)
	matches := e.re.FindAllStringIndex(s, -1)
	if len(matches) == 0 {
		return 0
	}
	last := matches[len(matches)-1]
	if last[1] != len(s) {
		return 0
	}
	return utf8.RuneCountInString(s[last[0]:])
}
