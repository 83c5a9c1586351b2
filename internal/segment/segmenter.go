package segment

import (
	"fmt"
	"strings"
)

// Segmenter turns utterance text into grouped display lines. It holds no
// mutable state and is safe for concurrent use when its tokenizer is.
type Segmenter struct {
	opts      Options
	emotion   *Emotion
	tokenizer Tokenizer
}

// Result is the segmentation of one utterance. Each group becomes one
// subtitle entry. Moras holds the estimated reading length of each group.
type Result struct {
	Groups   [][]string
	Moras    []int
	Warnings []string
}

// Lines returns all lines of the result in order.
func (r Result) Lines() []string {
	var lines []string
	for _, g := range r.Groups {
		lines = append(lines, g...)
	}
	return lines
}

// New validates opts and returns a Segmenter. A nil tokenizer selects the
// fallback splitter for every utterance.
func New(opts Options, tokenizer Tokenizer) (*Segmenter, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	emotion, err := NewEmotion(opts.EmotionPattern)
	if err != nil {
		return nil, err
	}
	return &Segmenter{opts: opts, emotion: emotion, tokenizer: tokenizer}, nil
}

func (s *Segmenter) tokenize(text string) ([]Token, error) {
	if s.tokenizer == nil {
		return nil, ErrTokenizerUnavailable
	}
	tokens, err := s.tokenizer.Tokenize(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenizerUnavailable, err)
	}
	return tokens, nil
}

// Segment splits text into clauses, packs and refines them into lines, and
// groups the lines by MaxLines. Blank text yields an empty result.
func (s *Segmenter) Segment(text string) (Result, error) {
	if strings.TrimSpace(text) == "" {
		if s.opts.RequireText {
			return Result{}, ErrEmptyUtteranceText
		}
		return Result{}, nil
	}

	var result Result
	tokens, err := s.tokenize(text)
	if err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%v; falling back to simple clause splitting", err))
		tokens, _ = SimpleTokenizer{}.Tokenize(text)
	}

	lines := s.Refine(s.Pack(SplitClauses(text, tokens)))

	display := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			display = append(display, line)
		}
	}
	result.Groups = Group(display, s.opts.MaxLines)
	result.Moras = make([]int, len(result.Groups))
	for i, g := range result.Groups {
		result.Moras[i] = s.Moras(strings.Join(g, ""))
	}
	return result, nil
}
