package segment

import (
	"unicode/utf8"
)

// Refine makes one pass over adjacent line pairs. A pair is merged and
// re-packed from tokens when the boundary tears a Latin word or when the
// second line is shorter than MinLineLength. The re-packed result replaces
// the pair when it is a single line, or two lines that fix the torn word or
// lengthen the shorter line. Otherwise the pair is kept.
func (s *Segmenter) Refine(lines []string) []string {
	out := append([]string(nil), lines...)
	for i := 0; i+1 < len(out); {
		a, b := out[i], out[i+1]
		if !SplitsWord(a, b) && DisplayLen(b) >= s.opts.MinLineLength {
			i++
			continue
		}

		packed := s.repack(a + b)
		switch {
		case len(packed) == 1:
			out = append(out[:i+1], out[i+2:]...)
			out[i] = packed[0]
			// the merged line is checked again against its new neighbour
		case len(packed) == 2 && improves(a, b, packed[0], packed[1]):
			out[i], out[i+1] = packed[0], packed[1]
			i++
		default:
			i++
		}
	}
	return out
}

func improves(a, b, p0, p1 string) bool {
	if SplitsWord(a, b) {
		return !SplitsWord(p0, p1)
	}
	return min(DisplayLen(p0), DisplayLen(p1)) > min(DisplayLen(a), DisplayLen(b))
}

// repack splits text into tokens, glues every token that may not open a
// line onto the one before it, and packs the resulting units.
func (s *Segmenter) repack(text string) []string {
	tokens, err := s.tokenize(text)
	if err != nil {
		tokens, _ = SimpleTokenizer{}.Tokenize(text)
	}

	var units []Clause
	for _, tok := range tile(text, tokens) {
		if n := len(units); n > 0 && glues(units[n-1].Text, tok) {
			prev := &units[n-1]
			prev.breaks = append(prev.breaks, utf8.RuneCountInString(prev.Text))
			prev.Text += tok.Surface
			continue
		}
		units = append(units, Clause{Text: tok.Surface})
	}
	return s.Pack(units)
}

func glues(prev string, tok Token) bool {
	first, _ := utf8.DecodeRuneInString(tok.Surface)
	last, _ := utf8.DecodeLastRuneInString(prev)
	switch {
	case isBlank(tok.Surface), isBlank(prev):
		return true
	case NoLineStart(first):
		return true
	case isASCIIWord(last) && isASCIIWord(first):
		return true
	case tok.POS == posParticle || tok.POS == posAuxVerb:
		return true
	}
	return false
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '　' {
			return false
		}
	}
	return true
}

// Group chunks lines into entries of at most maxLines lines. A shorter
// trailing chunk is its own entry.
func Group(lines []string, maxLines int) [][]string {
	if maxLines <= 0 {
		maxLines = 1
	}
	var groups [][]string
	for start := 0; start < len(lines); start += maxLines {
		end := start + maxLines
		if end > len(lines) {
			end = len(lines)
		}
		groups = append(groups, lines[start:end])
	}
	return groups
}
