package segment

import "unicode"

// Pack greedily fills lines with whole clauses. A line that already ends a
// sentence only takes the start of the next sentence when the whole sentence
// fits on it as well. A clause that does not fit an empty line is cut by
// forceSplit, and its last fragment stays open for the clauses that follow.
func (s *Segmenter) Pack(clauses []Clause) []string {
	var lines []string
	current, terminal := "", false
	for i, c := range clauses {
		if current != "" && s.fits(current+c.Text) &&
			(!terminal || s.fits(current+sentence(clauses[i:]))) {
			current += c.Text
			terminal = c.Terminal
			continue
		}
		if current != "" {
			lines = append(lines, current)
			current = ""
		}
		if s.fits(c.Text) {
			current, terminal = c.Text, c.Terminal
			continue
		}
		parts := s.forceSplit(c)
		lines = append(lines, parts[:len(parts)-1]...)
		current, terminal = parts[len(parts)-1], c.Terminal
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

// sentence joins clauses up to and including the first terminal one.
func sentence(clauses []Clause) string {
	var text string
	for _, c := range clauses {
		text += c.Text
		if c.Terminal {
			break
		}
	}
	return text
}

// effectiveLen is the part of a line that counts against MaxChars.
func (s *Segmenter) effectiveLen(line string) int {
	n := DisplayLen(line)
	if s.opts.ExemptEmotion {
		n -= s.emotion.Tail(line)
	}
	return n
}

func (s *Segmenter) fits(line string) bool {
	return s.effectiveLen(line) <= s.opts.MaxChars
}

// forceSplit cuts an over-budget clause into fragments. Every iteration
// removes between 1 and MaxChars runes from the front, so the loop ends,
// and it only stops once the remainder fits.
func (s *Segmenter) forceSplit(c Clause) []string {
	rest := []rune(c.Text)
	isBreak := make(map[int]bool, len(c.breaks))
	for _, b := range c.breaks {
		isBreak[b] = true
	}

	var parts []string
	consumed := 0
	for !s.fits(string(rest)) {
		cut := s.cutPoint(rest, func(i int) bool { return isBreak[consumed+i] })
		parts = append(parts, string(rest[:cut]))
		rest = rest[cut:]
		consumed += cut
	}
	return append(parts, string(rest))
}

// cutPoint picks how many runes of r go on the current line. It prefers a
// comma-class mark, then a sentence terminal, then a token boundary, each
// only in the right half of the window; then any valid position. A position
// is valid when it tears no Latin word and the next line would not open with
// a mark, spaces skipped. With no valid position at all the cut is exactly
// MaxChars.
func (s *Segmenter) cutPoint(r []rune, tokenEnd func(int) bool) int {
	window := s.opts.MaxChars
	if window > len(r)-1 {
		window = len(r) - 1
	}
	if window < 1 {
		return 1
	}
	half := s.opts.MaxChars / 2

	// the next line opens at the first non-space rune after the cut
	valid := func(c int) bool {
		k := c
		for k < len(r) && unicode.IsSpace(r[k]) {
			k++
		}
		if k < len(r) && NoLineStart(r[k]) {
			return false
		}
		return !(IsLatinLetter(r[c-1]) && IsLatinLetter(r[c]))
	}

	preferred := []func(c int) bool{
		func(c int) bool { return IsComma(r[c-1]) },
		func(c int) bool { return IsTerminal(r[c-1]) },
		tokenEnd,
	}
	for _, want := range preferred {
		for c := window; c > half; c-- {
			if want(c) && valid(c) {
				return c
			}
		}
	}
	for c := window; c >= 1; c-- {
		if valid(c) {
			return c
		}
	}
	// A window of nothing but letters and marks, such as "world？" on a
	// five-character budget. The budget wins over the punctuation rule here,
	// so the next line may open with a mark.
	return window
}
