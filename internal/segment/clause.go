package segment

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Clause is a natural sub-sentence unit of an utterance.
type Clause struct {
	Text     string
	Terminal bool

	// rune offsets inside Text at which a token ends
	breaks []int
}

// Len is the displayed character count of the clause.
func (c Clause) Len() int {
	return DisplayLen(c.Text)
}

// SplitClauses cuts text after every line break and after every sentence
// terminal, together with any run of terminals, elongation marks or closing
// brackets that follows it. A cut is moved forward to the end of the token
// it falls in. Blank clauses are dropped, and marks that would open a
// clause are handed back to the clause before.
func SplitClauses(text string, tokens []Token) []Clause {
	runes := []rune(text)
	n := len(runes)

	isBreak := make(map[int]bool)
	if len(tokens) > 0 {
		for _, b := range breaks(text, tokens) {
			isBreak[b] = true
		}
	}

	var clauses []Clause
	start := 0
	emit := func(end int, terminal bool, extra string) {
		body := string(runes[start:end]) + extra
		if strings.TrimSpace(body) == "" {
			return
		}
		var local []int
		for b := start + 1; b < end; b++ {
			if isBreak[b] {
				local = append(local, b-start)
			}
		}
		clauses = append(clauses, Clause{Text: body, Terminal: terminal, breaks: local})
	}

	for i := 0; i < n; i++ {
		r := runes[i]
		if isLineBreak(r) {
			// \r\n and blank lines are one break
			j := i
			for j < n && isLineBreak(runes[j]) {
				j++
			}
			extra := ""
			if i > 0 && j < n && isASCIIWord(runes[i-1]) && isASCIIWord(runes[j]) {
				extra = " "
			}
			emit(i, false, extra)
			start = j
			i = j - 1
			continue
		}
		if !IsTerminal(r) || inWord(runes, i) {
			continue
		}

		j := i + 1
		for j < n && isClauseTail(runes[j]) {
			j++
		}
		if len(isBreak) > 0 && !isBreak[j] {
			for k := j + 1; k <= n && !isLineBreak(runes[k-1]); k++ {
				if isBreak[k] {
					j = k
					break
				}
			}
		}

		emit(j, true, "")
		start = j
		i = j - 1
	}
	emit(n, false, "")

	return attachLeadingMarks(clauses)
}

func isLineBreak(r rune) bool {
	return r == '\n' || r == '\r'
}

// inWord reports a half-width period inside a word or number, as in "3.14"
// or "e.g".
func inWord(runes []rune, i int) bool {
	if fold(runes[i]) != '.' || i == 0 || i+1 >= len(runes) {
		return false
	}
	return isASCIIWord(runes[i-1]) && isASCIIWord(runes[i+1])
}

func attachLeadingMarks(clauses []Clause) []Clause {
	out := make([]Clause, 0, len(clauses))
	for _, c := range clauses {
		if len(out) == 0 {
			out = append(out, c)
			continue
		}

		runes := []rune(c.Text)
		lead := 0
		for lead < len(runes) && unicode.IsSpace(runes[lead]) {
			lead++
		}
		k := lead
		for k < len(runes) && NoLineStart(runes[k]) {
			k++
		}
		if k == lead {
			out = append(out, c)
			continue
		}

		prev := &out[len(out)-1]
		offset := utf8.RuneCountInString(prev.Text)
		prev.Text += string(runes[:k])
		prev.breaks = append(prev.breaks, offset)
		last := runes[k-1]
		prev.Terminal = prev.Terminal || IsTerminal(last)

		rest := string(runes[k:])
		if strings.TrimSpace(rest) == "" {
			prev.Text += rest
			prev.Terminal = prev.Terminal || c.Terminal
			continue
		}
		var shifted []int
		for _, b := range c.breaks {
			if b > k {
				shifted = append(shifted, b-k)
			}
		}
		out = append(out, Clause{Text: rest, Terminal: c.Terminal, breaks: shifted})
	}
	return out
}
