package segment

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/width"
)

// character classes, keyed by the width-folded form of each rune
var (
	terminalMarks = runeSet("。.!?")
	commaMarks    = runeSet("、,")
	elongation    = runeSet("…‥・ー~〜")
	closers       = runeSet("」』)]】〉》〕”’")
)

func runeSet(s string) map[rune]struct{} {
	set := make(map[rune]struct{}, len(s))
	for _, r := range s {
		set[r] = struct{}{}
	}
	return set
}

// fold maps full-width and half-width variants to their canonical form so
// that ！ and ! (or ｡ and 。) share a class.
func fold(r rune) rune {
	if f := width.LookupRune(r).Folded(); f != 0 {
		return f
	}
	return r
}

func in(set map[rune]struct{}, r rune) bool {
	_, ok := set[fold(r)]
	return ok
}

// IsTerminal reports whether r ends a sentence.
func IsTerminal(r rune) bool { return in(terminalMarks, r) }

// IsComma reports whether r is a comma-class mark.
func IsComma(r rune) bool { return in(commaMarks, r) }

// IsLatinLetter reports whether r is a basic Latin letter in either width.
func IsLatinLetter(r rune) bool {
	r = fold(r)
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// NoLineStart reports whether a display line may not open with r.
func NoLineStart(r rune) bool {
	return IsTerminal(r) || IsComma(r) || in(elongation, r) || in(closers, r)
}

func isClauseTail(r rune) bool {
	return IsTerminal(r) || in(elongation, r) || in(closers, r)
}

func isASCIIWord(r rune) bool {
	r = fold(r)
	return IsLatinLetter(r) || (r >= '0' && r <= '9')
}

// DisplayLen is the character count of a line as shown on screen.
func DisplayLen(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}

// SplitsWord reports whether a boundary between prev and next would tear a
// run of Latin letters.
func SplitsWord(prev, next string) bool {
	last, _ := utf8.DecodeLastRuneInString(prev)
	first, _ := utf8.DecodeRuneInString(next)
	return IsLatinLetter(last) && IsLatinLetter(first)
}

// PunctuationOnly reports a line made of nothing but marks that may not open
// a line.
func PunctuationOnly(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	for _, r := range s {
		if !NoLineStart(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
