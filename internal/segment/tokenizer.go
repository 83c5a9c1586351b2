package segment

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Token is one morpheme reported by a tokenizer. Reading is the katakana
// pronunciation when the tokenizer knows it.
type Token struct {
	Surface string
	POS     string
	Reading string
}

// Tokenizer splits text into tokens whose surfaces appear in order in the
// text.
type Tokenizer interface {
	Tokenize(text string) ([]Token, error)
}

// part-of-speech tags of the IPA dictionary that never open a line
const (
	posParticle = "助詞"
	posAuxVerb  = "助動詞"
)

type runeClass int

const (
	classOther runeClass = iota
	classSpace
	classLatin
	classPunct
	classHiragana
	classKatakana
	classHan
)

func classify(r rune) runeClass {
	switch {
	case unicode.IsSpace(r):
		return classSpace
	case isASCIIWord(r):
		return classLatin
	case NoLineStart(r) || unicode.IsPunct(r):
		return classPunct
	case unicode.Is(unicode.Hiragana, r):
		return classHiragana
	case unicode.Is(unicode.Katakana, r):
		return classKatakana
	case unicode.Is(unicode.Han, r):
		return classHan
	}
	return classOther
}

// SimpleTokenizer splits text into runs of one script, whitespace runs and
// single punctuation marks. It needs no dictionary and never fails.
type SimpleTokenizer struct{}

func (SimpleTokenizer) Tokenize(text string) ([]Token, error) {
	var tokens []Token
	start := 0
	prev := classOther
	for i, r := range text {
		c := classify(r)
		if i > start && (c != prev || c == classPunct) {
			tokens = append(tokens, Token{Surface: text[start:i]})
			start = i
		}
		prev = c
	}
	if start < len(text) {
		tokens = append(tokens, Token{Surface: text[start:]})
	}
	return tokens, nil
}

// tile returns tokens whose surfaces cover text exactly, in order. Text a
// tokenizer skipped becomes a token of its own; surfaces that cannot be
// located are dropped.
func tile(text string, tokens []Token) []Token {
	var out []Token
	cursor := 0
	for _, tok := range tokens {
		if tok.Surface == "" {
			continue
		}
		idx := strings.Index(text[cursor:], tok.Surface)
		if idx < 0 {
			continue
		}
		if idx > 0 {
			out = append(out, Token{Surface: text[cursor : cursor+idx]})
		}
		out = append(out, tok)
		cursor += idx + len(tok.Surface)
	}
	if cursor < len(text) {
		out = append(out, Token{Surface: text[cursor:]})
	}
	return out
}

// breaks returns the rune offsets at which tokens end, in increasing order.
func breaks(text string, tokens []Token) []int {
	var out []int
	offset := 0
	for _, tok := range tile(text, tokens) {
		offset += utf8.RuneCountInString(tok.Surface)
		out = append(out, offset)
	}
	return out
}
