package segment

import "unicode"

// small kana join the mora before them
var smallKana = runeSet("ぁぃぅぇぉゃゅょゎァィゥェォャュョヮ")

// EstimateMoras counts the moras s would be read with. Kana count one each
// except small kana, which fold into the previous mora. Kanji have no
// reading here and count two. Latin letters and digits count one.
func EstimateMoras(s string) int {
	n := 0
	for _, r := range s {
		r = fold(r)
		switch {
		case r == 'ー':
			n++
		case in(smallKana, r):
		case unicode.In(r, unicode.Hiragana, unicode.Katakana):
			n++
		case unicode.Is(unicode.Han, r):
			n += 2
		case isASCIIWord(r):
			n++
		}
	}
	return n
}

// Moras estimates the moras text is read with, from the token readings
// where the tokenizer reports them and from the characters elsewhere.
func (s *Segmenter) Moras(text string) int {
	tokens, err := s.tokenize(text)
	if err != nil {
		return EstimateMoras(text)
	}
	n := 0
	for _, tok := range tile(text, tokens) {
		if tok.Reading != "" {
			n += EstimateMoras(tok.Reading)
		} else {
			n += EstimateMoras(tok.Surface)
		}
	}
	return n
}
