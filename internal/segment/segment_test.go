package segment

import (
	"errors"
	"math/rand/v2"
	"regexp"
	"strings"
	"testing"
	"unicode"
	"unicode/utf8"
)

func newSegmenter(t *testing.T, opts Options) *Segmenter {
	t.Helper()
	s, err := New(opts, SimpleTokenizer{})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return s
}

func withMaxChars(n int) Options {
	opts := DefaultOptions()
	opts.MaxChars = n
	return opts
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

var latinRun = regexp.MustCompile(`[A-Za-zＡ-Ｚａ-ｚ]+`)

func TestSegmentShortUtterance(t *testing.T) {
	s := newSegmenter(t, DefaultOptions())

	result, err := s.Segment("今日はとても良い天気です。")
	if err != nil {
		t.Fatalf("Segment returned error: %v", err)
	}
	lines := result.Lines()
	if len(lines) != 1 || lines[0] != "今日はとても良い天気です。" {
		t.Errorf("expected the utterance unsplit, got %q", lines)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", result.Warnings)
	}
}

func TestSegmentLongUnpunctuatedText(t *testing.T) {
	s := newSegmenter(t, DefaultOptions())

	result, err := s.Segment(strings.Repeat("あ", 58))
	if err != nil {
		t.Fatalf("Segment returned error: %v", err)
	}

	lines := result.Lines()
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), lines)
	}
	want := []int{26, 26, 6}
	for i, line := range lines {
		if got := utf8.RuneCountInString(line); got != want[i] {
			t.Errorf("line %d has %d chars, want %d", i, got, want[i])
		}
	}
	if len(result.Groups) != 2 || len(result.Groups[0]) != 2 || len(result.Groups[1]) != 1 {
		t.Errorf("expected groups of 2 and 1 lines, got %q", result.Groups)
	}
}

func TestSegmentEmotionPolicy(t *testing.T) {
	text := strings.Repeat("あ", 24) + "。。。"

	t.Run("exempt", func(t *testing.T) {
		opts := DefaultOptions()
		opts.ExemptEmotion = true
		s := newSegmenter(t, opts)

		result, err := s.Segment(text)
		if err != nil {
			t.Fatalf("Segment returned error: %v", err)
		}
		lines := result.Lines()
		if len(lines) != 1 || utf8.RuneCountInString(lines[0]) != 27 {
			t.Errorf("expected a single 27 char line, got %q", lines)
		}
	})

	t.Run("strict", func(t *testing.T) {
		s := newSegmenter(t, DefaultOptions())

		result, err := s.Segment(text)
		if err != nil {
			t.Fatalf("Segment returned error: %v", err)
		}
		lines := result.Lines()
		if len(lines) < 2 {
			t.Fatalf("expected the run to be counted and the text split, got %q", lines)
		}
		for _, line := range lines {
			if n := utf8.RuneCountInString(line); n > 26 {
				t.Errorf("line %q has %d chars", line, n)
			}
			first, _ := utf8.DecodeRuneInString(line)
			if NoLineStart(first) {
				t.Errorf("line %q opens with punctuation", line)
			}
		}
		if strings.Join(lines, "") != text {
			t.Errorf("round trip lost characters: %q", lines)
		}
	})
}

func TestForcedSplitTerminates(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"latin", strings.Repeat("x", 260)},
		{"kana", strings.Repeat("か", 260)},
		{"punctuation", strings.Repeat("！", 260)},
		{"elongation", "す" + strings.Repeat("ー", 259)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSegmenter(t, DefaultOptions())
			result, err := s.Segment(tt.text)
			if err != nil {
				t.Fatalf("Segment returned error: %v", err)
			}
			lines := result.Lines()
			if len(lines) < 10 {
				t.Errorf("expected at least 10 lines, got %d", len(lines))
			}
			for _, line := range lines {
				if n := utf8.RuneCountInString(line); n > 26 || n == 0 {
					t.Errorf("fragment of %d chars out of budget", n)
				}
			}
			if strings.Join(lines, "") != tt.text {
				t.Error("fragments do not reproduce the input")
			}
		})
	}
}

func TestSegmentProperties(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxChars int
	}{
		{"mixed", "今日は、とても良い天気ですね！散歩に行きましょう。Hello world!\nまた明日。", 10},
		{"english", "This is a pen and that is a very long sentence with several words", 10},
		{"commas", "吾輩は猫である、名前はまだ無い、どこで生れたかとんと見当がつかぬ、何でも薄暗いじめじめした所でニャーニャー泣いていた事だけは記憶している。", 16},
		{"emotion runs", "えっ！？本当に？？？そんなことってあるの！！！信じられない……", 8},
		{"embedded words", "明日はMeetingがあるのでPresentationの準備をしておいてください。", 12},
		{"newlines", "一行目です\n二行目です\n\n三行目です", 5},
		{"space before exclamation", "今日はとても良い天気ですね ！明日も晴れるでしょう", 14},
		{"space before comma", "Thank you 、ありがとうございました", 10},
		{"crlf", "Hello\r\nWorld\r\nこれは二行目です。\r\n", 10},
		{"full width latin", "ＭｅｅｔｉｎｇとＴａｌｋの予定、ＯＫです。", 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkSegmentProperties(t, tt.text, tt.maxChars)
		})
	}
}

// checkSegmentProperties segments text and checks the line budget, the
// group size, that no line opens with a comma or terminal, that no Latin
// word is torn and that the lines reproduce the text.
func checkSegmentProperties(t *testing.T, text string, maxChars int) {
	t.Helper()
	opts := withMaxChars(maxChars)
	s := newSegmenter(t, opts)

	result, err := s.Segment(text)
	if err != nil {
		t.Fatalf("Segment(%q) returned error: %v", text, err)
	}

	words := make(map[string]bool)
	for _, w := range latinRun.FindAllString(text, -1) {
		words[w] = true
	}

	for _, group := range result.Groups {
		if len(group) == 0 || len(group) > opts.MaxLines {
			t.Errorf("%q: group has %d lines", text, len(group))
		}
	}

	lines := result.Lines()
	for _, line := range lines {
		if n := utf8.RuneCountInString(line); n > maxChars {
			t.Errorf("%q: line %q has %d chars, budget %d", text, line, n, maxChars)
		}
		first, _ := utf8.DecodeRuneInString(line)
		if IsComma(first) || IsTerminal(first) {
			t.Errorf("%q: line %q opens with punctuation", text, line)
		}
		for _, w := range latinRun.FindAllString(line, -1) {
			if !words[w] {
				t.Errorf("%q: line %q tears a word into %q", text, line, w)
			}
		}
	}

	if got, want := stripSpace(strings.Join(lines, "")), stripSpace(text); got != want {
		t.Errorf("round trip mismatch:\n got %q\nwant %q", got, want)
	}
}

func TestSegmentPropertiesGenerated(t *testing.T) {
	japanese := []string{"今日は", "とても", "天気", "ですね", "明日も", "晴れ", "会議", "しましょう"}
	latin := []string{"Hello", "world", "ＯＫ", "Ｔａｌｋ", "Go"}
	separators := []string{" ", "、", " 、", "。", " ！", "！？", "\r\n", "\n", "……", " 。"}

	rng := rand.New(rand.NewPCG(20, 26))
	for i := 0; i < 500; i++ {
		var sb strings.Builder
		for n := 3 + rng.IntN(12); n > 0; n-- {
			if rng.IntN(3) == 0 {
				sb.WriteString(latin[rng.IntN(len(latin))])
				sb.WriteString(separators[rng.IntN(len(separators))])
				continue
			}
			sb.WriteString(japanese[rng.IntN(len(japanese))])
			if rng.IntN(2) == 0 {
				sb.WriteString(separators[rng.IntN(len(separators))])
			}
		}
		checkSegmentProperties(t, sb.String(), 10+rng.IntN(18))
	}
}

func TestSegmentJoinsWordsAcrossCRLF(t *testing.T) {
	s := newSegmenter(t, DefaultOptions())
	for _, text := range []string{"Hello\nWorld", "Hello\r\nWorld"} {
		result, err := s.Segment(text)
		if err != nil {
			t.Fatalf("Segment returned error: %v", err)
		}
		if lines := result.Lines(); len(lines) != 1 || lines[0] != "Hello World" {
			t.Errorf("Segment(%q) = %q, want [\"Hello World\"]", text, lines)
		}
	}
}

func TestSegmentBlankText(t *testing.T) {
	s := newSegmenter(t, DefaultOptions())
	for _, text := range []string{"", "   ", "\n\n", "　"} {
		result, err := s.Segment(text)
		if err != nil {
			t.Errorf("Segment(%q) returned error: %v", text, err)
		}
		if len(result.Groups) != 0 {
			t.Errorf("Segment(%q) = %q, want no groups", text, result.Groups)
		}
	}

	opts := DefaultOptions()
	opts.RequireText = true
	strict := newSegmenter(t, opts)
	if _, err := strict.Segment(" "); !errors.Is(err, ErrEmptyUtteranceText) {
		t.Errorf("expected ErrEmptyUtteranceText, got %v", err)
	}
}

type failingTokenizer struct{}

func (failingTokenizer) Tokenize(string) ([]Token, error) {
	return nil, errors.New("dictionary not loaded")
}

func TestSegmentFallsBackWhenTokenizerFails(t *testing.T) {
	for name, tok := range map[string]Tokenizer{"nil": nil, "failing": failingTokenizer{}} {
		t.Run(name, func(t *testing.T) {
			s, err := New(withMaxChars(8), tok)
			if err != nil {
				t.Fatalf("New returned error: %v", err)
			}

			result, err := s.Segment("こんにちは。今日もよろしくお願いします。")
			if err != nil {
				t.Fatalf("Segment returned error: %v", err)
			}
			if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0], ErrTokenizerUnavailable.Error()) {
				t.Errorf("expected one tokenizer warning, got %v", result.Warnings)
			}
			if len(result.Lines()) < 2 {
				t.Errorf("expected the text to be split, got %q", result.Lines())
			}
		})
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name       string
		modify     func(*Options)
		unresolved bool
		wantErr    bool
	}{
		{"defaults", func(*Options) {}, false, false},
		{"zero max chars", func(o *Options) { o.MaxChars = 0 }, true, true},
		{"negative max chars", func(o *Options) { o.MaxChars = -3 }, true, true},
		{"zero max lines", func(o *Options) { o.MaxLines = 0 }, true, true},
		{"negative min line length", func(o *Options) { o.MinLineLength = -1 }, false, true},
		{"bad pattern", func(o *Options) { o.EmotionPattern = "[" }, false, true},
		{"empty pattern uses default", func(o *Options) { o.EmotionPattern = "" }, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.modify(&opts)

			err := opts.Validate()
			if tt.wantErr != (err != nil) {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.unresolved && !errors.Is(err, ErrUnresolvableSplit) {
				t.Errorf("expected ErrUnresolvableSplit, got %v", err)
			}
			if _, err := New(opts, nil); tt.wantErr != (err != nil) {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEmotionTail(t *testing.T) {
	e, err := NewEmotion("")
	if err != nil {
		t.Fatalf("NewEmotion returned error: %v", err)
	}

	tests := []struct {
		line string
		want int
	}{
		{"すごい！！！", 3},
		{"すごい！", 0},
		{"本当に？！", 2},
		{"えーと……", 2},
		{"wait!!", 2},
		{"すごい！！！ ", 3},
		{"！！途中", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := e.Tail(tt.line); got != tt.want {
			t.Errorf("Tail(%q) = %d, want %d", tt.line, got, tt.want)
		}
	}
}

func TestSplitClauses(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"terminals", "はい。そうです！！\nまた明日", []string{"はい。", "そうです！！", "また明日"}},
		{"half width", "Yes. No? Maybe!", []string{"Yes.", " No?", " Maybe!"}},
		{"decimal point", "値は3.14です。", []string{"値は3.14です。"}},
		{"closing bracket", "「すごい！」と言った。", []string{"「すごい！」", "と言った。"}},
		{"leading marks", "はい\n。。わかった", []string{"はい。。", "わかった"}},
		{"latin across newline", "abc\ndef", []string{"abc ", "def"}},
		{"latin across crlf", "Hello\r\nWorld", []string{"Hello ", "World"}},
		{"latin across blank line", "abc\n\r\ndef", []string{"abc ", "def"}},
		{"spaced leading marks", "そうですね\n ！本当に", []string{"そうですね ！", "本当に"}},
		{"blank", "  \n ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clauses := SplitClauses(tt.text, nil)
			var got []string
			for _, c := range clauses {
				got = append(got, c.Text)
			}
			if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
				t.Errorf("SplitClauses(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}

	clauses := SplitClauses("はい。そうです", nil)
	if !clauses[0].Terminal || clauses[1].Terminal {
		t.Errorf("unexpected terminal flags: %+v", clauses)
	}
	if clauses[1].Len() != 4 {
		t.Errorf("Len() = %d, want 4", clauses[1].Len())
	}
}

func TestSplitClausesFollowsTokens(t *testing.T) {
	// "。で" is one token, so the cut moves to its end
	tokens := []Token{{Surface: "はい"}, {Surface: "。で"}, {Surface: "す"}}
	clauses := SplitClauses("はい。です", tokens)
	if len(clauses) != 2 || clauses[0].Text != "はい。で" || clauses[1].Text != "す" {
		t.Errorf("unexpected clauses: %+v", clauses)
	}
}

func TestPack(t *testing.T) {
	s := newSegmenter(t, withMaxChars(10))

	lines := s.Pack([]Clause{{Text: "あいう。"}, {Text: "かきくけ。"}, {Text: "さしすせそ。"}})
	want := []string{"あいう。かきくけ。", "さしすせそ。"}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Errorf("Pack = %q, want %q", lines, want)
	}
}

func TestPackKeepsSentencesTogether(t *testing.T) {
	s := newSegmenter(t, withMaxChars(12))

	// the second sentence cannot finish on the first line
	lines := s.Pack([]Clause{
		{Text: "はい。", Terminal: true},
		{Text: "それでは"},
		{Text: "始めましょう。", Terminal: true},
	})
	want := []string{"はい。", "それでは始めましょう。"}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Errorf("Pack = %q, want %q", lines, want)
	}

	// it can, so the line is filled
	lines = s.Pack([]Clause{
		{Text: "はい。", Terminal: true},
		{Text: "では"},
		{Text: "どうぞ。", Terminal: true},
	})
	want = []string{"はい。ではどうぞ。"}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Errorf("Pack = %q, want %q", lines, want)
	}
}

func TestForceSplitSkipsSpaceBeforeMarks(t *testing.T) {
	tests := []struct {
		text     string
		maxChars int
	}{
		{"今日はとても良い天気ですね ！", 14},
		{"Thank you 、ありがとうございました", 10},
	}
	for _, tt := range tests {
		s := newSegmenter(t, withMaxChars(tt.maxChars))
		parts := s.forceSplit(Clause{Text: tt.text})
		for _, p := range parts[1:] {
			first, _ := utf8.DecodeRuneInString(strings.TrimSpace(p))
			if NoLineStart(first) {
				t.Errorf("fragment %q opens with punctuation (all: %q)", p, parts)
			}
		}
		if strings.Join(parts, "") != tt.text {
			t.Errorf("parts do not reproduce the clause: %q", parts)
		}
	}
}

func TestForceSplitWithoutValidCutKeepsBudget(t *testing.T) {
	s := newSegmenter(t, withMaxChars(5))

	// every position tears the word or opens with the mark
	parts := s.forceSplit(Clause{Text: "world？"})
	want := []string{"world", "？"}
	if strings.Join(parts, "|") != strings.Join(want, "|") {
		t.Errorf("forceSplit = %q, want %q", parts, want)
	}
}

func TestForceSplitPrefersComma(t *testing.T) {
	s := newSegmenter(t, withMaxChars(15))

	text := "あいうえおかきくけこ、さしすせそたちつてとなにぬねの"
	parts := s.forceSplit(Clause{Text: text})
	if parts[0] != "あいうえおかきくけこ、" {
		t.Errorf("expected a cut after the comma, got %q", parts)
	}
	if strings.Join(parts, "") != text {
		t.Errorf("parts do not reproduce the clause: %q", parts)
	}
}

func TestForceSplitKeepsPunctuationAttached(t *testing.T) {
	s := newSegmenter(t, withMaxChars(10))

	// a cut at exactly ten chars would open the next line with "。"
	text := "あいうえおかきくけこ。さしすせ"
	parts := s.forceSplit(Clause{Text: text})
	for _, p := range parts[1:] {
		first, _ := utf8.DecodeRuneInString(p)
		if NoLineStart(first) {
			t.Errorf("fragment %q opens with punctuation (all: %q)", p, parts)
		}
	}
	for _, p := range parts {
		if utf8.RuneCountInString(p) > 10 {
			t.Errorf("fragment %q over budget", p)
		}
	}
}

func TestRefine(t *testing.T) {
	s := newSegmenter(t, withMaxChars(20))

	tests := []struct {
		name  string
		lines []string
		want  []string
	}{
		{"torn word", []string{"Hel", "lo world"}, []string{"Hello world"}},
		{"short tail", []string{"あいうえおかき", "くけ"}, []string{"あいうえおかきくけ"}},
		{"long enough", []string{"あいうえおかき", "くけこさしすせ"}, []string{"あいうえおかき", "くけこさしすせ"}},
		{"single", []string{"あ"}, []string{"あ"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Refine(tt.lines)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("Refine(%q) = %q, want %q", tt.lines, got, tt.want)
			}
		})
	}
}

func TestGroup(t *testing.T) {
	lines := []string{"a", "b", "c", "d", "e"}

	groups := Group(lines, 2)
	if len(groups) != 3 || len(groups[2]) != 1 || groups[2][0] != "e" {
		t.Errorf("Group(5 lines, 2) = %q", groups)
	}
	if got := Group(lines, 5); len(got) != 1 {
		t.Errorf("Group(5 lines, 5) = %q", got)
	}
	if got := Group(nil, 2); got != nil {
		t.Errorf("Group(nil) = %q, want nil", got)
	}
}

func TestSplitsWord(t *testing.T) {
	tests := []struct {
		prev, next string
		want       bool
	}{
		{"Hel", "lo", true},
		{"Ｈｅｌ", "ｌｏ", true},
		{"Hello ", "world", false},
		{"Hello", " world", false},
		{"です", "Hello", false},
		{"abc1", "def", false},
		{"", "abc", false},
	}
	for _, tt := range tests {
		if got := SplitsWord(tt.prev, tt.next); got != tt.want {
			t.Errorf("SplitsWord(%q, %q) = %v, want %v", tt.prev, tt.next, got, tt.want)
		}
	}
}

func TestPunctuationOnly(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{"。", true},
		{"！？", true},
		{" …… ", true},
		{"」。", true},
		{"", false},
		{"   ", false},
		{"はい。", false},
		{"「", false},
	}
	for _, tt := range tests {
		if got := PunctuationOnly(tt.line); got != tt.want {
			t.Errorf("PunctuationOnly(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestGluesParticles(t *testing.T) {
	if !glues("今日", Token{Surface: "は", POS: posParticle}) {
		t.Error("particle should stay with the preceding token")
	}
	if !glues("天気", Token{Surface: "。"}) {
		t.Error("punctuation should stay with the preceding token")
	}
	if glues("今日", Token{Surface: "天気", POS: "名詞"}) {
		t.Error("nouns start their own unit")
	}
}

func TestEstimateMoras(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"こんにちは", 5},
		{"キョウ", 2},
		{"ちょっと", 3},
		{"ラーメン", 4},
		{"ｷｮｳ", 2},
		{"天気", 4},
		{"OK", 2},
		{"はい。、！", 2},
		{"", 0},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := EstimateMoras(tt.text); got != tt.want {
				t.Errorf("EstimateMoras(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

type readingTokenizer map[string]string

func (rt readingTokenizer) Tokenize(text string) ([]Token, error) {
	tokens, _ := SimpleTokenizer{}.Tokenize(text)
	for i, tok := range tokens {
		tokens[i].Reading = rt[tok.Surface]
	}
	return tokens, nil
}

func TestMorasUsesReadings(t *testing.T) {
	s, err := New(DefaultOptions(), readingTokenizer{"東京都": "トウキョウト"})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	// トウキョウト reads as five moras where the characters alone suggest six
	if got := s.Moras("東京都です。"); got != 5+2 {
		t.Errorf("Moras = %d, want 7", got)
	}
	if got := newSegmenter(t, DefaultOptions()).Moras("東京都です。"); got != 6+2 {
		t.Errorf("Moras without readings = %d, want 8", got)
	}
}

func TestSegmentReportsMorasPerGroup(t *testing.T) {
	opts := withMaxChars(5)
	opts.MaxLines = 1
	s := newSegmenter(t, opts)

	result, err := s.Segment("ああああ。いい。")
	if err != nil {
		t.Fatalf("Segment returned error: %v", err)
	}
	if len(result.Groups) != 2 || len(result.Moras) != 2 {
		t.Fatalf("expected 2 groups with moras, got %q %v", result.Groups, result.Moras)
	}
	if result.Moras[0] != 4 || result.Moras[1] != 2 {
		t.Errorf("Moras = %v, want [4 2]", result.Moras)
	}
}
