package tokenize

import (
	"fmt"
	"strings"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
	"github.com/mgpai22/vvsrt/internal/segment"
)

// tokenizer modes
const (
	ModeKagome = "kagome"
	ModeSimple = "simple"
	ModeNone   = "none"
)

// Kagome is a Japanese morphological analyzer backed by the IPA dictionary.
type Kagome struct {
	t *tokenizer.Tokenizer
}

func NewKagome() (*Kagome, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load IPA dictionary: %v",
			segment.ErrTokenizerUnavailable, err)
	}
	return &Kagome{t: t}, nil
}

func (k *Kagome) Tokenize(text string) ([]segment.Token, error) {
	tokens := k.t.Tokenize(text)
	out := make([]segment.Token, 0, len(tokens))
	for _, tok := range tokens {
		if tok.Class == tokenizer.DUMMY || tok.Surface == "" {
			continue
		}
		var pos string
		if features := tok.POS(); len(features) > 0 {
			pos = features[0]
		}
		reading, _ := tok.Reading()
		out = append(out, segment.Token{Surface: tok.Surface, POS: pos, Reading: reading})
	}
	return out, nil
}

// New returns the tokenizer for mode. ModeNone yields a nil tokenizer,
// which makes the segmenter fall back to simple splitting with a warning.
func New(mode string) (segment.Tokenizer, error) {
	switch strings.ToLower(mode) {
	case ModeKagome, "":
		return NewKagome()
	case ModeSimple:
		return segment.SimpleTokenizer{}, nil
	case ModeNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported tokenizer: %s (supported: kagome, simple, none)", mode)
	}
}
