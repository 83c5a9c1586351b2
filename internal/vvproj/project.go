package vvproj

import "errors"

// ErrMalformedTimingData marks a phoneme length that is negative, not a
// number, or otherwise unusable. The timeline cannot be repaired locally, so
// callers treat it as fatal.
var ErrMalformedTimingData = errors.New("malformed timing data")

// VOICEVOX engine defaults for fields a project may omit
const (
	DefaultPrePhonemeLength  = 0.1
	DefaultPostPhonemeLength = 0.1
	DefaultSamplingRate      = 24000
)

// smallest timed phonetic unit
type Mora struct {
	Text            string   `json:"text"`
	Consonant       *string  `json:"consonant,omitempty"`
	ConsonantLength *float64 `json:"consonantLength,omitempty"`
	Vowel           string   `json:"vowel"`
	VowelLength     float64  `json:"vowelLength"`
	Pitch           float64  `json:"pitch"`
}

// ConsonantSeconds returns the consonant length, zero when absent.
func (m Mora) ConsonantSeconds() float64 {
	if m.ConsonantLength == nil {
		return 0
	}
	return *m.ConsonantLength
}

// prosodic group of moras, optionally followed by a pause
type AccentPhrase struct {
	Moras           []Mora `json:"moras"`
	Accent          int    `json:"accent"`
	PauseMora       *Mora  `json:"pauseMora,omitempty"`
	IsInterrogative bool   `json:"isInterrogative"`
}

// synthesis parameters of one utterance
type Query struct {
	AccentPhrases      []AccentPhrase `json:"accentPhrases"`
	SpeedScale         *float64       `json:"speedScale,omitempty"`
	PitchScale         float64        `json:"pitchScale"`
	IntonationScale    *float64       `json:"intonationScale,omitempty"`
	VolumeScale        *float64       `json:"volumeScale,omitempty"`
	PrePhonemeLength   *float64       `json:"prePhonemeLength,omitempty"`
	PostPhonemeLength  *float64       `json:"postPhonemeLength,omitempty"`
	PauseLength        *float64       `json:"pauseLength,omitempty"`
	PauseLengthScale   *float64       `json:"pauseLengthScale,omitempty"`
	OutputSamplingRate int            `json:"outputSamplingRate"`
	OutputStereo       bool           `json:"outputStereo"`
	Kana               string         `json:"kana,omitempty"`
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func (q *Query) Speed() float64      { return valueOr(q.SpeedScale, 1.0) }
func (q *Query) PauseScale() float64 { return valueOr(q.PauseLengthScale, 1.0) }
func (q *Query) PrePhoneme() float64 { return valueOr(q.PrePhonemeLength, DefaultPrePhonemeLength) }
func (q *Query) PostPhoneme() float64 {
	return valueOr(q.PostPhonemeLength, DefaultPostPhonemeLength)
}

// speaker selection of an audio item
type Voice struct {
	EngineID  string `json:"engineId"`
	SpeakerID string `json:"speakerId"`
	StyleID   int    `json:"styleId"`
}

// one utterance of the talk track
type AudioItem struct {
	Key      string `json:"-"`
	Position int    `json:"-"`
	Text     string `json:"text"`
	Voice    *Voice `json:"voice,omitempty"`
	Query    *Query `json:"query,omitempty"`
}

// parsed project, items in playback order
type Project struct {
	AppVersion string
	Items      []AudioItem
	Warnings   []string
}
