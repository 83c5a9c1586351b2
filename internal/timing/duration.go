package timing

import (
	"fmt"
	"math"

	"github.com/mgpai22/vvsrt/internal/vvproj"
)

// synthesis frames per second (24000 Hz / 256 samples)
const FrameRate = 93.75

// Options holds timing overrides. Zero values keep what the query says.
type Options struct {
	SpeedScale       float64
	PauseLengthScale float64
	PauseLength      *float64

	// FrameAccurate rounds every phoneme to whole synthesis frames before
	// summing, the way the synthesis engine sizes its output.
	FrameAccurate bool
}

// one timed piece of an utterance
type Unit struct {
	Text    string
	Seconds float64
	Pause   bool
}

// Breakdown is the per-mora composition of an utterance's duration.
type Breakdown struct {
	Pre   float64
	Post  float64
	Units []Unit

	frames        int64
	frameAccurate bool
}

// Total returns the utterance duration in seconds.
func (b Breakdown) Total() float64 {
	if b.frameAccurate {
		return float64(b.frames) / FrameRate
	}
	total := b.Pre
	for _, u := range b.Units {
		total += u.Seconds
	}
	return total + b.Post
}

// Split divides span over consecutive groups of the utterance, where moras
// estimates how many moras each group is read with. The estimates are scaled
// onto the moras the query actually has and every group lasts as long as the
// moras it covers. The pre-phoneme silence goes to the first group, a pause
// to the group it follows and the post-phoneme silence to the last group.
// Without estimates or phonetic moras the span is divided by the estimates.
func (b Breakdown) Split(span Span, moras []int) []Span {
	n := len(moras)
	weights := make([]float64, n)
	total := 0
	for i, m := range moras {
		m = max(m, 0)
		weights[i] = float64(m)
		total += m
	}

	phonetic := 0
	for _, u := range b.Units {
		if !u.Pause {
			phonetic++
		}
	}
	if n < 2 || total == 0 || phonetic == 0 {
		return Allocate(span, weights)
	}

	// ends[g] is the count of phonetic moras read once group g is done
	ends := make([]int, n)
	cum := 0
	for i, m := range moras {
		cum += max(m, 0)
		ends[i] = int(math.Round(float64(phonetic) * float64(cum) / float64(total)))
	}

	seconds := make([]float64, n)
	seconds[0] += b.Pre
	seconds[n-1] += b.Post
	g, read := 0, 0
	for _, u := range b.Units {
		if !u.Pause {
			for g < n-1 && read >= ends[g] {
				g++
			}
			read++
		}
		seconds[g] += u.Seconds
	}
	return Allocate(span, seconds)
}

// Duration converts one query into its duration in seconds. A nil query is
// a silent placeholder and lasts zero seconds.
func Duration(q *vvproj.Query, opts Options) (float64, error) {
	b, err := Analyze(q, opts)
	if err != nil {
		return 0, err
	}
	return b.Total(), nil
}

// Analyze applies, in order, silence padding, pause length, pause length
// scale and speed scale. Speed scale only affects phonetic moras.
func Analyze(q *vvproj.Query, opts Options) (Breakdown, error) {
	b := Breakdown{frameAccurate: opts.FrameAccurate}
	if q == nil {
		return b, nil
	}

	speed := q.Speed()
	if opts.SpeedScale > 0 {
		speed = opts.SpeedScale
	}
	pauseScale := q.PauseScale()
	if opts.PauseLengthScale > 0 {
		pauseScale = opts.PauseLengthScale
	}
	pauseLength := q.PauseLength
	if opts.PauseLength != nil {
		pauseLength = opts.PauseLength
	}

	if err := checkScale("speedScale", speed, false); err != nil {
		return Breakdown{}, err
	}
	if err := checkScale("pauseLengthScale", pauseScale, true); err != nil {
		return Breakdown{}, err
	}

	pre, post := q.PrePhoneme(), q.PostPhoneme()
	if err := checkLength("prePhonemeLength", pre); err != nil {
		return Breakdown{}, err
	}
	if err := checkLength("postPhonemeLength", post); err != nil {
		return Breakdown{}, err
	}
	if pauseLength != nil {
		if err := checkLength("pauseLength", *pauseLength); err != nil {
			return Breakdown{}, err
		}
	}

	b.Pre = b.quantize(pre)
	b.Post = b.quantize(post)

	for pi, phrase := range q.AccentPhrases {
		for mi, mora := range phrase.Moras {
			where := fmt.Sprintf("accentPhrases[%d].moras[%d]", pi, mi)
			if err := checkLength(where+".vowelLength", mora.VowelLength); err != nil {
				return Breakdown{}, err
			}
			consonant := mora.ConsonantSeconds()
			if err := checkLength(where+".consonantLength", consonant); err != nil {
				return Breakdown{}, err
			}

			seconds := b.quantize(mora.VowelLength/speed) + b.quantize(consonant/speed)
			b.Units = append(b.Units, Unit{Text: mora.Text, Seconds: seconds})
		}

		if phrase.PauseMora == nil {
			continue
		}
		where := fmt.Sprintf("accentPhrases[%d].pauseMora", pi)
		if err := checkLength(where+".vowelLength", phrase.PauseMora.VowelLength); err != nil {
			return Breakdown{}, err
		}
		pause := phrase.PauseMora.VowelLength
		if pauseLength != nil {
			pause = *pauseLength
		}
		pause *= pauseScale
		b.Units = append(b.Units, Unit{
			Text:    phrase.PauseMora.Text,
			Seconds: b.quantize(pause),
			Pause:   true,
		})
	}

	return b, nil
}

// quantize returns seconds unchanged, or rounded to whole frames in frame
// mode, in which case the frame count is also accumulated.
func (b *Breakdown) quantize(seconds float64) float64 {
	if !b.frameAccurate {
		return seconds
	}
	frames := int64(math.RoundToEven(seconds * FrameRate))
	b.frames += frames
	return float64(frames) / FrameRate
}

func checkLength(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return fmt.Errorf("%s = %v: %w", field, v, vvproj.ErrMalformedTimingData)
	}
	return nil
}

func checkScale(field string, v float64, allowZero bool) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || (!allowZero && v == 0) {
		return fmt.Errorf("%s = %v: %w", field, v, vvproj.ErrMalformedTimingData)
	}
	return nil
}
