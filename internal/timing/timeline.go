package timing

// Span is a [Start, End) interval in seconds.
type Span struct {
	Start float64
	End   float64
}

func (s Span) Duration() float64 {
	return s.End - s.Start
}

// Accumulate folds per-utterance durations into contiguous spans. A zero
// duration yields a zero-width span that is kept in place.
func Accumulate(durations []float64) []Span {
	spans := make([]Span, len(durations))
	start := 0.0
	for i, d := range durations {
		spans[i] = Span{Start: start, End: start + d}
		start = spans[i].End
	}
	return spans
}

// Allocate divides span into len(weights) contiguous sub-spans sized in
// proportion to the weights. The last sub-span always ends at span.End.
// Negative weights count as zero; when every weight is zero the span is
// divided evenly.
func Allocate(span Span, weights []float64) []Span {
	n := len(weights)
	switch n {
	case 0:
		return nil
	case 1:
		return []Span{span}
	}

	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}

	out := make([]Span, n)
	start := span.Start
	cum := 0.0
	for i, w := range weights {
		end := span.End
		if i < n-1 {
			var frac float64
			if total == 0 {
				frac = float64(i+1) / float64(n)
			} else {
				if w > 0 {
					cum += w
				}
				frac = cum / total
			}
			end = span.Start + span.Duration()*frac
		}
		out[i] = Span{Start: start, End: end}
		start = end
	}
	return out
}
