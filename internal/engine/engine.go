// Package engine joins the timing and segmentation of a VOICEVOX project
// into subtitle cues.
package engine

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/mgpai22/vvsrt/internal/segment"
	"github.com/mgpai22/vvsrt/internal/subtitle"
	"github.com/mgpai22/vvsrt/internal/timing"
	"github.com/mgpai22/vvsrt/internal/translate"
	"github.com/mgpai22/vvsrt/internal/vvproj"
)

const DefaultWorkers = 4

type Options struct {
	Segment  segment.Options
	Timing   timing.Options
	Format   subtitle.Format
	Language string
	Workers  int // utterances segmented in parallel
}

func DefaultOptions() Options {
	return Options{
		Segment: segment.DefaultOptions(),
		Timing:  timing.Options{},
		Format:  subtitle.FormatSRT,
		Workers: DefaultWorkers,
	}
}

// Converter turns projects into rendered subtitles.
type Converter struct {
	opts       Options
	segmenter  *segment.Segmenter
	translator translate.Translator
}

// NewConverter validates opts. tokenizer may be nil, in which case every
// utterance uses the fallback splitter and a warning is reported.
func NewConverter(opts Options, tokenizer segment.Tokenizer) (*Converter, error) {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Format == "" {
		opts.Format = subtitle.FormatSRT
	}
	if _, err := subtitle.NewWriter(opts.Format); err != nil {
		return nil, err
	}

	seg, err := segment.New(opts.Segment, tokenizer)
	if err != nil {
		return nil, err
	}
	return &Converter{opts: opts, segmenter: seg}, nil
}

// WithTranslator makes the converter translate utterance texts before they
// are segmented. Timing still comes from the original audio.
func (c *Converter) WithTranslator(tr translate.Translator) *Converter {
	c.translator = tr
	return c
}

// Result of one conversion. Output holds the rendered file; nothing has been
// written to disk.
type Result struct {
	Subtitle *subtitle.Subtitle
	Output   []byte
	Timeline []timing.Span
	Warnings []string
}

// Duration is the end of the last utterance in seconds.
func (r *Result) Duration() float64 {
	if len(r.Timeline) == 0 {
		return 0
	}
	return r.Timeline[len(r.Timeline)-1].End
}

func (c *Converter) ConvertFile(ctx context.Context, path string) (*Result, error) {
	project, err := vvproj.Load(path)
	if err != nil {
		return nil, err
	}
	return c.Convert(ctx, project)
}

// Convert computes every utterance's duration, segments the texts in
// parallel, lays the groups out on the contiguous timeline and renders the
// subtitle. Any fatal error aborts before output is produced.
func (c *Converter) Convert(ctx context.Context, project *vvproj.Project) (*Result, error) {
	if project == nil || len(project.Items) == 0 {
		return nil, vvproj.ErrNoAudioItems
	}

	var warns warnings
	warns.add(project.Warnings...)

	breakdowns := make([]timing.Breakdown, len(project.Items))
	durations := make([]float64, len(project.Items))
	for i, item := range project.Items {
		if item.Query == nil {
			warns.addf("utterance %d (%s) has no query; it lasts zero seconds", i+1, item.Key)
		}
		b, err := timing.Analyze(item.Query, c.opts.Timing)
		if err != nil {
			return nil, fmt.Errorf("utterance %d (%s): %w", i+1, item.Key, err)
		}
		breakdowns[i] = b
		durations[i] = b.Total()
	}

	texts := make([]string, len(project.Items))
	for i, item := range project.Items {
		texts[i] = item.Text
	}
	if c.translator != nil {
		translated, err := translate.Texts(ctx, c.translator, texts)
		if err != nil {
			return nil, fmt.Errorf("translation failed: %w", err)
		}
		texts = translated
	}

	results, err := c.segmentAll(ctx, texts)
	if err != nil {
		return nil, err
	}

	timeline := timing.Accumulate(durations)
	cues := make([]subtitle.Cue, 0, len(results))
	prevLast, prevIndex := "", 0
	for i, res := range results {
		// fallback notices repeat per utterance and collapse into one
		warns.add(res.Warnings...)

		lines := res.Lines()
		if len(lines) > 0 {
			if prevLast != "" && segment.SplitsWord(prevLast, lines[0]) {
				warns.addf("utterances %d and %d split a word across entries (%q | %q)",
					prevIndex, i+1, prevLast, lines[0])
			}
			prevLast, prevIndex = lines[len(lines)-1], i+1
		}

		cues = append(cues, layout(timeline[i], breakdowns[i], res)...)
	}

	gen := &subtitle.DefaultGenerator{Language: c.opts.Language, Format: c.opts.Format}
	sub, err := gen.Generate(cues)
	if err != nil {
		return nil, fmt.Errorf("failed to generate subtitles: %w", err)
	}

	writer, err := subtitle.NewWriter(c.opts.Format)
	if err != nil {
		return nil, err
	}

	return &Result{
		Subtitle: sub,
		Output:   writer.Marshal(sub),
		Timeline: timeline,
		Warnings: warns.list,
	}, nil
}

// segmentAll runs the segmenter over every text with at most Workers
// goroutines. Results keep the order of texts.
func (c *Converter) segmentAll(ctx context.Context, texts []string) ([]segment.Result, error) {
	results := make([]segment.Result, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Workers)

	for i, text := range texts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := c.segmenter.Segment(text)
			if err != nil {
				return fmt.Errorf("utterance %d: %w", i+1, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// layout divides one utterance span over its groups by the moras each group
// is read with. An utterance without lines keeps its span as an empty cue.
func layout(span timing.Span, b timing.Breakdown, res segment.Result) []subtitle.Cue {
	if len(res.Groups) == 0 {
		return []subtitle.Cue{{Start: span.Start, End: span.End}}
	}

	moras := res.Moras
	if len(moras) != len(res.Groups) {
		moras = make([]int, len(res.Groups))
		for i, g := range res.Groups {
			moras[i] = segment.EstimateMoras(strings.Join(g, ""))
		}
	}

	spans := b.Split(span, moras)
	cues := make([]subtitle.Cue, len(res.Groups))
	for i, g := range res.Groups {
		cues[i] = subtitle.Cue{Start: spans[i].Start, End: spans[i].End, Lines: g}
	}
	return cues
}

// ordered, duplicate free warning list
type warnings struct {
	list []string
	seen map[string]bool
}

func (w *warnings) add(msgs ...string) {
	if w.seen == nil {
		w.seen = make(map[string]bool)
	}
	for _, m := range msgs {
		if !w.seen[m] {
			w.seen[m] = true
			w.list = append(w.list, m)
		}
	}
}

func (w *warnings) addf(format string, args ...any) {
	w.add(fmt.Sprintf(format, args...))
}
