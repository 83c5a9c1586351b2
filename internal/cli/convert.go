package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mgpai22/vvsrt/internal/audio"
	"github.com/mgpai22/vvsrt/internal/config"
	"github.com/mgpai22/vvsrt/internal/engine"
	"github.com/mgpai22/vvsrt/internal/segment"
	"github.com/mgpai22/vvsrt/internal/subtitle"
	"github.com/mgpai22/vvsrt/internal/tokenize"
	"github.com/mgpai22/vvsrt/internal/translate"
	"github.com/spf13/cobra"
)

func newConvertCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert [project.vvproj]",
		Short: "Generate subtitles for a VOICEVOX project",
		Long: `Generate subtitles for the specified VOICEVOX project.

Entry times are computed from the phoneme lengths stored in the project, so
they match audio exported from the same project. Lines are split with a
Japanese morphological analyzer (kagome) unless another tokenizer is chosen.
Within an utterance, time is shared between entries by the moras each one
reads.

Every utterance starts a new entry. When the project itself splits a Latin
word across two utterances ("Hel" | "lo"), the word stays split in the
subtitles and a warning names both utterances; merge them in VOICEVOX to fix
it.

Utterance texts can be translated before segmentation with --translate-to;
the timeline always follows the original audio.

Examples:
  vvsrt convert talk.vvproj
  vvsrt convert talk.vvproj -f vtt -o subs/talk.vtt
  vvsrt convert talk.vvproj --max-chars 20 --emotion
  vvsrt convert talk.vvproj --audio talk.wav --mux talk.mkv
  vvsrt convert talk.vvproj --translate-to english --provider openai`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConvert(cmd, args[0])
		},
	}

	defaults := config.Default()

	cmd.Flags().
		StringP("output", "o", "", "Output file path (default: project path with the format's extension)")
	cmd.Flags().
		StringP("format", "f", defaults.Output.Format, "Output subtitle format (srt, vtt, ass)")
	cmd.Flags().
		StringP("language", "l", defaults.Output.Language, "Subtitle language code")
	cmd.Flags().
		Int("max-chars", defaults.Segment.MaxChars, "Maximum characters per line")
	cmd.Flags().
		Int("max-lines", defaults.Segment.MaxLines, "Maximum lines per entry")
	cmd.Flags().
		Int("min-line-length", defaults.Segment.MinLineLength, "Lines shorter than this are merged with the previous line when possible")
	cmd.Flags().
		Bool("emotion", false, "Let trailing emotional punctuation runs (ー！！, …) exceed --max-chars")
	cmd.Flags().
		String("emotion-pattern", defaults.Segment.EmotionPattern, "Regular expression matching an emotional punctuation run at the end of a line")
	cmd.Flags().
		Float64("speed-scale", 0, "Override every utterance's speed scale (0 keeps the project value)")
	cmd.Flags().
		Float64("pause-scale", 0, "Override every utterance's pause length scale (0 keeps the project value)")
	cmd.Flags().
		Float64("pause-length", 0, "Override every pause length in seconds")
	cmd.Flags().
		Bool("frame-accurate", false, "Round phoneme lengths to synthesis frames like the engine does")
	cmd.Flags().
		String("tokenizer", defaults.Tokenizer, "Tokenizer for line splitting (kagome, simple, none)")
	cmd.Flags().
		Int("workers", defaults.Workers, "Number of utterances segmented in parallel")
	cmd.Flags().
		String("audio", "", "Exported audio of the project, checked against the computed timeline")
	cmd.Flags().
		String("mux", "", "Mux --audio and the subtitles into this container (mkv, mp4, webm)")
	cmd.Flags().
		String("translate-to", "", "Translate utterance texts to this language")
	cmd.Flags().
		String("provider", defaults.Translate.Provider, "Translation provider (gemini, openai, anthropic)")
	cmd.Flags().
		String("model", "", "Model to use for translation (provider-specific, uses sensible defaults)")
	cmd.Flags().
		StringP("api-key", "k", "", "API key (or set GEMINI_API_KEY/OPENAI_API_KEY/ANTHROPIC_API_KEY env var)")
	cmd.Flags().
		Int("batch-size", defaults.Translate.BatchSize, "Number of utterances per translation request")
	cmd.Flags().
		Int("concurrency", defaults.Translate.Concurrency, "Number of parallel translation requests")
	cmd.Flags().
		Int("rate-limit", 0, "Maximum translation requests per minute (0 for no limit)")

	return cmd
}

// applyFlags overrides configuration values with the flags set on the
// command line.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	set := func(name string, apply func()) {
		if flags.Changed(name) {
			apply()
		}
	}

	set("format", func() { cfg.Output.Format, _ = flags.GetString("format") })
	set("language", func() { cfg.Output.Language, _ = flags.GetString("language") })
	set("max-chars", func() { cfg.Segment.MaxChars, _ = flags.GetInt("max-chars") })
	set("max-lines", func() { cfg.Segment.MaxLines, _ = flags.GetInt("max-lines") })
	set("min-line-length", func() { cfg.Segment.MinLineLength, _ = flags.GetInt("min-line-length") })
	set("emotion", func() { cfg.Segment.ExemptEmotion, _ = flags.GetBool("emotion") })
	set("emotion-pattern", func() { cfg.Segment.EmotionPattern, _ = flags.GetString("emotion-pattern") })
	set("speed-scale", func() { cfg.Timing.SpeedScale, _ = flags.GetFloat64("speed-scale") })
	set("pause-scale", func() { cfg.Timing.PauseLengthScale, _ = flags.GetFloat64("pause-scale") })
	set("pause-length", func() {
		v, _ := flags.GetFloat64("pause-length")
		cfg.Timing.PauseLength = &v
	})
	set("frame-accurate", func() { cfg.Timing.FrameAccurate, _ = flags.GetBool("frame-accurate") })
	set("tokenizer", func() { cfg.Tokenizer, _ = flags.GetString("tokenizer") })
	set("workers", func() { cfg.Workers, _ = flags.GetInt("workers") })
	set("translate-to", func() { cfg.Translate.TargetLanguage, _ = flags.GetString("translate-to") })
	set("provider", func() { cfg.Translate.Provider, _ = flags.GetString("provider") })
	set("model", func() { cfg.Translate.Model, _ = flags.GetString("model") })
	set("api-key", func() { cfg.Translate.APIKey, _ = flags.GetString("api-key") })
	set("batch-size", func() { cfg.Translate.BatchSize, _ = flags.GetInt("batch-size") })
	set("concurrency", func() { cfg.Translate.Concurrency, _ = flags.GetInt("concurrency") })
	set("rate-limit", func() { cfg.Translate.RateLimitPerMin, _ = flags.GetInt("rate-limit") })

	// an output path picks the format unless one was asked for
	if output, _ := flags.GetString("output"); output != "" && !flags.Changed("format") {
		if ext := filepath.Ext(output); ext != "" {
			if format, err := subtitle.ParseFormat(ext); err == nil {
				cfg.Output.Format = string(format)
			}
		}
	}
}

func (a *app) runConvert(cmd *cobra.Command, projectPath string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if _, err := os.Stat(projectPath); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", projectPath)
	}

	cfg := *a.cfg
	applyFlags(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	outputPath, _ := cmd.Flags().GetString("output")
	audioPath, _ := cmd.Flags().GetString("audio")
	muxPath, _ := cmd.Flags().GetString("mux")

	if muxPath != "" && audioPath == "" {
		return fmt.Errorf("--mux needs the exported audio: use --audio")
	}
	if audioPath != "" && !audio.IsAudioFile(audioPath) {
		return fmt.Errorf("unsupported audio file: %s", audioPath)
	}

	opts := cfg.EngineOptions()
	if outputPath == "" {
		baseName := strings.TrimSuffix(projectPath, filepath.Ext(projectPath))
		outputPath = baseName + subtitle.GetExtensionForFormat(opts.Format)
	}

	tokenizer, err := tokenize.New(cfg.Tokenizer)
	if err != nil {
		if !errors.Is(err, segment.ErrTokenizerUnavailable) {
			return err
		}
		a.logger.Warnw("Tokenizer unavailable, using simple clause splitting",
			"tokenizer", cfg.Tokenizer,
			"error", err,
		)
		tokenizer = nil
	}

	converter, err := engine.NewConverter(opts, tokenizer)
	if err != nil {
		return err
	}

	if cfg.Translate.TargetLanguage != "" {
		translator, err := newTranslator(ctx, &cfg)
		if err != nil {
			return err
		}
		converter.WithTranslator(translator)
	}

	a.logger.Infow("Starting subtitle conversion",
		"input", projectPath,
		"output", outputPath,
		"format", opts.Format,
		"max_chars", opts.Segment.MaxChars,
		"max_lines", opts.Segment.MaxLines,
		"tokenizer", cfg.Tokenizer,
		"workers", opts.Workers,
	)

	result, err := converter.ConvertFile(ctx, projectPath)
	if err != nil {
		return fmt.Errorf("conversion failed: %w", err)
	}

	if audioPath != "" {
		a.checkDrift(audioPath, result)
	}

	if err := subtitle.WriteFile(outputPath, result.Output); err != nil {
		return fmt.Errorf("failed to write subtitles: %w", err)
	}

	if muxPath != "" {
		a.logger.Infow("Muxing audio and subtitles", "output", muxPath)
		if err := audio.Mux(ctx, audioPath, outputPath, muxPath, cfg.Output.Language); err != nil {
			return fmt.Errorf("failed to mux: %w", err)
		}
	}

	a.logger.Warnings("convert", result.Warnings)

	out := cmd.OutOrStdout()
	absOutput, _ := filepath.Abs(outputPath)
	fmt.Fprintf(out, "Subtitles generated successfully: %s\n", absOutput)
	fmt.Fprintf(out, "  Entries: %d\n", len(result.Subtitle.Entries))
	fmt.Fprintf(out, "  Duration: %s\n", subtitle.ToDuration(result.Duration()))
	if len(result.Warnings) > 0 {
		fmt.Fprintf(out, "  Warnings: %d\n", len(result.Warnings))
	}
	if muxPath != "" {
		absMux, _ := filepath.Abs(muxPath)
		fmt.Fprintf(out, "  Muxed: %s\n", absMux)
	}

	return nil
}

// checkDrift compares the exported audio with the computed timeline. A
// probe failure only costs the check.
func (a *app) checkDrift(audioPath string, result *engine.Result) {
	actual, err := audio.GetDuration(audioPath)
	if err != nil {
		a.logger.Warnw("Could not probe audio, skipping drift check",
			"audio", audioPath,
			"error", err,
		)
		return
	}

	diff, exceeds := audio.Drift(result.Duration(), actual)
	if exceeds {
		a.logger.Warnw("Audio length differs from the computed timeline",
			"audio", actual.String(),
			"timeline", subtitle.ToDuration(result.Duration()).String(),
			"difference_seconds", fmt.Sprintf("%+.3f", diff),
		)
		return
	}
	a.logger.Debugw("Audio matches the computed timeline",
		"difference_seconds", fmt.Sprintf("%+.4f", diff),
	)
}

// environment variable holding the provider's API key
func apiKeyEnv(provider translate.Provider) string {
	switch provider {
	case translate.ProviderGemini:
		return "GEMINI_API_KEY"
	case translate.ProviderOpenAI:
		return "OPENAI_API_KEY"
	case translate.ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return "API_KEY"
	}
}

func newTranslator(ctx context.Context, cfg *config.Config) (translate.Translator, error) {
	provider := translate.Provider(cfg.Translate.Provider)

	if in := cfg.Translate.InputLanguage; in != "" &&
		strings.EqualFold(strings.TrimSpace(in), strings.TrimSpace(cfg.Translate.TargetLanguage)) {
		return nil, fmt.Errorf(
			"input language %q and target language %q cannot be the same",
			in,
			cfg.Translate.TargetLanguage,
		)
	}

	apiKey := cfg.Translate.APIKey
	if apiKey == "" {
		apiKey = os.Getenv(apiKeyEnv(provider))
	}
	if apiKey == "" {
		return nil, fmt.Errorf(
			"API key is required: use --api-key flag or set %s environment variable",
			apiKeyEnv(provider),
		)
	}

	translator, err := translate.Factory(ctx, provider, apiKey, cfg.TranslateOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to create translator: %w", err)
	}
	return translator, nil
}
