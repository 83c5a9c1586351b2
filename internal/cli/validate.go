package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/mgpai22/vvsrt/internal/subtitle"
	"github.com/mgpai22/vvsrt/internal/validate"
	"github.com/spf13/cobra"
)

// ErrViolations is returned by the validate command when a file breaks a
// rule, after the report has been printed.
var ErrViolations = errors.New("subtitle file has violations")

func newValidateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [subtitle-file]",
		Short: "Check a subtitle file against the line budget",
		Long: `Check an SRT, WebVTT or ASS file against the line budget used by convert.

Reports lines over the character budget, entries over the line budget,
lines that open with punctuation, punctuation-only lines, index gaps and
breaks in the timeline, followed by line statistics.

Examples:
  vvsrt validate talk.srt
  vvsrt validate talk.vtt --max-chars 20 --emotion`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runValidate(cmd, args[0])
		},
	}

	cmd.Flags().Int("max-chars", 0, "Maximum characters per line (default from config)")
	cmd.Flags().Int("max-lines", 0, "Maximum lines per entry (default from config)")
	cmd.Flags().Bool("emotion", false, "Let trailing emotional punctuation runs exceed --max-chars")

	return cmd
}

func (a *app) runValidate(cmd *cobra.Command, path string) error {
	opts := validate.Options{
		MaxChars:       a.cfg.Segment.MaxChars,
		MaxLines:       a.cfg.Segment.MaxLines,
		ExemptEmotion:  a.cfg.Segment.ExemptEmotion,
		EmotionPattern: a.cfg.Segment.EmotionPattern,
	}
	if cmd.Flags().Changed("max-chars") {
		opts.MaxChars, _ = cmd.Flags().GetInt("max-chars")
	}
	if cmd.Flags().Changed("max-lines") {
		opts.MaxLines, _ = cmd.Flags().GetInt("max-lines")
	}
	if cmd.Flags().Changed("emotion") {
		opts.ExemptEmotion, _ = cmd.Flags().GetBool("emotion")
	}

	file, err := subtitle.Open(path)
	if err != nil {
		return fmt.Errorf("failed to read subtitle file: %w", err)
	}

	a.logger.Debugw("Validating subtitles",
		"input", path,
		"format", file.Format(),
		"max_chars", opts.MaxChars,
		"max_lines", opts.MaxLines,
	)

	report, err := validate.Check(file.Subtitle(), opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s)\n", filepath.Base(path), file.Format())

	if len(report.Violations) > 0 {
		rows := make([][]string, 0, len(report.Violations))
		for _, v := range report.Violations {
			line := ""
			if v.Line > 0 {
				line = strconv.Itoa(v.Line)
			}
			rows = append(rows, []string{strconv.Itoa(v.Index), line, string(v.Kind), v.String()})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"Entry", "Line", "Rule", "Detail"},
			rows,
			[]columnAlignment{alignRight, alignRight, alignLeft, alignLeft},
		))
	}

	if len(report.Allowances) > 0 {
		rows := make([][]string, 0, len(report.Allowances))
		for _, al := range report.Allowances {
			rows = append(rows, []string{
				strconv.Itoa(al.Index),
				strconv.Itoa(al.Line),
				strconv.Itoa(al.Chars),
				al.Base + " + " + al.Emotion,
			})
		}
		fmt.Fprintln(out, "Emotional lines allowed over the budget:")
		fmt.Fprintln(out, renderTable(
			[]string{"Entry", "Line", "Chars", "Text"},
			rows,
			[]columnAlignment{alignRight, alignRight, alignRight, alignLeft},
		))
	}

	s := report.Stats
	fmt.Fprintln(out, renderTable(
		[]string{"Statistic", "Value"},
		[][]string{
			{"Entries", strconv.Itoa(s.Entries)},
			{"Max chars per line", strconv.Itoa(s.MaxCharsPerLine)},
			{"Avg chars per line", fmt.Sprintf("%.1f", s.AvgCharsPerLine)},
			{"Max lines per entry", strconv.Itoa(s.MaxLinesPerEntry)},
			{"Avg lines per entry", fmt.Sprintf("%.1f", s.AvgLinesPerEntry)},
			{"Emotional lines", strconv.Itoa(s.EmotionLines)},
		},
		[]columnAlignment{alignLeft, alignRight},
	))

	if !report.OK() {
		fmt.Fprintf(out, "%d violation(s) found\n", len(report.Violations))
		for _, kind := range validate.Kinds {
			if n := report.Count(kind); n > 0 {
				fmt.Fprintf(out, "  %s: %d\n", kind, n)
			}
		}
		return ErrViolations
	}
	fmt.Fprintln(out, "All entries are within the budget")
	return nil
}
