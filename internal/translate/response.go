package translate

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
)

var (
	codeFence  = regexp.MustCompile("```[a-zA-Z]*")
	escapePair = regexp.MustCompile(`\\.`)
)

var errNoLines = errors.New("no translated lines found in reply")

// decodeReply reads the translated utterance lines out of a model reply.
// Every item of the batch must be answered exactly once.
func decodeReply(provider, reply string, items []TranslationItem) ([]TranslationResult, error) {
	if strings.TrimSpace(reply) == "" {
		return nil, fmt.Errorf("no text in %s response", provider)
	}

	body := stripFences(reply)
	lines, err := findLines(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w (response: %s)", err, excerpt(body, 200))
	}
	if len(lines) != len(items) {
		return nil, fmt.Errorf("expected %d results, got %d", len(items), len(lines))
	}

	pending := make(map[int]bool, len(items))
	for _, item := range items {
		pending[item.Index] = true
	}
	for _, line := range lines {
		if !pending[line.Index] {
			return nil, fmt.Errorf("unexpected result index %d", line.Index)
		}
		delete(pending, line.Index)
	}
	return lines, nil
}

// stripFences removes markdown code fences around or inside the reply.
func stripFences(s string) string {
	return strings.TrimSpace(codeFence.ReplaceAllString(s, ""))
}

// repairEscapes doubles the backslash of escapes JSON does not know, such
// as the \N line break of ASS subtitles, so they survive as literal text.
func repairEscapes(s string) string {
	return escapePair.ReplaceAllStringFunc(s, func(pair string) string {
		if strings.ContainsRune(`"\/bfnrtu`, rune(pair[1])) {
			return pair
		}
		return `\` + pair
	})
}

// findLines decodes the first JSON value in body that holds translated
// lines. Prose before or after the value is ignored.
func findLines(body string) ([]TranslationResult, error) {
	rest := repairEscapes(body)
	for {
		i := strings.IndexAny(rest, "[{")
		if i < 0 {
			return nil, errNoLines
		}
		rest = rest[i:]
		var raw json.RawMessage
		if json.NewDecoder(strings.NewReader(rest)).Decode(&raw) == nil {
			if lines := linesIn(raw); lines != nil {
				return lines, nil
			}
		}
		rest = rest[1:]
	}
}

// well-known envelope keys, tried before any other key of an object
var envelopeKeys = []string{"results", "translations", "lines", "utterances", "data", "items"}

// linesIn accepts a bare array of lines or an object wrapping one. It
// returns nil when no line carries text.
func linesIn(raw json.RawMessage) []TranslationResult {
	var lines []TranslationResult
	if json.Unmarshal(raw, &lines) == nil {
		if hasText(lines) {
			return lines
		}
		return nil
	}

	var envelope map[string]json.RawMessage
	if json.Unmarshal(raw, &envelope) != nil {
		return nil
	}
	keys := slices.Clone(envelopeKeys)
	for _, k := range slices.Sorted(maps.Keys(envelope)) {
		if !slices.Contains(envelopeKeys, k) {
			keys = append(keys, k)
		}
	}
	for _, k := range keys {
		inner, ok := envelope[k]
		if !ok {
			continue
		}
		var wrapped []TranslationResult
		if json.Unmarshal(inner, &wrapped) == nil && hasText(wrapped) {
			return wrapped
		}
	}
	return nil
}

func hasText(lines []TranslationResult) bool {
	return slices.ContainsFunc(lines, func(l TranslationResult) bool { return l.Text != "" })
}

// excerpt shortens s to at most n runes for error messages.
func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
