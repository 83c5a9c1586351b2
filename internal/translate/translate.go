package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// single utterance text to translate
type TranslationItem struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// translated text item
type TranslationResult struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// interface for text translation
type Translator interface {
	Translate(
		ctx context.Context,
		items []TranslationItem,
	) ([]TranslationResult, error)
}

// translation service provider
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

const (
	DefaultBatchSize   = 50
	DefaultConcurrency = 3
)

type Options struct {
	InputLanguage   string
	TargetLanguage  string
	Model           string
	Prompt          string
	BatchSize       int // items per API request (default 50)
	Concurrency     int // requests in flight (default 3)
	RateLimitPerMin int // requests started per minute, 0 for no limit
}

func (o Options) batchSize() int {
	if o.BatchSize > 0 {
		return o.BatchSize
	}
	return DefaultBatchSize
}

func (o Options) concurrency() int {
	if o.Concurrency > 0 {
		return o.Concurrency
	}
	return DefaultConcurrency
}

// creates Translator based on provider
func Factory(
	ctx context.Context,
	provider Provider,
	apiKey string,
	opts Options,
) (Translator, error) {
	if opts.TargetLanguage == "" {
		return nil, fmt.Errorf("target language is required")
	}

	switch provider {
	case ProviderGemini:
		return NewGeminiTranslator(ctx, apiKey, opts)
	case ProviderOpenAI:
		return NewOpenAITranslator(ctx, apiKey, opts)
	case ProviderAnthropic:
		return NewAnthropicTranslator(ctx, apiKey, opts)
	default:
		return nil, fmt.Errorf("unsupported translation provider: %s", provider)
	}
}

// Texts translates each text and keeps it at its position. Blank texts are
// not sent and stay blank, so every utterance keeps its slot on the timeline.
func Texts(ctx context.Context, tr Translator, texts []string) ([]string, error) {
	var items []TranslationItem
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		items = append(items, TranslationItem{Index: i, Text: text})
	}

	out := append([]string(nil), texts...)
	if len(items) == 0 {
		return out, nil
	}

	results, err := tr.Translate(ctx, items)
	if err != nil {
		return nil, err
	}

	seen := make(map[int]bool, len(results))
	for _, r := range results {
		if r.Index < 0 || r.Index >= len(texts) || strings.TrimSpace(texts[r.Index]) == "" {
			return nil, fmt.Errorf("translation returned unknown index %d", r.Index)
		}
		out[r.Index] = r.Text
		seen[r.Index] = true
	}
	for _, item := range items {
		if !seen[item.Index] {
			return nil, fmt.Errorf("translation is missing index %d", item.Index)
		}
	}
	return out, nil
}

// BuildPrompt creates the translation prompt for LLM providers
func BuildPrompt(opts Options, items []TranslationItem) string {
	var sb strings.Builder

	if opts.InputLanguage != "" {
		sb.WriteString(fmt.Sprintf(
			"Translate the following %s spoken lines of a voice project to %s.\n\n",
			opts.InputLanguage,
			opts.TargetLanguage,
		))
	} else {
		sb.WriteString(fmt.Sprintf(
			"Translate the following spoken lines of a voice project to %s.\n\n",
			opts.TargetLanguage,
		))
	}

	sb.WriteString("IMPORTANT INSTRUCTIONS:\n")
	sb.WriteString(
		"1. Translate ONLY the text content, preserving the meaning and tone.\n",
	)
	sb.WriteString(
		"2. Keep sentence punctuation such as 。！？ or its equivalent in the target language.\n",
	)
	sb.WriteString("3. Preserve line breaks in the same positions.\n")
	sb.WriteString("4. Return ONLY a JSON array with the same structure.\n")
	sb.WriteString("5. Each object must have 'index' and 'text' fields.\n")
	sb.WriteString(
		"6. The 'index' values must match the input indices exactly.\n",
	)
	sb.WriteString("7. Do not add any explanation or markdown formatting.\n\n")

	if opts.Prompt != "" {
		sb.WriteString(
			fmt.Sprintf("Additional instructions: %s\n\n", opts.Prompt),
		)
	}

	sb.WriteString("Input JSON:\n")

	inputJSON, _ := json.MarshalIndent(items, "", "  ")
	sb.Write(inputJSON)

	sb.WriteString("\n\nOutput the translated JSON array only:")

	return sb.String()
}
