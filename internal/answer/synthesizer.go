// Package answer turns grounding text into a natural-language answer.
// When generation fails it degrades to extractive output instead of
// propagating the failure.
package answer

import (
	"context"
	"fmt"
	"log/slog"
)

// Mode selects which grounding source the prompt template cites.
type Mode int

const (
	ModeDocument Mode = iota
	ModeWeb
)

const maxAnswerTokens = 1024

// Generator is the language-generation capability.
type Generator interface {
	Complete(ctx context.Context, system, user string, maxTokens int) (string, error)
}

type Synthesizer struct {
	generator Generator
	logger    *slog.Logger
}

func New(generator Generator, logger *slog.Logger) *Synthesizer {
	return &Synthesizer{generator: generator, logger: logger}
}

// Synthesize answers the query from the grounding text. On generation
// failure it returns the grounding itself behind a provenance label, so
// the caller always gets usable text.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, mode Mode, grounding string) string {
	var prompt, fallbackPrefix string
	switch mode {
	case ModeWeb:
		prompt = fmt.Sprintf(webPrompt, query, grounding)
		fallbackPrefix = "Based on web search: "
	default:
		prompt = fmt.Sprintf(documentPrompt, query, grounding)
		fallbackPrefix = "Based on the PDF: "
	}

	text, err := s.generator.Complete(ctx, systemPrompt, prompt, maxAnswerTokens)
	if err != nil {
		s.logger.Error("generation failed, degrading to extractive answer", "mode", int(mode), "error", err)
		return fallbackPrefix + grounding
	}
	return text
}
