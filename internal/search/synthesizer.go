package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// Fixed fallback answers. The orchestrator always produces some answer
// text; these are returned when synthesis cannot proceed or fails.
const (
	AnswerNoResults            = "no results found"
	AnswerSynthesisUnavailable = "synthesis unavailable"
)

const defaultGenerationModel = "gemini-2.0-flash"

// TextGenerator produces prose from a prompt. The production implementation
// wraps the Gemini API; tests substitute a fake to assert call counts.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// geminiGenerator calls the Gemini generation API.
type geminiGenerator struct {
	client *genai.Client
	model  string
}

func (g *geminiGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("generation response contained no text")
	}
	return text, nil
}

// Synthesizer produces a citation-grounded answer. Synthesis is best-effort
// and non-fatal: every failure branch collapses into a fixed fallback
// string, because bare citations are still useful to the caller.
type Synthesizer struct {
	gen     TextGenerator
	timeout time.Duration
	logger  *zap.Logger
}

// NewSynthesizer builds a synthesizer backed by Gemini. A missing API key
// leaves the generator unconfigured, which degrades every call to the
// fallback answer instead of failing the request.
func NewSynthesizer(ctx context.Context, apiKey, model string, timeout time.Duration, logger *zap.Logger) *Synthesizer {
	s := &Synthesizer{timeout: timeout, logger: logger}
	if s.timeout == 0 {
		s.timeout = 30 * time.Second
	}
	if model == "" {
		model = defaultGenerationModel
	}
	if strings.TrimSpace(apiKey) == "" {
		logger.Warn("Generation API key is not configured, answers will degrade to citations only")
		return s
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		logger.Error("Failed to create generation client", zap.Error(err))
		return s
	}
	s.gen = &geminiGenerator{client: client, model: model}
	return s
}

// NewSynthesizerWithGenerator builds a synthesizer around an existing
// generator. Used by tests and by callers that manage their own client.
func NewSynthesizerWithGenerator(gen TextGenerator, timeout time.Duration, logger *zap.Logger) *Synthesizer {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Synthesizer{gen: gen, timeout: timeout, logger: logger}
}

// Synthesize answers the query using only the given citations as grounding
// context. Empty citations short-circuit to the no-results answer without
// any generation call; any generation failure yields the unavailable
// answer. It never returns an error.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, citations []Citation) string {
	if len(citations) == 0 {
		return AnswerNoResults
	}
	if s.gen == nil {
		return AnswerSynthesisUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	answer, err := s.gen.GenerateText(ctx, buildGroundingPrompt(query, citations))
	if err != nil {
		s.logger.Warn("Answer synthesis failed, using fallback",
			zap.String("query", query),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return AnswerSynthesisUnavailable
	}
	return answer
}

// buildGroundingPrompt assembles the grounding context from citation titles
// and snippets and instructs the model to answer from that context alone.
func buildGroundingPrompt(query string, citations []Citation) string {
	var b strings.Builder
	b.WriteString("You are answering a question using only the source material below.\n")
	b.WriteString("Write one neutral, factual paragraph. Do not mention searching, ")
	b.WriteString("search results, or these instructions. If the sources do not ")
	b.WriteString("cover the question, say what they do cover.\n\nSources:\n")
	for i, c := range citations {
		fmt.Fprintf(&b, "%d. %s", i+1, c.Title)
		if c.Description != "" {
			b.WriteString(": ")
			b.WriteString(c.Description)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nQuestion: ")
	b.WriteString(query)
	return b.String()
}
