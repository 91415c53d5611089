package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/quillforge/quill/internal/provider"
)

// Tone classifies the overall tone of an artifact.
type Tone string

const (
	TonePositive Tone = "positive"
	ToneNegative Tone = "negative"
	ToneNeutral  Tone = "neutral"
)

// ParseTone normalizes a provider reply to a Tone. Unparseable replies fall
// back to neutral rather than failing the run.
func ParseTone(reply string) Tone {
	word := strings.ToLower(strings.TrimSpace(reply))
	word = strings.Trim(word, `"'.,!`)
	if idx := strings.IndexAny(word, " \t\n"); idx >= 0 {
		word = word[:idx]
	}
	switch Tone(word) {
	case TonePositive:
		return TonePositive
	case ToneNegative:
		return ToneNegative
	default:
		return ToneNeutral
	}
}

// QualityReport summarizes the post-loop checks. The checks are advisory:
// they never alter the artifact.
type QualityReport struct {
	Grammar      string
	GrammarClean bool
	Tone         Tone
}

// Checker runs the grammar and tone passes over a finished artifact.
type Checker struct {
	gen provider.Generator
}

// NewChecker builds a checker over the given provider.
func NewChecker(gen provider.Generator) *Checker {
	return &Checker{gen: gen}
}

// Inspect runs both checks and assembles the report.
func (c *Checker) Inspect(ctx context.Context, artifact string) (QualityReport, error) {
	grammar, err := c.gen.Generate(ctx, fmt.Sprintf(grammarPrompt, GrammarCleanPhrase, artifact))
	if err != nil {
		return QualityReport{}, err
	}
	tone, err := c.gen.Generate(ctx, fmt.Sprintf(tonePrompt, artifact))
	if err != nil {
		return QualityReport{}, err
	}
	grammar = strings.TrimSpace(grammar)
	return QualityReport{
		Grammar:      grammar,
		GrammarClean: strings.EqualFold(grammar, GrammarCleanPhrase),
		Tone:         ParseTone(tone),
	}, nil
}
