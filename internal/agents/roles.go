package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/quillforge/quill/internal/pipeline"
	"github.com/quillforge/quill/internal/provider"
)

// Drafter writes the initial artifact for a topic.
type Drafter struct {
	gen provider.Generator
}

// NewDrafter builds a drafter over the given provider.
func NewDrafter(gen provider.Generator) *Drafter {
	return &Drafter{gen: gen}
}

// Draft implements pipeline.Drafter.
func (d *Drafter) Draft(ctx context.Context, topic string) (string, error) {
	reply, err := d.gen.Generate(ctx, fmt.Sprintf(draftPrompt, topic))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

// Critic reviews an artifact and maps the provider's reply to a verdict.
// The decision is entirely the provider's: a reply equal to the completion
// phrase means done, anything else is treated as feedback.
type Critic struct {
	gen provider.Generator
}

// NewCritic builds a critic over the given provider.
func NewCritic(gen provider.Generator) *Critic {
	return &Critic{gen: gen}
}

// Critique implements pipeline.Critic.
func (c *Critic) Critique(ctx context.Context, topic, artifact string) (pipeline.CritiqueResult, error) {
	reply, err := c.gen.Generate(ctx, fmt.Sprintf(critiquePrompt, topic, artifact, CompletionPhrase))
	if err != nil {
		return pipeline.CritiqueResult{}, err
	}
	if isCompletionReply(reply) {
		return pipeline.CritiqueResult{Verdict: pipeline.VerdictDone}, nil
	}
	return pipeline.CritiqueResult{
		Verdict:  pipeline.VerdictContinue,
		Feedback: strings.TrimSpace(reply),
	}, nil
}

// isCompletionReply matches the completion phrase, tolerating surrounding
// whitespace, quotes, and case drift in the provider output.
func isCompletionReply(reply string) bool {
	cleaned := strings.TrimSpace(reply)
	cleaned = strings.Trim(cleaned, `"'`)
	return strings.EqualFold(cleaned, CompletionPhrase)
}

// Reviser rewrites an artifact from the critic's feedback.
type Reviser struct {
	gen provider.Generator
}

// NewReviser builds a reviser over the given provider.
func NewReviser(gen provider.Generator) *Reviser {
	return &Reviser{gen: gen}
}

// Revise implements pipeline.Reviser. The input artifact is never modified;
// a fresh string comes back from the provider.
func (r *Reviser) Revise(ctx context.Context, topic, artifact, feedback string) (string, error) {
	reply, err := r.gen.Generate(ctx, fmt.Sprintf(revisePrompt, topic, artifact, feedback))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}
