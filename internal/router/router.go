// Package router classifies a free-form request into an intent and
// dispatches it to the matching handler. The handler set is a fixed
// tagged-union table; nothing is registered at runtime.
package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/quillforge/quill/internal/provider"
)

// Intent tags the kind of request the user made.
type Intent string

const (
	// IntentRefine asks for a piece of text to be written and polished.
	IntentRefine Intent = "refine"
	// IntentWeather asks about current weather conditions.
	IntentWeather Intent = "weather"
	// IntentAnswer is the default: answer the request directly.
	IntentAnswer Intent = "answer"
)

const classifyPrompt = `Classify the user request below into exactly one category.
Output only one word:
'refine' if the user wants a text written, drafted, or improved,
'weather' if the user asks about weather conditions,
'answer' otherwise.

Request: %s`

// Handler serves one intent.
type Handler interface {
	Handle(ctx context.Context, request string) (string, error)
}

// Router owns the classify-then-dispatch flow.
type Router struct {
	gen      provider.Generator
	handlers map[Intent]Handler
}

// New builds a router over a fixed handler table. Every intent must have a
// handler; a partial table is a wiring bug.
func New(gen provider.Generator, handlers map[Intent]Handler) (*Router, error) {
	if gen == nil {
		return nil, fmt.Errorf("router: generator is required")
	}
	for _, intent := range []Intent{IntentRefine, IntentWeather, IntentAnswer} {
		if handlers[intent] == nil {
			return nil, fmt.Errorf("router: no handler for intent %s", intent)
		}
	}
	return &Router{gen: gen, handlers: handlers}, nil
}

// Route classifies the request and runs the matching handler.
func (r *Router) Route(ctx context.Context, request string) (Intent, string, error) {
	request = strings.TrimSpace(request)
	if request == "" {
		return "", "", fmt.Errorf("router: request is empty")
	}
	intent := r.classify(ctx, request)
	reply, err := r.handlers[intent].Handle(ctx, request)
	if err != nil {
		return intent, "", err
	}
	return intent, reply, nil
}

// classify asks the provider for a one-word tag and falls back to keyword
// matching when the reply does not parse.
func (r *Router) classify(ctx context.Context, request string) Intent {
	reply, err := r.gen.Generate(ctx, fmt.Sprintf(classifyPrompt, request))
	if err == nil {
		if intent, ok := parseIntent(reply); ok {
			return intent
		}
	}
	return keywordIntent(request)
}

func parseIntent(reply string) (Intent, bool) {
	word := strings.ToLower(strings.TrimSpace(reply))
	word = strings.Trim(word, `"'.,!`)
	switch Intent(word) {
	case IntentRefine, IntentWeather, IntentAnswer:
		return Intent(word), true
	default:
		return "", false
	}
}

func keywordIntent(request string) Intent {
	lower := strings.ToLower(request)
	switch {
	case strings.Contains(lower, "weather") || strings.Contains(lower, "forecast"):
		return IntentWeather
	case strings.Contains(lower, "write") || strings.Contains(lower, "story") ||
		strings.Contains(lower, "poem") || strings.Contains(lower, "essay") ||
		strings.Contains(lower, "refine"):
		return IntentRefine
	default:
		return IntentAnswer
	}
}
