package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/quillforge/quill/internal/provider"
	"github.com/quillforge/quill/internal/tools"
)

// Refiner is the slice of the pipeline the refine handler needs.
type Refiner interface {
	Run(ctx context.Context, topic string, maxIterations int) (string, error)
}

// RefineHandler sends the request through the refinement pipeline.
type RefineHandler struct {
	refiner       Refiner
	maxIterations int
}

// NewRefineHandler wires the pipeline behind the refine intent.
func NewRefineHandler(refiner Refiner, maxIterations int) *RefineHandler {
	return &RefineHandler{refiner: refiner, maxIterations: maxIterations}
}

// Handle implements Handler.
func (h *RefineHandler) Handle(ctx context.Context, request string) (string, error) {
	return h.refiner.Run(ctx, request, h.maxIterations)
}

// AnswerHandler answers the request with a single provider call.
type AnswerHandler struct {
	gen provider.Generator
}

// NewAnswerHandler builds the fallback handler.
func NewAnswerHandler(gen provider.Generator) *AnswerHandler {
	return &AnswerHandler{gen: gen}
}

const answerPrompt = `You are a helpful assistant. Answer the request below clearly and briefly.

Request: %s`

// Handle implements Handler.
func (h *AnswerHandler) Handle(ctx context.Context, request string) (string, error) {
	reply, err := h.gen.Generate(ctx, fmt.Sprintf(answerPrompt, request))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

const extractCityPrompt = `Extract the city the user is asking about from the request below.
Output only the city name, or 'unknown' if no city is mentioned.

Request: %s`

const presentWeatherPrompt = `You are a helpful weather assistant. Present the weather report below
to the user clearly, in one or two sentences.

Report: %s`

// WeatherHandler resolves the city with the provider, fetches the report
// through the tool registry, and has the provider phrase the answer.
type WeatherHandler struct {
	gen      provider.Generator
	registry *tools.Registry
}

// NewWeatherHandler wires the weather intent over a tool registry.
func NewWeatherHandler(gen provider.Generator, registry *tools.Registry) *WeatherHandler {
	return &WeatherHandler{gen: gen, registry: registry}
}

// Handle implements Handler.
func (h *WeatherHandler) Handle(ctx context.Context, request string) (string, error) {
	city, err := h.gen.Generate(ctx, fmt.Sprintf(extractCityPrompt, request))
	if err != nil {
		return "", err
	}
	city = strings.Trim(strings.TrimSpace(city), `"'.`)
	if city == "" || strings.EqualFold(city, "unknown") {
		return "I could not tell which city you are asking about.", nil
	}
	report, err := h.registry.Call(ctx, "get_weather", map[string]any{"city": city})
	if err != nil {
		// Tool misses are user-facing, not run-fatal.
		return fmt.Sprintf("Sorry, I have no weather report for %s.", city), nil
	}
	reply, err := h.gen.Generate(ctx, fmt.Sprintf(presentWeatherPrompt, report))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}
