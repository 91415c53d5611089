// Package engine is the composition root: it resolves the configured
// provider, wires the agents into the pipeline, and exposes the two
// operations everything else calls — Refine and Ask.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/quillforge/quill/internal/agents"
	"github.com/quillforge/quill/internal/config"
	"github.com/quillforge/quill/internal/logbook"
	"github.com/quillforge/quill/internal/pipeline"
	"github.com/quillforge/quill/internal/provider"
	"github.com/quillforge/quill/internal/router"
	"github.com/quillforge/quill/internal/telemetry"
	"github.com/quillforge/quill/internal/tools"
)

// RunResult is what a refinement run hands back to callers.
type RunResult struct {
	Artifact   string
	Iterations int
	Completed  bool
	Report     *agents.QualityReport
	LogPath    string
}

// Engine bundles the wired collaborators for one project.
type Engine struct {
	cfg     *config.Config
	gen     provider.Generator
	checker *agents.Checker
	router  *router.Router
	tracer  *telemetry.Tracer
	policy  pipeline.ExhaustionPolicy
	now     func() time.Time
}

// Option customizes engine construction.
type Option func(*Engine)

// WithGenerator overrides the provider resolved from config (tests).
func WithGenerator(gen provider.Generator) Option {
	return func(e *Engine) {
		if gen != nil {
			e.gen = gen
		}
	}
}

// WithTracer installs a telemetry tracer around runs.
func WithTracer(tracer *telemetry.Tracer) Option {
	return func(e *Engine) {
		e.tracer = tracer
	}
}

// WithClock overrides run id timestamps (tests).
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.now = clock
		}
	}
}

// New wires an engine from project configuration.
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("engine: config is required")
	}
	policy, err := pipeline.ParseExhaustionPolicy(cfg.OnExhausted())
	if err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:    cfg,
		policy: policy,
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	if e.gen == nil {
		gen, err := resolveGenerator(cfg)
		if err != nil {
			return nil, err
		}
		e.gen = gen
	}
	e.checker = agents.NewChecker(e.gen)

	registry := tools.NewRegistry()
	registry.MustRegister(tools.NewWeather())
	registry.MustRegister(tools.NewClock())

	e.router, err = router.New(e.gen, map[router.Intent]router.Handler{
		router.IntentRefine:  router.NewRefineHandler(refineAdapter{e}, cfg.MaxIterations()),
		router.IntentWeather: router.NewWeatherHandler(e.gen, registry),
		router.IntentAnswer:  router.NewAnswerHandler(e.gen),
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Refine runs the full pipeline for a topic. The observer may be nil; when
// set it receives progress events alongside the run logbook.
func (e *Engine) Refine(ctx context.Context, topic string, observer pipeline.Observer) (RunResult, error) {
	return e.refine(ctx, topic, e.cfg.MaxIterations(), observer)
}

// RefineWithBound is Refine with an explicit iteration bound, for callers
// that override the configured default.
func (e *Engine) RefineWithBound(ctx context.Context, topic string, maxIterations int, observer pipeline.Observer) (RunResult, error) {
	return e.refine(ctx, topic, maxIterations, observer)
}

func (e *Engine) refine(ctx context.Context, topic string, maxIterations int, observer pipeline.Observer) (RunResult, error) {
	lb, err := logbook.ForRun(e.cfg.RunsDir(), logbook.NewRunID(e.now()))
	if err != nil {
		return RunResult{}, fmt.Errorf("engine: open run logbook: %w", err)
	}
	lb.Info("run started topic=%q max_iterations=%d provider=%s", topic, maxIterations, e.gen.Name())

	opts := []pipeline.Option{
		pipeline.WithExhaustionPolicy(e.policy),
		pipeline.WithStepTimeout(e.cfg.StepTimeout()),
		pipeline.WithObserver(fanOut(lb.Observe(), observer)),
	}
	if e.tracer != nil {
		opts = append(opts, pipeline.WithTracer(e.tracer))
	}
	orch, err := pipeline.New(
		agents.NewDrafter(e.gen),
		agents.NewCritic(e.gen),
		agents.NewReviser(e.gen),
		opts...,
	)
	if err != nil {
		return RunResult{}, err
	}

	task, runErr := orch.RunTask(ctx, topic, maxIterations)
	if runErr != nil && !errors.Is(runErr, pipeline.ErrIterationsExhausted) {
		lb.Error("run failed: %v", runErr)
		return RunResult{LogPath: lb.Path()}, runErr
	}

	result := RunResult{
		Artifact:   task.Artifact,
		Iterations: task.Iterations,
		Completed:  task.Completed,
		LogPath:    lb.Path(),
	}
	if errors.Is(runErr, pipeline.ErrIterationsExhausted) {
		lb.Warn("iteration bound reached without completion")
	}

	if e.cfg.ChecksEnabled() {
		report, err := e.checker.Inspect(ctx, task.Artifact)
		if err != nil {
			lb.Warn("quality checks failed: %v", err)
		} else {
			result.Report = &report
			lb.Info("checks grammar_clean=%t tone=%s", report.GrammarClean, report.Tone)
		}
	}
	lb.Info("run finished iterations=%d completed=%t", task.Iterations, task.Completed)
	return result, runErr
}

// Ask classifies a free-form request and dispatches it.
func (e *Engine) Ask(ctx context.Context, request string) (router.Intent, string, error) {
	return e.router.Route(ctx, request)
}

// Generator exposes the resolved provider (for diagnostics output).
func (e *Engine) Generator() provider.Generator {
	return e.gen
}

// Close flushes telemetry.
func (e *Engine) Close(ctx context.Context) error {
	return e.tracer.Shutdown(ctx)
}

// refineAdapter narrows the engine to the router's Refiner seam.
type refineAdapter struct {
	engine *Engine
}

func (a refineAdapter) Run(ctx context.Context, topic string, maxIterations int) (string, error) {
	result, err := a.engine.refine(ctx, topic, maxIterations, nil)
	if err != nil && !errors.Is(err, pipeline.ErrIterationsExhausted) {
		return "", err
	}
	return result.Artifact, nil
}

func fanOut(observers ...pipeline.Observer) pipeline.Observer {
	return func(ev pipeline.Event) {
		for _, obs := range observers {
			if obs != nil {
				obs(ev)
			}
		}
	}
}

func resolveGenerator(cfg *config.Config) (provider.Generator, error) {
	switch cfg.Provider() {
	case "gemini":
		opts := []provider.GeminiOption{provider.GeminiWithTimeout(cfg.StepTimeout())}
		if cfg.Model() != "" {
			opts = append(opts, provider.GeminiWithModel(cfg.Model()))
		}
		return provider.NewGemini(cfg.APIKey(), opts...)
	case "openrouter":
		opts := []provider.OpenRouterOption{provider.OpenRouterWithTimeout(cfg.StepTimeout())}
		if cfg.Model() != "" {
			opts = append(opts, provider.OpenRouterWithModel(cfg.Model()))
		}
		return provider.NewOpenRouter(cfg.APIKey(), opts...)
	case "script":
		return offlineScript(), nil
	default:
		return nil, fmt.Errorf("engine: unknown provider %q", cfg.Provider())
	}
}

// offlineScript keeps demo runs deterministic: one draft, one feedback
// round, then completion, followed by clean check replies.
func offlineScript() *provider.Script {
	return provider.NewScript(
		"A quiet first draft on the requested topic.",
		"Sharpen the opening line and commit to one image.",
		"A sharpened draft that commits to a single, vivid image.",
		agents.CompletionPhrase,
		agents.GrammarCleanPhrase,
		"neutral",
	)
}
