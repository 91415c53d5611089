package engine

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/quillforge/quill/internal/agents"
	"github.com/quillforge/quill/internal/config"
	"github.com/quillforge/quill/internal/pipeline"
	"github.com/quillforge/quill/internal/provider"
	"github.com/quillforge/quill/internal/router"
)

func newTestEngine(t *testing.T, gen provider.Generator, mutate func(*config.Config)) *Engine {
	t.Helper()
	projectDir := t.TempDir()
	if err := config.InitQuillDir(projectDir); err != nil {
		t.Fatalf("InitQuillDir: %v", err)
	}
	cfg, err := config.NewConfig(projectDir)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if mutate != nil {
		mutate(cfg)
	}
	eng, err := New(cfg,
		WithGenerator(gen),
		WithClock(func() time.Time { return time.Date(2026, 8, 23, 9, 0, 0, 0, time.UTC) }),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return eng
}

func TestRefineFullRun(t *testing.T) {
	gen := provider.NewScript(
		"draft one",
		"Make the middle tighter.",
		"draft two",
		agents.CompletionPhrase,
		agents.GrammarCleanPhrase,
		"positive",
	)
	eng := newTestEngine(t, gen, nil)

	var states []pipeline.State
	result, err := eng.Refine(context.Background(), "a lost robot", func(ev pipeline.Event) {
		states = append(states, ev.State)
	})
	if err != nil {
		t.Fatalf("Refine: %v", err)
	}
	if result.Artifact != "draft two" {
		t.Fatalf("artifact %q", result.Artifact)
	}
	if result.Iterations != 2 || !result.Completed {
		t.Fatalf("iterations=%d completed=%t", result.Iterations, result.Completed)
	}
	if result.Report == nil || !result.Report.GrammarClean || result.Report.Tone != agents.TonePositive {
		t.Fatalf("report: %+v", result.Report)
	}
	if len(states) == 0 || states[0] != pipeline.StateDrafting {
		t.Fatalf("observer not wired, states: %v", states)
	}

	data, err := os.ReadFile(result.LogPath)
	if err != nil {
		t.Fatalf("read logbook: %v", err)
	}
	if !strings.Contains(string(data), "run finished iterations=2 completed=true") {
		t.Fatalf("logbook missing summary:\n%s", data)
	}
}

func TestRefineChecksDisabled(t *testing.T) {
	gen := provider.NewScript("draft", agents.CompletionPhrase)
	eng := newTestEngine(t, gen, func(cfg *config.Config) {
		disabled := false
		cfg.Project.Pipeline.Checks = &disabled
	})
	result, err := eng.Refine(context.Background(), "topic", nil)
	if err != nil {
		t.Fatalf("Refine: %v", err)
	}
	if result.Report != nil {
		t.Fatalf("checks should be skipped, got %+v", result.Report)
	}
}

func TestRefineExhaustionErrorPolicy(t *testing.T) {
	gen := provider.NewScript("draft", "keep going", "revised")
	eng := newTestEngine(t, gen, func(cfg *config.Config) {
		disabled := false
		cfg.Project.Pipeline.OnExhausted = "error"
		cfg.Project.Pipeline.MaxIterations = 2
		cfg.Project.Pipeline.Checks = &disabled
	})
	result, err := eng.Refine(context.Background(), "topic", nil)
	if !errors.Is(err, pipeline.ErrIterationsExhausted) {
		t.Fatalf("expected exhaustion error, got %v", err)
	}
	if result.Artifact == "" {
		t.Fatalf("artifact should survive exhaustion")
	}
}

func TestRefineEmptyTopic(t *testing.T) {
	gen := provider.NewScript("unused")
	eng := newTestEngine(t, gen, nil)
	if _, err := eng.Refine(context.Background(), "  ", nil); !errors.Is(err, pipeline.ErrEmptyTopic) {
		t.Fatalf("expected ErrEmptyTopic, got %v", err)
	}
}

func TestAskWeatherIntent(t *testing.T) {
	// classify, extract city, present report
	gen := provider.NewScript("weather", "Tokyo", "Light rain in Tokyo, 18°C.")
	eng := newTestEngine(t, gen, nil)
	intent, reply, err := eng.Ask(context.Background(), "what's the weather in Tokyo?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if intent != router.IntentWeather {
		t.Fatalf("intent %s", intent)
	}
	if !strings.Contains(reply, "Tokyo") {
		t.Fatalf("reply %q", reply)
	}
}

func TestAskAnswerIntent(t *testing.T) {
	gen := provider.NewScript("answer", "330 metres.")
	eng := newTestEngine(t, gen, nil)
	intent, reply, err := eng.Ask(context.Background(), "how tall is the Eiffel Tower?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if intent != router.IntentAnswer || reply == "" {
		t.Fatalf("intent=%s reply=%q", intent, reply)
	}
}

func TestNewRejectsBadPolicy(t *testing.T) {
	projectDir := t.TempDir()
	if err := config.InitQuillDir(projectDir); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.NewConfig(projectDir)
	if err != nil {
		t.Fatal(err)
	}
	cfg.Project.Pipeline.OnExhausted = "shrug"
	if _, err := New(cfg, WithGenerator(provider.NewScript("x"))); err == nil {
		t.Fatalf("expected policy error")
	}
}
