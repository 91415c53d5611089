package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/quillforge/quill/internal/engine"
	"github.com/quillforge/quill/internal/pipeline"
)

type stubRunner struct {
	result engine.RunResult
	err    error
	events []pipeline.Event
	topic  string
}

func (s *stubRunner) Refine(_ context.Context, topic string, observer pipeline.Observer) (engine.RunResult, error) {
	s.topic = topic
	for _, ev := range s.events {
		if observer != nil {
			observer(ev)
		}
	}
	return s.result, s.err
}

// drain pumps the run's event commands until the final outcome lands.
// Spinner ticks are dropped so the loop terminates.
func drain(t *testing.T, app *App, cmd tea.Cmd) *App {
	t.Helper()
	if cmd == nil {
		return app
	}
	msg := cmd()
	switch msg := msg.(type) {
	case nil:
		return app
	case tea.BatchMsg:
		for _, sub := range msg {
			app = drain(t, app, sub)
		}
		return app
	case spinner.TickMsg:
		return app
	default:
		model, next := app.Update(msg)
		app = model.(*App)
		if _, done := msg.(runDoneMsg); done {
			return app
		}
		return drain(t, app, next)
	}
}

func typeTopic(app *App, topic string) {
	app.topicInput.SetValue(topic)
}

func TestSubmitTopicRunsPipeline(t *testing.T) {
	runner := &stubRunner{
		result: engine.RunResult{Artifact: "final text", Iterations: 2, Completed: true},
		events: []pipeline.Event{
			{State: pipeline.StateDrafting},
			{State: pipeline.StateCritiquing, Iteration: 1},
			{State: pipeline.StateDone, Iteration: 1, Verdict: pipeline.VerdictDone},
		},
	}
	app := NewApp(runner)
	typeTopic(app, "a lost robot")
	model, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	app = model.(*App)
	if app.state != stateRunning {
		t.Fatalf("state %d, want running", app.state)
	}
	app = drain(t, app, cmd)
	if runner.topic != "a lost robot" {
		t.Fatalf("runner got topic %q", runner.topic)
	}
	if app.state != stateResult {
		t.Fatalf("state %d, want result", app.state)
	}
	if !strings.Contains(app.View(), "final text") {
		t.Fatalf("view missing artifact:\n%s", app.View())
	}
}

func TestEmptyTopicIsIgnored(t *testing.T) {
	app := NewApp(&stubRunner{})
	typeTopic(app, "   ")
	model, _ := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	app = model.(*App)
	if app.state != stateTopicInput {
		t.Fatalf("blank topic must not start a run")
	}
}

func TestRunErrorShown(t *testing.T) {
	runner := &stubRunner{err: errors.New("provider gemini: status 500")}
	app := NewApp(runner)
	typeTopic(app, "topic")
	model, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	app = drain(t, model.(*App), cmd)
	if app.state != stateResult {
		t.Fatalf("state %d, want result", app.state)
	}
	if !strings.Contains(app.View(), "run failed") {
		t.Fatalf("view missing error:\n%s", app.View())
	}
}

func TestExhaustedRunStillShowsArtifact(t *testing.T) {
	runner := &stubRunner{
		result: engine.RunResult{Artifact: "best-so-far text", Iterations: 3},
		err:    pipeline.ErrIterationsExhausted,
	}
	app := NewApp(runner)
	typeTopic(app, "topic")
	model, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	app = drain(t, model.(*App), cmd)
	if app.state != stateResult {
		t.Fatalf("state %d, want result", app.state)
	}
	view := app.View()
	if !strings.Contains(view, "best-so-far text") {
		t.Fatalf("artifact dropped from view:\n%s", view)
	}
	if !strings.Contains(view, "iteration bound reached") {
		t.Fatalf("exhaustion note missing:\n%s", view)
	}
	if strings.Contains(view, "run failed") {
		t.Fatalf("exhaustion must not render as a failure:\n%s", view)
	}
}

func TestResetAfterResult(t *testing.T) {
	app := NewApp(&stubRunner{result: engine.RunResult{Artifact: "done"}})
	typeTopic(app, "topic")
	model, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	app = drain(t, model.(*App), cmd)
	model, _ = app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	app = model.(*App)
	if app.state != stateTopicInput {
		t.Fatalf("enter should return to topic input")
	}
	if app.topicInput.Value() != "" {
		t.Fatalf("topic input not cleared")
	}
}

func TestProgressLinesAreBounded(t *testing.T) {
	app := NewApp(&stubRunner{})
	for i := 0; i < maxProgressLines*3; i++ {
		app.appendProgress(pipeline.Event{State: pipeline.StateCritiquing, Iteration: i + 1})
	}
	if len(app.progress) != maxProgressLines {
		t.Fatalf("progress length %d, want %d", len(app.progress), maxProgressLines)
	}
}
