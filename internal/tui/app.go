// internal/tui/app.go
//
// This is the main TUI (Terminal User Interface) for Quill.
// It uses bubbletea, which follows The Elm Architecture:
//
// 1. Model: Your application state
// 2. Update: A function that updates state based on messages
// 3. View: A function that renders state to a string
//
// The flow is: User Input -> Message -> Update -> New Model -> View -> Screen

package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/quillforge/quill/internal/engine"
	"github.com/quillforge/quill/internal/pipeline"
)

// appState represents which "screen" we're on
type appState int

const (
	stateTopicInput appState = iota // Waiting for a topic
	stateRunning                    // Pipeline in flight
	stateResult                     // Final artifact (or error) on screen
)

const maxProgressLines = 8

// Runner is the slice of the engine the TUI needs.
type Runner interface {
	Refine(ctx context.Context, topic string, observer pipeline.Observer) (engine.RunResult, error)
}

// AppOption customizes App construction for tests.
type AppOption func(*App)

// WithRunner overrides the refinement runner.
func WithRunner(runner Runner) AppOption {
	return func(a *App) {
		if runner != nil {
			a.runner = runner
		}
	}
}

type runEventMsg pipeline.Event

type runDoneMsg struct {
	result engine.RunResult
	err    error
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).Padding(0, 1)
	stateStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	artifactStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(1, 2)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)
)

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	state  appState
	runner Runner

	// UI components
	topicInput textinput.Model
	spinner    spinner.Model

	// Run progress
	topic    string
	progress []string
	events   chan pipeline.Event
	done     chan runDoneMsg

	// Outcome
	result engine.RunResult
	err    error

	// Window size (we get this from bubbletea)
	width  int
	height int
}

// NewApp builds the TUI model around an engine.
func NewApp(runner Runner, opts ...AppOption) *App {
	input := textinput.New()
	input.Placeholder = "a story about a lost robot"
	input.Focus()
	input.CharLimit = 200
	input.Width = 60

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	app := &App{
		state:      stateTopicInput,
		runner:     runner,
		topicInput: input,
		spinner:    spin,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	return app
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case spinner.TickMsg:
		if a.state != stateRunning {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case runEventMsg:
		a.appendProgress(pipeline.Event(msg))
		return a, a.waitForRun()

	case runDoneMsg:
		a.state = stateResult
		a.result = msg.result
		a.err = msg.err
		return a, nil
	}

	if a.state == stateTopicInput {
		var cmd tea.Cmd
		a.topicInput, cmd = a.topicInput.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit
	case "esc":
		if a.state != stateRunning {
			return a, tea.Quit
		}
		return a, nil
	}

	switch a.state {
	case stateTopicInput:
		if msg.String() == "enter" {
			topic := strings.TrimSpace(a.topicInput.Value())
			if topic == "" {
				return a, nil
			}
			return a, a.startRun(topic)
		}
		var cmd tea.Cmd
		a.topicInput, cmd = a.topicInput.Update(msg)
		return a, cmd

	case stateResult:
		switch msg.String() {
		case "q":
			return a, tea.Quit
		case "enter", "n":
			a.reset()
			return a, textinput.Blink
		}
	}
	return a, nil
}

// startRun launches the pipeline in a goroutine and starts pumping its
// events into the bubbletea loop.
func (a *App) startRun(topic string) tea.Cmd {
	a.state = stateRunning
	a.topic = topic
	a.progress = nil
	a.events = make(chan pipeline.Event, 32)
	a.done = make(chan runDoneMsg, 1)

	events, done := a.events, a.done
	go func() {
		result, err := a.runner.Refine(context.Background(), topic, func(ev pipeline.Event) {
			events <- ev
		})
		close(events)
		done <- runDoneMsg{result: result, err: err}
	}()

	return tea.Batch(a.waitForRun(), a.spinner.Tick)
}

// waitForRun yields the next run event, or the final outcome once the
// event channel closes.
func (a *App) waitForRun() tea.Cmd {
	events, done := a.events, a.done
	return func() tea.Msg {
		if ev, ok := <-events; ok {
			return runEventMsg(ev)
		}
		return <-done
	}
}

func (a *App) appendProgress(ev pipeline.Event) {
	line := string(ev.State)
	if ev.Iteration > 0 {
		line = fmt.Sprintf("%s (round %d)", ev.State, ev.Iteration)
	}
	if ev.Message != "" {
		line += " — " + ev.Message
	}
	a.progress = append(a.progress, line)
	if len(a.progress) > maxProgressLines {
		a.progress = a.progress[len(a.progress)-maxProgressLines:]
	}
}

func (a *App) reset() {
	a.state = stateTopicInput
	a.topic = ""
	a.progress = nil
	a.result = engine.RunResult{}
	a.err = nil
	a.topicInput.SetValue("")
	a.topicInput.Focus()
}

// View implements tea.Model.
func (a *App) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Quill — iterative refinement"))
	b.WriteString("\n\n")

	switch a.state {
	case stateTopicInput:
		b.WriteString("What should Quill write about?\n\n")
		b.WriteString(a.topicInput.View())
		b.WriteString("\n\n")
		b.WriteString(hintStyle.Render("enter to start · esc to quit"))

	case stateRunning:
		b.WriteString(fmt.Sprintf("%s refining %q\n\n", a.spinner.View(), a.topic))
		for _, line := range a.progress {
			b.WriteString(stateStyle.Render("  · " + line))
			b.WriteString("\n")
		}

	case stateResult:
		switch {
		case a.err != nil && !errors.Is(a.err, pipeline.ErrIterationsExhausted):
			b.WriteString(errorStyle.Render("run failed: " + a.err.Error()))
			b.WriteString("\n\n")
		default:
			// An exhausted run still has its best-so-far artifact.
			if errors.Is(a.err, pipeline.ErrIterationsExhausted) {
				b.WriteString(errorStyle.Render("iteration bound reached before the critic accepted"))
				b.WriteString("\n\n")
			} else {
				b.WriteString(fmt.Sprintf("finished after %d round(s)\n\n", a.result.Iterations))
			}
			b.WriteString(artifactStyle.Render(a.result.Artifact))
			b.WriteString("\n")
			if a.result.Report != nil {
				b.WriteString(stateStyle.Render(fmt.Sprintf("tone: %s · grammar clean: %t",
					a.result.Report.Tone, a.result.Report.GrammarClean)))
				b.WriteString("\n")
			}
		}
		b.WriteString("\n")
		b.WriteString(hintStyle.Render("enter for a new topic · q to quit"))
	}

	b.WriteString("\n")
	return b.String()
}
