package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrEmptyTopic rejects blank topics before any provider call is made.
var ErrEmptyTopic = errors.New("pipeline: topic is empty")

// ErrIterationsExhausted signals that the loop hit its bound without the
// critic declaring the artifact done. Only returned under PolicyFail; the
// last artifact is still returned alongside it.
var ErrIterationsExhausted = errors.New("pipeline: iteration bound reached before completion")

// ExhaustionPolicy decides what happens when the loop bound is reached
// without a done verdict.
type ExhaustionPolicy string

const (
	// PolicyReturnLast silently returns the best-so-far artifact.
	PolicyReturnLast ExhaustionPolicy = "return-last"
	// PolicyFail returns ErrIterationsExhausted together with the artifact.
	PolicyFail ExhaustionPolicy = "error"
)

// ParseExhaustionPolicy maps a config string to a policy.
func ParseExhaustionPolicy(value string) (ExhaustionPolicy, error) {
	switch ExhaustionPolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", PolicyReturnLast:
		return PolicyReturnLast, nil
	case PolicyFail:
		return PolicyFail, nil
	default:
		return "", fmt.Errorf("pipeline: unknown exhaustion policy %q", value)
	}
}

// Drafter produces the initial artifact from the topic.
type Drafter interface {
	Draft(ctx context.Context, topic string) (string, error)
}

// Critic judges the current artifact and decides whether to keep going.
type Critic interface {
	Critique(ctx context.Context, topic, artifact string) (CritiqueResult, error)
}

// Reviser produces a new artifact from the current one and the critic's
// feedback. Implementations must not mutate their inputs.
type Reviser interface {
	Revise(ctx context.Context, topic, artifact, feedback string) (string, error)
}

// Tracer observes run and step boundaries. The telemetry package provides
// an OTLP-backed implementation; the default is a no-op.
type Tracer interface {
	StartRun(ctx context.Context, topic string) (context.Context, func(error))
	StartStep(ctx context.Context, step string, iteration int) (context.Context, func(error))
}

type nopTracer struct{}

func (nopTracer) StartRun(ctx context.Context, _ string) (context.Context, func(error)) {
	return ctx, func(error) {}
}

func (nopTracer) StartStep(ctx context.Context, _ string, _ int) (context.Context, func(error)) {
	return ctx, func(error) {}
}

// Orchestrator drives the fixed draft/critique/revise order and enforces
// the loop bound. Construct once, run many topics; each run owns its Task.
type Orchestrator struct {
	drafter Drafter
	critic  Critic
	reviser Reviser

	policy      ExhaustionPolicy
	stepTimeout time.Duration
	observer    Observer
	tracer      Tracer
	now         func() time.Time
}

// Option customizes the orchestrator.
type Option func(*Orchestrator)

// WithExhaustionPolicy selects the bound-reached behavior.
func WithExhaustionPolicy(policy ExhaustionPolicy) Option {
	return func(o *Orchestrator) {
		if policy != "" {
			o.policy = policy
		}
	}
}

// WithStepTimeout bounds each external call. Zero disables the per-step
// deadline; the caller's context still applies.
func WithStepTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.stepTimeout = d
		}
	}
}

// WithObserver subscribes a progress listener.
func WithObserver(observer Observer) Option {
	return func(o *Orchestrator) {
		o.observer = observer
	}
}

// WithTracer installs a span tracer around the run and its steps.
func WithTracer(tracer Tracer) Option {
	return func(o *Orchestrator) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

// WithClock overrides event timestamps (tests).
func WithClock(clock func() time.Time) Option {
	return func(o *Orchestrator) {
		if clock != nil {
			o.now = clock
		}
	}
}

// New wires an orchestrator from its three steps.
func New(drafter Drafter, critic Critic, reviser Reviser, opts ...Option) (*Orchestrator, error) {
	if drafter == nil || critic == nil || reviser == nil {
		return nil, fmt.Errorf("pipeline: drafter, critic, and reviser are all required")
	}
	o := &Orchestrator{
		drafter: drafter,
		critic:  critic,
		reviser: reviser,
		policy:  PolicyReturnLast,
		tracer:  nopTracer{},
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o, nil
}

// Run executes the pipeline and returns the final artifact.
func (o *Orchestrator) Run(ctx context.Context, topic string, maxIterations int) (string, error) {
	task, err := o.RunTask(ctx, topic, maxIterations)
	if task == nil {
		return "", err
	}
	return task.Artifact, err
}

// RunTask executes the pipeline and returns the full run state. The task is
// non-nil whenever an artifact exists, including under ErrIterationsExhausted.
func (o *Orchestrator) RunTask(ctx context.Context, topic string, maxIterations int) (*Task, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, ErrEmptyTopic
	}
	if maxIterations < 1 {
		return nil, fmt.Errorf("pipeline: max iterations must be >= 1, got %d", maxIterations)
	}

	ctx, endRun := o.tracer.StartRun(ctx, topic)
	task := NewTask(topic)
	err := o.runTask(ctx, task, maxIterations)
	endRun(err)
	if err != nil && !errors.Is(err, ErrIterationsExhausted) {
		return nil, err
	}
	return task, err
}

func (o *Orchestrator) runTask(ctx context.Context, task *Task, maxIterations int) error {
	o.emit(StateDrafting, 0, "", "drafting initial artifact")
	artifact, err := o.draft(ctx, task.Topic)
	if err != nil {
		return err
	}
	task.Artifact = artifact

	for task.Iterations < maxIterations {
		if err := task.enter(StateCritiquing); err != nil {
			return err
		}
		task.Iterations++
		o.emit(StateCritiquing, task.Iterations, "", "requesting critique")
		result, err := o.critique(ctx, task.Topic, task.Artifact, task.Iterations)
		if err != nil {
			return err
		}

		if result.Verdict == VerdictDone {
			if err := task.enter(StateDone); err != nil {
				return err
			}
			task.Completed = true
			o.emit(StateDone, task.Iterations, VerdictDone, "critic accepted the artifact")
			return nil
		}

		if err := task.enter(StateRevising); err != nil {
			return err
		}
		o.emit(StateRevising, task.Iterations, VerdictContinue, "revising from feedback")
		revised, err := o.revise(ctx, task.Topic, task.Artifact, result.Feedback, task.Iterations)
		if err != nil {
			return err
		}
		task.Artifact = revised
	}

	o.emit(StateDone, task.Iterations, VerdictContinue, "iteration bound reached")
	if o.policy == PolicyFail {
		return ErrIterationsExhausted
	}
	return nil
}

func (o *Orchestrator) draft(ctx context.Context, topic string) (string, error) {
	ctx, cancel := o.stepContext(ctx)
	defer cancel()
	ctx, end := o.tracer.StartStep(ctx, "draft", 0)
	artifact, err := o.drafter.Draft(ctx, topic)
	end(err)
	return artifact, err
}

func (o *Orchestrator) critique(ctx context.Context, topic, artifact string, iteration int) (CritiqueResult, error) {
	ctx, cancel := o.stepContext(ctx)
	defer cancel()
	ctx, end := o.tracer.StartStep(ctx, "critique", iteration)
	result, err := o.critic.Critique(ctx, topic, artifact)
	end(err)
	return result, err
}

func (o *Orchestrator) revise(ctx context.Context, topic, artifact, feedback string, iteration int) (string, error) {
	ctx, cancel := o.stepContext(ctx)
	defer cancel()
	ctx, end := o.tracer.StartStep(ctx, "revise", iteration)
	revised, err := o.reviser.Revise(ctx, topic, artifact, feedback)
	end(err)
	return revised, err
}

func (o *Orchestrator) stepContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.stepTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, o.stepTimeout)
}
