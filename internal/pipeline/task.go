package pipeline

import "fmt"

// Verdict is the critic's binary decision on the current artifact.
type Verdict string

const (
	// VerdictContinue means the artifact needs another revision round.
	VerdictContinue Verdict = "continue"
	// VerdictDone means the artifact is finished and the loop must stop.
	VerdictDone Verdict = "done"
)

// CritiqueResult carries the critic's verdict. Feedback is only meaningful
// when the verdict is VerdictContinue.
type CritiqueResult struct {
	Verdict  Verdict
	Feedback string
}

// State names a position in the run state machine.
type State string

const (
	StateDrafting   State = "drafting"
	StateCritiquing State = "critiquing"
	StateRevising   State = "revising"
	StateDone       State = "done"
)

// transitions maps each state to the states it may legally enter.
var transitions = map[State][]State{
	StateDrafting:   {StateCritiquing},
	StateCritiquing: {StateRevising, StateDone},
	StateRevising:   {StateCritiquing},
	StateDone:       nil,
}

// CanEnter reports whether next is a legal successor of s.
func (s State) CanEnter(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Task is the mutable state of a single run. It lives for exactly one call
// to Run and is never shared between runs.
type Task struct {
	Topic      string
	Artifact   string
	Iterations int
	Completed  bool

	state State
}

// NewTask seeds run state for a topic.
func NewTask(topic string) *Task {
	return &Task{Topic: topic, state: StateDrafting}
}

// State returns the task's current position in the state machine.
func (t *Task) State() State {
	return t.state
}

// enter moves the task to the next state, rejecting illegal transitions.
func (t *Task) enter(next State) error {
	if !t.state.CanEnter(next) {
		return fmt.Errorf("pipeline: illegal transition %s -> %s", t.state, next)
	}
	t.state = next
	return nil
}
