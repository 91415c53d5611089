package pipeline

import "time"

// Event is a progress notification emitted while a run advances. The TUI
// and the run logbook subscribe through an Observer.
type Event struct {
	State     State
	Iteration int
	Verdict   Verdict
	Message   string
	Time      time.Time
}

// Observer receives run events. Observers must not block; slow consumers
// should buffer on their side.
type Observer func(Event)

func (o *Orchestrator) emit(state State, iteration int, verdict Verdict, message string) {
	if o.observer == nil {
		return
	}
	o.observer(Event{
		State:     state,
		Iteration: iteration,
		Verdict:   verdict,
		Message:   message,
		Time:      o.now(),
	})
}
