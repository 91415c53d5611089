package provider

import (
	"context"
	"fmt"
	"sync"
)

// Script replays a fixed sequence of replies. It backs offline runs and is
// the stub of choice in tests: calls after the script runs out return the
// final reply again, so short scripts stay usable for long loops.
type Script struct {
	mu      sync.Mutex
	replies []string
	next    int
	calls   int
}

// NewScript builds a scripted provider from the replies, in order.
func NewScript(replies ...string) *Script {
	return &Script{replies: replies}
}

// Name implements Generator.
func (s *Script) Name() string {
	return "script"
}

// Generate implements Generator by returning the next scripted reply.
func (s *Script) Generate(_ context.Context, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.replies) == 0 {
		return "", wrapErr(s.Name(), fmt.Errorf("script is empty"))
	}
	reply := s.replies[s.next]
	if s.next < len(s.replies)-1 {
		s.next++
	}
	return reply, nil
}

// Calls reports how many times Generate ran.
func (s *Script) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
