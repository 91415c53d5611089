// Package provider holds the clients for external text-generation services.
// Everything above this package talks to a single Generate seam so that
// agents and the pipeline never know which vendor is behind it.
package provider

import (
	"context"
	"fmt"
)

// Generator is the external collaborator interface: one prompt in, one
// completion out. Implementations must be safe for concurrent use.
type Generator interface {
	// Name identifies the provider in logs and error messages.
	Name() string
	// Generate submits a prompt and returns the provider's text reply.
	Generate(ctx context.Context, prompt string) (string, error)
}

// Error wraps any failure coming back from a provider. Callers treat these
// as fatal for the current run; there is no retry layer.
type Error struct {
	Provider string
	Err      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

func wrapErr(name string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Provider: name, Err: err}
}
