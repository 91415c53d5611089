// Package pipeline implements the iterative refinement loop that drives
// every Quill run: one drafting pass followed by bounded critique/revise
// rounds until the critic signals completion or the iteration bound is
// reached. The package owns the run state machine and the orchestration order;
// it knows nothing about prompts or providers, which live behind the
// Drafter, Critic, and Reviser seams.
package pipeline
