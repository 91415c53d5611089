package agents

import (
	"context"
	"strings"
	"testing"

	"github.com/quillforge/quill/internal/pipeline"
	"github.com/quillforge/quill/internal/provider"
)

func TestCriticMapsCompletionPhraseToDone(t *testing.T) {
	cases := []string{
		CompletionPhrase,
		"  No major issues found.  ",
		`"No major issues found."`,
		"no major issues found.",
	}
	for _, reply := range cases {
		critic := NewCritic(provider.NewScript(reply))
		result, err := critic.Critique(context.Background(), "topic", "artifact")
		if err != nil {
			t.Fatalf("Critique(%q): %v", reply, err)
		}
		if result.Verdict != pipeline.VerdictDone {
			t.Errorf("reply %q: verdict %s, want done", reply, result.Verdict)
		}
		if result.Feedback != "" {
			t.Errorf("reply %q: done verdict must carry no feedback, got %q", reply, result.Feedback)
		}
	}
}

func TestCriticMapsFeedbackToContinue(t *testing.T) {
	critic := NewCritic(provider.NewScript("The ending is abrupt; give the robot a choice."))
	result, err := critic.Critique(context.Background(), "topic", "artifact")
	if err != nil {
		t.Fatalf("Critique: %v", err)
	}
	if result.Verdict != pipeline.VerdictContinue {
		t.Fatalf("verdict %s, want continue", result.Verdict)
	}
	if !strings.Contains(result.Feedback, "abrupt") {
		t.Fatalf("feedback not carried through: %q", result.Feedback)
	}
}

func TestCriticNearMissPhraseIsFeedback(t *testing.T) {
	// Extra words around the phrase mean the critic had more to say.
	critic := NewCritic(provider.NewScript("No major issues found. But the title is weak."))
	result, err := critic.Critique(context.Background(), "topic", "artifact")
	if err != nil {
		t.Fatalf("Critique: %v", err)
	}
	if result.Verdict != pipeline.VerdictContinue {
		t.Fatalf("verdict %s, want continue for non-exact phrase", result.Verdict)
	}
}

func TestDrafterTrimsReply(t *testing.T) {
	drafter := NewDrafter(provider.NewScript("\n  Once upon a time.  \n"))
	artifact, err := drafter.Draft(context.Background(), "a cat")
	if err != nil {
		t.Fatalf("Draft: %v", err)
	}
	if artifact != "Once upon a time." {
		t.Fatalf("unexpected artifact: %q", artifact)
	}
}

func TestReviserReturnsFreshArtifact(t *testing.T) {
	reviser := NewReviser(provider.NewScript("A better story."))
	original := "A story."
	revised, err := reviser.Revise(context.Background(), "topic", original, "make it better")
	if err != nil {
		t.Fatalf("Revise: %v", err)
	}
	if revised == original {
		t.Fatalf("revise must produce a new artifact")
	}
	if original != "A story." {
		t.Fatalf("input artifact was mutated")
	}
}
