package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quillforge/quill/internal/pipeline"
)

var flagMaxIterations int

var refineCmd = &cobra.Command{
	Use:   "refine <topic>...",
	Short: "Draft a text on a topic and refine it until the critic accepts",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		topic := strings.Join(args, " ")

		eng, err := newEngine(ctx)
		if err != nil {
			return err
		}
		defer eng.Close(ctx)

		observer := func(ev pipeline.Event) {
			if ev.Iteration > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "  %s (round %d)\n", ev.State, ev.Iteration)
				return
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", ev.State)
		}

		result, err := eng.RefineWithBound(ctx, topic, maxIterationsOrDefault(), observer)
		if err != nil && !errors.Is(err, pipeline.ErrIterationsExhausted) {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, result.Artifact)
		fmt.Fprintf(cmd.ErrOrStderr(), "\nrounds=%d completed=%t log=%s\n",
			result.Iterations, result.Completed, result.LogPath)
		if result.Report != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "tone=%s grammar_clean=%t\n",
				result.Report.Tone, result.Report.GrammarClean)
		}
		return err
	},
}

func maxIterationsOrDefault() int {
	if flagMaxIterations > 0 {
		return flagMaxIterations
	}
	return cfg.MaxIterations()
}

func init() {
	refineCmd.Flags().IntVarP(&flagMaxIterations, "max-iterations", "n", 0,
		"upper bound on critique/revise rounds (default from config)")
	rootCmd.AddCommand(refineCmd)
}
