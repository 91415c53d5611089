package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quillforge/quill/internal/config"
	"github.com/quillforge/quill/internal/engine"
	"github.com/quillforge/quill/internal/logging"
	"github.com/quillforge/quill/internal/telemetry"
)

var (
	cfg    *config.Config
	logger *logging.Logger

	flagProvider string
)

var rootCmd = &cobra.Command{
	Use:   "quill",
	Short: "Iterative text refinement from the terminal",
	Long: `Quill drafts a short text on a topic, then loops a critic and a
reviser over it until the critic is satisfied or the iteration
bound is reached.

Commands:
  refine   Run the draft/critique/revise pipeline on a topic
  ask      Route a free-form request (refine, weather, or answer)
  tui      Interactive terminal UI
  serve    Expose refine_text and ask as MCP tools over stdio

Each project gets a .quill/ directory holding config.yaml, the
engine log, and per-run logbooks.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("get working directory: %w", err)
		}
		if err := config.InitQuillDir(cwd); err != nil {
			return fmt.Errorf("initialize %s: %w", config.QuillDir, err)
		}
		cfg, err = config.NewConfig(cwd)
		if err != nil {
			return err
		}
		if flagProvider != "" {
			if err := cfg.SetProvider(flagProvider); err != nil {
				return err
			}
		}
		logger, err = logging.New(cwd)
		if err != nil {
			return err
		}
		logger.Info("%s starting provider=%s", cmd.Name(), cfg.Provider())
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagProvider, "provider", "",
		"override and persist the provider (gemini, openrouter, script)")
}

// newEngine wires an engine for the loaded project, with OTLP tracing when
// OTEL_EXPORTER_OTLP_ENDPOINT is set.
func newEngine(ctx context.Context) (*engine.Engine, error) {
	tracer, err := telemetry.NewTracer(ctx)
	if err != nil {
		logger.Warn("telemetry disabled: %v", err)
		tracer = nil
	}
	return engine.New(cfg, engine.WithTracer(tracer))
}
