package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <request>...",
	Short: "Route a free-form request to the right handler",
	Long: `ask classifies the request and dispatches it:

  refine   writing requests go through the full refinement pipeline
  weather  weather questions are answered from the weather tool
  answer   everything else gets a direct single-shot reply`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		request := strings.Join(args, " ")

		eng, err := newEngine(ctx)
		if err != nil {
			return err
		}
		defer eng.Close(ctx)

		intent, reply, err := eng.Ask(ctx, request)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "[%s]\n", intent)
		fmt.Fprintln(cmd.OutOrStdout(), reply)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}
