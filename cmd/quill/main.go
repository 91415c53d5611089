// cmd/quill/main.go
//
// This is the entry point for the Quill CLI.
//
// Flow:
// 1. Cobra parses the subcommand (refine, ask, tui, serve)
// 2. The root command's pre-run locates the project and loads .quill/
// 3. Each subcommand wires an engine and runs its operation

package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
