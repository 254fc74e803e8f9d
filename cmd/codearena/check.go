package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"codearena/internal/strategy"
)

var checkCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Syntax-check a strategy program",
	Long: `Compile a Lua strategy program without running it and report any
syntax errors, the same check the server applies on submission.

Examples:
  codearena check strategy.lua`,
	Args: cobra.ExactArgs(1),
	Run:  runCheck,
}

func runCheck(_ *cobra.Command, args []string) {
	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", args[0], err)
		os.Exit(1)
	}

	res := strategy.NewLuaEvaluator().CheckSyntax(string(data))
	if !res.OK {
		fmt.Fprintf(os.Stderr, "Syntax error: %s\n", res.Message)
		os.Exit(1)
	}
	fmt.Println("OK")
}
