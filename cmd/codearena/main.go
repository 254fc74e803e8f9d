// codearena is a real-time scripted-strategy arena server.
//
// Usage:
//
//	codearena serve               - Start the arena websocket server
//	codearena check <file>        - Syntax-check a strategy program
//	codearena leaderboard         - Show the top players
//	codearena history <player>    - Show a player's recent matches
//
// Global flags:
//
//	--config <path>  - Path to server config (default: built-in search order)
//	--db <path>      - Database path override
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	flagConfig string
	flagDBPath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "codearena",
	Short: "Code Arena - duel with scripted strategies",
	Long: `Code Arena is a two-player arena where each player scripts their
fighter instead of steering it. Players upload a Lua program plus an
ordered rule stack; every resolution tick the first rule whose guard
holds picks the function that produces the fighter's next actions.

Available commands:
  serve        - Start the arena websocket server
  check        - Syntax-check a strategy program
  leaderboard  - View the top players
  history      - View a player's recent matches

Examples:
  codearena serve
  codearena serve --config ./configs/server.yaml
  codearena check strategy.lua
  codearena leaderboard --limit 20
  codearena history alice`,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to server config file")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Database path (overrides config)")

	// Add subcommands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(historyCmd)
}
