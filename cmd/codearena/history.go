package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var flagHistoryLimit int

var historyCmd = &cobra.Command{
	Use:   "history <player>",
	Short: "Show a player's recent matches",
	Long: `Display a player's most recent matches with opponents and results.

Examples:
  codearena history alice
  codearena history alice --limit 50`,
	Args: cobra.ExactArgs(1),
	Run:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 20, "Number of matches to show")
}

func runHistory(_ *cobra.Command, args []string) {
	player := args[0]

	store := openStore()
	defer store.Close()

	records, err := store.PlayerMatchHistory(player, flagHistoryLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error retrieving history: %v\n", err)
		os.Exit(1)
	}

	if len(records) == 0 {
		fmt.Printf("No matches recorded for %s.\n", player)
		return
	}

	fmt.Printf("  %-20s  %-20s  %-8s  %s\n", "Player 1", "Player 2", "Result", "Date")
	fmt.Printf("  %-20s  %-20s  %-8s  %s\n", "--------", "--------", "------", "----")
	for _, r := range records {
		result := "draw"
		switch r.Winner {
		case 1:
			result = r.Player1
		case 2:
			result = r.Player2
		}
		dateStr := r.CreatedAt.Format("2006-01-02 15:04")
		fmt.Printf("  %-20s  %-20s  %-8s  %s\n", r.Player1, r.Player2, result, dateStr)
	}
}
