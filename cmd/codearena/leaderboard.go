package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"codearena/internal/config"
	"codearena/internal/storage"
)

var flagLimit int

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Show the top players",
	Long: `Display the top players by accumulated arena points.

Examples:
  codearena leaderboard
  codearena leaderboard --limit 20`,
	Run: runLeaderboard,
}

func init() {
	leaderboardCmd.Flags().IntVar(&flagLimit, "limit", 10, "Number of players to show")
}

func openStore() *storage.Store {
	dbPath := flagDBPath
	if dbPath == "" {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		dbPath = cfg.Server.DBPath
	}

	store, err := storage.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	return store
}

func runLeaderboard(_ *cobra.Command, _ []string) {
	store := openStore()
	defer store.Close()

	entries, err := store.Leaderboard(flagLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error retrieving leaderboard: %v\n", err)
		os.Exit(1)
	}

	if len(entries) == 0 {
		fmt.Println("No matches recorded yet.")
		return
	}

	fmt.Printf("  %-4s  %-20s  %s\n", "Rank", "Player", "Points")
	fmt.Printf("  %-4s  %-20s  %s\n", "----", "------", "------")
	for i, e := range entries {
		fmt.Printf("  %-4d  %-20s  %d\n", i+1, e.Player, e.Score)
	}
}
