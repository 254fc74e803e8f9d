package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"codearena/internal/arena"
	"codearena/internal/config"
	"codearena/internal/platform/ws"
	"codearena/internal/storage"
	"codearena/internal/strategy"
)

var flagAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the arena websocket server",
	Long: `Start the websocket server that hosts rooms and runs matches.

Clients connect to /ws, create or join a room by its six-digit code and
four-digit secret, then upload strategies while the match runs. Points
and match history are persisted in SQLite.

With a jwt_secret configured, connections must present a signed HS256
token carrying the player name. Without one, the server trusts the
name query parameter, which is only suitable for local play.

Examples:
  codearena serve
  codearena serve --addr :9000
  codearena serve --config ./configs/server.yaml`,
	Run: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "Listen address (overrides config)")
}

func runServe(_ *cobra.Command, _ []string) {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "codearena",
	})

	cfg, err := config.Load(flagConfig)
	if err != nil {
		logger.Fatal("could not load config", "error", err)
	}
	if flagAddr != "" {
		cfg.Server.Addr = flagAddr
	}
	if flagDBPath != "" {
		cfg.Server.DBPath = flagDBPath
	}

	store, err := storage.Open(cfg.Server.DBPath)
	if err != nil {
		logger.Warn("could not open database, scores will not persist", "error", err)
		store = nil
	}

	var (
		awarder arena.PointsAwarder
		saver   arena.MatchSaver
		scores  arena.ScoreReader
		history ws.HistoryStore
	)
	if store != nil {
		defer store.Close()
		awarder, saver, scores, history = store, store, store, store
	}

	registry := arena.NewSessionRegistry()
	coord := arena.NewCoordinator(logger, registry, strategy.NewLuaEvaluator(), cfg.Arena.Tuning(), awarder, saver, scores)
	coord.Start()
	defer coord.Stop()

	server := ws.NewServer(logger, coord, registry, history, cfg.Server.JWTSecret)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	fmt.Printf("Starting arena server on %s\n", cfg.Server.Addr)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.ListenAndServe(cfg.Server.Addr); err != nil {
		logger.Fatal("server error", "error", err)
	}
}
