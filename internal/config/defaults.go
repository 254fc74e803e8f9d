package config

import (
	_ "embed"
)

//go:embed defaults/server.yaml
var defaultServerYAML []byte

// DefaultConfig returns the built-in server configuration.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:   ":8080",
			DBPath: "~/.codearena/arena.db",
		},
		Arena: ArenaConfig{
			CountdownFrom:     3,
			Rounds:            3,
			ResolveIntervalMS: 900,
			DeliverIntervalMS: 400,
			EvalBudgetMS:      850,
			LockWindowMS:      3000,
			OutcomeBuffer:     256,
		},
	}
}
