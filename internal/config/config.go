// Package config provides YAML-based server configuration loading for the
// arena.
package config

import (
	"time"

	"codearena/internal/arena"
)

// Config is the full server configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Arena  ArenaConfig  `yaml:"arena"`
}

// ServerConfig defines the network and persistence settings.
type ServerConfig struct {
	Addr      string `yaml:"addr"`
	JWTSecret string `yaml:"jwt_secret"`
	DBPath    string `yaml:"db_path"`
}

// ArenaConfig defines the match timing parameters. Intervals are in
// milliseconds.
type ArenaConfig struct {
	CountdownFrom     int `yaml:"countdown_from"`
	Rounds            int `yaml:"rounds"`
	ResolveIntervalMS int `yaml:"resolve_interval_ms"`
	DeliverIntervalMS int `yaml:"deliver_interval_ms"`
	EvalBudgetMS      int `yaml:"eval_budget_ms"`
	LockWindowMS      int `yaml:"lock_window_ms"`
	OutcomeBuffer     int `yaml:"outcome_buffer"`
}

// Tuning converts the arena section into match tuning. Unset fields fall
// back to the arena defaults.
func (a ArenaConfig) Tuning() arena.Tuning {
	return arena.Tuning{
		CountdownFrom:   a.CountdownFrom,
		Rounds:          a.Rounds,
		ResolveInterval: time.Duration(a.ResolveIntervalMS) * time.Millisecond,
		DeliverInterval: time.Duration(a.DeliverIntervalMS) * time.Millisecond,
		EvalBudget:      time.Duration(a.EvalBudgetMS) * time.Millisecond,
		LockWindow:      time.Duration(a.LockWindowMS) * time.Millisecond,
		OutcomeBuffer:   a.OutcomeBuffer,
	}
}
