// Topoforge - Intent-Driven Topology Design Engine
//
// A CLI for designing and evaluating layer-2/layer-3 network
// topologies from declarative intent:
//
//	topoforge design -f intent.yml --seed 42     # full pipeline
//	topoforge analyze -t topo.yml                # SPOFs, metrics, health
//	topoforge simulate -t topo.yml --node R1     # failure simulation
//	topoforge recommend -f intent.yml            # pattern ranking
//	topoforge history insights                   # what the store has learned
//	topoforge export clab -t topo.yml            # containerlab artifact
//
// Design runs (unless --no-persist) and recommendations are recorded
// in the history store (sqlite by default, redis with --backend
// redis), which future recommendations learn from.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/topoforge-network/topoforge/pkg/history"
	"github.com/topoforge-network/topoforge/pkg/settings"
	"github.com/topoforge-network/topoforge/pkg/util"
	"github.com/topoforge-network/topoforge/pkg/version"
)

var (
	// Global option flags
	logLevel   string
	backend    string
	dbPath     string
	redisAddr  string
	jsonOutput bool

	// Global state
	userSettings *settings.Settings
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "topoforge",
	Short:         "Intent-driven network topology design and evaluation",
	Version:       version.Info(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		userSettings, err = settings.Load()
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}
		level := logLevel
		if level == "" {
			level = userSettings.LogLevel
		}
		if level != "" {
			if err := util.SetLogLevel(level); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "history backend: sqlite or redis")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "history database path (sqlite backend)")
	rootCmd.PersistentFlags().StringVar(&redisAddr, "redis", "", "redis address (redis backend)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "JSON output")

	rootCmd.AddCommand(designCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(exportCmd)
}

// openStore opens the configured history store.
func openStore() (history.Store, error) {
	b := backend
	if b == "" {
		b = userSettings.GetBackend()
	}
	switch b {
	case "redis":
		addr := redisAddr
		if addr == "" {
			addr = userSettings.RedisAddr
		}
		if addr == "" {
			addr = "localhost:6379"
		}
		return history.OpenRedis(addr, "", 0)
	default:
		path := dbPath
		if path == "" {
			path = userSettings.GetHistoryPath()
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, err
		}
		return history.OpenSQLite(path)
	}
}
