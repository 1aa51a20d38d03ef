package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/adamwoolhether/gdata/auth"
	"github.com/adamwoolhether/gdata/auth/boltstore"
	"github.com/adamwoolhether/gdata/client"
)

var (
	configPath string
	tokensPath string
	verbose    bool

	logger = slog.New(slog.DiscardHandler)
)

var rootCmd = &cobra.Command{
	Use:          "gdata",
	Short:        "Work with GData feeds",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "TOML client configuration")
	rootCmd.PersistentFlags().StringVar(&tokensPath, "tokens", defaultTokensPath(), "token database")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every request")
}

func defaultTokensPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "gdata-tokens.db"
	}

	return filepath.Join(dir, "gdata", "tokens.db")
}

// session opens the token database and builds a client holding its
// tokens. Callers close the database.
func session() (*client.Client, *boltstore.Store, error) {
	cfg := client.DefaultConfig()
	if configPath != "" {
		loaded, err := client.LoadConfig(configPath)
		if err != nil {
			return nil, nil, err
		}
		cfg = loaded
	}

	if err := os.MkdirAll(filepath.Dir(tokensPath), 0o700); err != nil {
		return nil, nil, fmt.Errorf("creating token directory: %w", err)
	}

	db, err := boltstore.Open(tokensPath)
	if err != nil {
		return nil, nil, err
	}

	store := auth.NewStore()
	if err := db.LoadInto(store); err != nil {
		return nil, nil, errors.Join(err, db.Close())
	}

	c, err := client.Build(
		client.WithConfig(cfg),
		client.WithLogger(logger),
		client.WithTokenStore(store),
	)
	if err != nil {
		return nil, nil, errors.Join(err, db.Close())
	}

	return c, db, nil
}

func closeDB(db *boltstore.Store) {
	if err := db.Close(); err != nil {
		logger.Error("failed to close token db", "error", err)
	}
}
