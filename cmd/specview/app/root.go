// Package app holds the specview command tree.
package app

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roman-kulish/spectroscrub/internal/storage"
)

// runtime is the state shared by every subcommand, filled in before a
// command runs.
type runtime struct {
	configPath string
	logLevel   string
	logFormat  string
	dbPath     string

	config *Config
	logger *slog.Logger
}

// NewRootCmd builds a fresh command tree.
func NewRootCmd() *cobra.Command {
	rt := &runtime{}

	root := &cobra.Command{
		Use:   "specview",
		Short: "Render, serve and scrub audio spectrograms",
		Long: `specview renders spectrogram payloads produced by the audio processing
server into false-color rasters with a playback indicator.

It can fetch payloads over HTTP, cache them locally in sqlite, import payload
files and serve stored payloads over the same HTTP endpoints the viewer uses.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return rt.init(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&rt.configPath, "config", "c", "", "path to the YAML config file")
	flags.StringVar(&rt.logLevel, "log-level", "", "log level (debug, info, warn, error), overrides config")
	flags.StringVar(&rt.logFormat, "log-format", "", "log format (text, json), overrides config")
	flags.StringVar(&rt.dbPath, "db", "", "path to the sqlite database, overrides config")

	root.AddCommand(
		newRenderCmd(rt),
		newServeCmd(rt),
		newImportCmd(rt),
		newListCmd(rt),
		newDeleteCmd(rt),
	)
	return root
}

// Execute runs the command tree until ctx is cancelled.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func (rt *runtime) init(cmd *cobra.Command) error {
	config, err := LoadConfig(rt.configPath)
	if err != nil {
		return err
	}
	if rt.logLevel != "" {
		config.Settings.LogLevel = rt.logLevel
	}
	if rt.logFormat != "" {
		config.Settings.LogFormat = rt.logFormat
	}
	if rt.dbPath != "" {
		config.Storage.DBPath = rt.dbPath
	}
	if err = config.Validate(); err != nil {
		return err
	}

	logger, _, err := NewLogger(cmd.ErrOrStderr(), config.Settings.LogLevel, config.Settings.LogFormat)
	if err != nil {
		return err
	}

	rt.config = config
	rt.logger = logger
	return nil
}

func (rt *runtime) openStore() *storage.SqliteStore {
	rt.logger.Debug("opening storage", slog.String("path", rt.config.Storage.DBPath))
	return storage.NewSqliteStore(rt.config.Storage.DBPath)
}
