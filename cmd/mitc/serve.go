package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/mitc/internal/config"
	"github.com/jackzampolin/mitc/internal/home"
	"github.com/jackzampolin/mitc/internal/server"
)

var (
	serveHost      string
	servePort      string
	serveLogLevel  string
	serveLogFormat string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the mitc server",
	Long: `Start the mitc HTTP server.

Configuration is read from --config, ./config.yaml or ~/.mitc/config.yaml,
and MITC_* environment variables override file values. API keys are loaded
from ./.env and ~/.mitc/.env before the config is resolved.

The server refuses to start when the default provider has no API key.

Examples:
  mitc serve                          # Start on 0.0.0.0:8000
  mitc serve --port 3000              # Start on custom port
  mitc serve --log-format json        # Structured JSON logs`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		logger, err := newLogger(os.Stdout, serveLogLevel, serveLogFormat)
		if err != nil {
			return err
		}
		slog.SetDefault(logger)

		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := config.LoadDotEnv(".env", h.EnvPath()); err != nil {
			return err
		}

		file := cfgFile
		if file == "" && h.ConfigExists() {
			file = h.ConfigPath()
		}
		cfgMgr, err := config.NewManager(file)
		if err != nil {
			return err
		}

		cfg := cfgMgr.Get()
		if err := cfg.Validate(); err != nil {
			logger.Error("invalid configuration", "error", err)
			return err
		}
		if f := cfgMgr.ConfigFile(); f != "" {
			logger.Info("loaded config", "file", f)
			cfgMgr.WatchConfig()
		}

		var fieldsFile string
		if cfg.Fields.File == "" && h.FieldsExists() {
			fieldsFile = h.FieldsPath()
		}

		srv, err := server.New(server.Config{
			Host:          serveHost,
			Port:          servePort,
			ConfigManager: cfgMgr,
			FieldsFile:    fieldsFile,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

// newLogger builds the process logger from the --log-level and --log-format flags.
func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q: must be text or json", format)
	}
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default: server.host from config)")
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (default: server.port from config)")
	serveCmd.Flags().StringVar(&serveLogLevel, "log-level", "info", "Log level: debug, info, warn or error")
	serveCmd.Flags().StringVar(&serveLogFormat, "log-format", "text", "Log format: text or json")

	rootCmd.AddCommand(serveCmd)
}
