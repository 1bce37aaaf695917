// Package cli provides the command-line interface for chatline.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/raphaelgruber/chatline/internal/client"
	"github.com/raphaelgruber/chatline/internal/config"
	"github.com/raphaelgruber/chatline/internal/metrics"
	"github.com/raphaelgruber/chatline/internal/session"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose     bool
	flagBaseURL string
	flagStore   string

	// Global config and collaborators, set up in PersistentPreRunE
	cfg        config.Config
	logger     *slog.Logger
	logCleanup func() error
	store      session.Store
	api        *client.Client
	stats      *metrics.Collector
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "chatline",
	Short: "Terminal client for the chat service",
	Long: `Chatline logs in to the chat service, keeps the session locally, and
lets you talk to the assistant from the terminal.

Running chatline without a subcommand opens the chat; without a stored
session it asks you to log in first.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runChat,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if flagBaseURL != "" {
			cfg.BaseURL = flagBaseURL
		}
		if flagStore != "" {
			cfg.StoreBackend = flagStore
		}
		if verbose {
			cfg.LogLevel = slog.LevelDebug
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		// Logs go to the file only: the chat view owns the terminal.
		logger, logCleanup = config.SetupLogger(cfg.LogFile, cfg.LogLevel, nil)

		store, err = session.Open(cfg.StoreBackend, cfg.StateDir, cfg.Origin())
		if err != nil {
			return fmt.Errorf("open session store: %w", err)
		}

		stats = metrics.NewCollector()
		api = client.New(cfg.BaseURL,
			client.WithLogger(logger),
			client.WithTimeout(cfg.RequestTimeout),
			client.WithMetrics(stats),
		)

		logger.Debug("chatline starting", "version", Version, "base_url", api.BaseURL(), "store", cfg.StoreBackend)
		if fs, ok := store.(*session.FileStore); ok {
			logger.Debug("session file", "path", fs.Path())
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer closeResources()
	return rootCmd.ExecuteContext(ctx)
}

// closeResources releases what PersistentPreRunE opened, whether or not the
// command failed.
func closeResources() {
	if store != nil {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close session store: %v\n", err)
		}
		store = nil
	}
	if logCleanup != nil {
		_ = logCleanup()
		logCleanup = nil
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging to the log file")
	rootCmd.PersistentFlags().StringVar(&flagBaseURL, "base-url", "", "chat service base URL (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagStore, "store", "", "credential store: file, sqlite or memory")

	rootCmd.Flags().BoolVar(&chatPlain, "plain", false, "line-mode chat instead of the full-screen view")

	// Add subcommands
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(logoutCmd)
}
