// Package cli implements the assistantctl commands.
package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ashureev/leetcode-assistant/internal/app"
	"github.com/ashureev/leetcode-assistant/internal/config"
)

// env carries the services opened for one command invocation.
type env struct {
	dbPath  string
	verbose bool
	opts    []app.Option

	app    *app.App
	logger *slog.Logger
}

// NewRootCmd builds the command tree. opts are passed to app.New.
func NewRootCmd(opts ...app.Option) *cobra.Command {
	e := &env{opts: opts}

	root := &cobra.Command{
		Use:           "assistantctl",
		Short:         "Chat with the problem assistant from the terminal",
		Long:          "Continue the stored conversations of a problem and manage the assistant settings.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&e.dbPath, "db", "d", "", "Database path (default: $DB_PATH or ./data/assistant.db)")
	root.PersistentFlags().BoolVarP(&e.verbose, "verbose", "v", false, "Verbose logging to stderr")

	root.AddCommand(
		newAskCmd(e),
		newChatsCmd(e),
		newKeyCmd(e),
		newModelCmd(e),
		newScrapeCmd(e),
	)
	return root
}

// withApp opens the services for the duration of run and always closes them.
func (e *env) withApp(run func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if e.dbPath != "" {
			cfg.DBPath = e.dbPath
		}

		level := slog.LevelWarn
		if e.verbose {
			level = slog.LevelDebug
		}
		e.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

		e.app, err = app.New(cmd.Context(), cfg, e.logger, e.opts...)
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		defer func() {
			if closeErr := e.app.Close(); closeErr != nil && err == nil {
				err = closeErr
			}
			e.app = nil
		}()
		return run(cmd, args)
	}
}
