package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"askbase/internal/adapters/filewatcher"
	httpserver "askbase/internal/infrastructure/http"
	"askbase/internal/snapshot"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the public ask API",
	Long: `Builds the initial search snapshot, watches the knowledge base for
edits, and serves the ask API until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		app, err := buildStack()
		if err != nil {
			return err
		}
		defer app.close()

		snap, err := app.initialSnapshot(ctx)
		if err != nil {
			return err
		}
		holder := snapshot.NewHolder(snap)
		refresher := snapshot.NewRefresher(holder, app.rebuild, cfg.Data.RebuildDebounce, logger)

		watcher, err := filewatcher.NewWatcher(logger)
		if err != nil {
			return err
		}
		defer watcher.Stop()

		events, err := watcher.Watch(ctx, cfg.Data.Dir)
		if err != nil {
			return err
		}
		go refresher.Run(ctx, events)

		logger.Info("knowledge base ready",
			zap.Int("entries", snap.Store.Count()),
			zap.String("backend", cfg.Index.Backend))

		server := httpserver.NewServer(holder, app.answer, cfg.Data.NotesDir, logger)
		return server.Run(ctx, cfg.Server.Addr)
	},
}
