package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"askbase/internal/adapters/kbstore"
	"askbase/internal/admin"
	httpserver "askbase/internal/infrastructure/http"
	"askbase/internal/snapshot"
)

var adminTunnel bool

func init() {
	adminCmd.Flags().BoolVar(&adminTunnel, "tunnel", false, "expose the admin API through an ngrok tunnel")
}

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Run the admin editing API on localhost",
	Long: `Serves the entry editing API on localhost only. With --tunnel an
ngrok tunnel publishes it temporarily; the tunnel shuts itself down after
the configured inactivity timeout.`,
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

		editor := kbstore.NewEditor(cfg.Data.Dir)
		opts := []httpserver.Option{httpserver.WithAdmin(editor, refresher)}

		if adminTunnel {
			tunnel := admin.NewTunnel(cfg.Admin.Port, cfg.Admin.StateFile, cfg.Admin.InactivityTimeout, logger)
			url, err := tunnel.Start(ctx)
			if err != nil {
				return err
			}
			defer tunnel.Stop()
			opts = append(opts, httpserver.WithActivityTouch(tunnel.Touch))
			color.Green("admin tunnel: %s", url)
		}

		server := httpserver.NewServer(holder, app.answer, cfg.Data.NotesDir, logger, opts...)
		addr := fmt.Sprintf("127.0.0.1:%d", cfg.Admin.Port)
		logger.Info("admin server listening", zap.String("addr", addr))
		return server.Run(ctx, addr)
	},
}
