package main

import (
	"os"
	"os/signal"
	"syscall"

	"stock_research/pkg/api"
	"stock_research/pkg/core/logging"

	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the research HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, mode, err := loadConfig()
		if err != nil {
			return err
		}
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}

		logger, err := logging.New(cfg.Log.Level, cfg.Log.JSON)
		if err != nil {
			return err
		}
		defer logger.Sync()

		srv, err := api.NewServer(cfg, mode, logger)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return api.Serve(ctx, srv, logger)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
}
