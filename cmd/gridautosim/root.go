package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"gridauto/internal/bridge"
	"gridauto/internal/config"
	"gridauto/internal/logging"
	"gridauto/internal/simcase"
)

func newRootCommand() *cobra.Command {
	var socketFlag string
	var configFlag string

	rootCmd := &cobra.Command{
		Use:           "gridautosim",
		Short:         "Simulated automation server for gridauto",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&socketFlag, "socket", "", "Socket path to serve on")
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newServeCommand(&socketFlag, &configFlag))

	return rootCmd
}

func newServeCommand(socketFlag, configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the built-in case until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			cfg, _, _, err := config.Load(strings.TrimSpace(*configFlag))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			socket := strings.TrimSpace(*socketFlag)
			if socket == "" {
				socket = cfg.Bridge.Socket
			}
			if err := os.MkdirAll(filepath.Dir(socket), 0o755); err != nil {
				return fmt.Errorf("ensure socket directory: %w", err)
			}

			logger, err := logging.New(logging.Options{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
				Output: os.Stderr,
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			endpoint := simcase.New(logger)
			server, err := bridge.NewServer(ctx, socket, endpoint, logger)
			if err != nil {
				return fmt.Errorf("start bridge server: %w", err)
			}
			server.Serve()
			logger.Info("simulator serving", logging.String("socket", socket))

			<-ctx.Done()
			logger.Info("simulator shutting down")
			return server.Close()
		},
	}
}
