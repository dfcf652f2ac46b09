package main

import (
	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/playground/internal/infrastructure/server"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	var (
		port     string
		executor string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the playground API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.config()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Server.Port = port
			}
			if executor != "" {
				cfg.Preview.Executor = executor
			}

			srv, err := server.NewServer(cfg)
			if err != nil {
				return err
			}
			defer srv.Close()
			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "Port to listen on (default from PORT)")
	cmd.Flags().StringVar(&executor, "executor", "", "Preview executor: headless, browser or none")
	return cmd
}
