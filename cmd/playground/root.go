package main

import (
	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/playground/internal/domain/project"
	"github.com/GriffinCanCode/playground/internal/infrastructure/config"
	"github.com/GriffinCanCode/playground/internal/infrastructure/logging"
	"github.com/GriffinCanCode/playground/internal/infrastructure/server"
)

// globalFlags override the environment configuration
type globalFlags struct {
	packages string
	link     string
	logLevel string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "playground",
		Short:         "Bundle and preview React playground projects",
		Long:          "playground bundles a project of virtual files into one script, checks its declared dependencies and renders a sandboxed preview.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.packages, "packages", "", "Package host URL (default from PACKAGE_HOST)")
	root.PersistentFlags().StringVar(&flags.link, "link", "", "Runtime library link mode: global or bundle")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "warn", "Log level")

	root.AddCommand(
		newCheckCmd(),
		newBuildCmd(flags),
		newPreviewCmd(flags),
		newInitCmd(),
		newServeCmd(flags),
	)
	return root
}

// config loads the environment configuration with flag overrides applied
func (f *globalFlags) config() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if f.packages != "" {
		cfg.Packages.Host = f.packages
	}
	if f.link != "" {
		cfg.Packages.RuntimeLink = f.link
	}
	if f.logLevel != "" {
		cfg.Logging.Level = f.logLevel
	}
	return cfg, cfg.Validate()
}

func (f *globalFlags) logger(cfg *config.Config) *logging.Logger {
	return logging.NewCLI(cfg.Logging.Level)
}

// stack builds the pipeline with the executor named by executor
func (f *globalFlags) stack(executor string) (*server.Stack, *logging.Logger, error) {
	cfg, err := f.config()
	if err != nil {
		return nil, nil, err
	}
	cfg.Preview.Executor = executor
	cfg.Preview.PoolSize = 1

	logger := f.logger(cfg)
	st, err := server.NewStack(cfg, nil, logger)
	if err != nil {
		return nil, nil, err
	}
	return st, logger, nil
}

func projectArg(args []string) string {
	if len(args) == 0 {
		return "."
	}
	return args[0]
}

func loadProject(cmd *cobra.Command, args []string) (*project.Snapshot, error) {
	return project.Load(cmd.Context(), projectArg(args))
}
