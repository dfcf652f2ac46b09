package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/playground/internal/domain/bundle"
	"github.com/GriffinCanCode/playground/internal/infrastructure/config"
	"github.com/GriffinCanCode/playground/internal/shared/utils"
)

// errBuildFailed is returned after the diagnostics have been printed
var errBuildFailed = errors.New("build failed")

func newBuildCmd(flags *globalFlags) *cobra.Command {
	var (
		output  string
		asJSON  bool
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "build [project]",
		Short: "Bundle a project into a single script",
		Long:  "Bundle a project directory, or a project file in YAML, TOML or JSON, into one self-contained script.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := loadProject(cmd, args)
			if err != nil {
				return err
			}
			st, _, err := flags.stack(config.ExecutorNone)
			if err != nil {
				return err
			}
			defer st.Close()

			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			res := st.Orchestrator.Build(ctx, snap)
			out := cmd.OutOrStdout()

			if asJSON {
				data, err := sonic.ConfigStd.MarshalIndent(res, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
				if !res.OK() {
					return errBuildFailed
				}
				return writeArtifact(output, res)
			}

			if len(res.Diagnostics) > 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), renderDiagnostics(res.Diagnostics))
			}
			if !res.OK() {
				return errBuildFailed
			}

			if output == "" {
				fmt.Fprint(out, res.Artifact)
				return nil
			}
			if err := writeArtifact(output, res); err != nil {
				return err
			}
			printSuccess(cmd.ErrOrStderr(), "%s %s", titleStyle.Render(output), mutedStyle.Render(summary(res)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "out", "o", "", "Write the artifact to this file instead of stdout")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the build result as JSON")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Abort the build after this long")
	return cmd
}

func writeArtifact(path string, res *bundle.Result) error {
	if path == "" {
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(res.Artifact), 0o644)
}

func summary(res *bundle.Result) string {
	s := fmt.Sprintf("%s, %s, built in %s",
		humanBytes(len(res.Artifact)), utils.ShortHash(res.Hash), res.Duration.Round(time.Millisecond))
	if res.Summary != nil {
		s += fmt.Sprintf(", %d inputs", len(res.Summary.Inputs))
	}
	return s
}

func humanBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f kB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
