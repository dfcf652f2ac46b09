package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/playground/internal/domain/project"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write the starter project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := projectArg(args)
			files := project.Starter()

			paths := make([]string, 0, len(files))
			for p := range files {
				paths = append(paths, p)
			}
			sort.Strings(paths)

			if !force {
				for _, p := range paths {
					if _, err := os.Stat(filepath.Join(dir, p)); err == nil {
						return fmt.Errorf("%s already exists (use --force to overwrite)", filepath.Join(dir, p))
					}
				}
			}

			for _, p := range paths {
				target := filepath.Join(dir, filepath.FromSlash(p))
				if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
					return err
				}
				if err := os.WriteFile(target, []byte(files[p]), 0o644); err != nil {
					return err
				}
			}
			printSuccess(cmd.OutOrStdout(), "wrote %d files to %s", len(paths), titleStyle.Render(dir))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing files")
	return cmd
}
