package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/playground/internal/domain/deps"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [project]",
		Short: "Check that every imported package is declared in package.json",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := loadProject(cmd, args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			missing := deps.Check(snap, snap.Manifest())
			if len(missing) > 0 {
				return fmt.Errorf("Missing dependencies in package.json: %s", strings.Join(missing, ", "))
			}
			printSuccess(out, "%d files, all imports declared", snap.Len())
			return nil
		},
	}
}
