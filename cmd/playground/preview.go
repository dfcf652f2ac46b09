package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/playground/internal/domain/session"
	"github.com/GriffinCanCode/playground/internal/infrastructure/config"
)

func newPreviewCmd(flags *globalFlags) *cobra.Command {
	var (
		output   string
		executor string
		rendered bool
	)

	cmd := &cobra.Command{
		Use:   "preview [project]",
		Short: "Build a project and render its preview document",
		Long: "Build a project, assemble the preview document and execute it. " +
			"Runtime errors raised by the preview are reported the way the editor shows them.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := loadProject(cmd, args)
			if err != nil {
				return err
			}
			st, logger, err := flags.stack(executor)
			if err != nil {
				return err
			}
			defer st.Close()

			sessions := session.NewManager(st.Orchestrator, st.Executor, logger)
			defer sessions.Close()
			s := sessions.Create()

			res, err := sessions.Run(cmd.Context(), s.ID, snap.Files())
			if err != nil {
				return err
			}
			out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

			if output != "" {
				if err := os.WriteFile(output, []byte(res.Document), 0o644); err != nil {
					return err
				}
			}
			if !res.Build.OK() {
				fmt.Fprintln(errOut, renderDiagnostics(res.Build.Diagnostics))
				return errBuildFailed
			}

			p := res.Presentation
			if p == nil {
				printSuccess(errOut, "document assembled, %s", humanBytes(len(res.Document)))
				return nil
			}
			for _, line := range p.Console {
				fmt.Fprintln(errOut, mutedStyle.Render(line))
			}
			for _, src := range p.Skipped {
				printWarning(errOut, "script not executed: %s", src)
			}
			if rendered {
				fmt.Fprintln(out, p.Rendered)
			}
			if len(p.Errors) > 0 {
				for _, m := range p.Errors {
					fmt.Fprintln(errOut, cardStyle.Render(errorStyle.Render("runtime error")+"\n"+m))
				}
				return fmt.Errorf("preview raised %d error(s)", len(p.Errors))
			}
			printSuccess(errOut, "rendered in %s", p.Duration)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "out", "o", "", "Write the preview document to this file")
	cmd.Flags().StringVar(&executor, "executor", config.ExecutorHeadless, "Preview executor: headless, browser or none")
	cmd.Flags().BoolVar(&rendered, "rendered", false, "Print the document as rendered by the executor")
	return cmd
}
