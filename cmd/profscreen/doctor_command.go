package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"profscreen/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check external tools, paths and the transcription engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			statuses := preflight.CheckSystemDeps(cfg)
			depRows := make([][]string, 0, len(statuses))
			missing := 0
			for _, status := range statuses {
				state := "ok"
				detail := status.Path
				if !status.Available {
					state = "missing"
					detail = status.Detail
					if !status.Optional {
						missing++
					}
				}
				depRows = append(depRows, []string{status.Name, state, yesNo(!status.Optional), detail, status.Description})
			}
			fmt.Fprintln(out, renderTable([]string{"Tool", "Status", "Required", "Detail", "Purpose"}, depRows, nil))

			results := preflight.RunAll(cmd.Context(), cfg)
			checkRows := make([][]string, 0, len(results))
			for _, r := range results {
				state := "ok"
				if !r.Passed {
					state = "fail"
				}
				checkRows = append(checkRows, []string{r.Name, state, r.Detail})
			}
			fmt.Fprintln(out, renderTable([]string{"Check", "Status", "Detail"}, checkRows, nil))

			failed := missing + len(preflight.Failed(results))
			if failed > 0 {
				return fmt.Errorf("%d checks failed", failed)
			}
			fmt.Fprintln(out, "All checks passed")
			return nil
		},
	}
}
