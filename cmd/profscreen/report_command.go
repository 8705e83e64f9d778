package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"profscreen/internal/config"
	"profscreen/internal/report"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Inspect saved reports",
	}
	reportCmd.AddCommand(newReportShowCommand(ctx))
	return reportCmd
}

func newReportShowCommand(ctx *commandContext) *cobra.Command {
	var flaggedOnly bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show [PATH]",
		Short: "Render a saved report (default: configured output path)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := cfg.Pipeline.OutputPath
			if len(args) == 1 {
				if path, err = config.ExpandPath(args[0]); err != nil {
					return fmt.Errorf("resolve report path: %w", err)
				}
			}

			rep, err := report.Read(path)
			if err != nil {
				return err
			}

			if jsonOutput {
				records := rep.Records
				if flaggedOnly {
					records = rep.FlaggedRecords()
				}
				if records == nil {
					records = []report.Record{}
				}
				return writeJSON(cmd, records)
			}

			out := cmd.OutOrStdout()
			if rep.Len() == 0 {
				fmt.Fprintf(out, "%s contains no segments\n", path)
				return nil
			}
			if flaggedOnly && rep.FlaggedCount() == 0 {
				fmt.Fprintf(out, "No flagged segments in %s (%d segments)\n", path, rep.Len())
				return nil
			}
			fmt.Fprintln(out, renderReport(rep, flaggedOnly))
			fmt.Fprintf(out, "%d of %d segments flagged\n", rep.FlaggedCount(), rep.Len())
			return nil
		},
	}

	cmd.Flags().BoolVar(&flaggedOnly, "flagged", false, "Only show flagged segments")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
