package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"profscreen/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool
	var pruneDays int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past screening runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Paths.HistoryDB == "" {
				return fmt.Errorf("run history is disabled (paths.history_db is empty)")
			}
			store, err := history.Open(cfg.Paths.HistoryDB)
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if pruneDays > 0 {
				cutoff := time.Now().Add(-time.Duration(pruneDays) * 24 * time.Hour)
				removed, err := store.Prune(cmd.Context(), cutoff)
				if err != nil {
					return err
				}
				if !jsonOutput {
					fmt.Fprintf(out, "Pruned %d runs older than %d days\n", removed, pruneDays)
				}
			}

			runs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOutput {
				if runs == nil {
					runs = []history.Run{}
				}
				return writeJSON(cmd, runs)
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			fmt.Fprintln(out, renderHistory(runs, time.Now()))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().IntVar(&pruneDays, "prune-days", 0, "Delete runs older than this many days first")
	return cmd
}

func renderHistory(runs []history.Run, now time.Time) string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		result := run.State
		if !run.Succeeded() {
			result = run.State + " (" + run.ErrorKind + ")"
		}
		media := time.Duration(run.MediaMs) * time.Millisecond
		rows = append(rows, []string{
			humanize.RelTime(run.StartedAt, now, "ago", "from now"),
			truncateMiddle(run.MediaPath, 40),
			run.Language,
			run.Engine,
			strconv.Itoa(run.Segments),
			strconv.Itoa(run.Flagged),
			media.Round(time.Second).String(),
			run.Elapsed().Round(time.Second).String(),
			result,
		})
	}
	return renderTable(
		[]string{"Started", "Media", "Lang", "Engine", "Segments", "Flagged", "Audio", "Took", "Result"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
	)
}

func truncateMiddle(value string, limit int) string {
	runes := []rune(value)
	if limit < 5 || len(runes) <= limit {
		return value
	}
	half := (limit - 3) / 2
	return string(runes[:half]) + "..." + string(runes[len(runes)-(limit-3-half):])
}
