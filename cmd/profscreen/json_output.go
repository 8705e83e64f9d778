package main

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"profscreen/internal/report"
	"profscreen/internal/services"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// scanSummary is the --json output of a scan.
type scanSummary struct {
	RunID      string          `json:"run_id"`
	MediaPath  string          `json:"media_path"`
	OutputPath string          `json:"output_path,omitempty"`
	Saved      bool            `json:"saved"`
	Language   string          `json:"language"`
	Engine     string          `json:"engine"`
	Segments   int             `json:"segments"`
	Flagged    int             `json:"flagged"`
	Skipped    int             `json:"skipped"`
	MediaMs    int64           `json:"media_ms"`
	ElapsedMs  int64           `json:"elapsed_ms"`
	ErrorKind  string          `json:"error_kind,omitempty"`
	Error      string          `json:"error,omitempty"`
	Records    []report.Record `json:"records"`
}

func newScanSummary(rep *report.Report, output string, saveErr error, elapsed time.Duration) scanSummary {
	summary := scanSummary{
		RunID:      rep.RunID,
		MediaPath:  rep.MediaPath,
		OutputPath: output,
		Saved:      saveErr == nil,
		Language:   rep.Language,
		Engine:     rep.Engine,
		Segments:   rep.Len(),
		Flagged:    rep.FlaggedCount(),
		Skipped:    rep.Skipped,
		MediaMs:    rep.DurationMs(),
		ElapsedMs:  elapsed.Milliseconds(),
		Records:    rep.Records,
	}
	if saveErr != nil {
		summary.OutputPath = ""
		summary.ErrorKind = services.Kind(saveErr)
		summary.Error = saveErr.Error()
	}
	if summary.Records == nil {
		summary.Records = []report.Record{}
	}
	return summary
}
