package history

import "time"

// Run is one recorded screening run.
type Run struct {
	ID           int64     `json:"id"`
	RunID        string    `json:"run_id"`
	MediaPath    string    `json:"media_path"`
	LexiconPath  string    `json:"lexicon_path,omitempty"`
	OutputPath   string    `json:"output_path,omitempty"`
	Language     string    `json:"language"`
	Engine       string    `json:"engine"`
	WindowMs     int64     `json:"window_ms"`
	State        string    `json:"state"`
	ErrorKind    string    `json:"error_kind,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	Segments     int       `json:"segments"`
	Flagged      int       `json:"flagged"`
	Skipped      int       `json:"skipped"`
	MediaMs      int64     `json:"media_ms"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
}

// Elapsed returns the wall-clock duration of the run.
func (r Run) Elapsed() time.Duration {
	if r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Succeeded reports whether the run produced and saved a report.
func (r Run) Succeeded() bool {
	return r.ErrorKind == ""
}
