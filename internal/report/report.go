package report

import (
	"fmt"
	"time"

	"profscreen/internal/segment"
)

// Header is the exact column layout of a saved report.
var Header = []string{"segment", "text", "label"}

// Record is the screening result for one segment.
type Record struct {
	Segment string `json:"segment"`
	StartMs int64  `json:"start_ms"`
	EndMs   int64  `json:"end_ms"`
	Text    string `json:"text"`
	Label   int    `json:"label"`
}

// NewRecord builds the record for seg. Any non-zero label is stored as 1.
func NewRecord(seg segment.Segment, text string, label int) Record {
	if label != 0 {
		label = 1
	}
	return Record{
		Segment: seg.Label(),
		StartMs: seg.StartMs,
		EndMs:   seg.EndMs,
		Text:    text,
		Label:   label,
	}
}

// Flagged reports whether the record matched the lexicon.
func (r Record) Flagged() bool {
	return r.Label == 1
}

// Report is the full result of one screening run.
type Report struct {
	RunID       string    `json:"run_id,omitempty"`
	MediaPath   string    `json:"media_path,omitempty"`
	Language    string    `json:"language,omitempty"`
	Engine      string    `json:"engine,omitempty"`
	WindowMs    int64     `json:"window_ms,omitempty"`
	LexiconSize int       `json:"lexicon_size"`
	Skipped     int       `json:"skipped_segments"`
	CreatedAt   time.Time `json:"created_at"`
	Records     []Record  `json:"records"`
}

// Append adds rec to the report. Records must arrive in StartMs order.
func (r *Report) Append(rec Record) error {
	if n := len(r.Records); n > 0 && rec.StartMs < r.Records[n-1].EndMs {
		return fmt.Errorf("record %s overlaps previous record %s", rec.Segment, r.Records[n-1].Segment)
	}
	r.Records = append(r.Records, rec)
	return nil
}

// Len returns the number of records.
func (r *Report) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Records)
}

// FlaggedCount returns the number of records with label 1.
func (r *Report) FlaggedCount() int {
	if r == nil {
		return 0
	}
	count := 0
	for _, rec := range r.Records {
		if rec.Flagged() {
			count++
		}
	}
	return count
}

// FlaggedRecords returns only the records with label 1.
func (r *Report) FlaggedRecords() []Record {
	if r == nil {
		return nil
	}
	var out []Record
	for _, rec := range r.Records {
		if rec.Flagged() {
			out = append(out, rec)
		}
	}
	return out
}

// DurationMs returns the end of the last record.
func (r *Report) DurationMs() int64 {
	if r.Len() == 0 {
		return 0
	}
	return r.Records[len(r.Records)-1].EndMs
}
