package pipeline

import "profscreen/internal/report"

// State is a pipeline lifecycle state.
type State string

const (
	StateInit         State = "INIT"
	StateExtracting   State = "EXTRACTING"
	StateSegmenting   State = "SEGMENTING"
	StateTranscribing State = "TRANSCRIBING"
	StateAssembling   State = "ASSEMBLING"
	StateSaving       State = "SAVING"
	StateDone         State = "DONE"
	StateAborted      State = "ABORTED"
)

// Terminal reports whether no further transitions are possible from s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateAborted
}

// Stage returns the lowercase name used for log and context stage fields.
func (s State) Stage() string {
	switch s {
	case StateInit:
		return "init"
	case StateExtracting:
		return "extracting"
	case StateSegmenting:
		return "segmenting"
	case StateTranscribing:
		return "transcribing"
	case StateAssembling:
		return "assembling"
	case StateSaving:
		return "saving"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	default:
		return ""
	}
}

// Observer receives progress notifications from a Runner. Calls happen on the
// goroutine executing Run.
type Observer interface {
	StateChanged(state State)
	SegmentsPlanned(total int)
	SegmentDone(rec report.Record)
}

type nopObserver struct{}

func (nopObserver) StateChanged(State) {}

func (nopObserver) SegmentsPlanned(int) {}

func (nopObserver) SegmentDone(report.Record) {}
