package main

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"

	"profscreen/internal/pipeline"
	"profscreen/internal/report"
)

// progressObserver renders per-segment progress for an interactive scan.
type progressObserver struct {
	out     io.Writer
	bar     *progressbar.ProgressBar
	flagged int
}

func newProgressObserver(out io.Writer) *progressObserver {
	return &progressObserver{out: out}
}

func (p *progressObserver) StateChanged(state pipeline.State) {
	switch state {
	case pipeline.StateExtracting:
		fmt.Fprintln(p.out, "Extracting audio...")
	case pipeline.StateDone, pipeline.StateAborted:
		if p.bar != nil {
			_ = p.bar.Finish()
			fmt.Fprintln(p.out)
		}
	}
}

func (p *progressObserver) SegmentsPlanned(total int) {
	if total == 0 {
		return
	}
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.out),
		progressbar.OptionSetDescription("Transcribing"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(0),
	)
}

func (p *progressObserver) SegmentDone(rec report.Record) {
	if rec.Flagged() {
		p.flagged++
		if p.bar != nil {
			p.bar.Describe(fmt.Sprintf("Transcribing (%d flagged)", p.flagged))
		}
	}
	if p.bar != nil {
		_ = p.bar.Add(1)
	}
}
