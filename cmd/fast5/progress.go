package main

import (
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"
)

// progressBar renders the progress of one tool run on a terminal.
type progressBar struct {
	pw      progress.Writer
	tracker *progress.Tracker
	message string
}

func newProgressBar(w io.Writer, message string) *progressBar {
	pw := progress.NewWriter()
	pw.SetOutputWriter(w)
	pw.SetAutoStop(true)
	pw.SetTrackerLength(30)
	pw.SetUpdateFrequency(200 * time.Millisecond)
	pw.SetStyle(progress.StyleDefault)
	pw.Style().Visibility.ETA = true
	pw.Style().Visibility.Percentage = true
	return &progressBar{pw: pw, message: message}
}

func (p *progressBar) Start(total int64) {
	p.tracker = &progress.Tracker{Message: p.message, Total: total, Units: progress.UnitsDefault}
	p.pw.AppendTracker(p.tracker)
	go p.pw.Render()
}

func (p *progressBar) Add(n int64) {
	if p.tracker != nil {
		p.tracker.Increment(n)
	}
}

// Finish marks the run done and waits for the last frame to be drawn.
func (p *progressBar) Finish() {
	if p.tracker == nil {
		return
	}
	p.tracker.MarkAsDone()
	for p.pw.IsRenderInProgress() {
		time.Sleep(10 * time.Millisecond)
	}
}
