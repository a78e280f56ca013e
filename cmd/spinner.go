package cmd

import (
	"io"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
)

// spinner animates an indeterminate progress bar while an upload is loading.
type spinner struct {
	w       io.Writer
	mu      sync.Mutex
	bar     *progressbar.ProgressBar
	done    chan struct{}
	stopped chan struct{}
}

func newSpinner(w io.Writer) *spinner {
	return &spinner{w: w}
}

func (s *spinner) Start(description string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bar != nil {
		return
	}
	s.bar = progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(s.w),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	s.done = make(chan struct{})
	s.stopped = make(chan struct{})
	go tick(s.bar, s.done, s.stopped)
}

func (s *spinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bar == nil {
		return
	}
	close(s.done)
	<-s.stopped
	_ = s.bar.Finish()
	s.bar = nil
}

func tick(bar *progressbar.ProgressBar, done <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			_ = bar.Add(1)
		}
	}
}
