package cmd

import (
	"bytes"
	"testing"
	"time"
)

func TestSpinnerStartStop(t *testing.T) {
	var out bytes.Buffer
	s := newSpinner(&out)

	s.Stop()

	s.Start("Analyzing...")
	s.Start("ignored")
	time.Sleep(150 * time.Millisecond)
	s.Stop()
	s.Stop()

	if s.bar != nil {
		t.Fatal("expected bar to be released after Stop")
	}

	s.Start("Analyzing again...")
	s.Stop()
	if s.bar != nil {
		t.Fatal("expected bar to be released after second Stop")
	}
}
