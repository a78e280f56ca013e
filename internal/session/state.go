package session

import "github.com/example/deepfake-check/internal/detection"

// Phase names the variant a State holds.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseReady
	PhaseLoading
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseReady:
		return "ready"
	case PhaseLoading:
		return "loading"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is one of Idle, Ready, Loading, Succeeded or Failed.
type State interface {
	Phase() Phase
}

// Idle means no image has been selected yet.
type Idle struct{}

// Ready holds a selected image that has not been submitted, or whose
// previous outcome was cleared by a new selection.
type Ready struct {
	Image string
}

// Loading is an upload in flight.
type Loading struct {
	Image string
}

// Succeeded holds the full response body of the settled upload.
type Succeeded struct {
	Image  string
	Result *detection.Response
}

// Failed holds the message to display for the settled upload.
type Failed struct {
	Image   string
	Message string
}

func (Idle) Phase() Phase      { return PhaseIdle }
func (Ready) Phase() Phase     { return PhaseReady }
func (Loading) Phase() Phase   { return PhaseLoading }
func (Succeeded) Phase() Phase { return PhaseSucceeded }
func (Failed) Phase() Phase    { return PhaseFailed }

// ImageOf returns the data URL held by s, or "" for Idle.
func ImageOf(s State) string {
	switch v := s.(type) {
	case Ready:
		return v.Image
	case Loading:
		return v.Image
	case Succeeded:
		return v.Image
	case Failed:
		return v.Image
	default:
		return ""
	}
}
