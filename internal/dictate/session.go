package dictate

import (
	"time"

	"github.com/google/uuid"
)

// State is the orchestrator's position in the dictation cycle.
type State int

const (
	// StateIdle means no session exists; a toggle starts one.
	StateIdle State = iota
	// StateRecording means the capture buffer is accumulating samples.
	StateRecording
	// StateProcessing means audio is at the transcription engine.
	StateProcessing
	// StateInjecting means final text is being delivered to the focus.
	StateInjecting
	// StateError is transient: the session is discarded and the
	// machine returns to Idle.
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateProcessing:
		return "processing"
	case StateInjecting:
		return "injecting"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Session is one recording-to-injection cycle. It is owned exclusively
// by the orchestrator: it is created on the transition into Recording
// and destroyed on the return to Idle, and no other component retains
// it past the call that consumes it.
type Session struct {
	ID            uuid.UUID
	Samples       []float32
	RawTranscript string
	FinalText     string
	StartedAt     time.Time
	StoppedAt     time.Time
}

func newSession() *Session {
	return &Session{
		ID:        uuid.New(),
		StartedAt: time.Now(),
	}
}
