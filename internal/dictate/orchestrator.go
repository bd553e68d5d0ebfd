// Package dictate holds the state machine that sequences one dictation
// session: capture, transcription, post-processing, injection. The
// orchestrator is the sole consumer of the hotkey listener's toggle
// channel, so state transitions are serialized even though the slow
// work runs off the event loop.
package dictate

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/davemaier/chirp-stt/internal/hotkey"
	"github.com/davemaier/chirp-stt/internal/logging"
)

// Recorder is the audio capture buffer.
type Recorder interface {
	Start() error
	Stop() []float32
}

// Transcriber is the speech-to-text engine boundary.
type Transcriber interface {
	Transcribe(ctx context.Context, samples []float32) (string, error)
}

// Processor turns a raw transcript into final injectable text.
type Processor interface {
	Process(raw string) string
}

// Injector delivers final text to the OS input focus.
type Injector interface {
	Inject(text string) error
}

// Feedback plays the session transition cues.
type Feedback interface {
	PlayStart()
	PlayStop()
	PlayError()
}

// Orchestrator drives the dictation cycle. At most one session exists
// at any time; toggles arriving while a session is in Processing or
// Injecting are dropped.
type Orchestrator struct {
	recorder    Recorder
	transcriber Transcriber
	processor   Processor
	injector    Injector
	feedback    Feedback
	log         zerolog.Logger

	// maxDuration auto-stops a recording that the user forgot about.
	// Zero disables the limit.
	maxDuration time.Duration

	mu        sync.Mutex
	state     State
	session   *Session
	stopTimer *time.Timer

	// autoStop carries the session ID of an expired recording timer
	// back onto the event loop.
	autoStop chan uuid.UUID
}

// New creates an Orchestrator in the Idle state.
func New(rec Recorder, tr Transcriber, proc Processor, inj Injector, fb Feedback, maxDuration time.Duration, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		recorder:    rec,
		transcriber: tr,
		processor:   proc,
		injector:    inj,
		feedback:    fb,
		log:         log,
		maxDuration: maxDuration,
		state:       StateIdle,
		autoStop:    make(chan uuid.UUID, 1),
	}
}

// State returns the current machine state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Run consumes toggle events until ctx is cancelled or the channel
// closes. It must be the channel's only consumer.
func (o *Orchestrator) Run(ctx context.Context, toggles <-chan hotkey.Toggle) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-toggles:
			if !ok {
				return nil
			}
			o.onToggle(ctx)
		case id := <-o.autoStop:
			o.onAutoStop(ctx, id)
		}
	}
}

// onToggle dispatches a toggle against the current state. Only Idle
// and Recording accept toggles; everything else is debounced here so a
// re-entrant session can never start.
func (o *Orchestrator) onToggle(ctx context.Context) {
	o.mu.Lock()
	state := o.state
	o.mu.Unlock()

	switch state {
	case StateIdle:
		o.startRecording()
	case StateRecording:
		o.stopRecording(ctx)
	default:
		o.log.Debug().Stringer("state", state).Msg("toggle ignored")
	}
}

// onAutoStop handles an expired recording limit. The session ID guards
// against a stale timer firing after its session already ended.
func (o *Orchestrator) onAutoStop(ctx context.Context, id uuid.UUID) {
	o.mu.Lock()
	current := o.state == StateRecording && o.session != nil && o.session.ID == id
	o.mu.Unlock()
	if !current {
		return
	}
	o.log.Info().Msg("maximum recording duration reached")
	o.stopRecording(ctx)
}

// startRecording transitions Idle -> Recording.
func (o *Orchestrator) startRecording() {
	sess := newSession()

	if err := o.recorder.Start(); err != nil {
		// CaptureError: fatal for this session, not for the process.
		o.log.Warn().Err(err).Msg("audio capture start failed")
		o.feedback.PlayError()
		o.setState(StateError)
		o.toIdle(nil)
		return
	}

	o.mu.Lock()
	o.state = StateRecording
	o.session = sess
	if o.maxDuration > 0 {
		id := sess.ID
		o.stopTimer = time.AfterFunc(o.maxDuration, func() {
			select {
			case o.autoStop <- id:
			default:
			}
		})
	}
	o.mu.Unlock()

	o.feedback.PlayStart()
	o.log.Info().Str("session", sess.ID.String()).Msg("recording started")
}

// stopRecording transitions Recording -> Processing and hands the
// finalized snapshot to the worker goroutine. The event loop keeps
// consuming toggles while the worker runs.
func (o *Orchestrator) stopRecording(ctx context.Context) {
	o.mu.Lock()
	sess := o.session
	if o.stopTimer != nil {
		o.stopTimer.Stop()
		o.stopTimer = nil
	}
	o.mu.Unlock()

	samples := o.recorder.Stop()
	sess.Samples = samples
	sess.StoppedAt = time.Now()

	o.setState(StateProcessing)
	o.feedback.PlayStop()
	o.log.Info().
		Str("session", sess.ID.String()).
		Int("samples", len(samples)).
		Msg("recording stopped")

	go o.process(ctx, sess)
}

// process runs transcription, post-processing and injection for one
// session, then returns the machine to Idle. Exactly one process
// goroutine exists at a time because toggles are refused until the
// state is Idle again.
func (o *Orchestrator) process(ctx context.Context, sess *Session) {
	defer o.toIdle(sess)

	if len(sess.Samples) == 0 {
		o.log.Info().Msg("no audio captured, skipping transcription")
		return
	}

	start := time.Now()
	raw, err := o.transcriber.Transcribe(ctx, sess.Samples)
	if err != nil {
		// InferenceError: discard the session, no injection.
		o.log.Warn().Err(err).Msg("transcription failed")
		o.feedback.PlayError()
		o.setState(StateError)
		return
	}
	o.log.Debug().Dur("elapsed", time.Since(start)).Msg("transcription finished")

	if raw == "" {
		// EmptyResult: silence is a legitimate outcome, not an error.
		o.log.Info().Msg("empty transcription, nothing to inject")
		return
	}
	sess.RawTranscript = raw
	logging.Transcript(o.log, "transcribed", raw)

	final := o.processor.Process(raw)
	if final == "" {
		o.log.Info().Msg("post-processing produced no text, nothing to inject")
		return
	}
	sess.FinalText = final

	o.setState(StateInjecting)
	if err := o.injector.Inject(final); err != nil {
		// InjectionError: no retry, replayed keystrokes are worse
		// than a dropped dictation.
		o.log.Warn().Err(err).Msg("injection failed")
		o.feedback.PlayError()
		o.setState(StateError)
		return
	}

	o.log.Info().
		Str("session", sess.ID.String()).
		Int("chars", len([]rune(final))).
		Dur("total", time.Since(sess.StartedAt)).
		Msg("text injected")
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

// toIdle destroys the session and returns to Idle, completing the
// cycle regardless of which state preceded it.
func (o *Orchestrator) toIdle(sess *Session) {
	o.mu.Lock()
	o.state = StateIdle
	o.session = nil
	o.mu.Unlock()
	if sess != nil {
		o.log.Debug().Str("session", sess.ID.String()).Msg("session closed")
	}
}
