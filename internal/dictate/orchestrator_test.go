package dictate

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/davemaier/chirp-stt/internal/hotkey"
	"github.com/davemaier/chirp-stt/internal/textproc"
)

type fakeRecorder struct {
	mu       sync.Mutex
	startErr error
	samples  []float32
	starts   int
	stops    int
}

func (r *fakeRecorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.startErr != nil {
		return r.startErr
	}
	r.starts++
	return nil
}

func (r *fakeRecorder) Stop() []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stops++
	return r.samples
}

func (r *fakeRecorder) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.starts, r.stops
}

type fakeTranscriber struct {
	text    string
	err     error
	calls   atomic.Int32
	release chan struct{} // when non-nil, Transcribe blocks until closed
}

func (t *fakeTranscriber) Transcribe(ctx context.Context, samples []float32) (string, error) {
	t.calls.Add(1)
	if t.release != nil {
		<-t.release
	}
	return t.text, t.err
}

type fakeInjector struct {
	mu       sync.Mutex
	err      error
	injected []string
}

func (i *fakeInjector) Inject(text string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.err != nil {
		return i.err
	}
	i.injected = append(i.injected, text)
	return nil
}

func (i *fakeInjector) all() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]string(nil), i.injected...)
}

type fakeFeedback struct {
	starts atomic.Int32
	stops  atomic.Int32
	errs   atomic.Int32
}

func (f *fakeFeedback) PlayStart() { f.starts.Add(1) }
func (f *fakeFeedback) PlayStop()  { f.stops.Add(1) }
func (f *fakeFeedback) PlayError() { f.errs.Add(1) }

type fixture struct {
	rec     *fakeRecorder
	tr      *fakeTranscriber
	inj     *fakeInjector
	fb      *fakeFeedback
	orch    *Orchestrator
	toggles chan hotkey.Toggle
	cancel  context.CancelFunc
}

func newFixture(t *testing.T, maxDuration time.Duration) *fixture {
	t.Helper()
	f := &fixture{
		rec:     &fakeRecorder{samples: []float32{0.1, 0.2}},
		tr:      &fakeTranscriber{text: "hello world"},
		inj:     &fakeInjector{},
		fb:      &fakeFeedback{},
		toggles: make(chan hotkey.Toggle, 16),
	}
	proc := textproc.New(map[string]string{"parra keat": "parakeet"}, true, "")
	f.orch = New(f.rec, f.tr, proc, f.inj, f.fb, maxDuration, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	go f.orch.Run(ctx, f.toggles)
	t.Cleanup(cancel)
	return f
}

func (f *fixture) toggle() {
	f.toggles <- hotkey.Toggle{}
}

// waitState polls until the orchestrator reaches want or the deadline
// passes.
func waitState(t *testing.T, o *Orchestrator, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if o.State() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("state = %v, want %v", o.State(), want)
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal(msg)
}

func TestFullCycle(t *testing.T) {
	f := newFixture(t, 0)

	f.toggle()
	waitState(t, f.orch, StateRecording)
	if got := f.fb.starts.Load(); got != 1 {
		t.Errorf("start feedback played %d times, want 1", got)
	}

	f.toggle()
	waitState(t, f.orch, StateIdle)

	waitFor(t, func() bool { return len(f.inj.all()) == 1 }, "text was never injected")
	if got := f.inj.all()[0]; got != "hello world" {
		t.Errorf("injected %q, want %q", got, "hello world")
	}
	if got := f.fb.stops.Load(); got != 1 {
		t.Errorf("stop feedback played %d times, want 1", got)
	}
}

func TestOverridesAppliedBeforeInjection(t *testing.T) {
	f := newFixture(t, 0)
	f.tr.text = "send   email to parra keat now\n"

	f.toggle()
	waitState(t, f.orch, StateRecording)
	f.toggle()
	waitFor(t, func() bool { return len(f.inj.all()) == 1 }, "text was never injected")

	want := "send   email to parakeet now"
	if got := f.inj.all()[0]; got != want {
		t.Errorf("injected %q, want %q", got, want)
	}
}

func TestEmptyTranscriptSkipsInjection(t *testing.T) {
	f := newFixture(t, 0)
	f.tr.text = ""

	f.toggle()
	waitState(t, f.orch, StateRecording)
	f.toggle()
	waitState(t, f.orch, StateIdle)

	waitFor(t, func() bool { return f.tr.calls.Load() == 1 }, "transcriber never called")
	if got := f.inj.all(); len(got) != 0 {
		t.Errorf("injected %v, want no injection for empty transcript", got)
	}
	if got := f.fb.errs.Load(); got != 0 {
		t.Errorf("error feedback played %d times, empty result is not an error", got)
	}
}

func TestCaptureErrorSkipsTranscription(t *testing.T) {
	f := newFixture(t, 0)
	f.rec.startErr = errors.New("device unavailable")

	f.toggle()
	waitState(t, f.orch, StateIdle)

	waitFor(t, func() bool { return f.fb.errs.Load() == 1 }, "error feedback never played")
	if got := f.tr.calls.Load(); got != 0 {
		t.Errorf("transcriber called %d times after capture failure, want 0", got)
	}
}

func TestNoAudioSkipsTranscription(t *testing.T) {
	f := newFixture(t, 0)
	f.rec.samples = nil

	f.toggle()
	waitState(t, f.orch, StateRecording)
	f.toggle()
	waitState(t, f.orch, StateIdle)

	time.Sleep(20 * time.Millisecond)
	if got := f.tr.calls.Load(); got != 0 {
		t.Errorf("transcriber called %d times for empty capture, want 0", got)
	}
}

func TestTranscriptionFailureDiscardsSession(t *testing.T) {
	f := newFixture(t, 0)
	f.tr.err = errors.New("engine unreachable")
	f.tr.text = ""

	f.toggle()
	waitState(t, f.orch, StateRecording)
	f.toggle()
	waitState(t, f.orch, StateIdle)

	waitFor(t, func() bool { return f.fb.errs.Load() == 1 }, "error feedback never played")
	if got := f.inj.all(); len(got) != 0 {
		t.Errorf("injected %v after transcription failure", got)
	}
}

func TestInjectionFailureDiscardsSession(t *testing.T) {
	f := newFixture(t, 0)
	f.inj.err = errors.New("no focused window")

	f.toggle()
	waitState(t, f.orch, StateRecording)
	f.toggle()
	waitState(t, f.orch, StateIdle)

	waitFor(t, func() bool { return f.fb.errs.Load() == 1 }, "error feedback never played")
}

func TestToggleDuringProcessingIgnored(t *testing.T) {
	f := newFixture(t, 0)
	f.tr.release = make(chan struct{})

	f.toggle()
	waitState(t, f.orch, StateRecording)
	f.toggle()
	waitState(t, f.orch, StateProcessing)

	// Toggles while the engine is busy must not start a new session.
	f.toggle()
	f.toggle()
	time.Sleep(20 * time.Millisecond)
	if starts, _ := f.rec.counts(); starts != 1 {
		t.Errorf("recorder started %d times, want 1 (no re-entrant session)", starts)
	}

	close(f.tr.release)
	waitState(t, f.orch, StateIdle)

	waitFor(t, func() bool { return len(f.inj.all()) == 1 }, "text was never injected")
	if starts, stops := f.rec.counts(); starts != 1 || stops != 1 {
		t.Errorf("recorder starts/stops = %d/%d, want 1/1", starts, stops)
	}
}

func TestSingleSessionAcrossToggleStorm(t *testing.T) {
	f := newFixture(t, 0)
	f.tr.release = make(chan struct{})

	// A burst of toggles: only the first two may act (start, stop).
	for i := 0; i < 8; i++ {
		f.toggle()
	}
	waitState(t, f.orch, StateProcessing)
	close(f.tr.release)
	waitState(t, f.orch, StateIdle)

	if starts, _ := f.rec.counts(); starts > 2 {
		t.Errorf("recorder started %d times during burst, want at most 2", starts)
	}
}

func TestMaxDurationAutoStops(t *testing.T) {
	f := newFixture(t, 30*time.Millisecond)

	f.toggle()
	waitState(t, f.orch, StateRecording)

	// No second toggle: the recording limit stops the session.
	waitFor(t, func() bool { return len(f.inj.all()) == 1 }, "auto-stop never triggered injection")
	if _, stops := f.rec.counts(); stops != 1 {
		t.Errorf("recorder stopped %d times, want 1", stops)
	}
}

func TestCyclesAreRepeatable(t *testing.T) {
	f := newFixture(t, 0)

	for i := 0; i < 3; i++ {
		f.toggle()
		waitState(t, f.orch, StateRecording)
		f.toggle()
		waitState(t, f.orch, StateIdle)
		waitFor(t, func() bool { return len(f.inj.all()) == i+1 }, "cycle did not complete")
	}

	if starts, stops := f.rec.counts(); starts != 3 || stops != 3 {
		t.Errorf("recorder starts/stops = %d/%d, want 3/3", starts, stops)
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "idle"},
		{StateRecording, "recording"},
		{StateProcessing, "processing"},
		{StateInjecting, "injecting"},
		{StateError, "error"},
		{State(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
