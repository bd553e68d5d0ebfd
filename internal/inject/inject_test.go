package inject

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeHooks records keyboard and clipboard operations in memory.
type fakeHooks struct {
	mu        sync.Mutex
	typed     []string
	taps      [][]string
	clipboard string
	writeErr  error
	tapErr    error
}

func (f *fakeHooks) TypeStr(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typed = append(f.typed, text)
	return nil
}

func (f *fakeHooks) KeyTap(key string, mods ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tapErr != nil {
		return f.tapErr
	}
	f.taps = append(f.taps, append([]string{key}, mods...))
	return nil
}

func (f *fakeHooks) ReadAll() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clipboard, nil
}

func (f *fakeHooks) WriteAll(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.clipboard = text
	return nil
}

func (f *fakeHooks) getClipboard() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clipboard
}

func (f *fakeHooks) setClipboard(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clipboard = s
}

func newTestInjector(method Method, pasteMode string, clear bool, delay time.Duration, h *fakeHooks) *Injector {
	return New(method, pasteMode, clear, delay, zerolog.Nop(),
		withHooks(h), withSettleDelay(0))
}

func TestInjectEmptyIsNoOp(t *testing.T) {
	h := &fakeHooks{}
	inj := newTestInjector(MethodType, "ctrl", false, 0, h)

	if err := inj.Inject(""); err != nil {
		t.Fatalf("Inject() error = %v", err)
	}
	if len(h.typed) != 0 || len(h.taps) != 0 {
		t.Error("empty text should cause no keyboard activity")
	}
}

func TestInjectTypeMethod(t *testing.T) {
	h := &fakeHooks{}
	inj := newTestInjector(MethodType, "ctrl", false, 0, h)

	if err := inj.Inject("héllo wörld"); err != nil {
		t.Fatalf("Inject() error = %v", err)
	}
	if len(h.typed) != 1 || h.typed[0] != "héllo wörld" {
		t.Errorf("typed = %v, want the full unicode text", h.typed)
	}
	if h.getClipboard() != "" {
		t.Error("type method must not touch the clipboard")
	}
}

func TestInjectPasteCtrl(t *testing.T) {
	h := &fakeHooks{}
	inj := newTestInjector(MethodPaste, "ctrl", false, 0, h)

	if err := inj.Inject("hello"); err != nil {
		t.Fatalf("Inject() error = %v", err)
	}
	if h.getClipboard() != "hello" {
		t.Errorf("clipboard = %q, want %q", h.getClipboard(), "hello")
	}
	if len(h.taps) != 1 {
		t.Fatalf("taps = %v, want one chord", h.taps)
	}
	want := []string{"v", "ctrl"}
	for i, k := range want {
		if h.taps[0][i] != k {
			t.Errorf("chord = %v, want %v", h.taps[0], want)
		}
	}
}

func TestInjectPasteShiftChord(t *testing.T) {
	h := &fakeHooks{}
	inj := newTestInjector(MethodPaste, "ctrl+shift", false, 0, h)

	if err := inj.Inject("x"); err != nil {
		t.Fatalf("Inject() error = %v", err)
	}
	if len(h.taps) != 1 || len(h.taps[0]) != 3 || h.taps[0][2] != "shift" {
		t.Errorf("chord = %v, want [v ctrl shift]", h.taps)
	}
}

func TestInjectPasteChordFailure(t *testing.T) {
	h := &fakeHooks{tapErr: errors.New("no focused window")}
	inj := newTestInjector(MethodPaste, "ctrl", false, 0, h)

	if err := inj.Inject("hello"); err == nil {
		t.Error("Inject() should surface chord failures")
	}
}

func TestClipboardClearAfterDelay(t *testing.T) {
	h := &fakeHooks{clipboard: "previous content"}
	inj := newTestInjector(MethodPaste, "ctrl", true, 50*time.Millisecond, h)

	start := time.Now()
	if err := inj.Inject("secret dictation"); err != nil {
		t.Fatalf("Inject() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > 30*time.Millisecond {
		t.Errorf("Inject() blocked for %v, the clear must run detached", elapsed)
	}

	// Immediately after injection the clipboard holds the text.
	if got := h.getClipboard(); got != "secret dictation" {
		t.Errorf("clipboard right after inject = %q, want injected text", got)
	}

	// After the delay the prior content is restored.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.getClipboard() == "previous content" {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Errorf("clipboard = %q, want restored %q after clear delay", h.getClipboard(), "previous content")
}

func TestClipboardClearLeavesUserContentAlone(t *testing.T) {
	h := &fakeHooks{}
	inj := newTestInjector(MethodPaste, "ctrl", true, 30*time.Millisecond, h)

	if err := inj.Inject("dictated"); err != nil {
		t.Fatalf("Inject() error = %v", err)
	}

	// The user copies something else before the timer fires.
	h.setClipboard("user copied this")

	time.Sleep(100 * time.Millisecond)
	if got := h.getClipboard(); got != "user copied this" {
		t.Errorf("clipboard = %q, verify-then-clear must not clobber user content", got)
	}
}

func TestClipboardClearDisabled(t *testing.T) {
	h := &fakeHooks{}
	inj := newTestInjector(MethodPaste, "ctrl", false, 10*time.Millisecond, h)

	if err := inj.Inject("stays"); err != nil {
		t.Fatalf("Inject() error = %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if got := h.getClipboard(); got != "stays" {
		t.Errorf("clipboard = %q, want text to remain with hygiene disabled", got)
	}
}

func TestClipboardWriteFailure(t *testing.T) {
	h := &fakeHooks{writeErr: errors.New("clipboard busy")}
	inj := newTestInjector(MethodPaste, "ctrl", false, 0, h)

	if err := inj.Inject("hello"); err == nil {
		t.Error("Inject() should surface clipboard write failures")
	}
	if len(h.taps) != 0 {
		t.Error("no chord should be sent when the clipboard write fails")
	}
}
