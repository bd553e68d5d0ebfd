// Package inject delivers final text into the OS input focus using
// robotgo, either by simulating keystrokes or via clipboard paste.
//
// Clipboard-clear contract: when clipboard hygiene is enabled, a
// detached timer fires after the configured delay and clears the
// clipboard only if it still holds exactly the injected text. Content
// the user copied in the interim is never clobbered; the pre-injection
// clipboard content is restored instead of leaving it empty when it is
// known.
package inject

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Method selects the injection strategy. The set is closed and chosen
// at configuration-load time.
type Method string

const (
	// MethodType simulates individual keystrokes for each character.
	MethodType Method = "type"
	// MethodPaste writes to the clipboard and simulates a paste chord.
	MethodPaste Method = "paste"
)

// hooks abstracts the OS-level keyboard and clipboard primitives so
// tests can run without a display server.
type hooks interface {
	TypeStr(text string) error
	KeyTap(key string, mods ...string) error
	ReadAll() (string, error)
	WriteAll(text string) error
}

// Injector handles typing or pasting text into the active application.
type Injector struct {
	method      Method
	pasteMods   []string
	clearEnable bool
	clearDelay  time.Duration
	settle      time.Duration
	hooks       hooks
	log         zerolog.Logger

	mu         sync.Mutex
	clearTimer *time.Timer
}

// Option tweaks injector construction.
type Option func(*Injector)

// withHooks swaps the OS primitives; used by tests.
func withHooks(h hooks) Option {
	return func(inj *Injector) { inj.hooks = h }
}

// withSettleDelay overrides the focus-settling pause before a paste.
func withSettleDelay(d time.Duration) Option {
	return func(inj *Injector) { inj.settle = d }
}

// New creates an Injector. pasteMode is "ctrl" or "ctrl+shift" and
// selects the paste chord; clearDelay applies only when clipboard
// clearing is enabled.
func New(method Method, pasteMode string, clipboardClear bool, clearDelay time.Duration, log zerolog.Logger, opts ...Option) *Injector {
	mods := []string{"ctrl"}
	if pasteMode == "ctrl+shift" {
		mods = []string{"ctrl", "shift"}
	}

	inj := &Injector{
		method:      method,
		pasteMods:   mods,
		clearEnable: clipboardClear,
		clearDelay:  clearDelay,
		settle:      120 * time.Millisecond,
		hooks:       robotgoHooks{},
		log:         log,
	}
	for _, opt := range opts {
		opt(inj)
	}
	return inj
}

// Inject sends text to the active application using the configured
// method. Empty text is a no-op. On failure the session is discarded
// by the caller; there is no retry, since replaying blind keystrokes
// risks duplicated or corrupted input.
func (inj *Injector) Inject(text string) error {
	if text == "" {
		return nil
	}

	switch inj.method {
	case MethodPaste:
		return inj.paste(text)
	default:
		return inj.typeText(text)
	}
}

// typeText simulates individual keystrokes. Slower for long text but
// leaves the clipboard untouched. Handles code points beyond ASCII.
func (inj *Injector) typeText(text string) error {
	if err := inj.hooks.TypeStr(text); err != nil {
		return fmt.Errorf("inject: type: %w", err)
	}
	return nil
}

// paste copies text to the clipboard and simulates the paste chord.
func (inj *Injector) paste(text string) error {
	prev, prevErr := inj.hooks.ReadAll()

	if err := inj.hooks.WriteAll(text); err != nil {
		return fmt.Errorf("inject: write to clipboard: %w", err)
	}

	// Let the focused application observe the clipboard update before
	// the chord arrives.
	time.Sleep(inj.settle)

	if err := inj.hooks.KeyTap("v", inj.pasteMods...); err != nil {
		return fmt.Errorf("inject: paste chord: %w", err)
	}

	if inj.clearEnable {
		restore := ""
		if prevErr == nil {
			restore = prev
		}
		inj.scheduleClear(text, restore)
	}

	return nil
}

// scheduleClear arms a detached timer that clears the clipboard after
// the configured delay. A new injection re-arms the timer, so the last
// writer wins. The timer verifies the clipboard still holds the text
// it wrote before touching it.
func (inj *Injector) scheduleClear(injected, restore string) {
	inj.mu.Lock()
	if inj.clearTimer != nil {
		inj.clearTimer.Stop()
	}
	inj.clearTimer = time.AfterFunc(inj.clearDelay, func() {
		cur, err := inj.hooks.ReadAll()
		if err != nil {
			inj.log.Debug().Err(err).Msg("clipboard read before clear failed")
			return
		}
		if cur != injected {
			inj.log.Debug().Msg("clipboard changed since injection, leaving it alone")
			return
		}
		if err := inj.hooks.WriteAll(restore); err != nil {
			inj.log.Debug().Err(err).Msg("clipboard clear failed")
			return
		}
		inj.log.Debug().Msg("clipboard cleared")
	})
	inj.mu.Unlock()
}
