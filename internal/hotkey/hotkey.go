// Package hotkey turns global key-combination presses into toggle
// events using gohook. Every detection emits one Toggle; deciding
// whether a toggle is valid for the current session state is the
// orchestrator's job, not this package's.
package hotkey

import (
	"fmt"
	"strings"
	"sync"

	hook "github.com/robotn/gohook"
)

// Toggle is emitted on the channel returned by Events each time the
// configured combination is pressed.
type Toggle struct{}

// Listener watches for a global hotkey and emits toggle events.
type Listener struct {
	keys []string
	ch   chan Toggle
	done chan struct{}
	once sync.Once
}

// aliases maps spelling variants from the config file onto the key
// names gohook understands.
var aliases = map[string]string{
	"win":      "cmd",
	"super":    "cmd",
	"meta":     "cmd",
	"command":  "cmd",
	"control":  "ctrl",
	"option":   "alt",
	"return":   "enter",
	"esc":      "escape",
	"spacebar": "space",
}

// ParseShortcut converts a shortcut spec like "win+alt+d" into the
// lowercase key names gohook expects.
func ParseShortcut(spec string) ([]string, error) {
	parts := strings.Split(spec, "+")
	keys := make([]string, 0, len(parts))
	for _, part := range parts {
		key := strings.ToLower(strings.TrimSpace(part))
		if key == "" {
			return nil, fmt.Errorf("hotkey: empty key in shortcut %q", spec)
		}
		if alias, ok := aliases[key]; ok {
			key = alias
		}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("hotkey: empty shortcut")
	}
	return keys, nil
}

// NewListener creates a Listener for the given shortcut spec.
func NewListener(spec string) (*Listener, error) {
	keys, err := ParseShortcut(spec)
	if err != nil {
		return nil, err
	}
	return &Listener{
		keys: keys,
		ch:   make(chan Toggle, 16),
		done: make(chan struct{}),
	}, nil
}

// Keys returns the parsed key names, for logging.
func (l *Listener) Keys() []string {
	return l.keys
}

// Events returns the channel that receives toggle events.
// The channel is closed when the listener stops.
func (l *Listener) Events() <-chan Toggle {
	return l.ch
}

// Start begins listening for the global hotkey. Each press of the
// combination emits one Toggle. This function blocks until Stop is
// called; run it in a goroutine.
func (l *Listener) Start() {
	hook.Register(hook.KeyDown, l.keys, func(e hook.Event) {
		select {
		case l.ch <- Toggle{}:
		default: // don't block the OS hook if the channel is full
		}
	})

	evChan := hook.Start()
	go func() {
		<-l.done
		hook.End()
	}()
	<-hook.Process(evChan)
	close(l.ch)
}

// Stop terminates the hotkey listener.
// It is safe to call multiple times.
func (l *Listener) Stop() {
	l.once.Do(func() {
		close(l.done)
	})
}
