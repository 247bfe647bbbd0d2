// Package input captures global keyboard and mouse events.
//
// Platform support:
//   - Windows: low-level hooks (SetWindowsHookEx) on a dedicated OS thread
//   - Linux: /dev/input/event* readers (requires the input group or root)
//   - elsewhere: Start returns ErrUnsupported
package input

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Kind identifies an input event.
type Kind int

const (
	KeyDown Kind = iota
	KeyUp
	MouseButton
)

// Button is a mouse button.
type Button int

const (
	ButtonLeft Button = iota + 1
	ButtonRight
	ButtonMiddle
)

// Key is a normalized key name such as "A", "D" or "ESC".
type Key string

// Event is a single keyboard or mouse event. Key-repeat is delivered as
// another KeyDown.
type Event struct {
	Kind    Kind
	Key     Key
	Button  Button
	Pressed bool
	At      time.Time
}

// Source delivers global input events.
type Source interface {
	// Start installs the hooks. It fails when no events could ever be
	// delivered.
	Start(ctx context.Context) error

	// Stop removes the hooks and closes the events channel.
	Stop() error

	// Events returns the event stream.
	Events() <-chan Event
}

var (
	// ErrUnsupported is returned when global input capture isn't available.
	ErrUnsupported = errors.New("global input capture not supported on this platform")

	// ErrAlreadyRunning is returned by Start on a running source.
	ErrAlreadyRunning = errors.New("input source already running")
)

const eventBuffer = 256

var knownKeys = func() map[Key]struct{} {
	keys := map[Key]struct{}{}
	for c := 'A'; c <= 'Z'; c++ {
		keys[Key(string(c))] = struct{}{}
	}
	for c := '0'; c <= '9'; c++ {
		keys[Key(string(c))] = struct{}{}
	}
	for i := 1; i <= 12; i++ {
		keys[Key(fmt.Sprintf("F%d", i))] = struct{}{}
	}
	for _, name := range []string{
		"ESC", "SPACE", "ENTER", "TAB", "BACKSPACE", "CAPSLOCK",
		"SHIFT", "CTRL", "ALT",
		"LEFT", "RIGHT", "UP", "DOWN",
		"HOME", "END", "PAGEUP", "PAGEDOWN", "INSERT", "DELETE", "PAUSE",
	} {
		keys[Key(name)] = struct{}{}
	}
	return keys
}()

// ParseKey normalizes a key name and checks it is one the hooks can report.
func ParseKey(name string) (Key, error) {
	key := Key(strings.ToUpper(strings.TrimSpace(name)))
	if key == "ESCAPE" {
		key = "ESC"
	}
	if _, ok := knownKeys[key]; !ok {
		return "", fmt.Errorf("unknown key %q (see: strafe keys)", name)
	}
	return key, nil
}

// KnownKeys returns every accepted key name, sorted.
func KnownKeys() []Key {
	out := make([]Key, 0, len(knownKeys))
	for k := range knownKeys {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) < len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}

// NewHook returns the global hook for the current platform. devices lists
// Linux evdev paths; it is ignored elsewhere and autodetected when empty.
func NewHook(devices []string) Source {
	return newPlatformHook(devices)
}

// send delivers ev without blocking the hook thread. A full buffer drops the
// event.
func send(ch chan<- Event, ev Event) {
	select {
	case ch <- ev:
	default:
	}
}
