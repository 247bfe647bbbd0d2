// Package trainer wires the strafe detector and session statistics behind a
// single lock so keyboard and mouse hook threads can feed it concurrently.
package trainer

import (
	"context"
	"sync"
	"time"

	"github.com/verte-zerg/strafe/internal/input"
	"github.com/verte-zerg/strafe/internal/model"
	"github.com/verte-zerg/strafe/internal/stats"
	"github.com/verte-zerg/strafe/internal/strafe"
)

// Keymap binds the movement keys and the pause toggle.
type Keymap struct {
	Left   input.Key
	Right  input.Key
	Toggle input.Key
}

// DefaultKeymap is A/D with ESC toggling pause.
func DefaultKeymap() Keymap {
	return Keymap{Left: "A", Right: "D", Toggle: "ESC"}
}

// Snapshot is a consistent copy of the trainer state.
type Snapshot struct {
	Paused          bool
	AwaitingShot    bool
	Direction       model.MovementKey
	PressedAt       time.Time
	Stats           stats.SessionStats
	MaxHoldMs       float64
	HoldFromRelease bool
}

// Trainer consumes input events and publishes attempts.
type Trainer struct {
	mu         sync.Mutex
	keys       Keymap
	options    strafe.Options
	session    strafe.Session
	stats      stats.SessionStats
	paused     bool
	// toggleDown suppresses OS auto-repeat of the toggle key.
	toggleDown bool
	events     []chan Event
	closed     bool
}

// New creates a Trainer. A non-positive MaxHoldMs falls back to the default.
func New(keys Keymap, options strafe.Options) *Trainer {
	if options.MaxHoldMs <= 0 {
		options.MaxHoldMs = model.DefaultMaxHoldMs
	}
	return &Trainer{keys: keys, options: options}
}

// Subscribe registers a new observer channel. Events are dropped for an
// observer whose buffer is full.
func (t *Trainer) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	t.mu.Lock()
	if t.closed {
		close(ch)
	} else {
		t.events = append(t.events, ch)
	}
	t.mu.Unlock()
	return ch
}

// Close closes all observer channels.
func (t *Trainer) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	events := t.events
	t.events = nil
	t.mu.Unlock()

	for _, ch := range events {
		close(ch)
	}
}

// Run funnels src into the trainer until ctx is done or src is closed.
func (t *Trainer) Run(ctx context.Context, src <-chan input.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-src:
			if !ok {
				return
			}
			t.Handle(ev)
		}
	}
}

// Handle dispatches a raw input event.
func (t *Trainer) Handle(ev input.Event) {
	switch ev.Kind {
	case input.KeyDown:
		t.OnKeyPress(ev.Key, ev.At)
	case input.KeyUp:
		t.OnKeyRelease(ev.Key, ev.At)
	case input.MouseButton:
		t.OnMouseClick(ev.Button, ev.Pressed, ev.At)
	}
}

// OnKeyPress handles a key press. The toggle key is processed even while
// paused; repeats while it stays down are ignored.
func (t *Trainer) OnKeyPress(key input.Key, at time.Time) {
	if key == t.keys.Toggle {
		t.mu.Lock()
		repeat := t.toggleDown
		t.toggleDown = true
		t.mu.Unlock()
		if !repeat {
			t.TogglePause()
		}
		return
	}
	dir, ok := t.movementKey(key)
	if !ok {
		return
	}
	t.step(strafe.Event{Kind: strafe.KeyPress, Key: dir, At: at})
}

// OnKeyRelease handles a key release.
func (t *Trainer) OnKeyRelease(key input.Key, at time.Time) {
	if key == t.keys.Toggle {
		t.mu.Lock()
		t.toggleDown = false
		t.mu.Unlock()
		return
	}
	dir, ok := t.movementKey(key)
	if !ok {
		return
	}
	t.step(strafe.Event{Kind: strafe.KeyRelease, Key: dir, At: at})
}

// OnMouseClick handles a mouse button transition. Only left presses shoot.
func (t *Trainer) OnMouseClick(button input.Button, pressed bool, at time.Time) {
	if button != input.ButtonLeft || !pressed {
		return
	}
	t.step(strafe.Event{Kind: strafe.Click, At: at})
}

// TogglePause flips the pause state.
func (t *Trainer) TogglePause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.paused = !t.paused
	eventType := EventResumed
	if t.paused {
		eventType = EventPaused
	}
	t.emitLocked(Event{Type: eventType, Stats: t.stats, MaxHoldMs: t.options.MaxHoldMs, At: time.Now()})
}

// ResetStats clears the statistics and any tracked sequence.
func (t *Trainer) ResetStats() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.Reset()
	t.session = t.session.ClearSequence()
	t.emitLocked(Event{Type: EventReset, Stats: t.stats, MaxHoldMs: t.options.MaxHoldMs, At: time.Now()})
}

// SetMaxHoldMs changes the held-too-long threshold for later attempts.
// Non-positive values are ignored.
func (t *Trainer) SetMaxHoldMs(ms float64) {
	if ms <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.options.MaxHoldMs = ms
	t.emitLocked(Event{Type: EventConfigChanged, Stats: t.stats, MaxHoldMs: ms, At: time.Now()})
}

// Snapshot returns a copy of the current state.
func (t *Trainer) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	pressedAt, awaiting := t.session.PressedAt()
	dir, _ := t.session.LastDirection()
	return Snapshot{
		Paused:          t.paused,
		AwaitingShot:    awaiting,
		Direction:       dir,
		PressedAt:       pressedAt,
		Stats:           t.stats,
		MaxHoldMs:       t.options.MaxHoldMs,
		HoldFromRelease: t.options.HoldFromRelease,
	}
}

func (t *Trainer) movementKey(key input.Key) (model.MovementKey, bool) {
	switch key {
	case t.keys.Left:
		return model.Left, true
	case t.keys.Right:
		return model.Right, true
	default:
		return 0, false
	}
}

func (t *Trainer) step(ev strafe.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.paused {
		return
	}
	next, out := t.session.Step(ev, t.options)
	t.session = next

	if out.TrackingStarted {
		t.emitLocked(Event{
			Type:      EventTrackingStarted,
			Direction: out.Direction,
			PressedAt: out.PressedAt,
			Stats:     t.stats,
			MaxHoldMs: t.options.MaxHoldMs,
			At:        ev.At,
		})
	}
	if out.Result != nil {
		t.stats.Record(*out.Result)
		t.emitLocked(Event{
			Type:      EventAttempt,
			Direction: out.Result.Direction,
			PressedAt: out.Result.PressedAt,
			Result:    *out.Result,
			Stats:     t.stats,
			MaxHoldMs: t.options.MaxHoldMs,
			At:        ev.At,
		})
	}
}

func (t *Trainer) emitLocked(event Event) {
	for _, ch := range t.events {
		select {
		case ch <- event:
		default:
		}
	}
}
