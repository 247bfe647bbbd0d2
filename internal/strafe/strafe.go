// Package strafe detects counter-strafes from movement key and click events
// and measures the time from the counter-strafe press to the shot.
//
// A counter-strafe is recognized purely from directional alternation: a
// press of the key opposite to the most recently pressed movement key. The
// previous key does not have to be released first, which keeps the detector
// tolerant of hook deliveries where the release arrives after the next press.
package strafe

import (
	"time"

	"github.com/verte-zerg/strafe/internal/model"
	"github.com/verte-zerg/strafe/internal/scoring"
)

// EventKind identifies a detector input.
type EventKind int

const (
	KeyPress EventKind = iota
	KeyRelease
	Click
)

// Event is a movement key transition or a left click.
type Event struct {
	Kind EventKind
	Key  model.MovementKey
	At   time.Time
}

// Options tune how an attempt is scored.
type Options struct {
	MaxHoldMs float64
	// HoldFromRelease measures the hold as press-to-release when a release
	// was seen, instead of press-to-shot.
	HoldFromRelease bool
}

// Session is the detector state. It is a plain value: Step returns the next
// state and callers decide where it lives.
type Session struct {
	held          [2]bool
	hasLast       bool
	lastDirection model.MovementKey
	direction     model.MovementKey
	pressTime     time.Time
	releaseTime   time.Time
	awaitingShot  bool
}

// Outcome reports what a Step produced besides the new state.
type Outcome struct {
	TrackingStarted bool
	Direction       model.MovementKey
	PressedAt       time.Time
	Result          *model.AttemptResult
}

// Step applies one event and returns the resulting session.
func (s Session) Step(ev Event, opts Options) (Session, Outcome) {
	switch ev.Kind {
	case KeyPress:
		return s.press(ev.Key, ev.At)
	case KeyRelease:
		return s.release(ev.Key, ev.At), Outcome{}
	case Click:
		return s.click(ev.At, opts)
	default:
		return s, Outcome{}
	}
}

func (s Session) press(k model.MovementKey, at time.Time) (Session, Outcome) {
	s.held[k] = true
	var out Outcome
	if s.hasLast && k == s.lastDirection.Opposite() {
		// Last press wins when the opposite key is tapped again mid-attempt.
		s.direction = k
		s.pressTime = at
		s.releaseTime = time.Time{}
		s.awaitingShot = true
		out = Outcome{TrackingStarted: true, Direction: k, PressedAt: at}
	}
	s.lastDirection = k
	s.hasLast = true
	return s, out
}

// release records only the counter-strafe key's own release. Letting go of
// the previous direction key after the counter press does not count.
func (s Session) release(k model.MovementKey, at time.Time) Session {
	s.held[k] = false
	if k == s.direction && s.awaitingShot && !s.pressTime.IsZero() && s.releaseTime.IsZero() {
		s.releaseTime = at
	}
	return s
}

func (s Session) click(at time.Time, opts Options) (Session, Outcome) {
	if !s.awaitingShot || s.pressTime.IsZero() {
		return s, Outcome{}
	}

	msSincePress := msBetween(s.pressTime, at)
	var msSinceRelease *float64
	var holdMs *float64
	if !s.releaseTime.IsZero() {
		v := msBetween(s.releaseTime, at)
		msSinceRelease = &v
		if opts.HoldFromRelease {
			h := msBetween(s.pressTime, s.releaseTime)
			holdMs = &h
		}
	}
	class, heldTooLong := scoring.Classify(msSincePress, opts.MaxHoldMs, holdMs)

	result := &model.AttemptResult{
		Direction:      s.direction,
		PressedAt:      s.pressTime,
		ShotAt:         at,
		MsSincePress:   msSincePress,
		MsSinceRelease: msSinceRelease,
		HeldTooLong:    heldTooLong,
		Classification: class,
	}
	return s.ClearSequence(), Outcome{Result: result}
}

// ClearSequence drops the tracked attempt. The last direction and held keys
// are kept so the next opposite press starts a new attempt right away.
func (s Session) ClearSequence() Session {
	s.pressTime = time.Time{}
	s.releaseTime = time.Time{}
	s.awaitingShot = false
	return s
}

// AwaitingShot reports whether a counter-strafe is waiting for a click.
func (s Session) AwaitingShot() bool {
	return s.awaitingShot
}

// PressedAt returns the counter-strafe press time of the tracked attempt.
func (s Session) PressedAt() (time.Time, bool) {
	return s.pressTime, s.awaitingShot && !s.pressTime.IsZero()
}

// ReleasedAt returns when the counter-strafe key was released, if it was.
func (s Session) ReleasedAt() (time.Time, bool) {
	return s.releaseTime, !s.releaseTime.IsZero()
}

// LastDirection returns the most recently pressed movement key.
func (s Session) LastDirection() (model.MovementKey, bool) {
	return s.lastDirection, s.hasLast
}

// Held reports whether k is currently down.
func (s Session) Held(k model.MovementKey) bool {
	return s.held[k]
}

func msBetween(from, to time.Time) float64 {
	return float64(to.Sub(from)) / float64(time.Millisecond)
}
