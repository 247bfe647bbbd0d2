// Package model defines shared data structures.
package model

import "time"

// DefaultMaxHoldMs is the default held-too-long threshold in milliseconds.
const DefaultMaxHoldMs = 60.0

// MovementKey is one of the two opposing strafe directions.
type MovementKey int

const (
	Left MovementKey = iota
	Right
)

// Opposite returns the counter-strafe direction for k.
func (k MovementKey) Opposite() MovementKey {
	if k == Left {
		return Right
	}
	return Left
}

func (k MovementKey) String() string {
	if k == Left {
		return "left"
	}
	return "right"
}

// Classification buckets the press-to-shot interval of an attempt.
type Classification int

const (
	Early Classification = iota
	Perfect
	Okay
	Poor
)

func (c Classification) String() string {
	switch c {
	case Early:
		return "early"
	case Perfect:
		return "perfect"
	case Okay:
		return "okay"
	case Poor:
		return "poor"
	default:
		return "unknown"
	}
}

// AttemptResult is produced once per click that resolves a tracked counter-strafe.
type AttemptResult struct {
	Direction      MovementKey
	PressedAt      time.Time
	ShotAt         time.Time
	MsSincePress   float64
	MsSinceRelease *float64
	HeldTooLong    bool
	Classification Classification
}

// ReleaseOffsetMs returns how long after the press the counter-strafe key was
// released, if it was released before the shot.
func (r AttemptResult) ReleaseOffsetMs() (float64, bool) {
	if r.MsSinceRelease == nil {
		return 0, false
	}
	return r.MsSincePress - *r.MsSinceRelease, true
}

// Config defines trainer settings.
type Config struct {
	MaxHoldMs       float64
	HoldFromRelease bool
	LeftKey         string
	RightKey        string
	ToggleKey       string
	Sound           bool
	Devices         []string
	Plain           bool
}
