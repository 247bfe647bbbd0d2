package trainer

import (
	"time"

	"github.com/verte-zerg/strafe/internal/model"
	"github.com/verte-zerg/strafe/internal/stats"
)

// EventType defines the type of Trainer event.
type EventType string

const (
	EventTrackingStarted EventType = "tracking_started"
	EventAttempt         EventType = "attempt"
	EventPaused          EventType = "paused"
	EventResumed         EventType = "resumed"
	EventReset           EventType = "reset"
	EventConfigChanged   EventType = "config_changed"
)

// Event is an immutable Trainer update for observers.
type Event struct {
	Type      EventType
	Direction model.MovementKey
	PressedAt time.Time
	Result    model.AttemptResult
	Stats     stats.SessionStats
	MaxHoldMs float64
	At        time.Time
}
