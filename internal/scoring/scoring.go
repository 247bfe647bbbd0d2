// Package scoring classifies counter-strafe timings and derives the verdict
// shown to the player.
package scoring

import (
	"fmt"

	"github.com/verte-zerg/strafe/internal/model"
)

// Zone boundaries in milliseconds from counter-strafe press to shot.
const (
	PerfectMinMs  = 60.0
	PerfectMaxMs  = 110.0
	OkayFastMaxMs = 150.0
	OkayMaxMs     = 200.0

	// DisplayMaxMs is where the timing bar ends; later shots clamp to it.
	DisplayMaxMs = 250.0
)

// Colors used for verdicts and timing bar zones.
const (
	ColorEarly    = "#aaff00"
	ColorPerfect  = "#00ff00"
	ColorOkay     = "#ffaa00"
	ColorPoor     = "#ff4444"
	ColorHold     = "#ff8800"
	ColorTracking = "#00aaff"
	ColorNeutral  = "#555555"
)

// Cue names a sound played for a verdict.
type Cue string

const (
	CueEarly   Cue = "early"
	CuePerfect Cue = "perfect"
	CueOkay    Cue = "ok"
	CuePoor    Cue = "bad"
	CueHold    Cue = "hold"
)

// Verdict is the display form of an attempt.
type Verdict struct {
	Label string
	Color string
	Cue   Cue
}

// Classify maps the press-to-shot interval to a classification and reports
// whether the counter-strafe key was held past maxHoldMs. When holdMs is nil
// the press-to-shot interval stands in for the hold duration.
func Classify(msSincePress, maxHoldMs float64, holdMs *float64) (model.Classification, bool) {
	hold := msSincePress
	if holdMs != nil {
		hold = *holdMs
	}
	heldTooLong := hold > maxHoldMs

	switch {
	case msSincePress < PerfectMinMs:
		return model.Early, heldTooLong
	case msSincePress <= PerfectMaxMs:
		return model.Perfect, heldTooLong
	case msSincePress <= OkayFastMaxMs:
		return model.Okay, heldTooLong
	case msSincePress <= OkayMaxMs:
		return model.Okay, heldTooLong
	default:
		return model.Poor, heldTooLong
	}
}

// VerdictFor returns the label, color and cue for a result. Held-too-long
// overrides the classification's own verdict.
func VerdictFor(r model.AttemptResult) Verdict {
	ms := r.MsSincePress
	if r.HeldTooLong {
		return Verdict{
			Label: fmt.Sprintf("Held too long (%.0fms) - you started moving!", ms),
			Color: ColorHold,
			Cue:   CueHold,
		}
	}
	switch r.Classification {
	case model.Early:
		return Verdict{Label: fmt.Sprintf("Early! %.0fms", ms), Color: ColorEarly, Cue: CueEarly}
	case model.Perfect:
		return Verdict{Label: fmt.Sprintf("PERFECT! %.0fms", ms), Color: ColorPerfect, Cue: CuePerfect}
	case model.Okay:
		return Verdict{Label: fmt.Sprintf("Ok. %.0fms", ms), Color: ColorOkay, Cue: CueOkay}
	default:
		return Verdict{Label: fmt.Sprintf("Too slow. %.0fms", ms), Color: ColorPoor, Cue: CuePoor}
	}
}

// ZoneColor returns the timing bar color for a point on the bar.
func ZoneColor(ms float64) string {
	switch {
	case ms < PerfectMinMs:
		return ColorEarly
	case ms <= PerfectMaxMs:
		return ColorPerfect
	case ms <= OkayMaxMs:
		return ColorOkay
	default:
		return ColorPoor
	}
}
