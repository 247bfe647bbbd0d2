package strafe

import (
	"math"
	"testing"
	"time"

	"github.com/verte-zerg/strafe/internal/model"
)

var base = time.Unix(1700000000, 0)

func at(ms float64) time.Time {
	return base.Add(time.Duration(ms * float64(time.Millisecond)))
}

func run(t *testing.T, opts Options, events []Event) (Session, []Outcome) {
	t.Helper()
	var s Session
	var outs []Outcome
	for _, ev := range events {
		var out Outcome
		s, out = s.Step(ev, opts)
		outs = append(outs, out)
	}
	return s, outs
}

func results(outs []Outcome) []model.AttemptResult {
	var res []model.AttemptResult
	for _, o := range outs {
		if o.Result != nil {
			res = append(res, *o.Result)
		}
	}
	return res
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestCounterStrafeThenClickIsPerfect(t *testing.T) {
	s, outs := run(t, Options{MaxHoldMs: 1000}, []Event{
		{Kind: KeyPress, Key: model.Left, At: at(0)},
		{Kind: KeyRelease, Key: model.Left, At: at(5)},
		{Kind: KeyPress, Key: model.Right, At: at(5)},
		{Kind: Click, At: at(85)},
	})
	res := results(outs)
	if len(res) != 1 {
		t.Fatalf("expected 1 result, got %d", len(res))
	}
	if !approx(res[0].MsSincePress, 80) {
		t.Fatalf("expected 80ms, got %v", res[0].MsSincePress)
	}
	if res[0].Classification != model.Perfect {
		t.Fatalf("expected perfect, got %v", res[0].Classification)
	}
	if res[0].Direction != model.Right {
		t.Fatalf("expected right direction, got %v", res[0].Direction)
	}
	if res[0].MsSinceRelease != nil {
		t.Fatalf("expected no release for the counter-strafe key")
	}
	if !outs[2].TrackingStarted || !outs[2].PressedAt.Equal(at(5)) {
		t.Fatalf("expected tracking to start on the right press: %+v", outs[2])
	}
	if s.AwaitingShot() {
		t.Fatalf("expected sequence cleared after click")
	}
	if dir, ok := s.LastDirection(); !ok || dir != model.Right {
		t.Fatalf("expected last direction to survive the click")
	}
}

func TestKeyRepeatThenSlowShotIsPoorAndHeldTooLong(t *testing.T) {
	_, outs := run(t, Options{MaxHoldMs: 60}, []Event{
		{Kind: KeyPress, Key: model.Left, At: at(0)},
		{Kind: KeyPress, Key: model.Left, At: at(0)},
		{Kind: KeyPress, Key: model.Right, At: at(10)},
		{Kind: Click, At: at(260)},
	})
	if outs[1].TrackingStarted {
		t.Fatalf("repeat press must not start tracking")
	}
	res := results(outs)
	if len(res) != 1 {
		t.Fatalf("expected 1 result, got %d", len(res))
	}
	if res[0].Classification != model.Poor {
		t.Fatalf("expected poor, got %v", res[0].Classification)
	}
	if !res[0].HeldTooLong {
		t.Fatalf("expected held too long")
	}
}

func TestClickWithoutSequenceIsIgnored(t *testing.T) {
	s, outs := run(t, Options{MaxHoldMs: 60}, []Event{
		{Kind: Click, At: at(0)},
		{Kind: KeyPress, Key: model.Left, At: at(10)},
		{Kind: Click, At: at(50)},
	})
	if len(results(outs)) != 0 {
		t.Fatalf("expected no results")
	}
	if s.AwaitingShot() {
		t.Fatalf("expected no active sequence")
	}
}

func TestOppositeRepressRestartsTiming(t *testing.T) {
	_, outs := run(t, Options{MaxHoldMs: 1000}, []Event{
		{Kind: KeyPress, Key: model.Left, At: at(0)},
		{Kind: KeyPress, Key: model.Right, At: at(10)},
		{Kind: KeyPress, Key: model.Left, At: at(20)},
		{Kind: Click, At: at(120)},
	})
	res := results(outs)
	if len(res) != 1 {
		t.Fatalf("expected 1 result, got %d", len(res))
	}
	if !approx(res[0].MsSincePress, 100) || res[0].Direction != model.Left {
		t.Fatalf("expected last press to win: %+v", res[0])
	}
}

func TestCounterKeyReleaseIsRecorded(t *testing.T) {
	s, outs := run(t, Options{MaxHoldMs: 1000}, []Event{
		{Kind: KeyPress, Key: model.Left, At: at(0)},
		{Kind: KeyPress, Key: model.Right, At: at(10)},
		{Kind: KeyRelease, Key: model.Left, At: at(15)},
		{Kind: KeyRelease, Key: model.Right, At: at(40)},
		{Kind: Click, At: at(90)},
	})
	if s.Held(model.Left) || s.Held(model.Right) {
		t.Fatalf("expected no keys held")
	}
	res := results(outs)
	if len(res) != 1 || res[0].MsSinceRelease == nil {
		t.Fatalf("expected result with release time: %+v", res)
	}
	if !approx(*res[0].MsSinceRelease, 50) {
		t.Fatalf("expected 50ms since release, got %v", *res[0].MsSinceRelease)
	}
	off, ok := res[0].ReleaseOffsetMs()
	if !ok || !approx(off, 30) {
		t.Fatalf("expected release offset 30ms, got %v", off)
	}
}

func TestFirstCounterKeyReleaseWins(t *testing.T) {
	s, _ := run(t, Options{MaxHoldMs: 1000}, []Event{
		{Kind: KeyPress, Key: model.Left, At: at(0)},
		{Kind: KeyPress, Key: model.Right, At: at(10)},
		{Kind: KeyRelease, Key: model.Right, At: at(30)},
		{Kind: KeyRelease, Key: model.Right, At: at(60)},
	})
	rel, ok := s.ReleasedAt()
	if !ok || !rel.Equal(at(30)) {
		t.Fatalf("expected release at 30ms, got %v (%v)", rel, ok)
	}
}

func TestPreviousKeyReleaseIsIgnored(t *testing.T) {
	_, outs := run(t, Options{MaxHoldMs: 1000}, []Event{
		{Kind: KeyPress, Key: model.Left, At: at(0)},
		{Kind: KeyPress, Key: model.Right, At: at(10)},
		{Kind: KeyRelease, Key: model.Left, At: at(15)},
		{Kind: Click, At: at(90)},
	})
	res := results(outs)
	if len(res) != 1 || res[0].MsSinceRelease != nil {
		t.Fatalf("expected no release recorded: %+v", res)
	}
}

func TestHoldFromReleaseWithOverlappingKeys(t *testing.T) {
	_, outs := run(t, Options{MaxHoldMs: 60, HoldFromRelease: true}, []Event{
		{Kind: KeyPress, Key: model.Left, At: at(0)},
		{Kind: KeyPress, Key: model.Right, At: at(10)},
		{Kind: KeyRelease, Key: model.Left, At: at(12)},
		{Kind: KeyRelease, Key: model.Right, At: at(90)},
		{Kind: Click, At: at(100)},
	})
	res := results(outs)
	if len(res) != 1 {
		t.Fatalf("expected 1 result, got %d", len(res))
	}
	off, ok := res[0].ReleaseOffsetMs()
	if !ok || !approx(off, 80) {
		t.Fatalf("expected counter key held 80ms, got %v", off)
	}
	if !res[0].HeldTooLong {
		t.Fatalf("expected 80ms hold to exceed 60ms")
	}
}

func TestHoldFromReleaseMeasuresPressToRelease(t *testing.T) {
	events := []Event{
		{Kind: KeyPress, Key: model.Left, At: at(0)},
		{Kind: KeyRelease, Key: model.Left, At: at(2)},
		{Kind: KeyPress, Key: model.Right, At: at(5)},
		{Kind: KeyRelease, Key: model.Right, At: at(35)},
		{Kind: Click, At: at(105)},
	}
	_, outs := run(t, Options{MaxHoldMs: 60}, events)
	if res := results(outs); !res[0].HeldTooLong {
		t.Fatalf("expected press-to-shot metric to flag 100ms")
	}
	_, outs = run(t, Options{MaxHoldMs: 60, HoldFromRelease: true}, events)
	res := results(outs)
	if res[0].HeldTooLong {
		t.Fatalf("expected 30ms hold to pass")
	}
	if res[0].Classification != model.Perfect {
		t.Fatalf("expected perfect, got %v", res[0].Classification)
	}
}

func TestNextOppositePressStartsNewAttempt(t *testing.T) {
	_, outs := run(t, Options{MaxHoldMs: 1000}, []Event{
		{Kind: KeyPress, Key: model.Left, At: at(0)},
		{Kind: KeyPress, Key: model.Right, At: at(10)},
		{Kind: Click, At: at(90)},
		{Kind: KeyPress, Key: model.Left, At: at(200)},
		{Kind: Click, At: at(240)},
	})
	res := results(outs)
	if len(res) != 2 {
		t.Fatalf("expected 2 results, got %d", len(res))
	}
	if res[1].Classification != model.Early {
		t.Fatalf("expected early, got %v", res[1].Classification)
	}
}

func TestClearSequenceKeepsDirection(t *testing.T) {
	s, _ := run(t, Options{MaxHoldMs: 60}, []Event{
		{Kind: KeyPress, Key: model.Left, At: at(0)},
		{Kind: KeyPress, Key: model.Right, At: at(10)},
	})
	if _, ok := s.PressedAt(); !ok {
		t.Fatalf("expected active press")
	}
	s = s.ClearSequence()
	if s.AwaitingShot() {
		t.Fatalf("expected sequence cleared")
	}
	if _, ok := s.PressedAt(); ok {
		t.Fatalf("expected no press time")
	}
	if dir, ok := s.LastDirection(); !ok || dir != model.Right {
		t.Fatalf("expected last direction kept")
	}
}
