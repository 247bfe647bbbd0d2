package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/strafe/internal/input"
	"github.com/verte-zerg/strafe/internal/scoring"
	"github.com/verte-zerg/strafe/internal/strafe"
	"github.com/verte-zerg/strafe/internal/trainer"
)

type recordingPlayer struct {
	cues []scoring.Cue
}

func (p *recordingPlayer) Play(cue scoring.Cue) {
	p.cues = append(p.cues, cue)
}

func newTestModel(t *testing.T, now *time.Time) (*Model, *trainer.Trainer, *recordingPlayer) {
	t.Helper()
	tr := trainer.New(trainer.DefaultKeymap(), strafe.Options{MaxHoldMs: 150})
	t.Cleanup(tr.Close)
	player := &recordingPlayer{}
	m := NewModel(tr, Options{
		Keys:   trainer.DefaultKeymap(),
		Player: player,
		Now:    func() time.Time { return *now },
	})
	return m, tr, player
}

func nextEvent(t *testing.T, m *Model) eventMsg {
	t.Helper()
	select {
	case ev := <-m.events:
		return eventMsg(ev)
	case <-time.After(time.Second):
		t.Fatalf("expected trainer event")
	}
	return eventMsg{}
}

func TestTrackingStartsRedrawAndAttemptStopsIt(t *testing.T) {
	base := time.Unix(1000, 0)
	now := base
	m, tr, player := newTestModel(t, &now)

	tr.OnKeyPress("A", base)
	tr.OnKeyPress("D", base.Add(10*time.Millisecond))

	_, cmd := m.Update(nextEvent(t, m))
	if cmd == nil {
		t.Fatalf("expected follow-up commands after tracking event")
	}
	if !m.tracking {
		t.Fatalf("expected tracking state")
	}
	if m.feedback != "Counter-strafing with D... hold it!" {
		t.Fatalf("unexpected feedback: %q", m.feedback)
	}
	handle := m.redraw.active
	if handle == 0 {
		t.Fatalf("expected live redraw handle")
	}

	now = base.Add(55 * time.Millisecond)
	_, cmd = m.Update(redrawMsg{handle: handle})
	if cmd == nil {
		t.Fatalf("expected redraw to reschedule while awaiting a shot")
	}
	if m.liveMs != 45 {
		t.Fatalf("expected live 45ms, got %.1f", m.liveMs)
	}

	tr.OnMouseClick(input.ButtonLeft, true, base.Add(90*time.Millisecond))
	m.Update(nextEvent(t, m))
	if m.tracking {
		t.Fatalf("expected tracking to stop after attempt")
	}
	if m.redraw.active != 0 {
		t.Fatalf("expected redraw handle cancelled")
	}
	if m.feedback != "PERFECT! 80ms" {
		t.Fatalf("unexpected verdict: %q", m.feedback)
	}
	if m.borderColor != scoring.ColorPerfect {
		t.Fatalf("unexpected border color: %s", m.borderColor)
	}
	if len(player.cues) != 1 || player.cues[0] != scoring.CuePerfect {
		t.Fatalf("unexpected cues: %v", player.cues)
	}
	if m.stats.Counts.Perfect != 1 {
		t.Fatalf("expected stats to follow the event, got %+v", m.stats.Counts)
	}
}

func TestStaleRedrawIsIgnored(t *testing.T) {
	now := time.Unix(1000, 0)
	m, _, _ := newTestModel(t, &now)

	m.redraw.schedule(redrawInterval)
	stale := m.redraw.active
	m.redraw.schedule(redrawInterval)

	if _, cmd := m.Update(redrawMsg{handle: stale}); cmd != nil {
		t.Fatalf("expected stale redraw to be ignored")
	}
	m.redraw.cancel()
	if m.redraw.live(stale + 1) {
		t.Fatalf("expected cancelled handle to be dead")
	}
}

func TestRedrawStopsWhenNoShotAwaited(t *testing.T) {
	now := time.Unix(1000, 0)
	m, _, _ := newTestModel(t, &now)
	m.tracking = true
	m.redraw.schedule(redrawInterval)

	if _, cmd := m.Update(redrawMsg{handle: m.redraw.active}); cmd != nil {
		t.Fatalf("expected no reschedule without a tracked sequence")
	}
	if m.tracking || m.redraw.active != 0 {
		t.Fatalf("expected redraw to be cancelled")
	}
}

func TestResetKeyClearsStats(t *testing.T) {
	base := time.Unix(1000, 0)
	now := base
	m, tr, _ := newTestModel(t, &now)

	tr.OnKeyPress("A", base)
	tr.OnKeyPress("D", base.Add(time.Millisecond))
	tr.OnMouseClick(input.ButtonLeft, true, base.Add(301*time.Millisecond))
	m.Update(nextEvent(t, m))
	m.Update(nextEvent(t, m))
	if m.stats.Counts.Poor != 1 {
		t.Fatalf("expected one poor attempt, got %+v", m.stats.Counts)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	m.Update(nextEvent(t, m))
	if m.stats.Counts.Total != 0 {
		t.Fatalf("expected stats reset, got %+v", m.stats.Counts)
	}
	if m.feedback != "Stats reset! Ready to train." {
		t.Fatalf("unexpected feedback: %q", m.feedback)
	}
	if m.last != nil {
		t.Fatalf("expected last attempt cleared")
	}
}

func TestMaxHoldKeysAdjustTrainer(t *testing.T) {
	now := time.Unix(1000, 0)
	m, tr, _ := newTestModel(t, &now)

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("+")})
	if got := tr.Snapshot().MaxHoldMs; got != 160 {
		t.Fatalf("expected 160ms, got %.0f", got)
	}
	for i := 0; i < 20; i++ {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("-")})
	}
	if got := tr.Snapshot().MaxHoldMs; got != minMaxHoldMs {
		t.Fatalf("expected floor %.0fms, got %.0f", minMaxHoldMs, got)
	}
}

func TestPauseEventUpdatesView(t *testing.T) {
	now := time.Unix(1000, 0)
	m, tr, _ := newTestModel(t, &now)

	tr.OnKeyPress("ESC", now)
	m.Update(nextEvent(t, m))
	out := m.View()
	if !containsAll(out, []string{"Training PAUSED", "Paused", "No strafes recorded yet"}) {
		t.Fatalf("view missing pause state: %s", out)
	}

	tr.OnKeyRelease("ESC", now)
	tr.OnKeyPress("ESC", now)
	m.Update(nextEvent(t, m))
	if m.paused || m.feedback != "Training RESUMED" {
		t.Fatalf("expected resumed state, got paused=%v feedback=%q", m.paused, m.feedback)
	}
}

func TestViewShowsStatsAndSettings(t *testing.T) {
	base := time.Unix(1000, 0)
	now := base
	m, tr, _ := newTestModel(t, &now)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	tr.OnKeyPress("D", base)
	tr.OnKeyPress("A", base.Add(time.Millisecond))
	tr.OnKeyRelease("A", base.Add(41*time.Millisecond))
	tr.OnMouseClick(input.ButtonLeft, true, base.Add(101*time.Millisecond))
	m.Update(nextEvent(t, m))
	m.Update(nextEvent(t, m))

	out := m.View()
	if !containsAll(out, []string{
		"Counter-Strafe Trainer",
		"Last shot: 100ms after counter-strafe (released at 40ms)",
		"Session Stats:",
		"Total Attempts: 1",
		"Max hold 150ms (press to shot)",
		"ESC pause/resume",
		shotGlyph,
		releaseGlyph,
	}) {
		t.Fatalf("view missing expected segments: %s", out)
	}
}

func containsAll(haystack string, needles []string) bool {
	for _, needle := range needles {
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}
