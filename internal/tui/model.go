// Package tui provides the Bubble Tea counter-strafe trainer interface.
package tui

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/strafe/internal/model"
	"github.com/verte-zerg/strafe/internal/scoring"
	"github.com/verte-zerg/strafe/internal/sound"
	"github.com/verte-zerg/strafe/internal/stats"
	"github.com/verte-zerg/strafe/internal/trainer"
)

const (
	maxHoldStepMs = 10.0
	minMaxHoldMs  = 10.0
	eventBuffer   = 64
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(scoring.ColorPerfect)).Bold(true)
	timingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	statsStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C8C8C8"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

type eventMsg trainer.Event

type inputClosedMsg struct{}

// Options configures the presentation model.
type Options struct {
	Keys   trainer.Keymap
	Player sound.Player
	Now    func() time.Time
}

// Model renders trainer events and drives the live timing marker.
type Model struct {
	trainer *trainer.Trainer
	events  <-chan trainer.Event
	player  sound.Player
	keymap  trainer.Keymap
	keys    keyMap
	help    help.Model
	redraw  redrawScheduler
	now     func() time.Time

	width     int
	stats     stats.SessionStats
	maxHoldMs float64
	fromRel   bool
	paused    bool
	closed    bool

	feedback      string
	feedbackColor string
	borderColor   string
	lastTiming    string
	tracking      bool
	trackingDir   model.MovementKey
	liveMs        float64
	last          *model.AttemptResult
}

// NewModel subscribes to tr and returns a model ready for tea.NewProgram.
func NewModel(tr *trainer.Trainer, opts Options) *Model {
	if opts.Player == nil {
		opts.Player = sound.Nop{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	snap := tr.Snapshot()
	m := &Model{
		trainer:     tr,
		events:      tr.Subscribe(eventBuffer),
		player:      opts.Player,
		keymap:      opts.Keys,
		keys:        defaultKeyMap(),
		help:        help.New(),
		now:         opts.Now,
		stats:       snap.Stats,
		maxHoldMs:   snap.MaxHoldMs,
		fromRel:     snap.HoldFromRelease,
		paused:      snap.Paused,
		borderColor: scoring.ColorNeutral,
	}
	m.feedback = m.instructions()
	m.feedbackColor = scoring.ColorTracking
	return m
}

func waitForEvent(ch <-chan trainer.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return inputClosedMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *Model) Init() tea.Cmd {
	return waitForEvent(m.events)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case eventMsg:
		cmd := m.handleEvent(trainer.Event(msg))
		return m, tea.Batch(waitForEvent(m.events), cmd)
	case inputClosedMsg:
		m.closed = true
		m.redraw.cancel()
		m.tracking = false
		m.feedback = "Input stopped. Press q to quit."
		m.feedbackColor = scoring.ColorPoor
		log.Printf("trainer event stream closed")
		return m, nil
	case redrawMsg:
		return m, m.handleRedraw(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.redraw.cancel()
		return tea.Quit
	case key.Matches(msg, m.keys.Reset):
		m.trainer.ResetStats()
	case key.Matches(msg, m.keys.HoldUp):
		m.maxHoldMs += maxHoldStepMs
		m.trainer.SetMaxHoldMs(m.maxHoldMs)
	case key.Matches(msg, m.keys.HoldDown):
		m.maxHoldMs -= maxHoldStepMs
		if m.maxHoldMs < minMaxHoldMs {
			m.maxHoldMs = minMaxHoldMs
		}
		m.trainer.SetMaxHoldMs(m.maxHoldMs)
	}
	return nil
}

func (m *Model) handleEvent(ev trainer.Event) tea.Cmd {
	m.stats = ev.Stats
	m.maxHoldMs = ev.MaxHoldMs

	switch ev.Type {
	case trainer.EventTrackingStarted:
		m.tracking = true
		m.trackingDir = ev.Direction
		m.liveMs = 0
		m.last = nil
		m.feedback = fmt.Sprintf("Counter-strafing with %s... hold it!", m.keyName(ev.Direction))
		m.feedbackColor = scoring.ColorTracking
		m.borderColor = scoring.ColorNeutral
		return m.redraw.schedule(redrawInterval)
	case trainer.EventAttempt:
		m.redraw.cancel()
		m.tracking = false
		result := ev.Result
		m.last = &result
		verdict := scoring.VerdictFor(result)
		m.feedback = verdict.Label
		m.feedbackColor = verdict.Color
		m.borderColor = verdict.Color
		m.lastTiming = timingLine(result)
		m.player.Play(verdict.Cue)
	case trainer.EventPaused:
		m.paused = true
		m.redraw.cancel()
		m.feedback = "Training PAUSED"
		m.feedbackColor = scoring.ColorOkay
	case trainer.EventResumed:
		m.paused = false
		m.feedback = "Training RESUMED"
		m.feedbackColor = scoring.ColorPerfect
		if m.tracking && m.trainer.Snapshot().AwaitingShot {
			return m.redraw.schedule(redrawInterval)
		}
		m.tracking = false
	case trainer.EventReset:
		m.redraw.cancel()
		m.tracking = false
		m.last = nil
		m.lastTiming = ""
		m.feedback = "Stats reset! Ready to train."
		m.feedbackColor = scoring.ColorPerfect
		m.borderColor = scoring.ColorNeutral
	case trainer.EventConfigChanged:
		m.feedback = fmt.Sprintf("Max hold set to %sms", formatMs(ev.MaxHoldMs))
		m.feedbackColor = scoring.ColorTracking
	}
	return nil
}

// handleRedraw advances the live marker while a shot is still awaited.
func (m *Model) handleRedraw(msg redrawMsg) tea.Cmd {
	if !m.redraw.live(msg.handle) {
		return nil
	}
	snap := m.trainer.Snapshot()
	if !snap.AwaitingShot || snap.Paused {
		m.redraw.cancel()
		m.tracking = false
		return nil
	}
	m.liveMs = float64(m.now().Sub(snap.PressedAt)) / float64(time.Millisecond)
	return m.redraw.schedule(redrawInterval)
}

func (m *Model) View() string {
	contentWidth := m.width - 4
	barWidth := barWidthFor(contentWidth)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Counter-Strafe Trainer"))
	b.WriteString("\n\n")
	b.WriteString(timingStyle.Render(m.statusLine()))
	b.WriteString("\n")
	b.WriteString(renderBar(barWidth, m.markers()))
	b.WriteString("\n\n")

	feedback := m.feedback
	if contentWidth > 0 {
		feedback = runewidth.Truncate(feedback, contentWidth, "…")
	}
	b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(m.feedbackColor)).Bold(true).Render(feedback))
	b.WriteString("\n\n")
	b.WriteString(statsStyle.Render(m.renderStats()))
	b.WriteString("\n\n")
	b.WriteString(footerStyle.Render(m.renderSettings()))
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	frame := lipgloss.NewStyle().
		Border(lipgloss.ThickBorder()).
		BorderForeground(lipgloss.Color(m.borderColor)).
		Padding(0, 1)
	return frame.Render(b.String())
}

func (m *Model) statusLine() string {
	switch {
	case m.paused:
		return "Paused"
	case m.tracking:
		return fmt.Sprintf("Tracking %s: %sms", m.keyName(m.trackingDir), formatMs(m.liveMs))
	case m.lastTiming != "":
		return m.lastTiming
	default:
		return "Waiting for input..."
	}
}

func (m *Model) markers() barMarkers {
	if m.tracking {
		live := m.liveMs
		return barMarkers{live: &live}
	}
	if m.last == nil {
		return barMarkers{}
	}
	shot := m.last.MsSincePress
	markers := barMarkers{shot: &shot}
	if offset, ok := m.last.ReleaseOffsetMs(); ok {
		markers.release = &offset
	}
	return markers
}

func (m *Model) renderStats() string {
	out := m.stats.Text()
	if values := m.stats.History.Values(); len(values) > 1 {
		out += "\nTrend: " + stats.Sparkline(values)
	}
	return out
}

func (m *Model) renderSettings() string {
	mode := "press to shot"
	if m.fromRel {
		mode = "press to release"
	}
	return fmt.Sprintf("Max hold %sms (%s) | %s pause/resume", formatMs(m.maxHoldMs), mode, m.keymap.Toggle)
}

func (m *Model) instructions() string {
	return fmt.Sprintf("Strafe with %s, counter-strafe with %s (or the reverse), then shoot %s-%sms after the counter press.",
		m.keymap.Left, m.keymap.Right, formatMs(scoring.PerfectMinMs), formatMs(scoring.PerfectMaxMs))
}

func (m *Model) keyName(dir model.MovementKey) string {
	return keyName(m.keymap, dir)
}

func keyName(keys trainer.Keymap, dir model.MovementKey) string {
	if dir == model.Left {
		return string(keys.Left)
	}
	return string(keys.Right)
}

func timingLine(r model.AttemptResult) string {
	line := fmt.Sprintf("Last shot: %sms after counter-strafe", formatMs(r.MsSincePress))
	if offset, ok := r.ReleaseOffsetMs(); ok {
		line += fmt.Sprintf(" (released at %sms)", formatMs(offset))
	}
	return line
}

func formatMs(ms float64) string {
	return strconv.FormatFloat(ms, 'f', 0, 64)
}
