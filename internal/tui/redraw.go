package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const redrawInterval = 10 * time.Millisecond

type redrawHandle uint64

type redrawMsg struct {
	handle redrawHandle
}

// redrawScheduler hands out at most one live redraw handle. Ticks that carry a
// cancelled or superseded handle are stale and must be ignored.
type redrawScheduler struct {
	next   redrawHandle
	active redrawHandle
}

func (s *redrawScheduler) schedule(d time.Duration) tea.Cmd {
	s.next++
	h := s.next
	s.active = h
	return tea.Tick(d, func(time.Time) tea.Msg {
		return redrawMsg{handle: h}
	})
}

func (s *redrawScheduler) cancel() {
	s.active = 0
}

func (s *redrawScheduler) live(h redrawHandle) bool {
	return h != 0 && h == s.active
}
