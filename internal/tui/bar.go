package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/strafe/internal/scoring"
)

const (
	defaultBarWidth = 50
	minBarWidth     = 20
	maxBarWidth     = 100
	barGlyph        = "█"
	liveGlyph       = "|"
	shotGlyph       = "▼"
	releaseGlyph    = "◆"
)

var (
	liveMarkerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(scoring.ColorTracking)).Bold(true)
	shotMarkerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	releaseMarkerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffff00"))
	scaleStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
)

var scaleMarks = []float64{0, scoring.PerfectMinMs, scoring.PerfectMaxMs, scoring.OkayMaxMs, scoring.DisplayMaxMs}

// barMarkers positions the glyphs above the bar. Nil markers are not drawn.
type barMarkers struct {
	live    *float64
	shot    *float64
	release *float64
}

// msToColumn maps a millisecond value onto a bar of the given width,
// clamping at the display maximum.
func msToColumn(ms float64, width int) int {
	if width <= 0 {
		return 0
	}
	if ms < 0 {
		ms = 0
	}
	if ms > scoring.DisplayMaxMs {
		ms = scoring.DisplayMaxMs
	}
	col := int(ms / scoring.DisplayMaxMs * float64(width))
	if col >= width {
		col = width - 1
	}
	return col
}

func columnMs(col, width int) float64 {
	return (float64(col) + 0.5) / float64(width) * scoring.DisplayMaxMs
}

func barWidthFor(termWidth int) int {
	if termWidth <= 0 {
		return defaultBarWidth
	}
	w := termWidth - 12
	if w < minBarWidth {
		return minBarWidth
	}
	if w > maxBarWidth {
		return maxBarWidth
	}
	return w
}

// renderBar draws the marker row, the colored zones and the millisecond scale.
func renderBar(width int, markers barMarkers) string {
	if width < minBarWidth {
		width = minBarWidth
	}
	lines := []string{renderMarkerRow(width, markers), renderZones(width), renderScale(width)}
	return strings.Join(lines, "\n")
}

func renderMarkerRow(width int, markers barMarkers) string {
	cells := make([]string, width)
	for i := range cells {
		cells[i] = " "
	}
	if markers.release != nil {
		cells[msToColumn(*markers.release, width)] = releaseMarkerStyle.Render(releaseGlyph)
	}
	if markers.live != nil {
		cells[msToColumn(*markers.live, width)] = liveMarkerStyle.Render(liveGlyph)
	}
	if markers.shot != nil {
		cells[msToColumn(*markers.shot, width)] = shotMarkerStyle.Render(shotGlyph)
	}
	return strings.TrimRight(strings.Join(cells, ""), " ")
}

func renderZones(width int) string {
	var b strings.Builder
	runStart := 0
	runColor := scoring.ZoneColor(columnMs(0, width))
	flush := func(end int) {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(runColor))
		b.WriteString(style.Render(strings.Repeat(barGlyph, end-runStart)))
	}
	for col := 1; col < width; col++ {
		color := scoring.ZoneColor(columnMs(col, width))
		if color == runColor {
			continue
		}
		flush(col)
		runStart = col
		runColor = color
	}
	flush(width)
	return b.String()
}

func renderScale(width int) string {
	row := []rune(strings.Repeat(" ", width+4))
	next := 0
	for i, ms := range scaleMarks {
		label := formatMs(ms)
		if i == len(scaleMarks)-1 {
			label += "ms"
		}
		start := msToColumn(ms, width)
		if i == len(scaleMarks)-1 {
			start = width - runewidth.StringWidth(label)
		}
		if start < next {
			start = next
		}
		for j, r := range label {
			if start+j < len(row) {
				row[start+j] = r
			}
		}
		next = start + runewidth.StringWidth(label) + 1
	}
	return scaleStyle.Render(strings.TrimRight(string(row), " "))
}
