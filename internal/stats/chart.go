package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/strafe/internal/scoring"
)

const (
	chartWidth     = 40
	chartHeight    = 6
	chartAvgWindow = 3
	axisSeparator  = " │ "
)

type chartLine struct {
	name   string
	values []float64
	period int
	on     int
	color  string
}

func (l chartLine) shouldPlot(x int) bool {
	if l.period <= 1 {
		return true
	}
	return x%l.period < l.on
}

// PlotHistory draws the timing history as a braille chart on a fixed
// 0..250ms axis, with the moving average dotted over the raw attempts.
func PlotHistory(w io.Writer, values []float64, width, height int) error {
	if len(values) < 2 {
		return nil
	}
	if width <= 0 {
		width = chartWidth
	}
	if height <= 0 {
		height = chartHeight
	}
	lines := []chartLine{
		{name: "time to shot", values: values, period: 1, on: 1, color: scoring.ColorTracking},
		{name: fmt.Sprintf("avg of %d", chartAvgWindow), values: MovingAverage(values, chartAvgWindow), period: 4, on: 1, color: scoring.ColorPerfect},
	}

	cells := make([][][]uint8, len(lines))
	for i, line := range lines {
		cells[i] = makeCells(height, width)
		prevX, prevY := -1, -1
		for x, v := range resampleSeries(line.values, width) {
			px := x * 2
			py := msToDotRow(v, height*4)
			if prevX >= 0 {
				drawLine(prevX, prevY, px, py, func(dx, dy int) {
					if line.shouldPlot(dx) {
						setBrailleDot(cells[i], dx, dy)
					}
				})
			} else {
				setBrailleDot(cells[i], px, py)
			}
			prevX, prevY = px, py
		}
	}

	labels := axisLabels(height)
	labelWidth := len("250ms")
	for y := 0; y < height; y++ {
		var row strings.Builder
		fmt.Fprintf(&row, "%*s%s", labelWidth, labels[y], axisSeparator)
		for x := 0; x < width; x++ {
			var mask uint8
			owner := -1
			for i := range lines {
				if m := cells[i][y][x]; m != 0 {
					mask |= m
					if owner == -1 {
						owner = i
					}
				}
			}
			ch := string(brailleFromMask(mask))
			if owner >= 0 {
				ch = lipgloss.NewStyle().Foreground(lipgloss.Color(lines[owner].color)).Render(ch)
			}
			row.WriteString(ch)
		}
		if _, err := fmt.Fprintln(w, row.String()); err != nil {
			return err
		}
	}

	legend := make([]string, 0, len(lines))
	for _, line := range lines {
		label := fmt.Sprintf("%c %s", brailleFromMask(0x01), line.name)
		legend = append(legend, lipgloss.NewStyle().Foreground(lipgloss.Color(line.color)).Render(label))
	}
	_, err := fmt.Fprintln(w, "Legend: "+strings.Join(legend, "  "))
	return err
}

func axisLabels(height int) []string {
	labels := make([]string, height)
	for _, ms := range []float64{scoring.PerfectMaxMs, scoring.PerfectMinMs} {
		labels[msToDotRow(ms, height*4)/4] = fmt.Sprintf("%.0fms", ms)
	}
	labels[0] = fmt.Sprintf("%.0fms", scoring.DisplayMaxMs)
	labels[height-1] = "0ms"
	return labels
}

// msToDotRow maps a millisecond value to a braille dot row, top is slowest.
func msToDotRow(ms float64, rows int) int {
	if rows <= 1 {
		return 0
	}
	ms = math.Max(0, math.Min(ms, scoring.DisplayMaxMs))
	row := int(math.Round((1 - ms/scoring.DisplayMaxMs) * float64(rows-1)))
	return max(0, min(row, rows-1))
}

func makeCells(height, width int) [][]uint8 {
	cells := make([][]uint8, height)
	for y := 0; y < height; y++ {
		cells[y] = make([]uint8, width)
	}
	return cells
}

func resampleSeries(values []float64, width int) []float64 {
	if len(values) == 0 || width <= 0 {
		return nil
	}
	out := make([]float64, width)
	if len(values) == 1 || width == 1 {
		for i := range out {
			out[i] = values[0]
		}
		return out
	}
	for i := 0; i < width; i++ {
		pos := float64(i) * float64(len(values)-1) / float64(width-1)
		idx := int(math.Floor(pos))
		if idx >= len(values)-1 {
			out[i] = values[len(values)-1]
			continue
		}
		frac := pos - float64(idx)
		out[i] = values[idx]*(1-frac) + values[idx+1]*frac
	}
	return out
}

func drawLine(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := int(math.Abs(float64(x1 - x0)))
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -int(math.Abs(float64(y1 - y0)))
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func setBrailleDot(cells [][]uint8, x, y int) {
	cellY := y / 4
	cellX := x / 2
	if y < 0 || x < 0 || cellY >= len(cells) || cellX >= len(cells[cellY]) {
		return
	}
	cells[cellY][cellX] |= brailleDotMask(x%2, y%4)
}

// brailleDotMask follows the Unicode braille dot numbering.
func brailleDotMask(x, y int) uint8 {
	if y == 3 {
		if x == 0 {
			return 0x40
		}
		return 0x80
	}
	return uint8(1<<y) << (3 * x)
}

func brailleFromMask(mask uint8) rune {
	return rune(0x2800 + int(mask))
}
