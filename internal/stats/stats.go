// Package stats contains session statistics and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/verte-zerg/strafe/internal/model"
)

// HistorySize is how many recent non-poor timings feed the average.
const HistorySize = 20

const sparkChars = " .:-=+*#%@"

// Counts holds per-classification attempt counters. Good counts Early
// attempts.
type Counts struct {
	Total   int
	Perfect int
	Good    int
	Okay    int
	Poor    int
}

// History is a fixed-capacity FIFO of timings in milliseconds. The zero value
// is empty and copies are independent.
type History struct {
	values [HistorySize]float64
	start  int
	n      int
}

// Push appends v, evicting the oldest value when full.
func (h *History) Push(v float64) {
	if h.n < HistorySize {
		h.values[(h.start+h.n)%HistorySize] = v
		h.n++
		return
	}
	h.values[h.start] = v
	h.start = (h.start + 1) % HistorySize
}

// Len returns the number of stored values.
func (h History) Len() int {
	return h.n
}

// Values returns the stored values, oldest first.
func (h History) Values() []float64 {
	out := make([]float64, h.n)
	for i := 0; i < h.n; i++ {
		out[i] = h.values[(h.start+i)%HistorySize]
	}
	return out
}

// Mean returns the arithmetic mean, or 0 when empty.
func (h History) Mean() float64 {
	if h.n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < h.n; i++ {
		sum += h.values[(h.start+i)%HistorySize]
	}
	return sum / float64(h.n)
}

// SessionStats aggregates attempt results for the current run.
type SessionStats struct {
	Counts  Counts
	History History
}

// Record counts one attempt. Poor attempts are counted but kept out of the
// timing history.
func (s *SessionStats) Record(r model.AttemptResult) {
	s.Counts.Total++
	switch r.Classification {
	case model.Early:
		s.Counts.Good++
	case model.Perfect:
		s.Counts.Perfect++
	case model.Okay:
		s.Counts.Okay++
	case model.Poor:
		s.Counts.Poor++
		return
	}
	s.History.Push(r.MsSincePress)
}

// Reset clears all counters and the history.
func (s *SessionStats) Reset() {
	*s = SessionStats{}
}

// Average returns the mean press-to-shot time over the history.
func (s SessionStats) Average() float64 {
	return s.History.Mean()
}

// Share returns n as a percentage of all attempts.
func (s SessionStats) Share(n int) float64 {
	if s.Counts.Total == 0 {
		return 0
	}
	return float64(n) / float64(s.Counts.Total) * 100
}

// Text renders the running stats block.
func (s SessionStats) Text() string {
	if s.Counts.Total == 0 {
		return "No strafes recorded yet"
	}
	lines := []string{
		"Session Stats:",
		fmt.Sprintf("Total Attempts: %d", s.Counts.Total),
		fmt.Sprintf("Perfect (60-110ms): %d (%.1f%%)", s.Counts.Perfect, s.Share(s.Counts.Perfect)),
		fmt.Sprintf("Early/Ok: %d", s.Counts.Good+s.Counts.Okay),
		fmt.Sprintf("Avg Time to Shot: %.0fms", s.Average()),
	}
	return strings.Join(lines, "\n")
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints a per-classification table for the session.
func RenderSummary(w io.Writer, s SessionStats) error {
	if s.Counts.Total == 0 {
		_, err := fmt.Fprintln(w, "No strafes recorded.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Summary"); err != nil {
		return err
	}
	headers := []string{"Result", "Count", "Share"}
	buckets := []struct {
		name  string
		count int
	}{
		{"Perfect", s.Counts.Perfect},
		{"Early", s.Counts.Good},
		{"Okay", s.Counts.Okay},
		{"Poor", s.Counts.Poor},
	}
	rows := make([][]string, 0, len(buckets)+1)
	for _, b := range buckets {
		rows = append(rows, []string{
			b.name,
			fmt.Sprintf("%d", b.count),
			fmt.Sprintf("%.1f%%", s.Share(b.count)),
		})
	}
	rows = append(rows, []string{"Total", fmt.Sprintf("%d", s.Counts.Total), "100.0%"})
	lines := formatTable(headers, rows, map[int]bool{1: true, 2: true})
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "Avg Time to Shot (last %d): %.0fms\n", s.History.Len(), s.Average()); err != nil {
		return err
	}
	if trend := Sparkline(MovingAverage(s.History.Values(), 3)); trend != "" {
		if _, err := fmt.Fprintf(w, "Trend: [%s]\n", trend); err != nil {
			return err
		}
	}
	return PlotHistory(w, s.History.Values(), chartWidth, chartHeight)
}
