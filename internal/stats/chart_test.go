package stats

import (
	"bytes"
	"strings"
	"testing"
)

func TestPlotHistory(t *testing.T) {
	var buf bytes.Buffer
	if err := PlotHistory(&buf, []float64{40, 80, 120, 90, 300}, 10, 4); err != nil {
		t.Fatalf("PlotHistory failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 4 chart rows and a legend, got %d: %q", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "250ms"+axisSeparator) {
		t.Fatalf("expected top axis label, got %q", lines[0])
	}
	if !strings.HasPrefix(lines[3], "  0ms"+axisSeparator) {
		t.Fatalf("expected bottom axis label, got %q", lines[3])
	}
	if !strings.Contains(lines[4], "time to shot") || !strings.Contains(lines[4], "avg of 3") {
		t.Fatalf("unexpected legend: %q", lines[4])
	}
}

func TestPlotHistoryNeedsTwoPoints(t *testing.T) {
	var buf bytes.Buffer
	if err := PlotHistory(&buf, []float64{80}, 0, 0); err != nil {
		t.Fatalf("PlotHistory failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}

func TestMsToDotRowClamps(t *testing.T) {
	if got := msToDotRow(0, 24); got != 23 {
		t.Fatalf("expected bottom row, got %d", got)
	}
	if got := msToDotRow(500, 24); got != 0 {
		t.Fatalf("expected top row, got %d", got)
	}
}

func TestBrailleDotMask(t *testing.T) {
	want := map[[2]int]uint8{
		{0, 0}: 0x01, {0, 1}: 0x02, {0, 2}: 0x04, {0, 3}: 0x40,
		{1, 0}: 0x08, {1, 1}: 0x10, {1, 2}: 0x20, {1, 3}: 0x80,
	}
	for pos, mask := range want {
		if got := brailleDotMask(pos[0], pos[1]); got != mask {
			t.Fatalf("dot %v: expected %#x, got %#x", pos, mask, got)
		}
	}
}
