package tui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/verte-zerg/strafe/internal/scoring"
	"github.com/verte-zerg/strafe/internal/sound"
	"github.com/verte-zerg/strafe/internal/trainer"
)

// RunPlain prints trainer events line by line until ctx is done or events is
// closed. Attempts are followed by the timing bar sized to width.
func RunPlain(ctx context.Context, w io.Writer, events <-chan trainer.Event, keys trainer.Keymap, player sound.Player, width int) error {
	if player == nil {
		player = sound.Nop{}
	}
	barWidth := barWidthFor(width)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			line, withBar := plainLine(ev, keys)
			if line == "" {
				continue
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			if !withBar {
				continue
			}
			verdict := scoring.VerdictFor(ev.Result)
			player.Play(verdict.Cue)
			shot := ev.Result.MsSincePress
			markers := barMarkers{shot: &shot}
			if offset, ok := ev.Result.ReleaseOffsetMs(); ok {
				markers.release = &offset
			}
			if _, err := fmt.Fprintln(w, renderBar(barWidth, markers)); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
		}
	}
}

func plainLine(ev trainer.Event, keys trainer.Keymap) (string, bool) {
	switch ev.Type {
	case trainer.EventTrackingStarted:
		return fmt.Sprintf("Counter-strafing with %s... hold it!", keyName(keys, ev.Direction)), false
	case trainer.EventAttempt:
		return fmt.Sprintf("%s | %s", scoring.VerdictFor(ev.Result).Label, timingLine(ev.Result)), true
	case trainer.EventPaused:
		return "Training PAUSED", false
	case trainer.EventResumed:
		return "Training RESUMED", false
	case trainer.EventReset:
		return "Stats reset! Ready to train.", false
	case trainer.EventConfigChanged:
		return fmt.Sprintf("Max hold set to %sms", formatMs(ev.MaxHoldMs)), false
	}
	return "", false
}

// ReadCommands applies the line commands typed in plain mode until r is
// exhausted: "r" resets the stats, "+" and "-" step the max hold.
func ReadCommands(r io.Reader, tr *trainer.Trainer) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "r":
			tr.ResetStats()
		case "+":
			tr.SetMaxHoldMs(tr.Snapshot().MaxHoldMs + maxHoldStepMs)
		case "-":
			tr.SetMaxHoldMs(max(tr.Snapshot().MaxHoldMs-maxHoldStepMs, minMaxHoldMs))
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read commands: %w", err)
	}
	return nil
}
