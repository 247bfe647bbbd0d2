//go:build linux

package input

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

const (
	evKey = 0x01

	btnLeft   = 0x110
	btnRight  = 0x111
	btnMiddle = 0x112
)

// rawEvent mirrors struct input_event from linux/input.h.
type rawEvent struct {
	Time  unix.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

var evdevKeys = map[uint16]Key{
	1: "ESC", 2: "1", 3: "2", 4: "3", 5: "4", 6: "5", 7: "6", 8: "7", 9: "8", 10: "9", 11: "0",
	14: "BACKSPACE", 15: "TAB",
	16: "Q", 17: "W", 18: "E", 19: "R", 20: "T", 21: "Y", 22: "U", 23: "I", 24: "O", 25: "P",
	28: "ENTER", 29: "CTRL",
	30: "A", 31: "S", 32: "D", 33: "F", 34: "G", 35: "H", 36: "J", 37: "K", 38: "L",
	42: "SHIFT",
	44: "Z", 45: "X", 46: "C", 47: "V", 48: "B", 49: "N", 50: "M",
	54: "SHIFT", 56: "ALT", 57: "SPACE", 58: "CAPSLOCK",
	59: "F1", 60: "F2", 61: "F3", 62: "F4", 63: "F5", 64: "F6", 65: "F7", 66: "F8", 67: "F9", 68: "F10",
	87: "F11", 88: "F12",
	97: "CTRL", 100: "ALT",
	102: "HOME", 103: "UP", 104: "PAGEUP", 105: "LEFT", 106: "RIGHT", 107: "END", 108: "DOWN",
	109: "PAGEDOWN", 110: "INSERT", 111: "DELETE", 119: "PAUSE",
}

type linuxHook struct {
	mu      sync.Mutex
	devices []string
	files   []*os.File
	events  chan Event
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func newPlatformHook(devices []string) Source {
	return &linuxHook{devices: devices}
}

func (h *linuxHook) Events() <-chan Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.events
}

func (h *linuxHook) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return ErrAlreadyRunning
	}

	paths := h.devices
	if len(paths) == 0 {
		found, err := findInputDevices("/proc/bus/input/devices")
		if err != nil {
			return fmt.Errorf("failed to find input devices: %w", err)
		}
		paths = found
	}
	if len(paths) == 0 {
		return fmt.Errorf("no keyboard or mouse devices found: %w", ErrUnsupported)
	}

	var files []*os.File
	var openErr error
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			openErr = err
			continue
		}
		files = append(files, f)
	}
	if len(files) == 0 {
		return fmt.Errorf("cannot read input devices (need to be in 'input' group or run as root): %w", openErr)
	}

	h.files = files
	h.events = make(chan Event, eventBuffer)
	ctx, h.cancel = context.WithCancel(ctx)
	h.running = true

	for _, f := range files {
		h.wg.Add(1)
		go func(f *os.File) {
			defer h.wg.Done()
			_ = decodeEvents(f, h.events)
		}(f)
	}
	go func() {
		<-ctx.Done()
		_ = h.Stop()
	}()
	go func(events chan Event) {
		h.wg.Wait()
		close(events)
	}(h.events)
	return nil
}

func (h *linuxHook) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.running {
		return nil
	}
	h.running = false
	h.cancel()
	var errs []error
	for _, f := range h.files {
		if err := f.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	h.files = nil
	return errors.Join(errs...)
}

// decodeEvents reads input_event records until r fails and forwards key and
// button transitions.
func decodeEvents(r io.Reader, out chan<- Event) error {
	br := bufio.NewReader(r)
	for {
		var raw rawEvent
		if err := binary.Read(br, binary.NativeEndian, &raw); err != nil {
			return err
		}
		if ev, ok := translate(raw); ok {
			send(out, ev)
		}
	}
}

func translate(raw rawEvent) (Event, bool) {
	if raw.Type != evKey {
		return Event{}, false
	}
	at := time.Unix(int64(raw.Time.Sec), int64(raw.Time.Usec)*int64(time.Microsecond))
	switch raw.Code {
	case btnLeft, btnRight, btnMiddle:
		if raw.Value == 2 {
			return Event{}, false
		}
		btn := ButtonLeft
		if raw.Code == btnRight {
			btn = ButtonRight
		} else if raw.Code == btnMiddle {
			btn = ButtonMiddle
		}
		return Event{Kind: MouseButton, Button: btn, Pressed: raw.Value != 0, At: at}, true
	}
	key, ok := evdevKeys[raw.Code]
	if !ok {
		return Event{}, false
	}
	kind := KeyDown
	if raw.Value == 0 {
		kind = KeyUp
	}
	return Event{Kind: kind, Key: key, At: at}, true
}

// findInputDevices lists the event nodes of keyboards and mice from a
// /proc/bus/input/devices style listing.
func findInputDevices(listing string) ([]string, error) {
	f, err := os.Open(listing)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseDeviceList(f)
}

func parseDeviceList(r io.Reader) ([]string, error) {
	var devices []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "H: Handlers=") {
			continue
		}
		fields := strings.Fields(strings.TrimPrefix(line, "H: Handlers="))
		wanted := false
		event := ""
		for _, field := range fields {
			switch {
			case field == "kbd" || strings.HasPrefix(field, "mouse"):
				wanted = true
			case strings.HasPrefix(field, "event"):
				event = field
			}
		}
		if wanted && event != "" {
			devices = append(devices, "/dev/input/"+event)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return devices, nil
}
