//go:build windows

package input

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"syscall"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procSetWindowsHookEx    = user32.NewProc("SetWindowsHookExW")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procGetMessage          = user32.NewProc("GetMessageW")
	procTranslateMessage    = user32.NewProc("TranslateMessage")
	procDispatchMessage     = user32.NewProc("DispatchMessageW")
	procPostThreadMessage   = user32.NewProc("PostThreadMessageW")
	kernel32                = windows.NewLazySystemDLL("kernel32.dll")
	procGetModuleHandle     = kernel32.NewProc("GetModuleHandleW")
)

const (
	whKeyboardLL = 13
	whMouseLL    = 14

	wmQuit        = 0x0012
	wmKeyDown     = 0x0100
	wmKeyUp       = 0x0101
	wmSysKeyDown  = 0x0104
	wmSysKeyUp    = 0x0105
	wmLButtonDown = 0x0201
	wmLButtonUp   = 0x0202
	wmRButtonDown = 0x0204
	wmRButtonUp   = 0x0205
	wmMButtonDown = 0x0207
	wmMButtonUp   = 0x0208
)

type kbdLLHookStruct struct {
	VkCode      uint32
	ScanCode    uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type msg struct {
	Hwnd    syscall.Handle
	Message uint32
	Wparam  uintptr
	Lparam  uintptr
	Time    uint32
	Pt      struct{ X, Y int32 }
}

// Hook callbacks cannot carry state, so the running hook is package-level.
// Both callbacks run on the thread that installed them.
var (
	activeHook   *windowsHook
	keyboardHook uintptr
	mouseHook    uintptr
)

type windowsHook struct {
	mu       sync.Mutex
	events   chan Event
	running  bool
	threadID uint32
	done     chan struct{}
}

func newPlatformHook(_ []string) Source {
	return &windowsHook{}
}

func (h *windowsHook) Events() <-chan Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.events
}

func (h *windowsHook) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return ErrAlreadyRunning
	}

	h.events = make(chan Event, eventBuffer)
	h.done = make(chan struct{})
	activeHook = h
	started := make(chan error, 1)

	// Hooks must be installed on the thread that runs the message loop.
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		defer close(h.done)
		defer close(h.events)

		hMod, _, _ := procGetModuleHandle.Call(0)
		var err error
		keyboardHook, _, err = procSetWindowsHookEx.Call(whKeyboardLL, syscall.NewCallback(keyboardProc), hMod, 0)
		if keyboardHook == 0 {
			started <- fmt.Errorf("failed to set keyboard hook: %w", err)
			return
		}
		mouseHook, _, err = procSetWindowsHookEx.Call(whMouseLL, syscall.NewCallback(mouseProc), hMod, 0)
		if mouseHook == 0 {
			procUnhookWindowsHookEx.Call(keyboardHook)
			started <- fmt.Errorf("failed to set mouse hook: %w", err)
			return
		}
		h.threadID = windows.GetCurrentThreadId()
		started <- nil

		var m msg
		for {
			ret, _, _ := procGetMessage.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
			if int32(ret) <= 0 {
				break
			}
			procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
			procDispatchMessage.Call(uintptr(unsafe.Pointer(&m)))
		}

		procUnhookWindowsHookEx.Call(keyboardHook)
		procUnhookWindowsHookEx.Call(mouseHook)
	}()

	if err := <-started; err != nil {
		return err
	}
	h.running = true

	go func() {
		select {
		case <-ctx.Done():
			_ = h.Stop()
		case <-h.done:
		}
	}()
	return nil
}

func (h *windowsHook) Stop() error {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return nil
	}
	h.running = false
	threadID := h.threadID
	done := h.done
	h.mu.Unlock()

	procPostThreadMessage.Call(uintptr(threadID), wmQuit, 0, 0)
	<-done
	return nil
}

func keyboardProc(nCode int, wParam uintptr, lParam uintptr) uintptr {
	if nCode == 0 && activeHook != nil {
		kbd := (*kbdLLHookStruct)(unsafe.Pointer(lParam))
		if name := vkCodeToKey(kbd.VkCode); name != "" {
			switch wParam {
			case wmKeyDown, wmSysKeyDown:
				send(activeHook.events, Event{Kind: KeyDown, Key: name, At: time.Now()})
			case wmKeyUp, wmSysKeyUp:
				send(activeHook.events, Event{Kind: KeyUp, Key: name, At: time.Now()})
			}
		}
	}
	ret, _, _ := procCallNextHookEx.Call(keyboardHook, uintptr(nCode), wParam, lParam)
	return ret
}

func mouseProc(nCode int, wParam uintptr, lParam uintptr) uintptr {
	if nCode == 0 && activeHook != nil {
		var btn Button
		var pressed bool
		switch wParam {
		case wmLButtonDown:
			btn, pressed = ButtonLeft, true
		case wmLButtonUp:
			btn, pressed = ButtonLeft, false
		case wmRButtonDown:
			btn, pressed = ButtonRight, true
		case wmRButtonUp:
			btn, pressed = ButtonRight, false
		case wmMButtonDown:
			btn, pressed = ButtonMiddle, true
		case wmMButtonUp:
			btn, pressed = ButtonMiddle, false
		}
		if btn != 0 {
			send(activeHook.events, Event{Kind: MouseButton, Button: btn, Pressed: pressed, At: time.Now()})
		}
	}
	ret, _, _ := procCallNextHookEx.Call(mouseHook, uintptr(nCode), wParam, lParam)
	return ret
}

func vkCodeToKey(vk uint32) Key {
	switch vk {
	case 0x11, 0xA2, 0xA3:
		return "CTRL"
	case 0x12, 0xA4, 0xA5:
		return "ALT"
	case 0x10, 0xA0, 0xA1:
		return "SHIFT"
	case 0x20:
		return "SPACE"
	case 0x0D:
		return "ENTER"
	case 0x1B:
		return "ESC"
	case 0x08:
		return "BACKSPACE"
	case 0x09:
		return "TAB"
	case 0x14:
		return "CAPSLOCK"
	case 0x21:
		return "PAGEUP"
	case 0x22:
		return "PAGEDOWN"
	case 0x23:
		return "END"
	case 0x24:
		return "HOME"
	case 0x25:
		return "LEFT"
	case 0x26:
		return "UP"
	case 0x27:
		return "RIGHT"
	case 0x28:
		return "DOWN"
	case 0x2D:
		return "INSERT"
	case 0x2E:
		return "DELETE"
	case 0x13:
		return "PAUSE"
	}
	if vk >= 0x41 && vk <= 0x5A {
		return Key(string(rune(vk)))
	}
	if vk >= 0x30 && vk <= 0x39 {
		return Key(string(rune(vk)))
	}
	if vk >= 0x70 && vk <= 0x7B {
		return Key(fmt.Sprintf("F%d", vk-0x6F))
	}
	return ""
}
