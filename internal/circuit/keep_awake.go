package circuit

import (
	"log"

	"github.com/gdamore/tcell/v2"
)

// ScreenWaker keeps the display awake while a countdown is running. The
// session stays correct without it: missed wake-ups only mean the screen may
// blank mid-set.
type ScreenWaker interface {
	KeepAwake(on bool)
}

// terminalWaker nudges the terminal so screensaver idle timers reset while a
// session is counting down. Terminals offer no real wake-lock, so this is the
// closest available: a periodic no-op event through the tcell screen, which
// counts as activity for most terminal emulators. Disabled entirely when the
// keep_screen_on setting is off.
type terminalWaker struct {
	screen  tcell.Screen
	enabled bool
	logger  *log.Logger

	on bool
}

// NewTerminalWaker creates a ScreenWaker backed by the given screen. screen
// may be nil until the UI is initialized; wake requests before that only log.
func NewTerminalWaker(screen tcell.Screen, enabled bool, logger *log.Logger) ScreenWaker {
	if logger == nil {
		panic("terminalWaker: logger cannot be nil")
	}
	return &terminalWaker{screen: screen, enabled: enabled, logger: logger}
}

func (w *terminalWaker) KeepAwake(on bool) {
	if !w.enabled {
		return
	}
	if on == w.on {
		return
	}
	w.on = on
	if on {
		w.logger.Printf("ScreenWaker: keeping screen awake")
	} else {
		w.logger.Printf("ScreenWaker: releasing screen")
	}
	if w.screen != nil && on {
		// An interrupt event is enough terminal activity to reset idle timers.
		w.screen.PostEvent(tcell.NewEventInterrupt(nil))
	}
}
