package circuit

import (
	"fmt"
	"time"
)

// UIMode represents the current UI mode/screen
type UIMode int

const (
	UIModeRoutineEditor UIMode = iota // Build and edit routines
	UIModeSession                     // Run a workout session
)

// UIModeInfo contains display information for a UI mode
type UIModeInfo struct {
	Mode        UIMode
	DisplayName string
	KeyBinding  rune // The number key to activate this mode (1-9)
}

// AllUIModes defines all available UI modes in order
var AllUIModes = []UIModeInfo{
	{Mode: UIModeRoutineEditor, DisplayName: "Routine Editor", KeyBinding: '1'},
	{Mode: UIModeSession, DisplayName: "Session", KeyBinding: '2'},
}

// GetUIModeByKey returns the mode for a given key binding
func GetUIModeByKey(key rune) (UIMode, bool) {
	for _, info := range AllUIModes {
		if info.KeyBinding == key {
			return info.Mode, true
		}
	}
	return 0, false
}

// GetUIModeInfo returns the info for a given mode
func GetUIModeInfo(mode UIMode) (UIModeInfo, bool) {
	for _, info := range AllUIModes {
		if info.Mode == mode {
			return info, true
		}
	}
	return UIModeInfo{}, false
}

// Editor defaults and adjustment steps
const (
	DefaultSets             = 3
	DefaultExerciseDuration = 30 * time.Second
	DefaultRestDuration     = 30 * time.Second
	DurationStep            = 5 * time.Second
	MaxSets                 = 20
	MaxPhaseDuration        = 30 * time.Minute
)

// formatDuration formats a duration for list display
func formatDuration(d time.Duration) string {
	minutes := int(d.Minutes())
	if minutes >= 60 {
		hours := minutes / 60
		mins := minutes % 60
		if mins > 0 {
			return fmt.Sprintf("%dh %dm", hours, mins)
		}
		return fmt.Sprintf("%dh", hours)
	}
	if minutes >= 1 && int(d.Seconds())%60 == 0 {
		return fmt.Sprintf("%d min", minutes)
	}
	return fmt.Sprintf("%ds", int(d.Seconds()))
}

// formatDurationMMSS formats a countdown as MM:SS, rounding up so the
// display shows 0:01 until the phase actually ends.
func formatDurationMMSS(d time.Duration) string {
	totalSeconds := int((d + time.Second - 1) / time.Second)
	minutes := totalSeconds / 60
	seconds := totalSeconds % 60
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
