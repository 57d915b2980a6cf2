package attendance

import "time"

// Attendance window bounds, in local wall-clock hours. The 12:00-13:00 gap
// is a lunch blackout: scans in it are rejected as outside hours.
const (
	MorningStart   = 8
	MorningEnd     = 12
	AfternoonStart = 13
	AfternoonEnd   = 17
)

// Window is the part of the day a scan falls into.
type Window int

const (
	WindowNone Window = iota
	WindowMorning
	WindowAfternoon
)

func (w Window) String() string {
	switch w {
	case WindowMorning:
		return "morning"
	case WindowAfternoon:
		return "afternoon"
	}
	return "none"
}

// ClassifyWindow maps a wall-clock time to its attendance window.
func ClassifyWindow(t time.Time) Window {
	hour := t.Hour()
	switch {
	case hour >= MorningStart && hour < MorningEnd:
		return WindowMorning
	case hour >= AfternoonStart && hour < AfternoonEnd:
		return WindowAfternoon
	}
	return WindowNone
}

// Slot selects the in or out slot of the window for the given mode.
func (w Window) Slot(mode Mode) Slot {
	switch w {
	case WindowMorning:
		if mode == ModeOut {
			return SlotMorningOut
		}
		return SlotMorningIn
	case WindowAfternoon:
		if mode == ModeOut {
			return SlotAfternoonOut
		}
		return SlotAfternoonIn
	}
	return ""
}
