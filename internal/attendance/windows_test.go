package attendance

import (
	"testing"
	"time"
)

func TestClassifyWindow(t *testing.T) {
	cases := []struct {
		hour int
		want Window
	}{
		{0, WindowNone},
		{7, WindowNone},
		{8, WindowMorning},
		{11, WindowMorning},
		{12, WindowNone}, // lunch blackout
		{13, WindowAfternoon},
		{16, WindowAfternoon},
		{17, WindowNone},
		{23, WindowNone},
	}
	for _, tc := range cases {
		ts := time.Date(2025, time.March, 10, tc.hour, 30, 0, 0, time.Local)
		if got := ClassifyWindow(ts); got != tc.want {
			t.Errorf("hour %d: expected %s, got %s", tc.hour, tc.want, got)
		}
	}
}

func TestWindowSlot(t *testing.T) {
	cases := []struct {
		window Window
		mode   Mode
		want   Slot
	}{
		{WindowMorning, ModeIn, SlotMorningIn},
		{WindowMorning, ModeOut, SlotMorningOut},
		{WindowAfternoon, ModeIn, SlotAfternoonIn},
		{WindowAfternoon, ModeOut, SlotAfternoonOut},
		{WindowNone, ModeIn, ""},
	}
	for _, tc := range cases {
		if got := tc.window.Slot(tc.mode); got != tc.want {
			t.Errorf("%s/%s: expected %q, got %q", tc.window, tc.mode, tc.want, got)
		}
	}
}

func TestRowStatus(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name    string
		morning *time.Time
		noon    *time.Time
		want    string
	}{
		{"both", &now, &now, "Present"},
		{"neither", nil, nil, "Absent"},
		{"morning only", &now, nil, "Partial"},
		{"afternoon only", nil, &now, "Partial"},
	}
	for _, tc := range cases {
		row := Row{Record: Record{MorningIn: tc.morning, AfternoonIn: tc.noon}}
		if got := row.Status(); got != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}
