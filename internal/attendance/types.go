package attendance

import "time"

// Mode selects which slot of the current window a successful scan writes to.
// It is operator-toggled on the kiosk.
type Mode string

const (
	ModeIn  Mode = "IN"
	ModeOut Mode = "OUT"
)

// Slot names one of the four timestamp columns of an attendance record.
type Slot string

const (
	SlotMorningIn    Slot = "morning_in"
	SlotMorningOut   Slot = "morning_out"
	SlotAfternoonIn  Slot = "afternoon_in"
	SlotAfternoonOut Slot = "afternoon_out"
)

// Outcome is the exhaustive result taxonomy of a policy decision. Every
// caller must handle all six variants.
type Outcome int

const (
	// Suppressed means the identity was scanned again within the cooldown
	// window; the frame is treated as if it never happened.
	Suppressed Outcome = iota
	// RejectedNotRegistered means the identity has no user record.
	RejectedNotRegistered
	// RejectedOutsideHours means the scan hour falls in no attendance window.
	RejectedOutsideHours
	// RejectedAlreadyMarked means the selected slot already holds a value.
	// This is the durable duplicate guard; it holds across restarts.
	RejectedAlreadyMarked
	// AcceptedCreated means a new record was created with the slot set.
	AcceptedCreated
	// AcceptedUpdated means the slot was set on an existing record.
	AcceptedUpdated
)

// Accepted reports whether the outcome wrote a timestamp.
func (o Outcome) Accepted() bool {
	return o == AcceptedCreated || o == AcceptedUpdated
}

func (o Outcome) String() string {
	switch o {
	case Suppressed:
		return "suppressed"
	case RejectedNotRegistered:
		return "not_registered"
	case RejectedOutsideHours:
		return "outside_hours"
	case RejectedAlreadyMarked:
		return "already_marked"
	case AcceptedCreated:
		return "created"
	case AcceptedUpdated:
		return "updated"
	}
	return "unknown"
}

// User is a registered person resolved from an identity name.
type User struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Section   string `json:"section"`
	SectionID *int64 `json:"section_id,omitempty"`
}

// Section groups users, shown in feedback and reports.
type Section struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Admin is a dashboard operator account.
type Admin struct {
	ID           int64
	Username     string
	PasswordHash string
}

// Record is one row per (user, calendar date) with four optional timestamp
// slots. A slot, once set, is never overwritten.
type Record struct {
	ID           string     `json:"id"`
	UserID       int64      `json:"user_id"`
	Date         time.Time  `json:"date"`
	MorningIn    *time.Time `json:"morning_in"`
	MorningOut   *time.Time `json:"morning_out"`
	AfternoonIn  *time.Time `json:"afternoon_in"`
	AfternoonOut *time.Time `json:"afternoon_out"`
}

// SlotTime returns the stored value of the named slot.
func (r *Record) SlotTime(slot Slot) *time.Time {
	switch slot {
	case SlotMorningIn:
		return r.MorningIn
	case SlotMorningOut:
		return r.MorningOut
	case SlotAfternoonIn:
		return r.AfternoonIn
	case SlotAfternoonOut:
		return r.AfternoonOut
	}
	return nil
}

// Row is a dashboard listing entry: a record joined with user and section.
type Row struct {
	Record
	Name    string `json:"name"`
	Section string `json:"section"`
}

// Status classifies a day as Present, Partial or Absent from the two
// "in" slots, matching the dashboard convention.
func (r Row) Status() string {
	switch {
	case r.MorningIn != nil && r.AfternoonIn != nil:
		return "Present"
	case r.MorningIn == nil && r.AfternoonIn == nil:
		return "Absent"
	}
	return "Partial"
}
