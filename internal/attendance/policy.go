package attendance

import (
	"context"
	"time"
)

// Store is the persistence contract the policy needs. FindUser and
// FindRecord return nil (not an error) when nothing matches. SetSlot must
// refuse to overwrite a non-null slot and report whether it wrote, so the
// already-marked guard holds even under concurrent writers.
type Store interface {
	FindUser(ctx context.Context, name string) (*User, error)
	FindRecord(ctx context.Context, userID int64, date time.Time) (*Record, error)
	CreateRecord(ctx context.Context, userID int64, date time.Time, slot Slot, t time.Time) error
	SetSlot(ctx context.Context, recordID string, slot Slot, t time.Time) (bool, error)
}

// Result is one policy decision. Name and Section are filled once the
// identity resolves; Slot is set on accepted outcomes.
type Result struct {
	Outcome Outcome
	Name    string
	Section string
	Slot    Slot
}

// Policy decides whether a recognized identity gets an attendance mark.
// It owns the cooldown state explicitly; nothing here is package-global.
type Policy struct {
	store    Store
	cooldown *Cooldown

	// Now is overridable for tests.
	Now func() time.Time
}

// NewPolicy creates a policy over the store with the given cooldown window.
func NewPolicy(store Store, cooldownWindow time.Duration) *Policy {
	return &Policy{
		store:    store,
		cooldown: NewCooldown(cooldownWindow),
		Now:      time.Now,
	}
}

// Mark runs the attendance state machine for one recognized identity.
// Store failures are returned as errors and abort only the current frame's
// processing of this identity; the caller keeps looping.
//
// The check order is load-bearing: cooldown before registration before
// window before the slot write, so rejection reasons have a fixed
// precedence.
func (p *Policy) Mark(ctx context.Context, name string, mode Mode) (Result, error) {
	now := p.Now()

	if p.cooldown.Active(name, now) {
		return Result{Outcome: Suppressed, Name: name}, nil
	}

	user, err := p.store.FindUser(ctx, name)
	if err != nil {
		return Result{}, err
	}
	if user == nil {
		return Result{Outcome: RejectedNotRegistered, Name: name}, nil
	}

	window := ClassifyWindow(now)
	if window == WindowNone {
		return Result{Outcome: RejectedOutsideHours, Name: name, Section: user.Section}, nil
	}
	slot := window.Slot(mode)

	date := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	record, err := p.store.FindRecord(ctx, user.ID, date)
	if err != nil {
		return Result{}, err
	}

	res := Result{Name: name, Section: user.Section, Slot: slot}
	switch {
	case record == nil:
		if err := p.store.CreateRecord(ctx, user.ID, date, slot, now); err != nil {
			return Result{}, err
		}
		res.Outcome = AcceptedCreated

	case record.SlotTime(slot) == nil:
		wrote, err := p.store.SetSlot(ctx, record.ID, slot, now)
		if err != nil {
			return Result{}, err
		}
		if !wrote {
			// Lost a race with a concurrent writer for the same slot.
			res.Outcome = RejectedAlreadyMarked
			res.Slot = ""
			return res, nil
		}
		res.Outcome = AcceptedUpdated

	default:
		res.Outcome = RejectedAlreadyMarked
		res.Slot = ""
		return res, nil
	}

	p.cooldown.Touch(name, now)
	return res, nil
}
