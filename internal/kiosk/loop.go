// Package kiosk runs the live recognition loop: frames in, attendance marks
// out. The loop is single-threaded and synchronous; one frame is fully
// processed before the next is read.
package kiosk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"faceatt/internal/attendance"
	"faceatt/internal/facerec"
	"faceatt/internal/gallery"
	"faceatt/internal/match"
)

// Loop owns all mutable recognition state: the gallery watcher, the policy
// (with its cooldown), and the operator-selected mode.
type Loop struct {
	Watcher   *gallery.Watcher
	Extractor facerec.Extractor
	Policy    *attendance.Policy
	Feedback  Feedback
	Threshold float64

	mu   sync.Mutex
	mode attendance.Mode
}

// New wires a loop with mode IN.
func New(w *gallery.Watcher, ext facerec.Extractor, pol *attendance.Policy, fb Feedback, threshold float64) *Loop {
	if threshold <= 0 {
		threshold = match.DefaultThreshold
	}
	return &Loop{
		Watcher:   w,
		Extractor: ext,
		Policy:    pol,
		Feedback:  fb,
		Threshold: threshold,
		mode:      attendance.ModeIn,
	}
}

// Mode returns the current operator mode.
func (l *Loop) Mode() attendance.Mode {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mode
}

// SetMode switches between IN and OUT.
func (l *Loop) SetMode(mode attendance.Mode) {
	l.mu.Lock()
	l.mode = mode
	l.mu.Unlock()
	l.Feedback.Notice(fmt.Sprintf("mode switched to %s", mode))
}

// Run consumes frames until the source ends or the context is cancelled.
// Frame-level failures are logged and skipped; the loop itself only stops
// on end-of-stream.
func (l *Loop) Run(ctx context.Context, src FrameSource) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		frame, err := src.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if err := l.Step(ctx, frame); err != nil {
			log.Printf("kiosk: frame skipped: %v", err)
		}
	}
}

// Step processes a single frame: reload the gallery if its backing files
// changed, extract faces, match each against the snapshot, and run the
// policy for every resolved identity.
func (l *Loop) Step(ctx context.Context, frame []byte) error {
	framesProcessed.Inc()

	if l.Watcher.ReloadIfChanged() {
		galleryReloads.Inc()
		l.Feedback.Notice("encodings reloaded")
	}
	snap := l.Watcher.Snapshot()

	faces, err := l.Extractor.Extract(frame)
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	facesObserved.Add(float64(len(faces)))

	mode := l.Mode()
	for _, face := range faces {
		res := match.Match(face.Descriptor, snap, l.Threshold)
		if !res.Matched() {
			continue
		}

		outcome, err := l.Policy.Mark(ctx, res.Name, mode)
		if err != nil {
			// Store unavailable: hard failure for this identity on this
			// frame only. The loop moves on.
			log.Printf("kiosk: mark %s: %v", res.Name, err)
			continue
		}
		scanOutcomes.WithLabelValues(outcome.Outcome.String()).Inc()
		l.signal(outcome, mode)
	}
	return nil
}

// signal maps each outcome to exactly one feedback signal: positive for
// accepted, negative for rejected, nothing for suppressed.
func (l *Loop) signal(res attendance.Result, mode attendance.Mode) {
	switch res.Outcome {
	case attendance.AcceptedCreated, attendance.AcceptedUpdated:
		l.Feedback.Positive(fmt.Sprintf("%s %s", res.Name, mode), res.Section)
	case attendance.RejectedNotRegistered:
		l.Feedback.Negative(fmt.Sprintf("%s not registered", res.Name))
	case attendance.RejectedOutsideHours:
		l.Feedback.Negative(fmt.Sprintf("%s outside allowed hours", res.Name))
	case attendance.RejectedAlreadyMarked:
		l.Feedback.Negative(fmt.Sprintf("%s already %s", res.Name, mode))
	case attendance.Suppressed:
		// Treated as if the frame never happened for this identity.
	}
}
