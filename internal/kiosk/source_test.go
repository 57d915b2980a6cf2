package kiosk

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDirSourceReturnsOldestAndDeletes(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "b.jpg"), []byte("second"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("first"), 0o644); err != nil {
		t.Fatal(err)
	}

	src := NewDirSource(dir, 10*time.Millisecond)
	frame, err := src.Next(context.Background())
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if string(frame) != "first" {
		t.Fatalf("expected oldest frame first, got %q", frame)
	}
	if _, err := os.Stat(filepath.Join(dir, "a.jpg")); !os.IsNotExist(err) {
		t.Fatal("consumed frame must be deleted")
	}
}

func TestDirSourceNextUnblocksOnCancel(t *testing.T) {
	src := NewDirSource(t.TempDir(), 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := src.Next(ctx)
		done <- err
	}()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Next kept polling after cancel")
	}
}

func TestRunStopsOnCancelWithEmptySpool(t *testing.T) {
	loop, _ := newTestLoop(t, &loopStore{})
	src := NewDirSource(t.TempDir(), 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- loop.Run(ctx, src)
	}()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on an idle spool after cancel")
	}
}
