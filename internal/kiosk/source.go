package kiosk

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FrameSource produces image frames on demand. Next blocks until a frame is
// available, returns io.EOF when the stream ends, and unblocks with the
// context error on cancellation.
type FrameSource interface {
	Next(ctx context.Context) ([]byte, error)
}

// DirSource consumes JPEG frames dropped into a spool directory by the
// capture hardware, oldest first. Each frame file is deleted after it is
// read so the directory does not grow unbounded.
type DirSource struct {
	Dir  string
	Poll time.Duration
}

// NewDirSource watches dir with the given poll interval.
func NewDirSource(dir string, poll time.Duration) *DirSource {
	if poll <= 0 {
		poll = 100 * time.Millisecond
	}
	return &DirSource{Dir: dir, Poll: poll}
}

// Next returns the oldest pending frame, polling until one appears or the
// context is cancelled. It returns io.EOF when the spool directory
// disappears.
func (s *DirSource) Next(ctx context.Context) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entries, err := os.ReadDir(s.Dir)
		if err != nil {
			return nil, io.EOF
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			switch strings.ToLower(filepath.Ext(e.Name())) {
			case ".jpg", ".jpeg":
				names = append(names, e.Name())
			}
		}
		if len(names) == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.Poll):
			}
			continue
		}
		sort.Strings(names)

		path := filepath.Join(s.Dir, names[0])
		data, err := os.ReadFile(path)
		_ = os.Remove(path)
		if err != nil {
			continue
		}
		return data, nil
	}
}
