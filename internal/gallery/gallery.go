package gallery

import (
	"encoding/gob"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// DescriptorLen is the length of a face descriptor vector.
const DescriptorLen = 128

// Descriptor is a fixed-length face encoding. Descriptors are never mutated
// after creation; a snapshot is replaced wholesale on reload.
type Descriptor [DescriptorLen]float32

// Snapshot pairs descriptors with identity names. Both slices always have
// equal length and are replaced atomically, never patched in place.
type Snapshot struct {
	Encodings []Descriptor
	Names     []string
}

// Len returns the number of enrolled encodings.
func (s Snapshot) Len() int { return len(s.Encodings) }

// Store reads and writes the persisted encodings blob.
type Store struct {
	Path string
}

// NewStore creates a store over the given blob path.
func NewStore(path string) *Store {
	return &Store{Path: path}
}

// Load reads the persisted snapshot. A missing or unreadable blob yields an
// empty snapshot rather than an error so the kiosk degrades to matching
// nothing instead of failing to start.
func (s *Store) Load() Snapshot {
	f, err := os.Open(s.Path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("gallery: open %s: %v, starting empty", s.Path, err)
		}
		return Snapshot{}
	}
	defer f.Close()

	var snap Snapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		log.Printf("gallery: decode %s: %v, starting empty", s.Path, err)
		return Snapshot{}
	}
	if len(snap.Encodings) != len(snap.Names) {
		log.Printf("gallery: %s has %d encodings for %d names, starting empty",
			s.Path, len(snap.Encodings), len(snap.Names))
		return Snapshot{}
	}
	return snap
}

// Save writes the snapshot via a temp file and rename so readers never see a
// partially written blob.
func (s *Store) Save(snap Snapshot) error {
	if len(snap.Encodings) != len(snap.Names) {
		return fmt.Errorf("gallery: %d encodings for %d names", len(snap.Encodings), len(snap.Names))
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return fmt.Errorf("gallery: create dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.Path), ".encodings-*")
	if err != nil {
		return fmt.Errorf("gallery: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(snap); err != nil {
		tmp.Close()
		return fmt.Errorf("gallery: encode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("gallery: close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("gallery: rename: %w", err)
	}
	return nil
}
