package gallery

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Extractor derives face descriptors from an encoded image.
type Extractor interface {
	Descriptors(img []byte) ([]Descriptor, error)
}

// Rebuild recomputes every descriptor from every image in dir and persists
// the result through the store. One descriptor per image; the identity is the
// file name without extension. Images yielding no extractable face are
// skipped. This is a full O(n) rebuild, not an incremental update.
func Rebuild(dir string, store *Store, ext Extractor) (Snapshot, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Snapshot{}, fmt.Errorf("gallery: read %s: %w", dir, err)
	}

	var snap Snapshot
	for _, e := range entries {
		if e.IsDir() || !isImageFile(e.Name()) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			log.Printf("gallery: read %s: %v, skipping", e.Name(), err)
			continue
		}
		descs, err := ext.Descriptors(data)
		if err != nil {
			log.Printf("gallery: extract %s: %v, skipping", e.Name(), err)
			continue
		}
		if len(descs) == 0 {
			log.Printf("gallery: no face in %s, skipping", e.Name())
			continue
		}
		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		snap.Encodings = append(snap.Encodings, descs[0])
		snap.Names = append(snap.Names, name)
	}

	if err := store.Save(snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}
