package gallery

import (
	"os"
	"path/filepath"
	"testing"
)

func testDescriptor(seed float32) Descriptor {
	var d Descriptor
	for i := range d {
		d[i] = seed + float32(i)/1000
	}
	return d
}

func TestStoreRoundTrip(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "encodings.gob"))

	snap := Snapshot{
		Encodings: []Descriptor{testDescriptor(0.1), testDescriptor(0.2)},
		Names:     []string{"alice", "bob"},
	}
	if err := store.Save(snap); err != nil {
		t.Fatalf("save: %v", err)
	}

	got := store.Load()
	if got.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", got.Len())
	}
	if got.Names[0] != "alice" || got.Names[1] != "bob" {
		t.Errorf("names corrupted: %v", got.Names)
	}
	if got.Encodings[0] != snap.Encodings[0] {
		t.Error("descriptor corrupted")
	}
}

func TestStoreLoadMissingFile(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "nope.gob"))
	if got := store.Load(); got.Len() != 0 {
		t.Fatalf("missing blob must load empty, got %d entries", got.Len())
	}
}

func TestStoreLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "encodings.gob")
	if err := os.WriteFile(path, []byte("not a gob blob"), 0o644); err != nil {
		t.Fatal(err)
	}
	store := NewStore(path)
	if got := store.Load(); got.Len() != 0 {
		t.Fatalf("corrupt blob must load empty, got %d entries", got.Len())
	}
}

func TestStoreSaveRejectsMismatchedLengths(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "encodings.gob"))
	err := store.Save(Snapshot{Encodings: []Descriptor{testDescriptor(0.1)}, Names: nil})
	if err == nil {
		t.Fatal("expected error for unpaired encodings")
	}
}

func TestWatcherReloadIfChanged(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(filepath.Join(dir, "encodings.gob"))

	if err := store.Save(Snapshot{
		Encodings: []Descriptor{testDescriptor(0.1)},
		Names:     []string{"alice"},
	}); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "alice.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := NewWatcher(store, DirLister(dir))
	if w.Snapshot().Len() != 1 {
		t.Fatalf("initial load: expected 1 entry, got %d", w.Snapshot().Len())
	}

	if w.ReloadIfChanged() {
		t.Fatal("no file change: must not reload")
	}

	// A new image plus a new blob: the file-set diff triggers a full reload.
	if err := store.Save(Snapshot{
		Encodings: []Descriptor{testDescriptor(0.1), testDescriptor(0.2)},
		Names:     []string{"alice", "bob"},
	}); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bob.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if !w.ReloadIfChanged() {
		t.Fatal("file-set change must trigger reload")
	}
	if w.Snapshot().Len() != 2 {
		t.Fatalf("after reload: expected 2 entries, got %d", w.Snapshot().Len())
	}

	// Removal is a change too.
	if err := os.Remove(filepath.Join(dir, "bob.jpg")); err != nil {
		t.Fatal(err)
	}
	if !w.ReloadIfChanged() {
		t.Fatal("file removal must trigger reload")
	}
}

// fakeExtractor maps image content to canned descriptors; content "noface"
// yields nothing.
type fakeExtractor struct{}

func (fakeExtractor) Descriptors(img []byte) ([]Descriptor, error) {
	if string(img) == "noface" {
		return nil, nil
	}
	return []Descriptor{testDescriptor(float32(len(img)))}, nil
}

func TestRebuild(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"alice.jpg":  "face-a",
		"bob.png":    "face-bb",
		"empty.jpg":  "noface",
		"notes.txt":  "not an image",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	store := NewStore(filepath.Join(dir, "encodings.gob"))
	snap, err := Rebuild(dir, store, fakeExtractor{})
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	if snap.Len() != 2 {
		t.Fatalf("expected 2 identities (zero-face image skipped), got %d: %v", snap.Len(), snap.Names)
	}
	names := map[string]bool{}
	for _, n := range snap.Names {
		names[n] = true
	}
	if !names["alice"] || !names["bob"] {
		t.Errorf("expected alice and bob, got %v", snap.Names)
	}
	if names["empty"] {
		t.Error("zero-face image must be excluded")
	}

	// The rebuild persisted the snapshot it returned.
	if got := store.Load(); got.Len() != 2 {
		t.Fatalf("persisted snapshot: expected 2 entries, got %d", got.Len())
	}
}
