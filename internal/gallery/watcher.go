package gallery

import (
	"os"
)

// ListFiles reports the current file set of a directory. Injectable so the
// coarse directory diff can be swapped for a cheaper change signal without
// touching the caller.
type ListFiles func() (map[string]struct{}, error)

// DirLister lists the entries of dir, the default change detector.
func DirLister(dir string) ListFiles {
	return func() (map[string]struct{}, error) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, err
		}
		set := make(map[string]struct{}, len(entries))
		for _, e := range entries {
			set[e.Name()] = struct{}{}
		}
		return set, nil
	}
}

// Watcher holds the current snapshot and reloads it when the backing file
// set changes. It is owned and driven by a single observation loop.
type Watcher struct {
	store   *Store
	list    ListFiles
	snap    Snapshot
	fileSet map[string]struct{}
}

// NewWatcher loads the initial snapshot and captures the current file set.
func NewWatcher(store *Store, list ListFiles) *Watcher {
	w := &Watcher{store: store, list: list}
	w.snap = store.Load()
	if set, err := list(); err == nil {
		w.fileSet = set
	} else {
		w.fileSet = map[string]struct{}{}
	}
	return w
}

// Snapshot returns the current gallery snapshot.
func (w *Watcher) Snapshot() Snapshot { return w.snap }

// ReloadIfChanged compares the backing file set to the one captured at last
// load. Any difference (add, remove, rename) triggers a full reload that
// replaces the snapshot atomically. Returns true when a reload happened.
func (w *Watcher) ReloadIfChanged() bool {
	current, err := w.list()
	if err != nil {
		return false
	}
	if equalFileSets(current, w.fileSet) {
		return false
	}
	w.snap = w.store.Load()
	w.fileSet = current
	return true
}

func equalFileSets(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
