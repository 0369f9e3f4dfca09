package watch

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// backendKind identifies the native fs-watch backend fsnotify picked for
// the running platform, so Monitor can branch on its quirks the same
// way it would for inotify/kqueue/FSEvents/ReadDirectoryChangesW.
type backendKind uint8

const (
	backendInotify backendKind = iota
	backendKqueue
	backendWindows
)

func detectBackend() backendKind {
	switch runtime.GOOS {
	case "darwin", "freebsd", "openbsd", "netbsd", "dragonfly":
		return backendKqueue
	case "windows":
		return backendWindows
	default:
		return backendInotify
	}
}

// Monitor is a small wrapper around fsnotify that normalizes watch
// behavior across backends: every active watch is recursive (fsnotify
// itself only watches one directory level, so Monitor walks and adds
// every subdirectory by hand), and overlapping watched roots are
// collapsed so only the outermost ancestor is ever actively registered
// with the backend — several backends misbehave otherwise.
type Monitor struct {
	watcher *fsnotify.Watcher
	backend backendKind

	// paths maps a canonicalized watched root to whether it is
	// currently active (true) or dormant because an ancestor root
	// covers it (false).
	paths map[string]bool

	// maxDepth bounds recursive directory walks (initial scan and
	// Refresh rescans) so a pathological directory structure cannot
	// spin the walk forever. Default 64.
	maxDepth int

	raw  chan string
	errs chan error
}

// NewMonitor creates a file monitor using the platform's recommended
// fsnotify backend, with symlink following disabled — the manager
// tracks symbolic links explicitly instead.
func NewMonitor() (*Monitor, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	m := &Monitor{
		watcher:  w,
		backend:  detectBackend(),
		paths:    make(map[string]bool),
		maxDepth: defaultMaxSymlinkDepth,
		raw:      make(chan string, 256),
		errs:     make(chan error, 16),
	}
	go m.pump()
	return m, nil
}

// SetMaxDepth overrides the recursion cap used by directory walks.
func (m *Monitor) SetMaxDepth(depth int) {
	if depth > 0 {
		m.maxDepth = depth
	}
}

// Events yields one path per accepted backend notification. Events are
// not yet deduplicated, classified or identity-tracked — that's the
// Manager's job once the agent has debounced a batch of them.
func (m *Monitor) Events() <-chan string { return m.raw }

// Errors yields backend errors as they occur.
func (m *Monitor) Errors() <-chan error { return m.errs }

// Backend reports which native fs-watch backend is in use.
func (m *Monitor) Backend() backendKind { return m.backend }

func (m *Monitor) pump() {
	defer close(m.raw)
	defer close(m.errs)
	for {
		select {
		case ev, open := <-m.watcher.Events:
			if !open {
				return
			}
			if !m.accept(ev) {
				continue
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Lstat(ev.Name); err == nil && info.IsDir() {
					m.addRecursive(ev.Name)
				}
			}
			m.raw <- ev.Name
		case err, open := <-m.watcher.Errors:
			if !open {
				return
			}
			m.errs <- err
		}
	}
}

// accept applies the per-backend event filter. Chmod and pure-access
// events carry no information the manager needs and are dropped on
// every backend. On kqueue, changes reported from inside a watched
// symbolic link sometimes surface under a sibling path that was never
// touched; such events are recognized because the path is not itself
// a symlink yet its canonical form differs from the reported path, and
// are dropped here rather than confusing the identity tracker.
func (m *Monitor) accept(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if m.backend != backendKqueue {
		return true
	}
	info, err := os.Lstat(ev.Name)
	if err == nil && info.Mode()&os.ModeSymlink != 0 {
		return true
	}
	canon, err := filepath.EvalSymlinks(ev.Name)
	if err != nil {
		return true
	}
	return canon == ev.Name
}

// Watch starts watching path recursively, returning false if it (or a
// covering ancestor) was already watched.
func (m *Monitor) Watch(path string) (bool, error) {
	canon, err := canonicalize(path)
	if err != nil {
		return false, err
	}
	if _, exists := m.paths[canon]; exists {
		return false, nil
	}
	m.paths[canon] = false
	return m.configure()
}

// Unwatch stops watching path. Returns false if path was only ever
// dormant (covered by an actively watched ancestor), in which case the
// set of actively watched roots is unchanged.
func (m *Monitor) Unwatch(path string) (bool, error) {
	canon, err := canonicalize(path)
	if err != nil {
		return false, err
	}
	active, tracked := m.paths[canon]
	if !tracked {
		return false, nil
	}
	delete(m.paths, canon)
	if !active {
		return false, nil
	}

	if m.backend == backendKqueue {
		// kqueue's remove-filename path spuriously reports the watch
		// as already gone; swallow it rather than surface a false
		// error to the agent. See notify-rs/notify#665 for the
		// upstream report of the same behavior.
		_ = m.unwatchRecursive(canon)
	} else if err := m.unwatchRecursive(canon); err != nil {
		return false, err
	}
	_, err = m.configure()
	return true, err
}

// Refresh forces a rescan of the active watched root covering path: it
// unwatches that root and re-adds it recursively, on every backend. It
// is not a no-op on backends that pick up new subdirectories on their
// own. It returns false when no active root covers path.
func (m *Monitor) Refresh(path string) (bool, error) {
	canon, err := canonicalize(path)
	if err != nil {
		return false, err
	}
	for root, active := range m.paths {
		if !active || !strings.HasPrefix(canon, root) {
			continue
		}
		if m.backend == backendKqueue {
			_ = m.unwatchRecursive(root)
		} else if err := m.unwatchRecursive(root); err != nil {
			return false, err
		}
		if err := m.addRecursive(root); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// Clear drops every buffered, not-yet-consumed event.
func (m *Monitor) Clear() {
	for {
		select {
		case <-m.raw:
		default:
			return
		}
	}
}

// Close releases the underlying backend resources.
func (m *Monitor) Close() error { return m.watcher.Close() }

// configure recomputes which watched roots are active after an
// insertion or removal, deactivating any root that a shorter,
// previously-registered prefix now covers, and activating any root
// that was dormant because its covering ancestor is gone.
func (m *Monitor) configure() (bool, error) {
	ordered := make([]string, 0, len(m.paths))
	for p := range m.paths {
		ordered = append(ordered, p)
	}
	sort.Strings(ordered)

	var toActivate []string
	var watched string
	haveWatched := false
	changed := false

	for _, current := range ordered {
		if haveWatched && strings.HasPrefix(current, watched+string(filepath.Separator)) {
			if m.paths[current] {
				m.paths[current] = false
				changed = true
				if m.backend == backendKqueue {
					_ = m.unwatchRecursive(current)
				} else if err := m.unwatchRecursive(current); err != nil {
					return changed, err
				}
			}
			continue
		}

		if !m.paths[current] {
			m.paths[current] = true
			changed = true
			toActivate = append(toActivate, current)
		}
		watched, haveWatched = current, true
	}

	for _, path := range toActivate {
		if err := m.addRecursive(path); err != nil {
			return changed, err
		}
	}
	return changed, nil
}

// addRecursive walks root and Adds every subdirectory to the backend
// watcher, skipping a dot-prefixed directory below root (root itself is
// never skipped) so a large generated/vendor tree such as .git doesn't
// multiply the number of backend watches.
func (m *Monitor) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if pathDepth(root, path) > m.maxDepth {
			return filepath.SkipDir
		}
		return m.watcher.Add(path)
	})
}

// pathDepth counts path separators between root and path, so recursive
// walks can be capped regardless of how deeply a directory structure
// (legitimately, or via a filesystem-level hardlink cycle) nests.
func pathDepth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}

func (m *Monitor) unwatchRecursive(root string) error {
	var first error
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if rmErr := m.watcher.Remove(path); rmErr != nil && first == nil {
			if !errors.Is(rmErr, fsnotify.ErrNonExistentWatch) {
				first = rmErr
			}
		}
		return nil
	})
	return first
}

func canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}
	return resolved, nil
}
