package watch

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// defaultMaxSymlinkDepth bounds recursive directory walks performed by
// the monitor's initial scan and the manager's Create/Rename walks, so
// a pathological or cyclic directory structure cannot spin a walk
// forever. Overridable via AgentOptions.MaxSymlinkDepth.
const defaultMaxSymlinkDepth = 64

type pathInfo struct {
	id   fileID
	kind Kind
}

// Manager normalizes a batch of raw paths, as delivered by the agent's
// debounce window, into an ordered list of canonical events consistent
// with the current filesystem state. It keeps three maps: paths (path
// to identity+kind), ids (identity to current path, the inverse used to
// resolve renames) and links (canonical symlink target to every tracked
// path that resolves to it).
//
// A Manager is owned by a single goroutine (the agent's event loop) and
// is not safe for concurrent use.
type Manager struct {
	paths    map[string]pathInfo
	ids      map[fileID]string
	links    map[string][]string
	maxDepth int
}

// NewManager creates an empty file manager.
func NewManager() *Manager {
	return &Manager{
		paths:    make(map[string]pathInfo),
		ids:      make(map[fileID]string),
		links:    make(map[string][]string),
		maxDepth: defaultMaxSymlinkDepth,
	}
}

// SetMaxDepth overrides the recursion cap used by Create/Rename walks.
func (m *Manager) SetMaxDepth(depth int) {
	if depth > 0 {
		m.maxDepth = depth
	}
}

// Result pairs an Event with an error encountered while producing it;
// exactly one of the two is set. Errors surface per-entry (e.g. a walk
// failure reading one file among many) without aborting the rest of
// the batch.
type Result struct {
	Event Event
	Err   error
}

func ok(e Event) Result  { return Result{Event: e} }
func fail(e error) Result { return Result{Err: e} }

// Handle takes a batch of raw, possibly duplicated paths and returns the
// canonical events they represent, in an order satisfying: creations
// list parents before children; removals list children before parents;
// a paired remove+create for the same identity collapses to a single
// rename; symlink-spread events stay contiguous with their origin.
//
// Paths that the caller never asked to watch, or whose rename target
// lies outside every watched root, are reported as unpaired Create or
// Remove events rather than reassembled into a rename — Handle has no
// visibility into paths it was never given, so a rename that crosses a
// watched-root boundary is indistinguishable from an unrelated
// create/remove pair.
func (m *Manager) Handle(paths []string) []Result {
	var results []Result

	// Pass 1: dedupe and identify. changesOrder preserves first-seen
	// order so that later passes iterate deterministically.
	seen := make(map[string]bool, len(paths))
	changes := make(map[fileID]string)
	var changesOrder []fileID
	var removalCandidates []string

	for _, raw := range paths {
		path := filepath.Clean(raw)
		if seen[path] {
			continue
		}
		seen[path] = true

		id, _, err := statPath(path)
		if err != nil {
			removalCandidates = append(removalCandidates, path)
			continue
		}

		prev, exists := changes[id]
		if !exists {
			changes[id] = path
			changesOrder = append(changesOrder, id)
			continue
		}

		// Some backends (kqueue chief among them) emit an alias of the
		// same identity reached through a symlinked parent. Prefer the
		// path whose canonical form matches itself over the alias.
		if canon, err := filepath.EvalSymlinks(path); err == nil && canon != prev {
			changes[id] = path
		}
	}

	// Pass 2: rename coalescing. A removal candidate whose identity
	// reappears among this batch's survivors is really a rename.
	var removals []string
	for _, path := range removalCandidates {
		info, tracked := m.paths[path]
		if !tracked {
			continue
		}
		if to, found := changes[info.id]; found {
			delete(changes, info.id)
			results = append(results, m.handleRename(to)...)
			continue
		}
		removals = append(removals, path)
	}

	// Pass 3: classify survivors of changes as Modify or Create.
	for _, id := range changesOrder {
		path, ok := changes[id]
		if !ok {
			continue // consumed by pass 2 above
		}
		if _, tracked := m.paths[path]; tracked {
			results = append(results, m.handleModify(path)...)
		} else {
			results = append(results, m.handleCreate(path)...)
		}
	}

	// Pass 4: classify remaining removals.
	for _, path := range removals {
		if _, tracked := m.paths[path]; tracked {
			results = append(results, m.handleRemove(path)...)
		}
	}

	// Pass 5: symlink spread (fan-in) — events for paths living under a
	// watched symlink's target get fanned out across every symlink that
	// resolves to it. Must run before pass 6, or following a symlink
	// would duplicate events that pass 5 already produced.
	if len(m.links) > 0 {
		type insertion struct {
			at   int
			rows []Result
		}
		var inserts []insertion
		for i, r := range results {
			if r.Err != nil || r.Event.Kind == KindLink {
				continue
			}
			inserts = append(inserts, insertion{i, m.spread(r.Event)})
		}
		for i := len(inserts) - 1; i >= 0; i-- {
			ins := inserts[i]
			results = spliceResults(results, ins.at, ins.rows)
		}
	}

	// Pass 6: symlink follow (fan-out) — Link-kind events in the result
	// set synthesize Create/Rename/Remove for every path reachable
	// through the link.
	{
		type insertion struct {
			at   int
			rows []Result
		}
		var inserts []insertion
		for i, r := range results {
			if r.Err == nil && r.Event.Kind == KindLink {
				inserts = append(inserts, insertion{i, m.follow(r.Event)})
			}
		}
		for i := len(inserts) - 1; i >= 0; i-- {
			ins := inserts[i]
			results = spliceResults(results, ins.at, ins.rows)
		}
	}

	return results
}

func spliceResults(results []Result, at int, rows []Result) []Result {
	out := make([]Result, 0, len(results)-1+len(rows))
	out = append(out, results[:at]...)
	out = append(out, rows...)
	out = append(out, results[at+1:]...)
	return out
}

// handleCreate walks the subtree rooted at path (not following
// symlinks), recording and emitting a Create for every previously
// untracked entry, parents before children thanks to filepath.WalkDir's
// top-down order. A dot-prefixed directory below root (but never root
// itself) is skipped outright rather than walked, the same shortcut the
// normalizer this package is grounded on takes to avoid descending into
// large generated/vendor trees such as .git.
func (m *Manager) handleCreate(root string) []Result {
	var results []Result
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			results = append(results, fail(err))
			return nil
		}
		if d.IsDir() && path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if d.IsDir() && pathDepth(root, path) > m.maxDepth {
			return filepath.SkipDir
		}
		if _, tracked := m.paths[path]; tracked {
			return nil
		}

		id, kind, err := statPath(path)
		if err != nil {
			results = append(results, fail(err))
			return nil
		}

		m.paths[path] = pathInfo{id: id, kind: kind}
		m.ids[id] = path
		results = append(results, ok(createEvent(kind, path)))
		return nil
	})
	return results
}

// handleModify emits a Modify for an already-tracked path. Folders
// suppress Modify since some backends emit noisy folder-modifies on
// every change to a file inside them.
func (m *Manager) handleModify(path string) []Result {
	info, tracked := m.paths[path]
	if !tracked || info.kind == KindFolder {
		return nil
	}
	current := m.ids[info.id]
	if current == "" {
		current = path
	}
	return []Result{ok(modifyEvent(info.kind, current))}
}

// handleRename walks the subtree at its new location, migrating every
// entry's tracked path from its previous location to the new one and
// emitting a Rename per entry. A nested entry already renamed in an
// earlier step of the same walk (possible with the polling backend,
// which propagates renames into symlinked children out of order) is
// skipped rather than re-emitted.
func (m *Manager) handleRename(to string) []Result {
	var results []Result
	_ = filepath.WalkDir(to, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			results = append(results, fail(err))
			return nil
		}
		if d.IsDir() && pathDepth(to, path) > m.maxDepth {
			return filepath.SkipDir
		}

		id, _, err := statPath(path)
		if err != nil {
			results = append(results, fail(err))
			return nil
		}

		prev, known := m.ids[id]
		if !known {
			return nil
		}
		info, tracked := m.paths[prev]
		if !tracked {
			return nil
		}

		delete(m.paths, prev)
		m.paths[path] = info
		m.ids[id] = path

		if path == prev {
			return nil
		}
		results = append(results, ok(renameEvent(info.kind, prev, path)))
		return nil
	})
	return results
}

// handleRemove sweeps every tracked path under root and emits a Remove
// for each, children before parents (reverse lexicographic order over
// the subtree approximates bottom-up removal since a descendant path
// string always sorts after its ancestor's).
func (m *Manager) handleRemove(root string) []Result {
	var subtree []string
	prefix := root + string(filepath.Separator)
	for path := range m.paths {
		if path == root || strings.HasPrefix(path, prefix) {
			subtree = append(subtree, path)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(subtree)))

	var results []Result
	for _, path := range subtree {
		info, tracked := m.paths[path]
		if !tracked {
			continue
		}
		delete(m.paths, path)
		delete(m.ids, info.id)
		results = append(results, ok(removeEvent(info.kind, path)))
	}
	return results
}

// spread fans a non-link event out to every symlink whose target
// covers the event's path, rewriting the path to go through each link
// in turn. The original event is preserved as the first of the group.
func (m *Manager) spread(event Event) []Result {
	target, paths, tail, found := m.findCoveringLink(event.Path)
	if !found {
		return []Result{ok(event)}
	}

	var rows []Result
	for _, linkPath := range paths {
		path := filepath.Join(linkPath, tail)
		switch event.Op {
		case OpCreate:
			rows = append(rows, ok(createEvent(event.Kind, path)))
		case OpModify:
			rows = append(rows, ok(modifyEvent(event.Kind, path)))
		case OpRemove:
			rows = append(rows, ok(removeEvent(event.Kind, path)))
		case OpRename:
			if fromTail, ok2 := stripPrefix(event.From, target); ok2 {
				rows = append(rows, ok(renameEvent(event.Kind, filepath.Join(linkPath, fromTail), path)))
			} else {
				rows = append(rows, ok(createEvent(event.Kind, path)))
			}
		}
	}

	if event.Op == OpRename && len(rows) == 0 {
		// The rename's target no longer resolves anywhere under any
		// watched link; the content that used to live there is gone.
		removal := Event{Op: OpRemove, Kind: event.Kind, Path: event.From}
		spread := m.spread(removal)
		return append([]Result{ok(event)}, spread[1:]...)
	}

	return append([]Result{ok(event)}, rows...)
}

// findCoveringLink returns the symlink target covering path, the link
// paths that resolve to it, and path's suffix relative to that target.
func (m *Manager) findCoveringLink(path string) (target string, links []string, tail string, found bool) {
	for t, paths := range m.links {
		if rel, ok := stripPrefix(path, t); ok {
			return t, paths, rel, true
		}
	}
	return "", nil, "", false
}

func stripPrefix(path, prefix string) (string, bool) {
	if path == prefix {
		return "", true
	}
	p := prefix + string(filepath.Separator)
	if strings.HasPrefix(path, p) {
		return strings.TrimPrefix(path, p), true
	}
	return "", false
}

// follow processes a Link-kind event, updating the links map and
// synthesizing events for every path reachable through the symlink.
func (m *Manager) follow(event Event) []Result {
	var results []Result

	switch event.Op {
	case OpCreate:
		target, err := filepath.EvalSymlinks(event.Path)
		if err == nil {
			m.addLink(target, event.Path)
		}
		results = append(results, ok(event))
		results = append(results, m.expand(event, "")...)

	case OpModify:
		results = append(results, ok(event))

	case OpRename:
		renamed := false
		for target, paths := range m.links {
			for i, p := range paths {
				if p == event.From {
					m.links[target][i] = event.Path
					renamed = true
					break
				}
			}
			if renamed {
				break
			}
		}
		if !renamed {
			if target, err := filepath.EvalSymlinks(event.Path); err == nil {
				m.addLink(target, event.Path)
			}
		}
		results = append(results, ok(event))
		results = append(results, m.expand(event, event.From)...)

	case OpRemove:
		results = append(results, m.expand(event, "")...)
		reverseResults(results)
		for target, paths := range m.links {
			kept := paths[:0]
			for _, p := range paths {
				if p != event.Path {
					kept = append(kept, p)
				}
			}
			if len(kept) == 0 {
				delete(m.links, target)
			} else {
				m.links[target] = kept
			}
		}
		results = append(results, ok(event))
	}

	return results
}

func reverseResults(rs []Result) {
	for i, j := 0, len(rs)-1; i < j; i, j = i+1, j-1 {
		rs[i], rs[j] = rs[j], rs[i]
	}
}

// addLink records that linkPath resolves to target, without inserting
// a duplicate if it's already recorded.
func (m *Manager) addLink(target, linkPath string) {
	for _, p := range m.links[target] {
		if p == linkPath {
			return
		}
	}
	m.links[target] = append(m.links[target], linkPath)
}

// expand enumerates every tracked path under the symlink's target and
// maps each to an equivalent event rooted at the symlink's own path.
// prevFrom is the rename's previous link path, when called for a
// Rename event, used to determine whether the link resolved before
// the rename as well as after.
func (m *Manager) expand(event Event, prevFrom string) []Result {
	root := event.Path

	var target string
	var found bool
	for t, paths := range m.links {
		for _, p := range paths {
			if p == root {
				target, found = t, true
				break
			}
		}
		if found {
			break
		}
	}
	if !found {
		return nil
	}

	prefix := target + string(filepath.Separator)
	var results []Result
	for path, info := range m.paths {
		if path == target {
			continue
		}
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		tail := strings.TrimPrefix(path, prefix)
		through := filepath.Join(root, tail)

		switch event.Op {
		case OpCreate:
			results = append(results, ok(createEvent(info.kind, through)))
		case OpModify:
			results = append(results, ok(modifyEvent(info.kind, through)))
		case OpRemove:
			results = append(results, ok(removeEvent(info.kind, through)))
		case OpRename:
			fromThrough := filepath.Join(prevFrom, tail)
			results = append(results, ok(renameEvent(info.kind, fromThrough, through)))
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Event.Path < results[j].Event.Path })
	return results
}
