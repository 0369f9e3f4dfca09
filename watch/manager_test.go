package watch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func eventsOf(t *testing.T, results []Result) []Event {
	t.Helper()
	var evs []Event
	for _, r := range results {
		assert.NoError(t, r.Err)
		evs = append(evs, r.Event)
	}
	return evs
}

func findEvent(evs []Event, op Op, path string) (Event, bool) {
	for _, e := range evs {
		if e.Op == op && e.Path == path {
			return e, true
		}
	}
	return Event{}, false
}

func TestManagerHandleCreateFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	assert.NoError(t, os.WriteFile(path, []byte("hi"), 0o644))

	m := NewManager()
	evs := eventsOf(t, m.Handle([]string{path}))

	e, found := findEvent(evs, OpCreate, path)
	assert.True(t, found)
	assert.Equal(t, KindFile, e.Kind)
}

func TestManagerHandleCreateDirectoryWalksChildren(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	assert.NoError(t, os.Mkdir(sub, 0o755))
	file := filepath.Join(sub, "child.txt")
	assert.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	m := NewManager()
	evs := eventsOf(t, m.Handle([]string{sub}))

	_, foundDir := findEvent(evs, OpCreate, sub)
	_, foundFile := findEvent(evs, OpCreate, file)
	assert.True(t, foundDir)
	assert.True(t, foundFile)
	// Parent before child.
	assert.Less(t, indexOfPath(evs, sub), indexOfPath(evs, file))
}

func indexOfPath(evs []Event, path string) int {
	for i, e := range evs {
		if e.Path == path {
			return i
		}
	}
	return -1
}

func TestManagerHandleModifySuppressesFolderModify(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	assert.NoError(t, os.Mkdir(sub, 0o755))

	m := NewManager()
	m.Handle([]string{sub})

	results := m.Handle([]string{sub})
	assert.Empty(t, results)
}

func TestManagerHandleModifyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	assert.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	m := NewManager()
	m.Handle([]string{path})

	assert.NoError(t, os.WriteFile(path, []byte("v2 longer"), 0o644))
	evs := eventsOf(t, m.Handle([]string{path}))

	e, found := findEvent(evs, OpModify, path)
	assert.True(t, found)
	assert.Equal(t, KindFile, e.Kind)
}

func TestManagerHandleRemove(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	assert.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	m := NewManager()
	m.Handle([]string{path})

	assert.NoError(t, os.Remove(path))
	evs := eventsOf(t, m.Handle([]string{path}))

	_, found := findEvent(evs, OpRemove, path)
	assert.True(t, found)
}

func TestManagerHandleRemoveDirChildrenBeforeParent(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	assert.NoError(t, os.Mkdir(sub, 0o755))
	file := filepath.Join(sub, "child.txt")
	assert.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	m := NewManager()
	m.Handle([]string{sub})

	assert.NoError(t, os.RemoveAll(sub))
	evs := eventsOf(t, m.Handle([]string{sub}))

	assert.Less(t, indexOfPath(evs, file), indexOfPath(evs, sub))
}

func TestManagerHandleRenameWithinWatchedTree(t *testing.T) {
	dir := t.TempDir()
	oldPath := filepath.Join(dir, "old.txt")
	newPath := filepath.Join(dir, "new.txt")
	assert.NoError(t, os.WriteFile(oldPath, []byte("x"), 0o644))

	m := NewManager()
	m.Handle([]string{oldPath})

	assert.NoError(t, os.Rename(oldPath, newPath))
	evs := eventsOf(t, m.Handle([]string{oldPath, newPath}))

	e, found := findEvent(evs, OpRename, newPath)
	assert.True(t, found)
	assert.Equal(t, oldPath, e.From)
}

func TestManagerHandleUnrelatedPathsReportedSeparately(t *testing.T) {
	dir := t.TempDir()
	removedPath := filepath.Join(dir, "gone.txt")
	createdPath := filepath.Join(dir, "created.txt")
	assert.NoError(t, os.WriteFile(removedPath, []byte("x"), 0o644))

	m := NewManager()
	m.Handle([]string{removedPath})

	assert.NoError(t, os.Remove(removedPath))
	assert.NoError(t, os.WriteFile(createdPath, []byte("y"), 0o644))

	evs := eventsOf(t, m.Handle([]string{removedPath, createdPath}))

	_, foundRemove := findEvent(evs, OpRemove, removedPath)
	_, foundCreate := findEvent(evs, OpCreate, createdPath)
	assert.True(t, foundRemove)
	assert.True(t, foundCreate)

	for _, e := range evs {
		assert.NotEqual(t, OpRename, e.Op)
	}
}

func TestManagerHandleDedupesRepeatedPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	assert.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	m := NewManager()
	evs := eventsOf(t, m.Handle([]string{path, path, path}))

	count := 0
	for _, e := range evs {
		if e.Path == path {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestManagerSymlinkCreateFollowsTarget(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target")
	assert.NoError(t, os.Mkdir(target, 0o755))
	file := filepath.Join(target, "a.txt")
	assert.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	link := filepath.Join(dir, "link")
	assert.NoError(t, os.Symlink(target, link))

	m := NewManager()
	// Track the real tree first so expand() has something to fan out.
	m.Handle([]string{target})

	evs := eventsOf(t, m.Handle([]string{link}))

	_, foundLink := findEvent(evs, OpCreate, link)
	assert.True(t, foundLink)

	through := filepath.Join(link, "a.txt")
	_, foundThrough := findEvent(evs, OpCreate, through)
	assert.True(t, foundThrough)
}

func TestManagerSymlinkRemoveExpandsBeforeLinkItself(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target")
	assert.NoError(t, os.Mkdir(target, 0o755))
	file := filepath.Join(target, "a.txt")
	assert.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	link := filepath.Join(dir, "link")
	assert.NoError(t, os.Symlink(target, link))

	m := NewManager()
	m.Handle([]string{target})
	m.Handle([]string{link})

	assert.NoError(t, os.Remove(link))
	evs := eventsOf(t, m.Handle([]string{link}))

	through := filepath.Join(link, "a.txt")
	idxThrough := indexOfPath(evs, through)
	idxLink := indexOfPath(evs, link)
	assert.GreaterOrEqual(t, idxThrough, 0)
	assert.GreaterOrEqual(t, idxLink, 0)
	assert.Less(t, idxThrough, idxLink)
}

func TestManagerSetMaxDepthIgnoresNonPositive(t *testing.T) {
	m := NewManager()
	m.SetMaxDepth(0)
	assert.Equal(t, defaultMaxSymlinkDepth, m.maxDepth)
	m.SetMaxDepth(-1)
	assert.Equal(t, defaultMaxSymlinkDepth, m.maxDepth)
	m.SetMaxDepth(8)
	assert.Equal(t, 8, m.maxDepth)
}

func TestManagerHandleCreateSkipsDotDirectories(t *testing.T) {
	dir := t.TempDir()
	hidden := filepath.Join(dir, ".git")
	assert.NoError(t, os.Mkdir(hidden, 0o755))
	assert.NoError(t, os.WriteFile(filepath.Join(hidden, "config"), []byte("x"), 0o644))

	m := NewManager()
	evs := eventsOf(t, m.Handle([]string{dir}))

	_, foundHiddenDir := findEvent(evs, OpCreate, hidden)
	assert.False(t, foundHiddenDir)
}

func TestManagerHandleCreateDoesNotSkipDotfileRoot(t *testing.T) {
	dir := t.TempDir()
	hidden := filepath.Join(dir, ".config")
	assert.NoError(t, os.Mkdir(hidden, 0o755))
	file := filepath.Join(hidden, "settings.json")
	assert.NoError(t, os.WriteFile(file, []byte("{}"), 0o644))

	m := NewManager()
	evs := eventsOf(t, m.Handle([]string{hidden}))

	_, foundRoot := findEvent(evs, OpCreate, hidden)
	_, foundChild := findEvent(evs, OpCreate, file)
	assert.True(t, foundRoot)
	assert.True(t, foundChild)
}

func TestStripPrefix(t *testing.T) {
	rel, ok := stripPrefix("/a/b/c", "/a/b")
	assert.True(t, ok)
	assert.Equal(t, "c", rel)

	rel, ok = stripPrefix("/a/b", "/a/b")
	assert.True(t, ok)
	assert.Equal(t, "", rel)

	_, ok = stripPrefix("/a/bc", "/a/b")
	assert.False(t, ok)
}
