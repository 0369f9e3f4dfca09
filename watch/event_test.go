package watch

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindString(t *testing.T) {
	assert.Equal(t, "file", KindFile.String())
	assert.Equal(t, "folder", KindFolder.String())
	assert.Equal(t, "link", KindLink.String())
	assert.Equal(t, "unknown", Kind(99).String())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindLink, kindOf(fs.ModeSymlink))
	assert.Equal(t, KindFolder, kindOf(fs.ModeDir))
	assert.Equal(t, KindFile, kindOf(0))
}

func TestOpString(t *testing.T) {
	assert.Equal(t, "create", OpCreate.String())
	assert.Equal(t, "modify", OpModify.String())
	assert.Equal(t, "rename", OpRename.String())
	assert.Equal(t, "remove", OpRemove.String())
	assert.Equal(t, "unknown", Op(99).String())
}

func TestEventString(t *testing.T) {
	e := createEvent(KindFile, "/a/b")
	assert.Equal(t, "create(file): /a/b", e.String())

	r := renameEvent(KindFile, "/a/old", "/a/new")
	assert.Equal(t, "rename(file): /a/old -> /a/new", r.String())
}

func TestEventConstructors(t *testing.T) {
	assert.Equal(t, Event{Op: OpCreate, Kind: KindFile, Path: "/a"}, createEvent(KindFile, "/a"))
	assert.Equal(t, Event{Op: OpModify, Kind: KindFolder, Path: "/b"}, modifyEvent(KindFolder, "/b"))
	assert.Equal(t, Event{Op: OpRemove, Kind: KindLink, Path: "/c"}, removeEvent(KindLink, "/c"))
	assert.Equal(t, Event{Op: OpRename, Kind: KindFile, From: "/old", Path: "/new"}, renameEvent(KindFile, "/old", "/new"))
}
