// Package watch normalizes raw, backend-specific filesystem notifications
// into a canonical stream of Create/Modify/Rename/Remove events for files,
// folders and symbolic links, including transitive propagation through
// watched symlinks.
package watch

import (
	"fmt"
	"io/fs"
)

// Kind classifies the filesystem entry an Event refers to.
type Kind uint8

const (
	KindFile Kind = iota
	KindFolder
	KindLink
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindFolder:
		return "folder"
	case KindLink:
		return "link"
	default:
		return "unknown"
	}
}

// kindOf classifies a mode obtained from Lstat (never follows symlinks).
func kindOf(mode fs.FileMode) Kind {
	switch {
	case mode&fs.ModeSymlink != 0:
		return KindLink
	case mode.IsDir():
		return KindFolder
	default:
		return KindFile
	}
}

// Op identifies the operation an Event represents.
type Op uint8

const (
	OpCreate Op = iota
	OpModify
	OpRename
	OpRemove
)

func (o Op) String() string {
	switch o {
	case OpCreate:
		return "create"
	case OpModify:
		return "modify"
	case OpRename:
		return "rename"
	case OpRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Event is a single canonical, normalized filesystem change. From is set
// only for OpRename; Path carries the current (post-event) location for
// every op, including rename's destination.
type Event struct {
	Op   Op
	Kind Kind
	Path string
	From string
}

func (e Event) String() string {
	if e.Op == OpRename {
		return fmt.Sprintf("%s(%s): %s -> %s", e.Op, e.Kind, e.From, e.Path)
	}
	return fmt.Sprintf("%s(%s): %s", e.Op, e.Kind, e.Path)
}

func createEvent(kind Kind, path string) Event { return Event{Op: OpCreate, Kind: kind, Path: path} }
func modifyEvent(kind Kind, path string) Event { return Event{Op: OpModify, Kind: kind, Path: path} }
func removeEvent(kind Kind, path string) Event { return Event{Op: OpRemove, Kind: kind, Path: path} }
func renameEvent(kind Kind, from, to string) Event {
	return Event{Op: OpRename, Kind: kind, From: from, Path: to}
}
