package watch

// fileID uniquely identifies a file or folder on a given volume,
// independent of its path, so that renames can be detected even though
// the backend reports them as a remove followed by a create.
type fileID struct {
	dev uint64
	ino uint64
}
