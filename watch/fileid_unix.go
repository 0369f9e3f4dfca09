//go:build unix

package watch

import (
	"io/fs"
	"os"
	"syscall"
)

// statPath returns the kind and file identifier of path without
// following a trailing symlink, since symlinks are tracked explicitly
// by the manager rather than transparently resolved here.
func statPath(path string) (fileID, Kind, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return fileID{}, 0, err
	}
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return fileID{}, 0, &fs.PathError{Op: "statPath", Path: path, Err: syscall.ENOTSUP}
	}
	return fileID{dev: uint64(stat.Dev), ino: stat.Ino}, kindOf(info.Mode()), nil
}
