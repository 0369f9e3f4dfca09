//go:build windows

package watch

import (
	"os"

	"golang.org/x/sys/windows"
)

// statPath returns the kind and file identifier of path without
// following a trailing symlink (FILE_FLAG_OPEN_REPARSE_POINT), using
// the volume serial number plus file index as the low-resolution
// identity windows.GetFileInformationByHandle exposes.
func statPath(path string) (fileID, Kind, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return fileID{}, 0, err
	}

	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return fileID{}, 0, err
	}
	h, err := windows.CreateFile(p,
		0,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE|windows.FILE_SHARE_DELETE,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_FLAG_BACKUP_SEMANTICS|windows.FILE_FLAG_OPEN_REPARSE_POINT,
		0)
	if err != nil {
		return fileID{}, 0, &os.PathError{Op: "CreateFile", Path: path, Err: err}
	}
	defer windows.CloseHandle(h)

	var fi windows.ByHandleFileInformation
	if err := windows.GetFileInformationByHandle(h, &fi); err != nil {
		return fileID{}, 0, &os.PathError{Op: "GetFileInformationByHandle", Path: path, Err: err}
	}

	id := fileID{
		dev: uint64(fi.VolumeSerialNumber),
		ino: uint64(fi.FileIndexHigh)<<32 | uint64(fi.FileIndexLow),
	}
	return id, kindOf(info.Mode()), nil
}
