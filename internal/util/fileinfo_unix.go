//go:build linux || darwin

package util

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// GetFileInfo stats the file and returns its identity.
func GetFileInfo(path string) (*FileInfo, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	return &FileInfo{
		ModTime: modTime(&st),
		Size:    int64(st.Size),
		Inode:   uint64(st.Ino),
	}, nil
}
