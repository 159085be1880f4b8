package util

import (
	"fmt"
	"os"
)

// FileInfo contains the identity of a file on disk: modification time, size and inode number.
type FileInfo struct {
	ModTime int64  // Last modification time (Unix seconds)
	Size    int64  // File size in bytes
	Inode   uint64 // Inode number, 0 where the platform does not expose one
}

// statFileInfo builds a FileInfo from os.Stat. It carries no inode.
func statFileInfo(path string) (*FileInfo, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	return &FileInfo{
		ModTime: st.ModTime().Unix(),
		Size:    st.Size(),
	}, nil
}
