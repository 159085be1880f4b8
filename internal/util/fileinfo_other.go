//go:build !linux && !darwin

package util

// GetFileInfo stats the file and returns its identity. The inode is left at
// 0, so cache validation relies on size, modification time and fingerprint.
func GetFileInfo(path string) (*FileInfo, error) {
	return statFileInfo(path)
}
