package util

import (
	"fmt"
	"hash/crc32"
	"io"
	"os"
)

// fingerprintWindow is how many trailing bytes are hashed.
const fingerprintWindow = int64(4096)

// CalculateFileFingerprint returns the CRC32 of the last 4KB of a file.
// Bodyfiles are append-only in practice, so the tail changes whenever content does.
func CalculateFileFingerprint(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return "", err
	}

	readSize := fingerprintWindow
	if stat.Size() < readSize {
		readSize = stat.Size()
	}

	data := make([]byte, readSize)
	if _, err := file.ReadAt(data, stat.Size()-readSize); err != nil && err != io.EOF {
		return "", err
	}

	return fmt.Sprintf("%08x", crc32.ChecksumIEEE(data)), nil
}
