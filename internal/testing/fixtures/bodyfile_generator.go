package fixtures

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// BodyfileRecord is one line of a bodyfile in its raw text form
type BodyfileRecord struct {
	MD5    string
	Name   string
	Inode  string
	Mode   string
	UID    string
	GID    string
	Size   string
	Atime  string
	Mtime  string
	Ctime  string
	Crtime string
}

// Line renders the record with the pipe delimiter
func (r BodyfileRecord) Line() string {
	return strings.Join([]string{
		r.MD5, r.Name, r.Inode, r.Mode, r.UID, r.GID, r.Size,
		r.Atime, r.Mtime, r.Ctime, r.Crtime,
	}, "|")
}

// Record builds a well formed record with the given epoch seconds
func Record(name string, size uint64, atime, mtime, ctime, crtime int64) BodyfileRecord {
	return BodyfileRecord{
		MD5:    "0",
		Name:   name,
		Inode:  "0-128-6",
		Mode:   "r/rrwxrwxrwx",
		UID:    "0",
		GID:    "0",
		Size:   fmt.Sprintf("%d", size),
		Atime:  fmt.Sprintf("%d", atime),
		Mtime:  fmt.Sprintf("%d", mtime),
		Ctime:  fmt.Sprintf("%d", ctime),
		Crtime: fmt.Sprintf("%d", crtime),
	}
}

// MFTRecord is the $MFT entry of an NTFS volume, all four timestamps equal
func MFTRecord() BodyfileRecord {
	return Record("c:/$MFT", 1835008, 1595291898, 1595291898, 1595291898, 1595291898)
}

// MFTLine is MFTRecord rendered as a line
const MFTLine = "0|c:/$MFT|0-128-6|r/rrwxrwxrwx|0|0|1835008|1595291898|1595291898|1595291898|1595291898"

// TestDataGenerator writes bodyfiles under a base directory
type TestDataGenerator struct {
	baseDir string
}

// NewTestDataGenerator creates a new test data generator
func NewTestDataGenerator(baseDir string) *TestDataGenerator {
	return &TestDataGenerator{
		baseDir: baseDir,
	}
}

// GenerateBodyfile writes the records to name and returns the file path
func (g *TestDataGenerator) GenerateBodyfile(name string, records ...BodyfileRecord) (string, error) {
	lines := make([]string, len(records))
	for i, r := range records {
		lines[i] = r.Line()
	}
	return g.GenerateRaw(name, lines...)
}

// GenerateRaw writes the lines verbatim, each followed by a newline
func (g *TestDataGenerator) GenerateRaw(name string, lines ...string) (string, error) {
	if err := os.MkdirAll(g.baseDir, 0755); err != nil {
		return "", err
	}

	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteString("\n")
	}

	path := filepath.Join(g.baseDir, name)
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return "", err
	}
	return path, nil
}

// GenerateMalformedScenario writes one good line, one line with a
// non-numeric atime and one line with too few fields.
func (g *TestDataGenerator) GenerateMalformedScenario(name string) (string, error) {
	bad := MFTRecord()
	bad.Name = "c:/bad"
	bad.Atime = "not-a-time"

	return g.GenerateRaw(name,
		MFTLine,
		bad.Line(),
		"0|c:/short|1|r|0|0",
	)
}
