package model

import "time"

// BodyfileFields is the fixed header used to decode bodyfile lines.
// See https://wiki.sleuthkit.org/index.php?title=Body_file
var BodyfileFields = []string{
	"md5", "name", "inode", "mode_as_string", "uid", "gid",
	"size", "atime", "mtime", "ctime", "crtime",
}

// Column positions within a bodyfile line.
const (
	FieldMD5 = iota
	FieldName
	FieldInode
	FieldMode
	FieldUID
	FieldGID
	FieldSize
	FieldAtime
	FieldMtime
	FieldCtime
	FieldCrtime
)

// BodyfileDelimiter separates the fields of a bodyfile line.
const BodyfileDelimiter = "|"

// Entry is one decoded bodyfile line.
type Entry struct {
	Name   string    `json:"name"`   // c:/$MFT
	Meta   string    `json:"meta"`   // 0-128-6
	Size   uint64    `json:"size"`   // 1835008
	Atime  time.Time `json:"atime"`  // access
	Mtime  time.Time `json:"mtime"`  // modified
	Ctime  time.Time `json:"ctime"`  // metadata change
	Crtime time.Time `json:"crtime"` // creation
	Line   int       `json:"line"`
}

// Timestamps returns the entry's instants keyed by category, in m-a-c-b order.
func (e Entry) Timestamps() []CategoryTime {
	return []CategoryTime{
		{Category: Modified, Time: e.Mtime},
		{Category: Accessed, Time: e.Atime},
		{Category: Changed, Time: e.Ctime},
		{Category: Birth, Time: e.Crtime},
	}
}

// CategoryTime pairs a timestamp category with its instant.
type CategoryTime struct {
	Category Category
	Time     time.Time
}
