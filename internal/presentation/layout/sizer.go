package layout

import (
	"io"
	"os"
	"strings"

	"github.com/Intrinsec/mactime/internal/util"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

const (
	DefaultWidth = 60
	minWidth     = 40
	maxWidth     = 100
)

// Sizer measures text for the report written to w.
type Sizer struct {
	fd       int
	terminal bool
}

func NewSizer(w io.Writer) Sizer {
	f, ok := w.(*os.File)
	if !ok {
		return Sizer{fd: -1}
	}
	fd := int(f.Fd())
	return Sizer{fd: fd, terminal: term.IsTerminal(fd)}
}

// DisplayWidth returns the number of terminal cells s occupies.
func (s Sizer) DisplayWidth(str string) int {
	return runewidth.StringWidth(str)
}

// PadString pads a string to a specific display width, handling wide runes correctly
func (s Sizer) PadString(str string, width int, leftAlign bool) string {
	actualWidth := s.DisplayWidth(str)
	if actualWidth >= width {
		return str
	}

	padding := strings.Repeat(" ", width-actualWidth)
	if leftAlign {
		return str + padding
	}
	return padding + str
}

// Truncate shortens str to at most width cells.
func (s Sizer) Truncate(str string, width int) string {
	return runewidth.Truncate(str, width, "...")
}

func (s Sizer) GetMaxWidth() int {
	if !s.terminal {
		return DefaultWidth
	}

	termWidth, _, err := term.GetSize(s.fd)
	if err != nil {
		return DefaultWidth
	}

	// Leave some margin
	width := termWidth - 8
	if width < minWidth {
		width = minWidth
	}
	if width > maxWidth {
		width = maxWidth
	}

	util.LogDebugf("GetMaxWidth %d", width)
	return width
}
