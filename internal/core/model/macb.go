package model

import "strings"

// Category is one of the four bodyfile timestamp categories.
type Category uint8

const (
	Modified Category = 1 << iota
	Accessed
	Changed
	Birth
)

// categoryOrder is the canonical display order of the MACB string.
var categoryOrder = []struct {
	category Category
	letter   byte
}{
	{Modified, 'm'},
	{Accessed, 'a'},
	{Changed, 'c'},
	{Birth, 'b'},
}

// MACB is a set of timestamp categories that share the same instant.
type MACB struct {
	set Category
}

// AllMACB contains every category.
var AllMACB = NewMACB(Modified, Accessed, Changed, Birth)

// NewMACB builds a set from the given categories.
func NewMACB(categories ...Category) MACB {
	var m MACB
	for _, c := range categories {
		m.Add(c)
	}
	return m
}

// Add inserts a category into the set.
func (m *MACB) Add(c Category) {
	m.set |= c & (Modified | Accessed | Changed | Birth)
}

// Union returns the union of both sets.
func (m MACB) Union(other MACB) MACB {
	return MACB{set: m.set | other.set}
}

// Has reports whether the category is in the set.
func (m MACB) Has(c Category) bool {
	return c != 0 && m.set&c == c
}

// String renders the canonical 4-character form, e.g. "m.cb".
func (m MACB) String() string {
	var sb strings.Builder
	sb.Grow(len(categoryOrder))
	for _, co := range categoryOrder {
		if m.Has(co.category) {
			sb.WriteByte(co.letter)
		} else {
			sb.WriteByte('.')
		}
	}
	return sb.String()
}
