package spreadsheets

import (
	"strings"

	"github.com/adamwoolhether/gdata/atom"
	"github.com/adamwoolhether/gdata/element"
)

// ListEntry is one worksheet row.
type ListEntry struct {
	atom.Entry
}

// NewListEntry returns a row holding values keyed by column name.
func NewListEntry(values map[string]string) *ListEntry {
	e := &ListEntry{}
	for col, v := range values {
		e.SetValue(col, v)
	}

	return e
}

// column maps a header to its gsx element name: lower case, no spaces.
func column(name string) element.Name {
	return element.N(ExtendedNS, strings.ToLower(strings.ReplaceAll(name, " ", "")))
}

// Value returns the cell under column, or "".
func (e *ListEntry) Value(col string) string {
	if n := e.Extension(column(col)); n != nil {
		return n.Text
	}

	return ""
}

// SetValue sets the cell under column.
func (e *ListEntry) SetValue(col, value string) {
	name := column(col)
	e.SetExtension(element.NewNode(name.Space, name.Local, value))
}

// Values returns every column of the row.
func (e *ListEntry) Values() map[string]string {
	out := make(map[string]string)
	for _, n := range e.ExtensionsInSpace(ExtendedNS) {
		out[n.Name.Local] = n.Text
	}

	return out
}

// ListFeed is a worksheet's rows.
type ListFeed struct {
	atom.FeedHead
	Entries []*ListEntry `gdata:"atom:entry"`
}

// AtomEntries implements atom.EntryLister.
func (f *ListFeed) AtomEntries() []*atom.Entry {
	return atom.Entries(f.Entries)
}
