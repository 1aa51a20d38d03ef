package atom

import (
	"github.com/adamwoolhether/gdata/element"
)

// Entry is atom:entry with the APP and GData additions. Service entries
// embed it and add their own children.
type Entry struct {
	element.OpenContent
	XMLName element.Name `gdata:"atom:entry"`
	ETag    string       `gdata:"gd:etag,attr"`
	Common
	Published *Value   `gdata:"atom:published"`
	Summary   *Text    `gdata:"atom:summary"`
	Content   *Content `gdata:"atom:content"`
	Control   *Control `gdata:"app:control"`
	Edited    *Value   `gdata:"app:edited"`
	BatchMarkers
}

// Entrier is implemented by every entry class through the embedded Entry.
type Entrier interface {
	AtomEntry() *Entry
}

// AtomEntry returns e.
func (e *Entry) AtomEntry() *Entry {
	return e
}

// EntityTag returns the entry's ETag.
func (e *Entry) EntityTag() string {
	return e.ETag
}

// NewEntry returns an entry with a plain text title and content.
func NewEntry(title, content string) *Entry {
	e := &Entry{}
	if title != "" {
		e.Title = NewText(title)
	}
	if content != "" {
		e.Content = NewContent(content)
	}

	return e
}
