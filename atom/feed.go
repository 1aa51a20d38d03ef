package atom

import (
	"github.com/adamwoolhether/gdata/element"
)

// FeedHead is the metadata of atom:feed without its entries. Typed
// service feeds embed it and declare their own entry slice.
type FeedHead struct {
	element.OpenContent
	XMLName element.Name `gdata:"atom:feed"`
	ETag    string       `gdata:"gd:etag,attr"`
	Common
	Subtitle     *Text             `gdata:"atom:subtitle"`
	Generator    *Generator        `gdata:"atom:generator"`
	Icon         *Value            `gdata:"atom:icon"`
	Logo         *Value            `gdata:"atom:logo"`
	TotalResults *Value            `gdata:"openSearch:totalResults"`
	StartIndex   *Value            `gdata:"openSearch:startIndex"`
	ItemsPerPage *Value            `gdata:"openSearch:itemsPerPage"`
	Interrupted  *BatchInterrupted `gdata:"batch:interrupted"`
}

// Feeder is implemented by every feed class through the embedded FeedHead.
type Feeder interface {
	AtomFeed() *FeedHead
}

// AtomFeed returns h.
func (h *FeedHead) AtomFeed() *FeedHead {
	return h
}

// EntityTag returns the feed's ETag.
func (h *FeedHead) EntityTag() string {
	return h.ETag
}

// Feed is a generic atom:feed of plain entries.
type Feed struct {
	FeedHead
	Entries []*Entry `gdata:"atom:entry"`
}

// AtomEntries returns the feed's entries.
func (f *Feed) AtomEntries() []*Entry {
	return f.Entries
}

// EntryLister is implemented by feeds that expose their entries as plain
// atom entries, such as batch request feeds.
type EntryLister interface {
	AtomEntries() []*Entry
}

// Entries converts a typed entry slice into plain entries. Service feeds
// use it to implement EntryLister.
func Entries[E Entrier](typed []E) []*Entry {
	out := make([]*Entry, 0, len(typed))
	for _, e := range typed {
		out = append(out, e.AtomEntry())
	}

	return out
}
