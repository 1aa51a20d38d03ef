// Package gbase declares Google Base items. An item's attributes are
// g:<name> elements whose names and types vary per item type, so they are
// kept in the entry's extension bag and accessed by name.
package gbase

import (
	"strings"

	"github.com/adamwoolhether/gdata/atom"
	"github.com/adamwoolhether/gdata/element"
	"github.com/adamwoolhether/gdata/query"
)

// Namespaces of item attributes and attribute metadata.
const (
	NS         = "http://base.google.com/ns/1.0"
	MetadataNS = "http://base.google.com/ns-metadata/1.0"
)

func init() {
	element.RegisterNamespace("g", NS)
	element.RegisterNamespace("gm", MetadataNS)
}

// Feed paths.
const (
	SnippetsFeed = "/base/feeds/snippets"
	ItemsFeed    = "/base/feeds/items"
)

// Attribute types.
const (
	TypeText       = "text"
	TypeInt        = "int"
	TypeFloat      = "float"
	TypeNumberUnit = "numberUnit"
	TypeDateTime   = "dateTime"
	TypeURL        = "url"
)

var typeAttr = element.N("", "type")

// Attribute is one g: element.
type Attribute struct {
	Name  string
	Type  string
	Value string
}

func attrName(name string) element.Name {
	return element.N(NS, strings.ReplaceAll(strings.ToLower(name), " ", "_"))
}

// ItemEntry is a Google Base item.
type ItemEntry struct {
	atom.Entry
}

// NewItem returns an item of the given type, e.g. "products".
func NewItem(title, description, itemType string) *ItemEntry {
	e := &ItemEntry{Entry: *atom.NewEntry(title, description)}
	e.SetAttribute("item type", TypeText, itemType)

	return e
}

// ItemType returns the g:item_type attribute.
func (e *ItemEntry) ItemType() string {
	return e.Attribute("item type").Value
}

// Attribute returns the first attribute with name; Value is "" when the
// item has none.
func (e *ItemEntry) Attribute(name string) Attribute {
	n := e.Extension(attrName(name))
	if n == nil {
		return Attribute{Name: name}
	}

	return Attribute{Name: n.Name.Local, Type: n.Attr(typeAttr), Value: n.Text}
}

// AttributeValues returns every value of a repeated attribute.
func (e *ItemEntry) AttributeValues(name string) []string {
	var out []string
	for _, n := range e.ExtensionsNamed(attrName(name)) {
		out = append(out, n.Text)
	}

	return out
}

// SetAttribute replaces the first attribute with name.
func (e *ItemEntry) SetAttribute(name, typ, value string) {
	e.SetExtension(attrNode(name, typ, value))
}

// AddAttribute appends a value to a repeated attribute.
func (e *ItemEntry) AddAttribute(name, typ, value string) {
	e.AddExtension(attrNode(name, typ, value))
}

// RemoveAttribute drops every value of name.
func (e *ItemEntry) RemoveAttribute(name string) int {
	return e.RemoveExtensions(attrName(name))
}

// Attributes lists the item's attributes in document order.
func (e *ItemEntry) Attributes() []Attribute {
	var out []Attribute
	for _, n := range e.ExtensionsInSpace(NS) {
		out = append(out, Attribute{Name: n.Name.Local, Type: n.Attr(typeAttr), Value: n.Text})
	}

	return out
}

func attrNode(name, typ, value string) *element.Node {
	n := attrName(name)
	node := element.NewNode(n.Space, n.Local, value)
	if typ != "" {
		node.SetAttr(typeAttr, typ)
	}

	return node
}

// ItemFeed is a feed of items.
type ItemFeed struct {
	atom.FeedHead
	Entries []*ItemEntry `gdata:"atom:entry"`
}

// AtomEntries implements atom.EntryLister.
func (f *ItemFeed) AtomEntries() []*atom.Entry {
	return atom.Entries(f.Entries)
}

// ItemQuery adds the Base query language to a feed query.
type ItemQuery struct {
	*query.Query
}

// NewItemQuery returns a query against an item feed.
func NewItemQuery(feed string) *ItemQuery {
	return &ItemQuery{Query: query.New(feed)}
}

// BQ sets a Base query such as "[item type:products][price < 100 USD]".
func (q *ItemQuery) BQ(bq string) *ItemQuery { q.Set("bq", bq); return q }

// MaxValues caps the values returned per attribute in attribute feeds.
func (q *ItemQuery) MaxValues(n int) *ItemQuery { q.SetInt("max-values", n); return q }

// Crowd groups results by an attribute, e.g. "brand".
func (q *ItemQuery) Crowd(attr string) *ItemQuery { q.Set("crowdby", attr); return q }
