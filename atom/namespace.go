// Package atom declares the Atom 1.0, APP and GData core element classes
// shared by every service: entries, feeds, links, people, categories,
// OpenSearch paging and batch markers.
package atom

import "github.com/adamwoolhether/gdata/element"

// Namespaces of the core wire format.
const (
	NS           = "http://www.w3.org/2005/Atom"
	AppNS        = "http://www.w3.org/2007/app"
	GDataNS      = "http://schemas.google.com/g/2005"
	OpenSearchNS = "http://a9.com/-/spec/opensearch/1.1/"
	BatchNS      = "http://schemas.google.com/gdata/batch"
	XHTMLNS      = "http://www.w3.org/1999/xhtml"
)

func init() {
	element.RegisterNamespace("atom", NS)
	element.RegisterNamespace("app", AppNS)
	element.RegisterNamespace("gd", GDataNS)
	element.RegisterNamespace("openSearch", OpenSearchNS)
	element.RegisterNamespace("batch", BatchNS)
	element.RegisterNamespace("xhtml", XHTMLNS)
}

// Link relations.
const (
	RelSelf      = "self"
	RelEdit      = "edit"
	RelEditMedia = "edit-media"
	RelNext      = "next"
	RelPrevious  = "previous"
	RelAlternate = "alternate"
	RelFeed      = GDataNS + "#feed"
	RelPost      = GDataNS + "#post"
	RelBatch     = GDataNS + "#batch"
)

// Content and link media types.
const (
	TypeAtom  = "application/atom+xml"
	TypeText  = "text"
	TypeHTML  = "html"
	TypeXHTML = "xhtml"
)
