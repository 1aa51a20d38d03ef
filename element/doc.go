// Package element binds Atom, APP and GData XML documents to Go structs.
//
// # Declaring Elements
//
// An element class is a struct whose fields carry `gdata` tags. The tags
// name qualified names with a registered namespace prefix (see
// [RegisterNamespace]) or in Clark notation ("{uri}local"):
//
//	type Link struct {
//		element.OpenContent
//		XMLName element.Name `gdata:"atom:link"`
//		Rel     string       `gdata:"rel,attr"`
//		Href    string       `gdata:"href,attr"`
//	}
//
//	type Person struct {
//		element.OpenContent
//		XMLName element.Name `gdata:"atom:author"`
//		Name    *Text        `gdata:"atom:name"`  // single child
//		Emails  []*Text      `gdata:"atom:email"` // repeated child
//	}
//
// The supported tag forms are:
//
//	`gdata:"prefix:local"`       a single (*T) or repeated ([]*T) child element
//	`gdata:"prefix:local,attr"`  a string attribute; omit the prefix for unqualified attributes
//	`gdata:",chardata"`          the string text body
//	`gdata:"-"`                  ignored
//
// A field named XMLName of type [Name] declares the class's own qualified
// name and receives the parsed name. Untagged fields are ignored.
// Embedded structs are flattened, so element classes compose: a service
// entry embeds atom.Entry and adds its own children. When two embedded
// structs declare the same name the shallower one wins.
//
// # Open Content
//
// Classes that embed [OpenContent] keep every child element and attribute
// they do not declare, in document order, as generic [Node] values.
// Serializing writes them back after the declared fields. A class that
// does not embed OpenContent opts out and silently drops unknown content.
//
// # Parsing and Serializing
//
// [Parse] and [Decode] check the document root against the declared name
// and fail with a [*SchemaMismatchError] when they differ. [Marshal] and
// [Encode] declare every namespace once on the root element, using the
// registered prefixes.
package element
