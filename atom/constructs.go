package atom

import (
	"strconv"
	"time"

	"github.com/adamwoolhether/gdata/element"
)

// Value is a simple text-only element such as atom:id or atom:updated.
// Its name comes from the field that holds it.
type Value struct {
	element.OpenContent
	Text string `gdata:",chardata"`
}

// NewValue returns a Value holding s.
func NewValue(s string) *Value {
	return &Value{Text: s}
}

// NewTime returns a Value holding t in RFC 3339 form.
func NewTime(t time.Time) *Value {
	return &Value{Text: t.UTC().Format(time.RFC3339Nano)}
}

// String returns the text, or "" for a nil Value.
func (v *Value) String() string {
	if v == nil {
		return ""
	}

	return v.Text
}

// Int parses the text as a decimal integer; a nil or malformed value is 0.
func (v *Value) Int() int {
	n, err := strconv.Atoi(v.String())
	if err != nil {
		return 0
	}

	return n
}

// Time parses the text as an RFC 3339 timestamp.
func (v *Value) Time() (time.Time, error) {
	return time.Parse(time.RFC3339Nano, v.String())
}

// Text is an Atom text construct: title, subtitle, summary or rights.
type Text struct {
	element.OpenContent
	Type string `gdata:"type,attr"`
	Text string `gdata:",chardata"`
}

// NewText returns a plain text construct.
func NewText(s string) *Text {
	return &Text{Type: TypeText, Text: s}
}

func (t *Text) String() string {
	if t == nil {
		return ""
	}

	return t.Text
}

// Content is atom:content, either inline or out-of-line through Src.
type Content struct {
	element.OpenContent
	Type string `gdata:"type,attr"`
	Src  string `gdata:"src,attr"`
	Text string `gdata:",chardata"`
}

// NewContent returns inline plain text content.
func NewContent(s string) *Content {
	return &Content{Type: TypeText, Text: s}
}

func (c *Content) String() string {
	if c == nil {
		return ""
	}

	return c.Text
}

// Link is atom:link.
type Link struct {
	element.OpenContent
	XMLName  element.Name `gdata:"atom:link"`
	Rel      string       `gdata:"rel,attr"`
	Type     string       `gdata:"type,attr"`
	Href     string       `gdata:"href,attr"`
	HrefLang string       `gdata:"hreflang,attr"`
	Title    string       `gdata:"title,attr"`
	Length   string       `gdata:"length,attr"`
}

// Category is atom:category. GData uses the kind scheme to type entries.
type Category struct {
	element.OpenContent
	XMLName element.Name `gdata:"atom:category"`
	Scheme  string       `gdata:"scheme,attr"`
	Term    string       `gdata:"term,attr"`
	Label   string       `gdata:"label,attr"`
}

// KindScheme is the category scheme GData uses to mark an entry's kind.
const KindScheme = GDataNS + "#kind"

// Person is an atom:author or atom:contributor.
type Person struct {
	element.OpenContent
	Name  *Value `gdata:"atom:name"`
	Email *Value `gdata:"atom:email"`
	URI   *Value `gdata:"atom:uri"`
}

// NewPerson returns a person with a name and, optionally, an email.
func NewPerson(name, email string) *Person {
	p := &Person{Name: NewValue(name)}
	if email != "" {
		p.Email = NewValue(email)
	}

	return p
}

// Generator is atom:generator.
type Generator struct {
	element.OpenContent
	XMLName element.Name `gdata:"atom:generator"`
	URI     string       `gdata:"uri,attr"`
	Version string       `gdata:"version,attr"`
	Text    string       `gdata:",chardata"`
}

// Control is app:control.
type Control struct {
	element.OpenContent
	XMLName element.Name `gdata:"app:control"`
	Draft   *Value       `gdata:"app:draft"`
}

// IsDraft reports whether app:draft is "yes".
func (c *Control) IsDraft() bool {
	return c != nil && c.Draft.String() == "yes"
}
