package element

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// XMLNamespace is the namespace bound to the reserved "xml" prefix.
const XMLNamespace = "http://www.w3.org/XML/1998/namespace"

// Name is a namespace-qualified XML name.
type Name struct {
	Space string
	Local string
}

// N is shorthand for Name{Space: space, Local: local}.
func N(space, local string) Name {
	return Name{Space: space, Local: local}
}

// String renders the name in Clark notation.
func (n Name) String() string {
	if n.Space == "" {
		return n.Local
	}

	return "{" + n.Space + "}" + n.Local
}

// IsZero reports whether the name is unset.
func (n Name) IsZero() bool {
	return n == Name{}
}

// Attr is a single XML attribute.
type Attr struct {
	Name  Name
	Value string
}

// Node is a generic XML element: name, attributes and child elements in
// document order. Text is the character data before the first child and
// each child's Tail is the character data that follows it, so mixed
// content keeps its order.
type Node struct {
	Name     Name
	Attrs    []Attr
	Children []*Node
	Text     string
	Tail     string
}

// NewNode returns a leaf node with the given text.
func NewNode(space, local, text string) *Node {
	return &Node{Name: N(space, local), Text: text}
}

// Attr returns the value of the named attribute, or "".
func (n *Node) Attr(name Name) string {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value
		}
	}

	return ""
}

// SetAttr sets the named attribute, replacing an existing value.
func (n *Node) SetAttr(name Name, value string) {
	for i := range n.Attrs {
		if n.Attrs[i].Name == name {
			n.Attrs[i].Value = value
			return
		}
	}

	n.Attrs = append(n.Attrs, Attr{Name: name, Value: value})
}

// Child returns the first child with the given name, or nil.
func (n *Node) Child(name Name) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}

	return nil
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	c := &Node{Name: n.Name, Text: n.Text, Tail: n.Tail, Attrs: slices.Clone(n.Attrs)}
	for _, child := range n.Children {
		c.Children = append(c.Children, child.Clone())
	}

	return c
}

func (n *Node) walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.walk(fn)
	}
}

// /////////////////////////////////////////////////////////////////

var namespaces = struct {
	sync.RWMutex
	byPrefix map[string]string
	byURI    map[string]string
}{
	byPrefix: map[string]string{"xml": XMLNamespace},
	byURI:    map[string]string{XMLNamespace: "xml"},
}

// RegisterNamespace binds prefix to uri for use in `gdata` struct tags
// and as the canonical prefix when serializing. Registering the same pair
// twice is a no-op; rebinding a prefix to a different uri panics.
func RegisterNamespace(prefix, uri string) {
	namespaces.Lock()
	defer namespaces.Unlock()

	if bound, ok := namespaces.byPrefix[prefix]; ok {
		if bound == uri {
			return
		}
		panic(fmt.Sprintf("element: prefix %q already bound to %q", prefix, bound))
	}

	namespaces.byPrefix[prefix] = uri
	if _, ok := namespaces.byURI[uri]; !ok {
		namespaces.byURI[uri] = prefix
	}
}

// NamespaceURI returns the namespace registered for prefix.
func NamespaceURI(prefix string) (string, bool) {
	namespaces.RLock()
	defer namespaces.RUnlock()

	uri, ok := namespaces.byPrefix[prefix]
	return uri, ok
}

// NamespacePrefix returns the canonical prefix registered for uri.
func NamespacePrefix(uri string) (string, bool) {
	namespaces.RLock()
	defer namespaces.RUnlock()

	prefix, ok := namespaces.byURI[uri]
	return prefix, ok
}

// Namespaces returns a copy of the prefix to namespace registry.
func Namespaces() map[string]string {
	namespaces.RLock()
	defer namespaces.RUnlock()

	return maps.Clone(namespaces.byPrefix)
}

// parseName resolves a tag name: "", "local", "prefix:local" or "{uri}local".
func parseName(s string) (Name, error) {
	if s == "" {
		return Name{}, nil
	}

	if rest, ok := strings.CutPrefix(s, "{"); ok {
		uri, local, ok := strings.Cut(rest, "}")
		if !ok || local == "" {
			return Name{}, fmt.Errorf("malformed name %q", s)
		}
		return Name{Space: uri, Local: local}, nil
	}

	prefix, local, ok := strings.Cut(s, ":")
	if !ok {
		return Name{Local: s}, nil
	}

	uri, found := NamespaceURI(prefix)
	if !found {
		return Name{}, fmt.Errorf("unregistered namespace prefix %q in %q", prefix, s)
	}

	return Name{Space: uri, Local: local}, nil
}
