package element

// OpenContent holds the attributes and child elements a class does not
// declare. Embed it in an element struct to preserve extensions.
type OpenContent struct {
	ExtensionAttrs []Attr
	Extensions     []*Node
}

// Extension returns the first extension element with the given name, or nil.
func (o *OpenContent) Extension(name Name) *Node {
	for _, n := range o.Extensions {
		if n.Name == name {
			return n
		}
	}

	return nil
}

// ExtensionsNamed returns every extension element with the given name.
func (o *OpenContent) ExtensionsNamed(name Name) []*Node {
	var out []*Node
	for _, n := range o.Extensions {
		if n.Name == name {
			out = append(out, n)
		}
	}

	return out
}

// ExtensionsInSpace returns every extension element in namespace space.
func (o *OpenContent) ExtensionsInSpace(space string) []*Node {
	var out []*Node
	for _, n := range o.Extensions {
		if n.Name.Space == space {
			out = append(out, n)
		}
	}

	return out
}

// AddExtension appends extension elements.
func (o *OpenContent) AddExtension(nodes ...*Node) {
	o.Extensions = append(o.Extensions, nodes...)
}

// SetExtension replaces the first extension with the same name as n, or
// appends n when there is none.
func (o *OpenContent) SetExtension(n *Node) {
	for i, e := range o.Extensions {
		if e.Name == n.Name {
			o.Extensions[i] = n
			return
		}
	}

	o.Extensions = append(o.Extensions, n)
}

// RemoveExtensions drops every extension element with the given name and
// reports how many were removed.
func (o *OpenContent) RemoveExtensions(name Name) int {
	kept := o.Extensions[:0]
	for _, n := range o.Extensions {
		if n.Name != name {
			kept = append(kept, n)
		}
	}

	removed := len(o.Extensions) - len(kept)
	clear(o.Extensions[len(kept):])
	o.Extensions = kept
	if len(o.Extensions) == 0 {
		o.Extensions = nil
	}

	return removed
}

// ExtensionAttr returns the value of an undeclared attribute.
func (o *OpenContent) ExtensionAttr(name Name) (string, bool) {
	for _, a := range o.ExtensionAttrs {
		if a.Name == name {
			return a.Value, true
		}
	}

	return "", false
}

// SetExtensionAttr sets an undeclared attribute.
func (o *OpenContent) SetExtensionAttr(name Name, value string) {
	for i := range o.ExtensionAttrs {
		if o.ExtensionAttrs[i].Name == name {
			o.ExtensionAttrs[i].Value = value
			return
		}
	}

	o.ExtensionAttrs = append(o.ExtensionAttrs, Attr{Name: name, Value: value})
}
