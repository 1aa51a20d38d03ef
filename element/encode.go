package element

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"maps"
	"reflect"
	"slices"
	"strings"
)

// Marshal serializes v, a pointer to an element struct or a Node, into an
// XML document.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, v); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Encode writes v as an XML document to w.
func Encode(w io.Writer, v any) error {
	n, err := ToNode(v)
	if err != nil {
		return err
	}

	return WriteNode(w, n)
}

// ToNode converts an element struct into a generic node tree. The root is
// named by its XMLName when set, else by the declared name.
func ToNode(v any) (*Node, error) {
	switch n := v.(type) {
	case *Node:
		if n == nil {
			return nil, ErrInvalidTarget
		}
		return n, nil
	case Node:
		return &n, nil
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, fmt.Errorf("%w: nil %T", ErrInvalidTarget, v)
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %T", ErrInvalidTarget, v)
	}

	s, err := schemaOf(rv.Type())
	if err != nil {
		return nil, err
	}

	name := s.name
	if s.xmlName != nil {
		if set := rv.FieldByIndex(s.xmlName).Interface().(Name); !set.IsZero() {
			name = set
		}
	}
	if name.IsZero() {
		return nil, &SchemaError{Type: rv.Type(), Msg: "no element name to serialize under"}
	}

	return unbind(rv, s, name)
}

func unbind(v reflect.Value, s *schema, name Name) (*Node, error) {
	n := &Node{Name: name}

	var open *OpenContent
	if s.open != nil {
		open = v.FieldByIndex(s.open).Addr().Interface().(*OpenContent)
	}

	for _, a := range s.attrs {
		if val := v.FieldByIndex(a.index).String(); val != "" {
			n.Attrs = append(n.Attrs, Attr{Name: a.name, Value: val})
		}
	}
	if open != nil {
		n.Attrs = append(n.Attrs, open.ExtensionAttrs...)
	}

	for _, f := range s.children {
		fv := v.FieldByIndex(f.index)

		if !f.repeated {
			if fv.IsNil() {
				continue
			}
			c, err := unbindChild(fv, f)
			if err != nil {
				return nil, err
			}
			n.Children = append(n.Children, c)
			continue
		}

		for i := range fv.Len() {
			ev := fv.Index(i)
			if ev.IsNil() {
				continue
			}
			c, err := unbindChild(ev, f)
			if err != nil {
				return nil, err
			}
			n.Children = append(n.Children, c)
		}
	}

	if open != nil {
		for _, e := range open.Extensions {
			if e != nil {
				n.Children = append(n.Children, e)
			}
		}
	}

	if s.text != nil {
		n.Text = v.FieldByIndex(s.text).String()
	}

	return n, nil
}

func unbindChild(ptr reflect.Value, f field) (*Node, error) {
	if f.elem == nodeType {
		c := *ptr.Interface().(*Node)
		c.Name = f.name
		return &c, nil
	}

	s, err := schemaOf(f.elem)
	if err != nil {
		return nil, err
	}

	return unbind(ptr.Elem(), s, f.name)
}

// /////////////////////////////////////////////////////////////////

// WriteNode writes n as an XML document. Every namespace in the tree is
// declared once on the root: the root's namespace becomes the default and
// the rest use their registered prefix, or ns0, ns1 and so on.
func WriteNode(w io.Writer, n *Node) error {
	enc := newNSContext(n)

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc.write(&buf, n, true)

	_, err := w.Write(buf.Bytes())
	return err
}

type nsContext struct {
	def    string
	prefix map[string]string // namespace -> prefix
}

func newNSContext(root *Node) *nsContext {
	elemNS := make(map[string]bool)
	attrNS := make(map[string]bool)
	unqualified := false

	root.walk(func(n *Node) {
		if n.Name.Space == "" {
			unqualified = true
		} else {
			elemNS[n.Name.Space] = true
		}
		for _, a := range n.Attrs {
			if a.Name.Space != "" && a.Name.Space != XMLNamespace {
				attrNS[a.Name.Space] = true
			}
		}
	})

	c := &nsContext{prefix: make(map[string]string)}

	// An unqualified element anywhere would need xmlns="" to escape a
	// default namespace, so prefix everything in that case.
	if !unqualified {
		c.def = root.Name.Space
	}

	all := maps.Clone(elemNS)
	maps.Copy(all, attrNS)

	used := map[string]bool{"xml": true, "xmlns": true}
	var pending []string
	for _, ns := range slices.Sorted(maps.Keys(all)) {
		if ns == c.def && !attrNS[ns] {
			continue
		}
		if p, ok := NamespacePrefix(ns); ok && !used[p] {
			c.prefix[ns] = p
			used[p] = true
			continue
		}
		pending = append(pending, ns)
	}

	next := 0
	for _, ns := range pending {
		for used[fmt.Sprintf("ns%d", next)] {
			next++
		}
		p := fmt.Sprintf("ns%d", next)
		c.prefix[ns] = p
		used[p] = true
	}

	return c
}

func (c *nsContext) elemName(n Name) string {
	if n.Space == "" || n.Space == c.def {
		return n.Local
	}

	return c.prefix[n.Space] + ":" + n.Local
}

func (c *nsContext) attrName(n Name) string {
	switch n.Space {
	case "":
		return n.Local
	case XMLNamespace:
		return "xml:" + n.Local
	}

	return c.prefix[n.Space] + ":" + n.Local
}

func (c *nsContext) write(buf *bytes.Buffer, n *Node, root bool) {
	name := c.elemName(n.Name)

	buf.WriteByte('<')
	buf.WriteString(name)

	if root {
		if c.def != "" {
			writeAttr(buf, "xmlns", c.def)
		}

		byPrefix := make(map[string]string, len(c.prefix))
		for ns, p := range c.prefix {
			byPrefix[p] = ns
		}
		for _, p := range slices.Sorted(maps.Keys(byPrefix)) {
			writeAttr(buf, "xmlns:"+p, byPrefix[p])
		}
	}

	for _, a := range n.Attrs {
		writeAttr(buf, c.attrName(a.Name), a.Value)
	}

	if len(n.Children) == 0 && n.Text == "" {
		buf.WriteString("/>")
		return
	}

	buf.WriteByte('>')
	textEscaper.WriteString(buf, n.Text)
	for _, child := range n.Children {
		c.write(buf, child, false)
		textEscaper.WriteString(buf, child.Tail)
	}
	buf.WriteString("</")
	buf.WriteString(name)
	buf.WriteByte('>')
}

var textEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\r", "&#xD;",
)

func writeAttr(buf *bytes.Buffer, name, value string) {
	buf.WriteByte(' ')
	buf.WriteString(name)
	buf.WriteString(`="`)
	_ = xml.EscapeText(buf, []byte(value))
	buf.WriteByte('"')
}
