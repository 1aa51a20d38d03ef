package element

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"golang.org/x/net/html/charset"
)

// Parse decodes the XML document in data into v, which must be a non-nil
// pointer to an element struct or to a Node.
func Parse(data []byte, v any) error {
	return Decode(bytes.NewReader(data), v)
}

// Decode reads one XML document from r into v. Documents that declare a
// non UTF-8 encoding are transcoded.
func Decode(r io.Reader, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("%w: %T", ErrInvalidTarget, v)
	}

	root, err := ReadNode(r)
	if err != nil {
		return err
	}

	return FromNode(root, v)
}

// ReadNode reads one XML document from r as a generic node tree.
func ReadNode(r io.Reader) (*Node, error) {
	d := xml.NewDecoder(r)
	d.CharsetReader = charset.NewReaderLabel

	for {
		tok, err := d.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("reading document: %w", io.ErrUnexpectedEOF)
			}
			return nil, fmt.Errorf("reading document: %w", err)
		}

		if start, ok := tok.(xml.StartElement); ok {
			return readElement(d, start)
		}
	}
}

func readElement(d *xml.Decoder, start xml.StartElement) (*Node, error) {
	n := &Node{Name: Name(start.Name)}

	for _, a := range start.Attr {
		if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
			continue
		}
		n.Attrs = append(n.Attrs, Attr{Name: Name(a.Name), Value: a.Value})
	}

	// segments[0] precedes the first child; segments[i] follows child i.
	segments := []*strings.Builder{{}}
	for {
		tok, err := d.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return nil, fmt.Errorf("reading %s: %w", n.Name, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			child, err := readElement(d, t)
			if err != nil {
				return nil, err
			}
			n.Children = append(n.Children, child)
			segments = append(segments, &strings.Builder{})

		case xml.CharData:
			segments[len(segments)-1].Write(t)

		case xml.EndElement:
			setText(n, segments)
			return n, nil
		}
	}
}

// setText distributes the character data of n over Text and the children's
// tails. Element-only content, where every segment is blank, loses its
// leading and trailing indentation; whitespace between siblings stays.
func setText(n *Node, segments []*strings.Builder) {
	n.Text = segments[0].String()
	for i, c := range n.Children {
		c.Tail = segments[i+1].String()
	}

	if len(n.Children) == 0 {
		return
	}
	for _, seg := range segments {
		if strings.TrimSpace(seg.String()) != "" {
			return
		}
	}

	n.Text = ""
	n.Children[len(n.Children)-1].Tail = ""
}

// FromNode binds a node tree into v, which must be a non-nil pointer to an
// element struct or to a Node. The target is reset first.
func FromNode(n *Node, v any) error {
	if dst, ok := v.(*Node); ok {
		if dst == nil {
			return ErrInvalidTarget
		}
		*dst = *n
		return nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w: %T", ErrInvalidTarget, v)
	}

	s, err := schemaOf(rv.Elem().Type())
	if err != nil {
		return err
	}

	if !s.name.IsZero() && s.name != n.Name {
		return &SchemaMismatchError{Want: s.name, Got: n.Name}
	}

	target := rv.Elem()
	target.SetZero()

	return bind(n, target, s)
}

func bind(n *Node, v reflect.Value, s *schema) error {
	if s.xmlName != nil {
		v.FieldByIndex(s.xmlName).Set(reflect.ValueOf(n.Name))
	}

	var open *OpenContent
	if s.open != nil {
		open = v.FieldByIndex(s.open).Addr().Interface().(*OpenContent)
	}

	for _, a := range n.Attrs {
		if i, ok := s.byAttr[a.Name]; ok {
			v.FieldByIndex(s.attrs[i].index).SetString(a.Value)
			continue
		}
		if open != nil {
			open.ExtensionAttrs = append(open.ExtensionAttrs, a)
		}
	}

	for _, c := range n.Children {
		c = detach(c)

		i, ok := s.byChild[c.Name]
		if !ok {
			if open != nil {
				open.Extensions = append(open.Extensions, c)
			}
			continue
		}

		f := s.children[i]
		fv := v.FieldByIndex(f.index)

		// A second occurrence of a single-valued child is kept as an
		// extension so nothing is lost on re-serialization.
		if !f.repeated && !fv.IsNil() {
			if open != nil {
				open.Extensions = append(open.Extensions, c)
			}
			continue
		}

		ev, err := bindChild(c, f.elem)
		if err != nil {
			return err
		}

		if f.repeated {
			fv.Set(reflect.Append(fv, ev))
		} else {
			fv.Set(ev)
		}
	}

	if s.text != nil {
		v.FieldByIndex(s.text).SetString(n.Text)
	}

	return nil
}

// detach drops a blank tail from a child bound into a struct, where its
// position among the siblings is not kept.
func detach(c *Node) *Node {
	if c.Tail == "" || strings.TrimSpace(c.Tail) != "" {
		return c
	}

	cc := *c
	cc.Tail = ""

	return &cc
}

func bindChild(n *Node, t reflect.Type) (reflect.Value, error) {
	if t == nodeType {
		return reflect.ValueOf(n), nil
	}

	s, err := schemaOf(t)
	if err != nil {
		return reflect.Value{}, err
	}

	ptr := reflect.New(t)
	if err := bind(n, ptr.Elem(), s); err != nil {
		return reflect.Value{}, err
	}

	return ptr, nil
}
