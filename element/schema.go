package element

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"
)

var (
	nameType = reflect.TypeFor[Name]()
	nodeType = reflect.TypeFor[Node]()
	openType = reflect.TypeFor[OpenContent]()
)

type fieldKind int

const (
	kindXMLName fieldKind = iota
	kindOpen
	kindAttr
	kindChild
	kindText
)

type field struct {
	kind     fieldKind
	name     Name
	index    []int
	depth    int
	repeated bool
	elem     reflect.Type // child struct type, pointer stripped
	goName   string
}

// schema is the flattened, validated declaration of an element class.
type schema struct {
	typ      reflect.Type
	name     Name
	xmlName  []int
	open     []int
	text     []int
	attrs    []field
	children []field
	byAttr   map[Name]int
	byChild  map[Name]int
}

var schemas sync.Map // reflect.Type -> *schema

func schemaOf(t reflect.Type) (*schema, error) {
	if s, ok := schemas.Load(t); ok {
		return s.(*schema), nil
	}

	s, err := buildSchema(t)
	if err != nil {
		return nil, err
	}

	actual, _ := schemas.LoadOrStore(t, s)
	return actual.(*schema), nil
}

// DeclaredName returns the qualified name the struct type of v declares
// through its XMLName field.
func DeclaredName(v any) (Name, error) {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return Name{}, ErrInvalidTarget
	}

	s, err := schemaOf(t)
	if err != nil {
		return Name{}, err
	}

	return s.name, nil
}

func buildSchema(t reflect.Type) (*schema, error) {
	if t.Kind() != reflect.Struct {
		return nil, &SchemaError{Type: t, Msg: "element class must be a struct"}
	}

	var fields []field
	if err := collectFields(t, t, nil, 0, &fields); err != nil {
		return nil, err
	}

	type key struct {
		kind fieldKind
		name Name
	}
	keyOf := func(f field) key {
		if f.kind == kindAttr || f.kind == kindChild {
			return key{f.kind, f.name}
		}
		return key{kind: f.kind}
	}

	// The shallowest declaration of each name dominates; two at the same
	// depth are ambiguous.
	shallowest := make(map[key]int)
	count := make(map[key]int)
	for _, f := range fields {
		k := keyOf(f)
		d, seen := shallowest[k]
		switch {
		case !seen || f.depth < d:
			shallowest[k] = f.depth
			count[k] = 1
		case f.depth == d:
			count[k]++
		}
	}

	s := &schema{
		typ:     t,
		byAttr:  make(map[Name]int),
		byChild: make(map[Name]int),
	}

	for _, f := range fields {
		k := keyOf(f)
		if f.depth != shallowest[k] {
			continue
		}
		if count[k] > 1 {
			return nil, &SchemaError{Type: t, Field: f.goName, Msg: fmt.Sprintf("ambiguous declaration of %s", describe(f))}
		}

		switch f.kind {
		case kindXMLName:
			s.xmlName = f.index
			s.name = f.name
		case kindOpen:
			s.open = f.index
		case kindText:
			s.text = f.index
		case kindAttr:
			s.byAttr[f.name] = len(s.attrs)
			s.attrs = append(s.attrs, f)
		case kindChild:
			s.byChild[f.name] = len(s.children)
			s.children = append(s.children, f)
		}
	}

	return s, nil
}

func describe(f field) string {
	switch f.kind {
	case kindXMLName:
		return "XMLName"
	case kindOpen:
		return "OpenContent"
	case kindText:
		return "chardata"
	case kindAttr:
		return "attribute " + f.name.String()
	default:
		return "element " + f.name.String()
	}
}

func collectFields(root, t reflect.Type, index []int, depth int, out *[]field) error {
	for i := range t.NumField() {
		sf := t.Field(i)
		tag, tagged := sf.Tag.Lookup("gdata")
		if tag == "-" {
			continue
		}

		idx := append(slices.Clone(index), i)

		if sf.Anonymous && !tagged {
			switch {
			case sf.Type == openType:
				*out = append(*out, field{kind: kindOpen, index: idx, depth: depth, goName: sf.Name})
			case sf.Type.Kind() == reflect.Struct:
				if err := collectFields(root, sf.Type, idx, depth+1, out); err != nil {
					return err
				}
			}
			continue
		}

		if !sf.IsExported() {
			continue
		}

		if sf.Name == "XMLName" {
			if sf.Type != nameType {
				return &SchemaError{Type: root, Field: sf.Name, Msg: "XMLName must be of type element.Name"}
			}
			name, err := parseName(tag)
			if err != nil {
				return &SchemaError{Type: root, Field: sf.Name, Msg: err.Error()}
			}
			*out = append(*out, field{kind: kindXMLName, name: name, index: idx, depth: depth, goName: sf.Name})
			continue
		}

		if !tagged {
			continue
		}

		f, err := taggedField(sf, tag)
		if err != nil {
			return &SchemaError{Type: root, Field: sf.Name, Msg: err.Error()}
		}
		f.index = idx
		f.depth = depth
		*out = append(*out, f)
	}

	return nil
}

func taggedField(sf reflect.StructField, tag string) (field, error) {
	raw, opt, _ := strings.Cut(tag, ",")

	name, err := parseName(raw)
	if err != nil {
		return field{}, err
	}

	f := field{name: name, goName: sf.Name}

	switch opt {
	case "attr":
		if sf.Type.Kind() != reflect.String {
			return field{}, fmt.Errorf("attribute field must be a string, got %s", sf.Type)
		}
		if name.IsZero() {
			return field{}, fmt.Errorf("attribute field needs a name")
		}
		f.kind = kindAttr

	case "chardata":
		if sf.Type.Kind() != reflect.String {
			return field{}, fmt.Errorf("chardata field must be a string, got %s", sf.Type)
		}
		f.kind = kindText
		f.name = Name{}

	case "":
		if name.IsZero() {
			return field{}, fmt.Errorf("child element field needs a name")
		}
		f.kind = kindChild

		t := sf.Type
		if t.Kind() == reflect.Slice {
			f.repeated = true
			t = t.Elem()
		}
		if t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Struct {
			return field{}, fmt.Errorf("child element field must be *T or []*T for a struct T, got %s", sf.Type)
		}
		f.elem = t.Elem()

	default:
		return field{}, fmt.Errorf("unknown tag option %q", opt)
	}

	return f, nil
}
