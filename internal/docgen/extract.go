// Package docgen extracts component API documentation from TSX/JSX sources:
// display name, description and props.
package docgen

import (
	"context"
	"fmt"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
)

// ComponentDoc is the extracted documentation of one component file.
type ComponentDoc struct {
	DisplayName string `json:"displayName"`
	Description string `json:"description,omitempty"`
	FilePath    string `json:"filePath"`
	Props       []Prop `json:"props"`
}

// Prop documents one property. Props keep their declaration order.
type Prop struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Required     bool   `json:"required"`
	Description  string `json:"description,omitempty"`
	DefaultValue string `json:"defaultValue,omitempty"`
}

// component is a candidate declaration that may be the file's component.
type component struct {
	name      string
	fn        *sitter.Node // function, arrow function or wrapping call
	typ       *sitter.Node // type annotation of a variable declarator
	doc       *sitter.Node // statement whose leading comments document it
	exported  bool
	isDefault bool
}

type typeDecl struct {
	body    *sitter.Node
	extends *sitter.Node
}

type file struct {
	src        []byte
	components []*component
	types      map[string]typeDecl
	defaultRef string
}

// Extract parses src (a TSX or JSX module) and documents its component.
// Sources with syntax errors still yield whatever could be recovered.
func Extract(ctx context.Context, filePath string, src []byte) (*ComponentDoc, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(tsx.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filePath, err)
	}
	defer tree.Close()

	f := &file{src: src, types: make(map[string]typeDecl)}
	f.collect(tree.RootNode())

	base := strings.TrimSuffix(path.Base(filePath), path.Ext(filePath))
	doc := &ComponentDoc{DisplayName: base, FilePath: filePath, Props: []Prop{}}

	c := f.choose(base)
	if c == nil {
		return doc, nil
	}
	if c.name != "" {
		doc.DisplayName = c.name
	}
	doc.Description, _ = jsDoc(leadingComment(c.doc, src))

	if body := f.propsType(c, doc.DisplayName); body != nil {
		doc.Props = f.props(body, map[string]bool{})
	}
	defaults := f.defaults(c.fn)
	for i := range doc.Props {
		if v, ok := defaults[doc.Props[i].Name]; ok {
			doc.Props[i].DefaultValue = v
		}
	}
	return doc, nil
}

func (f *file) collect(root *sitter.Node) {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		stmt := root.NamedChild(i)
		if stmt.Type() != "export_statement" {
			f.declare(stmt, stmt, false, false)
			continue
		}
		isDefault := hasToken(stmt, "default")
		if d := stmt.ChildByFieldName("declaration"); d != nil {
			f.declare(d, stmt, true, isDefault)
			continue
		}
		v := stmt.ChildByFieldName("value")
		if v == nil || !isDefault {
			continue
		}
		if v.Type() == "identifier" {
			f.defaultRef = v.Content(f.src)
			continue
		}
		// export default memo(function Button() {...}) and friends.
		f.components = append(f.components, &component{
			name: nameOf(innerFunction(v), f.src), fn: v, doc: stmt, exported: true, isDefault: true,
		})
	}
}

func (f *file) declare(n, doc *sitter.Node, exported, isDefault bool) {
	switch n.Type() {
	case "function_declaration", "generator_function_declaration", "class_declaration", "function_expression", "function":
		f.components = append(f.components, &component{
			name: nameOf(n, f.src), fn: n, doc: doc, exported: exported, isDefault: isDefault,
		})
	case "lexical_declaration", "variable_declaration":
		for j := 0; j < int(n.NamedChildCount()); j++ {
			d := n.NamedChild(j)
			if d.Type() != "variable_declarator" {
				continue
			}
			name := d.ChildByFieldName("name")
			if name == nil || name.Type() != "identifier" {
				continue
			}
			f.components = append(f.components, &component{
				name: name.Content(f.src), fn: d.ChildByFieldName("value"), typ: d.ChildByFieldName("type"),
				doc: doc, exported: exported, isDefault: isDefault,
			})
		}
	case "interface_declaration":
		if name := n.ChildByFieldName("name"); name != nil {
			td := typeDecl{body: n.ChildByFieldName("body")}
			for j := 0; j < int(n.NamedChildCount()); j++ {
				if c := n.NamedChild(j); c.Type() == "extends_type_clause" {
					td.extends = c
				}
			}
			f.types[name.Content(f.src)] = td
		}
	case "type_alias_declaration":
		if name := n.ChildByFieldName("name"); name != nil {
			f.types[name.Content(f.src)] = typeDecl{body: n.ChildByFieldName("value")}
		}
	}
}

// choose picks the documented component: the default export, then the
// export named like the file, then the first exported capitalized name.
func (f *file) choose(base string) *component {
	if f.defaultRef != "" {
		for _, c := range f.components {
			if c.name == f.defaultRef {
				return c
			}
		}
	}
	for _, c := range f.components {
		if c.isDefault {
			return c
		}
	}
	for _, c := range f.components {
		if c.exported && strings.EqualFold(c.name, base) {
			return c
		}
	}
	for _, c := range f.components {
		if c.exported && capitalized(c.name) {
			return c
		}
	}
	return nil
}

// propsType finds the declaration describing the component's props:
// <Name>Props, then the annotated type of the first parameter, then the
// declarator's own annotation (React.FC<Props>).
func (f *file) propsType(c *component, name string) *sitter.Node {
	if td, ok := f.types[name+"Props"]; ok {
		return f.typeNode(td)
	}
	var annotations []*sitter.Node
	if fn := innerFunction(c.fn); fn != nil {
		if param := firstParam(fn); param != nil {
			annotations = append(annotations, param.ChildByFieldName("type"))
		}
	}
	annotations = append(annotations, c.typ)
	for _, a := range annotations {
		if a == nil {
			continue
		}
		var found *sitter.Node
		walk(a, func(n *sitter.Node) bool {
			if found != nil {
				return false
			}
			if n.Type() == "type_identifier" {
				if td, ok := f.types[n.Content(f.src)]; ok {
					found = f.typeNode(td)
					return false
				}
			}
			if n.Type() == "object_type" {
				found = n
				return false
			}
			return true
		})
		if found != nil {
			return found
		}
	}
	return nil
}

// typeNode wraps an interface's own body together with the types it extends.
func (f *file) typeNode(td typeDecl) *sitter.Node {
	if td.extends == nil {
		return td.body
	}
	return td.extends.Parent()
}

func (f *file) props(n *sitter.Node, seen map[string]bool) []Prop {
	if n == nil {
		return nil
	}
	var out []Prop
	switch n.Type() {
	case "interface_declaration":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			if c.Type() == "extends_type_clause" {
				out = append(out, f.props(c, seen)...)
			}
		}
		out = append(out, f.props(n.ChildByFieldName("body"), seen)...)
	case "object_type", "interface_body":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			m := n.NamedChild(i)
			if p, ok := f.member(m); ok && !seen[p.Name] {
				seen[p.Name] = true
				out = append(out, p)
			}
		}
	case "type_identifier":
		name := n.Content(f.src)
		if td, ok := f.types[name]; ok && !seen["type:"+name] {
			seen["type:"+name] = true
			out = append(out, f.props(f.typeNode(td), seen)...)
		}
	default:
		// Intersections, parenthesized types and extends clauses.
		for i := 0; i < int(n.NamedChildCount()); i++ {
			out = append(out, f.props(n.NamedChild(i), seen)...)
		}
	}
	return out
}

func (f *file) member(m *sitter.Node) (Prop, bool) {
	switch m.Type() {
	case "property_signature", "method_signature":
	default:
		return Prop{}, false
	}
	name := m.ChildByFieldName("name")
	if name == nil {
		return Prop{}, false
	}
	p := Prop{Name: strings.Trim(name.Content(f.src), `"'`), Required: !hasToken(m, "?")}
	if m.Type() == "method_signature" {
		p.Type = strings.TrimSpace(string(f.src[name.EndByte():m.EndByte()]))
	} else if t := m.ChildByFieldName("type"); t != nil {
		p.Type = strings.TrimSpace(strings.TrimPrefix(t.Content(f.src), ":"))
	}
	desc, tags := jsDoc(leadingComment(m, f.src))
	p.Description = desc
	if v, ok := tags["default"]; ok {
		p.DefaultValue = v
	} else if v, ok := tags["defaultValue"]; ok {
		p.DefaultValue = v
	}
	return p, true
}

// defaults reads destructuring defaults from the component's first
// parameter, e.g. ({ size = 'md' }) => ...
func (f *file) defaults(fn *sitter.Node) map[string]string {
	out := make(map[string]string)
	param := firstParam(innerFunction(fn))
	if param == nil {
		return out
	}
	pattern := param.ChildByFieldName("pattern")
	if pattern == nil || pattern.Type() != "object_pattern" {
		return out
	}
	for i := 0; i < int(pattern.NamedChildCount()); i++ {
		p := pattern.NamedChild(i)
		switch p.Type() {
		case "object_assignment_pattern":
			left, right := p.ChildByFieldName("left"), p.ChildByFieldName("right")
			if left != nil && right != nil {
				out[left.Content(f.src)] = right.Content(f.src)
			}
		case "pair_pattern":
			key, value := p.ChildByFieldName("key"), p.ChildByFieldName("value")
			if key == nil || value == nil || value.Type() != "assignment_pattern" {
				continue
			}
			if right := value.ChildByFieldName("right"); right != nil {
				out[key.Content(f.src)] = right.Content(f.src)
			}
		}
	}
	return out
}

// innerFunction unwraps wrappers such as forwardRef(...) and memo(...) down
// to the function that receives props.
func innerFunction(n *sitter.Node) *sitter.Node {
	for depth := 0; n != nil && depth < 4; depth++ {
		switch n.Type() {
		case "function_declaration", "function_expression", "function", "arrow_function", "generator_function_declaration":
			return n
		case "call_expression":
			args := n.ChildByFieldName("arguments")
			if args == nil || args.NamedChildCount() == 0 {
				return nil
			}
			n = args.NamedChild(0)
		case "parenthesized_expression", "as_expression", "satisfies_expression":
			n = n.NamedChild(0)
		default:
			return nil
		}
	}
	return nil
}

func firstParam(fn *sitter.Node) *sitter.Node {
	if fn == nil {
		return nil
	}
	params := fn.ChildByFieldName("parameters")
	if params == nil || params.NamedChildCount() == 0 {
		return nil
	}
	p := params.NamedChild(0)
	if p.Type() != "required_parameter" && p.Type() != "optional_parameter" {
		return nil
	}
	return p
}

func nameOf(n *sitter.Node, src []byte) string {
	if n == nil {
		return ""
	}
	if name := n.ChildByFieldName("name"); name != nil {
		return name.Content(src)
	}
	return ""
}

func hasToken(n *sitter.Node, tok string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); !c.IsNamed() && c.Type() == tok {
			return true
		}
	}
	return false
}

func capitalized(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsUpper(r)
}

func walk(n *sitter.Node, fn func(*sitter.Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		walk(n.NamedChild(i), fn)
	}
}
