package parser

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"

	"github.com/olehluchkiv/functrait/internal/syntax"
)

// The grammar does not accept every valid trait header. Two shapes come
// back with ERROR nodes that the converter repairs itself:
//
//	impl 'a + Future<Output = T>    a leading lifetime in an opaque type
//	trait T<const N: usize = 3>     a const parameter default

// firstError returns the first ERROR or MISSING node under n that the
// converter cannot repair, or nil.
func (c *converter) firstError(n *sitter.Node) *sitter.Node {
	if n.IsError() {
		if c.recoverableConstDefault(n) {
			return nil
		}
		return n
	}
	if n.IsMissing() {
		return n
	}
	if !n.HasError() || isOpaque(n) {
		return nil
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if e := c.firstError(n.Child(i)); e != nil {
			return e
		}
	}
	return nil
}

// isOpaque reports whether n is an impl type, possibly with extra bounds
// attached by the grammar.
func isOpaque(n *sitter.Node) bool {
	switch n.Type() {
	case "abstract_type":
		return true
	case "bounded_type":
		parts := flattenBounded(n)
		return len(parts) > 0 && parts[0].Type() == "abstract_type"
	}
	return false
}

func (c *converter) recoverableConstDefault(n *sitter.Node) bool {
	parent := n.Parent()
	prev := n.PrevNamedSibling()
	return parent != nil && parent.Type() == "type_parameters" &&
		prev != nil && prev.Type() == "const_parameter" &&
		constDefault(c.text(n)) != ""
}

// constDefault extracts the value from the text of a stray "= value".
func constDefault(text string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), "="))
}

// opaqueFromText rebuilds an impl type the grammar could not parse. The
// lifetime bounds are split off, the rest is parsed on its own, and the
// bounds are put back in their written order.
func (c *converter) opaqueFromText(n *sitter.Node) (syntax.TypeExpr, error) {
	text := strings.TrimSpace(c.text(n))
	if !strings.HasPrefix(text, "impl") {
		return nil, c.errorf(n, "cannot parse type %q", text)
	}
	pieces := splitTopLevel(strings.TrimPrefix(text, "impl"), '+')

	var traits []string
	for _, p := range pieces {
		if !strings.HasPrefix(p, "'") {
			traits = append(traits, p)
		}
	}
	var parsed []syntax.Bound
	if len(traits) > 0 {
		var err error
		if parsed, err = parseBounds(strings.Join(traits, " + ")); err != nil || len(parsed) != len(traits) {
			return nil, c.errorf(n, "cannot parse type %q", text)
		}
	}

	var bounds []syntax.Bound
	for _, p := range pieces {
		if strings.HasPrefix(p, "'") {
			bounds = append(bounds, &syntax.LifetimeBound{Name: p})
			continue
		}
		bounds = append(bounds, parsed[0])
		parsed = parsed[1:]
	}
	return &syntax.ImplTraitType{Bounds: bounds}, nil
}

// parseBounds parses a bound list written without lifetimes by placing it
// in a type alias of its own.
func parseBounds(list string) ([]syntax.Bound, error) {
	src := []byte("type T = impl " + list + ";\n")
	root, err := sitter.ParseCtx(context.Background(), src, rust.GetLanguage())
	if err != nil {
		return nil, err
	}
	if root.HasError() {
		return nil, nil
	}
	item := root.NamedChild(0)
	if item == nil || item.Type() != "type_item" {
		return nil, nil
	}
	ty := item.ChildByFieldName("type")
	if ty == nil {
		return nil, nil
	}
	sub := &converter{src: src}
	t, err := sub.typeExpr(ty)
	if err != nil {
		return nil, err
	}
	it, ok := t.(*syntax.ImplTraitType)
	if !ok {
		return nil, nil
	}
	return it.Bounds, nil
}

// splitTopLevel splits s at sep outside of brackets and trims each piece.
func splitTopLevel(s string, sep byte) []string {
	var out []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<', '(', '[':
			depth++
		case '>':
			// -> in Fn(A) -> B is not a closing bracket.
			if i > 0 && s[i-1] == '-' {
				continue
			}
			depth--
		case ')', ']':
			depth--
		case sep:
			if depth == 0 {
				out = append(out, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if rest := strings.TrimSpace(s[start:]); rest != "" {
		out = append(out, rest)
	}
	return out
}
