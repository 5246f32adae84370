package parser

import (
	"strings"

	"github.com/cockroachdb/errors"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/olehluchkiv/functrait/internal/syntax"
)

// converter turns tree-sitter nodes of one source file into syntax values.
type converter struct {
	src []byte
}

func (c *converter) text(n *sitter.Node) string {
	return n.Content(c.src)
}

func (c *converter) errorf(n *sitter.Node, format string, args ...any) error {
	return errors.Wrapf(errors.Newf(format, args...), "line %d", n.StartPoint().Row+1)
}

func (c *converter) trait(n *sitter.Node) (*syntax.TraitDecl, error) {
	if e := c.firstError(n); e != nil {
		return nil, c.errorf(e, "trait contains syntax errors")
	}

	d := &syntax.TraitDecl{}
	if name := n.ChildByFieldName("name"); name != nil {
		d.Name = c.text(name)
	}
	for _, ch := range children(n) {
		switch ch.Type() {
		case "visibility_modifier":
			d.Visibility = c.text(ch)
		case "unsafe":
			d.Unsafe = true
		case "where_clause":
			where, err := c.whereClause(ch)
			if err != nil {
				return nil, err
			}
			d.Where = where
		}
	}

	var err error
	if tp := n.ChildByFieldName("type_parameters"); tp != nil {
		if d.Generics, err = c.genericParams(tp); err != nil {
			return nil, err
		}
	}
	if bounds := n.ChildByFieldName("bounds"); bounds != nil {
		if d.Supertraits, err = c.traitBounds(bounds); err != nil {
			return nil, err
		}
	}

	body := n.ChildByFieldName("body")
	if body == nil {
		return nil, c.errorf(n, "trait %s has no body", d.Name)
	}
	for _, it := range namedChildren(body) {
		item, err := c.traitItem(it)
		if err != nil {
			return nil, err
		}
		if item != nil {
			d.Items = append(d.Items, item)
		}
	}
	return d, nil
}

func (c *converter) traitItem(n *sitter.Node) (syntax.TraitItem, error) {
	switch n.Type() {
	case "attribute_item", "inner_attribute_item":
		return nil, nil
	case "associated_type":
		at := &syntax.AssociatedType{}
		if name := n.ChildByFieldName("name"); name != nil {
			at.Name = c.text(name)
		}
		if bounds := n.ChildByFieldName("bounds"); bounds != nil {
			b, err := c.traitBounds(bounds)
			if err != nil {
				return nil, err
			}
			at.Bounds = b
		}
		return at, nil
	case "function_signature_item", "function_item":
		return c.method(n)
	default:
		return &syntax.OtherItem{Kind: n.Type(), Text: c.text(n)}, nil
	}
}

func (c *converter) method(n *sitter.Node) (*syntax.Method, error) {
	m := &syntax.Method{}
	if name := n.ChildByFieldName("name"); name != nil {
		m.Name = c.text(name)
	}
	if mods := childOfType(n, "function_modifiers"); mods != nil {
		for _, word := range strings.Fields(c.text(mods)) {
			if word == "unsafe" {
				m.Unsafe = true
			}
		}
	}

	var err error
	if tp := n.ChildByFieldName("type_parameters"); tp != nil {
		if m.Generics, err = c.genericParams(tp); err != nil {
			return nil, err
		}
	}
	if params := n.ChildByFieldName("parameters"); params != nil {
		if m.Params, err = c.fnArgs(params); err != nil {
			return nil, err
		}
	}
	if ret := n.ChildByFieldName("return_type"); ret != nil {
		if m.Output, err = c.typeExpr(ret); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (c *converter) fnArgs(n *sitter.Node) ([]syntax.FnArg, error) {
	var args []syntax.FnArg
	for _, p := range namedChildren(n) {
		switch p.Type() {
		case "attribute_item":
			continue
		case "self_parameter":
			args = append(args, &syntax.Receiver{
				Reference: hasChild(p, "&"),
				Lifetime:  textOf(c, childOfType(p, "lifetime")),
				Mut:       hasChild(p, "mutable_specifier"),
			})
		case "parameter":
			arg, err := c.parameter(p)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		case "variadic_parameter":
			args = append(args, &syntax.TypedArg{
				Pattern: &syntax.OtherPattern{Text: c.text(p)},
				Type:    &syntax.VerbatimType{Text: c.text(p)},
			})
		default:
			// Anonymous parameter (2015 edition): only a type.
			t, err := c.typeExpr(p)
			if err != nil {
				return nil, err
			}
			args = append(args, &syntax.TypedArg{Pattern: &syntax.OtherPattern{Text: "_"}, Type: t})
		}
	}
	return args, nil
}

func (c *converter) parameter(n *sitter.Node) (syntax.FnArg, error) {
	pat := n.ChildByFieldName("pattern")
	typ := n.ChildByFieldName("type")
	if pat == nil || typ == nil {
		return nil, c.errorf(n, "malformed parameter %q", c.text(n))
	}
	t, err := c.typeExpr(typ)
	if err != nil {
		return nil, err
	}
	mut := hasChild(n, "mutable_specifier")

	if pat.Type() == "self" {
		return &syntax.Receiver{Mut: mut, Type: t}, nil
	}
	return &syntax.TypedArg{Pattern: c.pattern(pat, mut), Type: t}, nil
}

func (c *converter) pattern(n *sitter.Node, mut bool) syntax.Pattern {
	switch n.Type() {
	case "identifier":
		return &syntax.IdentPattern{Name: c.text(n), Mut: mut}
	case "mut_pattern":
		if inner := firstNamed(n); inner != nil && inner.Type() == "identifier" {
			return &syntax.IdentPattern{Name: c.text(inner), Mut: true}
		}
	}
	return &syntax.OtherPattern{Text: c.text(n)}
}

func children(n *sitter.Node) []*sitter.Node {
	out := make([]*sitter.Node, 0, n.ChildCount())
	for i := 0; i < int(n.ChildCount()); i++ {
		out = append(out, n.Child(i))
	}
	return out
}

// namedChildren returns the named children of n, skipping comments.
func namedChildren(n *sitter.Node) []*sitter.Node {
	out := make([]*sitter.Node, 0, n.NamedChildCount())
	for i := 0; i < int(n.NamedChildCount()); i++ {
		ch := n.NamedChild(i)
		switch ch.Type() {
		case "line_comment", "block_comment":
			continue
		}
		out = append(out, ch)
	}
	return out
}

func firstNamed(n *sitter.Node) *sitter.Node {
	ch := namedChildren(n)
	if len(ch) == 0 {
		return nil
	}
	return ch[0]
}

func childOfType(n *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(n.ChildCount()); i++ {
		if ch := n.Child(i); ch.Type() == typ {
			return ch
		}
	}
	return nil
}

func hasChild(n *sitter.Node, typ string) bool {
	return childOfType(n, typ) != nil
}

func textOf(c *converter, n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return c.text(n)
}
