package parser

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/olehluchkiv/functrait/internal/syntax"
)

func (c *converter) typeExpr(n *sitter.Node) (syntax.TypeExpr, error) {
	switch n.Type() {
	case "type_identifier", "primitive_type", "identifier", "self", "crate", "super",
		"scoped_type_identifier", "scoped_identifier", "generic_type":
		return c.path(n)

	case "reference_type":
		elem, err := c.fieldType(n, "type")
		if err != nil {
			return nil, err
		}
		return &syntax.ReferenceType{
			Lifetime: textOf(c, childOfType(n, "lifetime")),
			Mut:      hasChild(n, "mutable_specifier"),
			Elem:     elem,
		}, nil

	case "pointer_type":
		elem, err := c.fieldType(n, "type")
		if err != nil {
			return nil, err
		}
		return &syntax.PointerType{Mut: hasChild(n, "mutable_specifier"), Elem: elem}, nil

	case "array_type":
		elem, err := c.fieldType(n, "element")
		if err != nil {
			return nil, err
		}
		if length := n.ChildByFieldName("length"); length != nil {
			return &syntax.ArrayType{Elem: elem, Len: c.text(length)}, nil
		}
		return &syntax.SliceType{Elem: elem}, nil

	case "unit_type":
		return syntax.Unit(), nil

	case "tuple_type":
		elems, err := c.typeList(namedChildren(n))
		if err != nil {
			return nil, err
		}
		// (T) has no trailing comma and is a parenthesized type, not a tuple.
		if len(elems) == 1 && !hasChild(n, ",") {
			return &syntax.ParenType{Elem: elems[0]}, nil
		}
		return &syntax.TupleType{Elems: elems}, nil

	case "never_type", "empty_type":
		return &syntax.NeverType{}, nil

	case "abstract_type":
		if n.HasError() {
			return c.opaqueFromText(n)
		}
		bounds, err := c.boundsOf(n, "trait")
		if err != nil {
			return nil, err
		}
		return &syntax.ImplTraitType{Bounds: bounds}, nil

	case "dynamic_type":
		bounds, err := c.boundsOf(n, "trait")
		if err != nil {
			return nil, err
		}
		return &syntax.TraitObjectType{Dyn: true, Bounds: bounds}, nil

	case "bounded_type":
		return c.boundedType(n)

	case "function_type":
		if n.ChildByFieldName("trait") != nil {
			b, err := c.fnTraitBound(n)
			if err != nil {
				return nil, err
			}
			return &syntax.TraitObjectType{Bounds: []syntax.Bound{b}}, nil
		}
		return c.bareFn(n)

	case "macro_invocation":
		return &syntax.MacroType{Text: c.text(n)}, nil

	case "ERROR":
		return nil, c.errorf(n, "cannot parse type %q", c.text(n))
	}

	if c.text(n) == "_" {
		return &syntax.InferType{}, nil
	}
	return &syntax.VerbatimType{Text: c.text(n)}, nil
}

func (c *converter) fieldType(n *sitter.Node, field string) (syntax.TypeExpr, error) {
	ch := n.ChildByFieldName(field)
	if ch == nil {
		return nil, c.errorf(n, "missing %s in %q", field, c.text(n))
	}
	return c.typeExpr(ch)
}

func (c *converter) typeList(nodes []*sitter.Node) ([]syntax.TypeExpr, error) {
	var out []syntax.TypeExpr
	for _, n := range nodes {
		t, err := c.typeExpr(n)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// path flattens nested scoped identifiers into one segment list.
func (c *converter) path(n *sitter.Node) (*syntax.PathType, error) {
	p := &syntax.PathType{}
	if err := c.appendSegments(p, n); err != nil {
		return nil, err
	}
	return p, nil
}

func (c *converter) appendSegments(p *syntax.PathType, n *sitter.Node) error {
	switch n.Type() {
	case "scoped_type_identifier", "scoped_identifier":
		if prefix := n.ChildByFieldName("path"); prefix != nil {
			if err := c.appendSegments(p, prefix); err != nil {
				return err
			}
		} else if len(p.Segments) == 0 {
			p.Leading = true
		}
		name := n.ChildByFieldName("name")
		if name == nil {
			return c.errorf(n, "malformed path %q", c.text(n))
		}
		p.Segments = append(p.Segments, syntax.PathSegment{Ident: c.text(name)})
		return nil

	case "generic_type":
		base := n.ChildByFieldName("type")
		if base == nil {
			return c.errorf(n, "malformed generic type %q", c.text(n))
		}
		if err := c.appendSegments(p, base); err != nil {
			return err
		}
		if targs := n.ChildByFieldName("type_arguments"); targs != nil {
			args, err := c.typeArgs(targs)
			if err != nil {
				return err
			}
			p.Segments[len(p.Segments)-1].Args = args
		}
		return nil
	}

	p.Segments = append(p.Segments, syntax.PathSegment{Ident: c.text(n)})
	return nil
}

func (c *converter) typeArgs(n *sitter.Node) (*syntax.GenericArgs, error) {
	args := &syntax.GenericArgs{}
	for _, a := range namedChildren(n) {
		switch a.Type() {
		case "lifetime":
			args.Args = append(args.Args, &syntax.LifetimeArg{Name: c.text(a)})
		case "type_binding":
			name := a.ChildByFieldName("name")
			t, err := c.fieldType(a, "type")
			if err != nil {
				return nil, err
			}
			if name == nil {
				return nil, c.errorf(a, "malformed binding %q", c.text(a))
			}
			args.Args = append(args.Args, &syntax.BindingArg{Name: c.text(name), Type: t})
		case "integer_literal", "string_literal", "char_literal", "boolean_literal",
			"float_literal", "negative_literal", "block":
			args.Args = append(args.Args, &syntax.ConstArg{Expr: c.text(a)})
		case "trait_bounds":
			// Item: Bound constraints, where the grammar attaches the bounds
			// to the preceding identifier.
			if len(args.Args) == 0 {
				return nil, c.errorf(a, "constraint without a name in %q", c.text(n))
			}
			prev, ok := args.Args[len(args.Args)-1].(*syntax.TypeArg)
			if !ok {
				return nil, c.errorf(a, "unsupported constraint %q", c.text(n))
			}
			bounds, err := c.traitBounds(a)
			if err != nil {
				return nil, err
			}
			args.Args[len(args.Args)-1] = &syntax.ConstraintArg{Name: renderIdent(prev.Type), Bounds: bounds}
		default:
			t, err := c.typeExpr(a)
			if err != nil {
				return nil, err
			}
			args.Args = append(args.Args, &syntax.TypeArg{Type: t})
		}
	}
	return args, nil
}

func renderIdent(t syntax.TypeExpr) string {
	if p, ok := t.(*syntax.PathType); ok && len(p.Segments) == 1 {
		return p.Segments[0].Ident
	}
	return ""
}

func (c *converter) bareFn(n *sitter.Node) (syntax.TypeExpr, error) {
	fn := &syntax.BareFnType{}
	if fl := childOfType(n, "for_lifetimes"); fl != nil {
		fn.Lifetimes = c.lifetimeNames(fl)
	}
	if mods := childOfType(n, "function_modifiers"); mods != nil {
		text := c.text(mods)
		fn.Unsafe = strings.Contains(text, "unsafe")
		if ext := childOfType(mods, "extern_modifier"); ext != nil {
			fn.ABI = c.text(ext)
		}
	}
	if params := n.ChildByFieldName("parameters"); params != nil {
		for _, p := range namedChildren(params) {
			switch p.Type() {
			case "attribute_item":
				continue
			case "variadic_parameter":
				fn.Variadic = true
			case "parameter":
				t, err := c.fieldType(p, "type")
				if err != nil {
					return nil, err
				}
				fn.Params = append(fn.Params, syntax.BareFnParam{Name: textOf(c, p.ChildByFieldName("pattern")), Type: t})
			default:
				t, err := c.typeExpr(p)
				if err != nil {
					return nil, err
				}
				fn.Params = append(fn.Params, syntax.BareFnParam{Type: t})
			}
		}
	}
	if ret := n.ChildByFieldName("return_type"); ret != nil {
		out, err := c.typeExpr(ret)
		if err != nil {
			return nil, err
		}
		fn.Output = out
	}
	return fn, nil
}

// boundedType handles A + B in type position, where the grammar attaches
// the extra bounds to a leading impl or dyn type. Anything else is kept as
// written.
func (c *converter) boundedType(n *sitter.Node) (syntax.TypeExpr, error) {
	if n.HasError() && isOpaque(n) {
		return c.opaqueFromText(n)
	}
	parts := flattenBounded(n)
	if len(parts) == 0 {
		return &syntax.VerbatimType{Text: c.text(n)}, nil
	}
	head := parts[0].Type()
	if head != "dynamic_type" && head != "abstract_type" {
		return &syntax.VerbatimType{Text: c.text(n)}, nil
	}

	bounds, err := c.boundsOf(parts[0], "trait")
	if err != nil {
		return nil, err
	}
	rest, err := c.boundList(parts[1:])
	if err != nil {
		return nil, err
	}
	bounds = append(bounds, rest...)
	if head == "abstract_type" {
		return &syntax.ImplTraitType{Bounds: bounds}, nil
	}
	return &syntax.TraitObjectType{Dyn: true, Bounds: bounds}, nil
}

func flattenBounded(n *sitter.Node) []*sitter.Node {
	if n.Type() != "bounded_type" {
		return []*sitter.Node{n}
	}
	var out []*sitter.Node
	for _, ch := range namedChildren(n) {
		out = append(out, flattenBounded(ch)...)
	}
	return out
}
