package rewriter

import "github.com/olehluchkiv/functrait/internal/syntax"

// Rewrite returns t with every Self::Name reference to one of assoc replaced
// by AssocParam(Name). The input tree is not modified; unchanged subtrees
// are shared with the result.
//
// Opaque types, trait objects and the atomic leaves are returned as is.
func Rewrite(t syntax.TypeExpr, assoc []*syntax.AssociatedType) syntax.TypeExpr {
	if len(assoc) == 0 || t == nil {
		return t
	}
	return rewriteType(t, assoc)
}

// RewriteBounds rewrites the type positions inside each bound, such as the
// Output binding in Future<Output = Self::Item>.
func RewriteBounds(bounds []syntax.Bound, assoc []*syntax.AssociatedType) []syntax.Bound {
	if len(assoc) == 0 || bounds == nil {
		return bounds
	}
	out := make([]syntax.Bound, len(bounds))
	for i, b := range bounds {
		out[i] = rewriteBound(b, assoc)
	}
	return out
}

func rewriteType(t syntax.TypeExpr, assoc []*syntax.AssociatedType) syntax.TypeExpr {
	switch x := t.(type) {
	case *syntax.PathType:
		for _, at := range assoc {
			if syntax.PathEqual(x, syntax.SelfAssoc(at.Name)) {
				return syntax.NewPath(AssocParam(at.Name))
			}
		}
		return rewritePath(x, assoc)
	case *syntax.ReferenceType:
		return &syntax.ReferenceType{Lifetime: x.Lifetime, Mut: x.Mut, Elem: rewriteType(x.Elem, assoc)}
	case *syntax.PointerType:
		return &syntax.PointerType{Mut: x.Mut, Elem: rewriteType(x.Elem, assoc)}
	case *syntax.ArrayType:
		return &syntax.ArrayType{Elem: rewriteType(x.Elem, assoc), Len: x.Len}
	case *syntax.SliceType:
		return &syntax.SliceType{Elem: rewriteType(x.Elem, assoc)}
	case *syntax.TupleType:
		return &syntax.TupleType{Elems: rewriteTypes(x.Elems, assoc)}
	case *syntax.ParenType:
		return &syntax.ParenType{Elem: rewriteType(x.Elem, assoc)}
	case *syntax.GroupType:
		return &syntax.GroupType{Elem: rewriteType(x.Elem, assoc)}
	case *syntax.BareFnType:
		fn := *x
		fn.Params = make([]syntax.BareFnParam, len(x.Params))
		for i, p := range x.Params {
			fn.Params[i] = syntax.BareFnParam{Name: p.Name, Type: rewriteType(p.Type, assoc)}
		}
		if x.Output != nil {
			fn.Output = rewriteType(x.Output, assoc)
		}
		return &fn
	case *syntax.ImplTraitType, *syntax.TraitObjectType,
		*syntax.InferType, *syntax.NeverType, *syntax.MacroType, *syntax.VerbatimType:
		return t
	}
	return t
}

func rewriteTypes(ts []syntax.TypeExpr, assoc []*syntax.AssociatedType) []syntax.TypeExpr {
	if ts == nil {
		return nil
	}
	out := make([]syntax.TypeExpr, len(ts))
	for i, t := range ts {
		out[i] = rewriteType(t, assoc)
	}
	return out
}

// rewritePath rewrites the generic arguments of every segment. The path
// itself is kept: only whole Self::Name paths are substituted.
func rewritePath(p *syntax.PathType, assoc []*syntax.AssociatedType) *syntax.PathType {
	hasArgs := false
	for _, seg := range p.Segments {
		if seg.Args != nil {
			hasArgs = true
			break
		}
	}
	if !hasArgs {
		return p
	}
	out := &syntax.PathType{Leading: p.Leading, Segments: make([]syntax.PathSegment, len(p.Segments))}
	for i, seg := range p.Segments {
		out.Segments[i] = syntax.PathSegment{Ident: seg.Ident, Args: rewriteArgs(seg.Args, assoc)}
	}
	return out
}

func rewriteArgs(a *syntax.GenericArgs, assoc []*syntax.AssociatedType) *syntax.GenericArgs {
	if a == nil {
		return nil
	}
	if a.Parenthesized {
		out := &syntax.GenericArgs{Parenthesized: true, Inputs: rewriteTypes(a.Inputs, assoc)}
		if a.Output != nil {
			out.Output = rewriteType(a.Output, assoc)
		}
		return out
	}
	out := &syntax.GenericArgs{Args: make([]syntax.GenericArg, len(a.Args))}
	for i, arg := range a.Args {
		switch x := arg.(type) {
		case *syntax.TypeArg:
			out.Args[i] = &syntax.TypeArg{Type: rewriteType(x.Type, assoc)}
		case *syntax.BindingArg:
			out.Args[i] = &syntax.BindingArg{Name: x.Name, Type: rewriteType(x.Type, assoc)}
		case *syntax.ConstraintArg:
			out.Args[i] = &syntax.ConstraintArg{Name: x.Name, Bounds: RewriteBounds(x.Bounds, assoc)}
		default:
			out.Args[i] = arg
		}
	}
	return out
}

func rewriteBound(b syntax.Bound, assoc []*syntax.AssociatedType) syntax.Bound {
	tb, ok := b.(*syntax.TraitBound)
	if !ok || tb.Path == nil {
		return b
	}
	return &syntax.TraitBound{Maybe: tb.Maybe, Lifetimes: tb.Lifetimes, Path: rewritePath(tb.Path, assoc)}
}
