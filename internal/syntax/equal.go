package syntax

// Equal reports whether two type trees are structurally identical.
func Equal(a, b TypeExpr) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case *PathType:
		y, ok := b.(*PathType)
		return ok && PathEqual(x, y)
	case *ReferenceType:
		y, ok := b.(*ReferenceType)
		return ok && x.Lifetime == y.Lifetime && x.Mut == y.Mut && Equal(x.Elem, y.Elem)
	case *PointerType:
		y, ok := b.(*PointerType)
		return ok && x.Mut == y.Mut && Equal(x.Elem, y.Elem)
	case *ArrayType:
		y, ok := b.(*ArrayType)
		return ok && x.Len == y.Len && Equal(x.Elem, y.Elem)
	case *SliceType:
		y, ok := b.(*SliceType)
		return ok && Equal(x.Elem, y.Elem)
	case *TupleType:
		y, ok := b.(*TupleType)
		return ok && typesEqual(x.Elems, y.Elems)
	case *ParenType:
		y, ok := b.(*ParenType)
		return ok && Equal(x.Elem, y.Elem)
	case *GroupType:
		y, ok := b.(*GroupType)
		return ok && Equal(x.Elem, y.Elem)
	case *BareFnType:
		y, ok := b.(*BareFnType)
		if !ok || x.Unsafe != y.Unsafe || x.ABI != y.ABI || x.Variadic != y.Variadic ||
			!stringsEqual(x.Lifetimes, y.Lifetimes) || len(x.Params) != len(y.Params) {
			return false
		}
		for i := range x.Params {
			if x.Params[i].Name != y.Params[i].Name || !Equal(x.Params[i].Type, y.Params[i].Type) {
				return false
			}
		}
		return Equal(x.Output, y.Output)
	case *ImplTraitType:
		y, ok := b.(*ImplTraitType)
		return ok && BoundsEqual(x.Bounds, y.Bounds)
	case *TraitObjectType:
		y, ok := b.(*TraitObjectType)
		return ok && x.Dyn == y.Dyn && BoundsEqual(x.Bounds, y.Bounds)
	case *InferType:
		_, ok := b.(*InferType)
		return ok
	case *NeverType:
		_, ok := b.(*NeverType)
		return ok
	case *MacroType:
		y, ok := b.(*MacroType)
		return ok && x.Text == y.Text
	case *VerbatimType:
		y, ok := b.(*VerbatimType)
		return ok && x.Text == y.Text
	}
	return false
}

// PathEqual reports whether two paths are structurally identical,
// including their generic arguments.
func PathEqual(a, b *PathType) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Leading != b.Leading || len(a.Segments) != len(b.Segments) {
		return false
	}
	for i := range a.Segments {
		sa, sb := a.Segments[i], b.Segments[i]
		if sa.Ident != sb.Ident || !argsEqual(sa.Args, sb.Args) {
			return false
		}
	}
	return true
}

// BoundsEqual compares two bound lists element-wise.
func BoundsEqual(a, b []Bound) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		switch x := a[i].(type) {
		case *TraitBound:
			y, ok := b[i].(*TraitBound)
			if !ok || x.Maybe != y.Maybe || !stringsEqual(x.Lifetimes, y.Lifetimes) || !PathEqual(x.Path, y.Path) {
				return false
			}
		case *LifetimeBound:
			y, ok := b[i].(*LifetimeBound)
			if !ok || x.Name != y.Name {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func argsEqual(a, b *GenericArgs) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Parenthesized != b.Parenthesized {
		return false
	}
	if a.Parenthesized {
		return typesEqual(a.Inputs, b.Inputs) && Equal(a.Output, b.Output)
	}
	if len(a.Args) != len(b.Args) {
		return false
	}
	for i := range a.Args {
		switch x := a.Args[i].(type) {
		case *LifetimeArg:
			y, ok := b.Args[i].(*LifetimeArg)
			if !ok || x.Name != y.Name {
				return false
			}
		case *TypeArg:
			y, ok := b.Args[i].(*TypeArg)
			if !ok || !Equal(x.Type, y.Type) {
				return false
			}
		case *ConstArg:
			y, ok := b.Args[i].(*ConstArg)
			if !ok || x.Expr != y.Expr {
				return false
			}
		case *BindingArg:
			y, ok := b.Args[i].(*BindingArg)
			if !ok || x.Name != y.Name || !Equal(x.Type, y.Type) {
				return false
			}
		case *ConstraintArg:
			y, ok := b.Args[i].(*ConstraintArg)
			if !ok || x.Name != y.Name || !BoundsEqual(x.Bounds, y.Bounds) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func typesEqual(a, b []TypeExpr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func stringsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
