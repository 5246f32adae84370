package syntax

// TraitDecl is a parsed trait declaration.
type TraitDecl struct {
	Visibility  string // "pub", "pub(crate)", or empty
	Unsafe      bool
	Name        string
	Generics    []GenericParam
	Supertraits []Bound
	Where       []WherePredicate
	Items       []TraitItem
}

// TraitItem is a member of a trait body.
type TraitItem interface {
	traitItem()
}

// AssociatedType is type Name: Bounds;
type AssociatedType struct {
	Name   string
	Bounds []Bound
}

// Method is a fn signature declared in a trait.
type Method struct {
	Name     string
	Unsafe   bool
	Generics []GenericParam
	Params   []FnArg
	Output   TypeExpr // nil for the default return type
}

// OtherItem is any member that is neither an associated type nor a method
// (associated consts, macro invocations). Kept only so it counts as a member.
type OtherItem struct {
	Kind string
	Text string
}

func (*AssociatedType) traitItem() {}
func (*Method) traitItem()         {}
func (*OtherItem) traitItem()      {}

// FnArg is a method parameter: either the receiver or a typed argument.
type FnArg interface {
	fnArg()
}

// Receiver is the self parameter.
type Receiver struct {
	Reference bool   // &self / &mut self
	Lifetime  string // &'a self
	Mut       bool   // &mut self, or mut self by value
	Type      TypeExpr
}

// TypedArg is pattern: Type.
type TypedArg struct {
	Pattern Pattern
	Type    TypeExpr
}

func (*Receiver) fnArg() {}
func (*TypedArg) fnArg() {}

// Pattern is the binding of a typed argument.
type Pattern interface {
	pattern()
}

// IdentPattern is a plain binding, optionally mut.
type IdentPattern struct {
	Name string
	Mut  bool
}

// OtherPattern is a destructuring or wildcard pattern, kept as written.
type OtherPattern struct {
	Text string
}

func (*IdentPattern) pattern() {}
func (*OtherPattern) pattern() {}

// Methods returns the method members of a trait, in order.
func (d *TraitDecl) Methods() []*Method {
	var out []*Method
	for _, it := range d.Items {
		if m, ok := it.(*Method); ok {
			out = append(out, m)
		}
	}
	return out
}

// AssociatedTypes returns the associated type members of a trait, in order.
func (d *TraitDecl) AssociatedTypes() []*AssociatedType {
	var out []*AssociatedType
	for _, it := range d.Items {
		if at, ok := it.(*AssociatedType); ok {
			out = append(out, at)
		}
	}
	return out
}
