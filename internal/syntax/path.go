package syntax

// PathType is a possibly generic path such as std::vec::Vec<T> or Self::Output.
type PathType struct {
	Leading  bool // leading :: (global path)
	Segments []PathSegment
}

// PathSegment is one ::-separated component of a path.
type PathSegment struct {
	Ident string
	Args  *GenericArgs // nil when the segment has no arguments
}

// GenericArgs are the arguments attached to a path segment: either
// angle-bracketed (<'a, T, Output = U>) or parenthesized (Fn(A, B) -> C).
type GenericArgs struct {
	Parenthesized bool
	Args          []GenericArg // angle-bracketed form
	Inputs        []TypeExpr   // parenthesized form
	Output        TypeExpr     // parenthesized form; nil means ()
}

// GenericArg is one angle-bracketed argument.
type GenericArg interface {
	genericArg()
}

// LifetimeArg is a lifetime argument, 'a.
type LifetimeArg struct {
	Name string
}

// TypeArg is a type argument.
type TypeArg struct {
	Type TypeExpr
}

// ConstArg is a const argument kept as written (N, 4, { N + 1 }).
type ConstArg struct {
	Expr string
}

// BindingArg binds an associated type, Output = T.
type BindingArg struct {
	Name string
	Type TypeExpr
}

// ConstraintArg constrains an associated type, Item: Clone.
type ConstraintArg struct {
	Name   string
	Bounds []Bound
}

func (*LifetimeArg) genericArg()   {}
func (*TypeArg) genericArg()       {}
func (*ConstArg) genericArg()      {}
func (*BindingArg) genericArg()    {}
func (*ConstraintArg) genericArg() {}

// NewPath builds a plain path from identifiers.
func NewPath(idents ...string) *PathType {
	segs := make([]PathSegment, len(idents))
	for i, id := range idents {
		segs[i] = PathSegment{Ident: id}
	}
	return &PathType{Segments: segs}
}

// SelfAssoc builds Self::name, the form an associated type is referenced by
// inside its own trait.
func SelfAssoc(name string) *PathType {
	return NewPath("Self", name)
}

// Last returns the final segment of the path, or nil for an empty path.
func (p *PathType) Last() *PathSegment {
	if len(p.Segments) == 0 {
		return nil
	}
	return &p.Segments[len(p.Segments)-1]
}
