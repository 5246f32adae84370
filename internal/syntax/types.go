// Package syntax holds the declaration model the transformation operates on:
// type expressions, trait declarations and the generated impl declarations.
package syntax

// TypeExpr is a node in a type tree. The set of implementations is closed;
// consumers switch over the concrete types below.
type TypeExpr interface {
	typeExpr()
}

// ReferenceType is &'a T or &'a mut T.
type ReferenceType struct {
	Lifetime string // "'a", or empty when elided
	Mut      bool
	Elem     TypeExpr
}

// PointerType is *const T or *mut T.
type PointerType struct {
	Mut  bool
	Elem TypeExpr
}

// ArrayType is [T; N]. Len is kept as written.
type ArrayType struct {
	Elem TypeExpr
	Len  string
}

// SliceType is [T].
type SliceType struct {
	Elem TypeExpr
}

// TupleType is (A, B, ...). The unit type is a TupleType with no elements.
type TupleType struct {
	Elems []TypeExpr
}

// ParenType is a parenthesized type, (T).
type ParenType struct {
	Elem TypeExpr
}

// GroupType is an invisible grouping produced by macro expansion.
type GroupType struct {
	Elem TypeExpr
}

// BareFnParam is one parameter of a bare function type.
type BareFnParam struct {
	Name string // optional
	Type TypeExpr
}

// BareFnType is for<'a> unsafe extern "C" fn(A, B) -> R.
type BareFnType struct {
	Lifetimes []string
	Unsafe    bool
	ABI       string // "extern", `extern "C"`, or empty
	Params    []BareFnParam
	Variadic  bool
	Output    TypeExpr // nil for the default return type
}

// ImplTraitType is an opaque type, impl A + B.
type ImplTraitType struct {
	Bounds []Bound
}

// TraitObjectType is dyn A + B.
type TraitObjectType struct {
	Dyn    bool
	Bounds []Bound
}

// InferType is _.
type InferType struct{}

// NeverType is !.
type NeverType struct{}

// MacroType is a macro invocation in type position, kept as written.
type MacroType struct {
	Text string
}

// VerbatimType is a type the frontend could not model; kept as written.
type VerbatimType struct {
	Text string
}

func (*PathType) typeExpr()        {}
func (*ReferenceType) typeExpr()   {}
func (*PointerType) typeExpr()     {}
func (*ArrayType) typeExpr()       {}
func (*SliceType) typeExpr()       {}
func (*TupleType) typeExpr()       {}
func (*ParenType) typeExpr()       {}
func (*GroupType) typeExpr()       {}
func (*BareFnType) typeExpr()      {}
func (*ImplTraitType) typeExpr()   {}
func (*TraitObjectType) typeExpr() {}
func (*InferType) typeExpr()       {}
func (*NeverType) typeExpr()       {}
func (*MacroType) typeExpr()       {}
func (*VerbatimType) typeExpr()    {}

// Unit returns the () type.
func Unit() *TupleType {
	return &TupleType{}
}
