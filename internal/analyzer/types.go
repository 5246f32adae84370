package analyzer

import "github.com/olehluchkiv/functrait/internal/syntax"

// ReceiverKind classifies how the method's receiver accesses the value.
type ReceiverKind int

const (
	ReceiverNone ReceiverKind = iota
	ReceiverByValue
	ReceiverByRef
	ReceiverByMutRef
)

func (k ReceiverKind) String() string {
	switch k {
	case ReceiverByValue:
		return "self"
	case ReceiverByRef:
		return "&self"
	case ReceiverByMutRef:
		return "&mut self"
	default:
		return "none"
	}
}

// Receiver is the classified receiver, keeping the lifetime of a reference
// receiver (&'a self).
type Receiver struct {
	Kind     ReceiverKind
	Lifetime string
}

// Arg is a method argument after the receiver.
type Arg struct {
	Name string
	Type syntax.TypeExpr
}

// ReturnKind distinguishes named return types from opaque ones.
type ReturnKind int

const (
	ReturnConcrete ReturnKind = iota
	ReturnOpaque
)

func (k ReturnKind) String() string {
	if k == ReturnOpaque {
		return "opaque"
	}
	return "concrete"
}

// ReturnShape is the method's return type. Type is set for ReturnConcrete
// (the unit type when the method declares none); Bounds for ReturnOpaque.
type ReturnShape struct {
	Kind   ReturnKind
	Type   syntax.TypeExpr
	Bounds []syntax.Bound
}

// Summary is everything the generator needs to know about a trait.
// After Analyze returns, every type in it has had its Self::Assoc
// references replaced with placeholders.
type Summary struct {
	TraitName   string
	Generics    []syntax.GenericParam
	Where       []syntax.WherePredicate
	Supertraits []syntax.Bound

	MethodName string
	Receiver   Receiver
	Unsafe     bool
	Lifetimes  []*syntax.LifetimeParam
	Args       []Arg
	Return     ReturnShape

	AssocTypes []*syntax.AssociatedType
}
