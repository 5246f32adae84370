package syntax

// ImplDecl is a generated trait implementation.
type ImplDecl struct {
	Attrs      []string // attribute bodies, rendered as #[...]
	Generics   []GenericParam
	Trait      *PathType
	SelfType   TypeExpr
	Where      []WherePredicate
	AssocTypes []AssocBinding
	Method     ImplMethod
}

// AssocBinding is type Name = Type; inside an impl.
type AssocBinding struct {
	Name string
	Type TypeExpr
}

// ImplMethod is the single method of a generated impl. Its body calls the
// receiver with Forward as arguments and returns the result.
type ImplMethod struct {
	Name      string
	Unsafe    bool
	Lifetimes []*LifetimeParam
	Receiver  *Receiver
	Args      []*TypedArg
	Output    TypeExpr
	Forward   []string
}
