package analyzer

import "github.com/olehluchkiv/functrait/internal/syntax"

// Extract pulls the generator inputs out of a validated declaration.
// Types are copied as written; Normalize rewrites them afterwards.
func Extract(decl *syntax.TraitDecl) (*Summary, error) {
	m, err := soleMethod(decl)
	if err != nil {
		return nil, err
	}

	s := &Summary{
		TraitName:   decl.Name,
		Generics:    decl.Generics,
		Where:       decl.Where,
		Supertraits: decl.Supertraits,
		MethodName:  m.Name,
		Receiver:    ClassifyReceiver(m),
		Unsafe:      m.Unsafe,
		Lifetimes:   syntax.Lifetimes(m.Generics),
		AssocTypes:  decl.AssociatedTypes(),
	}

	params := m.Params
	if s.Receiver.Kind != ReceiverNone {
		params = params[1:]
	}
	for i, p := range params {
		switch arg := p.(type) {
		case *syntax.Receiver:
			return nil, shapeErr(ReasonLateReceiver)
		case *syntax.TypedArg:
			switch pat := arg.Pattern.(type) {
			case *syntax.IdentPattern:
				s.Args = append(s.Args, Arg{Name: pat.Name, Type: arg.Type})
			case *syntax.OtherPattern:
				return nil, &PatternError{Index: i, Pattern: pat.Text}
			}
		}
	}

	s.Return = classifyReturn(m.Output)
	return s, nil
}

func classifyReturn(out syntax.TypeExpr) ReturnShape {
	if out == nil {
		return ReturnShape{Kind: ReturnConcrete, Type: syntax.Unit()}
	}
	if it, ok := out.(*syntax.ImplTraitType); ok {
		return ReturnShape{Kind: ReturnOpaque, Bounds: it.Bounds}
	}
	return ReturnShape{Kind: ReturnConcrete, Type: out}
}
