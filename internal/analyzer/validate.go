package analyzer

import "github.com/olehluchkiv/functrait/internal/syntax"

// Validate checks that an adapter can be derived for decl. Checks run in a
// fixed order and the first failure is returned as a *ShapeError.
func Validate(decl *syntax.TraitDecl) error {
	if decl.Unsafe {
		return shapeErr(ReasonUnsafeTrait)
	}

	m, err := soleMethod(decl)
	if err != nil {
		return err
	}

	recv, ok := firstReceiver(m)
	if !ok {
		return shapeErr(ReasonNoReceiver)
	}
	if recv.Type != nil {
		return shapeErr(ReasonReceiverType)
	}

	for _, p := range m.Generics {
		switch p.(type) {
		case *syntax.TypeParam, *syntax.ConstParam:
			return shapeErr(ReasonMethodGenerics)
		}
	}
	return nil
}

// soleMethod returns the only non-associated-type member, which must be a method.
func soleMethod(decl *syntax.TraitDecl) (*syntax.Method, error) {
	var members []syntax.TraitItem
	for _, it := range decl.Items {
		if _, isType := it.(*syntax.AssociatedType); isType {
			continue
		}
		members = append(members, it)
	}
	if len(members) != 1 {
		return nil, shapeErr(ReasonMethodCount)
	}
	m, ok := members[0].(*syntax.Method)
	if !ok {
		return nil, shapeErr(ReasonNotMethod)
	}
	return m, nil
}

func firstReceiver(m *syntax.Method) (*syntax.Receiver, bool) {
	if len(m.Params) == 0 {
		return nil, false
	}
	r, ok := m.Params[0].(*syntax.Receiver)
	return r, ok
}
