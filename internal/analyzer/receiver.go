package analyzer

import "github.com/olehluchkiv/functrait/internal/syntax"

// ClassifyReceiver maps the method's first parameter to a receiver kind.
// A method whose first parameter is not self classifies as ReceiverNone.
func ClassifyReceiver(m *syntax.Method) Receiver {
	r, ok := firstReceiver(m)
	if !ok {
		return Receiver{Kind: ReceiverNone}
	}
	switch {
	case !r.Reference:
		// mut self only makes the binding mutable; ownership is unchanged.
		return Receiver{Kind: ReceiverByValue}
	case r.Mut:
		return Receiver{Kind: ReceiverByMutRef, Lifetime: r.Lifetime}
	default:
		return Receiver{Kind: ReceiverByRef, Lifetime: r.Lifetime}
	}
}
