package analyzer

import "fmt"

// Reasons reported by ShapeError.
const (
	ReasonUnsafeTrait    = "unsafe trait not supported"
	ReasonMethodCount    = "need exactly 1 method"
	ReasonNotMethod      = "member must be a method"
	ReasonNoReceiver     = "method must have a receiver"
	ReasonReceiverType   = "receiver must be &self, &mut self or self"
	ReasonMethodGenerics = "method with generic types not supported"
	ReasonLateReceiver   = "receiver is only allowed as the first argument"
)

// ShapeError reports a trait declaration the adapter cannot be derived for.
type ShapeError struct {
	Reason string
}

func (e *ShapeError) Error() string {
	return e.Reason
}

// PatternError reports a method argument bound by something other than a
// plain identifier.
type PatternError struct {
	Index   int // zero-based, counted after the receiver
	Pattern string
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("argument %d: pattern %q is not a plain identifier", e.Index+1, e.Pattern)
}

func shapeErr(reason string) error {
	return &ShapeError{Reason: reason}
}
