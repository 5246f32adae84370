// Package generator builds the blanket impl that lets a closure stand in for
// a single-method trait.
package generator

import (
	"strings"

	"github.com/olehluchkiv/functrait/internal/analyzer"
	"github.com/olehluchkiv/functrait/internal/rewriter"
	"github.com/olehluchkiv/functrait/internal/syntax"
)

// Capability is the callable trait the adapter requires of its wrapped value.
type Capability int

const (
	CapabilityFn Capability = iota
	CapabilityFnMut
	CapabilityFnOnce
)

func (c Capability) String() string {
	switch c {
	case CapabilityFnMut:
		return "FnMut"
	case CapabilityFnOnce:
		return "FnOnce"
	default:
		return "Fn"
	}
}

// CapabilityFor selects the callable trait matching a receiver kind.
func CapabilityFor(k analyzer.ReceiverKind) Capability {
	switch k {
	case analyzer.ReceiverByValue:
		return CapabilityFnOnce
	case analyzer.ReceiverByMutRef:
		return CapabilityFnMut
	default:
		return CapabilityFn
	}
}

// Options controls generation.
type Options struct {
	// CapabilityPath is the module path the Fn traits are named through,
	// e.g. "std::ops" or "core::ops". Empty names them unqualified.
	CapabilityPath string
}

// DefaultOptions names the Fn traits through std::ops so the impl does not
// depend on what the surrounding module has in scope.
func DefaultOptions() Options {
	return Options{CapabilityPath: "std::ops"}
}

// NonCamelCaseAttr is attached to every impl; the placeholder names are not
// camel case.
const NonCamelCaseAttr = "allow(non_camel_case_types)"

// Generate builds the adapter impl for an analyzed trait.
func Generate(s *analyzer.Summary, opts Options) *syntax.ImplDecl {
	callable := syntax.NewPath(rewriter.Callable)

	generics := withoutDefaults(s.Generics)
	var where []syntax.WherePredicate

	var fnOutput, methodOutput syntax.TypeExpr
	switch s.Return.Kind {
	case analyzer.ReturnOpaque:
		out := syntax.NewPath(rewriter.Output)
		generics = append(generics, &syntax.TypeParam{Name: rewriter.Output})
		where = append(where, &syntax.BoundPredicate{Bounded: out, Bounds: s.Return.Bounds})
		fnOutput = out
		methodOutput = &syntax.ImplTraitType{Bounds: s.Return.Bounds}
	case analyzer.ReturnConcrete:
		fnOutput = s.Return.Type
		methodOutput = s.Return.Type
	}

	var bindings []syntax.AssocBinding
	for _, at := range s.AssocTypes {
		name := rewriter.AssocParam(at.Name)
		generics = append(generics, &syntax.TypeParam{Name: name})
		if len(at.Bounds) > 0 {
			where = append(where, &syntax.BoundPredicate{Bounded: syntax.NewPath(name), Bounds: at.Bounds})
		}
		bindings = append(bindings, syntax.AssocBinding{Name: at.Name, Type: syntax.NewPath(name)})
	}

	generics = append(generics, &syntax.TypeParam{Name: rewriter.Callable, Bounds: s.Supertraits})
	where = append(where, &syntax.BoundPredicate{
		Bounded: callable,
		Bounds:  []syntax.Bound{capabilityBound(s, fnOutput, opts)},
	})
	where = append(where, s.Where...)

	return &syntax.ImplDecl{
		Attrs:      []string{NonCamelCaseAttr},
		Generics:   generics,
		Trait:      traitRef(s),
		SelfType:   callable,
		Where:      where,
		AssocTypes: bindings,
		Method:     implMethod(s, methodOutput),
	}
}

// withoutDefaults copies trait generics for use on an impl, where default
// arguments are not allowed.
func withoutDefaults(params []syntax.GenericParam) []syntax.GenericParam {
	out := make([]syntax.GenericParam, 0, len(params))
	for _, p := range params {
		switch x := p.(type) {
		case *syntax.TypeParam:
			cp := *x
			cp.Default = nil
			out = append(out, &cp)
		case *syntax.ConstParam:
			cp := *x
			cp.Default = ""
			out = append(out, &cp)
		default:
			out = append(out, p)
		}
	}
	return out
}

// capabilityBound builds for<'a, ...> Cap(Args...) -> Out.
func capabilityBound(s *analyzer.Summary, output syntax.TypeExpr, opts Options) *syntax.TraitBound {
	var segs []string
	if opts.CapabilityPath != "" {
		segs = strings.Split(opts.CapabilityPath, "::")
	}
	segs = append(segs, CapabilityFor(s.Receiver.Kind).String())
	path := syntax.NewPath(segs...)

	inputs := make([]syntax.TypeExpr, len(s.Args))
	for i, a := range s.Args {
		inputs[i] = a.Type
	}
	path.Last().Args = &syntax.GenericArgs{Parenthesized: true, Inputs: inputs, Output: output}

	var lifetimes []string
	for _, lt := range s.Lifetimes {
		lifetimes = append(lifetimes, lt.Name)
	}
	return &syntax.TraitBound{Lifetimes: lifetimes, Path: path}
}

// traitRef names the implemented trait with its own parameters as arguments.
func traitRef(s *analyzer.Summary) *syntax.PathType {
	ref := syntax.NewPath(s.TraitName)
	if len(s.Generics) == 0 {
		return ref
	}
	args := &syntax.GenericArgs{}
	for _, p := range s.Generics {
		switch x := p.(type) {
		case *syntax.LifetimeParam:
			args.Args = append(args.Args, &syntax.LifetimeArg{Name: x.Name})
		case *syntax.TypeParam:
			args.Args = append(args.Args, &syntax.TypeArg{Type: syntax.NewPath(x.Name)})
		case *syntax.ConstParam:
			args.Args = append(args.Args, &syntax.ConstArg{Expr: x.Name})
		}
	}
	ref.Last().Args = args
	return ref
}

func implMethod(s *analyzer.Summary, output syntax.TypeExpr) syntax.ImplMethod {
	m := syntax.ImplMethod{
		Name:      s.MethodName,
		Unsafe:    s.Unsafe,
		Lifetimes: s.Lifetimes,
		Receiver:  receiver(s.Receiver),
		Output:    output,
	}
	for _, a := range s.Args {
		m.Args = append(m.Args, &syntax.TypedArg{Pattern: &syntax.IdentPattern{Name: a.Name}, Type: a.Type})
		m.Forward = append(m.Forward, a.Name)
	}
	return m
}

func receiver(r analyzer.Receiver) *syntax.Receiver {
	switch r.Kind {
	case analyzer.ReceiverByValue:
		return &syntax.Receiver{}
	case analyzer.ReceiverByRef:
		return &syntax.Receiver{Reference: true, Lifetime: r.Lifetime}
	case analyzer.ReceiverByMutRef:
		return &syntax.Receiver{Reference: true, Mut: true, Lifetime: r.Lifetime}
	}
	return nil
}
