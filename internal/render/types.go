// Package render prints the declaration model as Rust source text.
package render

import (
	"strings"

	"github.com/olehluchkiv/functrait/internal/syntax"
)

// Type renders a type expression.
func Type(t syntax.TypeExpr) string {
	var b strings.Builder
	writeType(&b, t)
	return b.String()
}

// Path renders a path with its generic arguments.
func Path(p *syntax.PathType) string {
	var b strings.Builder
	writePath(&b, p)
	return b.String()
}

// Bounds renders a bound list joined with " + ".
func Bounds(bounds []syntax.Bound) string {
	var b strings.Builder
	writeBounds(&b, bounds)
	return b.String()
}

func writeType(b *strings.Builder, t syntax.TypeExpr) {
	switch x := t.(type) {
	case nil:
		b.WriteString("()")
	case *syntax.PathType:
		writePath(b, x)
	case *syntax.ReferenceType:
		b.WriteString("&")
		if x.Lifetime != "" {
			b.WriteString(x.Lifetime)
			b.WriteString(" ")
		}
		if x.Mut {
			b.WriteString("mut ")
		}
		writeType(b, x.Elem)
	case *syntax.PointerType:
		if x.Mut {
			b.WriteString("*mut ")
		} else {
			b.WriteString("*const ")
		}
		writeType(b, x.Elem)
	case *syntax.ArrayType:
		b.WriteString("[")
		writeType(b, x.Elem)
		b.WriteString("; ")
		b.WriteString(x.Len)
		b.WriteString("]")
	case *syntax.SliceType:
		b.WriteString("[")
		writeType(b, x.Elem)
		b.WriteString("]")
	case *syntax.TupleType:
		b.WriteString("(")
		writeTypeList(b, x.Elems)
		if len(x.Elems) == 1 {
			b.WriteString(",")
		}
		b.WriteString(")")
	case *syntax.ParenType:
		b.WriteString("(")
		writeType(b, x.Elem)
		b.WriteString(")")
	case *syntax.GroupType:
		writeType(b, x.Elem)
	case *syntax.BareFnType:
		writeBareFn(b, x)
	case *syntax.ImplTraitType:
		b.WriteString("impl ")
		writeBounds(b, x.Bounds)
	case *syntax.TraitObjectType:
		if x.Dyn {
			b.WriteString("dyn ")
		}
		writeBounds(b, x.Bounds)
	case *syntax.InferType:
		b.WriteString("_")
	case *syntax.NeverType:
		b.WriteString("!")
	case *syntax.MacroType:
		b.WriteString(x.Text)
	case *syntax.VerbatimType:
		b.WriteString(x.Text)
	}
}

func writeTypeList(b *strings.Builder, ts []syntax.TypeExpr) {
	for i, t := range ts {
		if i > 0 {
			b.WriteString(", ")
		}
		writeType(b, t)
	}
}

func writeBareFn(b *strings.Builder, fn *syntax.BareFnType) {
	writeForLifetimes(b, fn.Lifetimes)
	if fn.Unsafe {
		b.WriteString("unsafe ")
	}
	if fn.ABI != "" {
		b.WriteString(fn.ABI)
		b.WriteString(" ")
	}
	b.WriteString("fn(")
	for i, p := range fn.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		if p.Name != "" {
			b.WriteString(p.Name)
			b.WriteString(": ")
		}
		writeType(b, p.Type)
	}
	if fn.Variadic {
		if len(fn.Params) > 0 {
			b.WriteString(", ")
		}
		b.WriteString("...")
	}
	b.WriteString(")")
	if fn.Output != nil {
		b.WriteString(" -> ")
		writeType(b, fn.Output)
	}
}

func writePath(b *strings.Builder, p *syntax.PathType) {
	if p.Leading {
		b.WriteString("::")
	}
	for i, seg := range p.Segments {
		if i > 0 {
			b.WriteString("::")
		}
		b.WriteString(seg.Ident)
		writeGenericArgs(b, seg.Args)
	}
}

func writeGenericArgs(b *strings.Builder, a *syntax.GenericArgs) {
	if a == nil {
		return
	}
	if a.Parenthesized {
		b.WriteString("(")
		writeTypeList(b, a.Inputs)
		b.WriteString(")")
		if a.Output != nil {
			b.WriteString(" -> ")
			writeType(b, a.Output)
		}
		return
	}
	b.WriteString("<")
	for i, arg := range a.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		switch x := arg.(type) {
		case *syntax.LifetimeArg:
			b.WriteString(x.Name)
		case *syntax.TypeArg:
			writeType(b, x.Type)
		case *syntax.ConstArg:
			b.WriteString(x.Expr)
		case *syntax.BindingArg:
			b.WriteString(x.Name)
			b.WriteString(" = ")
			writeType(b, x.Type)
		case *syntax.ConstraintArg:
			b.WriteString(x.Name)
			b.WriteString(": ")
			writeBounds(b, x.Bounds)
		}
	}
	b.WriteString(">")
}

func writeBounds(b *strings.Builder, bounds []syntax.Bound) {
	for i, bd := range bounds {
		if i > 0 {
			b.WriteString(" + ")
		}
		switch x := bd.(type) {
		case *syntax.TraitBound:
			if x.Maybe {
				b.WriteString("?")
			}
			writeForLifetimes(b, x.Lifetimes)
			writePath(b, x.Path)
		case *syntax.LifetimeBound:
			b.WriteString(x.Name)
		}
	}
}

func writeForLifetimes(b *strings.Builder, lifetimes []string) {
	if len(lifetimes) == 0 {
		return
	}
	b.WriteString("for<")
	b.WriteString(strings.Join(lifetimes, ", "))
	b.WriteString("> ")
}
