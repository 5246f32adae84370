package render

import (
	"fmt"
	"strings"

	"github.com/olehluchkiv/functrait/internal/syntax"
)

const indent = "    "

// GenericParams renders a generic parameter list including the angle
// brackets, or "" when the list is empty.
func GenericParams(params []syntax.GenericParam) string {
	if len(params) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("<")
	for i, p := range params {
		if i > 0 {
			b.WriteString(", ")
		}
		writeGenericParam(&b, p)
	}
	b.WriteString(">")
	return b.String()
}

// WherePredicate renders one where-clause entry without the trailing comma.
func WherePredicate(p syntax.WherePredicate) string {
	var b strings.Builder
	switch x := p.(type) {
	case *syntax.BoundPredicate:
		writeForLifetimes(&b, x.Lifetimes)
		writeType(&b, x.Bounded)
		b.WriteString(": ")
		writeBounds(&b, x.Bounds)
	case *syntax.LifetimePredicate:
		b.WriteString(x.Lifetime)
		b.WriteString(": ")
		b.WriteString(strings.Join(x.Bounds, " + "))
	}
	return b.String()
}

// Impl renders a generated impl block, terminated by a newline.
func Impl(d *syntax.ImplDecl) string {
	var b strings.Builder

	for _, attr := range d.Attrs {
		b.WriteString("#[")
		b.WriteString(attr)
		b.WriteString("]\n")
	}

	b.WriteString("impl")
	b.WriteString(GenericParams(d.Generics))
	b.WriteString(" ")
	writePath(&b, d.Trait)
	b.WriteString(" for ")
	writeType(&b, d.SelfType)

	if len(d.Where) > 0 {
		b.WriteString("\nwhere\n")
		for _, p := range d.Where {
			b.WriteString(indent)
			b.WriteString(WherePredicate(p))
			b.WriteString(",\n")
		}
		b.WriteString("{\n")
	} else {
		b.WriteString(" {\n")
	}

	for _, at := range d.AssocTypes {
		fmt.Fprintf(&b, "%stype %s = %s;\n", indent, at.Name, Type(at.Type))
	}
	if len(d.AssocTypes) > 0 {
		b.WriteString("\n")
	}

	writeMethod(&b, d.Method)
	b.WriteString("}\n")
	return b.String()
}

func writeMethod(b *strings.Builder, m syntax.ImplMethod) {
	b.WriteString(indent)
	if m.Unsafe {
		b.WriteString("unsafe ")
	}
	b.WriteString("fn ")
	b.WriteString(m.Name)
	if len(m.Lifetimes) > 0 {
		params := make([]syntax.GenericParam, len(m.Lifetimes))
		for i, lt := range m.Lifetimes {
			params[i] = lt
		}
		b.WriteString(GenericParams(params))
	}

	b.WriteString("(")
	var params []string
	if m.Receiver != nil {
		params = append(params, receiver(m.Receiver))
	}
	for _, a := range m.Args {
		params = append(params, argName(a)+": "+Type(a.Type))
	}
	b.WriteString(strings.Join(params, ", "))
	b.WriteString(")")

	if !isUnit(m.Output) {
		b.WriteString(" -> ")
		writeType(b, m.Output)
	}
	b.WriteString(" {\n")
	fmt.Fprintf(b, "%s%sself(%s)\n", indent, indent, strings.Join(m.Forward, ", "))
	b.WriteString(indent)
	b.WriteString("}\n")
}

func receiver(r *syntax.Receiver) string {
	var b strings.Builder
	if r.Reference {
		b.WriteString("&")
		if r.Lifetime != "" {
			b.WriteString(r.Lifetime)
			b.WriteString(" ")
		}
	}
	if r.Mut {
		b.WriteString("mut ")
	}
	b.WriteString("self")
	return b.String()
}

func argName(a *syntax.TypedArg) string {
	switch p := a.Pattern.(type) {
	case *syntax.IdentPattern:
		if p.Mut {
			return "mut " + p.Name
		}
		return p.Name
	case *syntax.OtherPattern:
		return p.Text
	}
	return "_"
}

func isUnit(t syntax.TypeExpr) bool {
	if t == nil {
		return true
	}
	tup, ok := t.(*syntax.TupleType)
	return ok && len(tup.Elems) == 0
}

func writeGenericParam(b *strings.Builder, p syntax.GenericParam) {
	switch x := p.(type) {
	case *syntax.LifetimeParam:
		b.WriteString(x.Name)
		if len(x.Bounds) > 0 {
			b.WriteString(": ")
			b.WriteString(strings.Join(x.Bounds, " + "))
		}
	case *syntax.TypeParam:
		b.WriteString(x.Name)
		if len(x.Bounds) > 0 {
			b.WriteString(": ")
			writeBounds(b, x.Bounds)
		}
		if x.Default != nil {
			b.WriteString(" = ")
			writeType(b, x.Default)
		}
	case *syntax.ConstParam:
		b.WriteString("const ")
		b.WriteString(x.Name)
		b.WriteString(": ")
		writeType(b, x.Type)
		if x.Default != "" {
			b.WriteString(" = ")
			b.WriteString(x.Default)
		}
	}
}
