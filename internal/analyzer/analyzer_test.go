package analyzer

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olehluchkiv/functrait/internal/rewriter"
	"github.com/olehluchkiv/functrait/internal/syntax"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func arg(name string, t syntax.TypeExpr) *syntax.TypedArg {
	return &syntax.TypedArg{Pattern: &syntax.IdentPattern{Name: name}, Type: t}
}

func refSelf() *syntax.Receiver    { return &syntax.Receiver{Reference: true} }
func mutRefSelf() *syntax.Receiver { return &syntax.Receiver{Reference: true, Mut: true} }

func i32() syntax.TypeExpr { return syntax.NewPath("i32") }

func oneMethod(m *syntax.Method, extra ...syntax.TraitItem) *syntax.TraitDecl {
	return &syntax.TraitDecl{Name: "Handler", Items: append(extra, m)}
}

// futureOf builds Future<Output = &'a str>.
func futureOf() *syntax.TraitBound {
	p := syntax.NewPath("Future")
	p.Last().Args = &syntax.GenericArgs{Args: []syntax.GenericArg{
		&syntax.BindingArg{Name: "Output", Type: &syntax.ReferenceType{Lifetime: "'a", Elem: syntax.NewPath("str")}},
	}}
	return &syntax.TraitBound{Path: p}
}

// ---------------------------------------------------------------------------
// Validate
// ---------------------------------------------------------------------------

func reason(t *testing.T, err error) string {
	t.Helper()
	var se *ShapeError
	require.ErrorAs(t, err, &se)
	return se.Reason
}

func TestValidate_Accepts(t *testing.T) {
	decl := oneMethod(&syntax.Method{
		Name:     "call",
		Generics: []syntax.GenericParam{&syntax.LifetimeParam{Name: "'a"}},
		Params:   []syntax.FnArg{refSelf(), arg("x", i32())},
	}, &syntax.AssociatedType{Name: "A"}, &syntax.AssociatedType{Name: "B"})
	assert.NoError(t, Validate(decl))
}

func TestValidate_UnsafeTrait(t *testing.T) {
	decl := oneMethod(&syntax.Method{Name: "call", Params: []syntax.FnArg{refSelf()}})
	decl.Unsafe = true
	assert.Equal(t, ReasonUnsafeTrait, reason(t, Validate(decl)))
}

func TestValidate_MethodCount(t *testing.T) {
	empty := &syntax.TraitDecl{Name: "Empty"}
	assert.Equal(t, ReasonMethodCount, reason(t, Validate(empty)))

	two := &syntax.TraitDecl{Name: "Two", Items: []syntax.TraitItem{
		&syntax.Method{Name: "a", Params: []syntax.FnArg{refSelf()}},
		&syntax.Method{Name: "b", Params: []syntax.FnArg{refSelf()}},
	}}
	assert.Equal(t, ReasonMethodCount, reason(t, Validate(two)))

	onlyTypes := &syntax.TraitDecl{Name: "Types", Items: []syntax.TraitItem{&syntax.AssociatedType{Name: "T"}}}
	assert.Equal(t, ReasonMethodCount, reason(t, Validate(onlyTypes)))
}

func TestValidate_NotMethod(t *testing.T) {
	decl := &syntax.TraitDecl{Name: "C", Items: []syntax.TraitItem{&syntax.OtherItem{Kind: "const", Text: "const N: usize;"}}}
	assert.Equal(t, ReasonNotMethod, reason(t, Validate(decl)))
}

func TestValidate_NoReceiver(t *testing.T) {
	decl := oneMethod(&syntax.Method{Name: "make", Params: []syntax.FnArg{arg("x", i32())}})
	assert.Equal(t, ReasonNoReceiver, reason(t, Validate(decl)))

	noParams := oneMethod(&syntax.Method{Name: "make"})
	assert.Equal(t, ReasonNoReceiver, reason(t, Validate(noParams)))
}

func TestValidate_TypedReceiver(t *testing.T) {
	boxSelf := syntax.NewPath("Box")
	boxSelf.Last().Args = &syntax.GenericArgs{Args: []syntax.GenericArg{&syntax.TypeArg{Type: syntax.NewPath("Self")}}}
	decl := oneMethod(&syntax.Method{Name: "call", Params: []syntax.FnArg{&syntax.Receiver{Type: boxSelf}}})
	assert.Equal(t, ReasonReceiverType, reason(t, Validate(decl)))
}

func TestValidate_MethodGenerics(t *testing.T) {
	typed := oneMethod(&syntax.Method{
		Name:     "map",
		Generics: []syntax.GenericParam{&syntax.TypeParam{Name: "T"}},
		Params:   []syntax.FnArg{refSelf()},
	})
	assert.Equal(t, ReasonMethodGenerics, reason(t, Validate(typed)))

	constant := oneMethod(&syntax.Method{
		Name:     "fill",
		Generics: []syntax.GenericParam{&syntax.ConstParam{Name: "N", Type: syntax.NewPath("usize")}},
		Params:   []syntax.FnArg{refSelf()},
	})
	assert.Equal(t, ReasonMethodGenerics, reason(t, Validate(constant)))
}

func TestValidate_Order(t *testing.T) {
	// Two methods, neither with a receiver: the count is checked first.
	decl := &syntax.TraitDecl{Name: "Both", Items: []syntax.TraitItem{
		&syntax.Method{Name: "a"},
		&syntax.Method{Name: "b"},
	}}
	assert.Equal(t, ReasonMethodCount, reason(t, Validate(decl)))

	// Unsafe beats everything else.
	decl.Unsafe = true
	assert.Equal(t, ReasonUnsafeTrait, reason(t, Validate(decl)))

	// A missing receiver is reported before method generics.
	generic := oneMethod(&syntax.Method{
		Name:     "make",
		Generics: []syntax.GenericParam{&syntax.TypeParam{Name: "T"}},
		Params:   []syntax.FnArg{arg("x", syntax.NewPath("T"))},
	})
	assert.Equal(t, ReasonNoReceiver, reason(t, Validate(generic)))
}

// ---------------------------------------------------------------------------
// ClassifyReceiver
// ---------------------------------------------------------------------------

func TestClassifyReceiver(t *testing.T) {
	tests := []struct {
		name string
		recv *syntax.Receiver
		want Receiver
	}{
		{"by value", &syntax.Receiver{}, Receiver{Kind: ReceiverByValue}},
		{"mut by value", &syntax.Receiver{Mut: true}, Receiver{Kind: ReceiverByValue}},
		{"ref", refSelf(), Receiver{Kind: ReceiverByRef}},
		{"mut ref", mutRefSelf(), Receiver{Kind: ReceiverByMutRef}},
		{"ref with lifetime", &syntax.Receiver{Reference: true, Lifetime: "'a"}, Receiver{Kind: ReceiverByRef, Lifetime: "'a"}},
		{"mut ref with lifetime", &syntax.Receiver{Reference: true, Mut: true, Lifetime: "'b"}, Receiver{Kind: ReceiverByMutRef, Lifetime: "'b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &syntax.Method{Name: "call", Params: []syntax.FnArg{tt.recv}}
			assert.Equal(t, tt.want, ClassifyReceiver(m))
		})
	}

	none := &syntax.Method{Name: "make", Params: []syntax.FnArg{arg("x", i32())}}
	assert.Equal(t, ReceiverNone, ClassifyReceiver(none).Kind)
	assert.Equal(t, "none", ReceiverNone.String())
	assert.Equal(t, "&mut self", ReceiverByMutRef.String())
}

// ---------------------------------------------------------------------------
// Extract
// ---------------------------------------------------------------------------

func TestExtract_CopiesSignature(t *testing.T) {
	lt := &syntax.LifetimeParam{Name: "'a"}
	decl := &syntax.TraitDecl{
		Name:        "Handler",
		Generics:    []syntax.GenericParam{&syntax.TypeParam{Name: "T"}},
		Supertraits: []syntax.Bound{&syntax.TraitBound{Path: syntax.NewPath("Send")}},
		Where: []syntax.WherePredicate{&syntax.BoundPredicate{
			Bounded: syntax.NewPath("T"),
			Bounds:  []syntax.Bound{&syntax.TraitBound{Path: syntax.NewPath("Clone")}},
		}},
		Items: []syntax.TraitItem{&syntax.Method{
			Name:     "call",
			Unsafe:   true,
			Generics: []syntax.GenericParam{lt},
			Params:   []syntax.FnArg{refSelf(), arg("x", i32()), arg("t", syntax.NewPath("T"))},
			Output:   syntax.NewPath("bool"),
		}},
	}

	s, err := Extract(decl)
	require.NoError(t, err)
	assert.Equal(t, "Handler", s.TraitName)
	assert.Equal(t, decl.Generics, s.Generics)
	assert.Equal(t, decl.Where, s.Where)
	assert.Equal(t, decl.Supertraits, s.Supertraits)
	assert.Equal(t, "call", s.MethodName)
	assert.True(t, s.Unsafe)
	assert.Equal(t, []*syntax.LifetimeParam{lt}, s.Lifetimes)
	require.Len(t, s.Args, 2)
	assert.Equal(t, "x", s.Args[0].Name)
	assert.Equal(t, "t", s.Args[1].Name)
	assert.Equal(t, ReturnConcrete, s.Return.Kind)
	assert.True(t, syntax.Equal(syntax.NewPath("bool"), s.Return.Type))
}

func TestExtract_UnitReturn(t *testing.T) {
	s, err := Extract(oneMethod(&syntax.Method{Name: "call", Params: []syntax.FnArg{mutRefSelf()}}))
	require.NoError(t, err)
	assert.Equal(t, ReturnConcrete, s.Return.Kind)
	assert.True(t, syntax.Equal(syntax.Unit(), s.Return.Type))
}

func TestExtract_OpaqueReturn(t *testing.T) {
	bounds := []syntax.Bound{futureOf()}
	s, err := Extract(oneMethod(&syntax.Method{
		Name:   "call",
		Params: []syntax.FnArg{refSelf()},
		Output: &syntax.ImplTraitType{Bounds: bounds},
	}))
	require.NoError(t, err)
	assert.Equal(t, ReturnOpaque, s.Return.Kind)
	assert.Nil(t, s.Return.Type)
	assert.Equal(t, bounds, s.Return.Bounds)
}

func TestExtract_PatternError(t *testing.T) {
	decl := oneMethod(&syntax.Method{
		Name: "sum",
		Params: []syntax.FnArg{
			refSelf(),
			arg("first", i32()),
			&syntax.TypedArg{Pattern: &syntax.OtherPattern{Text: "(a, b)"}, Type: i32()},
		},
	})
	_, err := Extract(decl)
	var pe *PatternError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 1, pe.Index)
	assert.Equal(t, "(a, b)", pe.Pattern)
	assert.Equal(t, `argument 2: pattern "(a, b)" is not a plain identifier`, err.Error())
}

func TestExtract_LateReceiver(t *testing.T) {
	decl := oneMethod(&syntax.Method{Name: "call", Params: []syntax.FnArg{refSelf(), refSelf()}})
	_, err := Extract(decl)
	assert.Equal(t, ReasonLateReceiver, reason(t, err))
}

// ---------------------------------------------------------------------------
// Normalize / Analyze
// ---------------------------------------------------------------------------

func TestNormalize_NoAssocTypesIsIdentity(t *testing.T) {
	s := &Summary{Args: []Arg{{Name: "x", Type: i32()}}, Return: ReturnShape{Kind: ReturnConcrete, Type: i32()}}
	assert.Same(t, s, Normalize(s))
}

func TestNormalize_RewritesEveryPosition(t *testing.T) {
	item := &syntax.AssociatedType{Name: "Item"}
	wrapper := &syntax.AssociatedType{Name: "Wrapper", Bounds: []syntax.Bound{&syntax.TraitBound{Path: func() *syntax.PathType {
		p := syntax.NewPath("From")
		p.Last().Args = &syntax.GenericArgs{Args: []syntax.GenericArg{&syntax.TypeArg{Type: syntax.SelfAssoc("Item")}}}
		return p
	}()}}}

	s := &Summary{
		Args:       []Arg{{Name: "x", Type: &syntax.ReferenceType{Elem: syntax.SelfAssoc("Item")}}},
		Return:     ReturnShape{Kind: ReturnConcrete, Type: syntax.SelfAssoc("Wrapper")},
		AssocTypes: []*syntax.AssociatedType{item, wrapper},
	}
	out := Normalize(s)
	require.NotSame(t, s, out)

	itemParam := syntax.NewPath(rewriter.AssocParam("Item"))
	assert.True(t, syntax.Equal(&syntax.ReferenceType{Elem: itemParam}, out.Args[0].Type))
	assert.True(t, syntax.Equal(syntax.NewPath(rewriter.AssocParam("Wrapper")), out.Return.Type))

	from := out.AssocTypes[1].Bounds[0].(*syntax.TraitBound).Path
	ta := from.Last().Args.Args[0].(*syntax.TypeArg)
	assert.True(t, syntax.Equal(itemParam, ta.Type))

	// The input summary is left alone.
	assert.True(t, syntax.Equal(syntax.SelfAssoc("Wrapper"), s.Return.Type))
}

func TestAnalyze_AssocTypeReturn(t *testing.T) {
	decl := oneMethod(&syntax.Method{
		Name:     "call",
		Generics: []syntax.GenericParam{&syntax.LifetimeParam{Name: "'a"}},
		Params:   []syntax.FnArg{&syntax.Receiver{Reference: true, Lifetime: "'a"}},
		Output:   syntax.SelfAssoc("Output"),
	}, &syntax.AssociatedType{Name: "Output", Bounds: []syntax.Bound{futureOf()}})

	s, err := Analyze(decl, testLogger())
	require.NoError(t, err)
	assert.Equal(t, ReturnConcrete, s.Return.Kind)
	assert.True(t, syntax.Equal(syntax.NewPath(rewriter.AssocParam("Output")), s.Return.Type))
	require.Len(t, s.AssocTypes, 1)
	assert.True(t, syntax.BoundsEqual([]syntax.Bound{futureOf()}, s.AssocTypes[0].Bounds))
	assert.Equal(t, Receiver{Kind: ReceiverByRef, Lifetime: "'a"}, s.Receiver)
}

func TestAnalyze_TwoMethodsRejected(t *testing.T) {
	decl := &syntax.TraitDecl{Name: "Two", Items: []syntax.TraitItem{
		&syntax.Method{Name: "a", Params: []syntax.FnArg{refSelf()}},
		&syntax.Method{Name: "b", Params: []syntax.FnArg{refSelf()}},
	}}
	s, err := Analyze(decl, testLogger())
	assert.Nil(t, s)
	assert.EqualError(t, err, "need exactly 1 method")
}
