package syntax

// Bound is one entry of a bound list (T: A + 'a + ?Sized).
type Bound interface {
	bound()
}

// TraitBound is a trait reference used as a bound.
type TraitBound struct {
	Maybe     bool     // ?Sized
	Lifetimes []string // for<'a, 'b>
	Path      *PathType
}

// LifetimeBound is an outlives bound, 'a.
type LifetimeBound struct {
	Name string
}

func (*TraitBound) bound()    {}
func (*LifetimeBound) bound() {}

// GenericParam is one entry of a generic parameter list.
type GenericParam interface {
	genericParam()
	ParamName() string
}

// LifetimeParam is 'a or 'a: 'b + 'c.
type LifetimeParam struct {
	Name   string
	Bounds []string
}

// TypeParam is T, T: Bound, or T = Default.
type TypeParam struct {
	Name    string
	Bounds  []Bound
	Default TypeExpr
}

// ConstParam is const N: usize, optionally with a default.
type ConstParam struct {
	Name    string
	Type    TypeExpr
	Default string
}

func (*LifetimeParam) genericParam() {}
func (*TypeParam) genericParam()     {}
func (*ConstParam) genericParam()    {}

func (p *LifetimeParam) ParamName() string { return p.Name }
func (p *TypeParam) ParamName() string     { return p.Name }
func (p *ConstParam) ParamName() string    { return p.Name }

// WherePredicate is one entry of a where clause.
type WherePredicate interface {
	wherePredicate()
}

// BoundPredicate is for<'a> T: A + B.
type BoundPredicate struct {
	Lifetimes []string
	Bounded   TypeExpr
	Bounds    []Bound
}

// LifetimePredicate is 'a: 'b + 'c.
type LifetimePredicate struct {
	Lifetime string
	Bounds   []string
}

func (*BoundPredicate) wherePredicate()    {}
func (*LifetimePredicate) wherePredicate() {}

// Lifetimes returns the lifetime parameters of a generic list, in order.
func Lifetimes(params []GenericParam) []*LifetimeParam {
	var out []*LifetimeParam
	for _, p := range params {
		if lp, ok := p.(*LifetimeParam); ok {
			out = append(out, lp)
		}
	}
	return out
}
