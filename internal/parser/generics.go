package parser

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/olehluchkiv/functrait/internal/syntax"
)

func (c *converter) genericParams(n *sitter.Node) ([]syntax.GenericParam, error) {
	var params []syntax.GenericParam
	for _, p := range namedChildren(n) {
		if p.Type() == "attribute_item" {
			continue
		}
		if p.IsError() {
			// const N: usize = 3, where the grammar stops before the default.
			var cp *syntax.ConstParam
			if len(params) > 0 {
				cp, _ = params[len(params)-1].(*syntax.ConstParam)
			}
			def := constDefault(c.text(p))
			if cp == nil || cp.Default != "" || def == "" {
				return nil, c.errorf(p, "unsupported generic parameter %q", c.text(p))
			}
			cp.Default = def
			continue
		}
		param, err := c.genericParam(p)
		if err != nil {
			return nil, err
		}
		params = append(params, param)
	}
	return params, nil
}

func (c *converter) genericParam(p *sitter.Node) (syntax.GenericParam, error) {
	switch p.Type() {
	case "lifetime":
		return &syntax.LifetimeParam{Name: c.text(p)}, nil

	case "lifetime_parameter":
		name := p.ChildByFieldName("name")
		if name == nil {
			name = childOfType(p, "lifetime")
		}
		lp := &syntax.LifetimeParam{Name: textOf(c, name)}
		if bounds := p.ChildByFieldName("bounds"); bounds != nil {
			lp.Bounds = c.lifetimeNames(bounds)
		}
		return lp, nil

	case "type_identifier", "metavariable":
		return &syntax.TypeParam{Name: c.text(p)}, nil

	case "type_parameter":
		tp := &syntax.TypeParam{Name: textOf(c, p.ChildByFieldName("name"))}
		if bounds := p.ChildByFieldName("bounds"); bounds != nil {
			b, err := c.traitBounds(bounds)
			if err != nil {
				return nil, err
			}
			tp.Bounds = b
		}
		if def := p.ChildByFieldName("default_type"); def != nil {
			t, err := c.typeExpr(def)
			if err != nil {
				return nil, err
			}
			tp.Default = t
		}
		return tp, nil

	case "constrained_type_parameter":
		left := p.ChildByFieldName("left")
		bounds := p.ChildByFieldName("bounds")
		if left == nil {
			return nil, c.errorf(p, "malformed generic parameter %q", c.text(p))
		}
		if left.Type() == "lifetime" {
			lp := &syntax.LifetimeParam{Name: c.text(left)}
			if bounds != nil {
				lp.Bounds = c.lifetimeNames(bounds)
			}
			return lp, nil
		}
		tp := &syntax.TypeParam{Name: c.text(left)}
		if bounds != nil {
			b, err := c.traitBounds(bounds)
			if err != nil {
				return nil, err
			}
			tp.Bounds = b
		}
		return tp, nil

	case "optional_type_parameter":
		name := p.ChildByFieldName("name")
		if name == nil {
			return nil, c.errorf(p, "malformed generic parameter %q", c.text(p))
		}
		inner, err := c.genericParam(name)
		if err != nil {
			return nil, err
		}
		tp, ok := inner.(*syntax.TypeParam)
		if !ok {
			return nil, c.errorf(p, "default on non-type parameter %q", c.text(p))
		}
		if def := p.ChildByFieldName("default_type"); def != nil {
			t, err := c.typeExpr(def)
			if err != nil {
				return nil, err
			}
			tp.Default = t
		}
		return tp, nil

	case "const_parameter":
		cp := &syntax.ConstParam{Name: textOf(c, p.ChildByFieldName("name"))}
		t, err := c.fieldType(p, "type")
		if err != nil {
			return nil, err
		}
		cp.Type = t
		cp.Default = textOf(c, p.ChildByFieldName("value"))
		return cp, nil
	}
	return nil, c.errorf(p, "unsupported generic parameter %q", c.text(p))
}

// lifetimeNames collects the lifetimes listed directly under n, as in
// for<'a, 'b> or 'a: 'b + 'c.
func (c *converter) lifetimeNames(n *sitter.Node) []string {
	var out []string
	for _, ch := range namedChildren(n) {
		switch ch.Type() {
		case "lifetime":
			out = append(out, c.text(ch))
		case "lifetime_parameter":
			if lt := childOfType(ch, "lifetime"); lt != nil {
				out = append(out, c.text(lt))
			}
		}
	}
	return out
}

// traitBounds converts a trait_bounds node (": A + B + 'a").
func (c *converter) traitBounds(n *sitter.Node) ([]syntax.Bound, error) {
	var nodes []*sitter.Node
	for _, ch := range namedChildren(n) {
		nodes = append(nodes, flattenBounded(ch)...)
	}
	return c.boundList(nodes)
}

// boundsOf converts the bound list held in field of n, as in impl A + B.
func (c *converter) boundsOf(n *sitter.Node, field string) ([]syntax.Bound, error) {
	var nodes []*sitter.Node
	if ch := n.ChildByFieldName(field); ch != nil {
		nodes = flattenBounded(ch)
	} else {
		for _, ch := range namedChildren(n) {
			if ch.Type() == "type_parameters" {
				continue
			}
			nodes = append(nodes, flattenBounded(ch)...)
		}
	}
	return c.boundList(nodes)
}

func (c *converter) boundList(nodes []*sitter.Node) ([]syntax.Bound, error) {
	var out []syntax.Bound
	for _, n := range nodes {
		b, err := c.bound(n)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func (c *converter) bound(n *sitter.Node) (syntax.Bound, error) {
	switch n.Type() {
	case "lifetime":
		return &syntax.LifetimeBound{Name: c.text(n)}, nil

	case "higher_ranked_trait_bound":
		inner := n.ChildByFieldName("type")
		if inner == nil {
			return nil, c.errorf(n, "malformed bound %q", c.text(n))
		}
		b, err := c.bound(inner)
		if err != nil {
			return nil, err
		}
		tb, ok := b.(*syntax.TraitBound)
		if !ok {
			return nil, c.errorf(n, "unsupported bound %q", c.text(n))
		}
		if tp := n.ChildByFieldName("type_parameters"); tp != nil {
			tb.Lifetimes = c.lifetimeNames(tp)
		}
		return tb, nil

	case "removed_trait_bound":
		inner := firstNamed(n)
		if inner == nil {
			return nil, c.errorf(n, "malformed bound %q", c.text(n))
		}
		b, err := c.bound(inner)
		if err != nil {
			return nil, err
		}
		tb, ok := b.(*syntax.TraitBound)
		if !ok {
			return nil, c.errorf(n, "unsupported bound %q", c.text(n))
		}
		tb.Maybe = true
		return tb, nil

	case "function_type":
		if n.ChildByFieldName("trait") != nil {
			return c.fnTraitBound(n)
		}

	case "type_identifier", "scoped_type_identifier", "generic_type":
		p, err := c.path(n)
		if err != nil {
			return nil, err
		}
		return &syntax.TraitBound{Path: p}, nil
	}
	return nil, c.errorf(n, "unsupported bound %q", c.text(n))
}

// fnTraitBound converts Fn(A, B) -> C sugar into a path with parenthesized
// arguments.
func (c *converter) fnTraitBound(n *sitter.Node) (*syntax.TraitBound, error) {
	p, err := c.path(n.ChildByFieldName("trait"))
	if err != nil {
		return nil, err
	}
	args := &syntax.GenericArgs{Parenthesized: true}
	if params := n.ChildByFieldName("parameters"); params != nil {
		for _, ch := range namedChildren(params) {
			target := ch
			if ch.Type() == "parameter" {
				target = ch.ChildByFieldName("type")
			}
			if target == nil {
				return nil, c.errorf(ch, "malformed parameter %q", c.text(ch))
			}
			t, err := c.typeExpr(target)
			if err != nil {
				return nil, err
			}
			args.Inputs = append(args.Inputs, t)
		}
	}
	if ret := n.ChildByFieldName("return_type"); ret != nil {
		out, err := c.typeExpr(ret)
		if err != nil {
			return nil, err
		}
		args.Output = out
	}
	p.Segments[len(p.Segments)-1].Args = args

	tb := &syntax.TraitBound{Path: p}
	if fl := childOfType(n, "for_lifetimes"); fl != nil {
		tb.Lifetimes = c.lifetimeNames(fl)
	}
	return tb, nil
}

func (c *converter) whereClause(n *sitter.Node) ([]syntax.WherePredicate, error) {
	var preds []syntax.WherePredicate
	for _, p := range namedChildren(n) {
		if p.Type() != "where_predicate" {
			continue
		}
		left := p.ChildByFieldName("left")
		bounds := p.ChildByFieldName("bounds")
		if left == nil || bounds == nil {
			return nil, c.errorf(p, "malformed where predicate %q", c.text(p))
		}

		if left.Type() == "lifetime" {
			preds = append(preds, &syntax.LifetimePredicate{Lifetime: c.text(left), Bounds: c.lifetimeNames(bounds)})
			continue
		}

		pred := &syntax.BoundPredicate{}
		bounded := left
		if left.Type() == "higher_ranked_trait_bound" {
			if tp := left.ChildByFieldName("type_parameters"); tp != nil {
				pred.Lifetimes = c.lifetimeNames(tp)
			}
			bounded = left.ChildByFieldName("type")
			if bounded == nil {
				return nil, c.errorf(p, "malformed where predicate %q", c.text(p))
			}
		}
		t, err := c.typeExpr(bounded)
		if err != nil {
			return nil, err
		}
		pred.Bounded = t
		if pred.Bounds, err = c.traitBounds(bounds); err != nil {
			return nil, err
		}
		preds = append(preds, pred)
	}
	return preds, nil
}
