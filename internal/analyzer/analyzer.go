// Package analyzer validates a trait declaration and summarizes the parts of
// it the adapter generator needs.
package analyzer

import (
	"log/slog"

	"github.com/olehluchkiv/functrait/internal/rewriter"
	"github.com/olehluchkiv/functrait/internal/syntax"
)

// Analyze runs validation, extraction and associated-type normalization.
// The first failure stops the pipeline and is returned unchanged.
func Analyze(decl *syntax.TraitDecl, logger *slog.Logger) (*Summary, error) {
	if err := Validate(decl); err != nil {
		logger.Debug("trait rejected", "trait", decl.Name, "reason", err)
		return nil, err
	}

	s, err := Extract(decl)
	if err != nil {
		logger.Debug("trait rejected", "trait", decl.Name, "reason", err)
		return nil, err
	}

	s = Normalize(s)
	logger.Debug("trait analyzed",
		"trait", s.TraitName,
		"method", s.MethodName,
		"receiver", s.Receiver.Kind.String(),
		"args", len(s.Args),
		"return", s.Return.Kind.String(),
		"assoc_types", len(s.AssocTypes))
	return s, nil
}

// Normalize returns a copy of s in which every Self::Assoc reference in the
// argument types, the return shape and the associated-type bounds has been
// replaced by its placeholder parameter.
func Normalize(s *Summary) *Summary {
	if len(s.AssocTypes) == 0 {
		return s
	}
	out := *s
	assoc := s.AssocTypes

	out.Args = make([]Arg, len(s.Args))
	for i, a := range s.Args {
		out.Args[i] = Arg{Name: a.Name, Type: rewriter.Rewrite(a.Type, assoc)}
	}

	out.Return = ReturnShape{Kind: s.Return.Kind}
	switch s.Return.Kind {
	case ReturnConcrete:
		out.Return.Type = rewriter.Rewrite(s.Return.Type, assoc)
	case ReturnOpaque:
		out.Return.Bounds = rewriter.RewriteBounds(s.Return.Bounds, assoc)
	}

	out.AssocTypes = make([]*syntax.AssociatedType, len(assoc))
	for i, at := range assoc {
		out.AssocTypes[i] = &syntax.AssociatedType{Name: at.Name, Bounds: rewriter.RewriteBounds(at.Bounds, assoc)}
	}
	return &out
}
