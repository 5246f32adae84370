// Package parser finds attributed trait declarations in Rust source and
// converts them into the syntax model.
package parser

import (
	"context"
	"log/slog"
	"strings"

	"github.com/cockroachdb/errors"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"

	"github.com/olehluchkiv/functrait/internal/syntax"
)

// DefaultAttribute is the attribute that marks a trait for expansion.
const DefaultAttribute = "functional_trait"

// Target is one trait carrying the marker attribute.
type Target struct {
	Name string
	Line int // 1-based line of the trait keyword's item

	// Byte spans in the source. The attribute span covers #[...].
	AttrStart, AttrEnd uint32
	ItemStart, ItemEnd uint32

	// Decl is the converted declaration. When the trait could not be
	// converted, Decl is nil and Err says why.
	Decl *syntax.TraitDecl
	Err  error
}

// Parser locates marked traits. It holds no tree-sitter state between
// calls and may be shared between goroutines.
type Parser struct {
	attribute string
	logger    *slog.Logger
}

// New returns a parser matching attribute by its last path segment, so
// both #[functional_trait] and #[functional_trait::functional_trait] match
// the default.
func New(attribute string, logger *slog.Logger) *Parser {
	if attribute == "" {
		attribute = DefaultAttribute
	}
	return &Parser{attribute: attribute, logger: logger.With("component", "parser")}
}

// Parse returns the marked traits in src in source order. Conversion
// problems are reported per target; the error is reserved for failures to
// parse the file at all.
func (p *Parser) Parse(ctx context.Context, src []byte) ([]Target, error) {
	ts := sitter.NewParser()
	ts.SetLanguage(rust.GetLanguage())

	tree, err := ts.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, errors.Wrap(err, "parsing rust source")
	}
	root := tree.RootNode()
	if root.HasError() {
		p.logger.Debug("source contains syntax errors")
	}

	var targets []Target
	p.scan(root, src, &targets)
	p.logger.Debug("scan complete", "targets", len(targets))
	return targets, nil
}

// scan walks the items of a source file or inline module body.
func (p *Parser) scan(body *sitter.Node, src []byte, out *[]Target) {
	var marker *sitter.Node
	for i := 0; i < int(body.NamedChildCount()); i++ {
		n := body.NamedChild(i)
		switch n.Type() {
		case "line_comment", "block_comment":
			continue
		case "attribute_item":
			if p.matches(n.Content(src)) {
				marker = n
			}
			continue
		case "trait_item":
			if marker != nil {
				*out = append(*out, p.target(marker, n, src))
			}
		case "mod_item":
			if modBody := n.ChildByFieldName("body"); modBody != nil {
				p.scan(modBody, src, out)
			}
		}
		marker = nil
	}
}

func (p *Parser) target(attr, item *sitter.Node, src []byte) Target {
	t := Target{
		Line:      int(item.StartPoint().Row) + 1,
		AttrStart: attr.StartByte(),
		AttrEnd:   attr.EndByte(),
		ItemStart: item.StartByte(),
		ItemEnd:   item.EndByte(),
	}
	if name := item.ChildByFieldName("name"); name != nil {
		t.Name = name.Content(src)
	}

	c := &converter{src: src}
	decl, err := c.trait(item)
	if err != nil {
		t.Err = err
		p.logger.Debug("trait not converted", "trait", t.Name, "line", t.Line, "error", err)
		return t
	}
	t.Decl = decl
	return t
}

// matches reports whether the attribute text (#[path(args)]) names the
// configured attribute.
func (p *Parser) matches(attr string) bool {
	body := strings.TrimSpace(attr)
	if !strings.HasPrefix(body, "#[") || !strings.HasSuffix(body, "]") {
		return false
	}
	body = strings.TrimSpace(body[2 : len(body)-1])
	if i := strings.IndexAny(body, "(=[{ "); i >= 0 {
		body = body[:i]
	}
	if i := strings.LastIndex(body, "::"); i >= 0 {
		body = body[i+2:]
	}
	return body == p.attribute
}
