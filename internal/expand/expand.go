// Package expand rewrites a Rust source file so every trait carrying the
// marker attribute is followed by its closure adapter, or by a
// compile_error! when no adapter can be derived.
package expand

import (
	"bytes"
	"context"
	"log/slog"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/olehluchkiv/functrait/internal/analyzer"
	"github.com/olehluchkiv/functrait/internal/generator"
	"github.com/olehluchkiv/functrait/internal/parser"
	"github.com/olehluchkiv/functrait/internal/render"
)

// Report describes the outcome for one marked trait.
type Report struct {
	Trait string `json:"trait"`
	Line  int    `json:"line"`
	Error string `json:"error,omitempty"`
}

// Result is the expansion of one source file.
type Result struct {
	Name    string
	Output  []byte
	Reports []Report
}

// Changed reports whether any marked trait was found.
func (r *Result) Changed() bool {
	return len(r.Reports) > 0
}

// Failed reports whether any trait produced a diagnostic instead of an impl.
func (r *Result) Failed() bool {
	for _, rep := range r.Reports {
		if rep.Error != "" {
			return true
		}
	}
	return false
}

// Expander drives parsing, analysis, generation and splicing.
type Expander struct {
	Parser  *parser.Parser
	Options generator.Options
	Logger  *slog.Logger
}

// New returns an expander for the given attribute name and generator options.
func New(attribute string, opts generator.Options, logger *slog.Logger) *Expander {
	return &Expander{
		Parser:  parser.New(attribute, logger),
		Options: opts,
		Logger:  logger.With("component", "expand"),
	}
}

// Expand processes src. name is used for logging only. A trait that cannot
// be adapted is not an error here: it yields a compile_error! in the output
// and a Report carrying the reason.
func (e *Expander) Expand(ctx context.Context, name string, src []byte) (*Result, error) {
	targets, err := e.Parser.Parse(ctx, src)
	if err != nil {
		return nil, errors.Wrapf(err, "expanding %s", name)
	}

	res := &Result{Name: name}
	if len(targets) == 0 {
		res.Output = src
		return res, nil
	}

	var out bytes.Buffer
	pos := uint32(0)
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		block, rep := e.expandTarget(t)
		res.Reports = append(res.Reports, rep)

		out.Write(src[pos:t.AttrStart])
		out.Write(src[skipAttr(src, t.AttrEnd, t.ItemStart):t.ItemEnd])
		out.WriteByte('\n')
		out.WriteString(strings.TrimSuffix(indentBlock(block, lineIndent(src, t.ItemStart)), "\n"))
		pos = t.ItemEnd
	}
	out.Write(src[pos:])
	res.Output = out.Bytes()

	e.Logger.Info("expanded",
		"file", name,
		"traits", len(res.Reports),
		"failed", res.Failed())
	return res, nil
}

func (e *Expander) expandTarget(t parser.Target) (string, Report) {
	rep := Report{Trait: t.Name, Line: t.Line}
	if t.Err != nil {
		rep.Error = t.Err.Error()
		e.Logger.Warn("trait not expanded", "trait", t.Name, "line", t.Line, "error", t.Err)
		return render.CompileError(rep.Error), rep
	}

	summary, err := analyzer.Analyze(t.Decl, e.Logger)
	if err != nil {
		rep.Error = err.Error()
		e.Logger.Warn("trait not expanded", "trait", t.Name, "line", t.Line, "error", err)
		return render.CompileError(rep.Error), rep
	}

	impl := generator.Generate(summary, e.Options)
	return render.Impl(impl), rep
}

// skipAttr returns the offset where the copied text resumes after the
// attribute: the rest of the attribute's line is dropped when it is blank,
// and so is the indentation that begins the next line.
func skipAttr(src []byte, attrEnd, itemStart uint32) uint32 {
	i := attrEnd
	for i < itemStart && isBlank(src[i]) {
		i++
	}
	if i < itemStart && src[i] == '\r' {
		i++
	}
	if i < itemStart && src[i] == '\n' {
		i++
		for i < itemStart && isBlank(src[i]) {
			i++
		}
	}
	return i
}

// lineIndent returns the leading whitespace of the line containing off, or
// "" when something other than whitespace precedes off on that line.
func lineIndent(src []byte, off uint32) string {
	start := int(off)
	for start > 0 && src[start-1] != '\n' {
		start--
	}
	prefix := src[start:off]
	for _, c := range prefix {
		if !isBlank(c) {
			return ""
		}
	}
	return string(prefix)
}

func indentBlock(block, indent string) string {
	if indent == "" {
		return block
	}
	var b bytes.Buffer
	for _, line := range bytes.SplitAfter([]byte(block), []byte("\n")) {
		if len(bytes.TrimSpace(line)) > 0 {
			b.WriteString(indent)
		}
		b.Write(line)
	}
	return b.String()
}

func isBlank(c byte) bool {
	return c == ' ' || c == '\t'
}
