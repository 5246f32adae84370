package internal_test

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olehluchkiv/functrait/internal/expand"
	"github.com/olehluchkiv/functrait/internal/generator"
	"github.com/olehluchkiv/functrait/internal/parser"
	"github.com/olehluchkiv/functrait/internal/resolver"
	"github.com/olehluchkiv/functrait/internal/runner"
)

const callable = "FnTraitGen7Qx3vK9mZ2wR8p_F"

func testdataDir(name string) string {
	// Find the project root by looking for go.mod
	wd, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	// We're in internal/, go up one level
	root := filepath.Dir(wd)
	return filepath.Join(root, "testdata", name)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testExpander() *expand.Expander {
	return expand.New(parser.DefaultAttribute, generator.DefaultOptions(), testLogger())
}

// expandInto resolves a fixture and writes the expanded tree to a fresh
// directory, returning the run summary and that directory.
func expandInto(t *testing.T, fixture string) (*runner.Summary, *resolver.Input, string) {
	t.Helper()
	ctx := context.Background()

	in, err := resolver.Resolve(ctx, testdataDir(fixture), testLogger())
	require.NoError(t, err)

	out := t.TempDir()
	sum, err := runner.Run(ctx, testExpander(), in, runner.Options{Output: out, Jobs: 2}, testLogger())
	require.NoError(t, err)
	return sum, in, out
}

func readOutput(t *testing.T, dir, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, rel))
	require.NoError(t, err)
	return string(data)
}

func TestEndToEnd(t *testing.T) {
	tests := []struct {
		name     string
		fixture  string
		validate func(t *testing.T, sum *runner.Summary, in *resolver.Input, out string)
	}{
		{
			name:    "01_single_trait",
			fixture: "01_single_trait",
			validate: func(t *testing.T, sum *runner.Summary, in *resolver.Input, out string) {
				assert.Equal(t, "single_trait", in.Crate)
				assert.Equal(t, 1, sum.Files)
				assert.Equal(t, 1, sum.Traits)
				assert.Zero(t, sum.Failed)

				want := `use functional_trait::functional_trait;

pub trait Scorer {
    fn score(&self, input: &str) -> u32;
}
#[allow(non_camel_case_types)]
impl<FnTraitGen7Qx3vK9mZ2wR8p_F> Scorer for FnTraitGen7Qx3vK9mZ2wR8p_F
where
    FnTraitGen7Qx3vK9mZ2wR8p_F: std::ops::Fn(&str) -> u32,
{
    fn score(&self, input: &str) -> u32 {
        self(input)
    }
}
`
				assert.Equal(t, want, readOutput(t, out, "src/lib.rs"))
			},
		},
		{
			name:    "02_nested_crate",
			fixture: "02_nested_crate",
			validate: func(t *testing.T, sum *runner.Summary, in *resolver.Input, out string) {
				assert.Equal(t, "adapter", filepath.Base(in.Root))
				assert.Equal(t, 1, sum.Traits)

				got := readOutput(t, out, "src/lib.rs")
				assert.NotContains(t, got, "#[functional_trait::functional_trait]")
				assert.Contains(t, got, callable+": std::ops::FnMut(String) -> (),")
				assert.Contains(t, got, "    fn push(&mut self, line: String) {\n        self(line)\n    }\n")
			},
		},
		{
			name:    "03_modules",
			fixture: "03_modules",
			validate: func(t *testing.T, sum *runner.Summary, in *resolver.Input, out string) {
				// target/ is skipped.
				assert.Equal(t, 2, sum.Files)
				assert.Equal(t, 2, sum.Traits)
				assert.Zero(t, sum.Failed)
				assert.Len(t, sum.Modified, 1)
				assert.NoFileExists(t, filepath.Join(out, "target", "debug", "generated.rs"))

				lib := readOutput(t, out, "src/lib.rs")
				assert.Equal(t, "pub mod handlers;\n\npub struct Request {\n    pub path: String,\n}\n", lib)

				handlers := readOutput(t, out, "src/handlers/mod.rs")
				assoc := "FnTraitGen7Qx3vK9mZ2wR8p_FAT_Response"
				assert.Contains(t, handlers, "impl<"+assoc+", "+callable+"> Handler for "+callable)
				assert.Contains(t, handlers, callable+": std::ops::Fn(&Request) -> "+assoc+",")
				assert.Contains(t, handlers, "    type Response = "+assoc+";")
				// The nested module keeps its indentation.
				assert.Contains(t, handlers, "        "+callable+": std::ops::FnOnce() -> bool,")
				assert.Contains(t, handlers, "        fn finish(self) -> bool {\n            self()\n        }\n")
			},
		},
		{
			name:    "04_mixed",
			fixture: "04_mixed",
			validate: func(t *testing.T, sum *runner.Summary, in *resolver.Input, out string) {
				assert.Equal(t, 2, sum.Traits)
				assert.Equal(t, 1, sum.Failed)
				require.Len(t, sum.Diagnostics, 1)
				assert.Equal(t, "Pair", sum.Diagnostics[0].Trait)
				assert.Equal(t, filepath.Join("src", "lib.rs"), sum.Diagnostics[0].Path)

				got := readOutput(t, out, "src/lib.rs")
				assert.Contains(t, got, "pub trait Pair {\n    fn left(&self);\n    fn right(&self);\n}\ncompile_error!(\"need exactly 1 method\");\n")
				assert.Contains(t, got, callable+": std::ops::FnMut(usize) -> usize,")
				assert.Equal(t, 1, strings.Count(got, "compile_error!"))
			},
		},
		{
			name:    "05_no_targets",
			fixture: "05_no_targets",
			validate: func(t *testing.T, sum *runner.Summary, in *resolver.Input, out string) {
				assert.Zero(t, sum.Traits)
				assert.Empty(t, sum.Modified)

				src, err := os.ReadFile(filepath.Join(testdataDir("05_no_targets"), "src", "lib.rs"))
				require.NoError(t, err)
				assert.Equal(t, string(src), readOutput(t, out, "src/lib.rs"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sum, in, out := expandInto(t, tt.fixture)
			tt.validate(t, sum, in, out)
		})
	}
}

// TestEndToEnd_Idempotent feeds an expanded tree back in: the marker is
// gone, so nothing changes the second time.
func TestEndToEnd_Idempotent(t *testing.T) {
	_, _, out := expandInto(t, "03_modules")

	ctx := context.Background()
	in, err := resolver.Resolve(ctx, out, testLogger())
	require.NoError(t, err)

	var diff bytes.Buffer
	sum, err := runner.Run(ctx, testExpander(), in, runner.Options{Check: true, Stdout: &diff}, testLogger())
	require.NoError(t, err)
	assert.Zero(t, sum.Traits)
	assert.Empty(t, diff.String())
}

func TestEndToEnd_CheckMode(t *testing.T) {
	ctx := context.Background()
	in, err := resolver.Resolve(ctx, testdataDir("01_single_trait"), testLogger())
	require.NoError(t, err)

	var diff bytes.Buffer
	sum, err := runner.Run(ctx, testExpander(), in, runner.Options{Check: true, Stdout: &diff}, testLogger())
	require.NoError(t, err)
	assert.Len(t, sum.Modified, 1)

	got := diff.String()
	assert.True(t, strings.HasPrefix(got, "--- a/src/lib.rs\n+++ b/src/lib.rs\n"), got)
	assert.Contains(t, got, "-#[functional_trait]\n")
	assert.Contains(t, got, "+#[allow(non_camel_case_types)]\n")
}

func TestEndToEnd_CapabilityPath(t *testing.T) {
	ctx := context.Background()
	in, err := resolver.Resolve(ctx, testdataDir("01_single_trait"), testLogger())
	require.NoError(t, err)

	exp := expand.New(parser.DefaultAttribute, generator.Options{CapabilityPath: "core::ops"}, testLogger())
	var stdout bytes.Buffer
	_, err = runner.Run(ctx, exp, in, runner.Options{Stdout: &stdout}, testLogger())
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), callable+": core::ops::Fn(&str) -> u32,")
}
