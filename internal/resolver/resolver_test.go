package resolver

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestFindCrateRootInTree_AtRoot(t *testing.T) {
	tmp := t.TempDir()
	writeFile(t, filepath.Join(tmp, "Cargo.toml"), "[package]\n")

	got, err := findCrateRootInTree(tmp)
	require.NoError(t, err)
	assert.Equal(t, tmp, got)
}

func TestFindCrateRootInTree_InSubdirectory(t *testing.T) {
	tmp := t.TempDir()
	subdir := filepath.Join(tmp, "backend")
	writeFile(t, filepath.Join(subdir, "Cargo.toml"), "[package]\n")

	got, err := findCrateRootInTree(tmp)
	require.NoError(t, err)
	assert.Equal(t, subdir, got)
}

func TestFindCrateRootInTree_NoManifest(t *testing.T) {
	tmp := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(tmp, "src"), 0o755))

	_, err := findCrateRootInTree(tmp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no Cargo.toml found")
}

func TestFindCrateRootInTree_SkipsGitDir(t *testing.T) {
	tmp := t.TempDir()
	writeFile(t, filepath.Join(tmp, ".git", "Cargo.toml"), "[package]\n")
	realDir := filepath.Join(tmp, "real")
	writeFile(t, filepath.Join(realDir, "Cargo.toml"), "[package]\n")

	got, err := findCrateRootInTree(tmp)
	require.NoError(t, err)
	assert.Equal(t, realDir, got)
}

func TestFindCrateRootInTree_PicksShallowest(t *testing.T) {
	tmp := t.TempDir()
	writeFile(t, filepath.Join(tmp, "a", "b", "Cargo.toml"), "[package]\n")
	shallow := filepath.Join(tmp, "a")
	writeFile(t, filepath.Join(shallow, "Cargo.toml"), "[package]\n")

	got, err := findCrateRootInTree(tmp)
	require.NoError(t, err)
	assert.Equal(t, shallow, got)
}

func TestFindCrateRootInTree_SameDepthSorted(t *testing.T) {
	tmp := t.TempDir()
	dirA := filepath.Join(tmp, "alpha")
	writeFile(t, filepath.Join(dirA, "Cargo.toml"), "[package]\n")
	writeFile(t, filepath.Join(tmp, "beta", "Cargo.toml"), "[package]\n")

	got, err := findCrateRootInTree(tmp)
	require.NoError(t, err)
	assert.Equal(t, dirA, got)
}

func TestFindCrateRootInTree_SkipsTargetVendorAndNodeModules(t *testing.T) {
	tmp := t.TempDir()
	for _, skip := range []string{"target", "vendor", "node_modules"} {
		writeFile(t, filepath.Join(tmp, skip, "Cargo.toml"), "[package]\n")
	}

	_, err := findCrateRootInTree(tmp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no Cargo.toml found")
}

func TestFindCrateRoot_WalksUp(t *testing.T) {
	tmp := t.TempDir()
	writeFile(t, filepath.Join(tmp, "Cargo.toml"), "[package]\n")
	deep := filepath.Join(tmp, "src", "nested")
	require.NoError(t, os.MkdirAll(deep, 0o755))

	got, err := FindCrateRoot(deep)
	require.NoError(t, err)
	assert.Equal(t, tmp, got)
}

func TestResolve_Directory(t *testing.T) {
	tmp := t.TempDir()
	writeFile(t, filepath.Join(tmp, "Cargo.toml"), "[package]\n")
	writeFile(t, filepath.Join(tmp, "src", "lib.rs"), "")
	writeFile(t, filepath.Join(tmp, "src", "a", "mod.rs"), "")
	writeFile(t, filepath.Join(tmp, "src", "notes.md"), "")
	writeFile(t, filepath.Join(tmp, "target", "debug", "build.rs"), "")
	writeFile(t, filepath.Join(tmp, ".cargo", "hidden.rs"), "")

	in, err := Resolve(context.Background(), tmp, testLogger())
	require.NoError(t, err)

	assert.Equal(t, tmp, in.Root)
	assert.Empty(t, in.Crate)
	assert.False(t, in.Remote)
	assert.Equal(t, []string{
		filepath.Join(tmp, "src", "a", "mod.rs"),
		filepath.Join(tmp, "src", "lib.rs"),
	}, in.Files)
}

func TestResolve_File(t *testing.T) {
	tmp := t.TempDir()
	writeFile(t, filepath.Join(tmp, "Cargo.toml"), "[package]\n")
	file := filepath.Join(tmp, "src", "lib.rs")
	writeFile(t, file, "")

	in, err := Resolve(context.Background(), file, testLogger())
	require.NoError(t, err)
	assert.Equal(t, tmp, in.Root)
	assert.Equal(t, []string{file}, in.Files)
}

func TestResolve_RejectsNonRustFile(t *testing.T) {
	tmp := t.TempDir()
	file := filepath.Join(tmp, "main.go")
	writeFile(t, file, "package main\n")

	_, err := Resolve(context.Background(), file, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a Rust source file")
}

func TestResolve_EmptyDirectory(t *testing.T) {
	_, err := Resolve(context.Background(), t.TempDir(), testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no .rs files found")
}

func TestResolve_Missing(t *testing.T) {
	_, err := Resolve(context.Background(), filepath.Join(t.TempDir(), "nope"), testLogger())
	require.Error(t, err)
}

func TestIsGitHubURL(t *testing.T) {
	assert.True(t, isGitHubURL("https://github.com/rust-lang/rust"))
	assert.False(t, isGitHubURL("github.com/rust-lang/rust"))
	assert.False(t, isGitHubURL("./src"))
}

func TestNormalizeRepoURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://github.com/owner/repo", "https://github.com/owner/repo.git"},
		{"https://github.com/owner/repo/", "https://github.com/owner/repo.git"},
		{"https://github.com/owner/repo.git", "https://github.com/owner/repo.git"},
		{"https://github.com/owner/repo/tree/main/src", "https://github.com/owner/repo.git"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeRepoURL(tt.in), tt.in)
	}
}

func TestCacheDir_StablePerURL(t *testing.T) {
	a, err := cacheDir("https://github.com/owner/a")
	require.NoError(t, err)
	again, err := cacheDir("https://github.com/owner/a")
	require.NoError(t, err)
	b, err := cacheDir("https://github.com/owner/b")
	require.NoError(t, err)

	assert.Equal(t, a, again)
	assert.NotEqual(t, a, b)
	assert.Equal(t, "repos", filepath.Base(filepath.Dir(a)))
}
