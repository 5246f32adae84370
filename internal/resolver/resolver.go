// Package resolver turns a CLI input (a .rs file, a directory or a GitHub
// URL) into the list of Rust source files to expand.
package resolver

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

const manifest = "Cargo.toml"

// skipDirs are never descended into when collecting sources.
var skipDirs = map[string]bool{
	"target":       true,
	".git":         true,
	"vendor":       true,
	"node_modules": true,
}

// Input is a resolved CLI argument.
type Input struct {
	// Root is the directory outputs are laid out relative to: the crate
	// root when one was found, otherwise the input directory.
	Root string
	// Files are the absolute paths of the .rs files to process, sorted.
	Files []string
	// Crate is the package name from Root's Cargo.toml, if any.
	Crate string
	// Remote is set when the sources came from a cached clone.
	Remote bool
}

// Resolve locates the sources named by input.
func Resolve(ctx context.Context, input string, logger *slog.Logger) (*Input, error) {
	if isGitHubURL(input) {
		dir, err := fetchRepo(ctx, input, logger)
		if err != nil {
			return nil, err
		}
		in, err := resolveDir(dir, logger)
		if err != nil {
			return nil, err
		}
		in.Remote = true
		return in, nil
	}

	absPath, err := filepath.Abs(input)
	if err != nil {
		return nil, errors.Wrap(err, "resolving path")
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, errors.Wrapf(err, "stat %s", absPath)
	}

	if !info.IsDir() {
		if filepath.Ext(absPath) != ".rs" {
			return nil, errors.WithHint(
				errors.Newf("%s is not a Rust source file", absPath),
				"pass a .rs file, a directory or a GitHub URL")
		}
		root, err := FindCrateRoot(filepath.Dir(absPath))
		if err != nil {
			root = filepath.Dir(absPath)
		}
		logger.Info("resolved source file", "input", input, "crate_root", root)
		return &Input{Root: root, Files: []string{absPath}, Crate: crateName(root)}, nil
	}

	return resolveDir(absPath, logger)
}

func resolveDir(dir string, logger *slog.Logger) (*Input, error) {
	root, err := FindCrateRoot(dir)
	if err != nil {
		if root, err = findCrateRootInTree(dir); err != nil {
			logger.Warn("no Cargo.toml found, using input directory", "dir", dir)
			root = dir
		}
	}

	files, err := rustFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.WithHint(
			errors.Newf("no .rs files found in %s", dir),
			"target/, vendor/ and hidden directories are skipped")
	}

	crate := crateName(root)
	logger.Info("resolved directory", "dir", dir, "crate_root", root, "crate", crate, "files", len(files))
	return &Input{Root: root, Files: files, Crate: crate}, nil
}

// FindCrateRoot returns the nearest directory at or above dir that holds a
// Cargo.toml.
func FindCrateRoot(dir string) (string, error) {
	current := dir
	for {
		if _, err := os.Stat(filepath.Join(current, manifest)); err == nil {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", errors.Newf("no %s found in %s or any parent directory", manifest, dir)
		}
		current = parent
	}
}

// findCrateRootInTree searches below root for the shallowest Cargo.toml.
// Ties at the same depth go to the alphabetically first path.
func findCrateRootInTree(root string) (string, error) {
	var found []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && path != root && SkipDir(d.Name()) {
			return filepath.SkipDir
		}
		if !d.IsDir() && d.Name() == manifest {
			found = append(found, filepath.Dir(path))
		}
		return nil
	})
	if err != nil {
		return "", errors.Wrapf(err, "walking %s", root)
	}
	if len(found) == 0 {
		return "", errors.Newf("no %s found in %s", manifest, root)
	}

	sort.Slice(found, func(i, j int) bool {
		di, dj := depth(found[i]), depth(found[j])
		if di != dj {
			return di < dj
		}
		return found[i] < found[j]
	})
	return found[0], nil
}

func rustFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && SkipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) == ".rs" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "walking %s", dir)
	}
	sort.Strings(files)
	return files, nil
}

// SkipDir reports whether source collection skips a directory named name.
func SkipDir(name string) bool {
	return skipDirs[name] || strings.HasPrefix(name, ".")
}

func depth(path string) int {
	return strings.Count(filepath.ToSlash(path), "/")
}

func isGitHubURL(input string) bool {
	return strings.Contains(input, "github.com") &&
		(strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://"))
}

// cacheDir returns a stable directory for caching a cloned repo:
// ~/.cache/functrait/repos/<hash of the URL>.
func cacheDir(url string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "getting home dir")
	}
	h := sha256.Sum256([]byte(url))
	return filepath.Join(home, ".cache", "functrait", "repos", fmt.Sprintf("%x", h[:8])), nil
}

// fetchRepo refreshes a cached clone of url, or clones it when there is no
// usable cache, and returns the clone directory.
func fetchRepo(ctx context.Context, url string, logger *slog.Logger) (string, error) {
	dir, err := cacheDir(url)
	if err != nil {
		return "", err
	}

	repo, err := git.PlainOpen(dir)
	if err != nil {
		return cloneRepo(ctx, url, dir, logger)
	}

	logger.Info("updating cached repository", "url", url, "dir", dir)
	if err := updateRepo(ctx, repo); err != nil {
		logger.Warn("updating cache failed, will re-clone", "error", err)
		_ = os.RemoveAll(dir)
		return cloneRepo(ctx, url, dir, logger)
	}
	logger.Info("repository updated", "dir", dir)
	return dir, nil
}

// updateRepo fetches origin and hard-resets the checked out branch to its
// remote tip.
func updateRepo(ctx context.Context, repo *git.Repository) error {
	err := repo.FetchContext(ctx, &git.FetchOptions{RemoteName: git.DefaultRemoteName, Depth: 1, Force: true})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return errors.Wrap(err, "git fetch")
	}

	head, err := repo.Head()
	if err != nil {
		return errors.Wrap(err, "reading HEAD")
	}
	remote := plumbing.NewRemoteReferenceName(git.DefaultRemoteName, head.Name().Short())
	ref, err := repo.Reference(remote, true)
	if err != nil {
		return errors.Wrapf(err, "resolving %s", remote)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return errors.Wrap(err, "opening worktree")
	}
	if err := wt.Reset(&git.ResetOptions{Commit: ref.Hash(), Mode: git.HardReset}); err != nil {
		return errors.Wrap(err, "git reset")
	}
	return nil
}

func cloneRepo(ctx context.Context, url, dir string, logger *slog.Logger) (string, error) {
	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return "", errors.Wrap(err, "creating cache dir")
	}

	logger.Info("cloning repository", "url", url, "dest", dir)
	_, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:          normalizeRepoURL(url),
		Depth:        1,
		SingleBranch: true,
	})
	if err != nil {
		_ = os.RemoveAll(dir)
		return "", errors.Wrapf(err, "git clone %s", url)
	}
	logger.Info("clone complete", "dest", dir)
	return dir, nil
}

// normalizeRepoURL strips browser-style suffixes such as /tree/main so the
// URL names the repository itself.
func normalizeRepoURL(url string) string {
	url = strings.TrimSuffix(url, "/")
	if i := strings.Index(url, "/tree/"); i >= 0 {
		url = url[:i]
	}
	if !strings.HasSuffix(url, ".git") {
		url += ".git"
	}
	return url
}
