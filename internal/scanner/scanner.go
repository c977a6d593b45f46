package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/go-git/go-git/v5/plumbing/format/gitignore"
	lru "github.com/hashicorp/golang-lru/v2"

	fterrors "github.com/Aman-CERP/findtext/internal/errors"
)

// ignoreCacheSize bounds the number of per-directory pattern lists kept.
// Evicted entries are rebuilt from their parent chain on demand.
const ignoreCacheSize = 1000

// Walker discovers files beneath a root directory. A Walker is not safe
// for concurrent walks; create one per search.
type Walker struct {
	opts     WalkOptions
	excludes []gitignore.Pattern

	// ignoreCache maps an absolute directory to the .gitignore patterns in
	// effect for its entries.
	ignoreCache *lru.Cache[string, []gitignore.Pattern]

	stats Stats
}

// NewWalker creates a Walker.
func NewWalker(opts WalkOptions) (*Walker, error) {
	cache, err := lru.New[string, []gitignore.Pattern](ignoreCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create gitignore cache: %w", err)
	}

	w := &Walker{
		opts:        opts,
		ignoreCache: cache,
	}
	for _, p := range opts.Exclude {
		p = strings.TrimSpace(p)
		if p == "" || strings.HasPrefix(p, "#") {
			continue
		}
		w.excludes = append(w.excludes, gitignore.ParsePattern(filepath.ToSlash(p), nil))
	}
	return w, nil
}

// Stats returns counters for the most recent walk.
func (w *Walker) Stats() Stats {
	return w.stats
}

// Walk calls visit for every file under root. Traversal order is
// unspecified. The context is checked before every entry; on cancellation
// Walk returns ctx.Err().
func (w *Walker) Walk(ctx context.Context, root string, visit VisitFunc) error {
	w.stats = Stats{}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if err != nil {
			return w.walkError(root, path, d, err)
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}

		if d.IsDir() {
			if rel == "." {
				return nil
			}
			w.stats.Dirs++
			if w.excluded(absRoot, rel, true) {
				w.stats.Excluded++
				return filepath.SkipDir
			}
			return nil
		}

		if !w.isFile(path, d) {
			w.stats.NonRegular++
			return nil
		}

		if rel != "." && w.excluded(absRoot, rel, false) {
			w.stats.Excluded++
			return nil
		}

		w.stats.Files++
		return visit(path)
	})
}

// walkError handles a directory that could not be read.
func (w *Walker) walkError(root, path string, d fs.DirEntry, err error) error {
	if w.opts.SkipUnreadableDirs && path != root && d != nil && d.IsDir() {
		w.stats.Unreadable++
		slog.Warn("skipping unreadable directory",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return filepath.SkipDir
	}

	return fterrors.New(fterrors.ErrCodeWalkFailed, "cannot read directory: "+path, err).
		WithDetail("path", path).
		WithSuggestion("Fix the directory permissions or set walk.skip_unreadable_dirs")
}

// isFile reports whether the entry is a regular file or a symlink that
// resolves to one. Directory symlinks are never followed.
func (w *Walker) isFile(path string, d fs.DirEntry) bool {
	mode := d.Type()
	if mode.IsRegular() {
		return true
	}
	if mode&fs.ModeSymlink == 0 || w.opts.SkipSymlinks {
		return false
	}

	info, err := os.Stat(path)
	if err != nil {
		// Dangling link.
		return false
	}
	return info.Mode().IsRegular()
}

// excluded applies the exclude patterns and, if enabled, the .gitignore
// patterns in effect for rel's parent directory.
func (w *Walker) excluded(absRoot, rel string, isDir bool) bool {
	parts := strings.Split(filepath.ToSlash(rel), "/")

	if w.opts.RespectGitignore && isDir && parts[len(parts)-1] == ".git" {
		return true
	}
	if len(w.excludes) == 0 && !w.opts.RespectGitignore {
		return false
	}

	var patterns []gitignore.Pattern
	if w.opts.RespectGitignore {
		patterns = append(patterns, w.ignorePatterns(absRoot, parts[:len(parts)-1])...)
	}
	// Later patterns win, so excludes cannot be re-included by a .gitignore.
	patterns = append(patterns, w.excludes...)

	return gitignore.NewMatcher(patterns).Match(parts, isDir)
}

// ignorePatterns returns the .gitignore patterns of absRoot/dir and all of
// its ancestors up to absRoot, outermost first.
func (w *Walker) ignorePatterns(absRoot string, dir []string) []gitignore.Pattern {
	absDir := filepath.Join(append([]string{absRoot}, dir...)...)
	if ps, ok := w.ignoreCache.Get(absDir); ok {
		return ps
	}

	var inherited []gitignore.Pattern
	if len(dir) > 0 {
		inherited = w.ignorePatterns(absRoot, dir[:len(dir)-1])
	}

	own := readIgnoreFile(filepath.Join(absDir, ".gitignore"), dir)
	ps := make([]gitignore.Pattern, 0, len(inherited)+len(own))
	ps = append(ps, inherited...)
	ps = append(ps, own...)

	w.ignoreCache.Add(absDir, ps)
	return ps
}

// readIgnoreFile parses a .gitignore file. A missing or unreadable file
// contributes no patterns.
func readIgnoreFile(path string, domain []string) []gitignore.Pattern {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var ps []gitignore.Pattern
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}
		ps = append(ps, gitignore.ParsePattern(line, domain))
	}
	return ps
}
