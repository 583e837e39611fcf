// Package walker enumerates candidate files under a scan root. Output
// is deterministic: lexicographically ordered, de-duplicated relative
// paths, with symlink cycles broken by tracking visited real paths.
package walker

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/DNYoussef/Spek-template-sub011/internal/progress"
	"github.com/DNYoussef/Spek-template-sub011/internal/provider"
)

// DefaultExcludes are directory names skipped on every scan unless a
// profile overrides them.
var DefaultExcludes = []string{
	"**/.git",
	"**/node_modules",
	"**/vendor",
	"**/dist",
	"**/build",
	"**/__pycache__",
	"**/.terraform",
}

// Walker enumerates files through a provider.
type Walker struct {
	provider provider.Provider
	include  []string
	exclude  []string
	progress *progress.Progress
}

// New creates a walker. Empty include means every file is a candidate;
// excludes always apply.
func New(p provider.Provider, include, exclude []string) *Walker {
	return &Walker{provider: p, include: include, exclude: exclude}
}

// WithProgress makes the walker report directory enter/leave and skip
// events while it runs.
func (w *Walker) WithProgress(p *progress.Progress) *Walker {
	w.progress = p
	return w
}

// Walk returns all candidate file paths under the provider's base
// path, relative to it. A missing root is an error; an empty tree is a
// valid empty result.
func (w *Walker) Walk() ([]string, error) {
	start := time.Now()

	exists, err := w.provider.Exists(".")
	if err != nil {
		return nil, fmt.Errorf("stat scan root: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("scan root %s does not exist", w.provider.GetBasePath())
	}

	visited := map[string]bool{}
	seen := map[string]bool{}
	var paths []string

	if err := w.recurse(".", visited, seen, &paths); err != nil {
		return nil, err
	}

	sort.Strings(paths)
	slog.Debug("walk complete", "root", w.provider.GetBasePath(), "files", len(paths), "duration", time.Since(start))
	return paths, nil
}

func (w *Walker) recurse(dir string, visited, seen map[string]bool, paths *[]string) error {
	real := w.provider.RealPath(dir)
	if visited[real] {
		slog.Debug("skipping already visited directory", "path", dir, "real", real)
		return nil
	}
	visited[real] = true

	if dir != "." && w.progress != nil {
		w.progress.EnterDirectory(dir)
		defer w.progress.LeaveDirectory(dir)
	}

	files, err := w.provider.ListDir(dir)
	if err != nil {
		return fmt.Errorf("list %s: %w", dir, err)
	}

	for _, file := range files {
		rel := file.Name
		if dir != "." {
			rel = filepath.Join(dir, file.Name)
		}

		if file.Type == "dir" {
			if w.excluded(rel, file.Name) {
				if w.progress != nil {
					w.progress.Skipped(rel, "excluded")
				}
				continue
			}
			if err := w.recurse(rel, visited, seen, paths); err != nil {
				return err
			}
			continue
		}

		if w.excluded(rel, file.Name) {
			continue
		}
		if !w.included(rel) {
			continue
		}
		if seen[rel] {
			continue
		}
		seen[rel] = true
		*paths = append(*paths, rel)
	}
	return nil
}

// excluded checks the relative path and the bare name against every
// exclude glob, matching how users write patterns like "vendor" or
// "**/*_test.go".
func (w *Walker) excluded(rel, name string) bool {
	for _, pattern := range w.exclude {
		if matched, err := doublestar.Match(pattern, rel); err == nil && matched {
			return true
		}
		if matched, err := doublestar.Match(pattern, name); err == nil && matched {
			return true
		}
	}
	return false
}

func (w *Walker) included(rel string) bool {
	if len(w.include) == 0 {
		return true
	}
	for _, pattern := range w.include {
		if matched, err := doublestar.Match(pattern, rel); err == nil && matched {
			return true
		}
	}
	return false
}
