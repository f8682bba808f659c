package codemod

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/maruel/natural"
)

// Default discovery patterns, relative to the project root.
var (
	DefaultInclude = []string{"src/**/*.tsx"}
	DefaultExclude = []string{"**/*.spec.tsx", "**/*.stories.tsx", "node_modules", "dist"}
)

// Discover walks root and returns the files that match an include pattern
// and no exclude pattern, in natural order. A nil include uses
// DefaultInclude and a nil exclude uses DefaultExclude.
//
// Patterns are slash-separated and relative to root. "**" matches any
// number of directories. A pattern without a slash is matched against the
// base name, so "node_modules" prunes every such directory.
func Discover(root string, include, exclude []string) ([]string, error) {
	return DiscoverUnder(root, root, include, exclude)
}

// DiscoverUnder walks dir, which must lie inside root, and matches the
// patterns against paths relative to root. It lets a subdirectory be
// converted with the project's patterns.
func DiscoverUnder(root, dir string, include, exclude []string) ([]string, error) {
	if include == nil {
		include = DefaultInclude
	}
	if exclude == nil {
		exclude = DefaultExclude
	}
	if err := validatePatterns(include); err != nil {
		return nil, err
	}
	if err := validatePatterns(exclude); err != nil {
		return nil, err
	}

	var files []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == dir {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") || matchAny(exclude, rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if matchAny(include, rel) && !matchAny(exclude, rel) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to discover files under %s: %w", dir, err)
	}

	sort.Sort(natural.StringSlice(files))
	return files, nil
}

// Within reports whether dir is root or lies below it.
func Within(root, dir string) bool {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// Match reports whether the slash-separated relative path name matches
// pattern.
func Match(pattern, name string) bool {
	if !strings.Contains(pattern, "/") {
		ok, _ := path.Match(pattern, path.Base(name))
		return ok
	}
	return matchSegments(strings.Split(pattern, "/"), strings.Split(name, "/"))
}

func matchSegments(pat, segs []string) bool {
	for len(pat) > 0 {
		if pat[0] == "**" {
			for i := 0; i <= len(segs); i++ {
				if matchSegments(pat[1:], segs[i:]) {
					return true
				}
			}
			return false
		}
		if len(segs) == 0 {
			return false
		}
		if ok, _ := path.Match(pat[0], segs[0]); !ok {
			return false
		}
		pat, segs = pat[1:], segs[1:]
	}
	return len(segs) == 0
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if Match(p, name) {
			return true
		}
	}
	return false
}

func validatePatterns(patterns []string) error {
	for _, p := range patterns {
		for _, seg := range strings.Split(p, "/") {
			if _, err := path.Match(seg, ""); err != nil {
				return fmt.Errorf("invalid pattern %q: %w", p, err)
			}
		}
	}
	return nil
}
