package slipway

import (
	"path/filepath"
	"strings"
)

// pathFilter holds the canonicalized exclusion state of a watch: absolute
// exclude prefixes, project-relative exclude prefixes, and the roots hidden
// paths are judged against. Built once per Run; read-only afterwards.
type pathFilter struct {
	root       string   // project root, absolute
	roots      []string // configured watch roots, absolute; empty means the project root
	excludes   []string // absolute path prefixes
	wsExcludes []string // project-root-relative path prefixes
}

// excluded reports whether path matches an exclusion. Absolute excludes
// match any path by prefix; workspace excludes match only paths under the
// project root, against the remainder once the root is stripped.
func (f *pathFilter) excluded(path string) bool {
	for _, prefix := range f.excludes {
		if hasPathPrefix(path, prefix) {
			return true
		}
	}

	rel, ok := relativeTo(f.root, path)
	if !ok {
		return false
	}
	for _, prefix := range f.wsExcludes {
		if hasPathPrefix(rel, prefix) {
			return true
		}
	}
	return false
}

// hidden reports whether any path segment below the nearest enclosing watch
// root starts with a dot. With no configured roots the project root is the
// base; segments of the base itself are never considered, so watching from
// inside a dot-directory works.
func (f *pathFilter) hidden(path string) bool {
	base := ""
	if len(f.roots) == 0 {
		base = f.root
	} else {
		for _, root := range f.roots {
			if hasPathPrefix(path, root) && len(root) > len(base) {
				base = root
			}
		}
	}
	if base == "" {
		return false
	}

	rel, ok := relativeTo(base, path)
	if !ok || rel == "." {
		return false
	}
	for _, seg := range strings.Split(rel, string(filepath.Separator)) {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}

// hasPathPrefix reports whether path is prefix or lives under it. The match
// is component-wise: /a/b is not a prefix of /a/bc.
func hasPathPrefix(path, prefix string) bool {
	if prefix == "" {
		return false
	}
	prefix = strings.TrimSuffix(prefix, string(filepath.Separator))
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+string(filepath.Separator))
}

// relativeTo returns path relative to base, and whether path is base or
// below it.
func relativeTo(base, path string) (string, bool) {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return "", false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}
