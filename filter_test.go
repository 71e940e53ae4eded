package slipway

import (
	"path/filepath"
	"testing"
)

func TestPathFilterExcluded(t *testing.T) {
	root := filepath.Join("/work", "proj")
	f := &pathFilter{
		root:       root,
		excludes:   []string{filepath.Join("/opt", "cache")},
		wsExcludes: []string{"dist", filepath.Join("build", "out")},
	}

	cases := []struct {
		name string
		path string
		want bool
	}{
		{"absolute exclude exact", filepath.Join("/opt", "cache"), true},
		{"absolute exclude child", filepath.Join("/opt", "cache", "a.js"), true},
		{"absolute exclude sibling prefix", filepath.Join("/opt", "cache2", "a.js"), false},
		{"workspace exclude child", filepath.Join(root, "dist", "index.html"), true},
		{"workspace exclude exact", filepath.Join(root, "dist"), true},
		{"workspace exclude nested", filepath.Join(root, "build", "out", "main.wasm"), true},
		{"workspace exclude partial segment", filepath.Join(root, "distx", "a.js"), false},
		{"workspace exclude outside root", filepath.Join("/elsewhere", "dist", "index.html"), false},
		{"plain source file", filepath.Join(root, "src", "main.go"), false},
		{"project root itself", root, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := f.excluded(tc.path); got != tc.want {
				t.Errorf("excluded(%q) = %v, want %v", tc.path, got, tc.want)
			}
		})
	}
}

func TestPathFilterHiddenDefaultRoot(t *testing.T) {
	root := filepath.Join("/work", "proj")
	f := &pathFilter{root: root}

	cases := []struct {
		name string
		path string
		want bool
	}{
		{"dot dir", filepath.Join(root, ".git", "HEAD"), true},
		{"dot file", filepath.Join(root, "src", ".env"), true},
		{"dot segment mid path", filepath.Join(root, ".cache", "a", "b.go"), true},
		{"plain file", filepath.Join(root, "src", "main.go"), false},
		{"root itself", root, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := f.hidden(tc.path); got != tc.want {
				t.Errorf("hidden(%q) = %v, want %v", tc.path, got, tc.want)
			}
		})
	}
}

func TestPathFilterHiddenExplicitRoots(t *testing.T) {
	root := filepath.Join("/work", "proj")
	inner := filepath.Join(root, ".config", "assets")
	f := &pathFilter{
		root:  root,
		roots: []string{filepath.Join(root, "src"), inner},
	}

	cases := []struct {
		name string
		path string
		want bool
	}{
		// Segments of the watch root itself never count.
		{"dot segment inside watch root", filepath.Join(inner, "logo.svg"), false},
		{"dot segment below watch root", filepath.Join(inner, ".tmp", "x"), true},
		{"hidden under src", filepath.Join(root, "src", ".gen", "a.go"), true},
		{"visible under src", filepath.Join(root, "src", "app.go"), false},
		{"path under no root", filepath.Join(root, "docs", ".draft"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := f.hidden(tc.path); got != tc.want {
				t.Errorf("hidden(%q) = %v, want %v", tc.path, got, tc.want)
			}
		})
	}
}

func TestHasPathPrefix(t *testing.T) {
	cases := []struct {
		path, prefix string
		want         bool
	}{
		{"/a/b/c", "/a/b", true},
		{"/a/b", "/a/b", true},
		{"/a/bc", "/a/b", false},
		{"/a/b", "/a/b/c", false},
		{"/a/b/c", "/a/b/", true},
		{"/a/b", "", false},
	}

	for _, tc := range cases {
		path := filepath.FromSlash(tc.path)
		prefix := filepath.FromSlash(tc.prefix)
		if got := hasPathPrefix(path, prefix); got != tc.want {
			t.Errorf("hasPathPrefix(%q, %q) = %v, want %v", path, prefix, got, tc.want)
		}
	}
}
