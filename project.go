package slipway

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"
)

// Project describes the workspace a Watch or DevServer operates in. Values
// are fixed at load time; nothing in the package mutates a Project after
// construction.
type Project struct {
	// Root is the absolute path of the directory containing go.mod.
	Root string

	// Module is the module path declared in go.mod.
	Module string

	// DistDir is the directory build artifacts land in. It defaults to
	// <Root>/dist and is always excluded from watching.
	DistDir string
}

// LoadProject locates the module enclosing dir and returns its metadata.
// It ascends from dir until it finds a go.mod.
func LoadProject(dir string) (*Project, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	root := abs
	for {
		if _, err := os.Stat(filepath.Join(root, "go.mod")); err == nil {
			break
		}
		parent := filepath.Dir(root)
		if parent == root {
			return nil, fmt.Errorf("slipway: no go.mod in %s or any parent directory", abs)
		}
		root = parent
	}

	data, err := os.ReadFile(filepath.Join(root, "go.mod"))
	if err != nil {
		return nil, err
	}
	mod, err := modfile.ParseLax("go.mod", data, nil)
	if err != nil {
		return nil, fmt.Errorf("slipway: parse %s: %w", filepath.Join(root, "go.mod"), err)
	}
	if mod.Module == nil || mod.Module.Mod.Path == "" {
		return nil, fmt.Errorf("slipway: %s declares no module path", filepath.Join(root, "go.mod"))
	}

	return &Project{
		Root:    root,
		Module:  mod.Module.Mod.Path,
		DistDir: filepath.Join(root, "dist"),
	}, nil
}
