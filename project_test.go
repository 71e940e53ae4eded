package slipway

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadProject(t *testing.T) {
	tmpDir := t.TempDir()

	goMod := "module example.com/demo\n\ngo 1.24\n"
	if err := os.WriteFile(filepath.Join(tmpDir, "go.mod"), []byte(goMod), 0644); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(tmpDir, "cmd", "demo")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	project, err := LoadProject(nested)
	if err != nil {
		t.Fatalf("LoadProject: %v", err)
	}

	if project.Root != tmpDir {
		t.Errorf("Root = %q, want %q", project.Root, tmpDir)
	}
	if project.Module != "example.com/demo" {
		t.Errorf("Module = %q, want %q", project.Module, "example.com/demo")
	}
	if want := filepath.Join(tmpDir, "dist"); project.DistDir != want {
		t.Errorf("DistDir = %q, want %q", project.DistDir, want)
	}
}

func TestLoadProjectNoModule(t *testing.T) {
	if _, err := LoadProject(t.TempDir()); err == nil {
		t.Fatal("expected error for directory outside any module")
	}
}

func TestLoadProjectBadModFile(t *testing.T) {
	tmpDir := t.TempDir()

	// A go.mod without a module directive parses but is unusable.
	if err := os.WriteFile(filepath.Join(tmpDir, "go.mod"), []byte("go 1.24\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadProject(tmpDir); err == nil {
		t.Fatal("expected error for go.mod without module path")
	}
}
