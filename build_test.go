package slipway

import (
	"context"
	"os/exec"
	"testing"
)

func TestCommandBuilderReportsArtifacts(t *testing.T) {
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("no true binary on PATH")
	}

	want := Artifacts{
		Dir:        "dist",
		MainScript: "dist/app.js",
		MainBinary: "dist/app.wasm",
	}
	builder := CommandBuilder{
		Command:   Command{Name: "true"},
		Artifacts: want,
	}

	got, err := builder.Build(context.Background(), "")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got != want {
		t.Errorf("Artifacts = %+v, want %+v", got, want)
	}
}

func TestCommandBuilderFailure(t *testing.T) {
	builder := CommandBuilder{
		Command: Command{Name: "slipway-no-such-binary"},
	}

	if _, err := builder.Build(context.Background(), ""); err == nil {
		t.Fatal("expected error from missing binary")
	}
}

func TestCommandString(t *testing.T) {
	cases := []struct {
		cmd  Command
		want string
	}{
		{Command{Name: "make"}, "make"},
		{Command{Name: "go", Args: []string{"build", "./..."}}, "go build ./..."},
	}
	for _, tc := range cases {
		if got := tc.cmd.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}
