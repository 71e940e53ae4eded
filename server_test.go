package slipway

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

// serveDir starts a dev server over root on an ephemeral port and returns
// its address.
func serveDir(t *testing.T, cfg ServerConfig, root string) string {
	t.Helper()

	project := &Project{
		Root:    filepath.Dir(root),
		Module:  "example.com/demo",
		DistDir: root,
	}
	if cfg.Logger == nil {
		cfg.Logger = zaptest.NewLogger(t)
	}
	s := NewDevServer(project, cfg)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })

	go s.serve(ln, root)
	return ln.Addr().String()
}

func doRequest(t *testing.T, addr, raw string) string {
	t.Helper()

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(raw)); err != nil {
		t.Fatal(err)
	}
	data, err := io.ReadAll(conn)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestDevServerServesArtifacts(t *testing.T) {
	root := t.TempDir()
	writeStaticFile(t, root, "index.html", "<!doctype html>12345")
	writeStaticFile(t, root, "app.js", "0123456789")
	writeStaticFile(t, root, filepath.Join("styles", "main.css"), "body{}")
	writeStaticFile(t, root, "app.wasm", "\x00asm")

	addr := serveDir(t, ServerConfig{}, root)

	cases := []struct {
		name string
		raw  string
		want string
	}{
		{
			"script file",
			"GET /app.js HTTP/1.1\r\nHost: localhost\r\n\r\n",
			"HTTP/1.1 200 OK\r\nContent-Length: 10\r\nContent-Type: application/javascript\r\n\r\n0123456789",
		},
		{
			"root serves index.html",
			"GET / HTTP/1.1\r\nHost: localhost\r\n\r\n",
			"HTTP/1.1 200 OK\r\nContent-Length: 20\r\nContent-Type: text/html;charset=utf-8\r\n\r\n<!doctype html>12345",
		},
		{
			"nested stylesheet",
			"GET /styles/main.css HTTP/1.1\r\n\r\n",
			"HTTP/1.1 200 OK\r\nContent-Length: 6\r\nContent-Type: text/css;charset=utf-8\r\n\r\nbody{}",
		},
		{
			"wasm binary",
			"GET /app.wasm HTTP/1.1\r\n\r\n",
			"HTTP/1.1 200 OK\r\nContent-Length: 4\r\nContent-Type: application/wasm\r\n\r\n\x00asm",
		},
		{
			"missing file",
			"GET /nope.js HTTP/1.1\r\n\r\n",
			"HTTP/1.1 404 NOT FOUND\r\n\r\n",
		},
		{
			"malformed request line",
			"NONSENSE\r\n\r\n",
			"HTTP/1.1 400 BAD REQUEST\r\n\r\n",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := doRequest(t, addr, tc.raw); got != tc.want {
				t.Errorf("response = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestDevServerNotFoundFallback(t *testing.T) {
	root := t.TempDir()
	writeStaticFile(t, root, "index.html", "<app/>")

	addr := serveDir(t, ServerConfig{NotFound: "index.html"}, root)

	got := doRequest(t, addr, "GET /client/side/route HTTP/1.1\r\n\r\n")
	want := "HTTP/1.1 200 OK\r\nContent-Length: 6\r\nContent-Type: text/html;charset=utf-8\r\n\r\n<app/>"
	if got != want {
		t.Errorf("response = %q, want %q", got, want)
	}
}

func TestDevServerBlocksTraversal(t *testing.T) {
	tmpDir := t.TempDir()
	root := filepath.Join(tmpDir, "public")
	writeStaticFile(t, root, "ok.txt", "ok")
	writeStaticFile(t, tmpDir, "secret.txt", "secret")

	addr := serveDir(t, ServerConfig{}, root)

	for _, p := range []string{"/../secret.txt", "/..%2fsecret.txt", "//etc/passwd"} {
		got := doRequest(t, addr, "GET "+p+" HTTP/1.1\r\n\r\n")
		if strings.Contains(got, "secret") {
			t.Errorf("GET %s leaked content: %q", p, got)
		}
		if !strings.HasPrefix(got, "HTTP/1.1 404 NOT FOUND") {
			t.Errorf("GET %s = %q, want 404", p, got)
		}
	}
}

type failingHandler struct{}

func (failingHandler) ServeRequest(*Request) error {
	return errors.New("handler exploded")
}

func TestDevServerHandlerErrorBecomes500(t *testing.T) {
	addr := serveDir(t, ServerConfig{Handler: failingHandler{}}, t.TempDir())

	got := doRequest(t, addr, "GET / HTTP/1.1\r\n\r\n")
	if want := "HTTP/1.1 500 INTERNAL SERVER ERROR\r\n\r\n"; got != want {
		t.Errorf("response = %q, want %q", got, want)
	}
}

func TestDevServerConcurrentRequests(t *testing.T) {
	root := t.TempDir()
	writeStaticFile(t, root, "app.js", "0123456789")

	addr := serveDir(t, ServerConfig{}, root)
	want := "HTTP/1.1 200 OK\r\nContent-Length: 10\r\nContent-Type: application/javascript\r\n\r\n0123456789"

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			conn, err := net.Dial("tcp", addr)
			if err != nil {
				errs <- err
				return
			}
			defer conn.Close()

			if _, err := conn.Write([]byte("GET /app.js HTTP/1.1\r\n\r\n")); err != nil {
				errs <- err
				return
			}
			data, err := io.ReadAll(conn)
			if err != nil {
				errs <- err
				return
			}
			if string(data) != want {
				errs <- fmt.Errorf("unexpected response: %q", data)
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestDevServerMetricsEndpoint(t *testing.T) {
	root := t.TempDir()
	writeStaticFile(t, root, "app.js", "0123456789")

	addr := serveDir(t, ServerConfig{Metrics: true}, root)

	// Serve something first so the counters exist in the exposition.
	doRequest(t, addr, "GET /app.js HTTP/1.1\r\n\r\n")

	got := doRequest(t, addr, "GET "+MetricsPath+" HTTP/1.1\r\n\r\n")
	if !strings.HasPrefix(got, "HTTP/1.1 200 OK\r\n") {
		t.Fatalf("metrics response = %q, want 200", got)
	}
	if !strings.Contains(got, "Content-Type: text/plain") {
		t.Errorf("metrics response lacks text exposition content type: %q", got)
	}
	if !strings.Contains(got, "slipway_devserver_requests_total") {
		t.Errorf("metrics exposition lacks request counter: %q", got)
	}
}

func TestDevServerStartBindFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	tmpDir := t.TempDir()
	project := &Project{Root: tmpDir, Module: "example.com/demo", DistDir: filepath.Join(tmpDir, "dist")}
	s := NewDevServer(project, ServerConfig{Port: port, Logger: zaptest.NewLogger(t)})

	err = s.Start(project.DistDir)
	var setupErr *SetupError
	if !errors.As(err, &setupErr) {
		t.Fatalf("Start returned %v, want a *SetupError", err)
	}

	// The served directory is prepared before binding.
	if _, statErr := os.Stat(project.DistDir); statErr != nil {
		t.Errorf("served root was not created: %v", statErr)
	}
}

func TestDevServerStartReportsWatchFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	tmpDir := t.TempDir()
	project := &Project{Root: tmpDir, Module: "example.com/demo", DistDir: filepath.Join(tmpDir, "dist")}
	s := NewDevServer(project, ServerConfig{
		Port:    port,
		Command: &Command{Name: "slipway-no-such-binary"},
		Logger:  zaptest.NewLogger(t),
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Start(project.DistDir)
	}()

	select {
	case err := <-errCh:
		var spawnErr *SpawnError
		if !errors.As(err, &spawnErr) {
			t.Fatalf("Start returned %v, want a *SpawnError", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not surface the watch failure")
	}
}

func TestNewDevServerDefaults(t *testing.T) {
	s := NewDevServer(&Project{Root: "/p", Module: "m", DistDir: "/p/dist"}, ServerConfig{})

	if got, want := s.Addr(), "127.0.0.1:8000"; got != want {
		t.Errorf("Addr() = %q, want %q", got, want)
	}
	if _, ok := s.handler.(StaticHandler); !ok {
		t.Errorf("default handler = %T, want StaticHandler", s.handler)
	}
}
