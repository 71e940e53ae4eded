package slipway

import (
	"errors"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// errUnresolved marks a request path that maps to nothing servable: a miss,
// a directory without an index page, or a path that tries to escape the
// served root.
var errUnresolved = errors.New("slipway: no file for request path")

// ContentTypeFor returns the Content-Type the dev server and the publisher
// use for a file. Only the artifact extensions a dist directory is expected
// to hold get a specific type; everything else is an opaque byte stream.
func ContentTypeFor(p string) string {
	switch filepath.Ext(p) {
	case ".html":
		return "text/html;charset=utf-8"
	case ".css":
		return "text/css;charset=utf-8"
	case ".js":
		return "application/javascript"
	case ".wasm":
		return "application/wasm"
	default:
		return "application/octet-stream"
	}
}

// StaticHandler is the default RequestHandler: it serves files from the
// request's served root with index and not-found fallbacks.
type StaticHandler struct{}

// ServeRequest resolves the request path and streams the file back with its
// size and content type. Unresolvable paths get a 404; failures after
// resolution bubble up to the worker, which answers 500.
func (StaticHandler) ServeRequest(req *Request) error {
	full, err := resolveStatic(req.ServedRoot, req.Path, req.NotFound)
	if err != nil {
		return req.RespondStatus(StatusNotFound)
	}

	f, err := os.Open(full)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	return req.Respond(StatusOK, ContentTypeFor(full), info.Size(), f)
}

// resolveStatic maps a request path onto a regular file under root:
// directories fall back to their index.html or index.htm, and a miss falls
// back to the configured not-found page when there is one. The returned
// path is always inside root; paths that try to step out resolve to
// nothing.
func resolveStatic(root, reqPath, notFound string) (string, error) {
	rel, ok := cleanRequestPath(reqPath)
	if !ok {
		return "", errUnresolved
	}

	full := root
	if rel != "" {
		full = filepath.Join(root, filepath.FromSlash(rel))
	}

	if p, err := resolveFile(full); err == nil {
		return p, nil
	}

	if notFound != "" {
		if p, err := resolveFile(filepath.Join(root, filepath.FromSlash(notFound))); err == nil {
			return p, nil
		}
	}
	return "", errUnresolved
}

// resolveFile resolves full to a regular file, descending into index pages
// when full is a directory.
func resolveFile(full string) (string, error) {
	info, err := os.Stat(full)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return full, nil
	}
	for _, index := range []string{"index.html", "index.htm"} {
		candidate := filepath.Join(full, index)
		if fi, err := os.Stat(candidate); err == nil && !fi.IsDir() {
			return candidate, nil
		}
	}
	return "", errUnresolved
}

// cleanRequestPath sanitizes the path component of a request line into a
// root-relative slash path. It rejects traversal and absolute-path tricks
// so resolution cannot escape the served root. An empty result with ok set
// means the root itself was requested.
func cleanRequestPath(reqPath string) (string, bool) {
	rel := strings.TrimPrefix(reqPath, "/")

	if rel == "" {
		return "", true
	}

	// Reject NUL early (can appear via %00).
	if strings.IndexByte(rel, 0) != -1 {
		return "", false
	}

	// Reject platform-dependent separators.
	if strings.Contains(rel, "\\") {
		return "", false
	}

	// A leading "/" after stripping indicates an absolute-path attempt
	// (e.g. "//etc/passwd" => "/etc/passwd").
	if strings.HasPrefix(rel, "/") {
		return "", false
	}

	// Reject dot-segments rather than cleaning them away; cleaning would
	// change the meaning of the request path.
	for _, seg := range strings.Split(rel, "/") {
		if seg == "." || seg == ".." {
			return "", false
		}
	}

	clean := path.Clean(rel)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") || strings.HasPrefix(clean, "/") {
		return "", false
	}

	osPath := filepath.FromSlash(clean)
	if filepath.IsAbs(osPath) || filepath.VolumeName(osPath) != "" {
		return "", false
	}

	return clean, true
}
