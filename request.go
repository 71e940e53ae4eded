package slipway

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
)

// maxHeaderBytes caps how much of a request header a worker will read
// before giving up on the connection.
const maxHeaderBytes = 64 << 10

// Status is one of the response statuses the dev server protocol knows how
// to write.
type Status string

const (
	StatusOK         Status = "200 OK"
	StatusBadRequest Status = "400 BAD REQUEST"
	StatusNotFound   Status = "404 NOT FOUND"
	StatusInternal   Status = "500 INTERNAL SERVER ERROR"
)

// code returns the numeric part of the status line, for logs and metric
// labels.
func (s Status) code() string {
	if i := strings.IndexByte(string(s), ' '); i > 0 {
		return string(s)[:i]
	}
	return string(s)
}

// RequestHandler serves one parsed request. Implementations are shared by
// every worker goroutine, so they must be safe for concurrent use. A
// returned error means nothing useful could be written; the worker logs it
// and answers 500 if the response has not started yet.
type RequestHandler interface {
	ServeRequest(*Request) error
}

// Request is one parsed HTTP request and the connection to answer it on.
// Responses carry only a Content-Length and Content-Type header; there is
// no keep-alive, so a request's connection serves exactly one exchange.
type Request struct {
	// Method and Path come from the request line, split on whitespace.
	Method string
	Path   string

	// RawHeader is the header block as read from the wire, request line
	// included.
	RawHeader string

	// ServedRoot is the directory static resolution happens under.
	ServedRoot string

	// NotFound is a served-root-relative file substituted when resolution
	// misses. Empty means none.
	NotFound string

	conn   net.Conn
	wrote  bool
	status Status
}

// readRequest reads one request header block from conn, up to and including
// the blank line, and parses the request line. It reads at most
// maxHeaderBytes.
func readRequest(conn net.Conn, root, notFound string) (*Request, error) {
	r := bufio.NewReader(io.LimitReader(conn, maxHeaderBytes))

	var raw strings.Builder
	var requestLine string
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}
		raw.WriteString(line)

		trimmed := strings.TrimRight(line, "\r\n")
		if requestLine == "" {
			if trimmed == "" {
				return nil, errors.New("empty request line")
			}
			requestLine = trimmed
			continue
		}
		if trimmed == "" {
			break
		}
	}

	fields := strings.Fields(requestLine)
	if len(fields) < 2 {
		return nil, fmt.Errorf("malformed request line %q", requestLine)
	}

	return &Request{
		Method:     fields[0],
		Path:       fields[1],
		RawHeader:  raw.String(),
		ServedRoot: root,
		NotFound:   notFound,
		conn:       conn,
	}, nil
}

// Respond writes a response with the given status line and a body of
// exactly length bytes read from body.
func (r *Request) Respond(status Status, contentType string, length int64, body io.Reader) error {
	var head bytes.Buffer
	fmt.Fprintf(&head, "HTTP/1.1 %s\r\n", status)
	fmt.Fprintf(&head, "Content-Length: %d\r\n", length)
	if contentType != "" {
		fmt.Fprintf(&head, "Content-Type: %s\r\n", contentType)
	}
	head.WriteString("\r\n")

	r.wrote = true
	r.status = status
	if _, err := r.conn.Write(head.Bytes()); err != nil {
		return fmt.Errorf("write response header: %w", err)
	}
	if body != nil && length > 0 {
		if _, err := io.CopyN(r.conn, body, length); err != nil {
			return fmt.Errorf("write response body: %w", err)
		}
	}
	return nil
}

// RespondStatus writes a header-less, body-less response, the shape error
// statuses take on this protocol.
func (r *Request) RespondStatus(status Status) error {
	r.wrote = true
	r.status = status
	return writeStatus(r.conn, status)
}

func writeStatus(w io.Writer, status Status) error {
	_, err := fmt.Fprintf(w, "HTTP/1.1 %s\r\n\r\n", status)
	return err
}
