package slipway

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Default bind address of a DevServer.
const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 8000
)

// ServerConfig configures a DevServer.
type ServerConfig struct {
	// Host and Port form the bind address. Empty means 127.0.0.1:8000.
	Host string
	Port int

	// Handler serves parsed requests. Nil means a StaticHandler.
	Handler RequestHandler

	// NotFound is a served-root-relative file substituted when static
	// resolution misses, for single-page apps. Empty means plain 404s.
	NotFound string

	// Command, when set, is kept running and respawned on file changes
	// for as long as the server runs.
	Command *Command

	// Watch configures the background watch when Command is set. Nil
	// means the project root is watched with defaults.
	Watch *Watch

	// Logger receives server lifecycle and request logs. Nil disables
	// logging.
	Logger *zap.Logger

	// Metrics exposes the Prometheus text exposition at MetricsPath.
	Metrics bool
}

// DevServer serves a directory of build artifacts over a deliberately small
// HTTP/1.1 subset: one exchange per connection, four statuses, and no
// headers beyond Content-Length and Content-Type. It exists so a browser
// can load whatever the supervised build command just produced.
type DevServer struct {
	project *Project
	cfg     ServerConfig
	logger  *zap.Logger
	handler RequestHandler
}

// NewDevServer returns a DevServer for project configured by cfg.
func NewDevServer(project *Project, cfg ServerConfig) *DevServer {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	handler := cfg.Handler
	if handler == nil {
		handler = StaticHandler{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DevServer{project: project, cfg: cfg, logger: logger, handler: handler}
}

// Addr returns the address the server binds.
func (s *DevServer) Addr() string {
	return net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
}

// Start serves servedRoot, creating it first if needed, and runs the watch
// in the background when a Command is configured. It blocks forever in
// normal operation; an error is returned only when setup fails or when the
// accept loop or the watch loop dies.
func (s *DevServer) Start(servedRoot string) error {
	root, err := filepath.Abs(servedRoot)
	if err != nil {
		return &SetupError{Op: "serve", Err: err}
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return &SetupError{Op: "mkdir", Err: err}
	}

	errCh := make(chan error, 2)

	if s.cfg.Command != nil {
		watch := s.cfg.Watch
		if watch == nil {
			watch = NewWatch(s.project, WatchConfig{Logger: s.cfg.Logger})
		}
		// The served directory is the command's output; changes there
		// must not retrigger it.
		watch.ExcludePath(root)
		cmd := *s.cfg.Command
		go func() {
			errCh <- watch.Run(cmd)
		}()
	}

	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return &SetupError{Op: "bind", Err: err}
	}
	defer ln.Close()

	s.logger.Info("dev server listening",
		zap.String("addr", s.Addr()),
		zap.String("root", root))

	go func() {
		errCh <- s.serve(ln, root)
	}()

	return <-errCh
}

// serve accepts connections until the listener dies, dispatching one worker
// goroutine per connection.
func (s *DevServer) serve(ln net.Listener, root string) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			s.logger.Warn("accept failed", zap.Error(err))
			continue
		}
		go s.handle(conn, root)
	}
}

// handle is one worker: read the header, parse the request line, dispatch,
// and convert failures to statuses. The connection is closed on return.
func (s *DevServer) handle(conn net.Conn, root string) {
	defer conn.Close()

	logger := s.logger.With(zap.String("request_id", uuid.NewString()))

	req, err := readRequest(conn, root, s.cfg.NotFound)
	if err != nil {
		logger.Debug("malformed request", zap.Error(err))
		_ = writeStatus(conn, StatusBadRequest)
		requestsTotal.WithLabelValues(StatusBadRequest.code()).Inc()
		return
	}

	_, span := tracer.Start(context.Background(), "slipway.request",
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.path", req.Path),
		))
	defer span.End()

	start := time.Now()
	if err := s.dispatch(req); err != nil {
		logger.Error("request failed",
			zap.String("method", req.Method),
			zap.String("path", req.Path),
			zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		if !req.wrote {
			_ = req.RespondStatus(StatusInternal)
		}
	}

	if req.wrote {
		requestsTotal.WithLabelValues(req.status.code()).Inc()
		requestDuration.Observe(time.Since(start).Seconds())
		span.SetAttributes(attribute.String("http.status", req.status.code()))
		logger.Debug("request served",
			zap.String("method", req.Method),
			zap.String("path", req.Path),
			zap.String("status", req.status.code()),
			zap.Duration("duration", time.Since(start)))
	}
}

func (s *DevServer) dispatch(req *Request) error {
	if s.cfg.Metrics && req.Path == MetricsPath {
		body, contentType, n, err := renderMetrics()
		if err != nil {
			return err
		}
		return req.Respond(StatusOK, contentType, n, body)
	}
	return s.handler.ServeRequest(req)
}
