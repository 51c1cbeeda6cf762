// Package stub is a recording stand-in for the document API. It accepts the
// three update endpoints, remembers every call and echoes a document built
// from the request. It never merges content or applies an update strategy.
package stub

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"

	"docclient/internal/http/middleware"
)

// Options configures a Server. Zero values are usable.
type Options struct {
	Log hclog.Logger
	// Registry receives the HTTP metrics and backs GET /metrics.
	Registry *prometheus.Registry
	// AccessLog receives one JSON line per request. Defaults to stdout.
	AccessLog io.Writer
	// JWTSecret, when set, makes the update endpoints require a bearer
	// token signed with it.
	JWTSecret string
}

// Request is one recorded call to an update endpoint.
type Request struct {
	RequestID  string
	Operation  string
	DocumentID string
	Method     string
	Path       string
	Query      map[string]string
	Header     map[string]string
	Body       []byte
	JSON       map[string]any
	Fields     map[string]string
	File       *File
	// Subject is the verified token subject when a JWT secret is configured.
	Subject string
}

// File is the file part of a recorded multipart request.
type File struct {
	Filename    string
	ContentType string
	Content     []byte
}

type failure struct {
	status int
	body   string
}

// Server holds the fiber app and the recorded requests.
type Server struct {
	app    *fiber.App
	log    hclog.Logger
	secret string
	now    func() time.Time

	mu       sync.Mutex
	requests []Request
	versions map[string]int
	fail     *failure
}

// New builds the app with tracing, request id, access log and metrics
// middleware in that order.
func New(opts Options) (*Server, error) {
	log := opts.Log
	if log == nil {
		log = hclog.NewNullLogger()
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	accessLog := opts.AccessLog
	if accessLog == nil {
		accessLog = os.Stdout
	}

	prom, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return nil, err
	}

	s := &Server{
		log:      log.Named("stub"),
		now:      time.Now,
		secret:   opts.JWTSecret,
		versions: make(map[string]int),
	}

	s.app = fiber.New(fiber.Config{
		ErrorHandler:          errorHandler(),
		DisableStartupMessage: true,
		Immutable:             true,
	})
	s.app.Use(otelfiber.Middleware())
	s.app.Use(middleware.RequestID())
	s.app.Use(middleware.LoggerWithWriter(accessLog, time.UTC))
	s.app.Use(prom.Handler())

	s.registerRoutes(reg)
	return s, nil
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App { return s.app }

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	s.log.Info("listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown stops the listener, waiting for in-flight requests until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// Requests returns a copy of the recorded calls in arrival order.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Fail makes every following update call answer with status and body
// verbatim. Calls are still recorded.
func (s *Server) Fail(status int, body string) {
	s.mu.Lock()
	s.fail = &failure{status: status, body: body}
	s.mu.Unlock()
}

// Reset forgets recorded calls and clears any forced failure.
func (s *Server) Reset() {
	s.mu.Lock()
	s.requests = nil
	s.versions = make(map[string]int)
	s.fail = nil
	s.mu.Unlock()
}

// record stores r and returns the document version to report, or the
// forced failure if one is set. The version only moves for accepted calls.
func (s *Server) record(r Request, accepted bool) (int, *failure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, r)
	if s.fail != nil {
		f := *s.fail
		return 0, &f
	}
	if !accepted {
		return s.versions[r.DocumentID], nil
	}
	s.versions[r.DocumentID]++
	return s.versions[r.DocumentID], nil
}
