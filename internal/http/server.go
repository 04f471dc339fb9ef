package http

import (
	"encoding/json"
	stdhttp "net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"notes/app/internal/notes"
)

const (
	apiName        = "Notes API"
	apiVersion     = "0.1.0"
	apiDescription = "A simple note-taking API"
	apiPathVersion = "v1"
)

// Options configures the HTTP server wiring.
type Options struct {
	Notes       notes.Store
	Database    *gorm.DB
	Logger      *logrus.Logger
	SentryHub   *sentry.Hub
	CORS        CORSSettings
	RateLimiter RateLimiterSettings
}

// RateLimiterSettings configures the HTTP rate limiter behaviour. A zero Burst disables limiting.
type RateLimiterSettings struct {
	RequestsPerSecond float64
	Burst             int
	ClientTTL         time.Duration
}

// Server wires the HTTP transport layer via Huma.
type Server struct {
	api         huma.API
	mux         *stdhttp.ServeMux
	handler     stdhttp.Handler
	notes       notes.Store
	db          *gorm.DB
	logger      *logrus.Logger
	sentry      *sentry.Hub
	rateLimiter *RateLimiter
}

// NewServer constructs the HTTP server.
func NewServer(opts Options) (*Server, error) {
	if opts.Notes == nil {
		return nil, eris.New("notes store is required")
	}
	if opts.Database == nil {
		return nil, eris.New("database is required")
	}

	mux := stdhttp.NewServeMux()
	config := huma.DefaultConfig(apiName, apiVersion)
	config.Info.Description = apiDescription
	// Responses keep the plain note shape without a $schema link.
	config.CreateHooks = nil
	config.Tags = []*huma.Tag{
		{Name: "root", Description: "API information and root endpoint"},
		{Name: "health", Description: "Health check endpoints"},
		{Name: "notes", Description: "Operations with notes (CRUD)"},
	}

	api := humago.New(mux, config)

	srv := &Server{
		api:    api,
		mux:    mux,
		notes:  opts.Notes,
		db:     opts.Database,
		logger: opts.Logger,
		sentry: opts.SentryHub,
	}

	if settings := opts.RateLimiter; settings.Burst > 0 {
		if settings.RequestsPerSecond <= 0 {
			return nil, eris.New("rate limiter requests per second must be greater than zero")
		}
		if settings.ClientTTL <= 0 {
			return nil, eris.New("rate limiter client TTL must be greater than zero")
		}
		srv.rateLimiter = NewRateLimiter(settings.Burst, settings.RequestsPerSecond, settings.ClientTTL)
	}

	srv.registerMiddlewares()
	srv.registerRoutes()

	srv.handler = newCORS(opts.CORS).Handler(srv.exactNoteRoutes(mux))

	return srv, nil
}

// Handler exposes the underlying HTTP handler for wiring into the application.
func (s *Server) Handler() stdhttp.Handler {
	return s.handler
}

// API exposes the underlying Huma API instance.
func (s *Server) API() huma.API {
	return s.api
}

// Close releases background resources held by the server.
func (s *Server) Close() {
	if s.rateLimiter != nil {
		s.rateLimiter.Close()
	}
}

func (s *Server) registerMiddlewares() {
	s.api.UseMiddleware(
		s.sentryMiddleware(),
		s.requestIDMiddleware(),
		s.recoveryMiddleware(),
		s.rateLimitMiddleware(),
		s.loggingMiddleware(),
	)
}

func (s *Server) registerRoutes() {
	s.registerRootRoute()
	s.registerHealthRoutes()
	s.registerNoteRoutes()
}

// exactNoteRoutes stops the collection patterns from acting as subtree matches.
// ServeMux treats "/v1/notes/" as a prefix, so deeper paths would otherwise reach
// the list and create operations. Only "/v1/notes/" and "/v1/notes/{id}" exist.
func (s *Server) exactNoteRoutes(next stdhttp.Handler) stdhttp.Handler {
	prefix := notesPath + "/"

	return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		rest, found := strings.CutPrefix(r.URL.Path, prefix)
		if !found || rest == "" {
			next.ServeHTTP(w, r)
			return
		}

		switch {
		case strings.Contains(rest, "/"):
			s.writeRouteError(w, r, stdhttp.StatusNotFound)
		case r.Method == stdhttp.MethodPost:
			w.Header().Set("Allow", noteItemMethods)
			s.writeRouteError(w, r, stdhttp.StatusMethodNotAllowed)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

func (s *Server) writeRouteError(w stdhttp.ResponseWriter, r *stdhttp.Request, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := &ErrorBody{status: status, Detail: stdhttp.StatusText(status)}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.recordError(r.Context(), err, "writing route error", nil)
	}
}

func (s *Server) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	s.handler.ServeHTTP(w, r)
}
