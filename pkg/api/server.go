package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/dilovar-s/protokol/pkg/audit"
	"github.com/dilovar-s/protokol/pkg/auth"
	"github.com/dilovar-s/protokol/pkg/contextkeys"
	"github.com/dilovar-s/protokol/pkg/files"
	"github.com/dilovar-s/protokol/pkg/httputil"
	"github.com/dilovar-s/protokol/pkg/middleware"
	"github.com/dilovar-s/protokol/pkg/observability"
	"github.com/dilovar-s/protokol/pkg/store"
	"github.com/dilovar-s/protokol/pkg/transcribe"
)

// DefaultMaxUploadSize caps audio uploads at 50MB
const DefaultMaxUploadSize int64 = 50 << 20

// Options carries the server's dependencies and tunables
type Options struct {
	Logger      *observability.Logger
	Metrics     *observability.Metrics // nil disables HTTP metrics
	Users       store.UserStore
	Records     store.InterrogationStore
	Blobs       files.BlobStore
	Tokens      *auth.TokenService
	Transcriber transcribe.Transcriber
	Audit       audit.Logger            // nil means no audit trail
	Limiter     middleware.LoginLimiter // nil disables login throttling

	BcryptCost      int
	MaxUploadSize   int64
	DefaultLanguage string
	AllowedOrigins  []string

	// Tracing wraps the router in an OpenTelemetry server span
	Tracing bool
}

// Server wires handlers, middleware and routes
type Server struct {
	opts   Options
	router *mux.Router
	authMW *middleware.AuthMiddleware
}

// NewServer creates a fully routed API server
func NewServer(opts Options) *Server {
	if opts.Audit == nil {
		opts.Audit = audit.NopLogger{}
	}
	if opts.BcryptCost <= 0 {
		opts.BcryptCost = auth.DefaultBcryptCost
	}
	if opts.MaxUploadSize <= 0 {
		opts.MaxUploadSize = DefaultMaxUploadSize
	}
	if opts.DefaultLanguage == "" {
		opts.DefaultLanguage = transcribe.DefaultLanguage
	}

	s := &Server{
		opts:   opts,
		router: mux.NewRouter(),
		authMW: middleware.NewAuthMiddleware(opts.Tokens, opts.Users),
	}
	s.setupRoutes()
	return s
}

// Router returns the handler with the full middleware chain applied
func (s *Server) Router() http.Handler {
	var h http.Handler = s.router
	if s.opts.Tracing {
		h = otelhttp.NewHandler(h, "protokol.api")
	}
	if len(s.opts.AllowedOrigins) > 0 {
		h = httputil.CORSMiddleware(s.opts.AllowedOrigins)(h)
	}
	if s.opts.Metrics != nil {
		h = observability.HTTPMetricsMiddleware(s.opts.Metrics)(h)
	}
	h = httputil.LoggingMiddleware(h)
	h = s.loggerMiddleware(h)
	h = httputil.RequestIDMiddleware(h)
	h = httputil.RecoveryMiddleware(h)
	return h
}

// loggerMiddleware stores the server logger in the request context so
// handlers pick it up annotated with the request ID
func (s *Server) loggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := contextkeys.WithLogger(r.Context(), s.opts.Logger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// log returns the request-scoped logger
func (s *Server) log(r *http.Request) *observability.Logger {
	return observability.FromContext(r.Context())
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Authentication routes
	api.HandleFunc("/auth/register", s.register).Methods("POST")
	login := http.Handler(http.HandlerFunc(s.login))
	if s.opts.Limiter != nil {
		login = middleware.LoginRateLimitMiddleware(s.opts.Limiter)(login)
	}
	api.Handle("/auth/login", login).Methods("POST")
	api.Handle("/auth/profile", s.protected(s.profile)).Methods("GET")

	// Interrogation routes. The /user subpath must be registered before
	// the {id} routes so "user" is not matched as a record ID.
	api.Handle("/interrogations", s.protected(s.createInterrogation)).Methods("POST")
	api.Handle("/interrogations", s.protected(s.listInterrogations)).Methods("GET")
	api.Handle("/interrogations/user/{userId}", s.protected(s.listInterrogationsByUser)).Methods("GET")
	api.Handle("/interrogations/{id}", s.protected(s.getInterrogation)).Methods("GET")
	api.Handle("/interrogations/{id}", s.protected(s.updateInterrogation)).Methods("PUT")
	api.Handle("/interrogations/{id}", s.protected(s.deleteInterrogation)).Methods("DELETE")

	// User administration, admin role only
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(s.authMW.Handler, middleware.RequireRole(auth.RoleAdmin))
	admin.HandleFunc("/users", s.listUsers).Methods("GET")
	admin.HandleFunc("/users", s.createUser).Methods("POST")
	admin.HandleFunc("/users/{id}", s.getUser).Methods("GET")
	admin.HandleFunc("/users/{id}", s.updateUser).Methods("PUT")
	admin.HandleFunc("/users/{id}", s.deleteUser).Methods("DELETE")

	// Audio routes
	api.Handle("/audio/upload/{id}", s.protected(s.uploadAudio)).Methods("POST")
	api.Handle("/audio/transcribe", s.protected(s.transcribeAudio)).Methods("POST")
	api.Handle("/audio/{filename}", s.protected(s.getAudio)).Methods("GET")

	// Document routes. Download is unauthenticated so generated links
	// work from a plain browser tab.
	api.Handle("/documents/generate/{id}", s.protected(s.generateDocument)).Methods("POST")
	api.HandleFunc("/documents/download/{filename}", s.downloadDocument).Methods("GET")
}

// protected wraps a handler with the token authentication gate
func (s *Server) protected(h http.HandlerFunc) http.Handler {
	return s.authMW.Handler(h)
}

// audit records an event, logging instead of failing the request when
// the audit sink is unavailable
func (s *Server) audit(r *http.Request, event *audit.Event) {
	if err := s.opts.Audit.Log(r.Context(), audit.FromRequest(r, event)); err != nil {
		s.log(r).WithError(err).Warn("Failed to record audit event")
	}
}
