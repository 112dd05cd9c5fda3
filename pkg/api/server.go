package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/shelfd/shelfd/pkg/auth"
	"github.com/shelfd/shelfd/pkg/contextkeys"
	"github.com/shelfd/shelfd/pkg/httputil"
	"github.com/shelfd/shelfd/pkg/middleware"
	"github.com/shelfd/shelfd/pkg/observability"
	"github.com/shelfd/shelfd/pkg/sso"
	"github.com/shelfd/shelfd/pkg/storage"
)

// BookCatalog is the book store contract the handlers depend on. Both
// storage.BookStore and storage.CachedBookStore satisfy it.
type BookCatalog interface {
	Create(ctx context.Context, book *storage.Book) error
	Get(ctx context.Context, id int64) (*storage.Book, error)
	List(ctx context.Context, filter storage.BookFilter) ([]*storage.Book, error)
	Update(ctx context.Context, book *storage.Book) error
	Delete(ctx context.Context, id int64) error
}

// Server owns the router and the collaborators the handlers use.
type Server struct {
	router  *mux.Router
	users   *storage.UserStore
	books   BookCatalog
	hasher  *auth.Hasher
	issuer  *auth.Issuer
	authMW  *middleware.AuthMiddleware
	logger  *observability.Logger
	metrics *observability.Metrics

	// optional
	ssoHandlers  *sso.Handlers
	loginLimiter *middleware.LoginRateLimiter
	maxBodyBytes int64
}

// ServerOptions bundles the collaborators for NewServer. SSOHandlers and
// LoginLimiter may be nil; Metrics may be nil.
type ServerOptions struct {
	Users        *storage.UserStore
	Books        BookCatalog
	Hasher       *auth.Hasher
	Issuer       *auth.Issuer
	Verifier     *auth.Verifier
	Logger       *observability.Logger
	Metrics      *observability.Metrics
	SSOHandlers  *sso.Handlers
	LoginLimiter *middleware.LoginRateLimiter
	MaxBodyBytes int64
}

// NewServer creates the API server and registers all routes.
func NewServer(opts ServerOptions) *Server {
	s := &Server{
		router:       mux.NewRouter(),
		users:        opts.Users,
		books:        opts.Books,
		hasher:       opts.Hasher,
		issuer:       opts.Issuer,
		authMW:       middleware.NewAuthMiddleware(opts.Verifier, opts.Metrics),
		logger:       opts.Logger,
		metrics:      opts.Metrics,
		ssoHandlers:  opts.SSOHandlers,
		loginLimiter: opts.LoginLimiter,
		maxBodyBytes: opts.MaxBodyBytes,
	}
	s.setupRoutes()
	return s
}

// log returns the server logger annotated with the request ID and, when a
// span is recording, the trace context.
func (s *Server) log(r *http.Request) *observability.Logger {
	logger := s.logger
	if id := contextkeys.GetRequestID(r.Context()); id != "" {
		logger = logger.WithField("request_id", id)
	}
	return observability.TraceFields(r.Context(), logger)
}

// Router returns the configured router.
func (s *Server) Router() *mux.Router {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.Use(httputil.RequestIDMiddleware)
	s.router.Use(httputil.RecoveryMiddleware)
	if s.maxBodyBytes > 0 {
		s.router.Use(httputil.MaxBytesMiddleware(s.maxBodyBytes))
	}
	if s.metrics != nil {
		s.router.Use(observability.HTTPMetricsMiddleware(s.metrics))
	}

	// Pre-auth routes
	s.router.HandleFunc("/healthcheck", s.healthcheck).Methods("GET")
	s.router.HandleFunc("/users/register", s.register).Methods("POST")
	s.router.HandleFunc("/users/admin/register", s.adminRegister).Methods("POST")

	login := http.Handler(http.HandlerFunc(s.login))
	if s.loginLimiter != nil {
		login = s.loginLimiter.Handler(login)
	}
	s.router.Handle("/users/login", login).Methods("POST")

	if s.ssoHandlers != nil {
		s.ssoHandlers.RegisterRoutes(s.router)
	}

	// Post-auth routes
	protected := s.router.NewRoute().Subrouter()
	protected.Use(s.authMW.Handler)

	protected.HandleFunc("/users/logout", s.logout).Methods("POST")

	protected.HandleFunc("/profiles", s.listProfiles).Methods("GET")
	protected.HandleFunc("/profiles/all", s.requireAdminFunc(s.listAllProfiles)).Methods("GET")
	protected.HandleFunc("/profiles/me", s.updateProfile).Methods("PUT")
	protected.HandleFunc("/profiles/status", s.updateStatus).Methods("PATCH")

	protected.HandleFunc("/books", s.createBook).Methods("POST")
	protected.HandleFunc("/books", s.listBooks).Methods("GET")
	protected.HandleFunc("/books/{id:[0-9]+}", s.getBook).Methods("GET")
	protected.HandleFunc("/books/{id:[0-9]+}", s.updateBook).Methods("PUT")
	protected.HandleFunc("/books/{id:[0-9]+}", s.deleteBook).Methods("DELETE")
}

func (s *Server) requireAdminFunc(h http.HandlerFunc) http.HandlerFunc {
	admin := middleware.RequireAdmin(h)
	return func(w http.ResponseWriter, r *http.Request) {
		admin.ServeHTTP(w, r)
	}
}

func (s *Server) healthcheck(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, MessageResponse{Message: "Server is up!!!"})
}
