package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"leaseapi/internal/lease"
)

// LeaseLister lists the current leases
type LeaseLister interface {
	List(ctx context.Context) (lease.Result, error)
}

// Server represents the HTTP server
type Server struct {
	listen  string
	leases  LeaseLister
	metrics *Metrics
	log     *zap.SugaredLogger
	router  *mux.Router
	http    *http.Server
}

// NewServer creates a new web server
func NewServer(listen string, leases LeaseLister, metrics *Metrics, log *zap.SugaredLogger) *Server {
	if metrics == nil {
		metrics = NewMetrics()
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	server := &Server{
		listen:  listen,
		leases:  leases,
		metrics: metrics,
		log:     log,
		router:  mux.NewRouter(),
	}

	server.setupRoutes()
	server.http = &http.Server{
		Addr:              listen,
		Handler:           server.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return server
}

// Router returns the request router
func (s *Server) Router() *mux.Router {
	return s.router
}

// Start serves HTTP until Shutdown is called
func (s *Server) Start() error {
	s.log.Infof("Starting HTTP server on %s", s.listen)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// setupRoutes configures HTTP routes
func (s *Server) setupRoutes() {
	s.router.Use(s.logRequest)
	s.router.HandleFunc("/leases/", s.handleLeases).Methods(http.MethodGet)
	s.router.HandleFunc("/leases", s.handleLeases).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
}

func (s *Server) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.log.Debugw("Request", "remote", r.RemoteAddr, "method", r.Method, "url", r.URL.String())
		next.ServeHTTP(w, r)
	})
}
