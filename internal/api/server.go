// Package api exposes the ledger over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sheikh-saqib/money-management-ledger/internal/logging"
	"github.com/sheikh-saqib/money-management-ledger/internal/metrics"
	"go.uber.org/zap"
)

// Server holds the handlers' dependencies.
type Server struct {
	ledger    TransactionService
	store     Store
	dashboard DashboardService
	metrics   metrics.Recorder
	logger    *logging.Logger
	// metricsHandler serves /metrics when set.
	metricsHandler http.Handler
}

type Option func(*Server)

func WithMetrics(recorder metrics.Recorder, handler http.Handler) Option {
	return func(s *Server) {
		s.metrics = recorder
		s.metricsHandler = handler
	}
}

func WithLogger(logger *logging.Logger) Option {
	return func(s *Server) { s.logger = logger.Named("api") }
}

func NewServer(l TransactionService, store Store, dashboard DashboardService, opts ...Option) *Server {
	s := &Server{
		ledger:    l,
		store:     store,
		dashboard: dashboard,
		metrics:   metrics.NoOp{},
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.metricsMiddleware)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/transactions", s.handleListTransactions).Methods(http.MethodGet)
	api.HandleFunc("/transactions", s.handleCreateTransaction).Methods(http.MethodPost)
	api.HandleFunc("/transactions/{id}", s.handleGetTransaction).Methods(http.MethodGet)
	api.HandleFunc("/transactions/{id}", s.handleUpdateTransaction).Methods(http.MethodPut)
	api.HandleFunc("/transactions/{id}", s.handleDeleteTransaction).Methods(http.MethodDelete)
	api.HandleFunc("/accounts", s.handleListAccounts).Methods(http.MethodGet)
	api.HandleFunc("/accounts", s.handleCreateAccount).Methods(http.MethodPost)
	api.HandleFunc("/accounts/{id}", s.handleGetAccount).Methods(http.MethodGet)
	api.HandleFunc("/dashboard", s.handleDashboard).Methods(http.MethodGet)

	if s.metricsHandler != nil {
		r.Handle("/metrics", s.metricsHandler).Methods(http.MethodGet)
	}
	return r
}

// HTTPServer wraps the router with the listener timeouts used in production.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		srw := &statusResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(srw, r)

		elapsed := time.Since(start)
		route := routeTemplate(r)
		s.metrics.ObserveHTTPRequest(r.Method, route, srw.statusCode, elapsed)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", srw.statusCode),
			zap.Duration("elapsed", elapsed),
		)
	})
}

type statusResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusResponseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// routeTemplate keeps path parameters out of metric labels.
func routeTemplate(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return "unmatched"
	}
	tmpl, err := route.GetPathTemplate()
	if err != nil {
		return "unmatched"
	}
	return tmpl
}
