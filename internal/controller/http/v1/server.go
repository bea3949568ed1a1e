package v1

import (
	"context"
	"net"
	"net/http"

	"github.com/brfinance/extrato/internal/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Server struct {
	httpServer *http.Server
}

func NewServer(cfg config.HTTP, statements StatementService, jobs JobProducer, metrics MetricsSource) *Server {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	h := NewStatementsHandler(statements, jobs, metrics)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/statements/{bank}", h.ProcessStatement)
		r.Post("/statements/{bank}/async", h.SubmitStatement)
		r.Get("/processing", h.ListProcessing)
		r.Get("/processing/{job_id}", h.GetProcessing)
		r.Delete("/processing/{job_id}", h.CancelProcessing)
		r.Get("/banks", h.ListBanks)
		r.Get("/transactions", h.ListTransactions)
		r.Get("/metrics", h.GetMetrics)
	})

	return &Server{
		httpServer: &http.Server{
			Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
			Handler:      r,
		},
	}
}

func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
