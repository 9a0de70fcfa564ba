// Package httpapi exposes the vault over HTTP: password-less auth
// (salt/verifier), and conditional reads/writes of the encrypted manifest
// keyed by ETag.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrijs2005/linkvault/internal/logging"
	"github.com/dmitrijs2005/linkvault/internal/server/manifests"
	"github.com/dmitrijs2005/linkvault/internal/server/users"
)

type Server struct {
	addr            string
	logger          logging.Logger
	userService     *users.Service
	manifestService *manifests.Service
	secretKey       []byte
}

func NewServer(addr string, logger logging.Logger, userService *users.Service, manifestService *manifests.Service, secretKey string) *Server {
	return &Server{
		addr:            addr,
		logger:          logger.With("component", "httpapi"),
		userService:     userService,
		manifestService: manifestService,
		secretKey:       []byte(secretKey),
	}
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/api/ping", s.handlePing)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/salt", s.handleSalt)
		r.Post("/login", s.handleLogin)
	})

	r.Route("/api/vault", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/manifest", s.handleGetManifest)
		r.Put("/manifest", s.handlePutManifest)
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "http server listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
