// Package mockserver is a local stand-in for the remote book store. It speaks
// the same JSON protocol as the real service and is used for offline work and
// client tests.
package mockserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/kevinaaaquil/readinglist/loggers"
	"github.com/kevinaaaquil/readinglist/middleware"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

type Options struct {
	// JWTSecret turns on bearer auth for the /books routes when set.
	JWTSecret string
	Log       logrus.FieldLogger
}

// NewRouter wires the book routes over st.
func NewRouter(st Store, opts Options) http.Handler {
	log := opts.Log
	if log == nil {
		log = loggers.Discard()
	}
	books := &BooksHandler{Store: st, Log: log}

	r := chi.NewRouter()
	r.Use(middleware.AllowAll())
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chimw.Recoverer)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "reading list mock server"})
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/books", func(r chi.Router) {
		if opts.JWTSecret != "" {
			r.Use(middleware.Auth(opts.JWTSecret))
		}
		r.Get("/", books.List)
		r.Post("/", books.Create)
		r.Get("/{id}", books.Get)
		r.Put("/{id}", books.Update)
		r.Patch("/{id}", books.Update)
		r.Delete("/{id}", books.Delete)
	})
	return r
}

type Server struct {
	srv *http.Server
	log logrus.FieldLogger
}

func NewServer(addr string, st Store, opts Options) *Server {
	log := opts.Log
	if log == nil {
		log = loggers.Discard()
	}
	return &Server{
		srv: &http.Server{Addr: addr, Handler: NewRouter(st, opts), ReadHeaderTimeout: 10 * time.Second},
		log: log,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errc := make(chan error, 1)
	go func() {
		s.log.WithField("addr", ln.Addr().String()).Info("server listening")
		errc <- s.srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info("server stopped")
	return nil
}
