package web

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// Server wraps the HTTP server and handlers.
type Server struct {
	addr     string
	handlers *Handlers
}

// NewServer creates a server configured for the given address and dependencies.
func NewServer(addr string, handlers *Handlers) *Server {
	return &Server{
		addr:     addr,
		handlers: handlers,
	}
}

// Router returns the router with all routes registered.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/status", s.handlers.HandleStatus).Methods("GET")
	r.HandleFunc("/api/capture", s.handlers.HandleCapture).Methods("POST")
	r.HandleFunc("/api/stop", s.handlers.HandleStop).Methods("POST")

	r.HandleFunc("/api/prefs/{kind}/{key}", s.handlers.HandleGetPref).Methods("GET")
	r.HandleFunc("/api/prefs/{kind}/{key}", s.handlers.HandleSetPref).Methods("PUT")
	r.HandleFunc("/api/prefs/{kind}/{key}", s.handlers.HandleRemovePref).Methods("DELETE")

	r.HandleFunc("/status/stream", s.handlers.HandleStatusStream).Methods("GET")

	return r
}

// Run starts the server and blocks until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.Router()}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("web server listening on %s", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
