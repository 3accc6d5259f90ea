package server

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const shutdownTimeout = 10 * time.Second

// Server wraps http.Server with signal-driven graceful shutdown.
type Server struct {
	srv *http.Server
}

func New(addr string, handler http.Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Run serves until SIGINT/SIGTERM, then drains in-flight requests. It returns
// the listen error, if any.
func (s *Server) Run() error {
	errs := make(chan error, 1)
	go func() {
		log.Printf("server: listening on %s", s.srv.Addr)
		errs <- s.srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errs:
		return err
	case sig := <-stop:
		log.Printf("server: %s received, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.srv.Shutdown(ctx); err != nil {
			log.Printf("server: graceful shutdown failed: %v", err)
			return s.srv.Close()
		}
		log.Printf("server: stopped")
		return nil
	}
}
