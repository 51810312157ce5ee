// Package web serves a read-mostly status endpoint for a running poll.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/example/classpick/internal/logger"
	"github.com/example/classpick/internal/registration"
	"github.com/example/classpick/internal/scheduler"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Poller is the part of the scheduler the status endpoint exposes.
type Poller interface {
	Snapshot() []scheduler.Status
	Lookup(t registration.Target) (scheduler.Status, bool)
	Cancel(t registration.Target) bool
}

type Server struct {
	Poller Poller
	RunID  string
	Log    *logger.Logger
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.accessLog)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Get("/targets", s.handleList)
	r.Get("/targets/{id}", s.handleGet)
	r.Post("/targets/{id}/cancel", s.handleCancel)
	return r
}

type listResponse struct {
	RunID   string             `json:"run_id"`
	Targets []scheduler.Status `json:"targets"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, listResponse{RunID: s.RunID, Targets: s.Poller.Snapshot()})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	st, ok := s.Poller.Lookup(registration.Target(chi.URLParam(r, "id")))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "unknown class"})
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	t := registration.Target(chi.URLParam(r, "id"))
	if _, ok := s.Poller.Lookup(t); !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "unknown class"})
		return
	}
	if !s.Poller.Cancel(t) {
		writeJSON(w, http.StatusConflict, map[string]string{"message": "class is not polling"})
		return
	}
	s.log().Info().Str("target", t.String()).Msg("polling cancelled via status endpoint")
	writeJSON(w, http.StatusAccepted, map[string]string{"message": "cancelling"})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log().Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Msg("http")
	})
}

func (s *Server) log() *logger.Logger {
	if s.Log != nil {
		return s.Log
	}
	return logger.Named("web")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Start serves h on addr until ctx is done.
func Start(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	logger.Named("web").Info().Str("addr", addr).Msg("status endpoint listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
