package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/abhisek/persona/internal/history"
	"github.com/abhisek/persona/internal/inference"
	"github.com/abhisek/persona/internal/model"
	"github.com/abhisek/persona/internal/quiz"
	"github.com/abhisek/persona/internal/store"
)

// Options tunes a Server.
type Options struct {
	// SessionTTL drops sessions idle for longer. Zero keeps them forever.
	SessionTTL   time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// EngineOptions are passed to every new quiz.Engine.
	EngineOptions []quiz.Option
}

// DefaultOptions returns the settings used by persona serve.
func DefaultOptions() Options {
	return Options{
		SessionTTL:   30 * time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// Server exposes quiz sessions over HTTP. The bundle and question set are
// shared by every session without locking.
type Server struct {
	predictor *inference.Predictor
	questions quiz.QuestionSet
	recorder  *history.Recorder
	sessions  *sessionTable
	opts      Options
	logger    *zap.Logger
	router    *mux.Router
}

// New creates a Server. results and logger may be nil.
func New(bundle *model.Bundle, questions quiz.QuestionSet, results store.ResultRepo, logger *zap.Logger, opts Options) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("server")
	s := &Server{
		predictor: inference.NewPredictor(bundle),
		questions: questions,
		recorder:  history.NewRecorder(results, store.SourceHTTP, bundle.Meta.PairID, logger),
		sessions:  newSessionTable(opts.SessionTTL, time.Now),
		opts:      opts,
		logger:    logger,
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(requestLogger(s.logger))

	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet)

	r.HandleFunc("/sessions", s.createSession).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{id}", s.deleteSession).Methods(http.MethodDelete)
	r.HandleFunc("/sessions/{id}/question", s.getQuestion).Methods(http.MethodGet)
	r.HandleFunc("/sessions/{id}/answers", s.submitAnswer).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{id}/reset", s.resetSession).Methods(http.MethodPost)
	r.HandleFunc("/sessions/{id}/result", s.getResult).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "no such endpoint")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.logger.Info("shutting down", zap.Int("sessions", s.sessions.len()))
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) newEngine() *quiz.Engine {
	return quiz.NewEngine(s.questions, s.predictor, s.opts.EngineOptions...)
}

// requestLogger logs every request through zap.
func requestLogger(log *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("latency", time.Since(start)),
				zap.String("client_ip", r.RemoteAddr),
			}
			switch {
			case rec.status >= 500:
				log.Error("server error", fields...)
			case rec.status >= 400:
				log.Warn("client error", fields...)
			default:
				log.Debug("request processed", fields...)
			}
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
