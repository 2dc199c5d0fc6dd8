package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"voicescribe/internal/config"
	"voicescribe/internal/history"
	"voicescribe/internal/logging"
	"voicescribe/internal/transcription"
)

const (
	// multipartMemory is the part of an upload kept in memory before spilling
	// to a temp file.
	multipartMemory = 8 << 20
	shutdownTimeout = 5 * time.Second
	// writeSlack is added to the engine timeout so a timed-out run can still
	// deliver its failure object.
	writeSlack = 30 * time.Second
)

// Transcriber runs one transcription request.
type Transcriber interface {
	Transcribe(ctx context.Context, req transcription.Request) transcription.Result
}

// Recorder journals completed requests.
type Recorder interface {
	Record(ctx context.Context, entry history.Entry) (history.Entry, error)
}

// Option customizes the server.
type Option func(*Server)

// WithRecorder journals every transcription outcome.
func WithRecorder(rec Recorder) Option {
	return func(s *Server) {
		s.recorder = rec
	}
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Server exposes transcription over HTTP.
type Server struct {
	bind        string
	token       string
	maxUpload   int64
	workDir     string
	transcriber Transcriber
	recorder    Recorder
	logger      *slog.Logger

	listener net.Listener
	server   *http.Server
}

// New builds a server from configuration.
func New(cfg *config.Config, tr Transcriber, opts ...Option) *Server {
	s := &Server{
		bind:        strings.TrimSpace(cfg.Server.Bind),
		token:       strings.TrimSpace(cfg.Server.APIToken),
		maxUpload:   cfg.MaxUploadBytes(),
		workDir:     cfg.Transcription.WorkDir,
		transcriber: tr,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "api-server")
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      cfg.EngineTimeout() + writeSlack,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Group(func(r chi.Router) {
		r.Use(bearerAuth(s.token))
		r.Post("/v1/transcriptions", s.handleTranscribe)
	})
	return r
}

// Start binds the listener and serves in the background until ctx ends or
// Stop is called.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop gracefully shuts the server down.
func (s *Server) Stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}
