// Package http exposes the ask and admin APIs over HTTP.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"askbase/internal/adapters/kbstore"
	"askbase/internal/domain/entities"
	"askbase/internal/domain/usecases"
	"askbase/internal/snapshot"
)

// EntryEditor is the mutation side of the knowledge base.
type EntryEditor interface {
	Create(draft kbstore.EntryDraft) (entities.KBEntry, error)
	Update(id string, draft kbstore.EntryDraft) (entities.KBEntry, error)
	Delete(id string) error
}

// Rebuilder refreshes the search snapshot after an edit.
type Rebuilder interface {
	Refresh(ctx context.Context)
}

// Server wires the answer engine and the admin editor into a gin router.
type Server struct {
	engine   *gin.Engine
	holder   *snapshot.Holder
	answer   *usecases.AnswerUseCase
	editor   EntryEditor
	rebuild  Rebuilder
	notesDir string
	logger   *zap.Logger
	touch    func()
}

// Option customizes a Server.
type Option func(*Server)

// WithAdmin enables the admin entry-editing endpoints.
func WithAdmin(editor EntryEditor, rebuild Rebuilder) Option {
	return func(s *Server) {
		s.editor = editor
		s.rebuild = rebuild
	}
}

// WithActivityTouch registers a callback invoked on every request. The admin
// tunnel uses it to track activity for its inactivity watchdog.
func WithActivityTouch(touch func()) Option {
	return func(s *Server) { s.touch = touch }
}

// NewServer creates a server serving queries against the holder's snapshot.
func NewServer(holder *snapshot.Holder, answer *usecases.AnswerUseCase, notesDir string, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	s := &Server{
		engine:   engine,
		holder:   holder,
		answer:   answer,
		notesDir: notesDir,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	engine.Use(RequestID(), Logger(logger), gin.Recovery())
	if s.touch != nil {
		engine.Use(func(c *gin.Context) {
			s.touch()
			c.Next()
		})
	}

	engine.GET("/healthz", s.handleHealth)

	api := engine.Group("/api")
	api.POST("/ask", s.handleAsk)
	api.GET("/source/:id/:ext", s.handleSource)

	if s.editor != nil {
		entries := api.Group("/entries")
		entries.GET("", s.handleListEntries)
		entries.POST("", s.handleCreateEntry)
		entries.PUT("/:id", s.handleUpdateEntry)
		entries.DELETE("/:id", s.handleDeleteEntry)
	}

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("http server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
