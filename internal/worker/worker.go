// Package worker exposes the HTTP surface through which the serverless
// platform delivers jobs to the handler. Queuing, dispatch, retries and
// autoscaling are owned by the platform; this server only fulfills the
// one-job-in, one-response-out invocation contract.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/musicgen-service/internal/core"
	"github.com/book-expert/musicgen-service/internal/handler"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	maxBodyBytes        = 1 << 20 // 1 MiB of lyrics and parameters is plenty
	shutdownGracePeriod = 10 * time.Second
	readTimeout         = 30 * time.Second
	idleTimeout         = 120 * time.Second
)

// Server serves the platform invocation contract over HTTP.
type Server struct {
	app        *echo.Echo
	address    string
	jobHandler *handler.Handler
	log        *logger.Logger
}

// jobEnvelope is the dispatch payload the platform posts per job.
type jobEnvelope struct {
	ID    string          `json:"id"`
	Input json.RawMessage `json:"input"`
}

// jobResponse reports one job's terminal outcome back to the platform.
type jobResponse struct {
	ID     string                 `json:"id"`
	Status core.JobStatus         `json:"status"`
	Output *core.GenerationResult `json:"output,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

// New constructs the worker server wired with routing and middleware.
func New(address string, jobHandler *handler.Handler, log *logger.Logger) (*Server, error) {
	if jobHandler == nil {
		return nil, errors.New("job handler must not be nil")
	}

	app := echo.New()
	app.HideBanner = true
	app.HidePort = true
	app.Use(middleware.Recover())

	srv := &Server{
		app:        app,
		address:    address,
		jobHandler: jobHandler,
		log:        log,
	}

	app.POST("/run", srv.handleRun)
	app.GET("/health", srv.handleHealth)

	return srv, nil
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.log.System("Worker listening for jobs on %s", s.address)

	httpServer := &http.Server{
		Addr:        s.address,
		Handler:     s.app,
		ReadTimeout: readTimeout,
		// Generation can run for minutes; the write deadline must not
		// cut off a response the platform is still waiting on.
		WriteTimeout: 0,
		IdleTimeout:  idleTimeout,
	}

	errCh := make(chan error, 1)

	go func() {
		serveErr := s.app.StartServer(httpServer)
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- serveErr
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()

		shutdownErr := s.app.Shutdown(shutdownCtx)
		if shutdownErr != nil {
			return fmt.Errorf("graceful shutdown failed: %w", shutdownErr)
		}

		s.log.System("Worker shutdown complete")

		return nil
	case err := <-errCh:
		return fmt.Errorf("worker server failed: %w", err)
	}
}

// Handler exposes the underlying HTTP handler, primarily for tests.
func (s *Server) Handler() http.Handler {
	return s.app
}

// handleRun processes one dispatched job. Handler failures of any kind are
// reported as a FAILED job outcome with HTTP 200, so the platform records the
// failure instead of treating the worker as crashed.
func (s *Server) handleRun(c echo.Context) error {
	request := c.Request()
	defer request.Body.Close()

	body, err := io.ReadAll(io.LimitReader(request.Body, maxBodyBytes))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": fmt.Sprintf("failed to read request body: %v", err),
		})
	}

	var job jobEnvelope

	err = json.Unmarshal(body, &job)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": fmt.Sprintf("malformed job envelope: %v", err),
		})
	}

	if job.ID == "" {
		// Keep log lines correlatable even when the dispatcher omits an id.
		job.ID = uuid.NewString()
	}

	s.log.Info("Processing job %s", job.ID)

	result, handleErr := s.jobHandler.Handle(request.Context(), job.Input)
	if handleErr != nil {
		s.log.Error("Job %s failed: %v", job.ID, handleErr)

		return c.JSON(http.StatusOK, jobResponse{
			ID:     job.ID,
			Status: core.JobStatusFailed,
			Output: nil,
			Error:  handleErr.Error(),
		})
	}

	s.log.Info("Job %s completed: %d bytes", job.ID, result.SizeBytes)

	return c.JSON(http.StatusOK, jobResponse{
		ID:     job.ID,
		Status: core.JobStatusCompleted,
		Output: result,
		Error:  "",
	})
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
