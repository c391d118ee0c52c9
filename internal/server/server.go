// Package server provides the HTTP REST API for the matching service.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/job-matcher/internal/queue"
	"github.com/jonathan/job-matcher/internal/recommend"
	"github.com/jonathan/job-matcher/internal/server/ratelimit"
	"github.com/jonathan/job-matcher/internal/types"
)

// Recommender produces recommendation lists and records feedback.
type Recommender interface {
	Personalized(ctx context.Context, userID uuid.UUID, limit int, includeApplied bool) ([]recommend.Recommendation, recommend.Metadata, error)
	Trending(ctx context.Context, region string, timeframe recommend.Timeframe, limit int) ([]recommend.TrendingJob, recommend.Metadata, error)
	CollaborativeInsights(ctx context.Context, userID uuid.UUID) (*recommend.CollaborativeResult, recommend.Metadata, error)
	RecordFeedback(ctx context.Context, userID, jobID uuid.UUID, action types.FeedbackAction, rating *int, note string) error
}

// QueueControl exposes the queue operations the admin surface needs.
type QueueControl interface {
	ProcessAllPending(ctx context.Context, batchSize int) (queue.BatchResult, error)
	Stats(ctx context.Context) (*types.QueueStats, error)
}

// AdminStore supplies the counts reported by the full-test endpoint.
type AdminStore interface {
	UsersNeedingProcessing(ctx context.Context, limit int) ([]uuid.UUID, error)
	ListFeaturedActiveJobs(ctx context.Context) ([]types.Job, error)
	CountMatchesSince(ctx context.Context, since time.Time) (int, error)
}

// Config holds server configuration.
type Config struct {
	Port           int
	QueueBatchSize int
}

// Server is the HTTP server.
type Server struct {
	httpServer  *http.Server
	recommender Recommender
	queue       QueueControl
	admin       AdminStore
	rateLimiter *ratelimit.Limiter
	validate    *validator.Validate
	batchSize   int
	logger      *zap.Logger
}

// New creates a server instance.
func New(cfg Config, recommender Recommender, queueControl QueueControl, admin AdminStore, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		recommender: recommender,
		queue:       queueControl,
		admin:       admin,
		rateLimiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		validate:    validator.New(),
		batchSize:   cfg.QueueBatchSize,
		logger:      logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /recommendations", s.handleRecommendations)
	mux.HandleFunc("POST /recommendations/feedback", s.handleFeedback)
	mux.HandleFunc("POST /admin/full-test", s.handleFullTest)
	mux.HandleFunc("GET /admin/queue-stats", s.handleQueueStats)
	mux.HandleFunc("GET /health", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withRateLimit(s.withLogging(s.withCORS(mux))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // full-test drains a batch inline
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start begins listening and blocks until SIGINT or SIGTERM, then shuts down
// gracefully.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("server error: %w", err)
	case <-stop:
	}

	s.logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.rateLimiter.Stop()
	s.logger.Info("server stopped")
	return nil
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response.
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

// errorResponse writes an error JSON response with the status mapped from the
// error type.
func (s *Server) errorResponse(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	}
	s.jsonResponse(w, status, map[string]string{"error": err.Error()})
}
