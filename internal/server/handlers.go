package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/job-matcher/internal/queue"
	"github.com/jonathan/job-matcher/internal/recommend"
	"github.com/jonathan/job-matcher/internal/types"
)

// maxListLimit caps the limit query parameter.
const maxListLimit = 100

// recommendationsResponse is the envelope for all three list types.
type recommendationsResponse struct {
	Recommendations []recommend.Recommendation     `json:"recommendations,omitempty"`
	Trending        []recommend.TrendingJob        `json:"trending,omitempty"`
	Collaborative   *recommend.CollaborativeResult `json:"collaborative,omitempty"`
	Metadata        recommend.Metadata             `json:"metadata"`
}

// handleRecommendations serves GET /recommendations. The type query parameter
// selects the list: personalized (default), trending, or collaborative.
func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	listType := q.Get("type")
	if listType == "" {
		listType = "personalized"
	}

	limit, err := parseLimit(q.Get("limit"))
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	switch listType {
	case "personalized":
		s.servePersonalized(w, r, limit)
	case "trending":
		s.serveTrending(w, r, limit)
	case "collaborative":
		s.serveCollaborative(w, r)
	default:
		s.errorResponse(w, &ErrValidation{Field: "type", Message: "must be personalized, trending, or collaborative"})
	}
}

func (s *Server) servePersonalized(w http.ResponseWriter, r *http.Request, limit int) {
	actor := actorFrom(r)
	if actor.ID == uuid.Nil {
		s.errorResponse(w, &ErrValidation{Field: "X-User-ID", Message: "valid user id header required"})
		return
	}

	includeApplied := r.URL.Query().Get("include_applied") == "true"

	recs, meta, err := s.recommender.Personalized(r.Context(), actor.ID, limit, includeApplied)
	if err != nil {
		if HTTPStatus(err) != http.StatusInternalServerError {
			s.errorResponse(w, err)
			return
		}
		// A broken recommendation pipeline must not take the job board down
		// with it. Serve an empty list and let the client render nothing.
		s.logger.Error("personalized recommendations failed, serving empty list",
			zap.String("user_id", actor.ID.String()), zap.Error(err))
		recs = []recommend.Recommendation{}
	}
	if recs == nil {
		recs = []recommend.Recommendation{}
	}
	s.jsonResponse(w, http.StatusOK, recommendationsResponse{Recommendations: recs, Metadata: meta})
}

func (s *Server) serveTrending(w http.ResponseWriter, r *http.Request, limit int) {
	q := r.URL.Query()

	timeframe := recommend.Timeframe(q.Get("timeframe"))
	if timeframe == "" {
		timeframe = recommend.Timeframe7d
	}

	jobs, meta, err := s.recommender.Trending(r.Context(), q.Get("region"), timeframe, limit)
	if err != nil {
		if HTTPStatus(err) != http.StatusInternalServerError {
			s.errorResponse(w, err)
			return
		}
		s.logger.Error("trending list failed, serving empty list", zap.Error(err))
		jobs = []recommend.TrendingJob{}
	}
	if jobs == nil {
		jobs = []recommend.TrendingJob{}
	}
	s.jsonResponse(w, http.StatusOK, recommendationsResponse{Trending: jobs, Metadata: meta})
}

func (s *Server) serveCollaborative(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	if actor.ID == uuid.Nil {
		s.errorResponse(w, &ErrValidation{Field: "X-User-ID", Message: "valid user id header required"})
		return
	}

	result, meta, err := s.recommender.CollaborativeInsights(r.Context(), actor.ID)
	if err != nil {
		if HTTPStatus(err) != http.StatusInternalServerError {
			s.errorResponse(w, err)
			return
		}
		s.logger.Error("collaborative insights failed, serving empty result",
			zap.String("user_id", actor.ID.String()), zap.Error(err))
		result = &recommend.CollaborativeResult{}
	}
	s.jsonResponse(w, http.StatusOK, recommendationsResponse{Collaborative: result, Metadata: meta})
}

// feedbackRequest is the POST /recommendations/feedback body.
type feedbackRequest struct {
	JobID    string `json:"job_id" validate:"required,uuid4"`
	Action   string `json:"action" validate:"required,oneof=viewed saved applied dismissed not_interested"`
	Rating   *int   `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Feedback string `json:"feedback,omitempty" validate:"max=2000"`
}

// handleFeedback serves POST /recommendations/feedback.
func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	if actor.ID == uuid.Nil {
		s.errorResponse(w, &ErrValidation{Field: "X-User-ID", Message: "valid user id header required"})
		return
	}

	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, &ErrValidation{Field: "body", Message: "invalid JSON"})
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		s.errorResponse(w, &ErrValidation{Field: "body", Message: err.Error()})
		return
	}

	jobID, err := uuid.Parse(req.JobID)
	if err != nil {
		s.errorResponse(w, &ErrValidation{Field: "job_id", Message: "must be a valid UUID"})
		return
	}

	if err := s.recommender.RecordFeedback(r.Context(), actor.ID, jobID,
		types.FeedbackAction(req.Action), req.Rating, req.Feedback); err != nil {
		s.errorResponse(w, err)
		return
	}

	s.jsonResponse(w, http.StatusCreated, map[string]string{"status": "recorded"})
}

// fullTestResponse reports one end-to-end pipeline exercise.
type fullTestResponse struct {
	QueueBefore            *types.QueueStats `json:"queue_before"`
	QueueAfter             *types.QueueStats `json:"queue_after"`
	Drain                  queue.BatchResult `json:"drain"`
	UsersNeedingProcessing int               `json:"users_needing_processing"`
	FeaturedActiveJobs     int               `json:"featured_active_jobs"`
	MatchesLast24h         int               `json:"matches_last_24h"`
}

// handleFullTest serves POST /admin/full-test: a bounded end-to-end exercise
// of the processing pipeline with a before/after report.
func (s *Server) handleFullTest(w http.ResponseWriter, r *http.Request) {
	if !actorFrom(r).IsAdmin() {
		s.errorResponse(w, &ErrForbidden{})
		return
	}

	ctx := r.Context()

	before, err := s.queue.Stats(ctx)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	drain, err := s.queue.ProcessAllPending(ctx, s.batchSize)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	after, err := s.queue.Stats(ctx)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	users, err := s.admin.UsersNeedingProcessing(ctx, maxListLimit)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	featured, err := s.admin.ListFeaturedActiveJobs(ctx)
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	matches, err := s.admin.CountMatchesSince(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		s.errorResponse(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, fullTestResponse{
		QueueBefore:            before,
		QueueAfter:             after,
		Drain:                  drain,
		UsersNeedingProcessing: len(users),
		FeaturedActiveJobs:     len(featured),
		MatchesLast24h:         matches,
	})
}

// handleQueueStats serves GET /admin/queue-stats.
func (s *Server) handleQueueStats(w http.ResponseWriter, r *http.Request) {
	if !actorFrom(r).IsAdmin() {
		s.errorResponse(w, &ErrForbidden{})
		return
	}

	stats, err := s.queue.Stats(r.Context())
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, stats)
}

// parseLimit parses the limit query parameter, clamping to maxListLimit.
// Empty means "use the engine default".
func parseLimit(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, &ErrValidation{Field: "limit", Message: "must be a positive integer"}
	}
	return min(v, maxListLimit), nil
}
