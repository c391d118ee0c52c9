// Package notify is the boundary to the external notification collaborator
// that delivers match-alert messages.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/job-matcher/internal/types"
)

// AlertThreshold is the minimum normalized (0-100) match score that warrants
// an alert message.
const AlertThreshold = 80.0

// dispatchTimeout bounds each call to the collaborator.
const dispatchTimeout = 10 * time.Second

// Notifier sends one match alert. The collaborator owns flipping the match's
// email_sent flag after a successful send.
type Notifier interface {
	SendMatchAlert(ctx context.Context, match types.JobMatch) error
}

// MatchSource lists a job's matches that have not been alerted yet.
type MatchSource interface {
	ListUnsentMatches(ctx context.Context, jobID uuid.UUID) ([]types.JobMatch, error)
}

// Service selects alert-worthy matches and hands them to the collaborator.
type Service struct {
	matches  MatchSource
	notifier Notifier
	logger   *zap.Logger
}

// NewService creates a notification dispatch service.
func NewService(matches MatchSource, notifier Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{matches: matches, notifier: notifier, logger: logger}
}

// DispatchMatchAlerts sends alerts for the job's unsent matches at or above
// AlertThreshold. Returns the number sent. Any send failure is returned so
// the owning queue task retries; already-sent matches are skipped on retry
// because the collaborator flips email_sent.
func (s *Service) DispatchMatchAlerts(ctx context.Context, jobID uuid.UUID) (int, error) {
	matches, err := s.matches.ListUnsentMatches(ctx, jobID)
	if err != nil {
		return 0, fmt.Errorf("failed to list unsent matches: %w", err)
	}

	sent := 0
	var firstErr error
	for _, match := range matches {
		if match.NormalizedScore() < AlertThreshold {
			continue
		}
		if err := s.notifier.SendMatchAlert(ctx, match); err != nil {
			s.logger.Warn("match alert send failed",
				zap.String("match_id", match.ID.String()),
				zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		sent++
	}

	if firstErr != nil {
		return sent, fmt.Errorf("dispatched %d alerts, at least one send failed: %w", sent, firstErr)
	}
	return sent, nil
}

// WebhookNotifier posts match alerts to the notification collaborator's
// webhook endpoint.
type WebhookNotifier struct {
	endpoint string
	client   *http.Client
}

// NewWebhookNotifier creates a WebhookNotifier for the given endpoint.
func NewWebhookNotifier(endpoint string) *WebhookNotifier {
	return &WebhookNotifier{
		endpoint: endpoint,
		client:   &http.Client{Timeout: dispatchTimeout},
	}
}

// LogNotifier records alerts in the log instead of delivering them. Used when
// no webhook endpoint is configured, typically in development.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// SendMatchAlert logs the alert.
func (n *LogNotifier) SendMatchAlert(_ context.Context, match types.JobMatch) error {
	n.logger.Info("match alert (no webhook configured)",
		zap.String("match_id", match.ID.String()),
		zap.String("job_id", match.JobID.String()),
		zap.String("profile_id", match.ProfileID.String()),
		zap.Float64("score", match.NormalizedScore()))
	return nil
}

// SendMatchAlert posts one match alert request.
func (n *WebhookNotifier) SendMatchAlert(ctx context.Context, match types.JobMatch) error {
	body, err := json.Marshal(map[string]any{
		"match_id":   match.ID,
		"job_id":     match.JobID,
		"profile_id": match.ProfileID,
		"score":      match.NormalizedScore(),
		"reasons":    match.Reasons,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build alert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("alert request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("alert request returned status %d", resp.StatusCode)
	}
	return nil
}
