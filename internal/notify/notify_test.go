package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-matcher/internal/types"
)

type fakeMatches struct {
	matches []types.JobMatch
}

func (f *fakeMatches) ListUnsentMatches(context.Context, uuid.UUID) ([]types.JobMatch, error) {
	return f.matches, nil
}

type fakeNotifier struct {
	sent []types.JobMatch
	err  error
}

func (f *fakeNotifier) SendMatchAlert(_ context.Context, match types.JobMatch) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, match)
	return nil
}

func match(score float64) types.JobMatch {
	return types.JobMatch{
		ID:        uuid.New(),
		JobID:     uuid.New(),
		ProfileID: uuid.New(),
		Score:     score,
	}
}

func TestDispatchMatchAlerts_ThresholdFilter(t *testing.T) {
	// Scores are on the 0-5 scale; 4.0 normalizes to 80, 3.5 to 70.
	matches := &fakeMatches{matches: []types.JobMatch{match(4.5), match(4.0), match(3.5)}}
	notifier := &fakeNotifier{}
	svc := NewService(matches, notifier, nil)

	sent, err := svc.DispatchMatchAlerts(context.Background(), uuid.New())

	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Len(t, notifier.sent, 2)
}

func TestDispatchMatchAlerts_NoQualifyingMatches(t *testing.T) {
	matches := &fakeMatches{matches: []types.JobMatch{match(2.0)}}
	svc := NewService(matches, &fakeNotifier{}, nil)

	sent, err := svc.DispatchMatchAlerts(context.Background(), uuid.New())

	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestDispatchMatchAlerts_SendFailureReturnsError(t *testing.T) {
	matches := &fakeMatches{matches: []types.JobMatch{match(5.0)}}
	notifier := &fakeNotifier{err: errors.New("collaborator unreachable")}
	svc := NewService(matches, notifier, nil)

	sent, err := svc.DispatchMatchAlerts(context.Background(), uuid.New())

	assert.Error(t, err)
	assert.Zero(t, sent)
}

func TestWebhookNotifier_PostsAlert(t *testing.T) {
	var got map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer ts.Close()

	m := match(4.5)
	err := NewWebhookNotifier(ts.URL).SendMatchAlert(context.Background(), m)

	require.NoError(t, err)
	assert.Equal(t, m.JobID.String(), got["job_id"])
	assert.InDelta(t, 90.0, got["score"].(float64), 1e-9)
}

func TestWebhookNotifier_ErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	err := NewWebhookNotifier(ts.URL).SendMatchAlert(context.Background(), match(4.5))

	assert.Error(t, err)
}

func TestLogNotifier_NeverFails(t *testing.T) {
	assert.NoError(t, NewLogNotifier(nil).SendMatchAlert(context.Background(), match(4.5)))
}
