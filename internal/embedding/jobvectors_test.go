package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-matcher/internal/types"
)

type fakeVectorStore struct {
	vectors map[uuid.UUID][]float32
	puts    int
}

func (s *fakeVectorStore) GetJobVector(_ context.Context, jobID uuid.UUID) ([]float32, error) {
	return s.vectors[jobID], nil
}

func (s *fakeVectorStore) UpsertJobVector(_ context.Context, jobID uuid.UUID, vector []float32) error {
	s.vectors[jobID] = vector
	s.puts++
	return nil
}

type fakeEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (f *fakeEmbedder) EmbedText(context.Context, string) ([]float32, error) {
	f.calls++
	return f.vector, f.err
}

func TestVector_ComputesOnceThenCaches(t *testing.T) {
	store := &fakeVectorStore{vectors: make(map[uuid.UUID][]float32)}
	embedder := &fakeEmbedder{vector: []float32{0.5, 0.5}}
	jv := NewJobVectors(store, embedder, nil)
	job := &types.Job{ID: uuid.New(), Title: "Warehouse Associate", Description: "forklift work"}
	ctx := context.Background()

	first, err := jv.Vector(ctx, job)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.5}, first)
	assert.Equal(t, 1, embedder.calls)
	assert.Equal(t, 1, store.puts)

	second, err := jv.Vector(ctx, job)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	// The cached vector is served without another embedding call.
	assert.Equal(t, 1, embedder.calls)
}

func TestVector_EmbedderFailure(t *testing.T) {
	store := &fakeVectorStore{vectors: make(map[uuid.UUID][]float32)}
	embedder := &fakeEmbedder{err: errors.New("quota exceeded")}
	jv := NewJobVectors(store, embedder, nil)

	_, err := jv.Vector(context.Background(), &types.Job{ID: uuid.New()})

	assert.Error(t, err)
	assert.Zero(t, store.puts)
}
