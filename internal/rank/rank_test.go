package rank

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ArxivDigest/internal/config"
	"ArxivDigest/internal/corpus"
	"ArxivDigest/internal/domain"
)

// vectorEmbedder maps known texts to fixed vectors so rankings are
// fully deterministic.
type vectorEmbedder struct {
	vectors map[string][]float32
}

func (e *vectorEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, ok := e.vectors[text]
		if !ok {
			vec = []float32{0, 0, 1}
		}
		out[i] = vec
	}
	return out, nil
}

func testConfig(maxResults int) config.RankingConfig {
	return config.RankingConfig{
		MaxResults:     maxResults,
		StarThresholds: []float64{0.8, 0.65, 0.5, 0.35},
	}
}

func buildCorpus(t *testing.T, embedder *vectorEmbedder, items ...domain.ProfileItem) *corpus.Corpus {
	t.Helper()
	c, err := corpus.Build(context.Background(), items, 0, embedder)
	require.NoError(t, err)
	return c
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Zero(t, CosineSimilarity([]float32{1, 0}, []float32{1, 0, 0}))
	assert.Zero(t, CosineSimilarity([]float32{0, 0}, []float32{1, 0}))
}

func TestRankPrefersClosestInterest(t *testing.T) {
	profile := domain.ProfileItem{Title: "deep learning generalization", Abstract: "bounds for deep nets"}
	relevant := domain.Paper{ID: "1", Title: "A new bound on deep learning generalization", Abstract: "tighter bound", PublishedAt: time.Now()}
	offTopic := domain.Paper{ID: "2", Title: "gut microbiome diversity", Abstract: "bacteria", PublishedAt: time.Now()}

	embedder := &vectorEmbedder{vectors: map[string][]float32{
		profile.EmbedText():  {1, 0, 0},
		relevant.EmbedText(): {0.95, 0.05, 0},
		offTopic.EmbedText(): {0.05, 0.95, 0},
	}}

	ranker := New(embedder, testConfig(1))
	matches, err := ranker.Rank(context.Background(), []domain.Paper{offTopic, relevant}, buildCorpus(t, embedder, profile))
	require.NoError(t, err)

	require.Len(t, matches, 1)
	assert.Equal(t, "1", matches[0].Paper.ID)
	assert.Greater(t, matches[0].Score, 0.8)
	assert.Equal(t, 5, matches[0].Stars)
}

func TestRankUsesMaxNotMeanSimilarity(t *testing.T) {
	// The candidate matches one prior interest strongly and the other
	// not at all; the strong single match must dominate.
	near := domain.ProfileItem{Title: "near", Abstract: "near"}
	far := domain.ProfileItem{Title: "far", Abstract: "far"}
	candidate := domain.Paper{ID: "1", Title: "c", Abstract: "c"}

	embedder := &vectorEmbedder{vectors: map[string][]float32{
		near.EmbedText():      {1, 0, 0},
		far.EmbedText():       {0, 1, 0},
		candidate.EmbedText(): {1, 0, 0},
	}}

	ranker := New(embedder, testConfig(5))
	matches, err := ranker.Rank(context.Background(), []domain.Paper{candidate}, buildCorpus(t, embedder, near, far))
	require.NoError(t, err)

	require.Len(t, matches, 1)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-6)
}

func TestRankOrderingAndTruncation(t *testing.T) {
	profile := domain.ProfileItem{Title: "p", Abstract: "p"}
	base := time.Date(2026, time.August, 30, 0, 0, 0, 0, time.UTC)

	papers := []domain.Paper{
		{ID: "low", Title: "low", Abstract: "low", PublishedAt: base},
		{ID: "tie-old", Title: "tie", Abstract: "tie", PublishedAt: base.Add(-2 * time.Hour)},
		{ID: "tie-new", Title: "tie2", Abstract: "tie2", PublishedAt: base.Add(2 * time.Hour)},
		{ID: "high", Title: "high", Abstract: "high", PublishedAt: base},
	}

	embedder := &vectorEmbedder{vectors: map[string][]float32{
		profile.EmbedText():   {1, 0, 0},
		papers[0].EmbedText(): {0.2, 0.98, 0},
		papers[1].EmbedText(): {1, 1, 0},
		papers[2].EmbedText(): {2, 2, 0}, // same direction as tie-old, same score
		papers[3].EmbedText(): {1, 0.05, 0},
	}}

	ranker := New(embedder, testConfig(3))
	matches, err := ranker.Rank(context.Background(), papers, buildCorpus(t, embedder, profile))
	require.NoError(t, err)

	require.Len(t, matches, 3)
	assert.Equal(t, "high", matches[0].Paper.ID)
	assert.Equal(t, "tie-new", matches[1].Paper.ID, "ties break newest first")
	assert.Equal(t, "tie-old", matches[2].Paper.ID)

	for i := 1; i < len(matches); i++ {
		assert.GreaterOrEqual(t, matches[i-1].Score, matches[i].Score)
	}
}

func TestRankIsDeterministic(t *testing.T) {
	profile := domain.ProfileItem{Title: "p", Abstract: "p"}
	papers := []domain.Paper{
		{ID: "a", Title: "a", Abstract: "a"},
		{ID: "b", Title: "b", Abstract: "b"},
		{ID: "c", Title: "c", Abstract: "c"},
	}
	embedder := &vectorEmbedder{vectors: map[string][]float32{
		profile.EmbedText():   {1, 0, 0},
		papers[0].EmbedText(): {0.9, 0.1, 0},
		papers[1].EmbedText(): {0.5, 0.5, 0},
		papers[2].EmbedText(): {0.7, 0.3, 0},
	}}

	ranker := New(embedder, testConfig(3))
	c := buildCorpus(t, embedder, profile)

	first, err := ranker.Rank(context.Background(), papers, c)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := ranker.Rank(context.Background(), papers, c)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestRankEmptyCorpusScoresZero(t *testing.T) {
	embedder := &vectorEmbedder{}
	ranker := New(embedder, testConfig(5))

	matches, err := ranker.Rank(context.Background(), []domain.Paper{{ID: "1", Title: "t"}}, &corpus.Corpus{})
	require.NoError(t, err)

	require.Len(t, matches, 1)
	assert.Zero(t, matches[0].Score)
	assert.Equal(t, 1, matches[0].Stars, "floor rating on empty corpus")
}

func TestRankEmptyCandidates(t *testing.T) {
	embedder := &vectorEmbedder{}
	ranker := New(embedder, testConfig(5))

	matches, err := ranker.Rank(context.Background(), nil, &corpus.Corpus{})
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestRankCollapsesDuplicateIDs(t *testing.T) {
	profile := domain.ProfileItem{Title: "p", Abstract: "p"}
	embedder := &vectorEmbedder{vectors: map[string][]float32{
		profile.EmbedText(): {1, 0, 0},
	}}
	ranker := New(embedder, testConfig(5))

	papers := []domain.Paper{
		{ID: "dup", Title: "first"},
		{ID: "dup", Title: "second"},
	}
	matches, err := ranker.Rank(context.Background(), papers, buildCorpus(t, embedder, profile))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "first", matches[0].Paper.Title)
}

func TestStarsThresholds(t *testing.T) {
	ranker := New(nil, testConfig(5))

	tests := []struct {
		score float64
		want  int
	}{
		{0.95, 5},
		{0.8, 5},
		{0.7, 4},
		{0.55, 3},
		{0.4, 2},
		{0.1, 1},
		{0, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ranker.stars(tt.score), "score %v", tt.score)
	}
}

func TestStarsNoThresholdsFloorsToOne(t *testing.T) {
	ranker := New(nil, config.RankingConfig{})
	assert.Equal(t, 1, ranker.stars(0.99))
}
