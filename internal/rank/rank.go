package rank

import (
	"context"
	"fmt"
	"math"
	"sort"

	"ArxivDigest/internal/config"
	"ArxivDigest/internal/corpus"
	"ArxivDigest/internal/domain"
	"ArxivDigest/internal/ports"
)

// Ranker scores candidates against the profile corpus and keeps the
// best-matching top-K.
type Ranker struct {
	embedder   ports.Embedder
	maxResults int
	thresholds []float64
}

// New builds a ranker from the ranking configuration.
func New(embedder ports.Embedder, cfg config.RankingConfig) *Ranker {
	return &Ranker{
		embedder:   embedder,
		maxResults: cfg.MaxResults,
		thresholds: cfg.StarThresholds,
	}
}

// Rank embeds each candidate once (title plus abstract, title alone
// when the abstract is missing) and scores it with the maximum cosine
// similarity over all corpus vectors: one strong prior interest is
// enough to surface a paper. The result is sorted by descending
// score, ties broken newest first, truncated to the configured
// maximum. Input duplicates (by arXiv id) collapse to one entry.
func (r *Ranker) Rank(ctx context.Context, candidates []domain.Paper, c *corpus.Corpus) ([]domain.PaperMatch, error) {
	candidates = dedupByID(candidates)
	if len(candidates) == 0 {
		return nil, nil
	}

	if c.Len() == 0 {
		matches := make([]domain.PaperMatch, len(candidates))
		for i, paper := range candidates {
			matches[i] = domain.PaperMatch{Paper: paper, Score: 0, Stars: r.stars(0)}
		}
		return r.finalize(matches), nil
	}

	texts := make([]string, len(candidates))
	for i, paper := range candidates {
		texts[i] = paper.EmbedText()
	}
	vectors, err := r.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed candidates: %w", err)
	}

	matches := make([]domain.PaperMatch, len(candidates))
	for i, paper := range candidates {
		score := maxSimilarity(vectors[i], c.Vectors)
		matches[i] = domain.PaperMatch{Paper: paper, Score: score, Stars: r.stars(score)}
	}
	return r.finalize(matches), nil
}

func (r *Ranker) finalize(matches []domain.PaperMatch) []domain.PaperMatch {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Paper.PublishedAt.After(matches[j].Paper.PublishedAt)
	})
	if r.maxResults > 0 && len(matches) > r.maxResults {
		matches = matches[:r.maxResults]
	}
	return matches
}

// stars maps a similarity score onto a discrete rating using the
// configured descending thresholds; scores below every threshold get
// the one-star floor.
func (r *Ranker) stars(score float64) int {
	for i, threshold := range r.thresholds {
		if score >= threshold {
			return len(r.thresholds) + 1 - i
		}
	}
	return 1
}

func dedupByID(candidates []domain.Paper) []domain.Paper {
	seen := map[string]struct{}{}
	out := candidates[:0:0]
	for _, paper := range candidates {
		if _, ok := seen[paper.ID]; ok {
			continue
		}
		seen[paper.ID] = struct{}{}
		out = append(out, paper)
	}
	return out
}

// CosineSimilarity computes the cosine similarity between two
// vectors. Mismatched or zero-norm inputs score zero.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func maxSimilarity(vec []float32, corpus [][]float32) float64 {
	best := math.Inf(-1)
	for _, ref := range corpus {
		if s := CosineSimilarity(vec, ref); s > best {
			best = s
		}
	}
	if math.IsInf(best, -1) {
		return 0
	}
	return best
}
