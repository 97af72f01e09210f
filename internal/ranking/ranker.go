package ranking

import (
	"context"
	"errors"
	"math"
	"sort"

	"github.com/kalambet/snaptune/internal/catalog"
)

// ErrNoCandidates is returned when Rank is called with an empty candidate
// set. Callers filter the catalog first and must surface "no matches" to the
// user instead of ranking nothing.
var ErrNoCandidates = errors.New("no candidate songs to rank")

// Match pairs a catalog song with its cosine similarity to the description.
type Match struct {
	Song  catalog.Song `json:"song"`
	Score float32      `json:"score"`
}

// TextEmbedder produces the description embedding for ranking.
type TextEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Ranker scores catalog songs against a photo description by cosine
// similarity of embeddings. It holds no mutable state; concurrent Rank calls
// are safe.
type Ranker struct {
	embedder TextEmbedder
}

// NewRanker creates a Ranker using the given embedder.
func NewRanker(embedder TextEmbedder) *Ranker {
	return &Ranker{embedder: embedder}
}

// Rank embeds the description and returns the topN highest-scoring candidates
// in descending score order. Equal scores keep their candidate order (stable).
// topN = 0 returns an empty list; topN beyond the candidate count returns all
// candidates. The same inputs always produce the same ordering.
func (r *Ranker) Rank(ctx context.Context, description string, candidates []catalog.Song, topN int) ([]Match, error) {
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}
	if topN < 0 {
		topN = 0
	}
	if topN == 0 {
		return []Match{}, nil
	}

	query, err := r.embedder.Embed(ctx, description)
	if err != nil {
		return nil, err
	}
	queryNorm := norm(query)

	matches := make([]Match, len(candidates))
	for i, song := range candidates {
		matches[i] = Match{Song: song, Score: cosine(query, queryNorm, song.Embedding)}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if topN < len(matches) {
		matches = matches[:topN]
	}
	return matches, nil
}

// norm returns the L2 norm of a vector.
func norm(v []float32) float32 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	return float32(math.Sqrt(sum))
}

// cosine computes dot(a,b) / (aNorm * |b|), defined as 0 when either vector
// has zero norm or the lengths differ.
func cosine(a []float32, aNorm float32, b []float32) float32 {
	if len(a) != len(b) || aNorm == 0 {
		return 0
	}
	var dot float64
	var bNormSq float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		bNormSq += float64(b[i]) * float64(b[i])
	}
	bNorm := math.Sqrt(bNormSq)
	if bNorm == 0 {
		return 0
	}
	return float32(dot / (float64(aNorm) * bNorm))
}
