package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kalambet/snaptune/internal/catalog"
	"github.com/kalambet/snaptune/internal/ranking"
)

// ErrNoMatches is returned when the preference filters exclude the entire
// catalog. The caller should surface the empty result rather than relax the
// filters silently.
var ErrNoMatches = errors.New("no songs match the requested filters")

const defaultTopN = 5

// RecommendRequest carries one photo plus the user's listening preferences.
type RecommendRequest struct {
	Image     []byte
	Manual    string
	Languages []string
	Artists   []string
	TopN      int
}

// Recommendation is the outcome of a recommendation run.
type Recommendation struct {
	Description string          `json:"description"`
	Matches     []ranking.Match `json:"matches"`
	DurationMs  int64           `json:"duration_ms"`
}

// PhotoDescriber produces a textual description of the uploaded photo.
type PhotoDescriber interface {
	Describe(ctx context.Context, image []byte, manual string) (string, error)
}

// Recommender orchestrates the recommendation pipeline: photo description,
// preference filtering, and similarity ranking over the song catalog.
type Recommender struct {
	describer PhotoDescriber
	songs     *catalog.Catalog
	ranker    *ranking.Ranker
}

// NewRecommender wires a Recommender to all pipeline components.
func NewRecommender(describer PhotoDescriber, songs *catalog.Catalog, ranker *ranking.Ranker) *Recommender {
	return &Recommender{describer: describer, songs: songs, ranker: ranker}
}

// Recommend runs the full pipeline on one request:
//  1. Describe the photo (cached by fingerprint)
//  2. Filter the catalog by language and artist preferences
//  3. Rank the remaining songs by cosine similarity to the description
//
// Unlike description refinement, no step here degrades: a failure at any
// stage fails the request, because a recommendation built on a missing
// description or an unranked catalog would be noise.
func (r *Recommender) Recommend(ctx context.Context, req RecommendRequest) (*Recommendation, error) {
	start := time.Now()

	description, err := r.describer.Describe(ctx, req.Image, req.Manual)
	if err != nil {
		return nil, fmt.Errorf("describing photo: %w", err)
	}

	candidates := r.songs.Filter(req.Languages, req.Artists)
	if len(candidates) == 0 {
		return nil, ErrNoMatches
	}

	topN := req.TopN
	if topN <= 0 {
		topN = defaultTopN
	}
	matches, err := r.ranker.Rank(ctx, description, candidates, topN)
	if err != nil {
		return nil, fmt.Errorf("ranking songs: %w", err)
	}

	elapsed := time.Since(start)
	slog.Info("recommendation complete",
		"candidates", len(candidates),
		"matches", len(matches),
		"duration", elapsed.String())

	return &Recommendation{
		Description: description,
		Matches:     matches,
		DurationMs:  elapsed.Milliseconds(),
	}, nil
}
