package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/snaptune/internal/catalog"
	"github.com/kalambet/snaptune/internal/describe"
	"github.com/kalambet/snaptune/internal/lyrics"
	"github.com/kalambet/snaptune/internal/pipeline"
	"github.com/kalambet/snaptune/internal/studio"
)

const maxUploadSize = 15 << 20 // 15MB photo uploads
const maxRequestBodySize = 1 << 20

// Recommender runs the photo-to-songs pipeline.
type Recommender interface {
	Recommend(ctx context.Context, req pipeline.RecommendRequest) (*pipeline.Recommendation, error)
}

// Producer runs the description-to-song pipeline.
type Producer interface {
	Produce(ctx context.Context, req pipeline.ProduceRequest) (*pipeline.Production, error)
}

// CatalogSeeder embeds and stores new songs.
type CatalogSeeder interface {
	Seed(ctx context.Context, entries []catalog.SeedSong) (int, error)
}

// Deps holds everything the HTTP handlers need.
type Deps struct {
	Recommender Recommender
	Producer    Producer
	Catalog     *catalog.Catalog
	Seeder      CatalogSeeder // optional; nil disables POST /catalog/songs
	Token       string        // bearer token protecting catalog writes
	CacheSize   func() int    // description cache size for /health
}

// NewHandler builds the full HTTP API.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth(deps))
	r.Get("/moods", handleMoods())
	r.Get("/genres", handleGenres())
	r.Get("/catalog/songs", handleListSongs(deps))
	r.Post("/recommendations", handleRecommend(deps))
	r.Post("/songs", handleProduce(deps))

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))
		r.Post("/catalog/songs", handleSeedSongs(deps))
	})

	return r
}

func handleHealth(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cached := 0
		if deps.CacheSize != nil {
			cached = deps.CacheSize()
		}
		writeJSON(w, map[string]any{
			"status":              "ok",
			"catalog_songs":       deps.Catalog.Len(),
			"cached_descriptions": cached,
		})
	}
}

func handleMoods() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string][]string{"moods": lyrics.Moods})
	}
}

func handleGenres() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string][]string{"genres": lyrics.Genres})
	}
}

type songSummary struct {
	ID       string `json:"id"`
	Artist   string `json:"artist"`
	Track    string `json:"track"`
	Language string `json:"language"`
}

func handleListSongs(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		songs := deps.Catalog.Filter(
			splitParam(r.URL.Query().Get("languages")),
			splitParam(r.URL.Query().Get("artists")),
		)
		out := make([]songSummary, len(songs))
		for i, s := range songs {
			out[i] = songSummary{ID: s.ID, Artist: s.Artist, Track: s.Track, Language: s.Language}
		}
		writeJSON(w, out)
	}
}

func handleRecommend(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid multipart form: %v", err)
			return
		}

		file, _, err := r.FormFile("photo")
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "photo file is required")
			return
		}
		defer file.Close()

		image, err := io.ReadAll(file)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "reading photo: %v", err)
			return
		}

		topN := 0
		if s := r.FormValue("top_n"); s != "" {
			topN, err = strconv.Atoi(s)
			if err != nil || topN < 0 {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "top_n must be a non-negative integer")
				return
			}
		}

		rec, err := deps.Recommender.Recommend(r.Context(), pipeline.RecommendRequest{
			Image:     image,
			Manual:    r.FormValue("manual_description"),
			Languages: splitParam(r.FormValue("languages")),
			Artists:   splitParam(r.FormValue("artists")),
			TopN:      topN,
		})
		if err != nil {
			writePipelineError(w, err)
			return
		}
		writeJSON(w, rec)
	}
}

type produceRequest struct {
	Description string `json:"description"`
	Mood        string `json:"mood"`
	Genre       string `json:"genre"`
	Language    string `json:"language"`
}

func handleProduce(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req produceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		out, err := deps.Producer.Produce(r.Context(), pipeline.ProduceRequest{
			Description: req.Description,
			Mood:        req.Mood,
			Genre:       req.Genre,
			Language:    req.Language,
		})
		if err != nil {
			writePipelineError(w, err)
			return
		}
		writeJSON(w, out)
	}
}

func handleSeedSongs(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Seeder == nil {
			httpError(w, http.StatusNotImplemented, "api_error", "catalog seeding is not enabled")
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		var entries []catalog.SeedSong
		if err := json.NewDecoder(r.Body).Decode(&entries); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if len(entries) == 0 {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "at least one song is required")
			return
		}

		count, err := deps.Seeder.Seed(r.Context(), entries)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "seeding catalog: %v", err)
			return
		}
		writeJSON(w, map[string]any{"status": "seeded", "count": count})
	}
}

// writePipelineError maps pipeline sentinels onto HTTP status codes. Anything
// unrecognized is a 500.
func writePipelineError(w http.ResponseWriter, err error) {
	var stepErr *studio.StepError
	switch {
	case errors.Is(err, describe.ErrEmptyImage):
		httpError(w, http.StatusBadRequest, "invalid_request_error", "photo is empty")
	case errors.Is(err, lyrics.ErrEmptyDescription):
		httpError(w, http.StatusBadRequest, "invalid_request_error", "description is required")
	case errors.Is(err, pipeline.ErrNoMatches):
		httpError(w, http.StatusNotFound, "not_found", "no songs match the requested filters")
	case errors.Is(err, studio.ErrBusy):
		httpError(w, http.StatusConflict, "conflict", "another studio run is in progress, try again later")
	case errors.As(err, &stepErr):
		httpError(w, http.StatusBadGateway, "api_error", "studio automation failed at %s: %v", stepErr.Step, stepErr.Err)
	default:
		httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
	}
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// splitParam parses a comma-separated query or form value into a clean slice.
func splitParam(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
