package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// SeedSong is one entry of a catalog seed file: the song metadata without an
// embedding. Language is optional; when empty it is derived from the artist.
type SeedSong struct {
	Artist      string `json:"artist"`
	Track       string `json:"track"`
	Description string `json:"description"`
	Language    string `json:"language,omitempty"`
}

// ContentEmbedder generates embeddings for text.
type ContentEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Seeder builds the song catalog: it embeds each seed entry's description and
// writes the finished records to the store.
type Seeder struct {
	store    *Store
	embedder ContentEmbedder
}

// NewSeeder creates a Seeder writing to the given store.
func NewSeeder(store *Store, embedder ContentEmbedder) *Seeder {
	return &Seeder{store: store, embedder: embedder}
}

// ReadSeedFile parses a JSON seed file: an array of SeedSong objects.
func ReadSeedFile(path string) ([]SeedSong, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	var entries []SeedSong
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}
	return entries, nil
}

// Seed embeds every entry concurrently and inserts the resulting songs in one
// transaction. Returns the number of songs written.
func (s *Seeder) Seed(ctx context.Context, entries []SeedSong) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	for i, entry := range entries {
		if entry.Artist == "" || entry.Track == "" {
			return 0, fmt.Errorf("seed entry %d: artist and track are required", i)
		}
		if entry.Description == "" {
			return 0, fmt.Errorf("seed entry %d (%s - %s): description is required", i, entry.Artist, entry.Track)
		}
	}

	songs := make([]Song, len(entries))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(4) // Bound concurrency to avoid overwhelming the engine.

	for i, entry := range entries {
		g.Go(func() error {
			vec, err := s.embedder.Embed(gCtx, entry.Description)
			if err != nil {
				return fmt.Errorf("embedding %s - %s: %w", entry.Artist, entry.Track, err)
			}
			language := entry.Language
			if language == "" {
				language = LanguageFor(entry.Artist)
			}
			songs[i] = Song{
				ID:          uuid.NewString(),
				Artist:      entry.Artist,
				Track:       entry.Track,
				Description: entry.Description,
				Language:    language,
				Embedding:   vec,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}

	if err := s.store.InsertSongs(songs); err != nil {
		return 0, err
	}
	return len(songs), nil
}
