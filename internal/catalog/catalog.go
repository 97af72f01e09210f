package catalog

import (
	"fmt"
	"slices"
)

// Song is one immutable catalog entry. The embedding is precomputed at seed
// time; nothing mutates a Song after the catalog is loaded.
type Song struct {
	ID          string    `json:"id"`
	Artist      string    `json:"artist"`
	Track       string    `json:"track"`
	Description string    `json:"description"`
	Language    string    `json:"language"`
	Embedding   []float32 `json:"-"`
}

// Catalog holds the full song catalog in memory. It is loaded once at startup
// and is read-only for the process lifetime, so concurrent readers need no
// locking.
type Catalog struct {
	songs []Song
}

// Load reads every song from the store into an in-memory Catalog.
func Load(store *Store) (*Catalog, error) {
	songs, err := store.AllSongs()
	if err != nil {
		return nil, fmt.Errorf("loading song catalog: %w", err)
	}
	return &Catalog{songs: songs}, nil
}

// Songs returns all catalog entries in insertion order.
// Callers must not modify the returned slice.
func (c *Catalog) Songs() []Song {
	return c.songs
}

// Len returns the number of songs in the catalog.
func (c *Catalog) Len() int {
	return len(c.songs)
}

// Filter returns the songs matching the given language categories and artist
// names. Empty filter slices match everything; both filters combine with AND.
// Catalog order is preserved.
func (c *Catalog) Filter(languages, artists []string) []Song {
	if len(languages) == 0 && len(artists) == 0 {
		return c.songs
	}

	var out []Song
	for _, s := range c.songs {
		if len(languages) > 0 && !slices.Contains(languages, s.Language) {
			continue
		}
		if len(artists) > 0 && !slices.Contains(artists, s.Artist) {
			continue
		}
		out = append(out, s)
	}
	return out
}
