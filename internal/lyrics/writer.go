package lyrics

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kalambet/snaptune/internal/engine"
)

// ErrEmptyDescription is returned when Write is called without a description.
var ErrEmptyDescription = errors.New("empty description")

const writeTimeout = 60 * time.Second

// Writer generates short song lyrics from a photo description.
type Writer struct {
	engine engine.Engine
	model  string
}

// NewWriter creates a Writer using the given engine and model name.
func NewWriter(e engine.Engine, model string) *Writer {
	return &Writer{engine: e, model: model}
}

// Write produces verse/chorus lyrics matching the description, mood, genre
// and language. Empty mood, genre, or language fall back to defaults.
func (w *Writer) Write(ctx context.Context, description, mood, genre, language string) (string, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return "", ErrEmptyDescription
	}
	if mood == "" {
		mood = "happy"
	}
	if genre == "" {
		genre = "pop"
	}
	if language == "" {
		language = "English"
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	resp, err := w.engine.Chat(ctx, w.model, []engine.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: buildPrompt(description, mood, genre, language)},
	})
	if err != nil {
		return "", fmt.Errorf("generating lyrics: %w", err)
	}

	text := strings.TrimSpace(resp)
	if text == "" {
		return "", fmt.Errorf("lyrics model returned an empty response")
	}
	return text, nil
}
