package describe

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kalambet/snaptune/internal/engine"
)

// ErrEmptyImage is returned when Describe is called without image bytes.
var ErrEmptyImage = errors.New("empty image")

const (
	captionTimeout = 90 * time.Second
	refineTimeout  = 60 * time.Second
)

const captionPrompt = "Describe this photo in one or two plain sentences. " +
	"Mention the main subject, the setting, and the overall mood."

const refineSystemPrompt = "You are an expert in analyzing visual content and emotions. " +
	"Given the description of an image, provide a single, detailed, and expressive " +
	"description that captures the overall mood, background, and key visual elements " +
	"such as gestures, facial expressions, and environment. Respond with the " +
	"description only, no preamble."

// Describer turns a photo into a refined textual description, caching results
// by fingerprint so repeated uploads skip the expensive model calls.
type Describer struct {
	engine      engine.Engine
	visionModel string
	refineModel string
	cache       *Cache
}

// NewDescriber creates a Describer using the given engine and model names.
// cache may not be nil.
func NewDescriber(e engine.Engine, visionModel, refineModel string, cache *Cache) *Describer {
	return &Describer{
		engine:      e,
		visionModel: visionModel,
		refineModel: refineModel,
		cache:       cache,
	}
}

// Describe produces a refined description for the photo, optionally folding in
// a manual note from the user. Results are cached by Fingerprint(image, manual);
// a cache hit returns without touching either model.
//
// A captioning failure fails the request. A refinement failure degrades to the
// raw caption (with the manual note appended) rather than failing.
func (d *Describer) Describe(ctx context.Context, image []byte, manual string) (string, error) {
	if len(image) == 0 {
		return "", ErrEmptyImage
	}
	manual = strings.TrimSpace(manual)

	key := Fingerprint(image, manual)
	if cached, ok := d.cache.Get(key); ok {
		slog.Debug("description served from cache", "fingerprint", key[:12])
		return cached, nil
	}

	caption, err := d.caption(ctx, image)
	if err != nil {
		return "", fmt.Errorf("captioning photo: %w", err)
	}

	description, err := d.refine(ctx, caption, manual)
	if err != nil {
		slog.Warn("description refinement failed, using raw caption", "error", err)
		description = caption
		if manual != "" {
			description = caption + " " + manual
		}
	}

	d.cache.Set(key, description)
	return description, nil
}

// CacheSize returns the current number of cached descriptions.
func (d *Describer) CacheSize() int {
	return d.cache.Size()
}

func (d *Describer) caption(ctx context.Context, image []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, captionTimeout)
	defer cancel()

	encoded := base64.StdEncoding.EncodeToString(image)
	resp, err := d.engine.Chat(ctx, d.visionModel, []engine.Message{
		{Role: "user", Content: captionPrompt, Images: []string{encoded}},
	})
	if err != nil {
		return "", err
	}

	caption := strings.TrimSpace(resp)
	if caption == "" {
		return "", fmt.Errorf("vision model returned an empty caption")
	}
	return caption, nil
}

func (d *Describer) refine(ctx context.Context, caption, manual string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, refineTimeout)
	defer cancel()

	prompt := "Description: " + caption
	if manual != "" {
		prompt += ". Additional details: " + manual
	}

	resp, err := d.engine.Chat(ctx, d.refineModel, []engine.Message{
		{Role: "system", Content: refineSystemPrompt},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return "", err
	}

	refined := strings.TrimSpace(resp)
	if refined == "" {
		return "", fmt.Errorf("refine model returned an empty description")
	}
	return refined, nil
}
